package model

// MetricKind is the category a scanned value belongs to.
type MetricKind string

const (
	MetricPercentage MetricKind = "percentage"
	MetricCurrency   MetricKind = "currency"
	MetricDate       MetricKind = "date"
	MetricNumber     MetricKind = "number"
)

// Metric is one typed occurrence found in normalized text.
type Metric struct {
	Kind    MetricKind `json:"kind"`
	Value   string     `json:"value"`
	Context string     `json:"context"`
	// Offset is the byte index of Value in the scanned text.
	Offset int `json:"offset"`
}

// InsightSource records which summarizer produced an Insight.
type InsightSource string

const (
	SourceRemote        InsightSource = "remote"
	SourceDeterministic InsightSource = "deterministic"
)

// Insight bundles the summary, metrics, trends and actions produced for a file.
type Insight struct {
	Summary string   `json:"summary"`
	Metrics []Metric `json:"metrics"`
	// MetricsNarrative holds the free-form KPI answer from a remote model.
	MetricsNarrative string        `json:"metricsNarrative,omitempty"`
	Trends           []string      `json:"trends"`
	Actions          []string      `json:"actions"`
	Source           InsightSource `json:"source"`
}
