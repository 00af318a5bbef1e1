package insight

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

type failingSummarizer struct{ calls int }

func (f *failingSummarizer) Insight(context.Context, string, []model.Metric) (model.Insight, error) {
	f.calls++
	return model.Insight{}, ErrRemoteUnavailable
}

func (f *failingSummarizer) Answer(context.Context, string, string) (string, error) {
	f.calls++
	return "", errors.New("boom")
}

func TestDeterministicNeverFails(t *testing.T) {
	d := NewDeterministicSummarizer()
	for _, text := range []string{"", "   ", "plain words only", strings.Repeat("x", 20000)} {
		in, err := d.Insight(context.Background(), text, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, in.Summary)
		assert.NotNil(t, in.Metrics)
		assert.NotEmpty(t, in.Trends)
		assert.NotEmpty(t, in.Actions)
		assert.Equal(t, model.SourceDeterministic, in.Source)
	}
}

func TestDeterministicUsesScannedMetrics(t *testing.T) {
	metrics := []model.Metric{{Kind: model.MetricCurrency, Value: "$10", Context: "paid $10"}}
	in := NewDeterministicSummarizer().Build("Paid $10 today. More text.", metrics)

	assert.Equal(t, metrics, in.Metrics)
	assert.Contains(t, in.Summary, "Paid $10 today")
	assert.Contains(t, in.Summary, "1 currency amounts")
}

func TestOpeningSentence(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Revenue grew 15.5% in Q3. Costs were flat.", "Revenue grew 15.5% in Q3"},
		{"Is churn rising? Yes.", "Is churn rising"},
		{"Version 2.1.0 shipped", "Version 2.1.0 shipped"},
		{"Ends with a dot.", "Ends with a dot"},
		{"  Spread\nacross  lines! rest", "Spread across lines"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, openingSentence(tt.text), tt.text)
	}
}

func TestDeterministicExampleMetricsAreCopies(t *testing.T) {
	in := NewDeterministicSummarizer().Build("nothing measurable", nil)
	require.Len(t, in.Metrics, len(exampleMetrics))
	in.Metrics[0].Value = "mutated"
	assert.Equal(t, "15%", exampleMetrics[0].Value)
}

func TestAggregatorFallsBack(t *testing.T) {
	primary := &failingSummarizer{}
	agg := NewAggregator(primary)
	assert.True(t, agg.Remote())

	in := agg.Build(context.Background(), "", nil)
	assert.Equal(t, model.SourceDeterministic, in.Source)
	assert.NotEmpty(t, in.Summary)

	answer, source := agg.Answer(context.Background(), "text", "what changed?")
	assert.Contains(t, answer, "what changed?")
	assert.Equal(t, model.SourceDeterministic, source)
	assert.Equal(t, 2, primary.calls)
}

func TestAggregatorOffline(t *testing.T) {
	agg := NewAggregator(nil)
	assert.False(t, agg.Remote())
	in := agg.Build(context.Background(), "Revenue 5%", []model.Metric{{Kind: model.MetricPercentage, Value: "5%"}})
	assert.Equal(t, "5%", in.Metrics[0].Value)
}

// fakeCompletions serves OpenAI chat completion responses in order.
func fakeCompletions(t *testing.T, replies ...string) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		n := len(requests)
		requests = append(requests, body)
		mu.Unlock()

		reply := replies[n%len(replies)]
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   body["model"],
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestRemoteInsight(t *testing.T) {
	srv, requests := fakeCompletions(t,
		"Revenue is up.",
		"- Revenue growth 15%",
		"1. Growth accelerating\n2) Costs flat",
		"* Hire two analysts\n\n* Renegotiate hosting",
	)
	r := NewRemoteSummarizer(RemoteConfig{APIKey: "test-key", BaseURL: srv.URL + "/", Model: "gpt-test", Timeout: 5 * time.Second, ContentLimit: 10})

	metrics := []model.Metric{{Kind: model.MetricPercentage, Value: "15%"}}
	in, err := r.Insight(context.Background(), "Revenue grew 15% this quarter", metrics)
	require.NoError(t, err)

	assert.Equal(t, "Revenue is up.", in.Summary)
	assert.Equal(t, "- Revenue growth 15%", in.MetricsNarrative)
	assert.Equal(t, []string{"Growth accelerating", "Costs flat"}, in.Trends)
	assert.Equal(t, []string{"Hire two analysts", "Renegotiate hosting"}, in.Actions)
	assert.Equal(t, metrics, in.Metrics)
	assert.Equal(t, model.SourceRemote, in.Source)

	require.Len(t, *requests, 4)
	first := (*requests)[0]
	assert.Equal(t, "gpt-test", first["model"])
	assert.EqualValues(t, 500, first["max_tokens"])
	msgs := first["messages"].([]any)
	user := msgs[1].(map[string]any)["content"].(string)
	assert.True(t, strings.HasSuffix(user, "Revenue gr"), "content is capped at ten characters: %q", user)
}

func TestRemoteFailureIsRecovered(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	remote := NewRemoteSummarizer(RemoteConfig{APIKey: "k", BaseURL: srv.URL + "/", Timeout: time.Second})
	_, err := remote.Insight(context.Background(), "text", nil)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.Equal(t, 1, calls, "no retry after a failed attempt")

	in := NewAggregator(remote).Build(context.Background(), "text", nil)
	assert.Equal(t, model.SourceDeterministic, in.Source)
}

func TestRemoteTimeoutIsRecovered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	remote := NewRemoteSummarizer(RemoteConfig{APIKey: "k", BaseURL: srv.URL + "/", Timeout: 50 * time.Millisecond})
	start := time.Now()
	in := NewAggregator(remote).Build(context.Background(), "text", nil)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, model.SourceDeterministic, in.Source)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "héllo", Excerpt("héllo wörld", 5))
	assert.Equal(t, "short", Excerpt("short", 10))
	assert.Equal(t, "anything", Excerpt("anything", 0))
}

func TestSplitItems(t *testing.T) {
	assert.Equal(t, []string{"one", "two"}, splitItems("- one\n• two\n"))
	assert.Equal(t, []string{"3.5% growth"}, splitItems("3.5% growth"))
	assert.Equal(t, []string{}, splitItems("  "))
}
