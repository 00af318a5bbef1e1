package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

const (
	summaryPrompt = "You are a professional report summarizer. Create a concise, structured summary of the provided content. " +
		"Focus on key points, findings, and actionable insights. Format your response with clear sections and bullet points where appropriate."
	answerPrompt = "You are an analyst answering questions about a client document. Answer only from the provided content. " +
		"Use short bullet points."

	maxTokens   = 500
	temperature = 0.3
)

// RemoteConfig configures a RemoteSummarizer.
type RemoteConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds one whole Insight or Answer call.
	Timeout time.Duration
	// ContentLimit caps the characters of text sent to the model.
	ContentLimit int
}

// RemoteSummarizer calls an OpenAI compatible chat completions endpoint. Each
// request is a single attempt; the client never retries.
type RemoteSummarizer struct {
	client  openai.Client
	model   string
	timeout time.Duration
	limit   int
}

// NewRemoteSummarizer builds a summarizer for cfg.
func NewRemoteSummarizer(cfg RemoteConfig) *RemoteSummarizer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	chatModel := cfg.Model
	if chatModel == "" {
		chatModel = "gpt-3.5-turbo"
	}
	return &RemoteSummarizer{
		client:  openai.NewClient(opts...),
		model:   chatModel,
		timeout: cfg.Timeout,
		limit:   cfg.ContentLimit,
	}
}

// Insight requests a summary followed by the three fixed questions.
func (r *RemoteSummarizer) Insight(ctx context.Context, text string, metrics []model.Metric) (model.Insight, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	excerpt := Excerpt(text, r.limit)
	summary, err := r.complete(ctx, summaryPrompt, "Please summarize the following content:\n\n"+excerpt)
	if err != nil {
		return model.Insight{}, err
	}
	kpis, err := r.ask(ctx, excerpt, QuestionMetrics)
	if err != nil {
		return model.Insight{}, err
	}
	trends, err := r.ask(ctx, excerpt, QuestionTrends)
	if err != nil {
		return model.Insight{}, err
	}
	actions, err := r.ask(ctx, excerpt, QuestionActions)
	if err != nil {
		return model.Insight{}, err
	}

	return normalize(model.Insight{
		Summary:          summary,
		Metrics:          metrics,
		MetricsNarrative: kpis,
		Trends:           splitItems(trends),
		Actions:          splitItems(actions),
		Source:           model.SourceRemote,
	}), nil
}

// Answer asks a single free-form question about text.
func (r *RemoteSummarizer) Answer(ctx context.Context, text, question string) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.ask(ctx, Excerpt(text, r.limit), question)
}

func (r *RemoteSummarizer) ask(ctx context.Context, excerpt, question string) (string, error) {
	return r.complete(ctx, answerPrompt, "Content:\n\n"+excerpt+"\n\nQuestion: "+question)
}

func (r *RemoteSummarizer) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", ErrRemoteUnavailable)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrRemoteUnavailable)
	}
	return content, nil
}

func (r *RemoteSummarizer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
