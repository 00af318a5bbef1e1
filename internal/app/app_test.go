package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/InsightDrop/internal/config"
	"github.com/dharsanguruparan/InsightDrop/internal/model"
	"github.com/dharsanguruparan/InsightDrop/internal/pipeline"
)

func testConfig() *config.Config {
	return &config.Config{
		MaxFileSize:        1 << 20,
		AllowedTypes:       []string{"text/plain"},
		AllowedExtensions:  []string{".txt"},
		StoredContentLimit: 20,
		OpenAIAPIKey:       "sk-test",
	}
}

func TestNewAggregatorOffline(t *testing.T) {
	cfg := testConfig()
	assert.True(t, NewAggregator(cfg, false).Remote())
	assert.False(t, NewAggregator(cfg, true).Remote())

	cfg.OpenAIAPIKey = ""
	assert.False(t, NewAggregator(cfg, false).Remote())
}

func TestMemoryPipeline(t *testing.T) {
	cfg := testConfig()
	st := MemoryStores()
	ctx := context.Background()

	owner := &model.User{GitHubID: 7, Login: "cli"}
	require.NoError(t, st.Users.Upsert(ctx, owner))
	project := &model.Project{Name: "local", OwnerID: owner.ID}
	require.NoError(t, st.Projects.Create(ctx, project))

	res, err := NewPipeline(cfg, st, NewAggregator(cfg, true)).Run(ctx, pipeline.Upload{
		ProjectID:   project.ID,
		UserID:      owner.ID,
		Name:        "notes.txt",
		ContentType: "text/plain",
		Data:        bytes.Repeat([]byte("Sales rose 12%. "), 10),
	})
	require.NoError(t, err)
	assert.Equal(t, model.SourceDeterministic, res.Report.Insight.Source)
	assert.LessOrEqual(t, len([]rune(res.Report.Content)), 20)
}
