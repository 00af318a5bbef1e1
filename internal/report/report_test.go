package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
	"github.com/dharsanguruparan/InsightDrop/internal/repository"
	"github.com/dharsanguruparan/InsightDrop/internal/storage"
)

type failingReports struct {
	repository.ReportRepository
}

func (failingReports) Create(context.Context, *model.Report) error {
	return errors.New("connection reset")
}

func seed(t *testing.T) (*storage.MemoryStore, *model.UploadedFile) {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	project := &model.Project{Name: "p", OwnerID: "u1"}
	require.NoError(t, store.Projects().Create(ctx, project))
	file := &model.UploadedFile{ProjectID: project.ID, Name: "notes.txt"}
	require.NoError(t, store.Files().Create(ctx, file))
	return store, file
}

func TestAssembleDefaults(t *testing.T) {
	store, file := seed(t)
	a := NewAssembler(store.Reports(), 0)

	rep, err := a.Assemble(context.Background(), Draft{
		File:    file,
		UserID:  "u1",
		Text:    strings.Repeat("x", 6000),
		Insight: model.Insight{Summary: "short summary"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Report for notes.txt", rep.Title)
	assert.Len(t, rep.Content, DefaultContentLimit)
	assert.Equal(t, "short summary", rep.Summary)
	assert.Equal(t, model.ReportCompleted, rep.Status)
	assert.Equal(t, file.ID, rep.FileID)
	assert.Equal(t, "u1", rep.GeneratedBy)

	stored, err := store.Reports().Get(context.Background(), rep.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.Title, stored.Title)
}

func TestAssembleCustomTitle(t *testing.T) {
	store, file := seed(t)
	rep, err := NewAssembler(store.Reports(), 10).Assemble(context.Background(), Draft{
		File:  file,
		Title: "  Q4 review ",
		Text:  "short",
	})
	require.NoError(t, err)
	assert.Equal(t, "Q4 review", rep.Title)
	assert.Equal(t, "short", rep.Content)
}

func TestAssemblePersistFailure(t *testing.T) {
	_, file := seed(t)
	rep, err := NewAssembler(failingReports{}, 0).Assemble(context.Background(), Draft{File: file})
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, ErrPersistFailure)
	assert.Contains(t, err.Error(), "connection reset")
}
