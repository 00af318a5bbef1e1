package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
	"github.com/dharsanguruparan/InsightDrop/internal/repository"
)

func seedProject(t *testing.T, store *MemoryStore) *model.Project {
	t.Helper()
	ctx := context.Background()
	user := &model.User{GitHubID: 1, Login: "octo"}
	require.NoError(t, store.Users().Upsert(ctx, user))
	project := &model.Project{Name: "Q4", OwnerID: user.ID}
	require.NoError(t, store.Projects().Create(ctx, project))
	return project
}

func TestUpsertKeepsIdentityAndRole(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := &model.User{GitHubID: 42, Login: "octo", Email: "old@example.com"}
	require.NoError(t, store.Users().Upsert(ctx, first))
	assert.Equal(t, model.RoleUser, first.Role)

	_, err := store.Users().UpdateRole(ctx, first.ID, model.RoleAdmin)
	require.NoError(t, err)

	again := &model.User{GitHubID: 42, Login: "octocat", Email: "new@example.com"}
	require.NoError(t, store.Users().Upsert(ctx, again))
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, model.RoleAdmin, again.Role)
	assert.Equal(t, "octocat", again.Login)

	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestProjectDeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	project := seedProject(t, store)
	other := &model.Project{Name: "other", OwnerID: project.OwnerID}
	require.NoError(t, store.Projects().Create(ctx, other))

	file := &model.UploadedFile{ProjectID: project.ID, Name: "a.csv"}
	require.NoError(t, store.Files().Create(ctx, file))
	require.NoError(t, store.Reports().Create(ctx, &model.Report{ProjectID: project.ID, FileID: file.ID, GeneratedBy: project.OwnerID}))
	require.NoError(t, store.Reports().Create(ctx, &model.Report{ProjectID: other.ID, GeneratedBy: project.OwnerID}))

	require.NoError(t, store.Projects().Delete(ctx, project.ID))

	_, err := store.Files().Get(ctx, file.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	reports, err := store.Reports().ListByGenerator(ctx, project.OwnerID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, other.ID, reports[0].ProjectID)

	assert.ErrorIs(t, store.Projects().Delete(ctx, project.ID), repository.ErrProjectNotFound)
}

func TestFileDeleteKeepsReports(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	project := seedProject(t, store)
	file := &model.UploadedFile{ProjectID: project.ID, Name: "a.csv"}
	require.NoError(t, store.Files().Create(ctx, file))
	report := &model.Report{ProjectID: project.ID, FileID: file.ID}
	require.NoError(t, store.Reports().Create(ctx, report))

	require.NoError(t, store.Files().Delete(ctx, file.ID))

	got, err := store.Reports().Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.FileID)
	assert.Equal(t, model.ReportCompleted, got.Status)
}

func TestListsAreNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	project := seedProject(t, store)
	for _, name := range []string{"one", "two", "three"} {
		require.NoError(t, store.Reports().Create(ctx, &model.Report{ProjectID: project.ID, Title: name}))
	}
	reports, err := store.Reports().ListByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "three", reports[0].Title)
	assert.Equal(t, "one", reports[2].Title)
}

func TestProjectUpdatePartial(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	project := seedProject(t, store)
	desc := "quarterly numbers"
	updated, err := store.Projects().Update(ctx, project.ID, model.ProjectUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Q4", updated.Name)
	assert.Equal(t, desc, updated.Description)

	_, err = store.Projects().Update(ctx, "missing", model.ProjectUpdate{})
	assert.ErrorIs(t, err, repository.ErrProjectNotFound)
}

func TestReportsAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	project := seedProject(t, store)
	report := &model.Report{ProjectID: project.ID, Insight: model.Insight{Trends: []string{"up"}}}
	require.NoError(t, store.Reports().Create(ctx, report))
	report.Insight.Trends[0] = "mutated"

	got, err := store.Reports().Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"up"}, got.Insight.Trends)
}

func TestMemoryBlobStore(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemoryBlobStore()
	require.NoError(t, blobs.Put(ctx, "k", strings.NewReader("hello"), 5, "text/plain"))

	data, err := blobs.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	link, err := blobs.PresignGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "memory://k?expires="))

	require.NoError(t, blobs.Delete(ctx, "k"))
	require.NoError(t, blobs.Delete(ctx, "k"))
	_, err = blobs.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.Error(t, blobs.Put(ctx, "short", strings.NewReader("abc"), 10, "text/plain"))
	assert.Equal(t, 0, blobs.Len())
}

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	assert.Equal(t, "u1/p1/1700000000000-Q4_report_.csv", ObjectKey("u1", "p1", "../Q4 report!.csv", now))
	assert.Equal(t, "u1/p1/1700000000000-file", ObjectKey("u1", "p1", "", now))
	assert.Equal(t, "u1/p1/1700000000000-b.pdf", ObjectKey("u1", "p1", `C:\docs\b.pdf`, now))
}
