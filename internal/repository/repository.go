// Package repository defines persistence interfaces and their PostgreSQL
// implementations on top of pgx.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrProjectNotFound = fmt.Errorf("project %w", ErrNotFound)
	ErrFileNotFound    = fmt.Errorf("file %w", ErrNotFound)
	ErrReportNotFound  = fmt.Errorf("report %w", ErrNotFound)
)

type UserRepository interface {
	// Upsert inserts the user or refreshes the profile fields of the account
	// with the same GitHub id. ID, Role and CreatedAt are filled from storage.
	Upsert(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error)
}

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	Get(ctx context.Context, id string) (*model.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Project, error)
	Update(ctx context.Context, id string, update model.ProjectUpdate) (*model.Project, error)
	// Delete removes the project together with its files and reports.
	Delete(ctx context.Context, id string) error
}

type FileRepository interface {
	Create(ctx context.Context, file *model.UploadedFile) error
	Get(ctx context.Context, id string) (*model.UploadedFile, error)
	ListByProject(ctx context.Context, projectID string) ([]model.UploadedFile, error)
	// Delete removes the file row only; reports built from it are kept.
	Delete(ctx context.Context, id string) error
}

type ReportRepository interface {
	// Create is a single insert; a failed call leaves nothing behind.
	Create(ctx context.Context, report *model.Report) error
	Get(ctx context.Context, id string) (*model.Report, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Report, error)
	// ListByGenerator returns the reports a user generated, newest first.
	ListByGenerator(ctx context.Context, userID string) ([]model.Report, error)
}
