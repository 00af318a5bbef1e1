package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

// FileStore wraps the SQL for the files table.
type FileStore struct {
	pool *pgxpool.Pool
}

// NewFileStore constructs a repository.
func NewFileStore(pool *pgxpool.Pool) *FileStore {
	return &FileStore{pool: pool}
}

const fileColumns = `id, project_id, name, content_type, size, object_key, uploaded_by, created_at`

// Create inserts an uploaded file record.
func (r *FileStore) Create(ctx context.Context, f *model.UploadedFile) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO files (`+fileColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, f.ID, f.ProjectID, f.Name, f.ContentType, f.Size, f.ObjectKey, f.UploadedBy, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// Get returns a file by id.
func (r *FileStore) Get(ctx context.Context, id string) (*model.UploadedFile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id=$1`, id)
	f, err := scanFile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("select file: %w", err)
	}
	return f, nil
}

// ListByProject returns a project's files, newest first.
func (r *FileStore) ListByProject(ctx context.Context, projectID string) ([]model.UploadedFile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+fileColumns+` FROM files WHERE project_id=$1 ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := []model.UploadedFile{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// Delete removes the file row.
func (r *FileStore) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

func scanFile(row pgx.Row) (*model.UploadedFile, error) {
	var f model.UploadedFile
	if err := row.Scan(&f.ID, &f.ProjectID, &f.Name, &f.ContentType, &f.Size, &f.ObjectKey, &f.UploadedBy, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}
