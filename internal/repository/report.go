package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

// ReportStore wraps the SQL for the reports table. Reports have no update
// path; the insight is stored as JSONB.
type ReportStore struct {
	pool *pgxpool.Pool
}

func NewReportStore(pool *pgxpool.Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

const reportColumns = `id, project_id, file_id, title, content, summary, insight, generated_by, status, created_at`

func (r *ReportStore) Create(ctx context.Context, rep *model.Report) error {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	if rep.Status == "" {
		rep.Status = model.ReportCompleted
	}
	rep.CreatedAt = time.Now().UTC()
	insight, err := json.Marshal(rep.Insight)
	if err != nil {
		return fmt.Errorf("encode insight: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, rep.ID, rep.ProjectID, rep.FileID, rep.Title, rep.Content, rep.Summary, insight, rep.GeneratedBy, rep.Status, rep.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *ReportStore) Get(ctx context.Context, id string) (*model.Report, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id=$1`, id)
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("select report: %w", err)
	}
	return rep, nil
}

func (r *ReportStore) ListByProject(ctx context.Context, projectID string) ([]model.Report, error) {
	return r.list(ctx, `SELECT `+reportColumns+` FROM reports WHERE project_id=$1 ORDER BY created_at DESC`, projectID)
}

func (r *ReportStore) ListByGenerator(ctx context.Context, userID string) ([]model.Report, error) {
	return r.list(ctx, `SELECT `+reportColumns+` FROM reports WHERE generated_by=$1 ORDER BY created_at DESC`, userID)
}

func (r *ReportStore) list(ctx context.Context, query string, arg string) ([]model.Report, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []model.Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, *rep)
	}
	return reports, rows.Err()
}

func scanReport(row pgx.Row) (*model.Report, error) {
	var (
		rep     model.Report
		insight []byte
	)
	if err := row.Scan(&rep.ID, &rep.ProjectID, &rep.FileID, &rep.Title, &rep.Content, &rep.Summary, &insight, &rep.GeneratedBy, &rep.Status, &rep.CreatedAt); err != nil {
		return nil, err
	}
	if len(insight) > 0 {
		if err := json.Unmarshal(insight, &rep.Insight); err != nil {
			return nil, fmt.Errorf("decode insight: %w", err)
		}
	}
	return &rep, nil
}
