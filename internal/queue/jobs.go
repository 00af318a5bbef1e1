// Package queue defines the background analysis job and the dispatchers that
// hand it to a worker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// GenerateReportTask is scheduled for each upload when analysis runs in
	// the worker.
	GenerateReportTask = "report:generate"
)

// GenerateReportPayload is serialized into the task payload so the worker can
// load the file record and its object.
type GenerateReportPayload struct {
	FileID string `json:"file_id"`
	UserID string `json:"user_id"`
}

// Dispatcher hands an ingested file to background analysis.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload GenerateReportPayload) error
}

// NewGenerateReportTask builds the asynq task for payload.
func NewGenerateReportTask(payload GenerateReportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(GenerateReportTask, data), nil
}

// ParseGenerateReportPayload decodes a task payload.
func ParseGenerateReportPayload(task *asynq.Task) (GenerateReportPayload, error) {
	var payload GenerateReportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("decode payload: %w", err)
	}
	if payload.FileID == "" {
		return payload, fmt.Errorf("decode payload: missing file_id")
	}
	return payload, nil
}

// AsynqDispatcher enqueues jobs into Redis.
type AsynqDispatcher struct {
	client *asynq.Client
}

func NewAsynqDispatcher(client *asynq.Client) *AsynqDispatcher {
	return &AsynqDispatcher{client: client}
}

// Dispatch enqueues the job without automatic retries; a failed analysis is
// final and the user uploads again.
func (d *AsynqDispatcher) Dispatch(ctx context.Context, payload GenerateReportPayload) error {
	task, err := NewGenerateReportTask(payload)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, task, asynq.MaxRetry(0)); err != nil {
		return fmt.Errorf("enqueue generate task: %w", err)
	}
	return nil
}
