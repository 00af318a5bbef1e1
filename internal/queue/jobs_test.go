package queue

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReportTaskRoundTrip(t *testing.T) {
	task, err := NewGenerateReportTask(GenerateReportPayload{FileID: "f1", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, GenerateReportTask, task.Type())
	assert.JSONEq(t, `{"file_id":"f1","user_id":"u1"}`, string(task.Payload()))

	payload, err := ParseGenerateReportPayload(task)
	require.NoError(t, err)
	assert.Equal(t, "f1", payload.FileID)
}

func TestParseGenerateReportPayloadRejectsGarbage(t *testing.T) {
	_, err := ParseGenerateReportPayload(asynq.NewTask(GenerateReportTask, []byte("{")))
	assert.Error(t, err)
	_, err = ParseGenerateReportPayload(asynq.NewTask(GenerateReportTask, []byte(`{"user_id":"u1"}`)))
	assert.Error(t, err)
}
