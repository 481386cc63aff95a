package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type constants, shared by queue producers and consumers.
const (
	TypeResumeRender = "resume:render"
)

// ResumeRenderPayload is the minimal job description for one render run.
type ResumeRenderPayload struct {
	ResumeID      uuid.UUID `json:"resume_id"`
	UserID        uuid.UUID `json:"user_id"`
	CorrelationID string    `json:"correlation_id"`
}

// NewResumeRenderTask builds a render task for the given resume.
func NewResumeRenderTask(resumeID, userID uuid.UUID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ResumeRenderPayload{
		ResumeID:      resumeID,
		UserID:        userID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeResumeRender, payload), nil
}

// NotifyChannel is the redis pub/sub channel carrying render notices
// for one user. The worker publishes, the websocket handler forwards.
func NotifyChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notify:%s", userID)
}
