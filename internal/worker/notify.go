package worker

import (
	"github.com/google/uuid"

	"resumeforge/internal/resume"
)

// RenderNotifyMessage is the websocket message protocol, forwarded to
// clients over redis pub/sub. Field names match the frontend parser.
type RenderNotifyMessage struct {
	Status        string           `json:"status"`
	ResumeID      uuid.UUID        `json:"resume_id"`
	CorrelationID string           `json:"correlation_id"`
	ErrorCode     int              `json:"error_code"`
	ErrorMessage  string           `json:"error_message"`
	PdfURL        string           `json:"pdf_url,omitempty"`
	ThumbnailURL  string           `json:"thumbnail_url,omitempty"`
	Warnings      []resume.Warning `json:"warnings,omitempty"`
}
