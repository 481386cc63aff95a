package resume

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"resumeforge/internal/latex"
)

// ErrResumeNotFound marks a resume id with no record for the owner.
var ErrResumeNotFound = errors.New("custom resume not found")

// MalformedIDError reports a reference id that does not parse as a UUID.
type MalformedIDError struct {
	Kind latex.Kind
	Raw  string
}

func (e *MalformedIDError) Error() string {
	return fmt.Sprintf("malformed %s id %q", e.Kind, e.Raw)
}

// MissingRefsError reports reference ids with no element row for the
// owner. Ids owned by another user surface here too; callers cannot tell
// them apart from ids that never existed.
type MissingRefsError struct {
	Kind latex.Kind
	IDs  []uuid.UUID
}

func (e *MissingRefsError) Error() string {
	ids := make([]string, 0, len(e.IDs))
	for _, id := range e.IDs {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("unknown %s ids: %s", e.Kind, strings.Join(ids, ", "))
}

// UploadError wraps a fatal artifact upload failure.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload artifact %q: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
