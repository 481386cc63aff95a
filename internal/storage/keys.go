package storage

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Object key layout:
//
//	resumes/<user_id>/<resume_id>/<artifact_id>.tex|.pdf|.png
//	uploads/<user_id>/<upload_id>.pdf
//
// Every key is namespaced under the owning user so a prefix delete on
// resumes/<user_id>/ wipes all of that user's render artifacts.

// ResumeArtifactKey names one render artifact of a resume. ext must
// include the leading dot.
func ResumeArtifactKey(userID, resumeID, artifactID uuid.UUID, ext string) string {
	return fmt.Sprintf("resumes/%s/%s/%s%s", userID, resumeID, artifactID, ext)
}

// ResumePrefix is the prefix holding all artifacts of one resume.
func ResumePrefix(userID, resumeID uuid.UUID) string {
	return UserPrefix(userID) + resumeID.String() + "/"
}

// UserPrefix is the prefix holding all render artifacts of one user.
func UserPrefix(userID uuid.UUID) string {
	return fmt.Sprintf("resumes/%s/", userID)
}

// UploadKey names a user-uploaded PDF awaiting text extraction.
func UploadKey(userID, uploadID uuid.UUID) string {
	return fmt.Sprintf("uploads/%s/%s.pdf", userID, uploadID)
}

// IsValidUserArtifactKey reports whether key is a well-formed artifact
// key inside userID's namespace. A key that fails this check is never
// presigned, whatever record it came from.
func IsValidUserArtifactKey(userID uuid.UUID, key string) bool {
	if key == "" || !utf8.ValidString(key) {
		return false
	}
	if !strings.HasPrefix(key, UserPrefix(userID)) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	if len(key) > 256 {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(key))
	if !(strings.HasSuffix(lower, ".tex") || strings.HasSuffix(lower, ".pdf") || strings.HasSuffix(lower, ".png")) {
		return false
	}
	return true
}
