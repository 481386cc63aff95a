package errcode

// Code conventions:
// - 0: no error
// - 4xxx: recoverable business warnings (the run still completed)
// - 5xxx: system errors (the run was aborted)
const (
	OK               = 0
	ResourceMissing  = 4004
	ThumbnailFailed  = 4005
	ThumbnailSkipped = 4006
	SystemError      = 5000
	CompileFailed    = 5001
)
