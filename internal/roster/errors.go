package roster

import "errors"

// Lookup errors. The state is left unchanged when an intent fails with any of
// these.
var (
	ErrStudentNotFound  = errors.New("student not found")
	ErrCohortNotFound   = errors.New("cohort not found")
	ErrPracticeNotFound = errors.New("practice item not found")
	ErrNoteNotFound     = errors.New("note not found")
	ErrUnknownSkill     = errors.New("unknown skill")
)

// Input errors.
var (
	ErrEmptyName       = errors.New("name is required")
	ErrEmptyNote       = errors.New("note text is required")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidLogType  = errors.New("invalid log type")
	ErrMalformedImport = errors.New("malformed import document")
)
