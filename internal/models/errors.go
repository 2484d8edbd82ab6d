package models

import "fmt"

// ValidationError reports input with bad shape or missing fields. The caller
// can recover by correcting the input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// DuplicateError reports that email or contact is already taken. Field is
// "email" or "contact".
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("school with this %s already exists", FieldLabel(e.Field))
}

// FieldLabel maps a conflict field to its user-facing name.
func FieldLabel(field string) string {
	switch field {
	case "email":
		return "email address"
	case "contact":
		return "contact number"
	default:
		return "data"
	}
}

// UploadError reports a failed image upload. The submission is aborted; the
// caller can retry or resubmit without an image.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return fmt.Sprintf("image upload failed: %v", e.Err) }

func (e *UploadError) Unwrap() error { return e.Err }

// SystemError wraps an unexpected dependency failure. Its details are never
// shown to end users.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string { return fmt.Sprintf("system error: %v", e.Err) }

func (e *SystemError) Unwrap() error { return e.Err }
