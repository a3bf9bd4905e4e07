package output

import (
	"encoding/json"
	"io"
)

// ErrorCode represents a machine-readable error classification.
type ErrorCode string

// Error code constants.
const (
	ErrGeneral    ErrorCode = "GENERAL_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrConflict   ErrorCode = "CONFLICT"
	ErrMetadata   ErrorCode = "METADATA_ERROR"
	ErrFormat     ErrorCode = "UNSUPPORTED_FORMAT"
)

// Exit code constants.
const (
	ExitSuccess    = 0
	ExitGeneral    = 1
	ExitNotFound   = 2
	ExitValidation = 3
	ExitConflict   = 4
	ExitMetadata   = 5
	ExitFormat     = 6
)

var exitCodes = map[ErrorCode]int{
	ErrGeneral:    ExitGeneral,
	ErrNotFound:   ExitNotFound,
	ErrValidation: ExitValidation,
	ErrConflict:   ExitConflict,
	ErrMetadata:   ExitMetadata,
	ErrFormat:     ExitFormat,
}

// ExitCodeForError maps an ErrorCode to its process exit code. Unknown codes
// exit with ExitGeneral.
func ExitCodeForError(code ErrorCode) int {
	if c, ok := exitCodes[code]; ok {
		return c
	}
	return ExitGeneral
}

// successEnvelope is the JSON structure for successful responses.
type successEnvelope struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// errorEnvelope is the JSON structure for error responses.
type errorEnvelope struct {
	OK    bool      `json:"ok"`
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
	Hint  string    `json:"hint,omitempty"`
}

// progressEvent is one line of JSON progress output.
type progressEvent struct {
	Stage    string `json:"stage"`
	Progress int    `json:"progress"`
}

// writeJSONSuccess writes a success envelope to w.
func writeJSONSuccess(w io.Writer, data any, message string) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(successEnvelope{
		OK:      true,
		Data:    data,
		Message: message,
	})
}

// writeJSONProgress writes a progress event to w.
func writeJSONProgress(w io.Writer, stage string, percent int) {
	json.NewEncoder(w).Encode(progressEvent{Stage: stage, Progress: percent})
}

// writeJSONError writes an error envelope to w.
func writeJSONError(w io.Writer, err error, code ErrorCode) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(errorEnvelope{
		OK:    false,
		Error: err.Error(),
		Code:  code,
		Hint:  hints[code],
	})
}
