// Package importer orchestrates the import pipeline: staged uploads,
// preview, normalization, transformer runs and batch loading.
//
// # Error Codes Reference
//
// User-facing errors carry a short code operators can quote when reporting a
// problem:
//
//	SHP001 - No date axis found in a planning grid
//	SHP002 - No header row found in a rate report tab
//	SHP003 - Channel export refresh timestamp unreadable
//	SHP004 - Unrecognized report category or tab name
//	REQ001 - Malformed request body
//	FILE001 - Uploaded file not found (expired or cleaned up)
//	FILE002 - File could not be parsed with any supported encoding
//	FILE003 - File type not allowed
//	DB001  - Duplicate key rejected by the store
//	ST001  - Store unreachable
//	ST002  - Store credentials rejected
//	ST003  - Operation timed out
//	ERR000 - Anything else; check the logs for the technical error
package importer

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an importer error for transport mapping.
type Kind int

const (
	// KindBadInput is a malformed or incomplete request.
	KindBadInput Kind = iota
	// KindShape means the file's layout defeated detection (no header, no
	// date axis, missing fixed cell).
	KindShape
	// KindNotFound is a missing upload, template or table.
	KindNotFound
	// KindStore is a destination store failure.
	KindStore
	// KindInternal is everything else.
	KindInternal
)

// Error is an importer failure with a classification.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return e.Msg + ": " + e.Err.Error()
		}
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindInternal
}

func badInput(format string, args ...any) *Error {
	return &Error{Kind: KindBadInput, Msg: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func shapeErr(err error) *Error {
	return &Error{Kind: KindShape, Err: err}
}

func storeErr(err error) *Error {
	return &Error{Kind: KindStore, Err: err}
}

// UserMessage provides user-friendly error information with an actionable
// hint and a support code.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive substring) to
// user messages. The first matching pattern wins, so specific patterns come
// before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "date axis",
		msg: UserMessage{
			Message: "No date row was found in the planning grid",
			Action:  "Check that the file is an unmodified planning export",
			Code:    "SHP001",
		},
	},
	{
		pattern: "no header row",
		msg: UserMessage{
			Message: "No header row was found in this tab",
			Action:  "Check the tab name and that the export is complete",
			Code:    "SHP002",
		},
	},
	{
		pattern: "timestamp cell",
		msg: UserMessage{
			Message: "The refresh timestamp of the channel export is unreadable",
			Action:  "Re-export the file; the timestamp cell must be present",
			Code:    "SHP003",
		},
	},
	{
		pattern: "unrecognized report category",
		msg: UserMessage{
			Message: "This report category is not recognized",
			Action:  "Pick a category from the list",
			Code:    "SHP004",
		},
	},
	{
		pattern: "unsupported rate report tab",
		msg: UserMessage{
			Message: "This tab of the rate report is not supported",
			Action:  "Pick one of the known tabs",
			Code:    "SHP004",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be parsed",
			Action:  "Check the request body is valid JSON",
			Code:    "REQ001",
		},
	},
	{
		pattern: "supported encoding",
		msg: UserMessage{
			Message: "The file could not be read as a delimited text file",
			Action:  "Save the file as UTF-8 CSV and try again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "file type",
		msg: UserMessage{
			Message: "This file type is not allowed",
			Action:  "Upload a CSV or Excel export",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The uploaded file is no longer available",
			Action:  "Upload the file again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "not found",
		msg: UserMessage{
			Message: "The requested file or template was not found",
			Action:  "Upload the file again or refresh the template list",
			Code:    "FILE001",
		},
	},
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "The store rejected duplicate rows",
			Action:  "Check whether this report was already imported",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "The destination store is unreachable",
			Action:  "Try again in a few moments",
			Code:    "ST001",
		},
	},
	{
		pattern: "status 401",
		msg: UserMessage{
			Message: "The destination store rejected the credentials",
			Action:  "Check the store URL and API key configuration",
			Code:    "ST002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "ST003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "ST003",
		},
	},
}

// MapError converts a technical error into a user-facing message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg
		}
	}
	return UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support with the code",
		Code:    "ERR000",
	}
}
