package core

// Error codes reference.
//
// Every failure ends the run; the code printed with the message tells the
// operator where to look.
//
// # Pipeline Errors
//
//	DEC001 - A CSV row could not be decoded
//	         Action: Fix the reported line or re-export the source file
//	SCH001 - Table definition does not match the store
//	         Action: Check the table catalog; this is a program defect
//	CON001 - Internal consistency check failed
//	         Action: Re-run against a fresh store; report if it persists
//	SNP001 - Snapshot could not be written
//	         Action: Check free disk space and permissions, then re-run
//
// # Input Errors
//
//	FILE001 - Source file not found
//	FILE002 - Source file has no header row
//	FILE003 - Required column missing from header
//
// # Run Errors
//
//	RUN001 - Run was cancelled
//	RUN002 - Run timed out
//	PUB001 - Publication database unreachable
//
//	ERR000 - Unexpected error; check the log for the technical error

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// UserMessage provides operator-friendly error information with guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for reference
}

var (
	msgDecode = UserMessage{
		Message: "A CSV row could not be decoded",
		Action:  "Fix the reported line or re-export the source file",
		Code:    "DEC001",
	}
	msgSchema = UserMessage{
		Message: "Table definition does not match the store",
		Action:  "Check the table catalog; this is a program defect",
		Code:    "SCH001",
	}
	msgConsistency = UserMessage{
		Message: "Internal consistency check failed",
		Action:  "Re-run against a fresh store; report if it persists",
		Code:    "CON001",
	}
	msgSnapshot = UserMessage{
		Message: "Snapshot could not be written",
		Action:  "Check free disk space and permissions, then re-run",
		Code:    "SNP001",
	}
	msgNotFound = UserMessage{
		Message: "Source file not found",
		Action:  "Check INPUT_DIR and the *_CSV settings",
		Code:    "FILE001",
	}
)

// errorPattern defines a pattern to match and its corresponding message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// inputPatterns and runPatterns map error text (case-insensitive) to
// messages. The first matching pattern wins.
var inputPatterns = []errorPattern{
	{
		pattern: "missing header",
		msg: UserMessage{
			Message: "Source file has no header row",
			Action:  "Ensure the first line of the CSV lists column names",
			Code:    "FILE002",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column missing from header",
			Action:  "Check that the CSV header uses a known column spelling",
			Code:    "FILE003",
		},
	},
}

var runPatterns = []errorPattern{
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Run was cancelled",
			Action:  "Re-run against a fresh store",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Run timed out",
			Action:  "Increase PUBLISH_TIMEOUT or check the database",
			Code:    "RUN002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Publication database unreachable",
			Action:  "Check PUBLISH_DATABASE_URL and that PostgreSQL is running",
			Code:    "PUB001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log for details",
	Code:    "ERR000",
}

// MapError converts an error to an operator-friendly message.
// Input problems are checked first since they are the ones an operator can
// fix; then the typed pipeline errors; then text patterns.
//
// Example:
//
//	msg := MapError(&DecodeError{Table: "serving", Line: 12, Err: err})
//	// msg.Code == "DEC001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var snapErr *SnapshotError
	if errors.Is(err, fs.ErrNotExist) && !errors.As(err, &snapErr) {
		return msgNotFound
	}

	errStr := strings.ToLower(err.Error())
	if msg, ok := matchPattern(errStr, inputPatterns); ok {
		return msg
	}

	var (
		decErr *DecodeError
		schErr *SchemaError
		conErr *ConsistencyError
	)
	switch {
	case errors.As(err, &decErr):
		return msgDecode
	case errors.As(err, &schErr):
		return msgSchema
	case errors.As(err, &conErr):
		return msgConsistency
	case errors.As(err, &snapErr):
		return msgSnapshot
	}

	if msg, ok := matchPattern(errStr, runPatterns); ok {
		return msg
	}
	return defaultMessage
}

func matchPattern(errStr string, patterns []errorPattern) (UserMessage, bool) {
	for _, ep := range patterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
