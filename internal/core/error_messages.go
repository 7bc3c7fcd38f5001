// Package core provides the survey validation engine.
//
// # Error Codes Reference
//
// This file maps technical errors to user-facing messages with a code that
// can be quoted to support. Codes are grouped by category:
//
// # Dataset Errors (DATA001-DATA099)
//
//	DATA001 - Missing respondent id column
//	          Action: Add the respondent id column to the data file
//	          Patterns: "invalid dataset: missing "
//
//	DATA002 - Duplicate respondent id
//	          Action: Make every respondent id unique
//	          Patterns: "invalid dataset: duplicate "
//
//	DATA003 - Blank respondent id
//	          Action: Fill in the respondent id of every row
//	          Patterns: "has a blank "
//
//	DATA004 - Malformed data row
//	          Action: Check that every row has the same number of columns as the header
//	          Patterns: "values for", "wrong number of fields"
//
//	DATA005 - Duplicate column
//	          Action: Rename columns so every header is unique
//	          Patterns: "invalid dataset: duplicate column"
//
// # Rule Table Errors (RULE001-RULE099)
//
//	RULE001 - Rule table is missing a required column
//	          Action: The rule table needs Question and Check_Type columns
//	          Patterns: "rule table missing"
//
//	RULE002 - Rule file could not be parsed
//	          Action: Check the YAML syntax of the rule file
//	          Patterns: "yaml:"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE003 - Unsupported file type
//	FILE004 - No file provided
//	FILE005 - Empty file
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - System busy: too many concurrent runs
//	RUN002 - Request cancelled
//	RUN003 - Request timed out
//	RUN004 - Data source unavailable (database not configured or unreachable)
//	RUN005 - Table not found in the data source
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the server logs for the
// technical error using the request id.
//
// # Pattern Matching
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Dataset. The id column name is configurable, so these match on the
	// ErrInvalidDataset wrap text rather than the column name.
	{
		pattern: "invalid dataset: duplicate column",
		msg: UserMessage{
			Message: "The data file repeats a column name",
			Action:  "Rename columns so every header is unique",
			Code:    "DATA005",
		},
	},
	{
		pattern: "invalid dataset: duplicate ",
		msg: UserMessage{
			Message: "Two rows share the same respondent id",
			Action:  "Make every respondent id unique",
			Code:    "DATA002",
		},
	},
	{
		pattern: "has a blank ",
		msg: UserMessage{
			Message: "A row has no respondent id",
			Action:  "Fill in the respondent id of every row",
			Code:    "DATA003",
		},
	},
	{
		pattern: "invalid dataset: missing ",
		msg: UserMessage{
			Message: "The data file has no respondent id column",
			Action:  "Add the respondent id column to the data file",
			Code:    "DATA001",
		},
	},
	{
		pattern: "values for",
		msg: UserMessage{
			Message: "A data row has more values than the header",
			Action:  "Check that every row has the same number of columns as the header",
			Code:    "DATA004",
		},
	},

	// Rule table
	{
		pattern: "rule table missing",
		msg: UserMessage{
			Message: "The rule table is missing a required column",
			Action:  "The rule table needs Question and Check_Type columns",
			Code:    "RULE001",
		},
	},
	{
		pattern: "yaml:",
		msg: UserMessage{
			Message: "The rule file could not be parsed",
			Action:  "Check the YAML syntax of the rule file",
			Code:    "RULE002",
		},
	},

	// File
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file or raise UPLOAD_MAX_FILE_SIZE",
			Code:    "FILE001",
		},
	},
	{
		pattern: "wrong number of fields",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "File type is not supported",
			Action:  "Upload data as CSV and rules as CSV or YAML",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Attach both the data file and the rule file",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row",
			Code:    "FILE005",
		},
	},

	// Run lifecycle
	{
		pattern: "too many concurrent validation runs",
		msg: UserMessage{
			Message: "Too many validations in progress",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "RUN003",
		},
	},
	{
		pattern: "data source unavailable",
		msg: UserMessage{
			Message: "The data source is not available",
			Action:  "Configure DATABASE_URL or upload a data file instead",
			Code:    "RUN004",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "Table not found in the data source",
			Action:  "Verify the table name is correct",
			Code:    "RUN005",
		},
	},
	{
		pattern: "no such table",
		msg: UserMessage{
			Message: "Table not found in the data source",
			Action:  "Verify the table name is correct",
			Code:    "RUN005",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError maps err into a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
