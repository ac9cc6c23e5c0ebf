package core

// error_messages.go maps technical errors to messages users can act on.
//
// Each message carries a code users can quote to support. Codes are grouped
// by category:
//
//	FILE001 - File too large            Patterns: "file too large"
//	FILE002 - Too many files            Patterns: "too many files"
//	FILE003 - No file provided          Patterns: "no file provided"
//	FILE004 - Unsupported format        Patterns: "unsupported file format"
//	FILE005 - Unreadable workbook       Patterns: "malformed file", "open workbook"
//	FILE006 - Unreadable text encoding  Patterns: "utf-16 decode", "windows-1252 decode", "read csv"
//
//	REF001  - Reference missing column  Patterns: "reference workbook missing column"
//	REF002  - Reference unavailable     Patterns: "reference"
//
//	SES001  - Session not found         Patterns: "session not found"
//	SES002  - Too many sessions         Patterns: "too many active sessions"
//
//	PROC001 - Server busy               Patterns: "too many processing runs"
//	PROC002 - Timed out                 Patterns: "deadline exceeded", "timeout"
//	PROC003 - Cancelled                 Patterns: "context canceled"
//
//	REQ001  - Bad export format         Patterns: "invalid export format"
//	REQ002  - Bad request               Patterns: "invalid request"
//
//	RATE001 - Rate limited              Patterns: "rate limit"
//	ERR000  - Anything else
//
// Patterns are matched case-insensitively against err.Error(), in order.
// More specific patterns come first.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoFiles is returned when an upload carries no files.
	ErrNoFiles = errors.New("no file provided")
	// ErrTooManyFiles is returned when an upload exceeds the file count limit.
	ErrTooManyFiles = errors.New("too many files")
	// ErrFileTooLarge is returned when a file exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidExportFormat is returned for an unknown export format.
	ErrInvalidExportFormat = errors.New("invalid export format")
	// ErrInvalidRequest is returned for malformed request input.
	ErrInvalidRequest = errors.New("invalid request")
)

// UserMessage is a user-facing error description.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{"file too large", UserMessage{
		Message: "The file is larger than the allowed size",
		Action:  "Split the offer file or remove unused sheets",
		Code:    "FILE001",
	}},
	{"too many files", UserMessage{
		Message: "Too many files were uploaded at once",
		Action:  "Upload fewer files per session",
		Code:    "FILE002",
	}},
	{"no file provided", UserMessage{
		Message: "No file was uploaded",
		Action:  "Select at least one offer file",
		Code:    "FILE003",
	}},
	{"unsupported file format", UserMessage{
		Message: "The file format is not supported",
		Action:  "Upload an .xlsx, .xls or .csv file",
		Code:    "FILE004",
	}},
	{"malformed file", UserMessage{
		Message: "The workbook could not be read",
		Action:  "Open the file in a spreadsheet program and save it again",
		Code:    "FILE005",
	}},
	{"open workbook", UserMessage{
		Message: "The workbook could not be read",
		Action:  "Open the file in a spreadsheet program and save it again",
		Code:    "FILE005",
	}},
	{"utf-16 decode", UserMessage{
		Message: "The file's text encoding could not be read",
		Action:  "Save the file as UTF-8 CSV",
		Code:    "FILE006",
	}},
	{"windows-1252 decode", UserMessage{
		Message: "The file's text encoding could not be read",
		Action:  "Save the file as UTF-8 CSV",
		Code:    "FILE006",
	}},
	{"read csv", UserMessage{
		Message: "The CSV file could not be parsed",
		Action:  "Check the file for broken quoting",
		Code:    "FILE006",
	}},

	// Reference catalogue errors
	{"reference workbook missing column", UserMessage{
		Message: "The reference catalogue lacks the product code column",
		Action:  "Contact the administrator to replace the reference workbook",
		Code:    "REF001",
	}},
	{"reference", UserMessage{
		Message: "The reference catalogue is unavailable",
		Action:  "Contact the administrator",
		Code:    "REF002",
	}},

	// Session errors
	{"session not found", UserMessage{
		Message: "This session has expired or does not exist",
		Action:  "Upload your files again",
		Code:    "SES001",
	}},
	{"too many active sessions", UserMessage{
		Message: "The server is holding too many sessions",
		Action:  "Please try again in a few minutes",
		Code:    "SES002",
	}},

	// Processing errors
	{"too many processing runs", UserMessage{
		Message: "The server is busy processing other files",
		Action:  "Please try again shortly",
		Code:    "PROC001",
	}},
	{"deadline exceeded", UserMessage{
		Message: "Processing took too long",
		Action:  "Try with fewer or smaller files",
		Code:    "PROC002",
	}},
	{"timeout", UserMessage{
		Message: "Processing took too long",
		Action:  "Try with fewer or smaller files",
		Code:    "PROC002",
	}},
	{"context canceled", UserMessage{
		Message: "Processing was cancelled",
		Action:  "Start the analysis again",
		Code:    "PROC003",
	}},

	// Request errors
	{"invalid export format", UserMessage{
		Message: "Unknown export format",
		Action:  "Choose CSV or Excel",
		Code:    "REQ001",
	}},
	{"invalid request", UserMessage{
		Message: "The request could not be understood",
		Action:  "Reload the page and try again",
		Code:    "REQ002",
	}},

	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError returns the user message for err, or defaultMessage when no
// pattern matches. A nil error maps to the zero UserMessage.
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

// FormatUserError formats err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
