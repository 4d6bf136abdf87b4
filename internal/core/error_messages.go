// Package core provides the business logic of the gampong ledger service.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Typed errors are matched first with errors.Is; anything else
// falls back to case-insensitive substring patterns.
//
// # Ledger Errors (LDG001-LDG099)
//
//	LDG001 - Not found: No row matches the village (and sequence number)
//	         Action: Check the village name and number
//	LDG002 - Ledger unavailable: The ledger backend could not be reached
//	         Action: Please try again in a few moments
//	LDG003 - Protected position: The row holds a protected position
//	         Action: Edit the position family in the detail ledger instead
//	LDG004 - Unknown field: The column cannot be edited
//	         Action: Use one of the editable columns
//	LDG005 - Header region: The write targets the ledger's header rows
//	         Action: Reload the ledger and retry
//	LDG006 - Sheet missing: The ledger sheet does not exist in the backend
//	         Action: Check the layout configuration
//	LDG007 - No secretary lines: The council block is too short
//	         Action: Add members to the village block first
//	LDG008 - Invalid value: The value does not fit the column
//	         Action: Check the value format
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Template missing: The export template file does not exist
//	         Action: Check EXPORT_TEMPLATE_DIR
//	EXP002 - Nothing to export: Every ledger is empty
//	         Action: Load ledger data first
//	EXP003 - System busy: Too many exports in progress
//	         Action: Please wait a moment and try again
//
// # Database Errors (DB001-DB099)
//
//	DB004 - Connection refused   Patterns: "connection refused"
//	DB005 - Connection reset     Patterns: "connection reset"
//	DB006 - Timeout              Patterns: "timeout"
//	DB007 - Deadlock             Patterns: "deadlock", "database is locked"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled   Patterns: "context canceled"
//	REQ002 - Request timeout     Patterns: "context deadline exceeded"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application logs for the
// original technical error.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dpmglangsa/gampong/internal/export"
	"github.com/dpmglangsa/gampong/internal/store"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorTarget struct {
	target error
	msg    UserMessage
}

// errorTargets are checked in order with errors.Is. More specific errors come first.
var errorTargets = []errorTarget{
	{store.ErrNotFound, UserMessage{"Record not found", "Check the village name and number", "LDG001"}},
	{store.ErrSheetNotFound, UserMessage{"Ledger sheet does not exist", "Check the layout configuration", "LDG006"}},
	{ErrProtectedPosition, UserMessage{"This row holds a protected position", "Edit the position in the detail ledger instead", "LDG003"}},
	{ErrUnknownField, UserMessage{"This column cannot be edited", "Use one of the editable columns", "LDG004"}},
	{store.ErrHeaderRegion, UserMessage{"The write targets the ledger header", "Reload the ledger and retry", "LDG005"}},
	{ErrNoSecretarySlot, UserMessage{"The council block has no room for the secretary", "Add members to the village block first", "LDG007"}},
	{ErrInvalidValue, UserMessage{"The value does not fit the column", "Check the value format", "LDG008"}},
	{export.ErrTemplateMissing, UserMessage{"Export template file not found", "Check the export template directory", "EXP001"}},
	{ErrNothingToExport, UserMessage{"There is no data to export", "Load ledger data first", "EXP002"}},
	{ErrTooManyExports, UserMessage{"Other exports are still running", "Please wait a moment and try again", "EXP003"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "REQ001"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Please try again", "REQ002"}},
	{store.ErrBackendUnavailable, UserMessage{"The ledger could not be reached", "Please try again in a few moments", "LDG002"}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user
// messages for errors that carry no sentinel. The first match wins.
var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Typed
// errors win over text patterns; unmatched errors get ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, et := range errorTargets {
		if errors.Is(err, et.target) {
			return et.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than the
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
