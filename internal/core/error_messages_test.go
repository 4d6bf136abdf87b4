package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dpmglangsa/gampong/internal/export"
	"github.com/dpmglangsa/gampong/internal/ledger"
	"github.com/dpmglangsa/gampong/internal/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name: "nil error returns empty",
		},
		{
			name:        "not found",
			err:         &store.NotFoundError{Ledger: ledger.Staff, Key: "SUNGAI PAUH", Seq: "4"},
			wantCode:    "LDG001",
			wantMessage: "Record not found",
		},
		{
			name:        "backend unavailable",
			err:         &store.BackendError{Op: "read", Ledger: ledger.Roster, Err: errors.New("boom")},
			wantCode:    "LDG002",
			wantMessage: "The ledger could not be reached",
		},
		{
			name:        "missing sheet wins over unavailable",
			err:         &store.BackendError{Op: "read", Ledger: ledger.Roster, Err: store.ErrSheetNotFound},
			wantCode:    "LDG006",
			wantMessage: "Ledger sheet does not exist",
		},
		{
			name:        "protected position wrapped",
			err:         fmt.Errorf("delete KEPALA DESA: %w", ErrProtectedPosition),
			wantCode:    "LDG003",
			wantMessage: "This row holds a protected position",
		},
		{
			name:        "template missing",
			err:         fmt.Errorf("templates/x.xlsx: %w", export.ErrTemplateMissing),
			wantCode:    "EXP001",
			wantMessage: "Export template file not found",
		},
		{
			name:        "context deadline",
			err:         fmt.Errorf("read: %w", context.DeadlineExceeded),
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:        "connection refused pattern",
			err:         errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("SQLITE_BUSY: Database Is Locked"),
			wantCode:    "DB007",
			wantMessage: "Database was busy with conflicting operations",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrUnknownField)

	expected := "This column cannot be edited (Code: LDG004). Use one of the editable columns"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrNothingToExport, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("staff seq 1: %w", ErrProtectedPosition)
		userErr := NewUserError(techErr)

		if userErr.Error() != "This row holds a protected position" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrProtectedPosition) {
			t.Error("Unwrap() should return original error")
		}
	})
}
