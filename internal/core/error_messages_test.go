package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/ofertas/internal/tabular"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{name: "file too large", err: fmt.Errorf("ofertas.xlsx: %w", ErrFileTooLarge), wantCode: "FILE001"},
		{name: "too many files", err: ErrTooManyFiles, wantCode: "FILE002"},
		{name: "no files", err: ErrNoFiles, wantCode: "FILE003"},
		{name: "unsupported format", err: fmt.Errorf("decode: %w: auto", tabular.ErrUnsupportedFormat), wantCode: "FILE004"},
		{name: "malformed workbook", err: fmt.Errorf("decode xlsx: %w: boom", tabular.ErrMalformed), wantCode: "FILE005"},
		{name: "unreadable zip", err: errors.New("decode xlsx: open workbook: zip: not a valid zip file"), wantCode: "FILE005"},
		{name: "broken csv", err: errors.New("decode csv: read csv: extraneous quote"), wantCode: "FILE006"},
		{name: "reference missing code", err: fmt.Errorf("load reference x: %w: CN", ErrReferenceMissingColumn), wantCode: "REF001"},
		{name: "reference unreadable", err: errors.New("read reference data/basedatos.xlsx: no such file"), wantCode: "REF002"},
		{name: "session not found", err: ErrSessionNotFound, wantCode: "SES001"},
		{name: "store full", err: ErrTooManySessions, wantCode: "SES002"},
		{name: "busy", err: ErrTooManyRuns, wantCode: "PROC001"},
		{name: "deadline", err: context.DeadlineExceeded, wantCode: "PROC002"},
		{name: "cancelled", err: context.Canceled, wantCode: "PROC003"},
		{name: "export format", err: fmt.Errorf("%w: pdf", ErrInvalidExportFormat), wantCode: "REQ001"},
		{name: "bad request", err: ErrInvalidRequest, wantCode: "REQ002"},
		{name: "rate limited", err: errors.New("Rate limit exceeded"), wantCode: "RATE001"},
		{name: "unknown", err: errors.New("something odd"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Errorf("MapError(%v) has empty message", tt.err)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrSessionNotFound)

	expected := "This session has expired or does not exist (Code: SES001). Upload your files again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrTooManyRuns, true},
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
		techErr := fmt.Errorf("lookup abc: %w", ErrSessionNotFound)
		userErr := NewUserError(techErr)

		if userErr.Error() != "This session has expired or does not exist" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrSessionNotFound) {
			t.Error("Unwrap() should expose the original error")
		}
	})
}
