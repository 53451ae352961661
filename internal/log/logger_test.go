package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"cassa/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestLoggerAddsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(ConfigFor(&buf, slog.LevelDebug, false, ComponentReset))

	err := &core.PartialFailure{Succeeded: 2, Failed: 1, Errs: []error{errors.New("boom")}}
	fields := NewFields().
		WithPool("P").
		WithCounts(2, 1, 1).
		WithError(err)
	logger.ErrorContext(context.Background(), "reset failed", fields.ToSlice()...)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentReset {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentReset)
	}
	if rec[FieldPoolID] != "P" {
		t.Errorf("pool_id = %v, want P", rec[FieldPoolID])
	}
	if rec[FieldErrorType] != ErrorTypePartialFailure {
		t.Errorf("error_type = %v, want %s", rec[FieldErrorType], ErrorTypePartialFailure)
	}
}

func TestWithErrorReasonCode(t *testing.T) {
	f := NewFields().WithError(core.Violation(core.ReasonLastAdminViolation, core.EntityMember, "1", "last admin"))
	if f[FieldReason] != string(core.ReasonLastAdminViolation) {
		t.Errorf("reason_code = %v", f[FieldReason])
	}
	if f[FieldErrorType] != ErrorTypeConstraint {
		t.Errorf("error_type = %v", f[FieldErrorType])
	}
	if len(NewFields().WithError(nil)) != 0 {
		t.Error("nil error should add no fields")
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Errorf("fallback component = %q", got)
	}
	logger := New(DefaultConfig()).WithComponent(ComponentCLI)
	ctx := WithLogger(context.Background(), logger)
	if got := FromContext(ctx).Component(); got != ComponentCLI {
		t.Errorf("component = %q, want %q", got, ComponentCLI)
	}
}
