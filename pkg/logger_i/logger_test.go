package logger_i

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// With returns a derived logger; fields only attach to records logged
// through the returned value.
func TestWith_FieldsAttachToDerivedLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	base := NewLogger("TestComponent")
	derived := base.With("traceId", "trace-123")

	derived.Info("with trace")
	if !strings.Contains(buf.String(), `"traceId":"trace-123"`) {
		t.Errorf("Derived logger record missing trace field: %s", buf.String())
	}

	buf.Reset()
	base.Info("without trace")
	if strings.Contains(buf.String(), "trace-123") {
		t.Errorf("Base logger must not carry the derived field: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"component":"TestComponent"`) {
		t.Errorf("Base logger record missing component field: %s", buf.String())
	}
}
