package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kakeibo/internal/core"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{Level: slog.LevelDebug, Component: component, Output: buf})
}

func TestLogger_ComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentWorker)

	logger.Info("hello", FieldMonth, "2022-06")

	out := buf.String()
	if !strings.Contains(out, "component=worker") || !strings.Contains(out, "month=2022-06") {
		t.Errorf("unexpected output: %s", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentExport).Warn("x")
	if strings.Count(buf.String(), "component=") != 1 || !strings.Contains(buf.String(), "component=export") {
		t.Errorf("WithComponent should replace the component: %s", buf.String())
	}
}

func TestLogger_Defaults(t *testing.T) {
	l := New(Config{})
	if l.Component() != ComponentApp {
		t.Errorf("Component() = %q, want %q", l.Component(), ComponentApp)
	}
}

func TestLogFields(t *testing.T) {
	e := core.NewEntry(core.NewDate(2022, 6, 1), core.Life, core.Expense, 1500, "")
	f := NewFields().WithEntry(e).WithMonth(e.Month()).WithError(errors.New("boom")).WithError(nil)

	if f[FieldAmount] != int64(-1500) {
		t.Errorf("amount = %v, want signed -1500", f[FieldAmount])
	}
	if f[FieldMonth] != "2022-06" || f[FieldCategory] != "life" || f[FieldError] != "boom" {
		t.Errorf("fields = %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Errorf("ToSlice length mismatch")
	}
}

func TestMiddlewareAndFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, ComponentApp)

	var got *Logger
	h := Middleware(logger)(ComponentMiddleware(ComponentHTTP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("logger from context = %+v", got)
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("FromContext without logger should fall back")
	}
}

func TestStructuredLogger_LevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentHTTP))
	req := httptest.NewRequest(http.MethodGet, "/api/summary?month=2022-06", nil)

	sl.LogHTTPEnd(context.Background(), req, 200, 3, "127.0.0.1")
	sl.LogHTTPEnd(context.Background(), req, 404, 3, "127.0.0.1")
	sl.LogHTTPEnd(context.Background(), req, 500, 3, "127.0.0.1")

	out := buf.String()
	for _, want := range []string{"level=INFO", "level=WARN", "level=ERROR", "status_code=404"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}
