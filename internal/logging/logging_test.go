package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	defaultLogger = slog.New(handler)

	f()

	defaultLogger = oldLogger
	return buf.String()
}

// captureLogOutputWithInit captures output by reinitializing the logger
// to write to a buffer. This tests the actual ReplaceAttr logic.
func captureLogOutputWithInit(level Level, format Format, f func()) string {
	var buf bytes.Buffer
	InitLoggerWriter(&buf, level, format)
	f()
	InitLogger(LevelInfo, FormatJSON)
	return buf.String()
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  Level
		format Format
	}{
		{
			name:   "Debug level JSON format",
			level:  LevelDebug,
			format: FormatJSON,
		},
		{
			name:   "Warn level JSON format",
			level:  LevelWarn,
			format: FormatJSON,
		},
		{
			name:   "Info level Text format",
			level:  LevelInfo,
			format: FormatText,
		},
		{
			name:   "Default level (invalid value)",
			level:  Level(999),
			format: FormatJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitLogger(tt.level, tt.format)
			if GetLogger() == nil {
				t.Error("Expected logger to be initialized, got nil")
			}
		})
	}
	InitLogger(LevelInfo, FormatJSON)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(text) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestLevelFiltering(t *testing.T) {
	output := captureLogOutputWithInit(LevelWarn, FormatJSON, func() {
		Info("hidden message")
		Warn("shown message")
	})
	if strings.Contains(output, "hidden message") {
		t.Error("Info should be filtered at warn level")
	}
	if !strings.Contains(output, "shown message") {
		t.Error("Expected warn message in output")
	}
}

func TestSessionIDContext(t *testing.T) {
	ctx := WithSessionID(context.Background(), "sess-1")
	if GetSessionID(ctx) != "sess-1" {
		t.Errorf("GetSessionID() = %q", GetSessionID(ctx))
	}
	if GetSessionID(context.WithValue(context.Background(), SessionIDKey, 42)) != "" {
		t.Error("Expected empty session ID for a wrong type value")
	}

	ctx = WithRequestID(ctx, "req-9")
	output := captureLogOutput(func() {
		InfoContext(ctx, "with ids")
	})
	if !strings.Contains(output, "sess-1") || !strings.Contains(output, "req-9") {
		t.Errorf("Expected both ids in output, got %s", output)
	}
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		expected string
	}{
		{
			name:     "Context with request ID",
			ctx:      context.WithValue(context.Background(), RequestIDKey, "test-id"),
			expected: "test-id",
		},
		{
			name:     "Context without request ID",
			ctx:      context.Background(),
			expected: "",
		},
		{
			name:     "Context with wrong type value",
			ctx:      context.WithValue(context.Background(), RequestIDKey, 12345),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetRequestID(tt.ctx)
			if result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	ctx := WithRequestID(context.Background(), "test-request-id")
	tests := []struct {
		name string
		fn   func()
	}{
		{"Debug", func() { Debug("debug message", "key", "value") }},
		{"Info", func() { Info("info message", "key", "value") }},
		{"Warn", func() { Warn("warning message", "key", "value") }},
		{"Error", func() { Error("error message", "key", "value") }},
		{"DebugContext", func() { DebugContext(ctx, "debug message") }},
		{"InfoContext", func() { InfoContext(ctx, "info message") }},
		{"WarnContext", func() { WarnContext(ctx, "warning message") }},
		{"ErrorContext", func() { ErrorContext(ctx, "error message") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureLogOutput(tt.fn)
			if output == "" {
				t.Error("Expected log output, got empty string")
			}
		})
	}
}

func TestTransform(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug, FormatJSON)
	Transform(logger, "create", 2, "priority", "high")

	output := buf.String()
	for _, want := range []string{`"msg":"transform"`, `"operation":"create"`, `"annotations":2`, "priority"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %s, got %s", want, output)
		}
	}
}

func TestEventHandled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug, FormatJSON)

	EventHandled(logger, "click", 3*time.Millisecond, nil)
	if !strings.Contains(buf.String(), `"level":"DEBUG"`) {
		t.Errorf("Expected a debug record, got %s", buf.String())
	}

	buf.Reset()
	EventHandled(logger, "command", time.Millisecond, errors.New("unknown command"))
	output := buf.String()
	if !strings.Contains(output, `"level":"WARN"`) || !strings.Contains(output, "unknown command") {
		t.Errorf("Expected a warning with the error, got %s", output)
	}
}

func TestSessionEvent(t *testing.T) {
	ctx := WithSessionID(context.Background(), "abc")
	output := captureLogOutput(func() {
		SessionEvent(ctx, "connected", 3, "document", "notes")
	})
	for _, want := range []string{"session_event", "connected", `"session_count":3`, "abc", "notes"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %s", want)
		}
	}
}

func TestStoreOperation(t *testing.T) {
	output := captureLogOutput(func() {
		StoreOperation("save", "notes", "changed", true)
	})
	if !strings.Contains(output, "store_operation") || !strings.Contains(output, "notes") {
		t.Errorf("unexpected output %s", output)
	}
}

func TestServerStartup(t *testing.T) {
	output := captureLogOutput(func() {
		ServerStartup("session", "ws", "127.0.0.1:8080")
	})
	if !strings.Contains(output, "server_startup") || !strings.Contains(output, "127.0.0.1:8080") {
		t.Errorf("unexpected output %s", output)
	}
}

func TestSecurityEvent(t *testing.T) {
	output := captureLogOutput(func() {
		SecurityEvent("origin_rejected", "session", "origin", "http://evil.example")
	})
	if !strings.Contains(output, "security_event") || !strings.Contains(output, "WARN") {
		t.Errorf("unexpected output %s", output)
	}
}

func TestResponseWriter_WriteHeader(t *testing.T) {
	recorder := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: recorder, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)
	// Second call should be ignored
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, rw.statusCode)
	}
	if !rw.written {
		t.Error("Expected written flag to be true")
	}
}

func TestResponseWriter_Write(t *testing.T) {
	recorder := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: recorder, statusCode: http.StatusOK}

	n, err := rw.Write([]byte("test data"))
	if err != nil || n != 9 {
		t.Errorf("Write() = %d, %v", n, err)
	}
	if rw.statusCode != http.StatusOK || !rw.written {
		t.Errorf("Expected implicit 200, got %d", rw.statusCode)
	}
}

func TestResponseWriter_HijackUnsupported(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	if _, _, err := rw.Hijack(); err == nil {
		t.Error("Expected error when the underlying writer cannot hijack")
	}
	if rw.hijacked {
		t.Error("hijacked flag should stay false")
	}
}

func TestGenerateRequestID(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateRequestID()
		if len(id) != 36 {
			t.Errorf("Expected request ID length 36, got %d", len(id))
		}
		if ids[id] {
			t.Error("Generated duplicate request ID")
		}
		ids[id] = true
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		existingHeader string
		wantLen        int
	}{
		{name: "Generate new request ID", wantLen: 36},
		{name: "Use existing request ID from header", existingHeader: "existing-req-id-123", wantLen: 19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if GetRequestID(r.Context()) == "" {
					t.Error("Expected request ID in context")
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.existingHeader != "" {
				req.Header.Set("X-Request-ID", tt.existingHeader)
			}
			w := httptest.NewRecorder()
			RequestIDMiddleware(handler).ServeHTTP(w, req)

			reqID := w.Header().Get("X-Request-ID")
			if len(reqID) != tt.wantLen {
				t.Errorf("X-Request-ID = %q, want length %d", reqID, tt.wantLen)
			}
			if tt.existingHeader != "" && reqID != tt.existingHeader {
				t.Errorf("Expected request ID %q, got %q", tt.existingHeader, reqID)
			}
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		statusCode int
	}{
		{"GET request", "GET", "/healthz", http.StatusOK},
		{"Error response", "GET", "/ws", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			output := captureLogOutput(func() {
				LoggingMiddleware(handler).ServeHTTP(w, req)
			})

			if !strings.Contains(output, tt.method) || !strings.Contains(output, tt.path) {
				t.Errorf("Expected method and path in output, got %s", output)
			}
			if !strings.Contains(output, `"upgraded":false`) {
				t.Error("Expected upgraded=false for a plain request")
			}
		})
	}
}

func TestCombinedMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("Expected request ID in context")
		}
		w.Write([]byte("ok"))
	})

	req := httptest.NewRequest("GET", "/combined", nil)
	w := httptest.NewRecorder()
	output := captureLogOutput(func() {
		CombinedMiddleware(handler).ServeHTTP(w, req)
	})

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
	if !strings.Contains(output, "/combined") || !strings.Contains(output, "200") {
		t.Errorf("unexpected output %s", output)
	}
}

func TestReplaceAttrTimestamp(t *testing.T) {
	output := captureLogOutputWithInit(LevelInfo, FormatJSON, func() {
		Info("timestamp test")
	})
	if !strings.Contains(output, "T") || !strings.Contains(output, "timestamp test") {
		t.Errorf("Expected RFC3339 timestamp and message, got %s", output)
	}

	output = captureLogOutputWithInit(LevelInfo, FormatText, func() {
		Info("test message text", "key", "value")
	})
	if !strings.Contains(output, "test message text") || !strings.Contains(output, "key=value") {
		t.Errorf("Expected text output, got %s", output)
	}
}
