package logger

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		wantErr    bool
	}{
		{
			name:       "JSON output mode",
			jsonOutput: true,
			wantErr:    false,
		},
		{
			name:       "Console output mode",
			jsonOutput: false,
			wantErr:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset global logger
			Logger = nil
			JSONOutput = false

			err := Initialize(tt.jsonOutput)
			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				if Logger == nil {
					t.Error("Initialize() did not set global Logger")
				}
				if JSONOutput != tt.jsonOutput {
					t.Errorf("Initialize() JSONOutput = %v, want %v", JSONOutput, tt.jsonOutput)
				}
			}

			if Logger != nil {
				Logger.Sync()
				Logger = nil
			}
		})
	}
}

func TestPackageFuncsNilSafe(t *testing.T) {
	// Package funcs must not panic when Initialize was never called
	Logger = nil
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("package-level logging panicked with nil Logger: %v", r)
		}
		Logger = zap.NewNop().Sugar()
	}()

	Info("info")
	Infof("info %d", 1)
	Infow("info", "k", "v")
	Warn("warn")
	Error("error")
	Debugw("debug", "k", "v")
	Cleanup()
}

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{0, zapcore.WarnLevel},
		{1, zapcore.InfoLevel},
		{2, zapcore.DebugLevel},
		{3, zapcore.DebugLevel},
		{7, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		if got := VerbosityToLevel(tt.verbosity); got != tt.want {
			t.Errorf("VerbosityToLevel(%d) = %v, want %v", tt.verbosity, got, tt.want)
		}
	}
}

func TestAbbreviateName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"registry", "registry"},
		{"registry.dispatch", "r.dispatch"},
		{"server.ws", "s.ws"},
	}

	for _, tt := range tests {
		if got := abbreviateName(tt.in); got != tt.want {
			t.Errorf("abbreviateName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodeEntryFields(t *testing.T) {
	enc := newMinimalEncoder()

	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Date(2025, 1, 2, 13, 4, 5, 0, time.UTC),
		LoggerName: "registry",
		Message:    "Request routed",
	}
	fields := []zapcore.Field{
		zap.String(FieldRequestID, "req_123"),
		zap.Int("matched", 3),
		zap.Int("cached", 1),
	}

	buf, err := enc.EncodeEntry(entry, fields)
	if err != nil {
		t.Fatalf("EncodeEntry() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"13:04:05", "registry", "Request routed", "req_123", "3", "1"} {
		if !strings.Contains(out, want) {
			t.Errorf("EncodeEntry() output missing %q in %q", want, out)
		}
	}
}

func TestLevelColorString(t *testing.T) {
	if got := levelColorString(zapcore.WarnLevel); !strings.Contains(got, "WARN") {
		t.Errorf("levelColorString(Warn) = %q, want WARN marker", got)
	}
	if got := levelColorString(zapcore.ErrorLevel); !strings.Contains(got, "ERROR") {
		t.Errorf("levelColorString(Error) = %q, want ERROR marker", got)
	}
	if got := levelColorString(zapcore.InfoLevel); got != "" {
		t.Errorf("levelColorString(Info) = %q, want empty", got)
	}
}
