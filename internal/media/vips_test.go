package media

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"image-vault/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

func TestVipsLogSettingsThreshold(t *testing.T) {
	tests := []struct {
		level logging.LogLevel
		want  vips.LogLevel
	}{
		{logging.LevelDebug, vips.LogLevelInfo},
		{logging.LevelInfo, vips.LogLevelWarning},
		{logging.LevelWarn, vips.LogLevelCritical},
		{logging.LevelError, vips.LogLevelError},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			got, _ := vipsLogSettings(tt.level)
			if got != tt.want {
				t.Errorf("threshold = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVipsLogSettingsHandler(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	defer logging.SetOutput(os.Stderr)

	t.Run("info level forwards warnings and errors", func(t *testing.T) {
		buf.Reset()
		_, handler := vipsLogSettings(logging.LevelInfo)

		handler("VIPS", vips.LogLevelError, "error-msg")
		handler("VIPS", vips.LogLevelCritical, "critical-msg")
		handler("VIPS", vips.LogLevelWarning, "warning-msg")
		handler("VIPS", vips.LogLevelMessage, "message-msg")
		handler("VIPS", vips.LogLevelInfo, "info-msg")
		handler("VIPS", vips.LogLevelDebug, "debug-msg")

		out := buf.String()
		for _, want := range []string{"ERR [VIPS] error-msg", "ERR [VIPS] critical-msg", "WRN [VIPS] warning-msg"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		for _, dropped := range []string{"message-msg", "info-msg", "debug-msg"} {
			if strings.Contains(out, dropped) {
				t.Errorf("output should not contain %q:\n%s", dropped, out)
			}
		}
	})

	t.Run("warn level keeps only critical and error", func(t *testing.T) {
		buf.Reset()
		_, handler := vipsLogSettings(logging.LevelWarn)

		handler("VIPS", vips.LogLevelWarning, "warning-msg")
		handler("VIPS", vips.LogLevelCritical, "critical-msg")

		out := buf.String()
		if strings.Contains(out, "warning-msg") {
			t.Errorf("warning should be dropped at warn level:\n%s", out)
		}
		if !strings.Contains(out, "critical-msg") {
			t.Errorf("critical should be logged at warn level:\n%s", out)
		}
	})

	t.Run("error level keeps only errors", func(t *testing.T) {
		buf.Reset()
		_, handler := vipsLogSettings(logging.LevelError)

		handler("VIPS", vips.LogLevelCritical, "critical-msg")
		handler("VIPS", vips.LogLevelError, "error-msg")

		out := buf.String()
		if strings.Contains(out, "critical-msg") {
			t.Errorf("critical should be dropped at error level:\n%s", out)
		}
		if !strings.Contains(out, "error-msg") {
			t.Errorf("error should be logged at error level:\n%s", out)
		}
	})
}
