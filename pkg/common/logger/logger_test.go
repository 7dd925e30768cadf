package logger

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

// Libraries log on their error paths without knowing whether the process
// called Init, so the package-level logger must work from package load.
func TestLogUsableBeforeInit(t *testing.T) {
	if Log == nil {
		t.Fatal("package-level logger must never be nil")
	}

	var buf bytes.Buffer
	Log.SetOutput(&buf)
	defer Log.SetOutput(os.Stdout)

	Log.WithError(errors.New("judge timed out")).Warn("classifier failed")
	WithField("attempt", 1).Info("retrying")

	if !strings.Contains(buf.String(), "classifier failed") {
		t.Fatalf("expected log output, got %q", buf.String())
	}
}

func TestInitAttachesServiceName(t *testing.T) {
	Init("content-service")

	var buf bytes.Buffer
	Log.SetOutput(&buf)
	defer Log.SetOutput(os.Stdout)

	Log.Info("started")
	if !strings.Contains(buf.String(), `"service":"content-service"`) {
		t.Fatalf("expected service field in output, got %q", buf.String())
	}
}
