package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

func TestConsoleWriterRendersTargetPrefix(t *testing.T) {
	t.Setenv("DEVTASK_DEBUG", "")

	buf := &bytes.Buffer{}
	logger := zerolog.New(NewConsoleWriter(buf, true))

	logger.Info().Str("target", "fmt").Bool("command", true).Msg("isort .")

	if got := buf.String(); got != "fmt: $ isort .\n" {
		t.Errorf("unexpected rendering %q", got)
	}
}

func TestConsoleWriterRendersErrorDetails(t *testing.T) {
	t.Setenv("DEVTASK_DEBUG", "")

	buf := &bytes.Buffer{}
	logger := zerolog.New(NewConsoleWriter(buf, true))

	logger.Error().Err(eris.New("exit status 2")).Msg("Target test failed")

	got := buf.String()
	if !strings.Contains(got, "Error: Target test failed") {
		t.Errorf("expected the error prefix, got %q", got)
	}
	if !strings.Contains(got, "exit status 2") {
		t.Errorf("expected the error details, got %q", got)
	}
}

func TestConsoleWriterColorsByLevel(t *testing.T) {
	t.Setenv("DEVTASK_DEBUG", "")

	buf := &bytes.Buffer{}
	logger := zerolog.New(NewConsoleWriter(buf, false))

	logger.Info().Msg("fine")
	if !strings.Contains(buf.String(), "\x1b[32m") {
		t.Errorf("expected green for info, got %q", buf.String())
	}

	buf.Reset()
	logger.Warn().Msg("careful")
	if !strings.Contains(buf.String(), "\x1b[33m") {
		t.Errorf("expected yellow for warn, got %q", buf.String())
	}

	buf.Reset()
	logger.Error().Msg("broken")
	if !strings.Contains(buf.String(), "\x1b[31m") {
		t.Errorf("expected red for error, got %q", buf.String())
	}
}

func TestConsoleWriterRejectsGarbage(t *testing.T) {
	writer := NewConsoleWriter(&bytes.Buffer{}, true)

	if _, err := writer.Write([]byte("not json")); err == nil {
		t.Error("expected an error for invalid input")
	}
}

func TestConsoleWriterDebugDump(t *testing.T) {
	t.Setenv("DEVTASK_DEBUG", "1")

	buf := &bytes.Buffer{}
	logger := zerolog.New(NewConsoleWriter(buf, true))

	logger.Info().Str("run", "abc123").Msg("hello")

	got := buf.String()
	if !strings.Contains(got, "run: abc123") {
		t.Errorf("expected the raw fields in debug mode, got %q", got)
	}
}
