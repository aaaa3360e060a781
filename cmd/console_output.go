package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aidarkhanov/nanoid"
	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/kabirmdasraful/wrapdisc/pkg/config"
)

// ConsoleWriter decodes zerolog's JSON events and renders them as short
// colored console messages.
type ConsoleWriter struct {
	out    io.Writer
	colors colorstring.Colorize
	buffer strings.Builder
	lock   sync.Mutex
}

// NewConsoleWriter returns a console writer that prints to the given
// writer. noColor strips the color codes instead of rendering them.
func NewConsoleWriter(out io.Writer, noColor bool) *ConsoleWriter {
	return &ConsoleWriter{
		out: out,
		colors: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: noColor,
			Reset:   true,
		},
	}
}

func (w *ConsoleWriter) Write(p []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(p))
	decoder.UseNumber()
	if err := decoder.Decode(&evt); err != nil {
		return 0, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	w.buffer.Reset()
	switch evt["level"] {
	case "fatal", "error":
		w.buffer.WriteString("[red]")
	case "warn":
		w.buffer.WriteString("[yellow]")
	case "debug", "trace":
		w.buffer.WriteString("[blue]")
	default:
		w.buffer.WriteString("[green]")
	}

	if target, ok := evt["target"].(string); ok {
		w.buffer.WriteString(target + ": ")
	}

	if evt["level"] == "error" || evt["level"] == "fatal" {
		w.buffer.WriteString("Error: ")
	}

	if isCommand, ok := evt["command"].(bool); ok && isCommand {
		w.buffer.WriteString("$ ")
	}

	if msg, ok := evt["message"].(string); ok {
		w.buffer.WriteString(msg)
	}

	if errorDetails, ok := evt["error"].(string); ok {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(errorDetails)
	}

	if os.Getenv("DEVTASK_DEBUG") != "" {
		w.buffer.WriteString("\n")
		for name, value := range evt {
			w.buffer.WriteString(fmt.Sprintf("  %s: %+v\n", name, value))
		}
	}

	w.buffer.WriteString("\n")
	if _, err := io.WriteString(w.out, w.colors.Color(w.buffer.String())); err != nil {
		return 0, err
	}

	return len(p), nil
}

// newLogger builds the process logger. Console mode renders the events in
// color, JSON mode emits them untouched. A configured log file always
// receives the raw JSON stream.
func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	zerolog.SetGlobalLevel(cfg.LogLevel())

	var out io.Writer = NewConsoleWriter(os.Stderr, false)
	if cfg.Log.JSON {
		out = os.Stderr
		zerolog.ErrorMarshalFunc = func(err error) interface{} {
			return eris.ToJSON(err, os.Getenv("DEVTASK_DEBUG") != "")
		}
	}

	if cfg.Log.File != "" {
		handle, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0660)
		if err != nil {
			return zerolog.Nop(), eris.Wrapf(err, "Failed to open the log file %s", cfg.Log.File)
		}

		out = zerolog.MultiLevelWriter(out, handle)
	}

	return zerolog.New(out).With().Timestamp().Str("run", nanoid.New()).Logger(), nil
}

func init() {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, os.Getenv("DEVTASK_DEBUG") != "")
	}
}
