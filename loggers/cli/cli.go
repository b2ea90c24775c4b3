// Package cli provides the terminal log handler used by the ballast binary.
package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	color2 "github.com/fatih/color"
	"github.com/mattn/go-colorable"
)

type Handler struct {
	mu      sync.Mutex
	Writer  io.Writer
	Padding int
}

var Default = New(os.Stderr, true)

var (
	bold    = color2.New(color2.Bold)
	boldred = color2.New(color2.Bold, color2.FgRed)
)

var levels = [...]string{
	log.DebugLevel: "DEBUG",
	log.InfoLevel:  " INFO",
	log.WarnLevel:  " WARN",
	log.ErrorLevel: "ERROR",
	log.FatalLevel: "FATAL",
}

func New(w io.Writer, useColors bool) *Handler {
	if f, ok := w.(*os.File); ok && useColors {
		return &Handler{Writer: colorable.NewColorable(f), Padding: 2}
	}
	return &Handler{Writer: colorable.NewNonColorable(w), Padding: 2}
}

// HandleLog implements log.Handler.
func (h *Handler) HandleLog(e *log.Entry) error {
	color := cli.Colors[e.Level]
	level := levels[e.Level]
	names := e.Fields.Names()

	h.mu.Lock()
	defer h.mu.Unlock()

	color.Fprintf(h.Writer, "%s: [%s] %-25s", bold.Sprintf("%*s", h.Padding+1, level), time.Now().Format(time.StampMilli), e.Message)
	for _, name := range names {
		if name == "source" {
			continue
		}
		fmt.Fprintf(h.Writer, " %s=%v", color.Sprint(name), e.Fields.Get(name))
	}
	fmt.Fprintln(h.Writer)

	// If an error field is attached, print its stack trace below the entry so
	// the terminal line itself stays scannable.
	for _, name := range names {
		if name != "error" {
			continue
		}
		if err, ok := e.Fields.Get("error").(error); ok {
			err = errors.WithStackDepthIf(err, 1)
			fmt.Fprintf(h.Writer, "\n%s\n%+v\n\n", boldred.Sprintf("Stacktrace:"), err)
		}
	}

	return nil
}
