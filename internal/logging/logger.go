// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Setup installs the default logger writing to stderr.
// verbose lowers the level to debug.
func Setup(format string, verbose bool) error {
	handler, err := NewHandler(os.Stderr, format, verbose)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// NewHandler builds the context-enriching handler for w
func NewHandler(w io.Writer, format string, verbose bool) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	switch format {
	case FormatText, "":
		return NewContextHandler(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return NewContextHandler(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ContextHandler adds the Fields stored in the record's context
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := GetFields(ctx)
	if fields.AnalysisID != "" {
		r.AddAttrs(slog.String("analysis_id", fields.AnalysisID))
	}
	if fields.RequestID != "" {
		r.AddAttrs(slog.String("request_id", fields.RequestID))
	}
	if fields.Component != "" {
		r.AddAttrs(slog.String("component", fields.Component))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(name)}
}
