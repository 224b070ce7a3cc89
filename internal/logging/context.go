package logging

import "context"

type contextKey string

const fieldsKey contextKey = "log_fields"

// Fields are attached to every record logged with the context
type Fields struct {
	AnalysisID string
	RequestID  string
	Component  string // e.g. "pipeline", "server", "llm"
}

// WithFields merges fields into ctx; non-empty values win
func WithFields(ctx context.Context, fields Fields) context.Context {
	merged := GetFields(ctx)
	if fields.AnalysisID != "" {
		merged.AnalysisID = fields.AnalysisID
	}
	if fields.RequestID != "" {
		merged.RequestID = fields.RequestID
	}
	if fields.Component != "" {
		merged.Component = fields.Component
	}
	return context.WithValue(ctx, fieldsKey, merged)
}

// GetFields returns the fields stored in ctx, or zero Fields
func GetFields(ctx context.Context) Fields {
	if fields, ok := ctx.Value(fieldsKey).(Fields); ok {
		return fields
	}
	return Fields{}
}

// Truncate shortens s for log output
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
