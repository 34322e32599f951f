package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Enrich the context once at the top of a request and every log line below it
// carries the advisory it belongs to.
type LogFields struct {
	AdvisoryID *string // Advisory (request) ID, also the status stream suffix
	Agent      *string // Speaking agent for the current turn
	Sequence   *int    // Turn sequence number
	Component  string  // Component name (OTel semantic convention style, e.g., "advisor.brain.protocol")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.AdvisoryID != nil {
		result.AdvisoryID = new.AdvisoryID
	}
	if new.Agent != nil {
		result.Agent = new.Agent
	}
	if new.Sequence != nil {
		result.Sequence = new.Sequence
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate cuts s to maxLen runes, appending "..." if truncated.
// Useful for logging model output and requests.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
