package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// SessionIDKey is the context key for session identifiers.
	SessionIDKey contextKey = "session_id"

	// UserIDKey is the context key for user identifiers.
	UserIDKey contextKey = "user_id"

	// ActionIDKey is the context key for governed action identifiers.
	ActionIDKey contextKey = "action_id"

	// AgentTypeKey is the context key for agent type names.
	AgentTypeKey contextKey = "agent_type"
)

// WithSessionID adds a session identifier to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// GetSessionID retrieves the session identifier from the context.
func GetSessionID(ctx context.Context) string {
	if v, ok := ctx.Value(SessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithUserID adds a user identifier to the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID retrieves the user identifier from the context.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}

// WithActionID adds an action identifier to the context.
func WithActionID(ctx context.Context, actionID string) context.Context {
	return context.WithValue(ctx, ActionIDKey, actionID)
}

// GetActionID retrieves the action identifier from the context.
func GetActionID(ctx context.Context) string {
	if v, ok := ctx.Value(ActionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithAgentType adds an agent type name to the context.
func WithAgentType(ctx context.Context, agentType string) context.Context {
	return context.WithValue(ctx, AgentTypeKey, agentType)
}

// GetAgentType retrieves the agent type name from the context.
func GetAgentType(ctx context.Context) string {
	if v, ok := ctx.Value(AgentTypeKey).(string); ok {
		return v
	}
	return ""
}

// ContextFields extracts the known identity fields from a context as
// key-value pairs suitable for Logger.With.
func ContextFields(ctx context.Context) []any {
	var fields []any

	if v := GetSessionID(ctx); v != "" {
		fields = append(fields, "session_id", v)
	}
	if v := GetUserID(ctx); v != "" {
		fields = append(fields, "user_id", v)
	}
	if v := GetActionID(ctx); v != "" {
		fields = append(fields, "action_id", v)
	}
	if v := GetAgentType(ctx); v != "" {
		fields = append(fields, "agent_type", v)
	}
	return fields
}

// FromContext returns a logger carrying the identity fields present in
// the context.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
