package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger emits structured audit entries for account, inventory and order
// actions.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, role, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("role", role),
		slog.String("status", status),
		slog.String("details", details),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogRegistration(ctx context.Context, userID, role, status string) {
	al.LogAction(ctx, userID, role, "register", "user", userID, status, "")
}

func (al *Logger) LogLogin(ctx context.Context, userID, status, details string) {
	al.LogAction(ctx, userID, "", "login", "user", userID, status, details)
}

func (al *Logger) LogCheckout(ctx context.Context, userID, orderID, status, details string) {
	al.LogAction(ctx, userID, "", "checkout", "order", orderID, status, details)
}

func (al *Logger) LogOrderChange(ctx context.Context, userID, orderID, action, status string) {
	al.LogAction(ctx, userID, "", action, "order", orderID, status, "")
}

func (al *Logger) LogStockMutation(ctx context.Context, userID, recordID, action, details string) {
	al.LogAction(ctx, userID, "", action, "inventory", recordID, "applied", details)
}

func (al *Logger) LogDenied(ctx context.Context, userID, reason string) {
	al.LogAction(ctx, userID, "", "access_denied", "api", "", "denied", reason)
}
