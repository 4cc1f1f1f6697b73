package notify

import (
	"context"
	"strings"

	charmLog "github.com/charmbracelet/log"
)

// LogNotifier records notifications on a structured logger. It stands in for
// an outbound delivery channel; the workflow engine treats notification
// delivery as fire-and-forget either way.
type LogNotifier struct {
	logger *charmLog.Logger
}

// NewLogNotifier constructs a notifier over the given logger.
func NewLogNotifier(logger *charmLog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one notification event per call.
func (n *LogNotifier) Notify(ctx context.Context, userIDs []string, kind, title, message string) {
	if n.logger == nil || len(userIDs) == 0 {
		return
	}
	n.logger.Info("notification dispatched",
		"kind", kind,
		"title", title,
		"message", message,
		"recipients", strings.Join(userIDs, ","),
	)
}
