package notify

import (
	"context"

	"github.com/sampottinger/kipling-package-index/internal/logging"
)

// LogNotifier writes messages to the log instead of sending them. The body
// is omitted since it may hold a password.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.log.Info(ctx, "notification not delivered, no smtp relay configured",
		"to", msg.ToAddress, "subject", msg.Subject)
	return nil
}
