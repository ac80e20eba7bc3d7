package notify

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

// Listener holds one dedicated connection in LISTEN mode and turns each
// notification-table change signal into an engine refresh. The trigger
// installed by the migrations sends the owning user id as the payload.
type Listener struct {
	dsn     string
	channel string
	engine  *Engine
	timeout time.Duration
}

func NewListener(dsn, channel string, engine *Engine, timeout time.Duration) *Listener {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Listener{dsn: dsn, channel: channel, engine: engine, timeout: timeout}
}

// Run blocks until ctx is cancelled, reconnecting with a delay after any
// connection failure. Signals for users with no connected session are
// dropped without a store read.
func (l *Listener) Run(ctx context.Context) {
	for {
		if err := l.listen(ctx); err != nil && ctx.Err() == nil {
			log.Printf("feed listener error: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return err
	}

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		userID := notification.Payload
		if userID == "" {
			continue
		}
		refreshCtx, cancel := context.WithTimeout(ctx, l.timeout)
		l.engine.Refresh(refreshCtx, userID)
		cancel()
	}
}
