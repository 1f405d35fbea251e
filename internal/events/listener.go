package events

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"contentstudio/internal/infra"
	"contentstudio/internal/sqlinline"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Listener forwards progress notifications from Postgres to a Broker. It
// holds one dedicated connection and reconnects with backoff when it drops.
type Listener struct {
	Pool   *pgxpool.Pool
	Broker *Broker
	Logger infra.Logger
}

// Run listens until ctx is canceled.
func (l *Listener) Run(ctx context.Context) error {
	backoff := minBackoff
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.Logger.Warn().Err(err).Dur("retry_in", backoff).Msg("events: listener disconnected")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}
}

func (l *Listener) listen(ctx context.Context) error {
	pooled, err := l.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	// A LISTENing connection must not go back to the pool.
	conn := pooled.Hijack()
	defer conn.Close(context.WithoutCancel(ctx))

	if _, err := conn.Exec(ctx, sqlinline.QListenVideoJobProgress); err != nil {
		return err
	}
	l.Logger.Info().Str("channel", sqlinline.ProgressChannel).Msg("events: listening")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev, err := Decode([]byte(n.Payload))
		if err != nil {
			l.Logger.Warn().Err(err).Str("payload", n.Payload).Msg("events: bad notification")
			continue
		}
		delivered := l.Broker.Publish(ev)
		l.Logger.Debug().
			Str("job_id", ev.JobID).
			Str("step", ev.Step).
			Str("status", string(ev.Status)).
			Int("subscribers", delivered).
			Msg("events: progress")
	}
}

func nextBackoff(d time.Duration) time.Duration {
	return min(d*2, maxBackoff)
}
