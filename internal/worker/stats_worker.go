package worker

import (
	"context"
	"log/slog"

	"pollguard/internal/metrics"
)

type VoteEvent struct {
	PollID      string
	OptionIndex int
	Anonymous   bool
}

// StatsWorker drains vote events off the request path and feeds them into
// the vote metrics.
type StatsWorker struct {
	Ch  <-chan VoteEvent
	log *slog.Logger
}

func NewStatsWorker(ch <-chan VoteEvent, log *slog.Logger) *StatsWorker {
	if log == nil {
		log = slog.Default()
	}
	return &StatsWorker{Ch: ch, log: log}
}

// Run blocks until ctx is done or the channel is closed.
func (w *StatsWorker) Run(ctx context.Context) {
	w.log.Info("stats worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("stats worker stopped")
			return
		case ev, ok := <-w.Ch:
			if !ok {
				w.log.Info("stats worker stopped", "reason", "channel closed")
				return
			}
			w.handle(ev)
		}
	}
}

func (w *StatsWorker) handle(ev VoteEvent) {
	metrics.IncVoteEvent(ev.OptionIndex)
	w.log.Debug("vote event",
		"poll_id", ev.PollID,
		"option_index", ev.OptionIndex,
		"anonymous", ev.Anonymous,
	)
}
