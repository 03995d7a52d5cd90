// competition/service/common.go
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Tokioace/N64-Nexus-sub006/shared/notify"
)

// CommandObserver receives one observation per executed command.
type CommandObserver interface {
	ObserveCommand(command, outcome string, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveCommand(string, string, time.Duration) {}

// Options carries the collaborators every service shares.
type Options struct {
	Bus      notify.Bus
	Logger   *slog.Logger
	Observer CommandObserver
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// base is embedded by every service.
type base struct {
	bus      notify.Bus
	logger   *slog.Logger
	observer CommandObserver
	now      func() time.Time
}

func newBase(opts Options) base {
	b := base{bus: opts.Bus, logger: opts.Logger, observer: opts.Observer, now: opts.Now}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.observer == nil {
		b.observer = nopObserver{}
	}
	if b.now == nil {
		b.now = func() time.Time { return time.Now().UTC() }
	}
	return b
}

// track is deferred by each command with a pointer to its named error result.
func (b *base) track(command string, start time.Time, errp *error) {
	err := *errp
	outcome := "ok"
	if err != nil {
		outcome = Code(err)
		if IsRejection(err) {
			b.logger.Debug("Command rejected", slog.String("command", command), slog.Any("error", err))
		} else {
			b.logger.Error("Command failed", slog.String("command", command), slog.Any("error", err))
		}
	}
	b.observer.ObserveCommand(command, outcome, time.Since(start))
}

// publish is fire-and-forget: failures are logged and never reach the caller.
func (b *base) publish(ctx context.Context, topic, event string, payload interface{}) {
	if b.bus == nil {
		return
	}
	n, err := notify.New(topic, event, payload)
	if err != nil {
		b.logger.Warn("Failed to build notification", slog.String("topic", topic), slog.String("event", event), slog.Any("error", err))
		return
	}
	// The command's own deadline must not cancel fan-out to a remote broker.
	if err := b.bus.Publish(context.WithoutCancel(ctx), n); err != nil {
		b.logger.Warn("Failed to publish notification", slog.String("topic", topic), slog.String("event", event), slog.Any("error", err))
	}
}
