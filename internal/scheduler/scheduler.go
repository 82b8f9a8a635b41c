// internal/scheduler/scheduler.go
package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/user/kisanmitra/internal/state"
)

// Handler is the callback invoked when a scheduled refresh fires.
type Handler func(source *state.Source)

// Scheduler evaluates cron expressions from the source registry and
// fires corpus refreshes through a handler callback.
type Scheduler struct {
	store   *state.SourceStore
	handler Handler
	cron    *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a new Scheduler backed by the given source registry. The
// handler is called each time a source's schedule fires.
func New(store *state.SourceStore, handler Handler) *Scheduler {
	return &Scheduler{
		store:   store,
		handler: handler,
		cron:    cron.New(cron.WithParser(cronParser)),
	}
}

// Start loads sources from the registry, registers enabled sources that
// have a schedule as cron entries, and starts the cron ticker.
func (s *Scheduler) Start() error {
	sources, err := s.store.List()
	if err != nil {
		return err
	}

	for _, src := range sources {
		if src.Schedule == "" || !src.Enabled {
			continue
		}

		src := src
		_, err := s.cron.AddFunc(src.Schedule, func() {
			slog.Info("cron firing source refresh", "source", src.Name)
			s.handler(src)
		})
		if err != nil {
			slog.Error("invalid cron schedule", "source", src.Name, "schedule", src.Schedule, "error", err)
			continue
		}
		slog.Info("scheduled source refresh", "source", src.Name, "schedule", src.Schedule)
	}

	s.cron.Start()
	return nil
}

// Reload stops the existing cron, creates a new one, and calls Start() again.
func (s *Scheduler) Reload() error {
	s.cron.Stop()
	s.cron = cron.New(cron.WithParser(cronParser))
	return s.Start()
}

// Stop stops the cron ticker.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
