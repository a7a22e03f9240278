package agent

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/r0d10nq/dimon/internal/engage"
	"github.com/r0d10nq/dimon/internal/logger"
)

// SendFunc delivers a generated message to a chat on whatever transport is
// active.
type SendFunc func(chatID int64, message string) error

// Scheduler drives the proactive path: workday morning and evening ticks
// that greet users the arbiter deems eligible.
type Scheduler struct {
	agent *Agent
	send  SendFunc
	cron  *cron.Cron

	morningSpec string
	eveningSpec string
}

func NewScheduler(a *Agent, send SendFunc) *Scheduler {
	return &Scheduler{
		agent:       a,
		send:        send,
		cron:        cron.New(cron.WithLocation(a.timezone)),
		morningSpec: "0 8 * * 1-5",
		eveningSpec: "0 17 * * 1-5",
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.morningSpec, func() { s.tick(ctx, engage.SlotMorning) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.eveningSpec, func() { s.tick(ctx, engage.SlotEvening) }); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("scheduler started", "morning", s.morningSpec, "evening", s.eveningSpec, "tz", s.agent.timezone.String())

	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()

	return nil
}

// Tick runs one scheduled-initiation pass. Exposed separately from the
// cron wiring so it can be driven with an injected clock.
func (s *Scheduler) Tick(ctx context.Context, now time.Time, slot engage.Slot) {
	s.tickAt(ctx, now, slot)
}

func (s *Scheduler) tick(ctx context.Context, slot engage.Slot) {
	s.tickAt(ctx, time.Now().In(s.agent.timezone), slot)
}

func (s *Scheduler) tickAt(ctx context.Context, now time.Time, slot engage.Slot) {
	profiles, err := s.agent.memory.Profiles()
	if err != nil {
		logger.Error("scheduler profile scan failed", "error", err)
		return
	}

	initiations := s.agent.arbiter.Initiations(now, slot, profiles)
	logger.Debug("scheduled tick", "slot", slot.String(), "eligible", len(initiations))

	for _, in := range initiations {
		greeting := s.agent.Greeting(ctx, in, now)
		if greeting == "" {
			continue
		}

		if err := s.send(in.ChatID, greeting); err != nil {
			logger.Error("greeting send failed", "user", in.UserID, "error", err)
			continue
		}

		if err := s.agent.memory.MarkInitiated(in.UserID, now); err != nil {
			logger.Error("failed to record initiation", "user", in.UserID, "error", err)
		}
	}
}
