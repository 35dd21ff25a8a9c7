// Package session implements the list lifecycle: planning, running, finished and reset.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/verte-zerg/paperlist/internal/model"
	"github.com/verte-zerg/paperlist/internal/store"
	"github.com/verte-zerg/paperlist/internal/trophy"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotRunning        = errors.New("list is not running")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = store.ErrNotFound
)

// Clock abstracts time to keep transitions deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Options configures a Service.
type Options struct {
	ClearMode model.ClearMode
	Clock     Clock
	Logger    *slog.Logger
}

// Service drives the singleton list state over a store.
type Service struct {
	store     *store.Store
	clearMode model.ClearMode
	clock     Clock
	log       *slog.Logger
}

// New returns a Service. Zero options fall back to completed-only reset, the
// system clock and a discarding logger.
func New(st *store.Store, opts Options) *Service {
	if opts.ClearMode == "" {
		opts.ClearMode = model.ClearCompleted
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:     st,
		clearMode: opts.ClearMode,
		clock:     opts.Clock,
		log:       opts.Logger,
	}
}

// ClearMode reports which tasks Reset removes.
func (s *Service) ClearMode() model.ClearMode {
	return s.clearMode
}

// Get returns the list state, creating the default one on first access.
func (s *Service) Get(ctx context.Context) (model.Session, error) {
	session, err := s.store.GetSession(ctx)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to load list state: %w", err)
	}
	return session, nil
}

// CheckStart reports why Start would be a no-op, or nil when it would run.
func (s *Service) CheckStart(ctx context.Context) error {
	return s.store.WithinTx(ctx, func(tx *store.Tx) error {
		session, err := tx.GetSession(ctx)
		if err != nil {
			return err
		}
		total, _, err := tx.CountTasks(ctx)
		if err != nil {
			return err
		}
		return checkStart(session, total)
	})
}

// CheckComplete reports why Complete would be a no-op, or nil when it would run.
func (s *Service) CheckComplete(ctx context.Context) error {
	return s.store.WithinTx(ctx, func(tx *store.Tx) error {
		session, err := tx.GetSession(ctx)
		if err != nil {
			return err
		}
		_, done, err := tx.CountTasks(ctx)
		if err != nil {
			return err
		}
		return checkComplete(session, done)
	})
}

func checkStart(session model.Session, total int) error {
	if session.Status != model.StatusPlanning && session.Status != model.StatusFinished {
		return fmt.Errorf("%w: cannot start while %s", ErrInvalidTransition, session.Status)
	}
	if total == 0 {
		return fmt.Errorf("%w: add a task before starting", ErrInvalidTransition)
	}
	return nil
}

func checkComplete(session model.Session, done int) error {
	if session.Status != model.StatusRunning {
		return fmt.Errorf("%w: cannot complete while %s", ErrInvalidTransition, session.Status)
	}
	if done == 0 {
		return fmt.Errorf("%w: check off a task before completing", ErrInvalidTransition)
	}
	return nil
}

// Start moves the list to running and stamps the start time. Without tasks, or
// while already running, it leaves the state unchanged.
func (s *Service) Start(ctx context.Context) (model.Session, error) {
	var session model.Session
	err := s.store.WithinTx(ctx, func(tx *store.Tx) error {
		var err error
		session, err = tx.GetSession(ctx)
		if err != nil {
			return err
		}
		total, _, err := tx.CountTasks(ctx)
		if err != nil {
			return err
		}
		if reason := checkStart(session, total); reason != nil {
			s.log.Debug("start ignored", "status", session.Status, "tasks", total, "reason", reason)
			return nil
		}
		now := s.clock.Now()
		session.Status = model.StatusRunning
		session.StartTime = &now
		session.EndTime = nil
		session.Tier = 0
		return tx.SaveSession(ctx, session)
	})
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to start list: %w", err)
	}
	if session.Status == model.StatusRunning {
		s.log.Info("list started", "start", session.StartTime)
	}
	return session, nil
}

// Complete finishes a running list with at least one checked task. The tier is
// computed, counted in the histogram and appended to the history in the same
// transaction as the status change, so it is recorded once per finish. Any
// other state is left unchanged.
func (s *Service) Complete(ctx context.Context) (model.Session, error) {
	var (
		session  model.Session
		finished bool
	)
	err := s.store.WithinTx(ctx, func(tx *store.Tx) error {
		var err error
		session, err = tx.GetSession(ctx)
		if err != nil {
			return err
		}
		total, done, err := tx.CountTasks(ctx)
		if err != nil {
			return err
		}
		if reason := checkComplete(session, done); reason != nil {
			s.log.Debug("complete ignored", "status", session.Status, "done", done, "reason", reason)
			return nil
		}
		if session.StartTime == nil {
			return fmt.Errorf("running list has no start time")
		}
		start := *session.StartTime
		end := s.clock.Now()
		if end.Before(start) {
			end = start
		}
		tier, err := trophy.Compute(start, end)
		if err != nil {
			return err
		}
		session.Status = model.StatusFinished
		session.EndTime = &end
		session.Tier = tier
		if err := tx.SaveSession(ctx, session); err != nil {
			return err
		}
		if err := tx.IncrementTrophy(ctx, tier); err != nil {
			return err
		}
		if _, err := tx.InsertFinish(ctx, model.Finish{
			StartedAt:  start,
			EndedAt:    end,
			Tier:       tier,
			TasksDone:  done,
			TasksTotal: total,
		}); err != nil {
			return err
		}
		finished = true
		return nil
	})
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to complete list: %w", err)
	}
	if finished {
		s.log.Info("list finished", "tier", session.Tier, "title", trophy.Title(session.Tier))
	}
	return session, nil
}

// Reset returns the list to planning from any state and removes tasks according
// to the clear mode. The trophy histogram is kept.
func (s *Service) Reset(ctx context.Context) (model.Session, error) {
	var (
		session model.Session
		removed int64
	)
	err := s.store.WithinTx(ctx, func(tx *store.Tx) error {
		var err error
		session, err = tx.GetSession(ctx)
		if err != nil {
			return err
		}
		session.Status = model.StatusPlanning
		session.StartTime = nil
		session.EndTime = nil
		session.Tier = 0
		if err := tx.SaveSession(ctx, session); err != nil {
			return err
		}
		removed, err = tx.DeleteTasks(ctx, s.clearMode == model.ClearAll)
		return err
	})
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to reset list: %w", err)
	}
	s.log.Info("list reset", "clear_mode", s.clearMode, "removed", removed)
	return session, nil
}

// UpdateAppearance changes cosmetic fields. It never affects the status.
func (s *Service) UpdateAppearance(ctx context.Context, a model.Appearance) (model.Session, error) {
	if a.Title != nil && strings.TrimSpace(*a.Title) == "" {
		return model.Session{}, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}
	for _, color := range []*string{a.PaperColor, a.BackgroundColor} {
		if color != nil && !isHexColor(*color) {
			return model.Session{}, fmt.Errorf("%w: color %q must look like #rrggbb", ErrInvalidInput, *color)
		}
	}
	var session model.Session
	err := s.store.WithinTx(ctx, func(tx *store.Tx) error {
		var err error
		session, err = tx.GetSession(ctx)
		if err != nil {
			return err
		}
		if a.Title != nil {
			session.Title = strings.TrimSpace(*a.Title)
		}
		if a.PaperColor != nil {
			session.PaperColor = strings.ToLower(*a.PaperColor)
		}
		if a.BackgroundColor != nil {
			session.BackgroundColor = strings.ToLower(*a.BackgroundColor)
		}
		return tx.SaveSession(ctx, session)
	})
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to update list: %w", err)
	}
	return session, nil
}

func isHexColor(value string) bool {
	if len(value) != 4 && len(value) != 7 {
		return false
	}
	if value[0] != '#' {
		return false
	}
	for i := 1; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ComputeTier returns the tier for a run between start and end.
func (s *Service) ComputeTier(start, end time.Time) (int, error) {
	return trophy.Compute(start, end)
}

// RecordTrophy counts one trophy of the given tier and returns the histogram.
func (s *Service) RecordTrophy(ctx context.Context, tier int) (model.TrophyCounts, error) {
	if err := trophy.Validate(tier); err != nil {
		return model.TrophyCounts{}, fmt.Errorf("tier %d: %w", tier, err)
	}
	var counts model.TrophyCounts
	err := s.store.WithinTx(ctx, func(tx *store.Tx) error {
		if err := tx.IncrementTrophy(ctx, tier); err != nil {
			return err
		}
		var err error
		counts, err = tx.GetTrophyCounts(ctx)
		return err
	})
	if err != nil {
		return model.TrophyCounts{}, fmt.Errorf("failed to record trophy: %w", err)
	}
	return counts, nil
}

// Trophies returns the tier histogram.
func (s *Service) Trophies(ctx context.Context) (model.TrophyCounts, error) {
	counts, err := s.store.GetTrophyCounts(ctx)
	if err != nil {
		return model.TrophyCounts{}, fmt.Errorf("failed to load trophies: %w", err)
	}
	return counts, nil
}

// History returns recorded finishes, newest first.
func (s *Service) History(ctx context.Context, cfg model.HistoryConfig) ([]model.Finish, error) {
	finishes, err := s.store.ListFinishes(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return finishes, nil
}
