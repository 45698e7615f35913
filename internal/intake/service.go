package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nyayasetu/legal-intake-platform/internal/bookings"
	"github.com/nyayasetu/legal-intake-platform/internal/events"
	"github.com/nyayasetu/legal-intake-platform/internal/observability/metrics"
	"github.com/nyayasetu/legal-intake-platform/internal/users"
	"github.com/nyayasetu/legal-intake-platform/pkg/logging"
)

// effectDrainTimeout bounds effect execution once a transition is committed.
// It must cover the slowest effect chain, retries and LLM call included.
const effectDrainTimeout = 2 * time.Minute

// UserRepository is the subset of users.Repository the service needs.
type UserRepository interface {
	GetOrCreateByAddress(ctx context.Context, address, displayName, defaultLocale string) (*users.User, error)
	UpdateLocale(ctx context.Context, userID uuid.UUID, locale string) error
	IncrementRealQuestions(ctx context.Context, userID uuid.UUID) error
}

// BookingLoader resolves booking snapshots for payment and admin events.
type BookingLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
}

// Service drives one intake event end to end: serialize per user, load a
// snapshot, run the pure transition, commit the new state, then execute the
// effects outside the lock. The state write always lands before any effect
// runs, so a crash between the two can at worst drop messages, never leave
// the conversation in a phase that disagrees with what was sent.
type Service struct {
	users         UserRepository
	store         *Store
	loader        BookingLoader
	executor      *Executor
	locks         *userLocks
	metrics       *metrics.IntakeMetrics
	logger        *logging.Logger
	defaultLocale string
}

func NewService(
	userRepo UserRepository,
	store *Store,
	loader BookingLoader,
	executor *Executor,
	m *metrics.IntakeMetrics,
	logger *logging.Logger,
	defaultLocale string,
) *Service {
	if userRepo == nil || store == nil || executor == nil {
		panic("intake: user repo, store, and executor are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	return &Service{
		users:         userRepo,
		store:         store,
		loader:        loader,
		executor:      executor,
		locks:         newUserLocks(),
		metrics:       m,
		logger:        logger,
		defaultLocale: defaultLocale,
	}
}

// Handle processes one event. The returned error classifies the failure for
// the caller: events.ErrMalformedEvent and bookings.ErrInvalidTransition are
// terminal and must not be redelivered; anything else is worth a retry.
func (s *Service) Handle(ctx context.Context, evt events.Event) error {
	if err := evt.Validate(); err != nil {
		s.metrics.ObserveEvent(string(evt.Kind), "malformed")
		return err
	}

	user, effects, err := s.decideAndCommit(ctx, evt)
	if err != nil {
		return err
	}

	// Effects run outside the per-user lock so a slow LLM call or provider
	// retry never blocks the user's next message. The state transition is
	// already committed at this point, so the effects run on their own
	// deadline rather than the caller's: a shutdown signal must not drop
	// outbound messages the user was promised.
	effectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), effectDrainTimeout)
	defer cancel()
	s.executor.Execute(effectCtx, user, effects)
	s.metrics.ObserveEvent(string(evt.Kind), "ok")
	return nil
}

func (s *Service) decideAndCommit(ctx context.Context, evt events.Event) (users.User, []Effect, error) {
	unlock := s.locks.Lock(evt.ChannelAddress)
	defer unlock()

	user, err := s.users.GetOrCreateByAddress(ctx, evt.ChannelAddress, evt.DisplayName, s.defaultLocale)
	if err != nil {
		s.metrics.ObserveEvent(string(evt.Kind), "error")
		return users.User{}, nil, fmt.Errorf("intake: resolve user %s: %w", evt.ChannelAddress, err)
	}

	snap := Snapshot{User: *user}
	if snap.State, err = s.store.LoadState(ctx, user.ID); err != nil {
		s.metrics.ObserveEvent(string(evt.Kind), "error")
		return users.User{}, nil, err
	}
	if snap.OutboundCount, err = s.store.CountOutbound(ctx, user.ID); err != nil {
		s.metrics.ObserveEvent(string(evt.Kind), "error")
		return users.User{}, nil, err
	}
	if snap.Booking, err = s.loadBookingSnapshot(ctx, evt); err != nil {
		s.metrics.ObserveEvent(string(evt.Kind), "error")
		return users.User{}, nil, err
	}

	dec, err := Decide(snap, evt)
	if err != nil {
		s.metrics.ObserveEvent(string(evt.Kind), "rejected")
		s.logger.Warn("event rejected",
			"kind", evt.Kind,
			"user_id", user.ID,
			"phase", snap.State.Phase,
			"error", err,
		)
		return users.User{}, nil, err
	}
	if err := dec.State.CheckInvariant(); err != nil {
		s.metrics.ObserveEvent(string(evt.Kind), "error")
		return users.User{}, nil, err
	}

	if err := s.commit(ctx, user, evt, dec); err != nil {
		s.metrics.ObserveEvent(string(evt.Kind), "error")
		return users.User{}, nil, err
	}

	if dec.SetLocale != "" {
		user.Locale = dec.SetLocale
	}
	s.logger.Info("event processed",
		"kind", evt.Kind,
		"user_id", user.ID,
		"phase", dec.State.Phase,
		"effects", len(dec.Effects),
	)
	return *user, dec.Effects, nil
}

// loadBookingSnapshot fetches the booking a payment or admin event refers to.
// A missing booking comes back as a nil snapshot; Decide turns that into the
// terminal not-found error.
func (s *Service) loadBookingSnapshot(ctx context.Context, evt events.Event) (*bookings.Booking, error) {
	if evt.Kind != events.KindPaymentConfirmed && evt.Kind != events.KindAdminMarkCompleted {
		return nil, nil
	}
	if s.loader == nil {
		return nil, nil
	}
	b, err := s.loader.Get(ctx, evt.BookingID)
	if errors.Is(err, bookings.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) commit(ctx context.Context, user *users.User, evt events.Event, dec Decision) error {
	if evt.Kind == events.KindChatText || evt.Kind == events.KindChatSelection {
		if err := s.store.AppendMessage(ctx, user.ID, DirectionInbound, evt.Input()); err != nil {
			return err
		}
	}
	if err := s.store.SaveState(ctx, user.ID, dec.State); err != nil {
		return err
	}
	if dec.SetLocale != "" {
		if err := s.users.UpdateLocale(ctx, user.ID, dec.SetLocale); err != nil {
			return err
		}
	}
	if dec.CountQuestion {
		if err := s.users.IncrementRealQuestions(ctx, user.ID); err != nil {
			return err
		}
	}
	return nil
}
