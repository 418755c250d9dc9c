// Package service implements the share allocator and the round lifecycle
// controller on top of the store ports. All round and ledger mutations happen
// inside a TxRunner boundary; correctness does not depend on callers being
// single-threaded anywhere.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"drawcore/internal/draw"
	"drawcore/internal/round/metrics"
	"drawcore/internal/round/models"
	"drawcore/internal/round/ports"
	id "drawcore/pkg/domain"
	dErrors "drawcore/pkg/domain-errors"
	"drawcore/pkg/platform/sentinel"
	"drawcore/pkg/requestcontext"
)

// defaultFreeShareLimit caps how many shares one free participation may take,
// independent of the remaining quota.
const defaultFreeShareLimit = 3

// sweepBatchSize bounds how many full rounds one sweep pass draws.
const sweepBatchSize = 10

type Service struct {
	rounds         ports.RoundStore
	participations ports.ParticipationStore
	ledger         ports.LedgerStore
	outbox         ports.OutboxStore
	tx             ports.TxRunner
	engine         *draw.Engine

	cache          ports.StatusCache
	metrics        *metrics.Metrics
	logger         *slog.Logger
	tracer         trace.Tracer
	freeShareLimit int64

	// fullSignal nudges the sweeper when an allocation fills a round. The
	// send is non-blocking; the periodic sweep is the delivery guarantee.
	fullSignal chan id.RoundID
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithStatusCache fronts GetRoundStatus with a cache.
func WithStatusCache(cache ports.StatusCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithFreeShareLimit overrides the per-participation free share cap.
func WithFreeShareLimit(limit int64) Option {
	return func(s *Service) { s.freeShareLimit = limit }
}

// New constructs the service. All stores, the transaction runner, and the
// draw engine are required.
func New(
	rounds ports.RoundStore,
	participations ports.ParticipationStore,
	ledgerStore ports.LedgerStore,
	outbox ports.OutboxStore,
	txRunner ports.TxRunner,
	engine *draw.Engine,
	opts ...Option,
) (*Service, error) {
	if rounds == nil {
		return nil, fmt.Errorf("round store is required")
	}
	if participations == nil {
		return nil, fmt.Errorf("participation store is required")
	}
	if ledgerStore == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox store is required")
	}
	if txRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("draw engine is required")
	}

	svc := &Service{
		rounds:         rounds,
		participations: participations,
		ledger:         ledgerStore,
		outbox:         outbox,
		tx:             txRunner,
		engine:         engine,
		tracer:         otel.Tracer("drawcore/internal/round/service"),
		freeShareLimit: defaultFreeShareLimit,
		fullSignal:     make(chan id.RoundID, 16),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateRoundParams are the catalog collaborator's inputs at round creation.
// TotalShares and PricePerShare are immutable afterwards.
type CreateRoundParams struct {
	ProductID     id.ProductID
	RoundNumber   int64
	TotalShares   int64
	PricePerShare int64
	BaseNumber    int64
}

// CreateRound opens a new round.
func (s *Service) CreateRound(ctx context.Context, params CreateRoundParams) (*models.Round, error) {
	if params.ProductID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "product id is required")
	}
	if params.TotalShares < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "total shares must be at least 1")
	}
	if params.PricePerShare < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "price per share must be at least 1")
	}
	base := params.BaseNumber
	if base == 0 {
		base = models.DefaultBaseNumber
	}

	round := &models.Round{
		ID:            id.NewRoundID(),
		ProductID:     params.ProductID,
		RoundNumber:   params.RoundNumber,
		TotalShares:   params.TotalShares,
		BaseNumber:    base,
		PricePerShare: params.PricePerShare,
		Status:        models.RoundOpen,
		CreatedAt:     requestcontext.Now(ctx),
	}
	if err := s.rounds.Create(ctx, round); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create round")
	}
	return round, nil
}

// GetRoundStatus returns the round snapshot, served from cache when fresh.
func (s *Service) GetRoundStatus(ctx context.Context, roundID id.RoundID) (*models.Round, error) {
	if s.cache != nil {
		if round, ok := s.cache.Get(ctx, roundID); ok {
			return round, nil
		}
	}
	round, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return nil, translateStoreErr(err, "get round")
	}
	if s.cache != nil {
		s.cache.Set(ctx, round)
	}
	return round, nil
}

// VerifyDraw recomputes a drawn round's result for third-party audit.
func (s *Service) VerifyDraw(ctx context.Context, roundID id.RoundID) (*draw.VerificationReport, error) {
	round, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return nil, translateStoreErr(err, "get round")
	}
	participations, err := s.participations.ListByRound(ctx, roundID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list participations")
	}
	return draw.Verify(round, participations)
}

// FullSignals exposes the became-full nudge channel to the sweeper.
func (s *Service) FullSignals() <-chan id.RoundID {
	return s.fullSignal
}

func (s *Service) invalidate(ctx context.Context, roundID id.RoundID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, roundID)
	}
}

func (s *Service) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// translateStoreErr maps store sentinels onto coded domain errors at the
// service boundary.
func translateStoreErr(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	case errors.Is(err, sentinel.ErrFrozen):
		return dErrors.Wrap(err, dErrors.CodeRoundFrozen, msg)
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeRoundNotOpen, msg)
	case errors.Is(err, sentinel.ErrCapacity):
		return dErrors.Wrap(err, dErrors.CodeCapacityExceeded, msg)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConcurrentModification, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
