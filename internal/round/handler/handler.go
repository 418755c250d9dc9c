// Package handler wires the round endpoints to the round service.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"drawcore/internal/draw"
	"drawcore/internal/round/models"
	"drawcore/internal/round/service"
	id "drawcore/pkg/domain"
	dErrors "drawcore/pkg/domain-errors"
	"drawcore/pkg/platform/httputil"
	"drawcore/pkg/requestcontext"
)

// Service defines the round operations the handler depends on.
type Service interface {
	Allocate(ctx context.Context, params service.AllocateParams) (*models.AllocationResult, error)
	GetRoundStatus(ctx context.Context, roundID id.RoundID) (*models.Round, error)
	VerifyDraw(ctx context.Context, roundID id.RoundID) (*draw.VerificationReport, error)
	CreateRound(ctx context.Context, params service.CreateRoundParams) (*models.Round, error)
	ForceDraw(ctx context.Context, roundID id.RoundID, allowPartial bool) (*models.DrawResult, error)
}

// Handler wires round endpoints to the round service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a round handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated read endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/rounds/{roundID}", h.HandleGetRound)
	r.Get("/rounds/{roundID}/verify", h.HandleVerify)
}

// RegisterUser mounts the authenticated buyer endpoints.
func (h *Handler) RegisterUser(r chi.Router) {
	r.Post("/rounds/{roundID}/participations", h.HandleParticipate)
}

// RegisterAdmin mounts the operator endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/rounds", h.HandleCreateRound)
	r.Post("/admin/rounds/{roundID}/draw", h.HandleForceDraw)
}

// HandleParticipate handles POST /rounds/{roundID}/participations.
func (h *Handler) HandleParticipate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	roundID, err := id.ParseRoundID(chi.URLParam(r, "roundID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ParticipateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Allocate(ctx, service.AllocateParams{
		RoundID:       roundID,
		UserID:        userID,
		Shares:        req.Shares,
		FundingSource: req.ParsedFundingSource(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "allocation rejected",
			"request_id", requestID,
			"round_id", roundID,
			"user_id", userID,
			"shares", req.Shares,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "shares allocated",
		"request_id", requestID,
		"round_id", roundID,
		"user_id", userID,
		"shares", req.Shares,
		"cost", result.Cost,
		"round_full", result.BecameFull,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromAllocation(result))
}

// HandleGetRound handles GET /rounds/{roundID}.
func (h *Handler) HandleGetRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := id.ParseRoundID(chi.URLParam(r, "roundID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	round, err := h.service.GetRoundStatus(r.Context(), roundID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRound(round))
}

// HandleVerify handles GET /rounds/{roundID}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	roundID, err := id.ParseRoundID(chi.URLParam(r, "roundID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.VerifyDraw(r.Context(), roundID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleCreateRound handles POST /admin/rounds.
func (h *Handler) HandleCreateRound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRoundRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	round, err := h.service.CreateRound(ctx, service.CreateRoundParams{
		ProductID:     req.ParsedProductID(),
		RoundNumber:   req.RoundNumber,
		TotalShares:   req.TotalShares,
		PricePerShare: req.PricePerShare,
		BaseNumber:    req.BaseNumber,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "round creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "round created",
		"request_id", requestID,
		"round_id", round.ID,
		"product_id", round.ProductID,
		"total_shares", round.TotalShares,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRound(round))
}

// HandleForceDraw handles POST /admin/rounds/{roundID}/draw.
func (h *Handler) HandleForceDraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	roundID, err := id.ParseRoundID(chi.URLParam(r, "roundID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// The body is optional; a bare POST draws without closing early.
	var req ForceDrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	result, err := h.service.ForceDraw(ctx, roundID, req.AllowPartial)
	if err != nil {
		h.logger.WarnContext(ctx, "forced draw failed",
			"request_id", requestID,
			"round_id", roundID,
			"allow_partial", req.AllowPartial,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "round force-drawn",
		"request_id", requestID,
		"round_id", roundID,
		"winning_number", result.WinningNumber,
	)
	httputil.WriteJSON(w, http.StatusOK, FromDrawResult(result))
}
