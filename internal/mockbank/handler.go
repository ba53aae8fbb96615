package mockbank

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"digibank/internal/idempotency"
	jwttoken "digibank/internal/jwt_token"
	"digibank/internal/models"
	"digibank/internal/platform/logger"
	"digibank/internal/platform/middleware"
	id "digibank/pkg/domain"
	dErrors "digibank/pkg/domain-errors"
	"digibank/pkg/platform/httputil"
	authmw "digibank/pkg/platform/middleware/auth"
	"digibank/pkg/platform/middleware/metadata"
	"digibank/pkg/platform/middleware/requesttime"
	"digibank/pkg/requestcontext"
)

// Handler serves the banking contract under /api.
type Handler struct {
	bank    *Bank
	tokens  *jwttoken.JWTService
	faults  *Faults
	logger  *slog.Logger
	metrics *Metrics
}

type HandlerOption func(*Handler)

func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithFaults shares a fault injector with the caller.
func WithFaults(f *Faults) HandlerOption {
	return func(h *Handler) {
		if f != nil {
			h.faults = f
		}
	}
}

func NewHandler(bank *Bank, tokens *jwttoken.JWTService, opts ...HandlerOption) *Handler {
	h := &Handler{
		bank:   bank,
		tokens: tokens,
		faults: &Faults{},
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Faults returns the handler's fault injector.
func (h *Handler) Faults() *Faults {
	return h.faults
}

// Register mounts the contract routes under /api.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(jwttoken.NewValidator(h.tokens), h.logger))
			r.Get("/me", h.handleMe)
			r.Get("/accounts", h.handleAccounts)
			r.Get("/payees", h.handlePayees)
			r.Post("/payees", h.handleAddPayee)
			r.Patch("/payees/{id}/disable", h.handleDisablePayee)
			r.Post("/transfers", h.handleCreateTransfer)
			r.Get("/transfers", h.handleListTransfers)
		})
	})
}

// NewRouter wires the middleware chain, health and metrics endpoints and the
// contract routes. metricsHandler may be nil.
func NewRouter(h *Handler, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Latency(h.metrics.observeRequest))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	h.Register(r)
	return r
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal || dErrors.CodeOf(err) == "" {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	} else {
		h.logger.InfoContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}

// =============================================================================
// Auth
// =============================================================================

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := httputil.DecodeJSON(r, &creds); err != nil {
		h.writeError(w, r, err, "invalid register request")
		return
	}
	res, err := h.bank.Register(r.Context(), creds)
	if err != nil {
		h.writeError(w, r, err, "register failed")
		return
	}
	h.logger.InfoContext(r.Context(), "user registered", "user_id", res.UserID, "account_id", res.AccountID)
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := httputil.DecodeJSON(r, &creds); err != nil {
		h.writeError(w, r, err, "invalid login request")
		return
	}
	me, err := h.bank.Authenticate(creds)
	if err != nil {
		h.writeError(w, r, err, "login failed")
		return
	}
	token, err := h.tokens.GenerateAccessToken(me.UserID, me.Email, me.Role, requestcontext.Now(r.Context()))
	if err != nil {
		h.writeError(w, r, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token"), "login failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.LoginResult{
		UserID:           me.UserID,
		Email:            me.Email,
		Role:             me.Role,
		AccessToken:      token,
		TokenType:        "Bearer",
		ExpiresInSeconds: int64(h.tokens.ExpiresIn().Seconds()),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	me, err := h.bank.Me(authmw.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err, "me failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, me)
}

// =============================================================================
// Accounts and payees
// =============================================================================

func (h *Handler) handleAccounts(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.bank.Accounts(authmw.GetUserID(r.Context())))
}

func (h *Handler) handlePayees(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.bank.ActivePayees(authmw.GetUserID(r.Context())))
}

func (h *Handler) handleAddPayee(w http.ResponseWriter, r *http.Request) {
	var req models.AddPayeeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err, "invalid add payee request")
		return
	}
	p, err := h.bank.AddPayee(r.Context(), authmw.GetUserID(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err, "add payee failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDisablePayee(w http.ResponseWriter, r *http.Request) {
	payeeID, err := id.ParsePayeeID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "invalid payee id")
		return
	}
	p, err := h.bank.DisablePayee(authmw.GetUserID(r.Context()), payeeID)
	if err != nil {
		h.writeError(w, r, err, "disable payee failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// =============================================================================
// Transfers
// =============================================================================

func (h *Handler) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := strings.TrimSpace(r.Header.Get(idempotency.Header))
	if key == "" {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "missing Idempotency-Key"), "transfer rejected")
		return
	}
	if err := idempotency.Validate(key); err != nil {
		h.writeError(w, r, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid Idempotency-Key"), "transfer rejected")
		return
	}

	var req models.CreateTransferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err, "invalid transfer request")
		return
	}

	if status, ok := h.faults.takeBefore(); ok {
		h.metrics.faultInjected(faultBeforeCommit)
		h.logger.InfoContext(ctx, "injected transfer fault", "status", status, "idempotency_key", key)
		writeFault(w, status)
		return
	}

	t, replayed, err := h.bank.CreateTransfer(ctx, authmw.GetUserID(ctx), key, req)
	if err != nil {
		h.writeError(w, r, err, "transfer rejected")
		return
	}
	h.metrics.transferCreated(replayed)
	h.logger.InfoContext(ctx, "transfer accepted",
		"transfer_id", t.ID,
		"replayed", replayed,
		"idempotency_key", key,
		"request_id", requestcontext.RequestID(ctx),
	)

	if h.faults.takeAfterCommit() {
		h.metrics.faultInjected(faultAfterCommit)
		writeFault(w, http.StatusBadGateway)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := DefaultPageSize
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid limit"), "list transfers failed")
			return
		}
		limit = n
	}
	page, err := h.bank.ListTransfers(authmw.GetUserID(r.Context()), limit, q.Get("cursor"))
	if err != nil {
		h.writeError(w, r, err, "list transfers failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}
