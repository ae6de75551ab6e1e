package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/felipepmaragno/bedrock-gateway/internal/auth"
	"github.com/felipepmaragno/bedrock-gateway/internal/domain"
	"github.com/felipepmaragno/bedrock-gateway/internal/metrics"
	"github.com/felipepmaragno/bedrock-gateway/internal/router"

	_ "github.com/felipepmaragno/bedrock-gateway/internal/docs"
)

type HandlerConfig struct {
	Router         *router.Router
	Identity       auth.Identity
	Issuer         *auth.TokenIssuer
	Verifier       *auth.TokenVerifier
	AccessTokenTTL time.Duration
	Checkers       []HealthChecker
	HealthTimeout  time.Duration
	Version        string

	// CORSAllowedOrigins enables CORS handling when non-empty.
	CORSAllowedOrigins []string
}

type Handler struct {
	router         *router.Router
	identity       auth.Identity
	issuer         *auth.TokenIssuer
	verifier       *auth.TokenVerifier
	accessTokenTTL time.Duration
	version        string
	mux            *http.ServeMux
	handler        http.Handler
}

func NewHandler(cfg HandlerConfig) *Handler {
	healthTimeout := cfg.HealthTimeout
	if healthTimeout == 0 {
		healthTimeout = 5 * time.Second
	}

	h := &Handler{
		router:         cfg.Router,
		identity:       cfg.Identity,
		issuer:         cfg.Issuer,
		verifier:       cfg.Verifier,
		accessTokenTTL: cfg.AccessTokenTTL,
		version:        cfg.Version,
		mux:            http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /login", h.handleLogin)
	h.mux.Handle("POST /aws-bedrock/anthropic", h.requireToken(http.HandlerFunc(h.handleBedrockAnthropic)))
	h.mux.Handle("POST /invoke", h.requireToken(http.HandlerFunc(h.handleInvoke)))
	h.mux.HandleFunc("GET /health/live", h.handleHealthLive)
	h.mux.Handle("GET /health/ready", handleHealthReadyWithCheckers(cfg.Checkers, healthTimeout, cfg.Version))
	h.mux.Handle("GET /metrics", promhttp.Handler())
	h.mux.Handle("GET /docs/", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	var next http.Handler = h.mux
	if len(cfg.CORSAllowedOrigins) > 0 {
		next = cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "WWW-Authenticate"},
			AllowCredentials: false,
			MaxAge:           300,
		})(next)
	}
	h.handler = h.instrument(next)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// handleLogin exchanges the service account credentials for a bearer token.
//
//	@Summary		Issue an access token
//	@Tags			auth
//	@Produce		json
//	@Security		basicAuth
//	@Success		200	{object}	domain.TokenResponse
//	@Failure		401	{object}	ErrorResponse
//	@Router			/login [post]
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	username, password, ok := r.BasicAuth()
	if !ok || !h.identity.Matches(username, password) {
		metrics.RecordAuthFailure("credentials")
		slog.Warn("login rejected", "request_id", requestIDFromContext(r.Context()), "basic_auth_present", ok)
		w.Header().Set("WWW-Authenticate", `Basic realm="bedrock-gateway"`)
		writeDomainError(w, domain.NewError(domain.KindAuthentication, domain.ErrInvalidCredentials))
		return
	}

	token, err := h.issuer.Issue(h.identity.Username, h.accessTokenTTL)
	if err != nil {
		slog.Error("token issue failed", "error", err, "request_id", requestIDFromContext(r.Context()))
		writeDomainError(w, err)
		return
	}

	metrics.RecordTokenIssued()
	writeJSON(w, http.StatusOK, domain.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// handleBedrockAnthropic relays an Anthropic chat payload to Bedrock.
//
//	@Summary		Invoke an Anthropic model on Bedrock
//	@Tags			inference
//	@Accept			json
//	@Produce		json
//	@Security		bearerAuth
//	@Param			request	body		domain.InvokeRequest	true	"Invocation request"
//	@Success		200		{object}	domain.InvokeResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/aws-bedrock/anthropic [post]
func (h *Handler) handleBedrockAnthropic(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInvokeRequest(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, domain.ProviderAWSBedrock, req)
}

// handleInvoke dispatches on the provider named in the body.
//
//	@Summary		Invoke a model on the named provider
//	@Tags			inference
//	@Accept			json
//	@Produce		json
//	@Security		bearerAuth
//	@Param			request	body		domain.InvokeRequest	true	"Invocation request with provider"
//	@Success		200		{object}	domain.InvokeResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/invoke [post]
func (h *Handler) handleInvoke(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInvokeRequest(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, req.Provider, req)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, provider string, req domain.InvokeRequest) {
	ctx := r.Context()
	start := time.Now()
	requestID := requestIDFromContext(ctx)

	req.Provider = provider
	resp, err := h.router.Dispatch(ctx, provider, req)
	if err != nil {
		level := slog.LevelWarn
		if domain.KindOf(err) != domain.KindValidation {
			level = slog.LevelError
		}
		slog.Log(ctx, level, "invocation failed",
			"request_id", requestID,
			"provider", provider,
			"model_id", req.ModelID,
			"kind", domain.KindOf(err).String(),
			"error", err,
		)
		writeDomainError(w, err)
		return
	}

	slog.Info("invocation completed",
		"request_id", requestID,
		"provider", provider,
		"model_id", req.ModelID,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	writeJSON(w, http.StatusOK, resp)
}

func decodeInvokeRequest(w http.ResponseWriter, r *http.Request) (domain.InvokeRequest, bool) {
	var req domain.InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("invalid request body", "error", err, "request_id", requestIDFromContext(r.Context()))
		writeDomainError(w, domain.NewError(domain.KindValidation, domain.ErrInvalidRequest))
		return req, false
	}
	return req, true
}

//	@Summary	Liveness probe
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthStatus
//	@Router		/health/live [get]
func (h *Handler) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{Status: "ok", Version: h.version})
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides token and credential failure details from the caller.
func publicMessage(err error) string {
	kind := domain.KindOf(err)
	switch {
	case kind == domain.KindAuthentication && errors.Is(err, domain.ErrMissingToken):
		return domain.ErrMissingToken.Error()
	case kind == domain.KindAuthentication && errors.Is(err, domain.ErrInvalidCredentials):
		return domain.ErrInvalidCredentials.Error()
	case kind == domain.KindAuthentication:
		return domain.ErrInvalidToken.Error()
	case kind == domain.KindUnknown:
		return "internal server error"
	default:
		return err.Error()
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	writeError(w, statusFor(kind), kind.String(), publicMessage(err))
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorBody{
			Message: message,
			Type:    errType,
			Code:    status,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
