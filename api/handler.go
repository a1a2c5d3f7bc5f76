package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/teamer-dev/authsession"
	"github.com/teamer-dev/authsession/middleware"
)

const maxBodyBytes = 1 << 16

var validate = validator.New()

// Handler exposes an Engine over HTTP.
type Handler struct {
	engine *authsession.Engine
	logger zerolog.Logger
}

func NewHandler(engine *authsession.Engine, logger zerolog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Router returns a router with every route registered.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	h.Register(r)
	return r
}

// Register adds the routes to r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	auth.HandleFunc("/introspect", h.Introspect).Methods(http.MethodPost)
	auth.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	auth.HandleFunc("/refresh", h.Refresh).Methods(http.MethodPost)

	auth.Handle("/me", middleware.Guard(h.engine)(http.HandlerFunc(h.Me))).Methods(http.MethodGet)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, HealthResponse{Status: "UP"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.engine.Login(middleware.RequestContext(r), req.Email, req.Password)
	if err != nil {
		h.respondEngineError(w, r, "login", err)
		return
	}
	respondOK(w, authResponse(res))
}

func (h *Handler) Introspect(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	res := h.engine.Introspect(middleware.RequestContext(r), req.Token)
	respondOK(w, IntrospectResponse{Valid: res.Valid})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.engine.Logout(middleware.RequestContext(r), req.Token); err != nil {
		h.respondEngineError(w, r, "logout", err)
		return
	}
	respondOK(w, nil)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.engine.Refresh(middleware.RequestContext(r), req.Token)
	if err != nil {
		h.respondEngineError(w, r, "refresh", err)
		return
	}
	respondOK(w, authResponse(res))
}

// Me returns the principal of the bearer token. It runs behind Guard.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := authsession.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, CodeUnauthenticated, "Unauthenticated")
		return
	}
	respondOK(w, PrincipalResponse{ID: claims.Subject, Email: claims.Email})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidPayload, "Invalid payload")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidPayload, "Invalid payload")
		return false
	}
	return true
}

func (h *Handler) respondEngineError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, authsession.ErrLoginRateLimited):
		respondError(w, http.StatusTooManyRequests, CodeRateLimited, "Too many login attempts")
	case errors.Is(err, authsession.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, CodeUnauthenticated, "Unauthenticated")
	default:
		h.logger.Error().Err(err).Str("op", op).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}

func authResponse(res *authsession.LoginResult) AuthResponse {
	return AuthResponse{
		Token:         res.Token,
		Authenticated: true,
		ExpiresAt:     res.ExpiresAt,
		Principal:     PrincipalResponse{ID: res.Principal.ID, Email: res.Principal.Email},
	}
}
