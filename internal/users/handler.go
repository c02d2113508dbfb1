package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"delivery-service/internal/auth"
	"delivery-service/internal/httpx"
	"delivery-service/pkg/jwt"
)

// Handler exposes user HTTP endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler wires a handler to the user service.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// AuthRoutes returns the public /auth router.
func (h *Handler) AuthRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	return r
}

// AdminRoutes returns the /admin router.
func (h *Handler) AdminRoutes(authn func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authn, jwt.RequireRole(auth.RoleAdmin))
	r.Get("/users", h.List)
	return r
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	resp, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.IdentityFrom(r.Context())
	list, err := h.svc.List(r.Context(), actor, r.URL.Query().Get("role"))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}
