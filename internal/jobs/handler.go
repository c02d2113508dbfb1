package jobs

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"delivery-service/internal/apperr"
	"delivery-service/internal/auth"
	"delivery-service/internal/httpx"
	"delivery-service/pkg/jwt"
	"delivery-service/pkg/storage"
)

// multipart framing allowance on top of the photo itself
const uploadOverhead = 1 << 20

// Handler exposes job HTTP endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler wires a handler to the job service.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// Routes returns the /jobs router. authn must resolve the request identity.
func (h *Handler) Routes(authn func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authn)

	r.Group(func(r chi.Router) {
		r.Use(jwt.RequireRole(auth.RoleAdmin))
		r.Post("/", h.Create)
		r.Patch("/{id}/assign-driver", h.Assign)
	})
	r.Group(func(r chi.Router) {
		r.Use(jwt.RequireRole(auth.RoleDriver))
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Post("/{id}/pod/photo", h.UploadProof)
	})
	r.Group(func(r chi.Router) {
		r.Use(jwt.RequireRole(auth.RoleAdmin, auth.RoleDriver))
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
	})
	return r
}

// ClientRoutes returns the /client router for self-service clients.
func (h *Handler) ClientRoutes(authn func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authn, jwt.RequireRole(auth.RoleClient))

	r.Post("/jobs", h.CreateOwn)
	r.Get("/jobs", h.List)
	r.Get("/jobs/{id}", h.Get)
	return r
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	job, err := h.svc.CreateJobAsAdmin(r.Context(), identity(r), req)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, job)
}

func (h *Handler) CreateOwn(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	job, err := h.svc.CreateJobAsClient(r.Context(), identity(r), req)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, job)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	job, err := h.svc.AssignDriver(r.Context(), identity(r), chi.URLParam(r, "id"), req.DriverID)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, job)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	job, err := h.svc.ChangeStatus(r.Context(), identity(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, job)
}

func (h *Handler) UploadProof(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxPhotoBytes+uploadOverhead)

	var photo storage.Blob
	file, header, err := r.FormFile("photo")
	switch {
	case err == nil:
		defer file.Close()
		photo = storage.Blob{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	case isTooLarge(err):
		httpx.WriteError(w, r, h.log, apperr.ValidationField("photo", "File too large (max 5MB)"))
		return
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// the service reports the missing photo after its state checks
	default:
		httpx.WriteError(w, r, h.log, apperr.Validation("invalid multipart body"))
		return
	}

	job, err := h.svc.UploadProof(r.Context(), identity(r), chi.URLParam(r, "id"), photo)
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ProofResponse{Message: "POD photo uploaded", Job: job})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListJobs(r.Context(), identity(r))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.GetJob(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, job)
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFrom(r.Context())
	return id
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
