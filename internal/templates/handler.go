package templates

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/paperbill/paperbill/internal/platform/httpx"
	"github.com/paperbill/paperbill/internal/shared"
)

// Handler manages template endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers template routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/default", h.setDefault)
}

type templateRequest struct {
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description" validate:"max=500"`
	HTMLBody    string `json:"html_body" validate:"required"`
	CSSBody     string `json:"css_body"`
	IsDefault   bool   `json:"is_default"`
}

type templateResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	HTMLBody    string `json:"html_body"`
	CSSBody     string `json:"css_body"`
	IsDefault   bool   `json:"is_default"`
}

func toResponse(t *Template) templateResponse {
	return templateResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		HTMLBody:    t.HTMLBody,
		CSSBody:     t.CSSBody,
		IsDefault:   t.IsDefault,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	items, err := h.service.List(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("list templates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]templateResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	var req templateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tpl, err := h.service.Create(r.Context(), ownerID, TemplateInput{
		Name:        req.Name,
		Description: req.Description,
		HTMLBody:    req.HTMLBody,
		CSSBody:     req.CSSBody,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		h.logger.Error("create template", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(tpl))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid template id")
		return
	}
	tpl, err := h.service.Get(r.Context(), ownerID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(tpl))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid template id")
		return
	}
	var req templateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tpl, err := h.service.Update(r.Context(), ownerID, id, TemplateInput{
		Name:        req.Name,
		Description: req.Description,
		HTMLBody:    req.HTMLBody,
		CSSBody:     req.CSSBody,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		h.logger.Error("update template", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(tpl))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid template id")
		return
	}
	if err := h.service.Delete(r.Context(), ownerID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setDefault(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid template id")
		return
	}
	if err := h.service.SetDefault(r.Context(), ownerID, id); err != nil {
		h.logger.Error("set default template", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
