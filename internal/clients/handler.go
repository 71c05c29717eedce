package clients

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/paperbill/paperbill/internal/platform/httpx"
	"github.com/paperbill/paperbill/internal/shared"
)

// Handler manages client endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers client routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

type clientRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	AddressLine  string `json:"address_line" validate:"max=300"`
	City         string `json:"city" validate:"max=120"`
	PostalCode   string `json:"postal_code" validate:"max=20"`
	Country      string `json:"country" validate:"max=120"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
}

type clientResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	AddressLine  string `json:"address_line"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	ContactEmail string `json:"contact_email"`
}

func toClientResponse(c *Client) clientResponse {
	return clientResponse{
		ID:           c.ID,
		Name:         c.Name,
		AddressLine:  c.AddressLine,
		City:         c.City,
		PostalCode:   c.PostalCode,
		Country:      c.Country,
		ContactEmail: c.ContactEmail,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	page, perPage := shared.PageParams(r)
	items, pagination, err := h.service.List(r.Context(), ownerID, page, perPage)
	if err != nil {
		h.logger.Error("list clients", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]clientResponse, 0, len(items))
	for i := range items {
		out = append(out, toClientResponse(&items[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out, "pagination": pagination})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	var req clientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.Create(r.Context(), ownerID, inputFromRequest(req))
	if err != nil {
		h.logger.Error("create client", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toClientResponse(c))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client id")
		return
	}
	c, err := h.service.Get(r.Context(), ownerID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toClientResponse(c))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client id")
		return
	}
	var req clientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.Update(r.Context(), ownerID, id, inputFromRequest(req))
	if err != nil {
		h.logger.Error("update client", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toClientResponse(c))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client id")
		return
	}
	if err := h.service.Delete(r.Context(), ownerID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func inputFromRequest(req clientRequest) ClientInput {
	return ClientInput{
		Name:         req.Name,
		AddressLine:  req.AddressLine,
		City:         req.City,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		ContactEmail: req.ContactEmail,
	}
}
