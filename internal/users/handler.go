package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/paperbill/paperbill/internal/platform/httpx"
	"github.com/paperbill/paperbill/internal/shared"
)

// Handler manages profile endpoints. Registration and login live on the
// auth handler; this one only serves the authenticated owner's profile.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/profile", h.getProfile)
	r.Put("/profile", h.updateProfile)
}

type profileRequest struct {
	CompanyName string `json:"company_name" validate:"required,max=200"`
	AddressLine string `json:"address_line" validate:"max=300"`
	City        string `json:"city" validate:"max=120"`
	PostalCode  string `json:"postal_code" validate:"max=20"`
	Country     string `json:"country" validate:"max=120"`
	LogoURL     string `json:"logo_url" validate:"omitempty,url"`
	TaxID       string `json:"tax_id" validate:"max=60"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Locale      string `json:"locale" validate:"required,max=20"`
	Timezone    string `json:"timezone" validate:"required,max=60"`
}

type profileResponse struct {
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
	LogoURL     string `json:"logo_url"`
	TaxID       string `json:"tax_id"`
	Currency    string `json:"currency"`
	Locale      string `json:"locale"`
	Timezone    string `json:"timezone"`
}

func toProfileResponse(p *Profile) profileResponse {
	return profileResponse{
		Email:       p.Email,
		CompanyName: p.CompanyName,
		AddressLine: p.AddressLine,
		City:        p.City,
		PostalCode:  p.PostalCode,
		Country:     p.Country,
		LogoURL:     p.LogoURL,
		TaxID:       p.TaxID,
		Currency:    p.Currency,
		Locale:      p.Locale,
		Timezone:    p.Timezone,
	}
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	p, err := h.service.GetProfile(r.Context(), ownerID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p, err := h.service.UpdateProfile(r.Context(), ownerID, ProfileInput{
		CompanyName: req.CompanyName,
		AddressLine: req.AddressLine,
		City:        req.City,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
		LogoURL:     req.LogoURL,
		TaxID:       req.TaxID,
		Currency:    req.Currency,
		Locale:      req.Locale,
		Timezone:    req.Timezone,
	})
	if err != nil {
		h.logger.Error("update profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfileResponse(p))
}
