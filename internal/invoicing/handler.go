package invoicing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/paperbill/paperbill/internal/platform/httpx"
	"github.com/paperbill/paperbill/internal/shared"
)

// Handler manages invoice endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/paid", h.markPaid)
	r.Post("/{id}/void", h.void)
	r.Get("/{id}/pdf", h.exportPDF)
	r.Post("/{id}/send", h.send)
}

type lineItemRequest struct {
	Description string `json:"description" validate:"required,max=500"`
	Quantity    string `json:"quantity" validate:"required"`
	UnitPrice   string `json:"unit_price" validate:"required"`
}

type invoiceRequest struct {
	ClientID  int64             `json:"client_id" validate:"required"`
	Number    string            `json:"number" validate:"max=50"`
	IssueDate string            `json:"issue_date" validate:"required"`
	DueDate   string            `json:"due_date" validate:"required"`
	Currency  string            `json:"currency" validate:"required,len=3"`
	TaxRate   string            `json:"tax_rate"`
	Notes     string            `json:"notes" validate:"max=2000"`
	Terms     string            `json:"terms" validate:"max=2000"`
	Items     []lineItemRequest `json:"items" validate:"dive"`
}

type sendRequest struct {
	TemplateID *int64 `json:"template_id"`
	Message    string `json:"message" validate:"max=2000"`
}

type lineItemResponse struct {
	Position    int    `json:"position"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type totalsResponse struct {
	LineTotals []string `json:"line_totals"`
	Subtotal   string   `json:"subtotal"`
	TaxAmount  string   `json:"tax_amount"`
	Total      string   `json:"total"`
}

type invoiceResponse struct {
	ID        int64              `json:"id"`
	ClientID  int64              `json:"client_id"`
	Number    string             `json:"number"`
	IssueDate string             `json:"issue_date"`
	DueDate   string             `json:"due_date"`
	Currency  string             `json:"currency"`
	TaxRate   string             `json:"tax_rate"`
	Notes     string             `json:"notes,omitempty"`
	Terms     string             `json:"terms,omitempty"`
	Status    string             `json:"status"`
	Items     []lineItemResponse `json:"items,omitempty"`
	Totals    *totalsResponse    `json:"totals,omitempty"`
}

const dateLayout = "2006-01-02"

func (req invoiceRequest) toInput() (InvoiceInput, error) {
	issue, err := time.Parse(dateLayout, req.IssueDate)
	if err != nil {
		return InvoiceInput{}, fmt.Errorf("issue_date must be YYYY-MM-DD: %w", httpx.ErrValidation)
	}
	due, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		return InvoiceInput{}, fmt.Errorf("due_date must be YYYY-MM-DD: %w", httpx.ErrValidation)
	}
	taxRate := decimal.Zero
	if req.TaxRate != "" {
		taxRate, err = decimal.NewFromString(req.TaxRate)
		if err != nil {
			return InvoiceInput{}, fmt.Errorf("tax_rate must be a decimal: %w", httpx.ErrValidation)
		}
	}
	items := make([]LineItemInput, 0, len(req.Items))
	for i, item := range req.Items {
		qty, err := decimal.NewFromString(item.Quantity)
		if err != nil {
			return InvoiceInput{}, fmt.Errorf("line %d: quantity must be a decimal: %w", i+1, httpx.ErrValidation)
		}
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return InvoiceInput{}, fmt.Errorf("line %d: unit_price must be a decimal: %w", i+1, httpx.ErrValidation)
		}
		items = append(items, LineItemInput{Description: item.Description, Quantity: qty, UnitPrice: price})
	}
	return InvoiceInput{
		ClientID:       req.ClientID,
		Number:         req.Number,
		IssueDate:      issue,
		DueDate:        due,
		Currency:       req.Currency,
		TaxRatePercent: taxRate,
		Notes:          req.Notes,
		Terms:          req.Terms,
		Items:          items,
	}, nil
}

func toInvoiceResponse(inv *Invoice, totals *Totals) invoiceResponse {
	resp := invoiceResponse{
		ID:        inv.ID,
		ClientID:  inv.ClientID,
		Number:    inv.Number,
		IssueDate: inv.IssueDate.Format(dateLayout),
		DueDate:   inv.DueDate.Format(dateLayout),
		Currency:  inv.Currency,
		TaxRate:   inv.TaxRatePercent.String(),
		Notes:     inv.Notes,
		Terms:     inv.Terms,
		Status:    string(inv.Status),
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, lineItemResponse{
			Position:    item.Position,
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitPrice:   item.UnitPrice.String(),
		})
	}
	if totals != nil {
		tr := totalsResponse{
			Subtotal:  totals.Subtotal.String(),
			TaxAmount: totals.TaxAmount.String(),
			Total:     totals.Total.String(),
		}
		for _, lt := range totals.LineTotals {
			tr.LineTotals = append(tr.LineTotals, lt.String())
		}
		resp.Totals = &tr
	}
	return resp
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	page, perPage := shared.PageParams(r)
	filter := ListFilter{
		Status:  InvoiceStatus(r.URL.Query().Get("status")),
		Page:    page,
		PerPage: perPage,
	}
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client_id filter")
			return
		}
		filter.ClientID = id
	}
	items, total, err := h.service.List(r.Context(), ownerID, filter)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]invoiceResponse, 0, len(items))
	for i := range items {
		out = append(out, toInvoiceResponse(&items[i], nil))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      out,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	var req invoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Create(r.Context(), ownerID, input)
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toInvoiceResponse(inv, nil))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	inv, totals, err := h.service.Get(r.Context(), ownerID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(inv, &totals))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req invoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Update(r.Context(), ownerID, id, input)
	if err != nil {
		h.logger.Error("update invoice", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(inv, nil))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), ownerID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.service.MarkPaid)
}

func (h *Handler) void(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, h.service.Void)
}

func (h *Handler) statusChange(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, ownerID, id int64) error) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), ownerID, id); err != nil {
		h.logger.Error("invoice status change", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exportPDF(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	templateID, ok := h.parseTemplateID(w, r)
	if !ok {
		return
	}
	pdf, inv, err := h.service.ExportPDF(r.Context(), ownerID, id, templateID)
	if err != nil {
		h.logger.Error("export invoice pdf", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.PDF(w, inv.Number+".pdf", pdf)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := shared.OwnerIDFromContext(r.Context())
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	var req sendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && r.ContentLength > 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.SendInvoice(r.Context(), ownerID, id, req.TemplateID, req.Message); err != nil {
		h.logger.Error("send invoice", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": string(StatusSent)})
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invoice id")
		return 0, false
	}
	return id, true
}

func (h *Handler) parseTemplateID(w http.ResponseWriter, r *http.Request) (*int64, bool) {
	raw := r.URL.Query().Get("template_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid template_id")
		return nil, false
	}
	return &id, true
}
