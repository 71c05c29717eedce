package invoicing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paperbill/paperbill/internal/clients"
	"github.com/paperbill/paperbill/internal/mail"
	"github.com/paperbill/paperbill/internal/observability"
	"github.com/paperbill/paperbill/internal/platform/httpx"
	"github.com/paperbill/paperbill/internal/render"
	"github.com/paperbill/paperbill/internal/templates"
	"github.com/paperbill/paperbill/internal/users"
)

// RepositoryPort defines data access for invoices.
type RepositoryPort interface {
	Create(ctx context.Context, ownerID int64, input InvoiceInput) (*Invoice, error)
	GetByID(ctx context.Context, ownerID, id int64) (*Invoice, error)
	List(ctx context.Context, ownerID int64, filter ListFilter) ([]Invoice, int, error)
	Update(ctx context.Context, ownerID, id int64, input InvoiceInput) (*Invoice, error)
	UpdateStatus(ctx context.Context, ownerID, id int64, status InvoiceStatus) error
	Delete(ctx context.Context, ownerID, id int64) error
}

// TemplateSource resolves the template a document renders with.
type TemplateSource interface {
	Resolve(ctx context.Context, ownerID int64, templateID *int64) (*templates.Template, error)
}

// ClientSource looks up billed parties.
type ClientSource interface {
	Get(ctx context.Context, ownerID, id int64) (*clients.Client, error)
}

// ProfileSource looks up the issuing company profile.
type ProfileSource interface {
	GetProfile(ctx context.Context, ownerID int64) (*users.Profile, error)
}

// PDFRenderer converts a finished HTML document to PDF bytes.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html, css string) ([]byte, error)
}

// MailEnqueuer queues invoice emails for background delivery.
type MailEnqueuer interface {
	EnqueueInvoiceEmail(ctx context.Context, payload mail.Payload) error
}

// Service orchestrates invoice CRUD, totals computation and the render
// pipeline.
type Service struct {
	repo      RepositoryPort
	templates TemplateSource
	clients   ClientSource
	profiles  ProfileSource
	renderer  PDFRenderer
	enqueuer  MailEnqueuer
	metrics   *observability.Metrics
}

// NewService builds a Service instance.
func NewService(
	repo RepositoryPort,
	templateSource TemplateSource,
	clientSource ClientSource,
	profileSource ProfileSource,
	renderer PDFRenderer,
	enqueuer MailEnqueuer,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		repo:      repo,
		templates: templateSource,
		clients:   clientSource,
		profiles:  profileSource,
		renderer:  renderer,
		enqueuer:  enqueuer,
		metrics:   metrics,
	}
}

// Create validates and stores a new draft invoice.
func (s *Service) Create(ctx context.Context, ownerID int64, input InvoiceInput) (*Invoice, error) {
	if err := s.validateInput(ctx, ownerID, &input); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, ownerID, input)
}

// Get returns one invoice with recomputed totals, owner-scoped.
func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Invoice, Totals, error) {
	inv, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, Totals{}, err
	}
	totals := ComputeTotals(inv.Items, inv.TaxRatePercent, render.CurrencyScale(inv.Currency))
	return inv, totals, nil
}

// List returns a page of the owner's invoices.
func (s *Service) List(ctx context.Context, ownerID int64, filter ListFilter) ([]Invoice, int, error) {
	return s.repo.List(ctx, ownerID, filter)
}

// Update replaces a draft invoice. Invoices past draft are immutable.
func (s *Service) Update(ctx context.Context, ownerID, id int64, input InvoiceInput) (*Invoice, error) {
	current, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusDraft {
		return nil, ErrNotEditable
	}
	if err := s.validateInput(ctx, ownerID, &input); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, ownerID, id, input)
}

// Delete removes a draft invoice.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	current, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if current.Status != StatusDraft {
		return ErrNotEditable
	}
	return s.repo.Delete(ctx, ownerID, id)
}

// MarkPaid flips a sent invoice to paid.
func (s *Service) MarkPaid(ctx context.Context, ownerID, id int64) error {
	return s.transition(ctx, ownerID, id, StatusPaid, StatusSent)
}

// Void cancels a draft or sent invoice.
func (s *Service) Void(ctx context.Context, ownerID, id int64) error {
	return s.transition(ctx, ownerID, id, StatusVoid, StatusDraft, StatusSent)
}

func (s *Service) transition(ctx context.Context, ownerID, id int64, to InvoiceStatus, from ...InvoiceStatus) error {
	current, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	for _, allowed := range from {
		if current.Status == allowed {
			return s.repo.UpdateStatus(ctx, ownerID, id, to)
		}
	}
	return fmt.Errorf("%s to %s: %w", current.Status, to, ErrBadTransition)
}

// ExportPDF renders the invoice through the resolved template and returns
// the PDF bytes. Totals are recomputed from the line items on every render.
func (s *Service) ExportPDF(ctx context.Context, ownerID, id int64, templateID *int64) ([]byte, *Invoice, error) {
	inv, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	started := time.Now()
	pdf, err := s.renderInvoice(ctx, ownerID, inv, templateID)
	if s.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		s.metrics.ObserveRender(outcome, time.Since(started))
	}
	if err != nil {
		return nil, nil, err
	}
	return pdf, inv, nil
}

// SendInvoice renders the invoice, queues the email with the PDF attached
// and marks the invoice sent. Any failure before the enqueue leaves the
// invoice state untouched.
func (s *Service) SendInvoice(ctx context.Context, ownerID, id int64, templateID *int64, message string) error {
	inv, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if inv.Status == StatusPaid || inv.Status == StatusVoid {
		return fmt.Errorf("%s to %s: %w", inv.Status, StatusSent, ErrBadTransition)
	}
	if len(inv.Items) == 0 {
		return ErrNoLineItems
	}
	client, err := s.clients.Get(ctx, ownerID, inv.ClientID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(client.ContactEmail) == "" {
		return fmt.Errorf("client has no contact email: %w", httpx.ErrValidation)
	}
	profile, err := s.profiles.GetProfile(ctx, ownerID)
	if err != nil {
		return err
	}
	started := time.Now()
	pdf, err := s.renderInvoice(ctx, ownerID, inv, templateID)
	if s.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		s.metrics.ObserveRender(outcome, time.Since(started))
	}
	if err != nil {
		return err
	}
	payload := mail.BuildInvoicePayload(client.ContactEmail, inv.Number, profile.CompanyName, message, pdf)
	if err := s.enqueuer.EnqueueInvoiceEmail(ctx, payload); err != nil {
		return err
	}
	if inv.Status == StatusDraft {
		return s.repo.UpdateStatus(ctx, ownerID, id, StatusSent)
	}
	return nil
}

func (s *Service) renderInvoice(ctx context.Context, ownerID int64, inv *Invoice, templateID *int64) ([]byte, error) {
	tpl, err := s.templates.Resolve(ctx, ownerID, templateID)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.Get(ctx, ownerID, inv.ClientID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	totals := ComputeTotals(inv.Items, inv.TaxRatePercent, render.CurrencyScale(inv.Currency))
	doc, err := render.Bind(tpl.HTMLBody, render.BuildContext(buildRenderInput(inv, client, profile, totals)))
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderPDF(ctx, doc, tpl.CSSBody)
}

func buildRenderInput(inv *Invoice, client *clients.Client, profile *users.Profile, totals Totals) render.Input {
	items := make([]render.LineItemView, 0, len(inv.Items))
	for i, it := range inv.Items {
		items = append(items, render.LineItemView{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   totals.LineTotals[i],
		})
	}
	return render.Input{
		Company: render.CompanyView{
			Name:    profile.CompanyName,
			Address: profile.AddressLine,
			City:    profile.City,
			Postal:  profile.PostalCode,
			Country: profile.Country,
			LogoURL: profile.LogoURL,
			Email:   profile.Email,
			TaxID:   profile.TaxID,
		},
		Client: render.ClientView{
			Name:    client.Name,
			Address: client.AddressLine,
			City:    client.City,
			Postal:  client.PostalCode,
			Country: client.Country,
			Email:   client.ContactEmail,
		},
		Invoice: render.InvoiceView{
			Number:    inv.Number,
			IssueDate: inv.IssueDate,
			DueDate:   inv.DueDate,
			Notes:     inv.Notes,
			Terms:     inv.Terms,
			Status:    string(inv.Status),
		},
		Items: items,
		Totals: render.TotalsView{
			Subtotal:       totals.Subtotal,
			TaxRatePercent: inv.TaxRatePercent,
			TaxAmount:      totals.TaxAmount,
			Total:          totals.Total,
		},
		Currency: inv.Currency,
		Locale:   profile.Locale,
		Timezone: profile.Timezone,
	}
}

// generateNumber produces a number like INV-2026-9f3a2b1c when the caller
// left the field blank.
func generateNumber(issueDate time.Time) string {
	year := issueDate.Year()
	if year == 1 {
		year = time.Now().Year()
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("INV-%d-%s", year, suffix)
}

func (s *Service) validateInput(ctx context.Context, ownerID int64, input *InvoiceInput) error {
	input.Number = strings.TrimSpace(input.Number)
	if input.Number == "" {
		input.Number = generateNumber(input.IssueDate)
	}
	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	if len(input.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter ISO code: %w", httpx.ErrValidation)
	}
	if input.DueDate.Before(input.IssueDate) {
		return fmt.Errorf("due date precedes issue date: %w", httpx.ErrValidation)
	}
	if input.TaxRatePercent.IsNegative() {
		return fmt.Errorf("tax rate must not be negative: %w", httpx.ErrValidation)
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.Description) == "" {
			return fmt.Errorf("line %d: description is required: %w", i+1, httpx.ErrValidation)
		}
		if !item.Quantity.IsPositive() {
			return fmt.Errorf("line %d: quantity must be positive: %w", i+1, httpx.ErrValidation)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("line %d: unit price must not be negative: %w", i+1, httpx.ErrValidation)
		}
	}
	// the client must exist and belong to the owner
	if _, err := s.clients.Get(ctx, ownerID, input.ClientID); err != nil {
		return err
	}
	return nil
}
