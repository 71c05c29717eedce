package invoicing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/paperbill/paperbill/internal/clients"
	"github.com/paperbill/paperbill/internal/mail"
	"github.com/paperbill/paperbill/internal/platform/httpx"
	"github.com/paperbill/paperbill/internal/templates"
	"github.com/paperbill/paperbill/internal/users"
)

type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	data   map[int64]*Invoice
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{data: map[int64]*Invoice{}}
}

func (m *memoryRepo) materialize(ownerID int64, input InvoiceInput) *Invoice {
	m.nextID++
	inv := &Invoice{
		ID:             m.nextID,
		OwnerID:        ownerID,
		ClientID:       input.ClientID,
		Number:         input.Number,
		IssueDate:      input.IssueDate,
		DueDate:        input.DueDate,
		Currency:       input.Currency,
		TaxRatePercent: input.TaxRatePercent,
		Notes:          input.Notes,
		Terms:          input.Terms,
		Status:         StatusDraft,
	}
	for i, item := range input.Items {
		inv.Items = append(inv.Items, LineItem{
			ID: int64(i + 1), InvoiceID: inv.ID, Position: i + 1,
			Description: item.Description, Quantity: item.Quantity, UnitPrice: item.UnitPrice,
		})
	}
	return inv
}

func (m *memoryRepo) Create(_ context.Context, ownerID int64, input InvoiceInput) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.data {
		if inv.OwnerID == ownerID && inv.Number == input.Number {
			return nil, ErrNumberTaken
		}
	}
	inv := m.materialize(ownerID, input)
	m.data[inv.ID] = inv
	copied := *inv
	return &copied, nil
}

func (m *memoryRepo) GetByID(_ context.Context, ownerID, id int64) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.data[id]
	if !ok || inv.OwnerID != ownerID {
		return nil, ErrInvoiceNotFound
	}
	copied := *inv
	return &copied, nil
}

func (m *memoryRepo) List(_ context.Context, ownerID int64, filter ListFilter) ([]Invoice, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Invoice
	for _, inv := range m.data {
		if inv.OwnerID != ownerID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.ClientID != 0 && inv.ClientID != filter.ClientID {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Update(_ context.Context, ownerID, id int64, input InvoiceInput) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.data[id]
	if !ok || current.OwnerID != ownerID {
		return nil, ErrInvoiceNotFound
	}
	inv := m.materialize(ownerID, input)
	inv.ID = id
	inv.Status = current.Status
	m.data[id] = inv
	copied := *inv
	return &copied, nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, ownerID, id int64, status InvoiceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.data[id]
	if !ok || inv.OwnerID != ownerID {
		return ErrInvoiceNotFound
	}
	inv.Status = status
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, ownerID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.data[id]
	if !ok || inv.OwnerID != ownerID {
		return ErrInvoiceNotFound
	}
	delete(m.data, id)
	return nil
}

type fakeTemplates struct {
	tpl *templates.Template
	err error
}

func (f *fakeTemplates) Resolve(context.Context, int64, *int64) (*templates.Template, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tpl, nil
}

type fakeClients struct {
	client *clients.Client
}

func (f *fakeClients) Get(_ context.Context, ownerID, id int64) (*clients.Client, error) {
	if f.client == nil || f.client.OwnerID != ownerID || f.client.ID != id {
		return nil, clients.ErrClientNotFound
	}
	return f.client, nil
}

type fakeProfiles struct {
	profile *users.Profile
}

func (f *fakeProfiles) GetProfile(context.Context, int64) (*users.Profile, error) {
	return f.profile, nil
}

type fakeRenderer struct {
	lastHTML string
	lastCSS  string
	fail     error
}

func (f *fakeRenderer) RenderPDF(_ context.Context, html, css string) ([]byte, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.lastHTML = html
	f.lastCSS = css
	return []byte("%PDF-1.7 " + html), nil
}

type fakeEnqueuer struct {
	got  []mail.Payload
	fail error
}

func (f *fakeEnqueuer) EnqueueInvoiceEmail(_ context.Context, payload mail.Payload) error {
	if f.fail != nil {
		return f.fail
	}
	f.got = append(f.got, payload)
	return nil
}

type fixture struct {
	repo     *memoryRepo
	tpls     *fakeTemplates
	clients  *fakeClients
	profiles *fakeProfiles
	renderer *fakeRenderer
	enqueuer *fakeEnqueuer
	service  *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo: newMemoryRepo(),
		tpls: &fakeTemplates{tpl: &templates.Template{
			ID:       7,
			HTMLBody: `<h1>{{invoiceNumber}}</h1><p>{{clientName}}</p><table>{{#each items}}<tr><td>{{description}}</td><td>{{total}}</td></tr>{{/each}}</table><b>{{total}}</b>`,
			CSSBody:  "body { font-family: sans-serif; }",
		}},
		clients: &fakeClients{client: &clients.Client{
			ID: 3, OwnerID: 1, Name: "Globex", ContactEmail: "billing@globex.test",
		}},
		profiles: &fakeProfiles{profile: &users.Profile{
			OwnerID: 1, CompanyName: "Acme Ltd", Currency: "USD", Locale: "en", Timezone: "UTC",
			Email: "owner@acme.test",
		}},
		renderer: &fakeRenderer{},
		enqueuer: &fakeEnqueuer{},
	}
	f.service = NewService(f.repo, f.tpls, f.clients, f.profiles, f.renderer, f.enqueuer, nil)
	return f
}

func baseInput() InvoiceInput {
	return InvoiceInput{
		ClientID:       3,
		Number:         "INV-2026-0001",
		IssueDate:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Currency:       "USD",
		TaxRatePercent: decimal.RequireFromString("8.25"),
		Items: []LineItemInput{
			{Description: "Design work", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.RequireFromString("30.00")},
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("49.99")},
		},
	}
}

func TestCreateAndGetRecomputesTotals(t *testing.T) {
	f := newFixture()
	inv, err := f.service.Create(context.Background(), 1, baseInput())
	require.NoError(t, err)

	got, totals, err := f.service.Get(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	require.Equal(t, "349.99", totals.Subtotal.String())
	require.Equal(t, "28.87", totals.TaxAmount.String())
	require.Equal(t, "378.86", totals.Total.String())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bad := baseInput()
	bad.DueDate = bad.IssueDate.AddDate(0, 0, -1)
	_, err := f.service.Create(ctx, 1, bad)
	require.ErrorIs(t, err, httpx.ErrValidation)

	bad = baseInput()
	bad.TaxRatePercent = decimal.RequireFromString("-1")
	_, err = f.service.Create(ctx, 1, bad)
	require.ErrorIs(t, err, httpx.ErrValidation)

	bad = baseInput()
	bad.Items[0].Quantity = decimal.Zero
	_, err = f.service.Create(ctx, 1, bad)
	require.ErrorIs(t, err, httpx.ErrValidation)

	bad = baseInput()
	bad.ClientID = 999
	_, err = f.service.Create(ctx, 1, bad)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateGeneratesNumberWhenBlank(t *testing.T) {
	f := newFixture()
	input := baseInput()
	input.Number = "  "
	inv, err := f.service.Create(context.Background(), 1, input)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(inv.Number, "INV-2026-"), inv.Number)
}

func TestUpdateRejectedOncePastDraft(t *testing.T) {
	f := newFixture()
	inv, err := f.service.Create(context.Background(), 1, baseInput())
	require.NoError(t, err)
	require.NoError(t, f.repo.UpdateStatus(context.Background(), 1, inv.ID, StatusSent))

	_, err = f.service.Update(context.Background(), 1, inv.ID, baseInput())
	require.ErrorIs(t, err, ErrNotEditable)
	require.ErrorIs(t, err, httpx.ErrConflict)

	err = f.service.Delete(context.Background(), 1, inv.ID)
	require.ErrorIs(t, err, ErrNotEditable)
}

func TestCrossOwnerAccessReadsAsNotFound(t *testing.T) {
	f := newFixture()
	inv, err := f.service.Create(context.Background(), 1, baseInput())
	require.NoError(t, err)

	_, _, err = f.service.Get(context.Background(), 2, inv.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	inv, err := f.service.Create(ctx, 1, baseInput())
	require.NoError(t, err)

	// draft cannot go straight to paid
	require.ErrorIs(t, f.service.MarkPaid(ctx, 1, inv.ID), ErrBadTransition)

	require.NoError(t, f.repo.UpdateStatus(ctx, 1, inv.ID, StatusSent))
	require.NoError(t, f.service.MarkPaid(ctx, 1, inv.ID))

	// paid is terminal
	require.ErrorIs(t, f.service.Void(ctx, 1, inv.ID), ErrBadTransition)
}

func TestExportPDFBindsTemplateWithFormattedTotals(t *testing.T) {
	f := newFixture()
	inv, err := f.service.Create(context.Background(), 1, baseInput())
	require.NoError(t, err)

	pdf, got, err := f.service.ExportPDF(context.Background(), 1, inv.ID, nil)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	require.Equal(t, inv.ID, got.ID)
	require.Contains(t, f.renderer.lastHTML, "INV-2026-0001")
	require.Contains(t, f.renderer.lastHTML, "Globex")
	require.Contains(t, f.renderer.lastHTML, "378.86")
	require.Contains(t, f.renderer.lastHTML, "Design work")
	require.Equal(t, f.tpls.tpl.CSSBody, f.renderer.lastCSS)
}

func TestSendRequiresLineItems(t *testing.T) {
	f := newFixture()
	input := baseInput()
	input.Items = nil
	inv, err := f.service.Create(context.Background(), 1, input)
	require.NoError(t, err)

	err = f.service.SendInvoice(context.Background(), 1, inv.ID, nil, "")
	require.ErrorIs(t, err, ErrNoLineItems)

	got, _, err := f.service.Get(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, got.Status)
	require.Empty(t, f.enqueuer.got)
}

func TestSendMarksSentAfterEnqueue(t *testing.T) {
	f := newFixture()
	inv, err := f.service.Create(context.Background(), 1, baseInput())
	require.NoError(t, err)

	require.NoError(t, f.service.SendInvoice(context.Background(), 1, inv.ID, nil, "Thanks for your business"))

	require.Len(t, f.enqueuer.got, 1)
	payload := f.enqueuer.got[0]
	require.Equal(t, "billing@globex.test", payload.To)
	require.Contains(t, payload.Subject, "INV-2026-0001")
	require.Contains(t, payload.Subject, "Acme Ltd")
	require.NotEmpty(t, payload.Attachment)

	got, _, err := f.service.Get(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, got.Status)
}

func TestSendLeavesStatusOnRenderFailure(t *testing.T) {
	f := newFixture()
	inv, err := f.service.Create(context.Background(), 1, baseInput())
	require.NoError(t, err)

	f.renderer.fail = httpx.ErrRenderFailed
	err = f.service.SendInvoice(context.Background(), 1, inv.ID, nil, "")
	require.ErrorIs(t, err, httpx.ErrRenderFailed)

	got, _, err := f.service.Get(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, got.Status)
	require.Empty(t, f.enqueuer.got)
}

func TestSendLeavesStatusOnEnqueueFailure(t *testing.T) {
	f := newFixture()
	inv, err := f.service.Create(context.Background(), 1, baseInput())
	require.NoError(t, err)

	f.enqueuer.fail = errors.New("redis down")
	err = f.service.SendInvoice(context.Background(), 1, inv.ID, nil, "")
	require.Error(t, err)

	got, _, err := f.service.Get(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, got.Status)
}

func TestSendRejectedForPaidAndVoid(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	inv, err := f.service.Create(ctx, 1, baseInput())
	require.NoError(t, err)
	require.NoError(t, f.repo.UpdateStatus(ctx, 1, inv.ID, StatusPaid))

	err = f.service.SendInvoice(ctx, 1, inv.ID, nil, "")
	require.ErrorIs(t, err, ErrBadTransition)
}

func TestSendWithMissingDefaultTemplate(t *testing.T) {
	f := newFixture()
	f.tpls.err = templates.ErrTemplateNotFound
	inv, err := f.service.Create(context.Background(), 1, baseInput())
	require.NoError(t, err)

	err = f.service.SendInvoice(context.Background(), 1, inv.ID, nil, "")
	require.ErrorIs(t, err, httpx.ErrNotFound)

	got, _, err := f.service.Get(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, got.Status)
}
