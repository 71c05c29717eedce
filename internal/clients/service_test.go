package clients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryClientRepo struct {
	items       map[int64]*Client
	invoiceRefs map[int64]int
	nextID      int64
}

func newMemoryClientRepo() *memoryClientRepo {
	return &memoryClientRepo{items: make(map[int64]*Client), invoiceRefs: make(map[int64]int)}
}

func (r *memoryClientRepo) Create(ctx context.Context, ownerID int64, input ClientInput) (*Client, error) {
	r.nextID++
	c := &Client{ID: r.nextID, OwnerID: ownerID, Name: input.Name, ContactEmail: input.ContactEmail}
	r.items[c.ID] = c
	copied := *c
	return &copied, nil
}

func (r *memoryClientRepo) GetByID(ctx context.Context, ownerID, id int64) (*Client, error) {
	c, ok := r.items[id]
	if !ok || c.OwnerID != ownerID {
		return nil, ErrClientNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *memoryClientRepo) List(ctx context.Context, ownerID int64, page, perPage int) ([]Client, int, error) {
	var out []Client
	for _, c := range r.items {
		if c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (r *memoryClientRepo) Update(ctx context.Context, ownerID, id int64, input ClientInput) (*Client, error) {
	c, ok := r.items[id]
	if !ok || c.OwnerID != ownerID {
		return nil, ErrClientNotFound
	}
	c.Name = input.Name
	copied := *c
	return &copied, nil
}

func (r *memoryClientRepo) Delete(ctx context.Context, ownerID, id int64) error {
	c, ok := r.items[id]
	if !ok || c.OwnerID != ownerID {
		return ErrClientNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryClientRepo) CountInvoices(ctx context.Context, ownerID, id int64) (int, error) {
	return r.invoiceRefs[id], nil
}

func TestDeleteRejectedWhileReferenced(t *testing.T) {
	repo := newMemoryClientRepo()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, 1, ClientInput{Name: "Globex"})
	require.NoError(t, err)
	repo.invoiceRefs[c.ID] = 2

	err = svc.Delete(ctx, 1, c.ID)
	require.ErrorIs(t, err, ErrClientInUse)

	// Still there.
	_, err = svc.Get(ctx, 1, c.ID)
	require.NoError(t, err)

	repo.invoiceRefs[c.ID] = 0
	require.NoError(t, svc.Delete(ctx, 1, c.ID))
}

func TestClientOwnerScoping(t *testing.T) {
	svc := NewService(newMemoryClientRepo())
	ctx := context.Background()

	c, err := svc.Create(ctx, 1, ClientInput{Name: "Globex"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, 2, c.ID)
	require.ErrorIs(t, err, ErrClientNotFound)
	require.ErrorIs(t, svc.Delete(ctx, 2, c.ID), ErrClientNotFound)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemoryClientRepo())
	_, err := svc.Create(context.Background(), 1, ClientInput{Name: "  "})
	require.Error(t, err)
}
