package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newCartFixture(t *testing.T) (*CartService, *orderFixture) {
	t.Helper()
	f := newOrderFixture(t)
	return NewCartService(f.stores), f
}

func TestAddOrIncrement(t *testing.T) {
	svc, f := newCartFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Router", 1200)

	require.NoError(t, svc.AddOrIncrement(ctx, f.buyer.ID, p.ID, 1))
	require.NoError(t, svc.AddOrIncrement(ctx, f.buyer.ID, p.ID, 2))

	item, err := f.stores.Carts.Find(ctx, f.buyer.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
}

func TestAddOrIncrementUnknownProduct(t *testing.T) {
	svc, f := newCartFixture(t)
	err := svc.AddOrIncrement(context.Background(), f.buyer.ID, primitive.NewObjectID(), 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetQuantityRejectsBelowOne(t *testing.T) {
	svc, f := newCartFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Printer", 3500)
	require.NoError(t, svc.AddOrIncrement(ctx, f.buyer.ID, p.ID, 2))

	err := svc.SetQuantity(ctx, f.buyer.ID, p.ID, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	item, err := f.stores.Carts.Find(ctx, f.buyer.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity, "la quantité précédente doit rester intacte")
}

func TestSetQuantityUnknownLine(t *testing.T) {
	svc, f := newCartFixture(t)
	p := f.addProduct(t, "Scanner", 2100)
	err := svc.SetQuantity(context.Background(), f.buyer.ID, p.ID, 2)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemove(t *testing.T) {
	svc, f := newCartFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Mouse", 350)
	require.NoError(t, svc.AddOrIncrement(ctx, f.buyer.ID, p.ID, 1))

	require.NoError(t, svc.Remove(ctx, f.buyer.ID, p.ID))
	err := svc.Remove(ctx, f.buyer.ID, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListJoinsProductAndSeller(t *testing.T) {
	svc, f := newCartFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Bookshelf", 1500)
	require.NoError(t, svc.AddOrIncrement(ctx, f.buyer.ID, p.ID, 1))

	entries, err := svc.List(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Bookshelf", entries[0].Product.Name)
	assert.Equal(t, f.seller.Email, entries[0].Seller.Email)
}

func TestContains(t *testing.T) {
	svc, f := newCartFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Keyboard", 900)

	in, err := svc.Contains(ctx, f.buyer.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, in)

	require.NoError(t, svc.AddOrIncrement(ctx, f.buyer.ID, p.ID, 1))
	in, err = svc.Contains(ctx, f.buyer.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, in)
}
