package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supermart/internal/domain"
	"supermart/internal/repos"
	"supermart/internal/services"
	"supermart/internal/validate"
)

func stock(t *testing.T, products *repos.ProductRepo, id int64) int {
	t.Helper()
	p, err := products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

func TestCartScenario(t *testing.T) {
	db := memdb(t)
	products := repos.NewProductRepo(db)
	svc := services.NewCartService(products, nil)
	ctx := context.Background()
	id := newProduct(t, db, "Cherries", "6.00", 5)
	var cart domain.Cart

	require.NoError(t, svc.Add(ctx, &cart, id, 3))
	assert.Equal(t, 2, stock(t, products, id))
	assert.Equal(t, 3, cart.Quantity(id))

	err := svc.Add(ctx, &cart, id, 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, stock(t, products, id))
	assert.Equal(t, 3, cart.Quantity(id))

	require.NoError(t, svc.Update(ctx, &cart, id, 1))
	assert.Equal(t, 4, stock(t, products, id))
	assert.Equal(t, 1, cart.Quantity(id))

	require.NoError(t, svc.Remove(ctx, &cart, id))
	assert.Equal(t, 5, stock(t, products, id))
	assert.True(t, cart.Empty())
}

func TestCartAddCapsMergedLine(t *testing.T) {
	db := memdb(t)
	products := repos.NewProductRepo(db)
	svc := services.NewCartService(products, nil)
	ctx := context.Background()
	id := newProduct(t, db, "Rice", "2.00", 200)
	var cart domain.Cart

	require.NoError(t, svc.Add(ctx, &cart, id, 30))
	require.NoError(t, svc.Add(ctx, &cart, id, 30))
	assert.Equal(t, validate.MaxQty, cart.Quantity(id))
	assert.Equal(t, 200-validate.MaxQty, stock(t, products, id))

	assert.ErrorIs(t, svc.Add(ctx, &cart, id, 1), services.ErrLineLimit)
	assert.Equal(t, 200-validate.MaxQty, stock(t, products, id))

	// updating to the current quantity is a no-op
	require.NoError(t, svc.Update(ctx, &cart, id, validate.NewQty("50")))
	assert.Equal(t, validate.MaxQty, cart.Quantity(id))
	assert.Equal(t, 200-validate.MaxQty, stock(t, products, id))
}

func TestCartConservation(t *testing.T) {
	db := memdb(t)
	products := repos.NewProductRepo(db)
	svc := services.NewCartService(products, nil)
	ctx := context.Background()
	a := newProduct(t, db, "Pears", "0.90", 10)
	b := newProduct(t, db, "Plums", "1.10", 4)
	var cart domain.Cart

	check := func() {
		t.Helper()
		assert.Equal(t, 10, stock(t, products, a)+cart.Quantity(a))
		assert.Equal(t, 4, stock(t, products, b)+cart.Quantity(b))
	}

	steps := []func() error{
		func() error { return svc.Add(ctx, &cart, a, 4) },
		func() error { return svc.Add(ctx, &cart, b, 4) },
		func() error { return svc.Add(ctx, &cart, b, 1) },
		func() error { return svc.Update(ctx, &cart, a, 9) },
		func() error { return svc.Update(ctx, &cart, a, 11) },
		func() error { return svc.Update(ctx, &cart, b, 0) },
		func() error { return svc.Add(ctx, &cart, a, 1) },
		func() error { return svc.Remove(ctx, &cart, a) },
		func() error { return svc.Remove(ctx, &cart, a) },
	}
	for _, step := range steps {
		_ = step()
		check()
	}
	assert.True(t, cart.Empty())
}

func TestCartClearKeepsStock(t *testing.T) {
	db := memdb(t)
	products := repos.NewProductRepo(db)
	svc := services.NewCartService(products, nil)
	id := newProduct(t, db, "Kiwi", "0.50", 8)
	var cart domain.Cart

	require.NoError(t, svc.Add(context.Background(), &cart, id, 3))
	svc.Clear(&cart)
	assert.True(t, cart.Empty())
	assert.Equal(t, 5, stock(t, products, id))
}

func TestCartUpdateAndRemoveMissingLine(t *testing.T) {
	db := memdb(t)
	svc := services.NewCartService(repos.NewProductRepo(db), nil)
	var cart domain.Cart
	assert.ErrorIs(t, svc.Update(context.Background(), &cart, 1, 2), domain.ErrNotInCart)
	assert.ErrorIs(t, svc.Remove(context.Background(), &cart, 1), domain.ErrNotInCart)
	assert.ErrorIs(t, svc.Add(context.Background(), &cart, 9999, 1), domain.ErrNotFound)
}

func TestCartConcurrentAddsNeverOversell(t *testing.T) {
	db := memdb(t)
	products := repos.NewProductRepo(db)
	svc := services.NewCartService(products, nil)
	const k, n = 7, 25
	id := newProduct(t, db, "Mangoes", "2.00", k)

	var ok, refused atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var cart domain.Cart // every shopper has their own session
			err := svc.Add(context.Background(), &cart, id, 1)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				refused.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(k), ok.Load())
	assert.Equal(t, int32(n-k), refused.Load())
	assert.Equal(t, 0, stock(t, products, id))
}

type failingRelease struct {
	services.ProductStore
}

func (failingRelease) Release(context.Context, int64, int) error {
	return errors.New("database is locked")
}

func TestCartRemoveStillDropsLineWhenRestoreFails(t *testing.T) {
	db := memdb(t)
	products := repos.NewProductRepo(db)
	id := newProduct(t, db, "Lemons", "0.70", 6)
	var cart domain.Cart
	require.NoError(t, services.NewCartService(products, nil).Add(context.Background(), &cart, id, 2))

	svc := services.NewCartService(failingRelease{products}, nil)
	err := svc.Remove(context.Background(), &cart, id)
	assert.ErrorIs(t, err, services.ErrRestoreFailed)
	assert.True(t, cart.Empty())
	assert.Equal(t, 4, stock(t, products, id))
}

func TestCartListFallsBackToSnapshot(t *testing.T) {
	db := memdb(t)
	products := repos.NewProductRepo(db)
	svc := services.NewCartService(products, nil)
	ctx := context.Background()
	live := newProduct(t, db, "Oranges", "1.00", 10)
	gone := newProduct(t, db, "Dates", "3.333", 10)
	var cart domain.Cart
	require.NoError(t, svc.Add(ctx, &cart, live, 2))
	require.NoError(t, svc.Add(ctx, &cart, gone, 3))

	p, _ := products.Get(ctx, live)
	p.Price = decimal.RequireFromString("1.25")
	require.NoError(t, products.Update(ctx, p))
	require.NoError(t, products.Delete(ctx, gone))

	view, err := svc.List(ctx, &cart)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.True(t, view.Lines[0].Live)
	assert.True(t, view.Lines[0].LineTotal.Equal(decimal.RequireFromString("2.5")))
	assert.False(t, view.Lines[1].Live)
	assert.Equal(t, "Dates", view.Lines[1].Name)
	// 2.50 + 3 * 3.333 = 12.499 -> 12.50
	assert.Equal(t, "12.50", view.Total.StringFixed(2))
	assert.Equal(t, 5, view.Units)

	// snapshot price is kept in the cart itself
	l, _ := cart.Line(live)
	assert.True(t, l.UnitPrice.Equal(decimal.RequireFromString("1")))
}
