package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"supermart/internal/domain"
	"supermart/internal/log"
	"supermart/internal/validate"
)

// ErrRestoreFailed means the line left the cart but its stock could not be
// put back. The cart mutation itself succeeded.
var ErrRestoreFailed = errors.New("stock restore failed")

// ErrLineLimit means the line already holds validate.MaxQty units.
var ErrLineLimit = errors.New("cart line limit reached")

// CartService couples cart mutations to stock reservations: units leave the
// shelf when they enter a cart and return when they leave it without checkout.
type CartService struct {
	Products ProductStore
	Metrics  Recorder
}

func NewCartService(products ProductStore, m Recorder) *CartService {
	if m == nil {
		m = nopRecorder{}
	}
	return &CartService{Products: products, Metrics: m}
}

type CartViewLine struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	ImageRef  string
	Quantity  int
	LineTotal decimal.Decimal
	Live      bool // false when the product is gone and snapshot fields are shown
}

type CartView struct {
	Lines []CartViewLine
	Units int
	Total decimal.Decimal
}

func (v CartView) Empty() bool { return len(v.Lines) == 0 }

// Add reserves qty units of productID and merges them into cart. The merged
// line is capped at validate.MaxQty; only the units that fit are reserved.
func (s *CartService) Add(ctx context.Context, cart *domain.Cart, productID int64, qty int) error {
	if qty <= 0 {
		qty = 1
	}
	room := validate.MaxQty - cart.Quantity(productID)
	if room <= 0 {
		return ErrLineLimit
	}
	if qty > room {
		qty = room
	}
	p, err := s.Products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if qty > p.Quantity {
		s.Metrics.Reservation("refused")
		return &domain.StockError{ProductID: productID, Requested: qty, Available: p.Quantity}
	}
	if err := s.Products.Reserve(ctx, productID, qty); err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.Metrics.Reservation("refused")
		}
		return err
	}
	s.Metrics.Reservation("reserved")
	cart.Add(domain.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageRef:  p.ImageRef,
		Quantity:  qty,
	})
	return nil
}

// Update sets the line quantity, reserving or releasing only the difference.
// A quantity of zero removes the line.
func (s *CartService) Update(ctx context.Context, cart *domain.Cart, productID int64, newQty int) error {
	line, ok := cart.Line(productID)
	if !ok {
		return domain.ErrNotInCart
	}
	if newQty <= 0 {
		return s.Remove(ctx, cart, productID)
	}
	delta := newQty - line.Quantity
	switch {
	case delta > 0:
		if err := s.Products.Reserve(ctx, productID, delta); err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				s.Metrics.Reservation("refused")
			}
			return err
		}
		s.Metrics.Reservation("reserved")
	case delta < 0:
		if err := s.Products.Release(ctx, productID, -delta); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		s.Metrics.Reservation("released")
	}
	cart.SetQuantity(productID, newQty)
	return nil
}

// Remove drops the line and restores its stock. The line is removed even when
// the restore fails; that case returns ErrRestoreFailed.
func (s *CartService) Remove(ctx context.Context, cart *domain.Cart, productID int64) error {
	line, ok := cart.Remove(productID)
	if !ok {
		return domain.ErrNotInCart
	}
	err := s.Products.Release(ctx, productID, line.Quantity)
	switch {
	case err == nil:
		s.Metrics.Reservation("released")
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		log.Error(nil, "cart.restore.fail", err, map[string]any{"product_id": productID, "qty": line.Quantity})
		return errors.Join(ErrRestoreFailed, err)
	}
}

// Abandon releases every line, used when a session ends without checkout.
// Lines are dropped even if a restore fails.
func (s *CartService) Abandon(ctx context.Context, cart *domain.Cart) error {
	var errs []error
	for len(cart.Lines) > 0 {
		if err := s.Remove(ctx, cart, cart.Lines[0].ProductID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear empties the cart without touching stock.
func (s *CartService) Clear(cart *domain.Cart) { cart.Clear() }

// List joins cart lines with live catalog data. Vanished products fall back to
// the snapshot taken when the line was added.
func (s *CartService) List(ctx context.Context, cart *domain.Cart) (CartView, error) {
	view := CartView{Total: decimal.Zero}
	for _, l := range cart.Lines {
		vl := CartViewLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			ImageRef:  l.ImageRef,
			Quantity:  l.Quantity,
		}
		p, err := s.Products.Get(ctx, l.ProductID)
		switch {
		case err == nil:
			vl.Name, vl.UnitPrice, vl.ImageRef, vl.Live = p.Name, p.Price, p.ImageRef, true
		case errors.Is(err, domain.ErrNotFound):
		default:
			return CartView{}, domain.StoreErr("cart list", err)
		}
		vl.LineTotal = vl.UnitPrice.Mul(decimal.NewFromInt(int64(vl.Quantity)))
		view.Total = view.Total.Add(vl.LineTotal)
		view.Units += vl.Quantity
		view.Lines = append(view.Lines, vl)
	}
	view.Total = view.Total.Round(2)
	return view, nil
}
