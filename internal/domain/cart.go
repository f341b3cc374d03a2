package domain

import "github.com/shopspring/decimal"

// CartLine holds a reserved quantity plus the product fields seen at add time.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref,omitempty"`
	Quantity  int             `json:"quantity"`
}

// Cart is ordered by first insertion and unique by product id.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

func (c *Cart) index(productID int64) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Line returns a copy of the line for productID.
func (c *Cart) Line(productID int64) (CartLine, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

// Add merges line into an existing entry by summing quantities. The existing
// snapshot fields win.
func (c *Cart) Add(line CartLine) {
	if i := c.index(line.ProductID); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		return
	}
	c.Lines = append(c.Lines, line)
}

// SetQuantity overwrites the quantity of an existing line.
func (c *Cart) SetQuantity(productID int64, qty int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.Lines[i].Quantity = qty
	return true
}

func (c *Cart) Remove(productID int64) (CartLine, bool) {
	i := c.index(productID)
	if i < 0 {
		return CartLine{}, false
	}
	line := c.Lines[i]
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return line, true
}

func (c *Cart) Clear() { c.Lines = nil }

func (c *Cart) Empty() bool { return len(c.Lines) == 0 }

// Quantity is the reserved quantity for productID, zero when absent.
func (c *Cart) Quantity(productID int64) int {
	if l, ok := c.Line(productID); ok {
		return l.Quantity
	}
	return 0
}

// Units is the total number of units across all lines.
func (c *Cart) Units() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Total is the snapshot line total.
func (l CartLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
