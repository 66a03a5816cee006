package burger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownIngredient = errors.New("unknown ingredient")
	ErrNegativeQuantity  = errors.New("ingredient quantity must not be negative")
	ErrQuantityTooLarge  = fmt.Errorf("ingredient quantity must not exceed %d", MaxQuantity)
	ErrInvalidMenu       = errors.New("invalid menu")
)

// PriceScale is the number of decimal places prices are stored with.
const PriceScale = 2

// MaxQuantity caps a single ingredient on one burger.
const MaxQuantity = 100

const (
	Salad  = "salad"
	Bacon  = "bacon"
	Cheese = "cheese"
	Meat   = "meat"
)

// Menu is the price table an order is built against. Names keeps the
// canonical ingredient order used when encoding selections.
type Menu struct {
	BasePrice decimal.Decimal
	Prices    map[string]decimal.Decimal
	Names     []string
}

func DefaultMenu() *Menu {
	return &Menu{
		BasePrice: decimal.NewFromInt(4),
		Prices: map[string]decimal.Decimal{
			Salad:  decimal.RequireFromString("0.5"),
			Bacon:  decimal.RequireFromString("0.7"),
			Cheese: decimal.RequireFromString("0.4"),
			Meat:   decimal.RequireFromString("1.3"),
		},
		Names: []string{Salad, Bacon, Cheese, Meat},
	}
}

// NewMenu builds a menu from string prices. Ingredients in order come first,
// in that order; any remaining priced ingredients follow alphabetically.
func NewMenu(basePrice string, prices map[string]string, order []string) (*Menu, error) {
	base, err := decimal.NewFromString(basePrice)
	if err != nil {
		return nil, fmt.Errorf("%w: base price %q: %v", ErrInvalidMenu, basePrice, err)
	}
	if base.IsNegative() {
		return nil, fmt.Errorf("%w: base price is negative", ErrInvalidMenu)
	}
	if !base.Equal(base.Round(PriceScale)) {
		return nil, fmt.Errorf("%w: base price %s has more than %d decimal places", ErrInvalidMenu, base, PriceScale)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: no ingredients", ErrInvalidMenu)
	}

	m := &Menu{
		BasePrice: base,
		Prices:    make(map[string]decimal.Decimal, len(prices)),
	}
	for name, raw := range prices {
		if name == "" || name == PriceParam {
			return nil, fmt.Errorf("%w: ingredient name %q", ErrInvalidMenu, name)
		}
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: price of %s: %v", ErrInvalidMenu, name, err)
		}
		if p.IsNegative() {
			return nil, fmt.Errorf("%w: price of %s is negative", ErrInvalidMenu, name)
		}
		if !p.Equal(p.Round(PriceScale)) {
			return nil, fmt.Errorf("%w: price of %s has more than %d decimal places", ErrInvalidMenu, name, PriceScale)
		}
		m.Prices[name] = p
	}

	seen := make(map[string]bool, len(prices))
	for _, name := range order {
		if _, ok := m.Prices[name]; !ok || seen[name] {
			continue
		}
		seen[name] = true
		m.Names = append(m.Names, name)
	}
	var rest []string
	for name := range m.Prices {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	m.Names = append(m.Names, rest...)

	return m, nil
}

func (m *Menu) Has(name string) bool {
	_, ok := m.Prices[name]
	return ok
}

func (m *Menu) UnitPrice(name string) (decimal.Decimal, error) {
	p, ok := m.Prices[name]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownIngredient, name)
	}
	return p, nil
}

// Price returns the base price plus the weighted sum of quantities.
func (m *Menu) Price(ingredients Ingredients) (decimal.Decimal, error) {
	total := m.BasePrice
	for name, qty := range ingredients {
		unit, err := m.UnitPrice(name)
		if err != nil {
			return decimal.Zero, err
		}
		if err := CheckQuantity(name, qty); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total, nil
}

// CheckQuantity rejects quantities outside [0, MaxQuantity].
func CheckQuantity(name string, qty int) error {
	switch {
	case qty < 0:
		return fmt.Errorf("%w: %s=%d", ErrNegativeQuantity, name, qty)
	case qty > MaxQuantity:
		return fmt.Errorf("%w: %s=%d", ErrQuantityTooLarge, name, qty)
	}
	return nil
}

// Empty returns a zero quantity for every ingredient on the menu.
func (m *Menu) Empty() Ingredients {
	out := make(Ingredients, len(m.Names))
	for _, name := range m.Names {
		out[name] = 0
	}
	return out
}
