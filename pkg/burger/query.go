package burger

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceParam is the query key carrying the total price.
const PriceParam = "price"

var ErrInvalidQuery = errors.New("invalid checkout query")

// EncodeQuery renders a selection as salad=1&bacon=2&...&price=4.7. Menu
// ingredients come first in canonical order.
func (m *Menu) EncodeQuery(ingredients Ingredients, price decimal.Decimal) string {
	parts := make([]string, 0, len(ingredients)+1)
	for _, name := range m.Names {
		qty, ok := ingredients[name]
		if !ok {
			continue
		}
		parts = append(parts, url.QueryEscape(name)+"="+strconv.Itoa(qty))
	}
	parts = append(parts, PriceParam+"="+price.String())
	return strings.Join(parts, "&")
}

// DecodeQuery parses a checkout query. When the price is absent it is
// recomputed from the quantities.
func (m *Menu) DecodeQuery(raw string) (Ingredients, decimal.Decimal, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	ingredients := make(Ingredients, len(values))
	var (
		price    decimal.Decimal
		hasPrice bool
	)
	for key, vals := range values {
		last := vals[len(vals)-1]
		if key == PriceParam {
			price, err = decimal.NewFromString(last)
			if err != nil {
				return nil, decimal.Zero, fmt.Errorf("%w: price %q", ErrInvalidQuery, last)
			}
			hasPrice = true
			continue
		}
		if !m.Has(key) {
			return nil, decimal.Zero, fmt.Errorf("%w: %w: %s", ErrInvalidQuery, ErrUnknownIngredient, key)
		}
		qty, err := strconv.Atoi(last)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidQuery, key, last)
		}
		if err := CheckQuantity(key, qty); err != nil {
			return nil, decimal.Zero, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
		ingredients[key] = qty
	}

	if !hasPrice {
		price, err = m.Price(ingredients)
		if err != nil {
			return nil, decimal.Zero, err
		}
	}
	return ingredients, price, nil
}
