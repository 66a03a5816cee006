package burger

import "math"

// Ingredients maps an ingredient name to its quantity.
type Ingredients map[string]int

// Total sums the positive quantities, saturating at math.MaxInt.
func (i Ingredients) Total() int {
	sum := 0
	for _, qty := range i {
		if qty <= 0 {
			continue
		}
		if qty > math.MaxInt-sum {
			return math.MaxInt
		}
		sum += qty
	}
	return sum
}

// Purchasable reports whether the selection holds at least one ingredient.
func Purchasable(i Ingredients) bool {
	for _, qty := range i {
		if qty > 0 {
			return true
		}
	}
	return false
}

// Disabled marks the ingredients whose remove control should be off.
func (i Ingredients) Disabled() map[string]bool {
	out := make(map[string]bool, len(i))
	for name, qty := range i {
		out[name] = qty <= 0
	}
	return out
}

func (i Ingredients) Clone() Ingredients {
	if i == nil {
		return nil
	}
	out := make(Ingredients, len(i))
	for name, qty := range i {
		out[name] = qty
	}
	return out
}

func (i Ingredients) Equal(other Ingredients) bool {
	if len(i) != len(other) {
		return false
	}
	for name, qty := range i {
		if v, ok := other[name]; !ok || v != qty {
			return false
		}
	}
	return true
}
