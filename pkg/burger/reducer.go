package burger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrNotLoaded = errors.New("ingredients not loaded")

type ActionType string

const (
	AddIngredient          ActionType = "ADD_INGREDIENT"
	RemoveIngredient       ActionType = "REMOVE_INGREDIENT"
	SetIngredients         ActionType = "SET_INGREDIENTS"
	FetchIngredientsFailed ActionType = "FETCH_INGREDIENTS_FAILED"
)

type Action struct {
	Type        ActionType  `json:"type"`
	Ingredient  string      `json:"ingredientName,omitempty"`
	Ingredients Ingredients `json:"ingredients,omitempty"`
}

// State is the builder state. Ingredients stays nil until the first
// SetIngredients.
type State struct {
	Ingredients Ingredients     `json:"ingredients"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Purchasable bool            `json:"purchasable"`
	Error       bool            `json:"error"`
}

func (m *Menu) InitialState() State {
	return State{TotalPrice: m.BasePrice}
}

// Reduce returns the state after applying a. The input state is never
// modified.
func (m *Menu) Reduce(s State, a Action) (State, error) {
	switch a.Type {
	case AddIngredient:
		unit, err := m.checkStep(s, a.Ingredient)
		if err != nil {
			return s, err
		}
		if s.Ingredients[a.Ingredient] >= MaxQuantity {
			return s, fmt.Errorf("%w: %s", ErrQuantityTooLarge, a.Ingredient)
		}
		next := s
		next.Ingredients = s.Ingredients.Clone()
		next.Ingredients[a.Ingredient]++
		next.TotalPrice = s.TotalPrice.Add(unit)
		next.Purchasable = Purchasable(next.Ingredients)
		return next, nil

	case RemoveIngredient:
		unit, err := m.checkStep(s, a.Ingredient)
		if err != nil {
			return s, err
		}
		if s.Ingredients[a.Ingredient] <= 0 {
			return s, nil
		}
		next := s
		next.Ingredients = s.Ingredients.Clone()
		next.Ingredients[a.Ingredient]--
		next.TotalPrice = s.TotalPrice.Sub(unit)
		next.Purchasable = Purchasable(next.Ingredients)
		return next, nil

	case SetIngredients:
		ingredients := m.Empty()
		for name, qty := range a.Ingredients {
			if !m.Has(name) {
				return s, fmt.Errorf("%w: %s", ErrUnknownIngredient, name)
			}
			if err := CheckQuantity(name, qty); err != nil {
				return s, err
			}
			ingredients[name] = qty
		}
		price, err := m.Price(ingredients)
		if err != nil {
			return s, err
		}
		return State{
			Ingredients: ingredients,
			TotalPrice:  price,
			Purchasable: Purchasable(ingredients),
		}, nil

	case FetchIngredientsFailed:
		next := s
		next.Error = true
		return next, nil

	default:
		return s, fmt.Errorf("unknown action type %q", a.Type)
	}
}

func (m *Menu) checkStep(s State, name string) (decimal.Decimal, error) {
	if s.Ingredients == nil {
		return decimal.Zero, ErrNotLoaded
	}
	return m.UnitPrice(name)
}
