package repository

import (
	"context"
	"fmt"

	"github.com/latchjack/burger/pkg/burger"
	"github.com/latchjack/burger/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IngredientStore struct {
	db *gorm.DB
}

func NewIngredientStore(db *gorm.DB) *IngredientStore {
	return &IngredientStore{db: db}
}

func (s *IngredientStore) All(ctx context.Context) (burger.Ingredients, error) {
	var rows []models.Ingredient
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load ingredients: %w", err)
	}
	out := make(burger.Ingredients, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Quantity
	}
	return out, nil
}

// Seed inserts a zero-quantity row for each menu ingredient that is missing.
// Existing rows keep their quantity.
func (s *IngredientStore) Seed(ctx context.Context, menu *burger.Menu) error {
	rows := make([]models.Ingredient, 0, len(menu.Names))
	for _, name := range menu.Names {
		rows = append(rows, models.Ingredient{Name: name})
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to seed ingredients: %w", err)
	}
	return nil
}

// Set upserts the given quantities.
func (s *IngredientStore) Set(ctx context.Context, ingredients burger.Ingredients) error {
	if len(ingredients) == 0 {
		return nil
	}
	rows := make([]models.Ingredient, 0, len(ingredients))
	for name, qty := range ingredients {
		if err := burger.CheckQuantity(name, qty); err != nil {
			return err
		}
		rows = append(rows, models.Ingredient{Name: name, Quantity: qty})
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to set ingredients: %w", err)
	}
	return nil
}
