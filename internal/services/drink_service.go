// Package services implements the application's business logic on top of the
// storage layer: the expense splitting engine, the reporting queries and the
// group registry.
package services

import (
	"context"
	"fmt"

	"drinklog/internal/core"
	"drinklog/internal/log"
	"drinklog/internal/storage"
)

// DrinkService manages the static drink catalog.
type DrinkService struct {
	store  storage.Store
	logger *log.Logger
}

func NewDrinkService(store storage.Store, logger *log.Logger) *DrinkService {
	return &DrinkService{
		store:  store,
		logger: logger.WithComponent(log.ComponentDrink),
	}
}

// Seed inserts the well-known drink types. Safe to call on every startup.
func (s *DrinkService) Seed(ctx context.Context) error {
	seeds := []struct {
		name      string
		drinkType string
	}{
		{"Soju", core.DrinkTypeSoju},
		{"Beer", core.DrinkTypeBeer},
	}

	return s.store.WithTx(ctx, func(tx storage.Tx) error {
		for _, seed := range seeds {
			if err := tx.EnsureDrink(ctx, seed.name, seed.drinkType); err != nil {
				return fmt.Errorf("seed drink %q: %w", seed.drinkType, err)
			}
		}
		s.logger.Debug("drink catalog seeded", log.FieldOperation, log.OpSeed)
		return nil
	})
}

// List returns the full catalog.
func (s *DrinkService) List(ctx context.Context) ([]core.Drink, error) {
	return s.store.ListDrinks(ctx)
}

// ByType looks a drink up by its type. Unknown types return (nil, nil) so
// callers can skip them.
func (s *DrinkService) ByType(ctx context.Context, drinkType string) (*core.Drink, error) {
	return s.store.DrinkByType(ctx, drinkType)
}
