// Package migrate applies the embedded SQL migrations and can rebuild the
// drinks table from scratch.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/iliyamo/coffee-shop-api/internal/model"
	"github.com/iliyamo/coffee-shop-api/internal/repository"
	"github.com/iliyamo/coffee-shop-api/migrations"
)

// SeedDrink is inserted by Reset so a fresh database has one drink.
var SeedDrink = model.Drink{
	Title:  "water",
	Recipe: model.NewRecipe(model.Ingredient{Name: "water", Color: "blue", Parts: 1}),
}

func newProvider(db *sql.DB, driver string) (*goose.Provider, error) {
	var dialect goose.Dialect
	switch driver {
	case "mysql":
		dialect = goose.DialectMySQL
	case "sqlite":
		dialect = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
	fsys, err := fs.Sub(migrations.FS, driver)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(dialect, db, fsys)
}

// Up runs all pending migrations.
func Up(ctx context.Context, db *sql.DB, driver string, log *zap.Logger) error {
	p, err := newProvider(db, driver)
	if err != nil {
		return err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	for _, r := range results {
		log.Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.Duration("dur", r.Duration),
		)
	}
	return nil
}

// Reset drops every table managed by the migrations, recreates them and
// inserts SeedDrink.  All existing drinks are lost.
func Reset(ctx context.Context, db *sql.DB, driver string, log *zap.Logger) error {
	p, err := newProvider(db, driver)
	if err != nil {
		return err
	}
	if _, err := p.DownTo(ctx, 0); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	if err := Up(ctx, db, driver, log); err != nil {
		return err
	}
	seed := SeedDrink
	if err := repository.NewDrinkRepo(db).Insert(ctx, &seed); err != nil {
		return fmt.Errorf("seed drink: %w", err)
	}
	log.Info("database reset", zap.Uint64("seed_id", seed.ID))
	return nil
}
