package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/iliyamo/coffee-shop-api/internal/config"
	"github.com/iliyamo/coffee-shop-api/internal/database"
	"github.com/iliyamo/coffee-shop-api/internal/migrate"
	"github.com/iliyamo/coffee-shop-api/internal/model"
	"github.com/iliyamo/coffee-shop-api/internal/repository"
)

func newRepo(t *testing.T) (*repository.DrinkRepo, *sql.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.DBConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "drinks.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrate.Up(ctx, db, "sqlite", zaptest.NewLogger(t)))
	return repository.NewDrinkRepo(db), db
}

func latte() *model.Drink {
	return &model.Drink{Title: "latte", Recipe: model.NewRecipe(
		model.Ingredient{Name: "milk", Color: "white", Parts: 3},
		model.Ingredient{Name: "espresso", Color: "brown", Parts: 1},
	)}
}

func TestDrinkRepo_InsertGet(t *testing.T) {
	t.Parallel()
	r, _ := newRepo(t)
	ctx := context.Background()

	d := latte()
	require.NoError(t, r.Insert(ctx, d))
	require.NotZero(t, d.ID)

	got, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestDrinkRepo_GetMissing(t *testing.T) {
	t.Parallel()
	r, _ := newRepo(t)

	_, err := r.Get(context.Background(), 9999)
	require.ErrorIs(t, err, repository.ErrDrinkNotFound)
}

func TestDrinkRepo_ListAll(t *testing.T) {
	t.Parallel()
	r, _ := newRepo(t)
	ctx := context.Background()

	empty, err := r.ListAll(ctx)
	require.NoError(t, err)
	require.Empty(t, empty)

	first := latte()
	second := &model.Drink{Title: "Water", Recipe: model.Recipe{
		Ingredients: []model.Ingredient{{Name: "Water", Color: "blue", Parts: 1}},
		Single:      true,
	}}
	require.NoError(t, r.Insert(ctx, first))
	require.NoError(t, r.Insert(ctx, second))

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []*model.Drink{first, second}, all)
}

func TestDrinkRepo_InsertDuplicateTitle(t *testing.T) {
	t.Parallel()
	r, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, latte()))
	require.ErrorIs(t, r.Insert(ctx, latte()), repository.ErrDuplicateTitle)

	other := &model.Drink{Title: "mocha", Recipe: model.NewRecipe()}
	require.NoError(t, r.Insert(ctx, other))
	other.Title = "latte"
	require.ErrorIs(t, r.Update(ctx, other), repository.ErrDuplicateTitle)
}

func TestDrinkRepo_Update(t *testing.T) {
	t.Parallel()
	r, _ := newRepo(t)
	ctx := context.Background()

	d := latte()
	require.NoError(t, r.Insert(ctx, d))

	d.Title = "iced latte"
	d.Recipe.Ingredients = append(d.Recipe.Ingredients, model.Ingredient{Name: "ice", Color: "clear", Parts: 2})
	require.NoError(t, r.Update(ctx, d))

	got, err := r.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "iced latte", got.Title)
	require.Len(t, got.Recipe.Ingredients, 3)

	// unchanged values still succeed
	require.NoError(t, r.Update(ctx, got))
}

func TestDrinkRepo_Delete(t *testing.T) {
	t.Parallel()
	r, _ := newRepo(t)
	ctx := context.Background()

	d := latte()
	require.NoError(t, r.Insert(ctx, d))
	require.NoError(t, r.Delete(ctx, d.ID))

	_, err := r.Get(ctx, d.ID)
	require.ErrorIs(t, err, repository.ErrDrinkNotFound)
	require.ErrorIs(t, r.Delete(ctx, d.ID), repository.ErrDrinkNotFound)
}

func TestDrinkRepo_CorruptRecipe(t *testing.T) {
	t.Parallel()
	r, db := newRepo(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO drinks (title, recipe) VALUES (?, ?)`, "broken", "{not json")
	require.NoError(t, err)

	_, err = r.ListAll(ctx)
	require.Error(t, err)
}

func TestDrinkRepo_ClosedDB(t *testing.T) {
	t.Parallel()
	r, db := newRepo(t)
	require.NoError(t, db.Close())

	_, err := r.ListAll(context.Background())
	require.Error(t, err)
	require.Error(t, r.Insert(context.Background(), latte()))
}
