package migrate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/iliyamo/coffee-shop-api/internal/config"
	"github.com/iliyamo/coffee-shop-api/internal/database"
	"github.com/iliyamo/coffee-shop-api/internal/model"
	"github.com/iliyamo/coffee-shop-api/internal/repository"
)

func TestUp_IsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	db, err := database.Open(ctx, config.DBConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Up(ctx, db, "sqlite", log))
	require.NoError(t, Up(ctx, db, "sqlite", log))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drinks`).Scan(&n))
	require.Zero(t, n)
}

func TestReset_DropsAndSeeds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	db, err := database.Open(ctx, config.DBConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Up(ctx, db, "sqlite", log))
	repo := repository.NewDrinkRepo(db)
	require.NoError(t, repo.Insert(ctx, &model.Drink{Title: "mocha", Recipe: model.NewRecipe(model.Ingredient{Name: "chocolate", Color: "brown", Parts: 1})}))

	require.NoError(t, Reset(ctx, db, "sqlite", log))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "water", all[0].Title)
	require.Equal(t, SeedDrink.Recipe, all[0].Recipe)
}

func TestUp_UnknownDriver(t *testing.T) {
	t.Parallel()
	require.Error(t, Up(context.Background(), nil, "oracle", zaptest.NewLogger(t)))
}
