// Package repository contains data access logic separated from HTTP handlers.
// This file holds the drink repository: the only code that reads or writes
// the drinks table.  Recipes are stored as JSON text and decoded on read.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/coffee-shop-api/internal/model"
)

// DrinkRepo encapsulates all database queries related to drinks.  The SQL
// is portable between MySQL and SQLite.
type DrinkRepo struct {
	db *sql.DB
}

// NewDrinkRepo constructs a DrinkRepo with the provided DB handle.
func NewDrinkRepo(db *sql.DB) *DrinkRepo {
	return &DrinkRepo{db: db}
}

// ListAll returns every drink ordered by id.  There is no filtering or
// pagination.
func (r *DrinkRepo) ListAll(ctx context.Context) ([]*model.Drink, error) {
	const q = `SELECT id, title, recipe FROM drinks ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Drink{}
	for rows.Next() {
		d, err := scanDrink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a drink by id.  It returns ErrDrinkNotFound if no row exists.
func (r *DrinkRepo) Get(ctx context.Context, id uint64) (*model.Drink, error) {
	const q = `SELECT id, title, recipe FROM drinks WHERE id = ?`
	d, err := scanDrink(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDrinkNotFound
		}
		return nil, err
	}
	return d, nil
}

// Insert persists a new drink and sets its ID.  Duplicate titles fail with
// ErrDuplicateTitle.
func (r *DrinkRepo) Insert(ctx context.Context, d *model.Drink) error {
	recipe, err := d.Recipe.Encode()
	if err != nil {
		return err
	}
	const q = `INSERT INTO drinks (title, recipe) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, d.Title, recipe)
	if err != nil {
		return writeErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// Update writes title and recipe of an already loaded drink.
func (r *DrinkRepo) Update(ctx context.Context, d *model.Drink) error {
	recipe, err := d.Recipe.Encode()
	if err != nil {
		return err
	}
	const q = `UPDATE drinks SET title = ?, recipe = ? WHERE id = ?`
	// RowsAffected is not checked: MySQL reports 0 when the values are unchanged.
	if _, err = r.db.ExecContext(ctx, q, d.Title, recipe, d.ID); err != nil {
		return writeErr(err)
	}
	return nil
}

func writeErr(err error) error {
	if isDuplicate(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateTitle, err)
	}
	return err
}

// Delete removes the drink permanently.  It returns ErrDrinkNotFound when
// no row was deleted.
func (r *DrinkRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drinks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDrinkNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDrink(s rowScanner) (*model.Drink, error) {
	var (
		d      model.Drink
		recipe string
	)
	if err := s.Scan(&d.ID, &d.Title, &recipe); err != nil {
		return nil, err
	}
	rec, err := model.DecodeRecipe(recipe)
	if err != nil {
		return nil, fmt.Errorf("drink %d: decode recipe: %w", d.ID, err)
	}
	d.Recipe = rec
	return &d, nil
}
