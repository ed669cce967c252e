package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Drink represents a row in the `drinks` table.  The recipe is kept in
// its decoded form; the repository encodes it to JSON text when writing
// the `recipe` column and decodes it again when scanning.
//
// Fields:
//  ID     – primary key assigned by the database.
//  Title  – unique, human readable drink name (never empty once stored).
//  Recipe – the ingredients, either a single ingredient or an ordered list.
type Drink struct {
	ID     uint64 // drinks.id
	Title  string // drinks.title
	Recipe Recipe // drinks.recipe (JSON text)
}

// Ingredient is one component of a recipe.
type Ingredient struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Parts float64 `json:"parts"`
}

// Recipe holds the ingredients of a drink.  Single records whether the
// caller supplied a bare ingredient object instead of a list so that the
// same shape is returned on every read.
type Recipe struct {
	Ingredients []Ingredient
	Single      bool
}

var (
	// ErrInvalidRecipe is returned when a recipe is neither an ingredient
	// object nor a list of ingredient objects.
	ErrInvalidRecipe = errors.New("recipe must be an ingredient object or a list of ingredient objects")
	// ErrIngredientName is returned for an ingredient without a name.
	ErrIngredientName = errors.New("ingredient name is required")
)

// NewRecipe builds a list-shaped recipe from the given ingredients.
func NewRecipe(ingredients ...Ingredient) Recipe {
	return Recipe{Ingredients: ingredients}
}

// UnmarshalJSON accepts either `{...}` or `[{...}, ...]`.  Ingredients may
// only carry name, color and parts; a missing color or parts reads back as
// "" or 0.
func (r *Recipe) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return ErrInvalidRecipe
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	// unknown keys would be lost on the next read
	dec.DisallowUnknownFields()
	var out Recipe
	switch b[0] {
	case '{':
		var ing Ingredient
		if err := dec.Decode(&ing); err != nil {
			return fmt.Errorf("decode ingredient: %w", err)
		}
		out = Recipe{Ingredients: []Ingredient{ing}, Single: true}
	case '[':
		var list []Ingredient
		if err := dec.Decode(&list); err != nil {
			return fmt.Errorf("decode ingredients: %w", err)
		}
		out = Recipe{Ingredients: list}
	default:
		return ErrInvalidRecipe
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*r = out
	return nil
}

// MarshalJSON writes the long form, preserving the shape the recipe was
// created with.
func (r Recipe) MarshalJSON() ([]byte, error) {
	if r.Single && len(r.Ingredients) == 1 {
		return json.Marshal(r.Ingredients[0])
	}
	if r.Ingredients == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Ingredients)
}

// Validate checks that every ingredient is named.
func (r Recipe) Validate() error {
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return fmt.Errorf("ingredient %d: %w", i, ErrIngredientName)
		}
	}
	return nil
}

// Encode returns the recipe as the JSON text stored in the recipe column.
func (r Recipe) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeRecipe parses recipe column text.
func DecodeRecipe(s string) (Recipe, error) {
	var r Recipe
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

// redactedIngredient is an ingredient without its name.
type redactedIngredient struct {
	Color string  `json:"color"`
	Parts float64 `json:"parts"`
}

// ShortRecipe is a recipe serialized without ingredient names.
type ShortRecipe Recipe

// MarshalJSON writes `{color, parts}` entries, keeping the recipe shape.
func (r ShortRecipe) MarshalJSON() ([]byte, error) {
	out := make([]redactedIngredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		out = append(out, redactedIngredient{Color: ing.Color, Parts: ing.Parts})
	}
	if r.Single && len(out) == 1 {
		return json.Marshal(out[0])
	}
	return json.Marshal(out)
}

// DrinkView is the JSON representation of a drink returned by the API.
// Recipe holds either a Recipe (long form) or a ShortRecipe.
type DrinkView struct {
	ID     uint64 `json:"id"`
	Title  string `json:"title"`
	Recipe any    `json:"recipe"`
}

// Short returns the public representation: ingredient names are omitted.
func (d *Drink) Short() DrinkView {
	return DrinkView{ID: d.ID, Title: d.Title, Recipe: ShortRecipe(d.Recipe)}
}

// Long returns the full representation including ingredient names.
func (d *Drink) Long() DrinkView {
	return DrinkView{ID: d.ID, Title: d.Title, Recipe: d.Recipe}
}
