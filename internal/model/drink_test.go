package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecipe_UnmarshalSingleObject(t *testing.T) {
	t.Parallel()

	var r Recipe
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Water","color":"blue","parts":1}`), &r))
	require.True(t, r.Single)
	require.Equal(t, []Ingredient{{Name: "Water", Color: "blue", Parts: 1}}, r.Ingredients)
}

func TestRecipe_UnmarshalList(t *testing.T) {
	t.Parallel()

	var r Recipe
	in := `[{"name":"milk","color":"grey","parts":1},{"name":"coffee","color":"brown","parts":3}]`
	require.NoError(t, json.Unmarshal([]byte(in), &r))
	require.False(t, r.Single)
	require.Len(t, r.Ingredients, 2)
	require.Equal(t, "coffee", r.Ingredients[1].Name)
}

func TestRecipe_UnmarshalRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"string":       `"water"`,
		"number":       `5`,
		"null":         `null`,
		"unnamed":      `{"color":"blue","parts":1}`,
		"unnamed item": `[{"name":"a","color":"b","parts":1},{"name":" ","color":"c","parts":2}]`,
		"bad parts":    `{"name":"a","color":"b","parts":"many"}`,
		"unknown key":  `{"name":"a","colour":"b","parts":1}`,
		"unknown item": `[{"name":"a","color":"b","parts":1,"temp":"hot"}]`,
	}
	for name, in := range cases {
		var r Recipe
		require.Error(t, json.Unmarshal([]byte(in), &r), name)
	}
}

func TestRecipe_EncodeDecodeKeepsShape(t *testing.T) {
	t.Parallel()

	single := Recipe{Ingredients: []Ingredient{{Name: "Water", Color: "blue", Parts: 1}}, Single: true}
	s, err := single.Encode()
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Water","color":"blue","parts":1}`, s)

	back, err := DecodeRecipe(s)
	require.NoError(t, err)
	require.Equal(t, single, back)

	list := NewRecipe(Ingredient{Name: "espresso", Color: "brown", Parts: 2})
	s, err = list.Encode()
	require.NoError(t, err)
	require.JSONEq(t, `[{"name":"espresso","color":"brown","parts":2}]`, s)

	_, err = DecodeRecipe("not json")
	require.Error(t, err)
}

func TestDrink_ShortOmitsIngredientNames(t *testing.T) {
	t.Parallel()

	d := &Drink{ID: 7, Title: "flat white", Recipe: NewRecipe(
		Ingredient{Name: "milk", Color: "white", Parts: 2},
		Ingredient{Name: "espresso", Color: "brown", Parts: 1},
	)}

	b, err := json.Marshal(d.Short())
	require.NoError(t, err)
	require.JSONEq(t, `{"id":7,"title":"flat white","recipe":[{"color":"white","parts":2},{"color":"brown","parts":1}]}`, string(b))

	b, err = json.Marshal(d.Long())
	require.NoError(t, err)
	require.JSONEq(t, `{"id":7,"title":"flat white","recipe":[{"name":"milk","color":"white","parts":2},{"name":"espresso","color":"brown","parts":1}]}`, string(b))
}

func TestDrink_ShortSingleIngredient(t *testing.T) {
	t.Parallel()

	d := &Drink{ID: 1, Title: "Water", Recipe: Recipe{Ingredients: []Ingredient{{Name: "Water", Color: "blue", Parts: 1}}, Single: true}}
	b, err := json.Marshal(d.Short())
	require.NoError(t, err)
	require.JSONEq(t, `{"id":1,"title":"Water","recipe":{"color":"blue","parts":1}}`, string(b))
}

func TestDrink_EmptyRecipeIsList(t *testing.T) {
	t.Parallel()

	d := &Drink{ID: 2, Title: "nothing"}
	b, err := json.Marshal(d.Long())
	require.NoError(t, err)
	require.JSONEq(t, `{"id":2,"title":"nothing","recipe":[]}`, string(b))

	b, err = json.Marshal(d.Short())
	require.NoError(t, err)
	require.JSONEq(t, `{"id":2,"title":"nothing","recipe":[]}`, string(b))
}
