package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplan-optimizer/internal/recipe"
)

func samplePool() []recipe.Recipe {
	return []recipe.Recipe{
		{
			ID:    "oatmeal",
			Title: "Overnight Oats",
			Macros: recipe.Macros{
				Calories: 520, ProteinG: 32, CarbsG: 60, FatG: 14,
			},
			MealTimes: []recipe.MealType{recipe.MealBreakfast},
		},
		{
			ID:    "grain-bowl",
			Title: "Quinoa Grain Bowl",
			Macros: recipe.Macros{
				Calories: 680, ProteinG: 44, CarbsG: 70, FatG: 20,
			},
			MealTimes: []recipe.MealType{recipe.MealLunch, recipe.MealDinner},
		},
	}
}

func TestPoolStoreRoundtrip(t *testing.T) {
	store, err := NewPoolStore(t.TempDir())
	require.NoError(t, err)

	pool := samplePool()
	require.NoError(t, store.Save("weekly", pool))

	loaded, err := store.Load("weekly")
	require.NoError(t, err)
	assert.Equal(t, pool, loaded)
}

func TestPoolStoreRejectsInvalidPool(t *testing.T) {
	store, err := NewPoolStore(t.TempDir())
	require.NoError(t, err)

	bad := samplePool()
	bad[1].ID = bad[0].ID
	err = store.Save("weekly", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to save invalid pool")
}

func TestPoolStoreList(t *testing.T) {
	store, err := NewPoolStore(t.TempDir())
	require.NoError(t, err)

	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Save("weekly", samplePool()))
	require.NoError(t, store.Save("cutting", samplePool()))

	names, err = store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"weekly", "cutting"}, names)
}

func TestLoadPoolFileValidates(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPoolFile(filepath.Join(dir, "absent.json"))
		require.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
		_, err := LoadPoolFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshal")
	})

	t.Run("invalid recipes", func(t *testing.T) {
		path := filepath.Join(dir, "empty-id.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"id":"","title":"x"}]`), 0644))
		_, err := LoadPoolFile(path)
		require.Error(t, err)
	})
}
