package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeshop/internal/domain"
)

func TestCategoriesWithCounts(t *testing.T) {
	e := newEnv(t)
	cats, err := e.catalog.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 3)
	for _, c := range cats {
		assert.Equal(t, 2, c.Count, c.Slug)
	}
}

func TestLatestPutsDishwashersFirst(t *testing.T) {
	e := newEnv(t)
	ps, err := e.catalog.Latest(context.Background(), 5, domain.KindDishwasher)
	require.NoError(t, err)
	require.Len(t, ps, 6)

	assert.Equal(t, domain.KindDishwasher, ps[0].Kind)
	assert.Equal(t, domain.KindDishwasher, ps[1].Kind)
	// newest first within a kind
	assert.Equal(t, "dishwasher-mini", ps[0].Slug)
	assert.Equal(t, domain.KindRefrigerator, ps[2].Kind)
	assert.Equal(t, domain.KindWasher, ps[5].Kind)
}

func TestLatestLimitPerKind(t *testing.T) {
	e := newEnv(t)
	ps, err := e.catalog.Latest(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, ps, 3)
	assert.Equal(t, domain.KindRefrigerator, ps[0].Kind)
}

func TestCategoryAndProductLookup(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	c, k, err := e.catalog.Category(ctx, "washers")
	require.NoError(t, err)
	assert.Equal(t, "Washing machines", c.Name)
	assert.Equal(t, domain.KindWasher, k.Kind)

	ps, err := e.catalog.ProductsInCategory(ctx, k, 1, 0)
	require.NoError(t, err)
	assert.Len(t, ps, 2)

	_, _, err = e.catalog.Category(ctx, "toasters")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p, err := e.catalog.Product(ctx, "refrigerators", "fridge-x1")
	require.NoError(t, err)
	assert.Equal(t, "Fridge X1", p.Title)

	_, err = e.catalog.Product(ctx, "washers", "fridge-x1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	e := newEnv(t)
	ps, err := e.catalog.Search(context.Background(), "DISHWASHER", 1, 0)
	require.NoError(t, err)
	assert.Len(t, ps, 2)
}
