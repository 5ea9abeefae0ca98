package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRecalculate(t *testing.T) {
	lines := []CartLine{
		{ProductID: "a", Qty: 2, UnitPrice: decimal.RequireFromString("500")},
		{ProductID: "b", Qty: 3, UnitPrice: decimal.RequireFromString("19.99")},
	}

	out, tot := Recalculate(lines)

	assert.Equal(t, 5, tot.Qty)
	assert.True(t, tot.Price.Equal(decimal.RequireFromString("1059.97")), tot.Price.String())
	assert.True(t, out[0].FinalPrice.Equal(decimal.RequireFromString("1000")))
	assert.True(t, out[1].FinalPrice.Equal(decimal.RequireFromString("59.97")))
	assert.True(t, lines[0].FinalPrice.IsZero(), "input must not be modified")
}

func TestRecalculateEmpty(t *testing.T) {
	out, tot := Recalculate(nil)
	assert.Empty(t, out)
	assert.Equal(t, 0, tot.Qty)
	assert.True(t, tot.Price.IsZero())
}

func TestKindRegistry(t *testing.T) {
	for _, k := range Kinds() {
		byTag, ok := LookupKind(string(k.Kind))
		assert.True(t, ok)
		byCat, ok := KindForCategory(k.CategorySlug)
		assert.True(t, ok)
		assert.Equal(t, byTag, byCat)
	}
	_, ok := LookupKind("toaster")
	assert.False(t, ok)
	_, ok = KindForCategory("cart")
	assert.False(t, ok)
}

func TestValidationError(t *testing.T) {
	var ve ValidationError
	assert.NoError(t, ve.OrNil())
	ve.Add("phone", "required")
	ve.Add("address", "required")
	ve.Add("phone", "second message is ignored")
	assert.Equal(t, "required", ve.Fields["phone"])
	assert.EqualError(t, ve.OrNil(), "validation failed: address, phone")
}
