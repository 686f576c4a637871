package services

import (
	"testing"

	"github.com/arvand-shop/storefront-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cartItem(variant *models.ProductVariant, quantity int) models.CartItem {
	return models.CartItem{
		ProductVariantID: variant.ID,
		ProductVariant:   *variant,
		Quantity:         quantity,
	}
}

func TestValidateStockAllAvailable(t *testing.T) {
	db := setupDB(t)
	v := seedVariant(t, db, "shirt", 1000, 0, 10)

	errs, updates := ValidateStock([]models.CartItem{cartItem(v, 10)})
	assert.Empty(t, errs)
	assert.Empty(t, updates)
}

func TestValidateStockClampsPartialStock(t *testing.T) {
	db := setupDB(t)
	v := seedVariant(t, db, "shirt", 1000, 0, 10)

	errs, updates := ValidateStock([]models.CartItem{cartItem(v, 15)})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "shirt")
	require.Len(t, updates, 1)
	assert.Equal(t, 10, updates[0].NewQuantity)
}

func TestValidateStockOutOfStockHasNoCorrection(t *testing.T) {
	db := setupDB(t)
	v := seedVariant(t, db, "shirt", 1000, 0, 0)

	errs, updates := ValidateStock([]models.CartItem{cartItem(v, 2)})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "out of stock")
	assert.Empty(t, updates, "zero stock proposes no clamp")
}

func TestValidateStockMixedLines(t *testing.T) {
	db := setupDB(t)
	fine := seedVariant(t, db, "fine", 1000, 0, 5)
	partial := seedVariant(t, db, "partial", 1000, 0, 3)
	empty := seedVariant(t, db, "empty", 1000, 0, 0)

	errs, updates := ValidateStock([]models.CartItem{
		cartItem(fine, 5),
		cartItem(partial, 4),
		cartItem(empty, 1),
	})

	assert.Len(t, errs, 2)
	require.Len(t, updates, 1)
	assert.Equal(t, partial.ID, updates[0].Item.ProductVariantID)
	assert.Equal(t, 3, updates[0].NewQuantity)
}

func TestApplyUpdatesPersistsClamp(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db, "09120000010")
	v := seedVariant(t, db, "shirt", 1000, 0, 3)
	seedCart(t, db, user.ID, map[uint]int{v.ID: 9})

	var item models.CartItem
	require.NoError(t, db.First(&item).Error)

	err := ApplyUpdates(db, []ItemUpdate{{Item: item, NewQuantity: 3}}, nil, user.ID)
	require.NoError(t, err)

	require.NoError(t, db.First(&item, "id = ?", item.ID).Error)
	assert.Equal(t, 3, item.Quantity)
}
