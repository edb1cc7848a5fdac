package shop

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nocturne-works/dataport/game/inventory"
	"github.com/nocturne-works/dataport/gameerr"
	"github.com/nocturne-works/dataport/model"
	"github.com/nocturne-works/dataport/testutil"
)

func nopLogger() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

func newTestService(t *testing.T) (*Service, *inventory.Service, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	inv := inventory.NewService(db, 0, nopLogger())
	return NewService(db, inv, nopLogger()), inv, db
}

func seedCharacter(t *testing.T, db *gorm.DB, balance int64) *model.Character {
	t.Helper()
	char := &model.Character{
		Name:           "Taichi-" + uuid.NewString()[:8],
		Digidollar:     balance,
		KeycloakUserID: uuid.New(),
	}
	require.NoError(t, db.Create(char).Error)
	return char
}

func seedItem(t *testing.T, db *gorm.DB, name string) *model.Item {
	t.Helper()
	item := &model.Item{Name: name}
	require.NoError(t, db.Create(item).Error)
	return item
}

func seedShop(t *testing.T, db *gorm.DB) *model.Shop {
	t.Helper()
	shop := &model.Shop{Seller: uuid.New(), Type: 1}
	require.NoError(t, db.Create(shop).Error)
	return shop
}

func int64p(v int64) *int64 { return &v }

func TestResolvePrice_Currency(t *testing.T) {
	p, err := ResolvePrice(&model.ShopSellsItem{Price: int64p(100)})
	require.NoError(t, err)
	require.NotNil(t, p.Currency)
	assert.Equal(t, int64(100), *p.Currency)
	assert.Empty(t, p.Basket)
}

func TestResolvePrice_Barter(t *testing.T) {
	lines := []model.ItemAsPrice{{ItemID: uuid.New(), Amount: 2}}
	p, err := ResolvePrice(&model.ShopSellsItem{BarterItems: lines})
	require.NoError(t, err)
	assert.Nil(t, p.Currency)
	assert.Len(t, p.Basket, 1)
}

func TestResolvePrice_BothModesRejected(t *testing.T) {
	_, err := ResolvePrice(&model.ShopSellsItem{
		Price:       int64p(100),
		BarterItems: []model.ItemAsPrice{{ItemID: uuid.New(), Amount: 1}},
	})
	assert.True(t, gameerr.Is(err, gameerr.CodeValidation))
}

func TestResolvePrice_NoPriceRejected(t *testing.T) {
	_, err := ResolvePrice(&model.ShopSellsItem{})
	assert.True(t, gameerr.Is(err, gameerr.CodeValidation))
}

func TestPurchase_CurrencyDebitsAndDelivers(t *testing.T) {
	svc, inv, db := newTestService(t)
	char := seedCharacter(t, db, 500)
	sword := seedItem(t, db, "Bronze Sword")
	listing := &model.ShopSellsItem{ShopID: seedShop(t, db).ID, ItemID: sword.ID, Price: int64p(300)}
	require.NoError(t, db.Create(listing).Error)

	require.NoError(t, svc.Purchase(context.Background(), char, listing))

	assert.Equal(t, int64(200), char.Digidollar)
	var stored model.Character
	require.NoError(t, db.First(&stored, "id = ?", char.ID).Error)
	assert.Equal(t, int64(200), stored.Digidollar)

	held, err := inv.Held(context.Background(), char.ID, sword.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, held)
}

func TestPurchase_InsufficientFunds(t *testing.T) {
	svc, inv, db := newTestService(t)
	char := seedCharacter(t, db, 100)
	sword := seedItem(t, db, "Bronze Sword")
	listing := &model.ShopSellsItem{ShopID: seedShop(t, db).ID, ItemID: sword.ID, Price: int64p(300)}
	require.NoError(t, db.Create(listing).Error)

	err := svc.Purchase(context.Background(), char, listing)
	assert.True(t, gameerr.Is(err, gameerr.CodeInsufficientFunds))

	var stored model.Character
	require.NoError(t, db.First(&stored, "id = ?", char.ID).Error)
	assert.Equal(t, int64(100), stored.Digidollar)

	held, err := inv.Held(context.Background(), char.ID, sword.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, held)
}

// The stored balance is authoritative: a caller holding a stale, higher
// in-memory balance must still be refused, and a balance that exactly covers
// the price drains to zero, never below.
func TestPurchase_StoredBalanceGuardsDebit(t *testing.T) {
	svc, inv, db := newTestService(t)
	char := seedCharacter(t, db, 100)
	sword := seedItem(t, db, "Bronze Sword")
	listing := &model.ShopSellsItem{ShopID: seedShop(t, db).ID, ItemID: sword.ID, Price: int64p(300)}
	require.NoError(t, db.Create(listing).Error)

	char.Digidollar = 500 // stale read from before another request spent it
	err := svc.Purchase(context.Background(), char, listing)
	assert.True(t, gameerr.Is(err, gameerr.CodeInsufficientFunds))

	var stored model.Character
	require.NoError(t, db.First(&stored, "id = ?", char.ID).Error)
	assert.Equal(t, int64(100), stored.Digidollar)

	held, err := inv.Held(context.Background(), char.ID, sword.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, held)
}

func TestPurchase_ExactBalanceDrainsToZero(t *testing.T) {
	svc, _, db := newTestService(t)
	char := seedCharacter(t, db, 300)
	sword := seedItem(t, db, "Bronze Sword")
	listing := &model.ShopSellsItem{ShopID: seedShop(t, db).ID, ItemID: sword.ID, Price: int64p(300)}
	require.NoError(t, db.Create(listing).Error)

	require.NoError(t, svc.Purchase(context.Background(), char, listing))

	var stored model.Character
	require.NoError(t, db.First(&stored, "id = ?", char.ID).Error)
	assert.Equal(t, int64(0), stored.Digidollar)
}

func TestPurchase_BarterConsumesBasket(t *testing.T) {
	svc, inv, db := newTestService(t)
	char := seedCharacter(t, db, 0)
	ore := seedItem(t, db, "Iron Ore")
	hide := seedItem(t, db, "Hide")
	armor := seedItem(t, db, "Leather Armor")
	require.NoError(t, inv.Add(context.Background(), char.ID, ore, 5))
	require.NoError(t, inv.Add(context.Background(), char.ID, hide, 2))

	listing := &model.ShopSellsItem{
		ShopID: seedShop(t, db).ID,
		ItemID: armor.ID,
		BarterItems: []model.ItemAsPrice{
			{ItemID: ore.ID, Amount: 3},
			{ItemID: hide.ID, Amount: 2},
		},
	}
	require.NoError(t, db.Create(listing).Error)

	require.NoError(t, svc.Purchase(context.Background(), char, listing))

	oreHeld, _ := inv.Held(context.Background(), char.ID, ore.ID)
	hideHeld, _ := inv.Held(context.Background(), char.ID, hide.ID)
	armorHeld, _ := inv.Held(context.Background(), char.ID, armor.ID)
	assert.Equal(t, 2, oreHeld)
	assert.Equal(t, 0, hideHeld)
	assert.Equal(t, 1, armorHeld)
}

func TestPurchase_BarterAllOrNothing(t *testing.T) {
	svc, inv, db := newTestService(t)
	char := seedCharacter(t, db, 0)
	ore := seedItem(t, db, "Iron Ore")
	hide := seedItem(t, db, "Hide")
	armor := seedItem(t, db, "Leather Armor")
	// Enough ore, not enough hide. The ore must survive the failed purchase.
	require.NoError(t, inv.Add(context.Background(), char.ID, ore, 5))

	listing := &model.ShopSellsItem{
		ShopID: seedShop(t, db).ID,
		ItemID: armor.ID,
		BarterItems: []model.ItemAsPrice{
			{ItemID: ore.ID, Amount: 3},
			{ItemID: hide.ID, Amount: 1},
		},
	}
	require.NoError(t, db.Create(listing).Error)

	err := svc.Purchase(context.Background(), char, listing)
	assert.True(t, gameerr.Is(err, gameerr.CodeInsufficientFunds))

	oreHeld, _ := inv.Held(context.Background(), char.ID, ore.ID)
	armorHeld, _ := inv.Held(context.Background(), char.ID, armor.ID)
	assert.Equal(t, 5, oreHeld)
	assert.Equal(t, 0, armorHeld)
}

func TestPurchase_UnknownItem(t *testing.T) {
	svc, _, db := newTestService(t)
	char := seedCharacter(t, db, 1000)
	listing := &model.ShopSellsItem{ShopID: seedShop(t, db).ID, ItemID: uuid.New(), Price: int64p(10)}
	require.NoError(t, db.Create(listing).Error)

	err := svc.Purchase(context.Background(), char, listing)
	assert.True(t, gameerr.Is(err, gameerr.CodeNotFound))
}

func TestListings_DisplayOrderWithBarterLines(t *testing.T) {
	svc, _, db := newTestService(t)
	shop := seedShop(t, db)
	a := seedItem(t, db, "Potion")
	b := seedItem(t, db, "Ether")
	ore := seedItem(t, db, "Iron Ore")

	second := &model.ShopSellsItem{ShopID: shop.ID, ItemID: a.ID, Price: int64p(50), DefaultOrder: 2}
	first := &model.ShopSellsItem{
		ShopID: shop.ID, ItemID: b.ID, DefaultOrder: 1,
		BarterItems: []model.ItemAsPrice{{ItemID: ore.ID, Amount: 2}},
	}
	require.NoError(t, db.Create(second).Error)
	require.NoError(t, db.Create(first).Error)

	rows, err := svc.Listings(context.Background(), shop.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, b.ID, rows[0].ItemID)
	require.Len(t, rows[0].BarterItems, 1)
	assert.Equal(t, 2, rows[0].BarterItems[0].Amount)
	assert.Equal(t, a.ID, rows[1].ItemID)
}
