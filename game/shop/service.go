package shop

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nocturne-works/dataport/game/inventory"
	"github.com/nocturne-works/dataport/gameerr"
	"github.com/nocturne-works/dataport/model"
)

// ListingsCacheKey is the cache key under which a shop's serialized listing
// response is stored. Importing fresh shop data invalidates it.
func ListingsCacheKey(shopID uuid.UUID) string {
	return "shop:listings:" + shopID.String()
}

// Price is a listing's resolved cost: either a currency amount or a basket of
// items, never both.
type Price struct {
	Currency *int64
	Basket   []model.ItemAsPrice
}

// ResolvePrice picks the pricing mode of a listing. A listing carrying both a
// currency price and barter lines (or neither) is designer data corruption and
// is rejected rather than guessed at.
func ResolvePrice(listing *model.ShopSellsItem) (Price, error) {
	hasCurrency := listing.Price != nil
	hasBarter := len(listing.BarterItems) > 0
	switch {
	case hasCurrency && hasBarter:
		return Price{}, gameerr.New(gameerr.CodeValidation,
			"listing %d has both a currency price and barter lines", listing.ID)
	case !hasCurrency && !hasBarter:
		return Price{}, gameerr.New(gameerr.CodeValidation,
			"listing %d has no price", listing.ID)
	case hasCurrency:
		return Price{Currency: listing.Price}, nil
	default:
		return Price{Basket: listing.BarterItems}, nil
	}
}

// Service resolves shop listings and executes purchases against the
// character's balance and inventory.
type Service struct {
	db     *gorm.DB
	inv    *inventory.Service
	logger *zap.Logger
}

// NewService creates a shop Service.
func NewService(db *gorm.DB, inv *inventory.Service, logger *zap.Logger) *Service {
	return &Service{db: db, inv: inv, logger: logger}
}

// Purchase buys one unit of the listing's item. Currency listings debit the
// balance; barter listings consume the full basket. Either everything commits
// or nothing does: the basket is verified line by line before any removal.
func (svc *Service) Purchase(ctx context.Context, char *model.Character, listing *model.ShopSellsItem) error {
	price, err := ResolvePrice(listing)
	if err != nil {
		return err
	}

	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sold, err := loadItem(tx, listing.ItemID)
		if err != nil {
			return err
		}

		if price.Currency != nil {
			// The balance guard rides on the UPDATE itself so two racing
			// purchases cannot drive the balance negative.
			res := tx.Model(&model.Character{}).
				Where("id = ? AND digidollar >= ?", char.ID, *price.Currency).
				Update("digidollar", gorm.Expr("digidollar - ?", *price.Currency))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gameerr.New(gameerr.CodeInsufficientFunds,
					"balance %d below price %d", char.Digidollar, *price.Currency)
			}
			char.Digidollar -= *price.Currency
			if err := svc.inv.AddTx(tx, char.ID, sold, 1); err != nil {
				return err
			}
			svc.logger.Info("purchase",
				zap.String("character_id", char.ID.String()),
				zap.String("item_id", sold.ID.String()),
				zap.Int64("price", *price.Currency))
			return nil
		}

		// Verify every basket line before touching the ledger.
		basket := make([]*model.Item, len(price.Basket))
		for i, line := range price.Basket {
			it, err := loadItem(tx, line.ItemID)
			if err != nil {
				return err
			}
			held, err := svc.inv.HeldTx(tx, char.ID, line.ItemID)
			if err != nil {
				return err
			}
			if held < line.Amount {
				return gameerr.New(gameerr.CodeInsufficientFunds,
					"holding %d of %s, basket needs %d", held, it.Name, line.Amount)
			}
			basket[i] = it
		}
		for i, line := range price.Basket {
			if err := svc.inv.RemoveTx(tx, char.ID, basket[i], line.Amount, inventory.ReasonSell); err != nil {
				return err
			}
		}
		if err := svc.inv.AddTx(tx, char.ID, sold, 1); err != nil {
			return err
		}
		svc.logger.Info("barter purchase",
			zap.String("character_id", char.ID.String()),
			zap.String("item_id", sold.ID.String()),
			zap.Int("basket_lines", len(price.Basket)))
		return nil
	})
}

// Listings returns a shop's listings in display order with barter lines
// preloaded.
func (svc *Service) Listings(ctx context.Context, shopID uuid.UUID) ([]model.ShopSellsItem, error) {
	var rows []model.ShopSellsItem
	err := svc.db.WithContext(ctx).Preload("BarterItems").
		Where("shop_id = ?", shopID).Order("default_order").Find(&rows).Error
	return rows, err
}

func loadItem(tx *gorm.DB, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := tx.Where("id = ?", id).First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, gameerr.New(gameerr.CodeNotFound, "item %s not found", id)
		}
		return nil, err
	}
	return &item, nil
}
