package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShopType is a named shop category (general goods, weapons, ...).
type ShopType struct {
	ID   int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;size:32;not null" json:"name"`
}

// Shop is a vendor run by an NPC seller.
type Shop struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Seller      uuid.UUID `gorm:"type:char(36);not null" json:"seller"`
	Description string    `gorm:"type:text" json:"description"`
	Type        int       `gorm:"not null" json:"type"`
}

func (s *Shop) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ShopSellsItem is one listing in a shop. Exactly one pricing mode applies:
// either Price is set (currency) or BarterItems is non-empty (barter), never
// both. DefaultOrder only affects display order.
type ShopSellsItem struct {
	ID           int           `gorm:"primaryKey;autoIncrement" json:"id"`
	ShopID       uuid.UUID     `gorm:"type:char(36);index:idx_listing_shop;not null" json:"shop_id"`
	ItemID       uuid.UUID     `gorm:"type:char(36);not null" json:"item_id"`
	Price        *int64        `json:"price"`
	DefaultOrder int           `gorm:"default:0" json:"default_order"`
	BarterItems  []ItemAsPrice `gorm:"foreignKey:ShopSellsItemID" json:"barter_items"`
}

// ItemAsPrice is one line of a barter price basket.
type ItemAsPrice struct {
	ShopSellsItemID int       `gorm:"primaryKey" json:"shop_sells_item_id"`
	ItemID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"item_id"`
	Amount          int       `gorm:"not null" json:"amount"`
}
