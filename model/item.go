package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item is a designer-authored item definition. Key items are excluded from
// sale and discard flows; non-key items stack into a single inventory slot.
type Item struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Sellable    bool      `gorm:"default:true" json:"sellable"`
	IsKeyItem   bool      `gorm:"default:false" json:"is_key_item"`
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Stackable reports whether the item merges into an existing stack. There is
// no designer flag for this; every non-key item stacks.
func (i *Item) Stackable() bool {
	return !i.IsKeyItem
}

// InventoryItem is a single occupied bag slot. Amount is always at least 1;
// removing the last unit deletes the row. Keying on (character, slot) is what
// keeps two items from sharing a slot; key items may occupy several slots for
// the same item id.
type InventoryItem struct {
	CharacterID uuid.UUID `gorm:"type:char(36);primaryKey" json:"character_id"`
	Slot        int       `gorm:"primaryKey;autoIncrement:false" json:"slot"`
	ItemID      uuid.UUID `gorm:"type:char(36);index:idx_inventory_item;not null" json:"item_id"`
	Amount      int       `gorm:"default:1;not null" json:"amount"`
}

// Stat is a named item statistic (e.g. strength).
type Stat struct {
	ID   int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;size:32;not null" json:"name"`
}

// ItemStat assigns a stat value to an item.
type ItemStat struct {
	ItemID uuid.UUID `gorm:"type:char(36);primaryKey" json:"item_id"`
	StatID int       `gorm:"primaryKey" json:"stat_id"`
	Value  int       `gorm:"not null" json:"value"`
}
