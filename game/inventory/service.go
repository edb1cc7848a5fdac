package inventory

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nocturne-works/dataport/gameerr"
	"github.com/nocturne-works/dataport/model"
)

// DefaultMaxSlots is the bag size when no override is configured.
const DefaultMaxSlots = 140

// Reason tags why items leave the ledger. Key items refuse sale and discard
// but may still be consumed by quest turn-ins.
type Reason string

const (
	ReasonGameplay Reason = "gameplay"
	ReasonSell     Reason = "sell"
	ReasonDiscard  Reason = "discard"
	ReasonQuest    Reason = "quest"
)

// Service maintains character item holdings: slot placement, stacking, and
// key-item protection.
type Service struct {
	db       *gorm.DB
	maxSlots int
	logger   *zap.Logger
}

// NewService creates an inventory Service. maxSlots <= 0 selects the default.
func NewService(db *gorm.DB, maxSlots int, logger *zap.Logger) *Service {
	if maxSlots <= 0 {
		maxSlots = DefaultMaxSlots
	}
	return &Service{db: db, maxSlots: maxSlots, logger: logger}
}

// Add grants amount of item to the character in its own transaction.
func (svc *Service) Add(ctx context.Context, charID uuid.UUID, item *model.Item, amount int) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return svc.AddTx(tx, charID, item, amount)
	})
}

// AddTx grants amount of item inside the caller's transaction. Stackable
// items merge into the slot already holding the item; everything else takes
// the lowest free slot.
func (svc *Service) AddTx(tx *gorm.DB, charID uuid.UUID, item *model.Item, amount int) error {
	if amount < 1 {
		return gameerr.New(gameerr.CodeValidation, "amount %d must be at least 1", amount)
	}

	if item.Stackable() {
		// Atomic in-place merge so two racing adds cannot lose an update.
		res := tx.Model(&model.InventoryItem{}).
			Where("character_id = ? AND item_id = ?", charID, item.ID).
			Update("amount", gorm.Expr("amount + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
	}

	slot, err := lowestFreeSlot(tx, charID, svc.maxSlots)
	if err != nil {
		return err
	}
	row := &model.InventoryItem{CharacterID: charID, Slot: slot, ItemID: item.ID, Amount: amount}
	return tx.Create(row).Error
}

// Remove takes amount of item from the character in its own transaction.
func (svc *Service) Remove(ctx context.Context, charID uuid.UUID, item *model.Item, amount int, reason Reason) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return svc.RemoveTx(tx, charID, item, amount, reason)
	})
}

// RemoveTx takes amount of item inside the caller's transaction, consuming
// slots in ascending order. A slot emptied to zero is deleted.
func (svc *Service) RemoveTx(tx *gorm.DB, charID uuid.UUID, item *model.Item, amount int, reason Reason) error {
	if amount < 1 {
		return gameerr.New(gameerr.CodeValidation, "amount %d must be at least 1", amount)
	}
	if item.IsKeyItem && (reason == ReasonSell || reason == ReasonDiscard) {
		return gameerr.New(gameerr.CodeUndiscardable, "%s is a key item", item.Name)
	}

	var rows []model.InventoryItem
	if err := tx.Where("character_id = ? AND item_id = ?", charID, item.ID).
		Order("slot").Find(&rows).Error; err != nil {
		return err
	}
	held := 0
	for _, r := range rows {
		held += r.Amount
	}
	if held < amount {
		return gameerr.New(gameerr.CodeInsufficientQuantity,
			"holding %d of %s, need %d", held, item.Name, amount)
	}

	remaining := amount
	for _, r := range rows {
		if remaining == 0 {
			break
		}
		take := r.Amount
		if take > remaining {
			take = remaining
		}
		remaining -= take
		if take == r.Amount {
			if err := tx.Where("character_id = ? AND slot = ?", charID, r.Slot).
				Delete(&model.InventoryItem{}).Error; err != nil {
				return err
			}
			continue
		}
		if err := tx.Model(&model.InventoryItem{}).
			Where("character_id = ? AND slot = ?", charID, r.Slot).
			Update("amount", r.Amount-take).Error; err != nil {
			return err
		}
	}
	return nil
}

// Held returns how many of item the character holds across all slots.
func (svc *Service) Held(ctx context.Context, charID, itemID uuid.UUID) (int, error) {
	return svc.HeldTx(svc.db.WithContext(ctx), charID, itemID)
}

// HeldTx is Held inside the caller's transaction.
func (svc *Service) HeldTx(tx *gorm.DB, charID, itemID uuid.UUID) (int, error) {
	var rows []model.InventoryItem
	if err := tx.Where("character_id = ? AND item_id = ?", charID, itemID).
		Find(&rows).Error; err != nil {
		return 0, err
	}
	total := 0
	for _, r := range rows {
		total += r.Amount
	}
	return total, nil
}

// List returns all occupied slots for the character in slot order.
func (svc *Service) List(ctx context.Context, charID uuid.UUID) ([]model.InventoryItem, error) {
	var rows []model.InventoryItem
	err := svc.db.WithContext(ctx).
		Where("character_id = ?", charID).Order("slot").Find(&rows).Error
	return rows, err
}

// lowestFreeSlot scans occupied slots in order and returns the first gap.
func lowestFreeSlot(tx *gorm.DB, charID uuid.UUID, maxSlots int) (int, error) {
	var slots []int
	if err := tx.Model(&model.InventoryItem{}).
		Where("character_id = ?", charID).Order("slot").
		Pluck("slot", &slots).Error; err != nil {
		return 0, err
	}
	free := len(slots)
	for i, s := range slots {
		if s != i {
			free = i
			break
		}
	}
	if free >= maxSlots {
		return 0, gameerr.New(gameerr.CodeSlotsExhausted, "all %d slots are occupied", maxSlots)
	}
	return free, nil
}
