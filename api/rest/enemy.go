package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nocturne-works/dataport/game/inventory"
	"github.com/nocturne-works/dataport/game/loot"
	"github.com/nocturne-works/dataport/model"
)

// LootHandler handles enemy defeat REST endpoints.
type LootHandler struct {
	db      *gorm.DB
	chars   *CharacterHandler
	loot    *loot.Service
	inv     *inventory.Service
	rng     loot.Rand
	rollMax int
	logger  *zap.Logger
}

// NewLootHandler creates a LootHandler. rng draws the per-kill roll.
func NewLootHandler(db *gorm.DB, chars *CharacterHandler, lootSvc *loot.Service, inv *inventory.Service, rng loot.Rand, rollMax int, logger *zap.Logger) *LootHandler {
	if rollMax <= 0 {
		rollMax = loot.DefaultRollMax
	}
	return &LootHandler{db: db, chars: chars, loot: lootSvc, inv: inv, rng: rng, rollMax: rollMax, logger: logger}
}

type defeatRequest struct {
	EnemyID uuid.UUID `json:"enemy_id" binding:"required"`
}

// Defeat rolls the enemy's drop table and credits any drops to the
// character's bag.
// POST /v1/characters/:id/defeat
func (h *LootHandler) Defeat(c *gin.Context) {
	char, ok := h.chars.loadOwned(c)
	if !ok {
		return
	}
	var req defeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var enemy model.Enemy
	if err := h.db.Preload("Drops").Where("id = ?", req.EnemyID).
		First(&enemy).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "enemy not found"})
		return
	}

	draw := h.rng.Intn(h.rollMax + 1)
	drops, err := h.loot.Roll(&enemy, draw)
	if err != nil {
		writeError(c, err)
		return
	}
	// All drops from one kill land together or not at all.
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		for _, d := range drops {
			var item model.Item
			if err := tx.Where("id = ?", d.ItemID).First(&item).Error; err != nil {
				return err
			}
			if err := h.inv.AddTx(tx, char.ID, &item, d.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeError(c, err)
		return
	}
	h.logger.Info("enemy defeated",
		zap.String("character_id", char.ID.String()),
		zap.String("enemy_id", enemy.ID.String()),
		zap.Int("draw", draw),
		zap.Int("drops", len(drops)))
	c.JSON(http.StatusOK, gin.H{"draw": draw, "drops": drops})
}
