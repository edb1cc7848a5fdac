package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nocturne-works/dataport/game/inventory"
	"github.com/nocturne-works/dataport/model"
)

// InventoryHandler handles bag REST endpoints.
type InventoryHandler struct {
	db     *gorm.DB
	chars  *CharacterHandler
	inv    *inventory.Service
	logger *zap.Logger
}

// NewInventoryHandler creates an InventoryHandler.
func NewInventoryHandler(db *gorm.DB, chars *CharacterHandler, inv *inventory.Service, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{db: db, chars: chars, inv: inv, logger: logger}
}

// List returns the character's occupied slots in slot order.
// GET /v1/characters/:id/inventory
func (h *InventoryHandler) List(c *gin.Context) {
	char, ok := h.chars.loadOwned(c)
	if !ok {
		return
	}
	rows, err := h.inv.List(c.Request.Context(), char.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": rows})
}

type discardRequest struct {
	ItemID uuid.UUID `json:"item_id" binding:"required"`
	Amount int       `json:"amount"  binding:"required"`
}

// Discard throws items away. Key items refuse this.
// POST /v1/characters/:id/inventory/discard
func (h *InventoryHandler) Discard(c *gin.Context) {
	char, ok := h.chars.loadOwned(c)
	if !ok {
		return
	}
	var req discardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var item model.Item
	if err := h.db.Where("id = ?", req.ItemID).First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err := h.inv.Remove(c.Request.Context(), char.ID, &item, req.Amount, inventory.ReasonDiscard); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type grantRequest struct {
	ItemID uuid.UUID `json:"item_id" binding:"required"`
	Amount int       `json:"amount"  binding:"required"`
}

// Grant adds items to a character's bag.
// POST /v1/admin/characters/:id/inventory
func (h *InventoryHandler) Grant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var item model.Item
	if err := h.db.Where("id = ?", req.ItemID).First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err := h.inv.Add(c.Request.Context(), id, &item, req.Amount); err != nil {
		writeError(c, err)
		return
	}
	h.logger.Info("inventory granted",
		zap.String("character_id", id.String()),
		zap.String("item_id", item.ID.String()),
		zap.Int("amount", req.Amount))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
