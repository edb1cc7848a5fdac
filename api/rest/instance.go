package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nocturne-works/dataport/game/progression"
	"github.com/nocturne-works/dataport/model"
)

// InstanceHandler handles instance REST endpoints.
type InstanceHandler struct {
	db     *gorm.DB
	chars  *CharacterHandler
	prog   *progression.Service
	logger *zap.Logger
}

// NewInstanceHandler creates an InstanceHandler.
func NewInstanceHandler(db *gorm.DB, chars *CharacterHandler, prog *progression.Service, logger *zap.Logger) *InstanceHandler {
	return &InstanceHandler{db: db, chars: chars, prog: prog, logger: logger}
}

// List returns all instance templates.
// GET /v1/instances
func (h *InstanceHandler) List(c *gin.Context) {
	var instances []model.Instance
	if err := h.db.Find(&instances).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"instances": instances})
}

// State returns the character's progress on one instance. A locked instance
// reports state "Locked" rather than an error.
// GET /v1/characters/:id/instances/:instance_id
func (h *InstanceHandler) State(c *gin.Context) {
	char, ok := h.chars.loadOwned(c)
	if !ok {
		return
	}
	instID, err := uuid.Parse(c.Param("instance_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid instance id"})
		return
	}
	state, found, err := h.prog.State(c.Request.Context(), char.ID, instID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"state": "Locked"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

// Unlock makes an instance enterable for a character.
// POST /v1/admin/characters/:id/instances/:instance_id/unlock
func (h *InstanceHandler) Unlock(c *gin.Context) {
	h.transition(c, h.prog.Unlock)
}

// Clear records an explicit clear event for an unlocked instance.
// POST /v1/admin/characters/:id/instances/:instance_id/clear
func (h *InstanceHandler) Clear(c *gin.Context) {
	h.transition(c, h.prog.Clear)
}

func (h *InstanceHandler) transition(c *gin.Context, fn func(ctx context.Context, charID, instID uuid.UUID) error) {
	charID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	instID, err := uuid.Parse(c.Param("instance_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid instance id"})
		return
	}
	if err := fn(c.Request.Context(), charID, instID); err != nil {
		writeError(c, err)
		return
	}
	h.logger.Info("instance transition",
		zap.String("character_id", charID.String()),
		zap.String("instance_id", instID.String()))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
