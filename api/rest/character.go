package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nocturne-works/dataport/game/progression"
	mw "github.com/nocturne-works/dataport/middleware"
	"github.com/nocturne-works/dataport/model"
)

// CharacterHandler handles character REST endpoints.
type CharacterHandler struct {
	db     *gorm.DB
	prog   *progression.Service
	logger *zap.Logger
}

// NewCharacterHandler creates a new CharacterHandler.
func NewCharacterHandler(db *gorm.DB, prog *progression.Service, logger *zap.Logger) *CharacterHandler {
	return &CharacterHandler{db: db, prog: prog, logger: logger}
}

// List returns every character.
// GET /v1/admin/characters
func (h *CharacterHandler) List(c *gin.Context) {
	var chars []model.Character
	if err := h.db.Find(&chars).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": chars})
}

// Get returns one character by id.
// GET /v1/characters/:id
func (h *CharacterHandler) Get(c *gin.Context) {
	char, ok := h.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, char)
}

type createCharacterRequest struct {
	Name           string    `json:"name"             binding:"required,min=1,max=32"`
	GameServerID   int       `json:"game_server_id"   binding:"required"`
	AreaID         int       `json:"area_id"          binding:"required"`
	Location       []string  `json:"location"         binding:"required,len=3"`
	KeycloakUserID uuid.UUID `json:"keycloak_user_id" binding:"required"`
}

// Create registers a new character.
// POST /v1/admin/characters
func (h *CharacterHandler) Create(c *gin.Context) {
	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	loc, err := model.ParseLocation(req.Location[0], req.Location[1], req.Location[2])
	if err != nil {
		writeError(c, err)
		return
	}

	char := &model.Character{
		Name:           req.Name,
		GameServerID:   req.GameServerID,
		AreaID:         req.AreaID,
		Location:       loc,
		KeycloakUserID: req.KeycloakUserID,
	}
	if err := h.db.Create(char).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	h.logger.Info("character created",
		zap.String("character_id", char.ID.String()),
		zap.String("user_id", char.KeycloakUserID.String()))
	c.JSON(http.StatusCreated, gin.H{"id": char.ID})
}

type moveRequest struct {
	Location []string `json:"location" binding:"required,len=3"`
}

// Move updates the character's position in its current space.
// POST /v1/characters/:id/move
func (h *CharacterHandler) Move(c *gin.Context) {
	char, ok := h.loadOwned(c)
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	loc, err := model.ParseLocation(req.Location[0], req.Location[1], req.Location[2])
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.prog.Move(c.Request.Context(), char, loc); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, char)
}

type enterInstanceRequest struct {
	InstanceID uuid.UUID `json:"instance_id" binding:"required"`
	ClassID    int       `json:"class_id"    binding:"required"`
	Location   []string  `json:"location"    binding:"required,len=3"`
}

// EnterInstance moves the character into an unlocked instance.
// POST /v1/characters/:id/instance
func (h *CharacterHandler) EnterInstance(c *gin.Context) {
	char, ok := h.loadOwned(c)
	if !ok {
		return
	}
	var req enterInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	loc, err := model.ParseLocation(req.Location[0], req.Location[1], req.Location[2])
	if err != nil {
		writeError(c, err)
		return
	}

	var inst model.Instance
	if err := h.db.Where("id = ?", req.InstanceID).First(&inst).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "instance not found"})
		return
	}
	var active model.CharacterClass
	if err := h.db.Where("character_id = ? AND class_id = ?", char.ID, req.ClassID).
		First(&active).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "class not unlocked"})
		return
	}

	if err := h.prog.Enter(c.Request.Context(), char, &inst, loc, active.Level); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, char)
}

// LeaveInstance moves the character back to the open world.
// DELETE /v1/characters/:id/instance
func (h *CharacterHandler) LeaveInstance(c *gin.Context) {
	char, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if err := h.prog.Leave(c.Request.Context(), char); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, char)
}

type playtimeRequest struct {
	Seconds int64 `json:"seconds" binding:"required"`
}

// AddPlaytime accumulates session playtime.
// POST /v1/characters/:id/playtime
func (h *CharacterHandler) AddPlaytime(c *gin.Context) {
	char, ok := h.loadOwned(c)
	if !ok {
		return
	}
	var req playtimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.prog.AddPlaytime(c.Request.Context(), char.ID, req.Seconds); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// loadOwned fetches the path character and enforces ownership by comparing
// the opaque Keycloak subject; the id is never interpreted beyond equality.
func (h *CharacterHandler) loadOwned(c *gin.Context) (*model.Character, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	var char model.Character
	if err := h.db.Where("id = ?", id).First(&char).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		return nil, false
	}
	if char.KeycloakUserID != mw.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your character"})
		return nil, false
	}
	return &char, true
}
