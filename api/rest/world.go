package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nocturne-works/dataport/model"
)

// WorldHandler handles world-topology admin endpoints: datacenters, game
// servers, and areas are operator-managed reference data.
type WorldHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWorldHandler creates a WorldHandler.
func NewWorldHandler(db *gorm.DB, logger *zap.Logger) *WorldHandler {
	return &WorldHandler{db: db, logger: logger}
}

type registerDatacenterRequest struct {
	Name   string `json:"name"   binding:"required,max=32"`
	Region string `json:"region" binding:"required,max=32"`
}

// RegisterDatacenter creates a datacenter.
// POST /v1/admin/datacenters
func (h *WorldHandler) RegisterDatacenter(c *gin.Context) {
	var req registerDatacenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dc := &model.Datacenter{Name: req.Name, Region: req.Region}
	if err := h.db.Create(dc).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	h.logger.Info("datacenter registered", zap.Int("id", dc.ID), zap.String("name", dc.Name))
	c.JSON(http.StatusCreated, gin.H{"id": dc.ID})
}

// ListDatacenters returns all datacenters with their game servers.
// GET /v1/datacenters
func (h *WorldHandler) ListDatacenters(c *gin.Context) {
	var dcs []model.Datacenter
	if err := h.db.Find(&dcs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	var servers []model.GameServer
	if err := h.db.Find(&servers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"datacenters": dcs, "game_servers": servers})
}

type registerGameServerRequest struct {
	Name string `json:"name" binding:"required,max=32"`
}

// RegisterGameServer creates a game server inside a datacenter.
// POST /v1/admin/datacenters/:id/game_servers
func (h *WorldHandler) RegisterGameServer(c *gin.Context) {
	dcID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req registerGameServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var dc model.Datacenter
	if err := h.db.Where("id = ?", dcID).First(&dc).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "datacenter not found"})
		return
	}
	gs := &model.GameServer{Name: req.Name, DatacenterID: dc.ID}
	if err := h.db.Create(gs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	h.logger.Info("game server registered",
		zap.Int("id", gs.ID), zap.Int("datacenter_id", dc.ID))
	c.JSON(http.StatusCreated, gin.H{"id": gs.ID})
}

type registerAreaRequest struct {
	Name        string `json:"name" binding:"required,max=64"`
	Description string `json:"description"`
}

// RegisterArea creates an open-world area.
// POST /v1/admin/areas
func (h *WorldHandler) RegisterArea(c *gin.Context) {
	var req registerAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	area := &model.Area{Name: req.Name, Description: req.Description}
	if err := h.db.Create(area).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": area.ID})
}
