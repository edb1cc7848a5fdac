package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nocturne-works/dataport/audit"
	"github.com/nocturne-works/dataport/cache"
	"github.com/nocturne-works/dataport/game/shop"
	mw "github.com/nocturne-works/dataport/middleware"
	"github.com/nocturne-works/dataport/model"
)

// ShopHandler handles shop REST endpoints.
type ShopHandler struct {
	db       *gorm.DB
	chars    *CharacterHandler
	shops    *shop.Service
	cache    cache.Cache
	cacheTTL time.Duration
	audit    *audit.Service
	logger   *zap.Logger
}

// NewShopHandler creates a ShopHandler.
func NewShopHandler(db *gorm.DB, chars *CharacterHandler, shops *shop.Service, c cache.Cache, cacheTTL time.Duration, auditSvc *audit.Service, logger *zap.Logger) *ShopHandler {
	return &ShopHandler{db: db, chars: chars, shops: shops, cache: c, cacheTTL: cacheTTL, audit: auditSvc, logger: logger}
}

// Detail returns the shop's listings in display order. Listings are designer
// reference data and are served from the cache when warm.
// GET /v1/shops/:id
func (h *ShopHandler) Detail(c *gin.Context) {
	shopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	key := shop.ListingsCacheKey(shopID)
	cached, err := h.cache.Get(c.Request.Context(), key)
	if err == nil {
		c.Data(http.StatusOK, "application/json", []byte(cached))
		return
	}
	if !cache.IsNotFound(err) {
		h.logger.Warn("shop cache get failed", zap.Error(err))
	}

	var sh model.Shop
	if err := h.db.Where("id = ?", shopID).First(&sh).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "shop not found"})
		return
	}
	listings, err := h.shops.Listings(c.Request.Context(), shopID)
	if err != nil {
		writeError(c, err)
		return
	}

	body, _ := json.Marshal(gin.H{"shop": sh, "listings": listings})
	if err := h.cache.Set(c.Request.Context(), key, string(body), h.cacheTTL); err != nil {
		h.logger.Warn("shop cache set failed", zap.Error(err))
	}
	c.Data(http.StatusOK, "application/json", body)
}

type purchaseRequest struct {
	ListingID int `json:"listing_id" binding:"required"`
}

// Purchase buys one listing for the character.
// POST /v1/characters/:id/purchase
func (h *ShopHandler) Purchase(c *gin.Context) {
	char, ok := h.chars.loadOwned(c)
	if !ok {
		return
	}
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var listing model.ShopSellsItem
	if err := h.db.Preload("BarterItems").
		Where("id = ?", req.ListingID).First(&listing).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}

	err := h.shops.Purchase(c.Request.Context(), char, &listing)
	h.audit.Log(audit.Entry{
		TraceID:     mw.GetTraceID(c),
		CharacterID: &char.ID,
		UserID:      &char.KeycloakUserID,
		Action:      "shop.purchase",
		Request:     gin.H{"listing_id": strconv.Itoa(listing.ID)},
		Error:       errString(err),
		IP:          c.ClientIP(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "digidollar": char.Digidollar})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
