package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nocturne-works/dataport/audit"
	"github.com/nocturne-works/dataport/game/quest"
	mw "github.com/nocturne-works/dataport/middleware"
	"github.com/nocturne-works/dataport/model"
)

// QuestHandler handles quest REST endpoints.
type QuestHandler struct {
	db     *gorm.DB
	chars  *CharacterHandler
	quests *quest.Service
	audit  *audit.Service
	logger *zap.Logger
}

// NewQuestHandler creates a QuestHandler.
func NewQuestHandler(db *gorm.DB, chars *CharacterHandler, quests *quest.Service, auditSvc *audit.Service, logger *zap.Logger) *QuestHandler {
	return &QuestHandler{db: db, chars: chars, quests: quests, audit: auditSvc, logger: logger}
}

// Available lists quests the character's active class could accept.
// GET /v1/characters/:id/quests/available?class_id=N
func (h *QuestHandler) Available(c *gin.Context) {
	char, active, class, ok := h.loadActors(c)
	if !ok {
		return
	}
	quests, err := h.quests.Available(c.Request.Context(), char, active, class)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quests": quests})
}

// Accept accepts a quest for the character.
// POST /v1/characters/:id/quests/:quest_id/accept?class_id=N
func (h *QuestHandler) Accept(c *gin.Context) {
	char, active, class, ok := h.loadActors(c)
	if !ok {
		return
	}
	q, ok := h.loadQuest(c)
	if !ok {
		return
	}

	rel, err := h.quests.Accept(c.Request.Context(), char, active, class, q)
	h.auditQuest(c, char, q, "quest.accept", err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}

// Advance submits evidence for the character's active objective.
// POST /v1/characters/:id/quests/:quest_id/advance?class_id=N
func (h *QuestHandler) Advance(c *gin.Context) {
	char, active, _, ok := h.loadActors(c)
	if !ok {
		return
	}
	q, ok := h.loadQuest(c)
	if !ok {
		return
	}
	var ev quest.Evidence
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rel, err := h.quests.AdvanceObjective(c.Request.Context(), char, active, q, ev)
	h.auditQuest(c, char, q, "quest.advance", err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rel)
}

func (h *QuestHandler) loadActors(c *gin.Context) (*model.Character, *model.CharacterClass, *model.Class, bool) {
	char, ok := h.chars.loadOwned(c)
	if !ok {
		return nil, nil, nil, false
	}
	var active model.CharacterClass
	if err := h.db.Where("character_id = ? AND class_id = ?", char.ID, c.Query("class_id")).
		First(&active).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "class not unlocked"})
		return nil, nil, nil, false
	}
	var class model.Class
	if err := h.db.Where("id = ?", active.ClassID).First(&class).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "class not found"})
		return nil, nil, nil, false
	}
	return char, &active, &class, true
}

func (h *QuestHandler) loadQuest(c *gin.Context) (*model.Quest, bool) {
	id, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest id"})
		return nil, false
	}
	var q model.Quest
	if err := h.db.Where("id = ?", id).First(&q).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
		return nil, false
	}
	return &q, true
}

func (h *QuestHandler) auditQuest(c *gin.Context, char *model.Character, q *model.Quest, action string, err error) {
	entry := audit.Entry{
		TraceID:     mw.GetTraceID(c),
		CharacterID: &char.ID,
		UserID:      &char.KeycloakUserID,
		Action:      action,
		Request:     gin.H{"quest_id": q.ID},
		IP:          c.ClientIP(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	h.audit.Log(entry)
}
