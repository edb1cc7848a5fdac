package rest_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturne-works/dataport/game/inventory"
	"github.com/nocturne-works/dataport/model"
)

type questSeed struct {
	char  *model.Character
	class *model.Class
	quest *model.Quest
	npcID uuid.UUID
}

// seedQuestWorld creates a level-10 melee character and a one-objective NPC
// quest it qualifies for.
func (e *env) seedQuestWorld(t *testing.T, userID uuid.UUID) questSeed {
	t.Helper()
	char := e.seedCharacter(t, userID)
	class := &model.Class{Name: "Knight", Type: model.ClassTypeMelee}
	require.NoError(t, e.db.Create(class).Error)
	require.NoError(t, e.db.Create(&model.CharacterClass{
		CharacterID: char.ID, ClassID: class.ID, Level: 10,
	}).Error)

	q := &model.Quest{
		Name:                 "First Steps",
		ClassTypeRequirement: model.ClassTypeMelee,
		Type:                 model.QuestTypeNormal,
	}
	require.NoError(t, e.db.Create(q).Error)
	npcID := uuid.New()
	require.NoError(t, e.db.Create(&model.QuestObjective{
		QuestID: q.ID, OrderInQuest: 0, NPCID: &npcID,
	}).Error)
	return questSeed{char: char, class: class, quest: q, npcID: npcID}
}

func (s questSeed) path(op string) string {
	base := fmt.Sprintf("/v1/characters/%s/quests", s.char.ID)
	if op == "available" {
		return fmt.Sprintf("%s/available?class_id=%d", base, s.class.ID)
	}
	return fmt.Sprintf("%s/%s/%s?class_id=%d", base, s.quest.ID, op, s.class.ID)
}

func TestQuestAvailable(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	s := e.seedQuestWorld(t, userID)

	w := e.asUser(t, userID, http.MethodGet, s.path("available"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	quests := decode(t, w)["quests"].([]interface{})
	require.Len(t, quests, 1)
	assert.Equal(t, "First Steps", quests[0].(map[string]interface{})["name"])
}

func TestQuestAvailable_UnknownClass(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	s := e.seedQuestWorld(t, userID)

	path := fmt.Sprintf("/v1/characters/%s/quests/available?class_id=999", s.char.ID)
	w := e.asUser(t, userID, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuestAcceptAndAdvance(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	s := e.seedQuestWorld(t, userID)

	w := e.asUser(t, userID, http.MethodPost, s.path("accept"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Accepted", decode(t, w)["state"])

	w = e.asUser(t, userID, http.MethodPost, s.path("advance"),
		map[string]interface{}{"npc_id": s.npcID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cleared", decode(t, w)["state"])
}

func TestQuestAccept_Twice(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	s := e.seedQuestWorld(t, userID)

	require.Equal(t, http.StatusOK, e.asUser(t, userID, http.MethodPost, s.path("accept"), nil).Code)

	w := e.asUser(t, userID, http.MethodPost, s.path("accept"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_accepted", decode(t, w)["code"])
}

func TestQuestAdvance_WrongEvidence(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	s := e.seedQuestWorld(t, userID)
	require.Equal(t, http.StatusOK, e.asUser(t, userID, http.MethodPost, s.path("accept"), nil).Code)

	w := e.asUser(t, userID, http.MethodPost, s.path("advance"),
		map[string]interface{}{"enemy_id": uuid.New()})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "objective_mismatch", decode(t, w)["code"])
}

func TestQuestAdvance_NotAccepted(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	s := e.seedQuestWorld(t, userID)

	w := e.asUser(t, userID, http.MethodPost, s.path("advance"),
		map[string]interface{}{"npc_id": s.npcID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_available", decode(t, w)["code"])
}

func TestLootDefeat_CreditsDrops(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	char := e.seedCharacter(t, userID)
	scale := e.seedItem(t, "Numemon Scale", false)
	enemy := &model.Enemy{
		Name:  "Numemon",
		Drops: []model.EnemyDrop{{ItemID: scale.ID, MinRoll: 0, Min: 2, Max: 2}},
	}
	require.NoError(t, e.db.Create(enemy).Error)

	w := e.asUser(t, userID, http.MethodPost, "/v1/characters/"+char.ID.String()+"/defeat",
		map[string]interface{}{"enemy_id": enemy.ID})
	require.Equal(t, http.StatusOK, w.Code)
	drops := decode(t, w)["drops"].([]interface{})
	require.Len(t, drops, 1)

	var slot model.InventoryItem
	require.NoError(t, e.db.Where("character_id = ? AND item_id = ?", char.ID, scale.ID).
		First(&slot).Error)
	assert.Equal(t, 2, slot.Amount)
}

func TestLootDefeat_RareDropMissedAtLowDraw(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	char := e.seedCharacter(t, userID)
	relic := e.seedItem(t, "Ancient Relic", false)
	// fixedRand draws 0, below the floor.
	enemy := &model.Enemy{
		Name:  "Etemon",
		Drops: []model.EnemyDrop{{ItemID: relic.ID, MinRoll: 9000, Min: 1, Max: 1}},
	}
	require.NoError(t, e.db.Create(enemy).Error)

	w := e.asUser(t, userID, http.MethodPost, "/v1/characters/"+char.ID.String()+"/defeat",
		map[string]interface{}{"enemy_id": enemy.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["drops"])
}

func TestLootDefeat_DropGrantAllOrNothing(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	char := e.seedCharacter(t, userID)

	// Leave exactly one free slot so the second drop cannot fit.
	filler := e.seedItem(t, "Rusted Gear", true)
	for slot := 0; slot < inventory.DefaultMaxSlots-1; slot++ {
		require.NoError(t, e.db.Create(&model.InventoryItem{
			CharacterID: char.ID, Slot: slot, ItemID: filler.ID, Amount: 1,
		}).Error)
	}

	scale := e.seedItem(t, "Numemon Scale", false)
	hide := e.seedItem(t, "Numemon Hide", false)
	enemy := &model.Enemy{
		Name: "Numemon",
		Drops: []model.EnemyDrop{
			{ItemID: scale.ID, MinRoll: 0, Min: 1, Max: 1},
			{ItemID: hide.ID, MinRoll: 0, Min: 1, Max: 1},
		},
	}
	require.NoError(t, e.db.Create(enemy).Error)

	w := e.asUser(t, userID, http.MethodPost, "/v1/characters/"+char.ID.String()+"/defeat",
		map[string]interface{}{"enemy_id": enemy.ID})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "slots_exhausted", decode(t, w)["code"])

	// The drop that did fit must not stay behind when the kill fails.
	var count int64
	require.NoError(t, e.db.Model(&model.InventoryItem{}).
		Where("character_id = ? AND item_id IN ?", char.ID, []uuid.UUID{scale.ID, hide.ID}).
		Count(&count).Error)
	assert.Zero(t, count)
}

func TestLootDefeat_UnknownEnemy(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	char := e.seedCharacter(t, userID)

	w := e.asUser(t, userID, http.MethodPost, "/v1/characters/"+char.ID.String()+"/defeat",
		map[string]interface{}{"enemy_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
