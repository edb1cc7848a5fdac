package rest_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturne-works/dataport/model"
)

func TestCharacterCreate_Admin(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()

	w := e.asAdmin(t, http.MethodPost, "/v1/admin/characters", map[string]interface{}{
		"name":             "Hikari",
		"game_server_id":   1,
		"area_id":          1,
		"location":         []string{"5", "5", "0"},
		"keycloak_user_id": userID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	id := decode(t, w)["id"].(string)
	var char model.Character
	require.NoError(t, e.db.First(&char, "id = ?", id).Error)
	assert.Equal(t, "Hikari", char.Name)
	assert.Equal(t, userID, char.KeycloakUserID)
}

func TestCharacterCreate_InvalidLocation(t *testing.T) {
	e := newEnv(t)

	w := e.asAdmin(t, http.MethodPost, "/v1/admin/characters", map[string]interface{}{
		"name":             "Hikari",
		"game_server_id":   1,
		"area_id":          1,
		"location":         []string{"5", "5", "10000"},
		"keycloak_user_id": uuid.New(),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decode(t, w)["code"])
}

func TestCharacterCreate_RequiresAdminKey(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/v1/admin/characters", map[string]interface{}{}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCharacterGet_Owner(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	char := e.seedCharacter(t, userID)

	w := e.asUser(t, userID, http.MethodGet, "/v1/characters/"+char.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, char.Name, decode(t, w)["name"])
}

func TestCharacterGet_OtherUserForbidden(t *testing.T) {
	e := newEnv(t)
	char := e.seedCharacter(t, uuid.New())

	w := e.asUser(t, uuid.New(), http.MethodGet, "/v1/characters/"+char.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCharacterGet_Unknown(t *testing.T) {
	e := newEnv(t)
	w := e.asUser(t, uuid.New(), http.MethodGet, "/v1/characters/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCharacterMove_World(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	char := e.seedCharacter(t, userID)

	w := e.asUser(t, userID, http.MethodPost, "/v1/characters/"+char.ID.String()+"/move",
		map[string]interface{}{"location": []string{"42.5", "17", "0.125"}})
	require.Equal(t, http.StatusOK, w.Code)

	var stored model.Character
	require.NoError(t, e.db.First(&stored, "id = ?", char.ID).Error)
	want, _ := model.ParseLocation("42.5", "17", "0.125")
	assert.True(t, want.Equal(stored.Location))
}

func TestCharacterMove_OutOfRange(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	char := e.seedCharacter(t, userID)

	w := e.asUser(t, userID, http.MethodPost, "/v1/characters/"+char.ID.String()+"/move",
		map[string]interface{}{"location": []string{"-1", "0", "0"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCharacterPlaytime(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	char := e.seedCharacter(t, userID)

	w := e.asUser(t, userID, http.MethodPost, "/v1/characters/"+char.ID.String()+"/playtime",
		map[string]interface{}{"seconds": 300})
	require.Equal(t, http.StatusOK, w.Code)

	var stored model.Character
	require.NoError(t, e.db.First(&stored, "id = ?", char.ID).Error)
	assert.Equal(t, int64(300), stored.Playtime)
}

func TestCharacterInstanceFlow(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	char := e.seedCharacter(t, userID)
	class := &model.Class{Name: "Knight", Type: model.ClassTypeMelee}
	require.NoError(t, e.db.Create(class).Error)
	require.NoError(t, e.db.Create(&model.CharacterClass{
		CharacterID: char.ID, ClassID: class.ID, Level: 10,
	}).Error)
	inst := &model.Instance{Name: "Dark Tunnel", Type: model.InstanceTypeDungeon, PlayerCount: 4, MinLevel: 5}
	require.NoError(t, e.db.Create(inst).Error)

	base := "/v1/characters/" + char.ID.String()
	enterBody := map[string]interface{}{
		"instance_id": inst.ID,
		"class_id":    class.ID,
		"location":    []string{"0", "0", "0"},
	}

	// Locked instance refuses entry.
	w := e.asUser(t, userID, http.MethodPost, base+"/instance", enterBody)
	assert.Equal(t, http.StatusLocked, w.Code)

	// Admin unlock, then entry succeeds.
	unlockPath := fmt.Sprintf("/v1/admin/characters/%s/instances/%s/unlock", char.ID, inst.ID)
	require.Equal(t, http.StatusOK, e.asAdmin(t, http.MethodPost, unlockPath, nil).Code)

	w = e.asUser(t, userID, http.MethodPost, base+"/instance", enterBody)
	require.Equal(t, http.StatusOK, w.Code)

	statePath := fmt.Sprintf("%s/instances/%s", base, inst.ID)
	w = e.asUser(t, userID, http.MethodGet, statePath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Unlocked", decode(t, w)["state"])

	// Leave clears both instance fields.
	w = e.asUser(t, userID, http.MethodDelete, base+"/instance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored model.Character
	require.NoError(t, e.db.First(&stored, "id = ?", char.ID).Error)
	assert.Nil(t, stored.InstanceID)
	assert.Nil(t, stored.InstanceLocation)
}

func TestInstanceState_LockedReported(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	char := e.seedCharacter(t, userID)
	inst := &model.Instance{Name: "Sealed Vault", Type: model.InstanceTypeRaid, PlayerCount: 8, MinLevel: 50}
	require.NoError(t, e.db.Create(inst).Error)

	path := fmt.Sprintf("/v1/characters/%s/instances/%s", char.ID, inst.ID)
	w := e.asUser(t, userID, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Locked", decode(t, w)["state"])
}
