package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nocturne-works/dataport/api/rest"
	"github.com/nocturne-works/dataport/audit"
	"github.com/nocturne-works/dataport/cache/local"
	"github.com/nocturne-works/dataport/game/inventory"
	"github.com/nocturne-works/dataport/game/loot"
	"github.com/nocturne-works/dataport/game/progression"
	"github.com/nocturne-works/dataport/game/quest"
	"github.com/nocturne-works/dataport/game/shop"
	mw "github.com/nocturne-works/dataport/middleware"
	"github.com/nocturne-works/dataport/model"
	"github.com/nocturne-works/dataport/testutil"
)

const testAdminKey = "test-admin-key"

// fixedRand pins the loot draw so drop outcomes are deterministic.
type fixedRand struct{ v int }

func (f fixedRand) Intn(int) int { return f.v }

type env struct {
	db     *gorm.DB
	router *gin.Engine
	inv    *inventory.Service
	prog   *progression.Service
}

// newEnv wires the full handler stack against an in-memory DB, mirroring the
// production route table.
func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := zap.NewDevelopment()

	db := testutil.SetupTestDB(t)
	c, err := local.NewCache(local.Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(context.Background()) })

	invSvc := inventory.NewService(db, 0, logger)
	progSvc := progression.NewService(db, logger)
	questSvc := quest.NewService(db, invSvc, progSvc, logger)
	shopSvc := shop.NewService(db, invSvc, logger)
	lootSvc := loot.NewService(fixedRand{}, 0, logger)

	charH := rest.NewCharacterHandler(db, progSvc, logger)
	worldH := rest.NewWorldHandler(db, logger)
	questH := rest.NewQuestHandler(db, charH, questSvc, auditSvc, logger)
	shopH := rest.NewShopHandler(db, charH, shopSvc, c, time.Minute, auditSvc, logger)
	invH := rest.NewInventoryHandler(db, charH, invSvc, logger)
	lootH := rest.NewLootHandler(db, charH, lootSvc, invSvc, fixedRand{}, 0, logger)
	instH := rest.NewInstanceHandler(db, charH, progSvc, logger)

	r := gin.New()
	r.Use(mw.TraceID())
	v1 := r.Group("/v1")
	v1.GET("/datacenters", worldH.ListDatacenters)
	v1.GET("/instances", instH.List)
	v1.GET("/shops/:id", shopH.Detail)

	player := v1.Group("/characters", mw.Identity())
	player.GET("/:id", charH.Get)
	player.POST("/:id/move", charH.Move)
	player.POST("/:id/playtime", charH.AddPlaytime)
	player.POST("/:id/instance", charH.EnterInstance)
	player.DELETE("/:id/instance", charH.LeaveInstance)
	player.GET("/:id/instances/:instance_id", instH.State)
	player.GET("/:id/inventory", invH.List)
	player.POST("/:id/inventory/discard", invH.Discard)
	player.GET("/:id/quests/available", questH.Available)
	player.POST("/:id/quests/:quest_id/accept", questH.Accept)
	player.POST("/:id/quests/:quest_id/advance", questH.Advance)
	player.POST("/:id/purchase", shopH.Purchase)
	player.POST("/:id/defeat", lootH.Defeat)

	admin := v1.Group("/admin", mw.AdminKey(testAdminKey))
	admin.GET("/characters", charH.List)
	admin.POST("/characters", charH.Create)
	admin.POST("/characters/:id/inventory", invH.Grant)
	admin.POST("/characters/:id/instances/:instance_id/unlock", instH.Unlock)
	admin.POST("/characters/:id/instances/:instance_id/clear", instH.Clear)
	admin.POST("/datacenters", worldH.RegisterDatacenter)
	admin.POST("/datacenters/:id/game_servers", worldH.RegisterGameServer)
	admin.POST("/areas", worldH.RegisterArea)

	return &env{db: db, router: r, inv: invSvc, prog: progSvc}
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.RegisteredClaims{Subject: userID.String()})
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (e *env) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) asUser(t *testing.T, userID uuid.UUID, method, path string, body interface{}) *httptest.ResponseRecorder {
	return e.do(t, method, path, body, map[string]string{"Authorization": bearer(t, userID)})
}

func (e *env) asAdmin(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	return e.do(t, method, path, body, map[string]string{"X-Admin-Key": testAdminKey})
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// seedCharacter creates a character owned by userID directly in the DB.
func (e *env) seedCharacter(t *testing.T, userID uuid.UUID) *model.Character {
	t.Helper()
	loc, err := model.ParseLocation("10", "10", "0")
	require.NoError(t, err)
	char := &model.Character{
		Name:           "Koushiro-" + uuid.NewString()[:8],
		Location:       loc,
		KeycloakUserID: userID,
	}
	require.NoError(t, e.db.Create(char).Error)
	return char
}

func (e *env) seedItem(t *testing.T, name string, keyItem bool) *model.Item {
	t.Helper()
	item := &model.Item{Name: name, IsKeyItem: keyItem}
	require.NoError(t, e.db.Create(item).Error)
	return item
}
