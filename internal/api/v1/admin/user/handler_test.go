package user_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	adminuser "github.com/somnifex/PromptManager/internal/api/v1/admin/user"
	"github.com/somnifex/PromptManager/internal/database"
	"github.com/somnifex/PromptManager/internal/models"
	"github.com/somnifex/PromptManager/pkg/logger"
)

func setupTestDB() {
	os.Setenv("JWT_SECRET", "test_secret")
	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.Migrator().DropTable(
		&models.PromptVersion{},
		"prompt_tags",
		&models.Prompt{},
		&models.Tag{},
		&models.User{},
	)
	if err := db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Prompt{},
		&models.PromptVersion{},
	); err != nil {
		panic("failed to migrate database")
	}

	database.DB = db
}

func setupTestRedis() *miniredis.Miniredis {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}

	database.RedisClient = redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr
}

func createUser(username, role string) models.User {
	u := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashedpassword",
		Role:     role,
		IsActive: true,
	}
	database.DB.Create(&u)
	return u
}

func testRouter(actor models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/api/v1/admin")
	group.Use(func(c *gin.Context) {
		c.Set("user", actor)
		c.Next()
	})
	adminuser.RegisterRoutes(group)
	return r
}

func doJSON(r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStatsHandler(t *testing.T) {
	setupTestDB()
	mr := setupTestRedis()
	defer mr.Close()

	admin := createUser("root", models.RoleAdmin)
	createUser("bob", models.RoleUser)

	w := doJSON(testRouter(admin), http.MethodGet, "/api/v1/admin/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			TotalUsers   int64  `json:"total_users"`
			ActiveUsers  int64  `json:"active_users"`
			SystemHealth string `json:"system_health"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Data.TotalUsers)
	assert.Equal(t, int64(2), resp.Data.ActiveUsers)
	assert.Equal(t, "good", resp.Data.SystemHealth)
}

func TestListUsersHandler(t *testing.T) {
	setupTestDB()
	mr := setupTestRedis()
	defer mr.Close()

	admin := createUser("root", models.RoleAdmin)
	createUser("alice", models.RoleUser)
	createUser("bob", models.RoleUser)

	r := testRouter(admin)

	w := doJSON(r, http.MethodGet, "/api/v1/admin/users", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data adminuser.UserListResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Data.TotalUsers)
	assert.Equal(t, 1, resp.Data.CurrentPage)
	assert.Len(t, resp.Data.Users, 3)

	w = doJSON(r, http.MethodGet, "/api/v1/admin/users?search=alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data.TotalUsers)
	assert.Equal(t, "alice", resp.Data.Users[0].Username)
}

func TestCreateUserHandler(t *testing.T) {
	setupTestDB()
	mr := setupTestRedis()
	defer mr.Close()

	admin := createUser("root", models.RoleAdmin)
	r := testRouter(admin)

	w := doJSON(r, http.MethodPost, "/api/v1/admin/users", gin.H{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         "password123",
		"password_confirm": "password123",
		"role":             "user",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Duplicate email
	w = doJSON(r, http.MethodPost, "/api/v1/admin/users", gin.H{
		"username":         "alice2",
		"email":            "alice@example.com",
		"password":         "password123",
		"password_confirm": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateUserHandler(t *testing.T) {
	setupTestDB()
	mr := setupTestRedis()
	defer mr.Close()

	admin := createUser("root", models.RoleAdmin)
	target := createUser("bob", models.RoleUser)
	r := testRouter(admin)

	w := doJSON(r, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%d", target.ID), gin.H{
		"role":      "admin",
		"is_active": false,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded models.User
	assert.NoError(t, database.DB.First(&reloaded, target.ID).Error)
	assert.Equal(t, models.RoleAdmin, reloaded.Role)
	assert.False(t, reloaded.IsActive)

	w = doJSON(r, http.MethodPut, "/api/v1/admin/users/9999", gin.H{"is_active": false})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUserHandlerRequiresActor(t *testing.T) {
	setupTestDB()
	mr := setupTestRedis()
	defer mr.Close()

	target := createUser("bob", models.RoleUser)

	// No user in the request context: the delete must not run with an
	// unknown actor.
	gin.SetMode(gin.TestMode)
	r := gin.New()
	adminuser.RegisterRoutes(r.Group("/api/v1/admin"))

	w := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", target.ID), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	database.DB.Model(&models.User{}).Where("id = ?", target.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeleteUserHandler(t *testing.T) {
	setupTestDB()
	mr := setupTestRedis()
	defer mr.Close()

	admin := createUser("root", models.RoleAdmin)
	target := createUser("bob", models.RoleUser)
	r := testRouter(admin)

	// Self-deletion is a client error
	w := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", admin.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", target.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", target.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
