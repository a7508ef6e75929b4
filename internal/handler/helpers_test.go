package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"myshelf/backend/internal/config"
	"myshelf/backend/internal/database"
	"myshelf/backend/internal/models"
	"myshelf/backend/internal/router"
	"myshelf/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive and
	// serializes the concurrent cascade deletes.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupDB(t)
	cfg := &config.Config{JWTSecret: testSecret, JWTExpiry: time.Hour}
	return router.New(db, cfg), db
}

func seedUser(t *testing.T, db *gorm.DB, username, password string, admin bool) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		Name:         "Test User",
		PasswordHash: string(hash),
		Admin:        admin,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedGame(t *testing.T, db *gorm.DB, title string, status models.GameStatus, min, max *int, tags ...*models.Tag) models.Game {
	t.Helper()

	game := models.Game{
		Title:      title,
		Status:     status,
		MinPlayers: min,
		MaxPlayers: max,
		Tags:       tags,
	}
	require.NoError(t, db.Create(&game).Error)
	return game
}

func seedTag(t *testing.T, db *gorm.DB, name string, category *models.TagCategory) models.Tag {
	t.Helper()

	tag := models.Tag{Name: name, Category: category}
	require.NoError(t, db.Create(&tag).Error)
	return tag
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()

	token, err := jwt.GenerateToken(testSecret, jwt.UserClaims{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Admin:    user.Admin,
	}, time.Hour)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, w, &body)
	return body.Message
}

func intPtr(n int) *int { return &n }
