package handler

import (
	"net/http"
	"strings"
	"time"

	"myshelf/backend/internal/auth"
	"myshelf/backend/internal/models"
	"myshelf/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler serves login and token refresh.
type AuthHandler struct {
	db     *gorm.DB
	secret string
	expiry time.Duration
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(db *gorm.DB, secret string, expiry time.Duration) *AuthHandler {
	return &AuthHandler{db: db, secret: secret, expiry: expiry}
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Username string `json:"username" binding:"required" example:"anauser"`
	Password string `json:"password" binding:"required" example:"password"`
}

// TokenResponse carries a freshly signed bearer token.
type TokenResponse struct {
	AuthToken string `json:"authToken"`
}

func claimsFor(user models.User) jwt.UserClaims {
	return jwt.UserClaims{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Admin:    user.Admin,
	}
}

// Login godoc
// @Summary      Log in
// @Description  Authenticates a user and returns a signed bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Credentials"
// @Success      200  {object}  TokenResponse
// @Failure      401  {object}  ErrorResponse "Unauthorized"
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		auth.Unauthorized(c)
		return
	}

	// An unknown username and a bad password surface identically.
	var user models.User
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if err := h.db.Where("username = ?", username).First(&user).Error; err != nil {
		auth.Unauthorized(c)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		auth.Unauthorized(c)
		return
	}

	h.issue(c, claimsFor(user))
}

// Refresh godoc
// @Summary      Refresh a token
// @Description  Re-signs the embedded principal snapshot with a fresh expiry. Cheap, but the snapshot may be stale.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  TokenResponse
// @Failure      401  {object}  ErrorResponse "Unauthorized"
// @Router       /refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	principal, ok := auth.CurrentUser(c)
	if !ok {
		auth.Unauthorized(c)
		return
	}

	h.issue(c, principal)
}

// HardRefresh godoc
// @Summary      Hard-refresh a token
// @Description  Re-reads the user from the store and signs a token with current data. Fixes snapshot staleness at the cost of a lookup.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  TokenResponse
// @Failure      401  {object}  ErrorResponse "Unauthorized"
// @Router       /hard-refresh [post]
func (h *AuthHandler) HardRefresh(c *gin.Context) {
	principal, ok := auth.CurrentUser(c)
	if !ok {
		auth.Unauthorized(c)
		return
	}

	// A token for a user that no longer exists is an invalid credential.
	var user models.User
	if err := h.db.First(&user, principal.ID).Error; err != nil {
		auth.Unauthorized(c)
		return
	}

	h.issue(c, claimsFor(user))
}

func (h *AuthHandler) issue(c *gin.Context, user jwt.UserClaims) {
	token, err := jwt.GenerateToken(h.secret, user, h.expiry)
	if err != nil {
		abortInternal(c)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{AuthToken: token})
}
