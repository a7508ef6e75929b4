package handler

import (
	"fmt"
	"net/http"
	"strings"

	"myshelf/backend/internal/auth"
	"myshelf/backend/internal/middleware"
	"myshelf/backend/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// UserHandler serves the users resource.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// UserResponse defines the wire representation of a user. The password
// hash is never part of it.
type UserResponse struct {
	ID       uint    `json:"id" example:"1"`
	Username string  `json:"username" example:"anauser"`
	Name     string  `json:"name" example:"Ana User"`
	Email    *string `json:"email,omitempty" example:"ana@example.com"`
	Admin    bool    `json:"admin"`
}

func newUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Email:    user.Email,
		Admin:    user.Admin,
	}
}

// UpdateUserInput is the explicit allow-list of updatable fields. Absent
// fields are left untouched.
type UpdateUserInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Admin    *bool   `json:"admin"`
}

const (
	passwordMinLen = 8
	passwordMaxLen = 72 // bcrypt input limit
)

// Register godoc
// @Summary      Register a new user
// @Description  Creates a non-admin account. Any client-supplied admin flag is ignored.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        input body object{username=string,password=string,name=string} true "Registration Info"
// @Success      201  {object}  UserResponse
// @Failure      422  {object}  object{code=int,reason=string,message=string,location=string}
// @Router       /users [post]
func (h *UserHandler) Register(c *gin.Context) {
	// The body is inspected as a raw document so that missing fields,
	// wrong types and out-of-range values each get their own error.
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortMissingFields(c, "username", "password")
		return
	}

	for _, field := range []string{"username", "password"} {
		if _, ok := body[field]; !ok {
			abortValidation(c, "Missing field", field)
			return
		}
	}

	for _, field := range []string{"username", "password", "name"} {
		if v, ok := body[field]; ok {
			if _, isString := v.(string); !isString {
				abortValidation(c, "Incorrect field type: expected string", field)
				return
			}
		}
	}

	username := body["username"].(string)
	password := body["password"].(string)
	name, _ := body["name"].(string)

	for _, f := range []struct{ field, value string }{{"username", username}, {"password", password}} {
		if f.value != strings.TrimSpace(f.value) {
			abortValidation(c, "Cannot start or end with whitespace", f.field)
			return
		}
	}

	if len(username) < 1 {
		abortValidation(c, "Must be at least 1 characters long", "username")
		return
	}
	if len(password) < passwordMinLen {
		abortValidation(c, fmt.Sprintf("Must be at least %d characters long", passwordMinLen), "password")
		return
	}
	if len(password) > passwordMaxLen {
		abortValidation(c, fmt.Sprintf("Must be at most %d characters long", passwordMaxLen), "password")
		return
	}

	var count int64
	if err := h.db.Model(&models.User{}).Where("username = ?", strings.ToLower(username)).Count(&count).Error; err != nil {
		abortInternal(c)
		return
	}
	if count > 0 {
		abortValidation(c, "Username already taken", "username")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		abortInternal(c)
		return
	}

	// Self-registration always produces a regular account; an `admin`
	// value in the body is ignored. Promotion goes through the update
	// path and requires an existing admin.
	user := models.User{
		Username:     username,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hashed),
	}
	if err := h.db.Create(&user).Error; err != nil {
		abortInternal(c)
		return
	}

	c.Header("Location", fmt.Sprintf("%s/%d", c.Request.URL.Path, user.ID))
	c.JSON(http.StatusCreated, newUserResponse(user))
}

// List godoc
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   UserResponse
// @Failure      401  {object}  ErrorResponse "Unauthorized"
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var users []models.User
	if err := h.db.Order("username ASC").Find(&users).Error; err != nil {
		abortInternal(c)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, newUserResponse(user))
	}
	c.JSON(http.StatusOK, response)
}

// Get godoc
// @Summary      Get a single user
// @Tags         users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200  {object}  UserResponse
// @Failure      400  {object}  ErrorResponse "The `id` is not valid"
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	var user models.User
	if err := h.db.First(&user, middleware.IDParam(c)).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// Update godoc
// @Summary      Update a user
// @Description  Users may update their own name, email and password. The admin flag is changeable only by an admin.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true  "User ID"
// @Param        input body      UpdateUserInput true  "Fields to change"
// @Success      200  {object}  UserResponse
// @Failure      401  {object}  ErrorResponse "Unauthorized"
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	principal, ok := auth.CurrentUser(c)
	if !ok {
		auth.Unauthorized(c)
		return
	}
	targetID := middleware.IDParam(c)

	var input UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		abortMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Per-field policy: the admin flag needs an admin actor; everything
	// else is strictly self-service.
	if input.Admin != nil && !principal.Admin {
		auth.Unauthorized(c)
		return
	}
	if (input.Name != nil || input.Email != nil || input.Password != nil) && principal.ID != targetID {
		auth.Unauthorized(c)
		return
	}

	if input.Password != nil {
		password := *input.Password
		if password != strings.TrimSpace(password) {
			abortValidation(c, "Cannot start or end with whitespace", "password")
			return
		}
		if len(password) < passwordMinLen {
			abortValidation(c, fmt.Sprintf("Must be at least %d characters long", passwordMinLen), "password")
			return
		}
		if len(password) > passwordMaxLen {
			abortValidation(c, fmt.Sprintf("Must be at most %d characters long", passwordMaxLen), "password")
			return
		}
	}

	// Email carries a unique index; surface the conflict as a validation
	// failure rather than letting the constraint violation bubble up.
	if input.Email != nil {
		var count int64
		err := h.db.Model(&models.User{}).
			Where("email = ? AND id <> ?", *input.Email, targetID).
			Count(&count).Error
		if err != nil {
			abortInternal(c)
			return
		}
		if count > 0 {
			abortValidation(c, "Email already taken", "email")
			return
		}
	}

	var user models.User
	if err := h.db.First(&user, targetID).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			abortInternal(c)
			return
		}
		updates["password_hash"] = string(hashed)
	}
	if input.Admin != nil {
		updates["admin"] = *input.Admin
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			abortInternal(c)
			return
		}
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

// Delete godoc
// @Summary      Delete a user
// @Description  A user may delete only their own account; there is no admin override. The user's shelved games are removed as well.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      204  "deleted"
// @Failure      400  {object}  ErrorResponse "You can only delete your own account"
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	principal, ok := auth.CurrentUser(c)
	if !ok {
		auth.Unauthorized(c)
		return
	}
	targetID := middleware.IDParam(c)

	if principal.ID != targetID {
		abortMessage(c, http.StatusBadRequest, "You can only delete your own account")
		return
	}

	var user models.User
	if err := h.db.First(&user, targetID).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	var gameIDs []uint
	if err := h.db.Model(&models.ShelfItem{}).Where("user_id = ?", targetID).Distinct("game_id").Pluck("game_id", &gameIDs).Error; err != nil {
		abortInternal(c)
		return
	}

	// The cascade is issued as independent operations awaited together,
	// not as a transaction. A crash in between leaves partial state,
	// which the system does not detect or repair.
	g := new(errgroup.Group)
	g.Go(func() error {
		if len(gameIDs) == 0 {
			return nil
		}
		if err := h.db.Exec("DELETE FROM game_tags WHERE game_id IN ?", gameIDs).Error; err != nil {
			return err
		}
		if err := h.db.Where("game_id IN ?", gameIDs).Delete(&models.ShelfItem{}).Error; err != nil {
			return err
		}
		return h.db.Delete(&models.Game{}, gameIDs).Error
	})
	g.Go(func() error {
		return h.db.Where("user_id = ?", targetID).Delete(&models.ShelfItem{}).Error
	})
	if err := g.Wait(); err != nil {
		abortInternal(c)
		return
	}

	if err := h.db.Delete(&user).Error; err != nil {
		abortInternal(c)
		return
	}

	c.Status(http.StatusNoContent)
}
