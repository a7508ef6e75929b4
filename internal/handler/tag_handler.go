package handler

import (
	"fmt"
	"net/http"
	"time"

	"myshelf/backend/internal/middleware"
	"myshelf/backend/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// TagHandler serves the shared tag vocabulary.
type TagHandler struct {
	db *gorm.DB
}

// NewTagHandler creates a TagHandler.
func NewTagHandler(db *gorm.DB) *TagHandler {
	return &TagHandler{db: db}
}

// TagResponse defines the wire representation of a tag.
type TagResponse struct {
	ID        uint                `json:"id" example:"1"`
	Name      string              `json:"name" example:"Dice Rolling"`
	Category  *models.TagCategory `json:"category,omitempty" example:"Mechanics"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func newTagResponse(tag models.Tag) TagResponse {
	return TagResponse{
		ID:        tag.ID,
		Name:      tag.Name,
		Category:  tag.Category,
		CreatedAt: tag.CreatedAt,
		UpdatedAt: tag.UpdatedAt,
	}
}

// tagBody is a validated tag mutation payload.
type tagBody struct {
	name     string
	category *models.TagCategory
}

func parseTagBody(c *gin.Context) (tagBody, bool) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortMissingFields(c, "name")
		return tagBody{}, false
	}

	name, ok := body["name"].(string)
	if !ok || name == "" {
		abortMissingFields(c, "name")
		return tagBody{}, false
	}

	parsed := tagBody{name: name}

	// An invalid category is a rejected mutation, never a silent
	// coercion.
	if v, present := body["category"]; present && v != nil {
		s, isString := v.(string)
		if !isString || !models.TagCategory(s).Valid() {
			abortMessage(c, http.StatusBadRequest, "That is not a valid category")
			return tagBody{}, false
		}
		category := models.TagCategory(s)
		parsed.category = &category
	}

	return parsed, true
}

func (h *TagHandler) nameTaken(c *gin.Context, name string, excludeID uint) (bool, bool) {
	query := h.db.Model(&models.Tag{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		abortInternal(c)
		return false, false
	}
	return count > 0, true
}

// List godoc
// @Summary      List all tags
// @Tags         tags
// @Produce      json
// @Success      200 {array} TagResponse
// @Router       /tags [get]
func (h *TagHandler) List(c *gin.Context) {
	var tags []models.Tag
	if err := h.db.Order("name ASC").Find(&tags).Error; err != nil {
		abortInternal(c)
		return
	}

	response := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		response = append(response, newTagResponse(tag))
	}
	c.JSON(http.StatusOK, response)
}

// Get godoc
// @Summary      Get a single tag
// @Tags         tags
// @Produce      json
// @Param        id path int true "Tag ID"
// @Success      200 {object} TagResponse
// @Failure      400 {object} ErrorResponse "The `id` is not valid"
// @Router       /tags/{id} [get]
func (h *TagHandler) Get(c *gin.Context) {
	var tag models.Tag
	if err := h.db.First(&tag, middleware.IDParam(c)).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, newTagResponse(tag))
}

// Create godoc
// @Summary      Create a tag
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body object{name=string,category=string} true "Tag Info"
// @Success      201 {object} TagResponse
// @Failure      400 {object} ErrorResponse "Tag name already exists"
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Router       /tags [post]
func (h *TagHandler) Create(c *gin.Context) {
	body, ok := parseTagBody(c)
	if !ok {
		return
	}

	taken, ok := h.nameTaken(c, body.name, 0)
	if !ok {
		return
	}
	if taken {
		abortMessage(c, http.StatusBadRequest, "Tag name already exists")
		return
	}

	tag := models.Tag{Name: body.name, Category: body.category}
	if err := h.db.Create(&tag).Error; err != nil {
		abortInternal(c)
		return
	}

	c.Header("Location", fmt.Sprintf("%s/%d", c.Request.URL.Path, tag.ID))
	c.JSON(http.StatusCreated, newTagResponse(tag))
}

// Update godoc
// @Summary      Update a tag
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Tag ID"
// @Param        input body object{name=string,category=string} true "New Tag Info"
// @Success      200 {object} TagResponse
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Router       /tags/{id} [put]
func (h *TagHandler) Update(c *gin.Context) {
	body, ok := parseTagBody(c)
	if !ok {
		return
	}

	var tag models.Tag
	if err := h.db.First(&tag, middleware.IDParam(c)).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	taken, ok := h.nameTaken(c, body.name, tag.ID)
	if !ok {
		return
	}
	if taken {
		abortMessage(c, http.StatusBadRequest, "Tag name already exists")
		return
	}

	updates := map[string]interface{}{"name": body.name}
	if body.category != nil {
		updates["category"] = *body.category
	}
	if err := h.db.Model(&tag).Updates(updates).Error; err != nil {
		abortInternal(c)
		return
	}

	c.JSON(http.StatusOK, newTagResponse(tag))
}

// Delete godoc
// @Summary      Delete a tag
// @Description  Deletes the tag and strips its reference from every game carrying it.
// @Tags         tags
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Tag ID"
// @Success      204 "deleted"
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Router       /tags/{id} [delete]
func (h *TagHandler) Delete(c *gin.Context) {
	id := middleware.IDParam(c)

	var tag models.Tag
	if err := h.db.First(&tag, id).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	// Tag removal and reference pulling are independent operations
	// awaited together, not a transaction.
	g := new(errgroup.Group)
	g.Go(func() error {
		return h.db.Delete(&tag).Error
	})
	g.Go(func() error {
		return h.db.Exec("DELETE FROM game_tags WHERE tag_id = ?", id).Error
	})
	if err := g.Wait(); err != nil {
		abortInternal(c)
		return
	}

	c.Status(http.StatusNoContent)
}
