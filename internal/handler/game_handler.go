package handler

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"myshelf/backend/internal/auth"
	"myshelf/backend/internal/middleware"
	"myshelf/backend/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// GameHandler serves the games resource and the shelf operations.
type GameHandler struct {
	db *gorm.DB
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(db *gorm.DB) *GameHandler {
	return &GameHandler{db: db}
}

// region --- DTOs ---

// PlayersResponse is the supported player-count range of a game.
type PlayersResponse struct {
	Min *int `json:"min,omitempty" example:"2"`
	Max *int `json:"max,omitempty" example:"6"`
}

// GameResponse defines the wire representation of a game.
type GameResponse struct {
	ID        uint              `json:"id" example:"1"`
	Title     string            `json:"title" example:"King of Tokyo"`
	Players   *PlayersResponse  `json:"players,omitempty"`
	Status    models.GameStatus `json:"status" example:"approved"`
	Tags      []TagResponse     `json:"tags"`
	Shelves   []uint            `json:"shelves"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func newGameResponse(game models.Game) GameResponse {
	tagResponses := make([]TagResponse, 0, len(game.Tags))
	for _, tag := range game.Tags {
		if tag != nil {
			tagResponses = append(tagResponses, newTagResponse(*tag))
		}
	}

	var players *PlayersResponse
	if game.MinPlayers != nil || game.MaxPlayers != nil {
		players = &PlayersResponse{Min: game.MinPlayers, Max: game.MaxPlayers}
	}

	shelves := []uint(game.Shelves)
	if shelves == nil {
		shelves = []uint{}
	}

	return GameResponse{
		ID:        game.ID,
		Title:     game.Title,
		Players:   players,
		Status:    game.Status,
		Tags:      tagResponses,
		Shelves:   shelves,
		CreatedAt: game.CreatedAt,
		UpdatedAt: game.UpdatedAt,
	}
}

// gameBody is a validated game mutation payload. Nil fields were absent
// from the request.
type gameBody struct {
	title       *string
	minPlayers  *int
	maxPlayers  *int
	status      *models.GameStatus
	tagIDs      []uint
	tagsPresent bool
}

// endregion

// parseGameBody validates a game payload field by field. Creation
// requires a title and never takes a status from the client; updates are
// partial, so every field (status included) is validated only when
// present.
func parseGameBody(c *gin.Context, update bool) (gameBody, bool) {
	abortMissingTitle := func() {
		if update {
			abortMessage(c, http.StatusBadRequest, "Missing `title` in request body")
		} else {
			abortMissingFields(c, "title")
		}
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		abortMissingTitle()
		return gameBody{}, false
	}

	var parsed gameBody

	if v, present := body["title"]; present || !update {
		title, ok := v.(string)
		if !ok || title == "" {
			abortMissingTitle()
			return gameBody{}, false
		}
		parsed.title = &title
	}

	for field, dst := range map[string]**int{"minPlayers": &parsed.minPlayers, "maxPlayers": &parsed.maxPlayers} {
		v, present := body[field]
		if !present || v == nil {
			continue
		}
		f, isNumber := v.(float64)
		if !isNumber || f != math.Trunc(f) {
			abortMessage(c, http.StatusBadRequest, "`minPlayers` and `maxPlayers` should be numbers")
			return gameBody{}, false
		}
		n := int(f)
		*dst = &n
	}

	if parsed.minPlayers != nil && parsed.maxPlayers != nil && *parsed.maxPlayers < *parsed.minPlayers {
		abortMessage(c, http.StatusBadRequest, "`maxPlayers` should not be less than `minPlayers`")
		return gameBody{}, false
	}

	if v, present := body["status"]; present && update {
		s, isString := v.(string)
		if !isString || !models.GameStatus(s).Valid() {
			abortMessage(c, http.StatusBadRequest, "That is not a valid status")
			return gameBody{}, false
		}
		status := models.GameStatus(s)
		parsed.status = &status
	}

	if v, present := body["tags"]; present && v != nil {
		arr, isArray := v.([]interface{})
		if !isArray {
			abortMessage(c, http.StatusBadRequest, "The `tags` array contains an invalid `id`")
			return gameBody{}, false
		}
		parsed.tagsPresent = true
		for _, elem := range arr {
			f, isNumber := elem.(float64)
			if !isNumber || f != math.Trunc(f) || f < 1 {
				abortMessage(c, http.StatusBadRequest, "The `tags` array contains an invalid `id`")
				return gameBody{}, false
			}
			parsed.tagIDs = append(parsed.tagIDs, uint(f))
		}
	}

	return parsed, true
}

// loadTags resolves tag ids to rows, rejecting ids that do not exist.
func (h *GameHandler) loadTags(c *gin.Context, ids []uint) ([]*models.Tag, bool) {
	if len(ids) == 0 {
		return nil, true
	}

	unique := make(map[uint]bool, len(ids))
	for _, id := range ids {
		unique[id] = true
	}

	var tags []*models.Tag
	if err := h.db.Find(&tags, ids).Error; err != nil {
		abortInternal(c)
		return nil, false
	}
	if len(tags) != len(unique) {
		abortMessage(c, http.StatusBadRequest, "The `tags` array contains an invalid `id`")
		return nil, false
	}
	return tags, true
}

// applyListFilters composes the optional client-supplied narrowing
// filters onto the query. Each present parameter ANDs one clause;
// absence omits the clause entirely. Returns false after writing the
// error response.
func applyListFilters(c *gin.Context, query *gorm.DB) (*gorm.DB, bool) {
	if searchTerm := c.Query("searchTerm"); searchTerm != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(searchTerm)+"%")
	}

	if players := c.Query("players"); players != "" {
		n, err := strconv.Atoi(players)
		if err != nil {
			abortMessage(c, http.StatusBadRequest, "`players` should be a number")
			return nil, false
		}
		query = query.Where("min_players <= ? AND max_players >= ?", n, n)
	}

	if tagID := c.Query("tagId"); tagID != "" {
		id, err := strconv.ParseUint(tagID, 10, 32)
		if err != nil {
			abortMessage(c, http.StatusBadRequest, "The `id` is not valid")
			return nil, false
		}
		query = query.Joins("JOIN game_tags ON game_tags.game_id = games.id").
			Where("game_tags.tag_id = ?", id)
	}

	return query, true
}

func (h *GameHandler) list(c *gin.Context, adminScope bool) {
	query := h.db.Model(&models.Game{}).Preload("Tags")

	// The moderation gate: public reads see approved games only,
	// unconditionally ANDed with whatever narrowing filters follow.
	if !adminScope {
		query = query.Where("games.status = ?", models.StatusApproved)
	}

	query, ok := applyListFilters(c, query)
	if !ok {
		return
	}

	var games []models.Game
	if err := query.Order("title ASC").Find(&games).Error; err != nil {
		abortInternal(c)
		return
	}

	response := make([]GameResponse, 0, len(games))
	for _, game := range games {
		response = append(response, newGameResponse(game))
	}
	c.JSON(http.StatusOK, response)
}

// List godoc
// @Summary      List approved games
// @Description  Lists the public catalog, filterable by title search, player count and tag.
// @Tags         games
// @Produce      json
// @Param        searchTerm query string false "Case-insensitive title substring"
// @Param        players    query int    false "Player count the game must support"
// @Param        tagId      query int    false "Tag ID the game must carry"
// @Success      200 {array} GameResponse
// @Router       /games [get]
func (h *GameHandler) List(c *gin.Context) {
	h.list(c, false)
}

// AdminList godoc
// @Summary      List games of every moderation status
// @Tags         admin-games
// @Produce      json
// @Security     BearerAuth
// @Param        searchTerm query string false "Case-insensitive title substring"
// @Param        players    query int    false "Player count the game must support"
// @Param        tagId      query int    false "Tag ID the game must carry"
// @Success      200 {array} GameResponse
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Router       /admin/games [get]
func (h *GameHandler) AdminList(c *gin.Context) {
	h.list(c, true)
}

func (h *GameHandler) get(c *gin.Context, adminScope bool) {
	var game models.Game
	if err := h.db.Preload("Tags").First(&game, middleware.IDParam(c)).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	if !adminScope && game.Status != models.StatusApproved {
		c.Status(http.StatusNotFound)
		return
	}

	c.JSON(http.StatusOK, newGameResponse(game))
}

// Get godoc
// @Summary      Get a single approved game
// @Tags         games
// @Produce      json
// @Param        id path int true "Game ID"
// @Success      200 {object} GameResponse
// @Failure      400 {object} ErrorResponse "The `id` is not valid"
// @Router       /games/{id} [get]
func (h *GameHandler) Get(c *gin.Context) {
	h.get(c, false)
}

// AdminGet godoc
// @Summary      Get a single game of any moderation status
// @Tags         admin-games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      200 {object} GameResponse
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Router       /admin/games/{id} [get]
func (h *GameHandler) AdminGet(c *gin.Context) {
	h.get(c, true)
}

// Create godoc
// @Summary      Submit a game
// @Description  Creates a game in pending status and puts it on the submitter's shelf. Status is never client-supplied here.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body object{title=string,minPlayers=int,maxPlayers=int,tags=[]int} true "Game Info"
// @Success      201 {object} GameResponse
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Router       /games [post]
func (h *GameHandler) Create(c *gin.Context) {
	principal, ok := auth.CurrentUser(c)
	if !ok {
		auth.Unauthorized(c)
		return
	}

	body, ok := parseGameBody(c, false)
	if !ok {
		return
	}

	tags, ok := h.loadTags(c, body.tagIDs)
	if !ok {
		return
	}

	game := models.Game{
		Title:      *body.title,
		MinPlayers: body.minPlayers,
		MaxPlayers: body.maxPlayers,
		Status:     models.StatusPending,
		Tags:       tags,
	}
	if err := h.db.Create(&game).Error; err != nil {
		abortInternal(c)
		return
	}

	item := models.ShelfItem{UserID: principal.ID, GameID: game.ID}
	if err := h.db.Create(&item).Error; err != nil {
		abortInternal(c)
		return
	}

	c.Header("Location", fmt.Sprintf("%s/%d", c.Request.URL.Path, game.ID))
	c.JSON(http.StatusCreated, newGameResponse(game))
}

// Update godoc
// @Summary      Update a game
// @Description  Partially updates a game: absent fields are left untouched. Only here can the moderation status change.
// @Tags         admin-games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Game ID"
// @Param        input body object{title=string,minPlayers=int,maxPlayers=int,status=string,tags=[]int} true "New Game Info"
// @Success      200 {object} GameResponse
// @Failure      400 {object} ErrorResponse "That is not a valid status"
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Router       /admin/games/{id} [put]
func (h *GameHandler) Update(c *gin.Context) {
	body, ok := parseGameBody(c, true)
	if !ok {
		return
	}

	var game models.Game
	if err := h.db.First(&game, middleware.IDParam(c)).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	tags, ok := h.loadTags(c, body.tagIDs)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if body.title != nil {
		updates["title"] = *body.title
	}
	if body.minPlayers != nil {
		updates["min_players"] = *body.minPlayers
	}
	if body.maxPlayers != nil {
		updates["max_players"] = *body.maxPlayers
	}
	if body.status != nil {
		updates["status"] = *body.status
	}

	if len(updates) > 0 {
		if err := h.db.Model(&game).Updates(updates).Error; err != nil {
			abortInternal(c)
			return
		}
	}

	if body.tagsPresent {
		if err := h.db.Model(&game).Association("Tags").Replace(tags); err != nil {
			abortInternal(c)
			return
		}
	}

	if err := h.db.Preload("Tags").First(&game, game.ID).Error; err != nil {
		abortInternal(c)
		return
	}

	c.JSON(http.StatusOK, newGameResponse(game))
}

// Delete godoc
// @Summary      Delete a game
// @Tags         admin-games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      204 "deleted"
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Router       /admin/games/{id} [delete]
func (h *GameHandler) Delete(c *gin.Context) {
	id := middleware.IDParam(c)

	var game models.Game
	if err := h.db.First(&game, id).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	// Independent operations awaited together, not a transaction.
	g := new(errgroup.Group)
	g.Go(func() error {
		if err := h.db.Exec("DELETE FROM game_tags WHERE game_id = ?", id).Error; err != nil {
			return err
		}
		return h.db.Delete(&game).Error
	})
	g.Go(func() error {
		return h.db.Where("game_id = ?", id).Delete(&models.ShelfItem{}).Error
	})
	if err := g.Wait(); err != nil {
		abortInternal(c)
		return
	}

	c.Status(http.StatusNoContent)
}

// region --- Shelf operations ---

// AddToShelf godoc
// @Summary      Add a game to the caller's shelf
// @Tags         shelf
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      201 {object} GameResponse
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Failure      404 "game not found or not approved"
// @Router       /games/{id}/shelf [post]
func (h *GameHandler) AddToShelf(c *gin.Context) {
	principal, ok := auth.CurrentUser(c)
	if !ok {
		auth.Unauthorized(c)
		return
	}

	var game models.Game
	if err := h.db.Preload("Tags").First(&game, middleware.IDParam(c)).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	// Unapproved games are invisible to regular users, so they cannot be
	// shelved by them either.
	if !principal.Admin && game.Status != models.StatusApproved {
		c.Status(http.StatusNotFound)
		return
	}

	item := models.ShelfItem{UserID: principal.ID, GameID: game.ID}
	if err := h.db.Create(&item).Error; err != nil {
		abortInternal(c)
		return
	}

	c.JSON(http.StatusCreated, newGameResponse(game))
}

// RemoveFromShelf godoc
// @Summary      Remove a game from the caller's shelf
// @Tags         shelf
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      204 "removed"
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Failure      404 "game is not on the shelf"
// @Router       /games/{id}/shelf [delete]
func (h *GameHandler) RemoveFromShelf(c *gin.Context) {
	principal, ok := auth.CurrentUser(c)
	if !ok {
		auth.Unauthorized(c)
		return
	}

	result := h.db.Where("user_id = ? AND game_id = ?", principal.ID, middleware.IDParam(c)).Delete(&models.ShelfItem{})
	if result.Error != nil {
		abortInternal(c)
		return
	}
	if result.RowsAffected == 0 {
		c.Status(http.StatusNotFound)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetShelf godoc
// @Summary      List the caller's shelf
// @Description  Returns the caller's games in the order they were added.
// @Tags         shelf
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} GameResponse
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Router       /users/me/shelf [get]
func (h *GameHandler) GetShelf(c *gin.Context) {
	principal, ok := auth.CurrentUser(c)
	if !ok {
		auth.Unauthorized(c)
		return
	}

	var items []models.ShelfItem
	if err := h.db.Where("user_id = ?", principal.ID).Order("id ASC").Find(&items).Error; err != nil {
		abortInternal(c)
		return
	}

	gameIDs := make([]uint, 0, len(items))
	for _, item := range items {
		gameIDs = append(gameIDs, item.GameID)
	}

	gamesByID := make(map[uint]models.Game, len(gameIDs))
	if len(gameIDs) > 0 {
		var games []models.Game
		if err := h.db.Preload("Tags").Find(&games, gameIDs).Error; err != nil {
			abortInternal(c)
			return
		}
		for _, game := range games {
			gamesByID[game.ID] = game
		}
	}

	response := make([]GameResponse, 0, len(items))
	for _, item := range items {
		game, found := gamesByID[item.GameID]
		if !found {
			// Orphaned shelf row; the nightly recompute does not repair
			// these either, they are simply skipped.
			continue
		}
		response = append(response, newGameResponse(game))
	}

	c.JSON(http.StatusOK, response)
}

// endregion
