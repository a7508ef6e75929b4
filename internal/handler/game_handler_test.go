package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"myshelf/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gameTitles(t *testing.T, body []map[string]interface{}) []string {
	t.Helper()
	titles := make([]string, 0, len(body))
	for _, game := range body {
		titles = append(titles, game["title"].(string))
	}
	return titles
}

func TestListGames(t *testing.T) {
	engine, db := newServer(t)

	strategy := seedTag(t, db, "Strategy", nil)
	seedGame(t, db, "Candy Land", models.StatusApproved, intPtr(2), intPtr(6))
	seedGame(t, db, "Azul", models.StatusApproved, intPtr(2), intPtr(4), &strategy)
	seedGame(t, db, "King of New York", models.StatusApproved, intPtr(2), intPtr(8))
	seedGame(t, db, "Secret Prototype", models.StatusPending, intPtr(2), intPtr(6))
	seedGame(t, db, "Rejected Game", models.StatusRejected, intPtr(2), intPtr(6))

	t.Run("shows only approved games to the public", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/games", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body []map[string]interface{}
		decodeBody(t, w, &body)
		require.Len(t, body, 3)
		for _, game := range body {
			assert.Equal(t, "approved", game["status"])
		}
	})

	t.Run("sorts by title ascending", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/games", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body []map[string]interface{}
		decodeBody(t, w, &body)
		assert.Equal(t, []string{"Azul", "Candy Land", "King of New York"}, gameTitles(t, body))
	})

	t.Run("filters by case-insensitive title search", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/games?searchTerm=king", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body []map[string]interface{}
		decodeBody(t, w, &body)
		assert.Equal(t, []string{"King of New York"}, gameTitles(t, body))
	})

	t.Run("filters by player count containment", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/games?players=7", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body []map[string]interface{}
		decodeBody(t, w, &body)
		require.Equal(t, []string{"King of New York"}, gameTitles(t, body))

		players := body[0]["players"].(map[string]interface{})
		assert.LessOrEqual(t, players["min"].(float64), float64(7))
		assert.GreaterOrEqual(t, players["max"].(float64), float64(7))
	})

	t.Run("filters by tag", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, fmt.Sprintf("/api/games?tagId=%d", strategy.ID), "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body []map[string]interface{}
		decodeBody(t, w, &body)
		assert.Equal(t, []string{"Azul"}, gameTitles(t, body))
	})

	t.Run("combines filters with AND", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, fmt.Sprintf("/api/games?tagId=%d&players=7", strategy.ID), "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body []map[string]interface{}
		decodeBody(t, w, &body)
		assert.Empty(t, body)
	})

	t.Run("rejects a non-numeric players filter", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/games?players=many", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminListGames(t *testing.T) {
	engine, db := newServer(t)
	user := seedUser(t, db, "anauser", "password123", false)
	admin := seedUser(t, db, "adminuser", "password123", true)

	seedGame(t, db, "Approved Game", models.StatusApproved, nil, nil)
	seedGame(t, db, "Pending Game", models.StatusPending, nil, nil)
	seedGame(t, db, "Rejected Game", models.StatusRejected, nil, nil)

	t.Run("shows every status to admins", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/admin/games", tokenFor(t, admin), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body []map[string]interface{}
		decodeBody(t, w, &body)
		assert.Len(t, body, 3)
	})

	t.Run("still applies narrowing filters", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/admin/games?searchTerm=pending", tokenFor(t, admin), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body []map[string]interface{}
		decodeBody(t, w, &body)
		assert.Equal(t, []string{"Pending Game"}, gameTitles(t, body))
	})

	t.Run("rejects non-admins", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/admin/games", tokenFor(t, user), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", messageOf(t, w))
	})

	t.Run("rejects anonymous callers", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/admin/games", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", messageOf(t, w))
	})
}

func TestGetGame(t *testing.T) {
	engine, db := newServer(t)
	admin := seedUser(t, db, "adminuser", "password123", true)
	approved := seedGame(t, db, "Candy Land", models.StatusApproved, intPtr(2), intPtr(6))
	pending := seedGame(t, db, "Secret Prototype", models.StatusPending, nil, nil)

	t.Run("returns an approved game", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, fmt.Sprintf("/api/games/%d", approved.ID), "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		decodeBody(t, w, &body)
		assert.Equal(t, "Candy Land", body["title"])
	})

	t.Run("hides unapproved games from the public", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, fmt.Sprintf("/api/games/%d", pending.ID), "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("shows unapproved games on the admin route", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, fmt.Sprintf("/api/admin/games/%d", pending.ID), tokenFor(t, admin), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/games/NOT-AN-ID", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "The `id` is not valid", messageOf(t, w))
	})
}

func TestCreateGame(t *testing.T) {
	engine, db := newServer(t)
	user := seedUser(t, db, "anauser", "password123", false)
	token := tokenFor(t, user)
	tag := seedTag(t, db, "Dice Rolling", nil)

	t.Run("requires authentication", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/games", "", map[string]interface{}{"title": "X"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("creates a pending game on the submitter's shelf", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/games", token, map[string]interface{}{
			"title":      "King of Tokyo",
			"minPlayers": 2,
			"maxPlayers": 8,
			"tags":       []uint{tag.ID},
			"status":     "approved", // must be ignored
		})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "/api/games/")

		var body map[string]interface{}
		decodeBody(t, w, &body)
		assert.Equal(t, "pending", body["status"])

		var count int64
		require.NoError(t, db.Model(&models.ShelfItem{}).Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("requires a title", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/games", token, map[string]interface{}{
			"minPlayers": 2,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Missing title in request body", messageOf(t, w))
	})

	t.Run("rejects non-numeric player counts", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/games", token, map[string]interface{}{
			"title":      "Bad Game",
			"minPlayers": "two",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "`minPlayers` and `maxPlayers` should be numbers", messageOf(t, w))
	})

	t.Run("rejects an inverted player range", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/games", token, map[string]interface{}{
			"title":      "Bad Game",
			"minPlayers": 6,
			"maxPlayers": 2,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "`maxPlayers` should not be less than `minPlayers`", messageOf(t, w))
	})

	t.Run("rejects unknown tag ids", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, "/api/games", token, map[string]interface{}{
			"title": "Bad Game",
			"tags":  []uint{999},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "The `tags` array contains an invalid `id`", messageOf(t, w))
	})
}

func TestUpdateGame(t *testing.T) {
	engine, db := newServer(t)
	user := seedUser(t, db, "anauser", "password123", false)
	admin := seedUser(t, db, "adminuser", "password123", true)
	game := seedGame(t, db, "Candy Land", models.StatusPending, intPtr(2), intPtr(6))
	path := fmt.Sprintf("/api/admin/games/%d", game.ID)

	t.Run("lets an admin approve and reject", func(t *testing.T) {
		for _, status := range []string{"approved", "rejected", "approved"} {
			w := doJSON(t, engine, http.MethodPut, path, tokenFor(t, admin), map[string]interface{}{
				"title":  "Candy Land",
				"status": status,
			})
			require.Equal(t, http.StatusOK, w.Code)

			var fresh models.Game
			require.NoError(t, db.First(&fresh, game.ID).Error)
			assert.Equal(t, models.GameStatus(status), fresh.Status)
		}
	})

	t.Run("accepts a status-only body", func(t *testing.T) {
		for _, status := range []string{"rejected", "approved"} {
			w := doJSON(t, engine, http.MethodPut, path, tokenFor(t, admin), map[string]interface{}{
				"status": status,
			})
			require.Equal(t, http.StatusOK, w.Code)

			var fresh models.Game
			require.NoError(t, db.First(&fresh, game.ID).Error)
			assert.Equal(t, models.GameStatus(status), fresh.Status)
			assert.Equal(t, "Candy Land", fresh.Title)
		}
	})

	t.Run("leaves absent fields untouched", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPut, path, tokenFor(t, admin), map[string]interface{}{
			"minPlayers": 3,
			"maxPlayers": 5,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var fresh models.Game
		require.NoError(t, db.First(&fresh, game.ID).Error)
		assert.Equal(t, "Candy Land", fresh.Title)
		assert.Equal(t, models.StatusApproved, fresh.Status)
		require.NotNil(t, fresh.MinPlayers)
		assert.Equal(t, 3, *fresh.MinPlayers)
		require.NotNil(t, fresh.MaxPlayers)
		assert.Equal(t, 5, *fresh.MaxPlayers)
	})

	t.Run("rejects an empty title", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPut, path, tokenFor(t, admin), map[string]interface{}{
			"title": "",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Missing `title` in request body", messageOf(t, w))

		var fresh models.Game
		require.NoError(t, db.First(&fresh, game.ID).Error)
		assert.Equal(t, "Candy Land", fresh.Title)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPut, path, tokenFor(t, admin), map[string]interface{}{
			"title":  "Candy Land",
			"status": "maybe",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "That is not a valid status", messageOf(t, w))
	})

	t.Run("rejects non-admins without mutating", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPut, path, tokenFor(t, user), map[string]interface{}{
			"title":  "Hijacked",
			"status": "rejected",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", messageOf(t, w))

		var fresh models.Game
		require.NoError(t, db.First(&fresh, game.ID).Error)
		assert.Equal(t, "Candy Land", fresh.Title)
		assert.Equal(t, models.StatusApproved, fresh.Status)
	})
}

func TestDeleteGame(t *testing.T) {
	engine, db := newServer(t)
	user := seedUser(t, db, "anauser", "password123", false)
	admin := seedUser(t, db, "adminuser", "password123", true)
	tag := seedTag(t, db, "Dice Rolling", nil)
	game := seedGame(t, db, "Candy Land", models.StatusApproved, nil, nil, &tag)
	require.NoError(t, db.Create(&models.ShelfItem{UserID: user.ID, GameID: game.ID}).Error)

	t.Run("rejects non-admins", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodDelete, fmt.Sprintf("/api/admin/games/%d", game.ID), tokenFor(t, user), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deletes the game and its references", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodDelete, fmt.Sprintf("/api/admin/games/%d", game.ID), tokenFor(t, admin), nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		var gone models.Game
		assert.Error(t, db.First(&gone, game.ID).Error)

		var shelfCount int64
		require.NoError(t, db.Model(&models.ShelfItem{}).Where("game_id = ?", game.ID).Count(&shelfCount).Error)
		assert.Zero(t, shelfCount)
	})

	t.Run("404s for a missing game", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodDelete, "/api/admin/games/999", tokenFor(t, admin), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestShelfOperations(t *testing.T) {
	engine, db := newServer(t)
	user := seedUser(t, db, "anauser", "password123", false)
	token := tokenFor(t, user)
	approved := seedGame(t, db, "Candy Land", models.StatusApproved, nil, nil)
	alsoApproved := seedGame(t, db, "Azul", models.StatusApproved, nil, nil)
	pending := seedGame(t, db, "Secret Prototype", models.StatusPending, nil, nil)

	t.Run("adds approved games in order", func(t *testing.T) {
		for _, game := range []models.Game{approved, alsoApproved} {
			w := doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/games/%d/shelf", game.ID), token, nil)
			require.Equal(t, http.StatusCreated, w.Code)
		}

		w := doJSON(t, engine, http.MethodGet, "/api/users/me/shelf", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body []map[string]interface{}
		decodeBody(t, w, &body)
		// Insertion order, not title order.
		assert.Equal(t, []string{"Candy Land", "Azul"}, gameTitles(t, body))
	})

	t.Run("refuses to shelve an unapproved game", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/games/%d/shelf", pending.ID), token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("removes a shelved game", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodDelete, fmt.Sprintf("/api/games/%d/shelf", approved.ID), token, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, engine, http.MethodGet, "/api/users/me/shelf", token, nil)
		var body []map[string]interface{}
		decodeBody(t, w, &body)
		assert.Equal(t, []string{"Azul"}, gameTitles(t, body))
	})

	t.Run("404s when removing a game that is not shelved", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodDelete, fmt.Sprintf("/api/games/%d/shelf", pending.ID), token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		w := doJSON(t, engine, http.MethodGet, "/api/users/me/shelf", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
