// Package shelves maintains the denormalized per-game list of users
// holding a game. The list is eventually consistent: it is rebuilt from
// the shelf rows on a schedule and is excluded from the read path's
// consistency guarantees.
package shelves

import (
	"log"

	"myshelf/backend/internal/models"

	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecomputeAll rebuilds every game's Shelves list from the shelf rows.
func RecomputeAll(db *gorm.DB) error {
	var games []models.Game
	if err := db.Find(&games).Error; err != nil {
		return err
	}

	for i := range games {
		var userIDs []uint
		err := db.Model(&models.ShelfItem{}).
			Where("game_id = ?", games[i].ID).
			Distinct("user_id").
			Order("user_id").
			Pluck("user_id", &userIDs).Error
		if err != nil {
			return err
		}
		if userIDs == nil {
			userIDs = []uint{}
		}

		if err := db.Model(&games[i]).Update("shelves", datatypes.NewJSONSlice(userIDs)).Error; err != nil {
			return err
		}
	}

	return nil
}

// StartScheduler runs RecomputeAll on the given cron schedule (daily at
// midnight by default) and returns the running scheduler.
func StartScheduler(db *gorm.DB, spec string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		log.Println("Recomputing game shelves")
		if err := RecomputeAll(db); err != nil {
			log.Printf("Shelf recompute failed: %v", err)
			return
		}
		log.Println("Shelf recompute completed")
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
