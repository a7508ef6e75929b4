package main

import (
	"fmt"
	"log"

	"myshelf/backend/internal/config"
	"myshelf/backend/internal/database"
	"myshelf/backend/internal/router"
	"myshelf/backend/internal/shelves"

	// Swagger imports
	_ "myshelf/backend/docs" // This is important for swag to find the generated docs
)

// @title           My Board Game Shelf API
// @version         1.0
// @description     REST API for tracking a personal board game collection against a shared, moderated catalog.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	// Connect to the database
	db := database.Connect(cfg.DatabaseURL)

	// Start the nightly shelf recompute
	if _, err := shelves.StartScheduler(db, cfg.ShelfRecomputeCron); err != nil {
		log.Fatalf("Failed to start shelf recompute scheduler: %v", err)
	}

	engine := router.New(db, cfg)

	fmt.Println("Server is running on :" + cfg.Port)
	fmt.Println("Swagger UI is available at http://localhost:" + cfg.Port + "/swagger/index.html")
	log.Fatal(engine.Run(":" + cfg.Port))
}
