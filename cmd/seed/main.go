// Command seed fills a development database with the curated catalog and demo content.
package main

import (
	"context"
	"flag"
	"log"

	"recetario/internal/config"
	"recetario/internal/database"
	"recetario/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.Users, "Number of users to create")
	numRecipes := flag.Int("community", defaults.CommunityRecipes, "Number of community recipes to create")
	comments := flag.Int("comments", defaults.CommentsPerRecipe, "Comments per published community recipe")
	pending := flag.Int("pending", defaults.PendingShare, "Percentage of community recipes left awaiting review")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Skip bcrypt and store plain passwords (throwaway databases only)")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	seedValue := flag.Int64("seed", 0, "Random seed for reproducible data")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d community recipes, clean=%v\n", *numUsers, *numRecipes, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	if _, err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	s := seed.NewSeeder(database.DB)

	if *shouldClean && !*dryRun {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	sum, err := s.Seed(context.Background(), seed.Options{
		SeedOptions: seed.SeedOptions{
			Seed:       *seedValue,
			SkipBcrypt: *fast,
			DryRun:     *dryRun,
		},
		Users:             *numUsers,
		CommunityRecipes:  *numRecipes,
		CommentsPerRecipe: *comments,
		PendingShare:      *pending,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d recipes, %d community recipes, %d comments, %d likes, %d favorites",
		sum.Users, sum.Recipes, sum.CommunityRecipes, sum.Comments, sum.Likes, sum.Favorites)
	log.Printf("📧 Admin login: %s / %s", seed.AdminEmail, seed.DefaultPassword)
}
