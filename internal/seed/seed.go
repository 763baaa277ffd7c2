package seed

import (
	"context"
	"fmt"
	"log"

	"recetario/internal/models"

	"gorm.io/gorm"
)

// AdminEmail is the login of the seeded administrator.
const AdminEmail = "admin@recetario.app"

// Options configures a seeding run.
type Options struct {
	SeedOptions
	Users             int
	CommunityRecipes  int
	CommentsPerRecipe int
	// PendingShare of community recipes (0..100) left awaiting review.
	PendingShare int
}

// DefaultOptions seeds a small but lively development database.
func DefaultOptions() Options {
	return Options{
		Users:             20,
		CommunityRecipes:  40,
		CommentsPerRecipe: 4,
		PendingShare:      15,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users            int
	Recipes          int
	CommunityRecipes int
	Comments         int
	Likes            int
	Favorites        int
}

// Seeder fills a database with the curated catalog and generated community content.
type Seeder struct {
	db *gorm.DB
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll deletes every row of the seeded tables, children first.
func (s *Seeder) ClearAll() error {
	tables := []any{&models.Comment{}, &models.CommunityRecipe{}, &models.Recipe{}, &models.User{}}
	for _, model := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	log.Println("✓ Existing data cleared")
	return nil
}

// Seed creates an admin, the curated catalog, users, community recipes with likes and
// comments, and favorites on curated recipes.
func (s *Seeder) Seed(ctx context.Context, opts Options) (*Summary, error) {
	f := NewFactory(s.db, opts.SeedOptions)
	sum := &Summary{}

	admin, err := f.CreateUser(ctx, func(u *models.User) {
		u.Name = "Administración"
		u.Email = AdminEmail
		u.Role = models.RoleAdmin
	})
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	sum.Users++

	catalog, err := Catalog()
	if err != nil {
		return nil, err
	}
	recipes := make([]*models.Recipe, 0, len(catalog))
	for i, content := range catalog {
		// The last catalog entry stays pending so the moderation console has work.
		approve := i < len(catalog)-1
		r, err := f.CreateCuratedRecipe(ctx, content, approve, admin.ID)
		if err != nil {
			return nil, fmt.Errorf("create recipe %q: %w", content.Name, err)
		}
		recipes = append(recipes, r)
	}
	sum.Recipes = len(recipes)
	log.Printf("✓ %d curated recipes created", sum.Recipes)

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users += len(users)
	log.Printf("✓ %d users created", len(users))
	if len(users) == 0 {
		return sum, nil
	}

	approved := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		if r.Visible() {
			approved = append(approved, r.ID)
		}
	}
	for _, u := range users {
		favs := pick(f, approved, f.faker.Number(0, min(4, len(approved))))
		if len(favs) == 0 {
			continue
		}
		if err := f.Favorite(ctx, u, favs...); err != nil {
			return nil, fmt.Errorf("favorite: %w", err)
		}
		sum.Favorites += len(favs)
	}

	for i := 0; i < opts.CommunityRecipes; i++ {
		author := users[f.faker.Number(0, len(users)-1)]
		pending := f.faker.Number(1, 100) <= opts.PendingShare
		recipe, err := f.CreateCommunityRecipe(ctx, author, func(r *models.CommunityRecipe) {
			r.Published = !pending
		})
		if err != nil {
			return nil, fmt.Errorf("create community recipe: %w", err)
		}
		sum.CommunityRecipes++
		if pending {
			continue
		}

		for _, liker := range pick(f, users, f.faker.Number(0, len(users))) {
			if err := f.Like(ctx, recipe, liker.ID); err != nil {
				return nil, fmt.Errorf("like: %w", err)
			}
			sum.Likes++
		}

		var roots []*models.Comment
		for j := 0; j < opts.CommentsPerRecipe; j++ {
			var parent *models.Comment
			if len(roots) > 0 && f.faker.Bool() {
				parent = roots[f.faker.Number(0, len(roots)-1)]
			}
			commenter := users[f.faker.Number(0, len(users)-1)]
			c, err := f.CreateComment(ctx, recipe, commenter, parent)
			if err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			if parent == nil {
				roots = append(roots, c)
			}
			sum.Comments++
		}
	}
	log.Printf("✓ %d community recipes, %d comments, %d likes", sum.CommunityRecipes, sum.Comments, sum.Likes)

	return sum, nil
}
