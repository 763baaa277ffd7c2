// Command recetario-admin manages admin roles, backups and the popular ranking from the shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"recetario/internal/backup"
	"recetario/internal/cache"
	"recetario/internal/config"
	"recetario/internal/database"
	"recetario/internal/models"
	"recetario/internal/repository"
	"recetario/internal/service"

	"github.com/spf13/cobra"
)

// cliActor is the actor ID used for role changes made from the shell; it bypasses the
// self-demotion guard.
const cliActor = 0

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type adminApp struct {
	cfg     *config.Config
	users   *service.UserService
	recipes *service.RecipeService
	backups *backup.Service
}

// newApp loads the config and connects to the database. The caller must defer close.
func newApp() (*adminApp, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	// Redis is optional; with it, changes made here invalidate the API caches.
	cache.InitRedis(cfg.RedisURL)

	userRepo := repository.NewUserRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	a := &adminApp{
		cfg:     cfg,
		users:   service.NewUserService(userRepo, recipeRepo),
		recipes: service.NewRecipeService(recipeRepo, userRepo),
	}

	store, err := backup.NewStoreFromConfig(context.Background(), cfg)
	if err == nil {
		a.backups = backup.NewService(store, backup.Sources{
			Users:     userRepo,
			Recipes:   recipeRepo,
			Community: repository.NewCommunityRecipeRepository(db),
			Comments:  repository.NewCommentRepository(db),
		}, backup.Options{Folder: cfg.BackupFolder})
	} else {
		fmt.Fprintf(os.Stderr, "warning: backup store %q unavailable: %v\n", cfg.BackupStore, err)
	}

	closeFn := func() {
		if rdb := cache.GetClient(); rdb != nil {
			_ = rdb.Close()
		}
		_ = database.Close()
	}
	return a, closeFn, nil
}

func (a *adminApp) requireBackups() error {
	if a.backups == nil {
		return errors.New("backups are not configured")
	}
	return nil
}

func parseUserID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user ID %q", arg)
	}
	return uint(id), nil
}

var rootCmd = &cobra.Command{
	Use:          "recetario-admin",
	Short:        "Recetario administration tool",
	SilenceUsage: true,
}

func setRole(role string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		a, closeFn, err := newApp()
		if err != nil {
			return err
		}
		defer closeFn()

		user, err := a.users.SetRole(cmd.Context(), cliActor, id, role)
		if err != nil {
			return err
		}
		fmt.Printf("✅ %s (ID: %d) is now %s\n", user.Name, user.ID, user.Role)
		return nil
	}
}

var promoteCmd = &cobra.Command{
	Use:   "promote <user_id>",
	Short: "Promote a user to admin",
	Args:  cobra.ExactArgs(1),
	RunE:  setRole(models.RoleAdmin),
}

var demoteCmd = &cobra.Command{
	Use:   "demote <user_id>",
	Short: "Demote an admin to a regular user",
	Args:  cobra.ExactArgs(1),
	RunE:  setRole(models.RoleUser),
}

var listAdminsCmd = &cobra.Command{
	Use:   "list-admins",
	Short: "List all admins",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeFn, err := newApp()
		if err != nil {
			return err
		}
		defer closeFn()

		admins, err := a.users.ListAdmins(cmd.Context())
		if err != nil {
			return err
		}
		if len(admins) == 0 {
			fmt.Println("No admins found")
			return nil
		}
		for _, admin := range admins {
			fmt.Printf("ID: %d | Name: %s | Email: %s\n", admin.ID, admin.Name, admin.Email)
		}
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage cloud backups",
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Export the catalog to the backup store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeFn, err := newApp()
		if err != nil {
			return err
		}
		defer closeFn()
		if err := a.requireBackups(); err != nil {
			return err
		}

		start := time.Now()
		res, err := a.backups.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("✅ Uploaded %s to %s (%d bytes, %d recipes, %d community recipes, %d users, %d comments) in %s\n",
			res.Name, a.backups.StoreName(), res.Size, res.Recipes, res.CommunityRecipes, res.Users, res.Comments,
			time.Since(start).Round(time.Millisecond))
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeFn, err := newApp()
		if err != nil {
			return err
		}
		defer closeFn()
		if err := a.requireBackups(); err != nil {
			return err
		}

		objects, err := a.backups.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(objects) == 0 {
			fmt.Printf("No backups in %s/%s\n", a.backups.StoreName(), a.backups.Folder())
			return nil
		}
		for _, o := range objects {
			fmt.Printf("%s  %10d  %s\n", o.CreatedAt.Format(time.RFC3339), o.Size, o.Name)
		}
		return nil
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !backup.ValidName(args[0]) {
			return fmt.Errorf("invalid backup name %q", args[0])
		}
		a, closeFn, err := newApp()
		if err != nil {
			return err
		}
		defer closeFn()
		if err := a.requireBackups(); err != nil {
			return err
		}

		if err := a.backups.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("🗑️  Deleted %s\n", args[0])
		return nil
	},
}

var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "Show the most favorited recipes",
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")

		a, closeFn, err := newApp()
		if err != nil {
			return err
		}
		defer closeFn()

		if refresh {
			cache.Invalidate(cmd.Context(), cache.PopularRecipesKey)
		}
		ranked, err := a.recipes.Popular(cmd.Context())
		if err != nil {
			return err
		}
		for i, p := range ranked {
			fmt.Printf("%d. %s (ID: %d) ★ %d\n", i+1, p.Recipe.Name, p.Recipe.ID, p.Favorites)
		}
		return nil
	},
}

func init() {
	popularCmd.Flags().Bool("refresh", false, "Recompute instead of reading the cached ranking")

	backupCmd.AddCommand(backupRunCmd, backupListCmd, backupDeleteCmd)
	rootCmd.AddCommand(promoteCmd, demoteCmd, listAdminsCmd, backupCmd, popularCmd)
}
