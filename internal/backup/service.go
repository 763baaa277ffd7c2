package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"recetario/internal/middleware"
	"recetario/internal/models"
	"recetario/internal/observability"
	"recetario/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// FormatVersion is written into every payload.
	FormatVersion = 1
	// DefaultFolder is used when no folder is configured.
	DefaultFolder = "recetario-backups"

	namePrefix      = "recetario-backup-"
	timestampLayout = "20060102T150405Z"
)

var namePattern = regexp.MustCompile(`^recetario-backup-\d{8}T\d{6}Z-[0-9a-f]{8}\.json$`)

// Payload is the JSON document written by Run.
type Payload struct {
	CreatedAt        time.Time                `json:"created_at"`
	Version          int                      `json:"version"`
	Recipes          []models.Recipe          `json:"recipes"`
	CommunityRecipes []models.CommunityRecipe `json:"community_recipes"`
	Users            []models.ExportedUser    `json:"users"`
	Comments         []models.Comment         `json:"comments"`
}

// Result summarizes a finished backup.
type Result struct {
	Object
	Recipes          int `json:"recipes"`
	CommunityRecipes int `json:"community_recipes"`
	Users            int `json:"users"`
	Comments         int `json:"comments"`
}

// Sources are the repositories whose contents are exported.
type Sources struct {
	Users     repository.UserRepository
	Recipes   repository.RecipeRepository
	Community repository.CommunityRecipeRepository
	Comments  repository.CommentRepository
}

// Options tune a Service. Zero values select defaults.
type Options struct {
	Folder  string
	TempDir string
	Now     func() time.Time
	NewID   func() string
}

// Service runs, lists and removes backups.
type Service struct {
	store   Store
	src     Sources
	folder  string
	tempDir string
	now     func() time.Time
	newID   func() string
}

func NewService(store Store, src Sources, opts Options) *Service {
	s := &Service{
		store:   store,
		src:     src,
		folder:  strings.Trim(opts.Folder, "/"),
		tempDir: opts.TempDir,
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if s.folder == "" {
		s.folder = DefaultFolder
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:8] }
	}
	return s
}

// Folder is the folder backups are written to.
func (s *Service) Folder() string { return s.folder }

// StoreName identifies the configured backend.
func (s *Service) StoreName() string { return s.store.Name() }

// ObjectName builds the file name of a backup taken at t.
func ObjectName(t time.Time, id string) string {
	return namePrefix + t.UTC().Format(timestampLayout) + "-" + id + ".json"
}

// ValidName reports whether name looks like a file written by Run.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Run collects the four collections, writes them to a temp file, uploads it and removes the temp file.
func (s *Service) Run(ctx context.Context) (result *Result, err error) {
	ctx, end := observability.StartSpan(ctx, "backup.run",
		attribute.String("backup.store", s.store.Name()),
		attribute.String("backup.folder", s.folder),
	)
	defer func() {
		end(err)
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		observability.BackupRuns.WithLabelValues(s.store.Name(), outcome).Inc()
	}()

	payload, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.tempDir, "recetario-backup-*.json")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			middleware.Logger.WarnContext(ctx, "Failed to remove backup temp file",
				slog.String("path", tmpPath), slog.String("error", rmErr.Error()))
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	size, err := tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("stat temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind temp file: %w", err)
	}

	if err := s.store.EnsureFolder(ctx, s.folder); err != nil {
		return nil, err
	}

	name := ObjectName(payload.CreatedAt, s.newID())
	key := objectKey(s.folder, name)
	if err := s.store.Upload(ctx, key, tmp, size); err != nil {
		return nil, err
	}
	observability.BackupSizeBytes.Observe(float64(size))

	middleware.Logger.InfoContext(ctx, "Backup uploaded",
		slog.String("store", s.store.Name()),
		slog.String("key", key),
		slog.Int64("size", size),
	)

	return &Result{
		Object:           Object{Key: key, Name: name, Size: size, CreatedAt: payload.CreatedAt},
		Recipes:          len(payload.Recipes),
		CommunityRecipes: len(payload.CommunityRecipes),
		Users:            len(payload.Users),
		Comments:         len(payload.Comments),
	}, nil
}

func (s *Service) collect(ctx context.Context) (*Payload, error) {
	recipes, err := s.src.Recipes.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export recipes: %w", err)
	}
	community, err := s.src.Community.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export community recipes: %w", err)
	}
	users, err := s.src.Users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}
	comments, err := s.src.Comments.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export comments: %w", err)
	}

	exported := make([]models.ExportedUser, 0, len(users))
	for _, u := range users {
		exported = append(exported, u.Export())
	}

	p := &Payload{
		CreatedAt:        s.now().UTC().Truncate(time.Second),
		Version:          FormatVersion,
		Recipes:          recipes,
		CommunityRecipes: community,
		Users:            exported,
		Comments:         comments,
	}
	if p.Recipes == nil {
		p.Recipes = []models.Recipe{}
	}
	if p.CommunityRecipes == nil {
		p.CommunityRecipes = []models.CommunityRecipe{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	return p, nil
}

// List returns the backups in the folder, newest first.
func (s *Service) List(ctx context.Context) ([]Object, error) {
	objects, err := s.store.List(ctx, s.folder)
	if err != nil {
		return nil, err
	}
	out := objects[:0]
	for _, o := range objects {
		if ValidName(o.Name) {
			out = append(out, o)
		}
	}
	return out, nil
}

// Delete removes a backup by file name.
func (s *Service) Delete(ctx context.Context, name string) error {
	if !ValidName(name) {
		return models.NewValidationError("Invalid backup name")
	}
	if err := s.store.Delete(ctx, objectKey(s.folder, name)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.NewNotFoundError("Backup", name)
		}
		return err
	}
	middleware.Logger.InfoContext(ctx, "Backup deleted", slog.String("name", name))
	return nil
}

// Download writes a backup to w.
func (s *Service) Download(ctx context.Context, name string, w io.Writer) error {
	if !ValidName(name) {
		return models.NewValidationError("Invalid backup name")
	}
	if err := s.store.Download(ctx, objectKey(s.folder, name), w); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.NewNotFoundError("Backup", name)
		}
		return err
	}
	return nil
}
