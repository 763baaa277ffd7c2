package service

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"recetario/internal/config"
	"recetario/internal/models"
	"recetario/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageServiceUploadAndResolve(t *testing.T) {
	cfg := &config.Config{ImageUploadDir: t.TempDir(), ImageMaxUploadSizeMB: 1}
	svc := NewImageService(cfg)

	content := testutil.TinyPNG(t, 1600, 800)
	img, err := svc.Upload(UploadImageInput{
		UserID:      42,
		Kind:        ImageKindRecipe,
		Filename:    "paella.png",
		ContentType: "image/png",
		Content:     content,
	})
	require.NoError(t, err)
	assert.Equal(t, RecipeImageMaxSize, img.Width)
	assert.Equal(t, 640, img.Height)
	assert.Equal(t, "/media/recipe/"+img.Hash+"/image.jpg", img.URL)
	assert.Equal(t, "/media/recipe/"+img.Hash+"/image.webp", img.WebPURL)

	for _, name := range []string{"image.jpg", "image.webp"} {
		_, statErr := os.Stat(filepath.Join(cfg.ImageUploadDir, "recipe", img.Hash, name))
		assert.NoError(t, statErr, name)
	}

	again, err := svc.Upload(UploadImageInput{UserID: 42, Kind: "recipe", ContentType: "image/png", Content: content})
	require.NoError(t, err)
	assert.Equal(t, img.Hash, again.Hash)

	path, err := svc.ResolveForServing(ImageKindRecipe, img.Hash, "webp")
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = svc.ResolveForServing(ImageKindProfile, img.Hash, "jpg")
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestImageServiceProfileIsSquare(t *testing.T) {
	svc := NewImageService(&config.Config{ImageUploadDir: t.TempDir(), ImageMaxUploadSizeMB: 2})

	img, err := svc.Upload(UploadImageInput{
		UserID:  7,
		Kind:    "Profile",
		Content: testutil.TinyPNG(t, 900, 600),
	})
	require.NoError(t, err)
	assert.Equal(t, ImageKindProfile, img.Kind)
	assert.Equal(t, ProfileImageSize, img.Width)
	assert.Equal(t, ProfileImageSize, img.Height)
}

func TestImageServiceSmallImageKeepsSize(t *testing.T) {
	svc := NewImageService(&config.Config{ImageUploadDir: t.TempDir()})

	img, err := svc.Upload(UploadImageInput{UserID: 1, Content: testutil.TinyPNG(t, 64, 32)})
	require.NoError(t, err)
	assert.Equal(t, ImageKindRecipe, img.Kind)
	assert.Equal(t, 64, img.Width)
	assert.Equal(t, 32, img.Height)
}

func TestImageServiceUploadValidation(t *testing.T) {
	svc := NewImageService(&config.Config{ImageUploadDir: t.TempDir(), ImageMaxUploadSizeMB: 1})
	png := testutil.TinyPNG(t, 8, 8)

	tests := []struct {
		name string
		in   UploadImageInput
	}{
		{name: "no user", in: UploadImageInput{Content: png}},
		{name: "unknown kind", in: UploadImageInput{UserID: 1, Kind: "banner", Content: png}},
		{name: "empty", in: UploadImageInput{UserID: 1}},
		{name: "not an image", in: UploadImageInput{UserID: 1, ContentType: "text/plain", Content: []byte("not an image")}},
		{name: "too large", in: UploadImageInput{UserID: 1, ContentType: "image/png", Content: bytes.Repeat([]byte{'a'}, 2*1024*1024)}},
		{name: "type mismatch", in: UploadImageInput{UserID: 1, ContentType: "image/jpeg", Content: png}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(tt.in)
			assertValidationError(t, err)
		})
	}
}

func TestResolveForServingRejectsTraversal(t *testing.T) {
	svc := NewImageService(&config.Config{ImageUploadDir: t.TempDir()})

	for _, tc := range []struct{ kind, hash, format string }{
		{"recipe", "../../etc", "jpg"},
		{"recipe", "ABCDEF", "jpg"},
		{"avatar", "abcdef", "jpg"},
		{"recipe", "abcdef", "png"},
	} {
		_, err := svc.ResolveForServing(tc.kind, tc.hash, tc.format)
		assertValidationError(t, err)
	}
}
