package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-docmark/pkg/docmark"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)

		assert.Empty(t, cfg.Language)
		assert.Equal(t, ImageHandlingInline, cfg.ImageHandling)
		assert.Equal(t, "images", cfg.ImageOutputDir)
		assert.False(t, cfg.Debug)
	})

	t.Run("FromFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "docmark.yaml")
		content := "language: ko\nimage_handling: extract\nimage_output_dir: out/media\ndebug: true\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "ko", cfg.Language)
		assert.Equal(t, ImageHandlingExtract, cfg.ImageHandling)
		assert.Equal(t, "out/media", cfg.ImageOutputDir)
		assert.True(t, cfg.Debug)
	})

	t.Run("ExplicitPathMustExist", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("InvalidImageHandling", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "docmark.yaml")
		require.NoError(t, os.WriteFile(path, []byte("image_handling: embed\n"), 0o600))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("DefaultLanguageNormalized", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "docmark.yaml")
		require.NoError(t, os.WriteFile(path, []byte("language: default\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Empty(t, cfg.Language)
	})
}

func TestImageMode(t *testing.T) {
	cases := map[string]docmark.ImageHandling{
		ImageHandlingInline:  docmark.ImageInline,
		ImageHandlingExtract: docmark.ImageExtract,
		ImageHandlingSkip:    docmark.ImageSkip,
	}
	for handling, want := range cases {
		cfg := Config{ImageHandling: handling}
		assert.Equal(t, want, cfg.ImageMode(), handling)
	}
}
