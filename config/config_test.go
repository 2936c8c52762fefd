package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circuitgrid/tasklens/core"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"TASKLENS_PORT", "TASKLENS_WATCH_KEYWORDS", "TASKLENS_SETTLE_SECONDS",
		"TASKLENS_AUTOMATION_URL", "TASKLENS_MAX_TOKENS",
	} {
		os.Unsetenv(key)
	}

	cfg := Load()
	assert.Equal(t, "5111", cfg.ServerPort)
	assert.Equal(t, []string{"styx", "obsidian", "task"}, cfg.WatchKeywords)
	assert.Equal(t, 2*time.Second, cfg.SettleDelay)
	assert.Equal(t, "http://localhost:3004/automation", cfg.AutomationURL)
	assert.Equal(t, 8192, cfg.MaxTokens)
	assert.False(t, cfg.AutomationLegacy)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TASKLENS_PORT", "9000")
	t.Setenv("TASKLENS_WATCH_KEYWORDS", "alpha, beta,,")
	t.Setenv("TASKLENS_SETTLE_SECONDS", "7")
	t.Setenv("TASKLENS_AUTOMATION_LEGACY", "true")
	t.Setenv("TASKLENS_MAX_TOKENS", "not-a-number")

	cfg := Load()
	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.WatchKeywords)
	assert.Equal(t, 7*time.Second, cfg.SettleDelay)
	assert.True(t, cfg.AutomationLegacy)
	assert.Equal(t, 8192, cfg.MaxTokens, "unparsable int keeps the fallback")
}

func TestLoadRules(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		r, err := LoadRules("")
		require.NoError(t, err)

		cfg, err := r.SectionConfig()
		require.NoError(t, err)
		assert.Equal(t, "rendered-markdown", cfg.ContentClass)
		assert.Nil(t, r.Priority())
	})

	t.Run("configured missing file is an error", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("overrides merge onto defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
modality_priority: [textarea, radio]
content_class: md-block
download_text_pattern: "(?i)fetch"
`), 0o644))

		r, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, []core.Modality{core.ModalityTextarea, core.ModalityRadio}, r.Priority())

		cfg, err := r.SectionConfig()
		require.NoError(t, err)
		assert.Equal(t, "md-block", cfg.ContentClass)
		assert.Equal(t, "gondor-wysiwyg", cfg.InstructionClass, "untouched fields keep defaults")
		assert.True(t, cfg.DownloadText.MatchString("Fetch file"))
		assert.False(t, cfg.DownloadText.MatchString("Download file"))
	})

	t.Run("bad pattern surfaces", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("highlight_class_pattern: \"[\"\n"), 0o644))

		r, err := LoadRules(path)
		require.NoError(t, err)
		_, err = r.SectionConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "highlight_class_pattern")
	})
}
