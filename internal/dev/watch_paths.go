package dev

import (
	"path/filepath"

	"github.com/yme-dev/pagegen/internal/config"
)

// CollectWatchPaths returns the directories watched for cfg. Only the pages
// directory is watched: the app config document and the generated module are
// outputs, and watching them would retrigger every run.
func CollectWatchPaths(cfg *config.Config) []string {
	return []string{filepath.Clean(cfg.PagesPath())}
}

// CollectIgnore returns the watcher ignore patterns for cfg: the defaults plus
// the directory names the scanner skips.
func CollectIgnore(cfg *config.Config) []string {
	ignore := append([]string{}, DefaultIgnore...)
	return append(ignore, cfg.Ignore...)
}
