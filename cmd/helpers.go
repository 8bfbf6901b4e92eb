package cmd

import "pedtrack/internal/config"

// resolveDataDir returns the directory holding the catalog and archive
// databases, creating it on first use.
func resolveDataDir() (string, error) {
	return config.ResolveDataDir(GetConfig())
}
