package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DirName is the per-project directory holding config, database and logs.
const DirName = ".pedigree"

// FileName is the config file inside DirName.
const FileName = "config.yaml"

// FindProjectRoot walks up from dir looking for a .pedigree/ directory.
func FindProjectRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()
	dir = filepath.Clean(dir)

	for {
		projectDir := filepath.Join(dir, DirName)
		if info, err := os.Stat(projectDir); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
