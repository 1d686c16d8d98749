package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "emo"

// Paths locates the configuration file and the model cache.
type Paths struct {
	ConfigDir string // <config>/emo
	CacheDir  string // <cache>/emo
}

func (p Paths) ConfigPath() string {
	return filepath.Join(p.ConfigDir, "config.json")
}

func (p Paths) ModelDir() string {
	return filepath.Join(p.CacheDir, "models")
}

// ResolvePaths honours XDG_CONFIG_HOME before the platform default so tests
// and custom setups can relocate the config.
func ResolvePaths() (Paths, error) {
	configRoot := os.Getenv("XDG_CONFIG_HOME")
	if configRoot == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Paths{}, fmt.Errorf("%w: resolve config dir: %v", ErrConfigIO, err)
		}
		configRoot = dir
	}

	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		cacheRoot = configRoot
	}

	return Paths{
		ConfigDir: filepath.Join(configRoot, appName),
		CacheDir:  filepath.Join(cacheRoot, appName),
	}, nil
}
