package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project-level config file.
	ProjectConfigFile = "hpmc.yaml"
	// UserConfigDir is the directory for user-level config, relative to $HOME.
	UserConfigDir = ".config/hpmc"
	// UserConfigFile is the name of the user-level config file.
	UserConfigFile = "config.yaml"
)

// Loader loads configuration with layered precedence.
type Loader struct {
	logger  *slog.Logger
	homeDir string
	workDir string
}

// NewLoader creates a loader rooted at the process home and working
// directories.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	home, _ := os.UserHomeDir()
	cwd, _ := os.Getwd()
	return &Loader{logger: logger, homeDir: home, workDir: cwd}
}

// WithDirs returns a copy of l that resolves the user config under home
// and searches for the project config from work upwards.
func (l *Loader) WithDirs(home, work string) *Loader {
	c := *l
	c.homeDir = home
	c.workDir = work
	return &c
}

// Load builds the configuration in order:
//  1. defaults
//  2. user config (~/.config/hpmc/config.yaml)
//  3. project config: explicit when non-empty, else hpmc.yaml in the
//     working directory or its nearest parent that has one
//
// An explicit path that does not exist is an error; missing implicit
// files are skipped.
func (l *Loader) Load(explicit string) (*Config, error) {
	cfg := DefaultConfig()

	if user := l.userConfigPath(); user != "" {
		err := cfg.mergeFile(user)
		switch {
		case err == nil:
			l.logger.Debug("loaded user config", slog.String("path", user))
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	project := explicit
	if project == "" {
		project = l.findProjectConfig()
	}
	if project != "" {
		if err := cfg.mergeFile(project); err != nil {
			return nil, err
		}
		l.logger.Debug("loaded project config", slog.String("path", project))
	} else {
		l.logger.Debug("no project config found")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) userConfigPath() string {
	if l.homeDir == "" {
		return ""
	}
	return filepath.Join(l.homeDir, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for hpmc.yaml in the working directory and
// its parents.
func (l *Loader) findProjectConfig() string {
	if l.workDir == "" {
		return ""
	}
	dir := l.workDir
	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
