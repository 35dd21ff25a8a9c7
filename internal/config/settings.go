package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/verte-zerg/paperlist/internal/model"
)

// Settings are the effective values after merging defaults, file and environment.
type Settings struct {
	ClearMode   model.ClearMode
	DBPath      string
	LogLevel    slog.Level
	// LogLevelSet reports whether the level came from the file or the environment.
	LogLevelSet bool
}

// Resolve applies the config file over defaults, then the environment over both.
func Resolve(file FileConfig, envCfg EnvConfig) (Settings, error) {
	clearMode := string(model.ClearCompleted)
	dbPath := DefaultDBPath()
	logLevel := "info"

	applyString(&clearMode, file.List.ClearMode)
	applyString(&dbPath, file.List.DB)
	applyString(&logLevel, file.List.LogLevel)
	applyEnv(&clearMode, envCfg.ClearMode)
	applyEnv(&dbPath, envCfg.DB)
	applyEnv(&logLevel, envCfg.LogLevel)

	mode, err := model.ParseClearMode(clearMode)
	if err != nil {
		return Settings{}, err
	}
	if strings.TrimSpace(dbPath) == "" {
		return Settings{}, fmt.Errorf("database path must not be empty")
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return Settings{}, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return Settings{
		ClearMode:   mode,
		DBPath:      dbPath,
		LogLevel:    level,
		LogLevelSet: file.List.LogLevel != nil || envCfg.LogLevel != "",
	}, nil
}

func applyString(target, value *string) {
	if value == nil {
		return
	}
	*target = *value
}

func applyEnv(target *string, value string) {
	if value == "" {
		return
	}
	*target = value
}
