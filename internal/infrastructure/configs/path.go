package configs

import (
	"os"

	"github.com/hilthontt/todoroom/internal/infrastructure/env"
)

var candidates = []string{
	"./config.yaml",
	"./config.yml",
	"./configs/config.yaml",
	"/etc/todoroom/config.yaml",
	"/app/config.yaml",
}

// DetermineConfigPath resolves the config file from the --config flag, the
// TODOROOM_CONFIG variable and a list of well-known locations, in that
// order. An empty result means defaults and environment only.
func DetermineConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if path := env.GetString("TODOROOM_CONFIG", ""); path != "" {
		return path
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
