// pkg/config/env.go
package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables read by ApplyEnvironmentOverrides
const (
	EnvIndexKind       = "COLLIDE_INDEX_KIND"
	EnvNodeCapacity    = "COLLIDE_NODE_CAPACITY"
	EnvMaxDepth        = "COLLIDE_MAX_DEPTH"
	EnvCellSize        = "COLLIDE_CELL_SIZE"
	EnvDefaultAutoPair = "COLLIDE_DEFAULT_AUTO_PAIR"
)

// ApplyEnvironmentOverrides replaces world index settings with values from
// the environment. Unset or unparsable numeric variables leave the current
// value in place; an unknown index kind is an error.
func ApplyEnvironmentOverrides(config *WorldConfig) error {
	config.Index.Kind = strings.ToLower(getEnvOrDefault(EnvIndexKind, config.Index.Kind))
	config.Index.NodeCapacity = getEnvAsIntOrDefault(EnvNodeCapacity, config.Index.NodeCapacity)
	config.Index.MaxDepth = getEnvAsIntOrDefault(EnvMaxDepth, config.Index.MaxDepth)
	config.Index.CellSize = getEnvAsIntOrDefault(EnvCellSize, config.Index.CellSize)

	if _, set := os.LookupEnv(EnvDefaultAutoPair); set {
		autoPair := getEnvAsBoolOrDefault(EnvDefaultAutoPair, config.AutoPairDefault())
		config.DefaultLayerAutoPair = &autoPair
	}

	return config.Index.validate("index")
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault returns the environment variable as bool or a default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
