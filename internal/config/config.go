package config

import (
	"os"
	"strconv"
	"strings"
)

// ServerConfig holds all gateway configuration.
type ServerConfig struct {
	Host          string
	Port          int
	URLPrefix     string // stripped from incoming paths before routing
	DynamicCORS   bool   // echo the request Origin instead of the static policy
	PlaygroundDir string // directory with the playground UI bundle; embedded fallback when empty
	SchemaPath    string // compiled interface description document
	Verbose       bool
	Otel          bool
	MaxBodyBytes  int64
}

// DefaultMaxBodyBytes limits the size of incoming request bodies.
const DefaultMaxBodyBytes = 10 * 1024 * 1024 // 10 MB

// DefaultFromEnv creates a ServerConfig with defaults from environment
// variables. Flags in main override these.
func DefaultFromEnv() *ServerConfig {
	return &ServerConfig{
		Host:          envOrDefault("GATEWAY_HOST", "0.0.0.0"),
		Port:          envInt("GATEWAY_PORT", 8000),
		URLPrefix:     os.Getenv("GATEWAY_URL_PREFIX"),
		DynamicCORS:   envBool("GATEWAY_DYNAMIC_CORS"),
		PlaygroundDir: os.Getenv("GATEWAY_PLAYGROUND_DIR"),
		SchemaPath:    os.Getenv("GATEWAY_SCHEMA"),
		Verbose:       envBool("GATEWAY_VERBOSE"),
		Otel:          envBool("GATEWAY_OTEL"),
		MaxBodyBytes:  int64(envInt("GATEWAY_MAX_BODY_BYTES", DefaultMaxBodyBytes)),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
