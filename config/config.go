package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultServerPort     = 8080
	defaultFinishDistance = 12
)

// defaultLocations is the built-in location ladder, first entry is home.
var defaultLocations = []string{"castle", "village", "forest", "river", "mountain"}

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL       string
	JWTSecretKey      string
	AdminPasswordHash string
	ServerPort        int

	// FinishDistance is how many steps a team must cover to win.
	FinishDistance int
	// Locations is the ordered location ladder, at least two entries.
	Locations []string

	// Cloudflare R2 (optional, emblem uploads are disabled without it)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// R2Configured reports whether all emblem storage settings are present.
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	adminHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if adminHash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH environment variable is not set")
	}

	port := defaultServerPort
	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
		}
		if port <= 0 || port > 65535 {
			return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
		}
	}

	finishDistance := defaultFinishDistance
	if distStr := os.Getenv("FINISH_DISTANCE"); distStr != "" {
		var err error
		finishDistance, err = strconv.Atoi(distStr)
		if err != nil {
			return nil, fmt.Errorf("invalid FINISH_DISTANCE environment variable: %w", err)
		}
		if finishDistance < 1 {
			return nil, fmt.Errorf("FINISH_DISTANCE must be positive, got %d", finishDistance)
		}
	}

	locations := defaultLocations
	if locStr := os.Getenv("LOCATIONS"); locStr != "" {
		locations = nil
		for _, name := range strings.Split(locStr, ",") {
			if name = strings.TrimSpace(name); name != "" {
				locations = append(locations, name)
			}
		}
		if len(locations) < 2 {
			return nil, fmt.Errorf("LOCATIONS must list at least two locations, got %d", len(locations))
		}
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		JWTSecretKey:      jwtKey,
		AdminPasswordHash: adminHash,
		ServerPort:        port,
		FinishDistance:    finishDistance,
		Locations:         locations,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}
