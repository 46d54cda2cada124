package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig holds configuration for the learner client
type ClientConfig struct {
	APIURL   string
	Timeout  time.Duration
	Token    string // optional bearer token, cookies from login are used otherwise
	LogLevel string
}

// LoadClient reads the learner client configuration from environment variables
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	cfg := &ClientConfig{
		APIURL:   stringEnv("LMS_API_URL", "http://localhost:8080/api/v1"),
		Token:    stringEnv("LMS_TOKEN", ""),
		LogLevel: stringEnv("LOG_LEVEL", "warn"),
	}

	timeout, err := durationEnv("LMS_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("LMS_TIMEOUT must be positive")
	}
	cfg.Timeout = timeout

	return cfg, nil
}
