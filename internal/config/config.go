package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Discord Bot
	DiscordToken string

	// Channels
	FarmChannelID     string
	ReportChannelID   string
	AnnounceChannelID string

	// Discord OAuth2 (web API)
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Database
	DatabaseURL string

	// Web Server
	WebBind string

	// Session
	JWTSecret string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		FarmChannelID:       os.Getenv("FARM_CHANNEL_ID"),
		ReportChannelID:     os.Getenv("REPORT_CHANNEL_ID"),
		AnnounceChannelID:   os.Getenv("ANNOUNCE_CHANNEL_ID"),
		WebBind:             getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  getEnvDefault("DISCORD_REDIRECT_URI", "http://localhost:3000/api/auth/callback"),
		JWTSecret:           getEnvDefault("JWT_SECRET", "dev-only-change-me"),
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.FarmChannelID == "" {
		return nil, fmt.Errorf("FARM_CHANNEL_ID is required")
	}
	if cfg.ReportChannelID == "" {
		return nil, fmt.Errorf("REPORT_CHANNEL_ID is required")
	}
	if cfg.AnnounceChannelID == "" {
		return nil, fmt.Errorf("ANNOUNCE_CHANNEL_ID is required")
	}

	return cfg, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
