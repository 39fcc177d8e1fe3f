package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerURL string `envconfig:"CHAT_SERVER_URL" default:"ws://localhost:8080/ws"`
	UserID    string `envconfig:"CHAT_USER"`
	// CHAT_TOKEN wins over CHAT_JWT_SECRET, which signs a token locally for development
	Token         string        `envconfig:"CHAT_TOKEN"`
	JWTSecret     string        `envconfig:"CHAT_JWT_SECRET"`
	TokenDuration time.Duration `envconfig:"CHAT_TOKEN_DURATION" default:"24h"`
	Colours       bool          `envconfig:"CHAT_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
