package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL  string `env:"DATABASE_URL,required"`
	OpenAIKey    string `env:"OPENAI_API_KEY,required"`
	OpenAIURL    string `env:"OPENAI_API_URL" envDefault:"https://api.openai.com/v1"`
	DefaultModel string `env:"NOVA_DEFAULT_MODEL" envDefault:"gpt-4"`

	// Server
	Port        int    `env:"PORT" envDefault:"8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	Environment string `env:"APP_ENV" envDefault:"production"`

	// Ops alerts via Telegram (optional)
	TelegramBotToken  string `env:"TELEGRAM_BOT_TOKEN"`
	LogTelegramChatID int64  `env:"LOG_TELEGRAM_CHAT_ID"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) TelegramAlertsEnabled() bool {
	return c.TelegramBotToken != "" && c.LogTelegramChatID != 0
}
