// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server needs to start. Discord credentials
// are required; the rest has workable defaults for local development.
type Config struct {
	Port    int    `env:"PORT" envDefault:"8080"`
	DBPath  string `env:"DB_PATH" envDefault:"data/moot.db"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	DiscordClientID     string `env:"DISCORD_CLIENT_ID,required,notEmpty"`
	DiscordClientSecret string `env:"DISCORD_CLIENT_SECRET,required,notEmpty"`

	// GeneratorTag distinguishes IDs minted by different server
	// processes. Every process keeping the default shares one sequence
	// space per millisecond.
	GeneratorTag uint8 `env:"GENERATOR_TAG" envDefault:"1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}
	return &cfg, nil
}

// CallbackURL is the OAuth redirect target registered with Discord.
func (c *Config) CallbackURL() string {
	return c.BaseURL + "/api/callback"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
