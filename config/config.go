package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings, loaded from the environment with an
// optional .env file on top.
type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	GinMode       string `envconfig:"GIN_MODE" default:"debug"`
	DBPath        string `envconfig:"DB_PATH" default:"rotibank.db"`
	JWTSecret     string `envconfig:"JWT_SECRET" default:"rotibank_super_secret_2024"`
	TokenTTLHours int    `envconfig:"TOKEN_TTL_HOURS" default:"24"`
	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@rotibank.com"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin123"`
}

// Load reads the environment into a Config. A missing .env file is not an
// error; explicit environment variables always win.
func Load() (Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return c, err
}

// Secret returns the JWT signing key as bytes.
func (c Config) Secret() []byte {
	return []byte(c.JWTSecret)
}
