package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the service reads from its environment. A .env
// file in the working directory fills in whatever the environment itself
// does not provide.
type Config struct {
	AlpacaKeyID     string        `envconfig:"ALPACA_API_KEY_ID" required:"true"`
	AlpacaSecretKey string        `envconfig:"ALPACA_API_SECRET_KEY" required:"true"`
	AlpacaHost      string        `envconfig:"ALPACA_HOST" default:"data.alpaca.markets"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	MarketTimezone  string        `envconfig:"MARKET_TIMEZONE" default:"America/New_York"`
	MaxWorkers      int           `envconfig:"MAX_WORKERS" default:"20"`
	ChunkSize       int           `envconfig:"CHUNK_SIZE" default:"100"`
	ServerAddr      string        `envconfig:"SERVER_ADDR" default:":8080"`
}

// Load reads the .env file if there is one, then the environment. Missing
// required keys fail here rather than on the first request.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("error processing environment: %w", err)
	}

	return cfg, nil
}

// MarketLocation resolves the configured market timezone.
func (cfg Config) MarketLocation() (*time.Location, error) {
	return time.LoadLocation(cfg.MarketTimezone)
}
