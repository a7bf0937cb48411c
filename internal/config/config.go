// Package config содержит логику чтения конфигурации клиента FastGo.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// CommandTrack обозначает подкоманду по умолчанию: отслеживание заказов и локальный API.
const CommandTrack = "track"

// Config содержит параметры конфигурации клиента FastGo.
type Config struct {
	AuthAPIAddress string `env:"AUTH_API_ADDRESS"`
	ShopAPIAddress string `env:"SHOP_API_ADDRESS"`
	BrokerURL      string `env:"BROKER_URL"`
	GeocoderURL    string `env:"GEOCODER_URL"`
	RunAddress     string `env:"RUN_ADDRESS"`
	SessionDir     string `env:"SESSION_DIR"`

	GeocoderUserAgent     string        `env:"GEOCODER_USER_AGENT" envDefault:"FastGoUserApp/1.0"`
	SessionSecret         string        `env:"SESSION_SECRET" envDefault:"fastgo-session-secret"`
	PollInterval          time.Duration `env:"POLL_INTERVAL" envDefault:"30s"`
	SearchRadiusKm        float64       `env:"SEARCH_RADIUS_KM" envDefault:"100"`
	MaxDeliveryDistanceKm float64       `env:"MAX_DELIVERY_DISTANCE_KM" envDefault:"5"`
	TelegramToken         string        `env:"TELEGRAM_TOKEN"`
	TelegramChatID        int64         `env:"TELEGRAM_CHAT_ID"`
	LogLevel              string        `env:"LOG_LEVEL" envDefault:"info"`

	// Command содержит выбранную подкоманду, Args её аргументы.
	Command string
	Args    []string
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	flag.StringVar(&cfg.AuthAPIAddress, "auth", "http://localhost:8080", "auth service address")
	flag.StringVar(&cfg.ShopAPIAddress, "shop", "http://localhost:8083", "shop service address")
	flag.StringVar(&cfg.BrokerURL, "broker", "ws://localhost:9001", "message broker websocket URL")
	flag.StringVar(&cfg.GeocoderURL, "geocoder", "https://nominatim.openstreetmap.org", "geocoding service URL")
	flag.StringVar(&cfg.RunAddress, "a", "localhost:8090", "address and port for the local API")
	flag.StringVar(&cfg.SessionDir, "s", defaultSessionDir(), "directory for the encrypted session")

	flag.Parse()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Command = CommandTrack
	if args := flag.Args(); len(args) > 0 {
		cfg.Command = args[0]
		cfg.Args = args[1:]
	}

	return cfg, nil
}

func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fastgo"
	}
	return filepath.Join(home, ".fastgo")
}
