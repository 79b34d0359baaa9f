package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

var (
	ErrInvalidBoardSize = errors.New("board size must be positive")
	ErrDefaultAboveMax  = errors.New("default board size is above the max board size")
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"GOMOKU_LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"GOMOKU_HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"GOMOKU_SOCKET_PORT" env-default:"8080"`
	Game       Game   `yaml:"game"`
	CORS       CORS   `yaml:"cors"`
	Redis      Redis  `yaml:"redis"`
}

type Game struct {
	DefaultBoardSize int `yaml:"default-board-size" env:"GOMOKU_DEFAULT_BOARD_SIZE" env-default:"15"`
	MaxBoardSize     int `yaml:"max-board-size" env:"GOMOKU_MAX_BOARD_SIZE" env-default:"30"`
}

type CORS struct {
	// empty or "*" allows any origin
	AllowedOrigins []string `yaml:"allowed-origins" env:"GOMOKU_CORS_ALLOWED_ORIGINS" env-separator:","`
}

type Redis struct {
	Enabled     bool          `yaml:"enabled" env:"GOMOKU_REDIS_ENABLED" env-default:"false"`
	Host        string        `yaml:"host" env:"GOMOKU_REDIS_HOST" env-default:"localhost"`
	Port        string        `yaml:"port" env:"GOMOKU_REDIS_PORT" env-default:"6379"`
	SnapshotTTL time.Duration `yaml:"snapshot-ttl" env:"GOMOKU_REDIS_SNAPSHOT_TTL" env-default:"1h"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load reads the yaml file at path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (that *Config) Validate() error {
	if that.Game.DefaultBoardSize <= 0 || that.Game.MaxBoardSize <= 0 {
		return fmt.Errorf("%w: default %d, max %d", ErrInvalidBoardSize, that.Game.DefaultBoardSize, that.Game.MaxBoardSize)
	}

	if that.Game.DefaultBoardSize > that.Game.MaxBoardSize {
		return fmt.Errorf("%w: %d > %d", ErrDefaultAboveMax, that.Game.DefaultBoardSize, that.Game.MaxBoardSize)
	}

	return nil
}

// AllowsAnyOrigin reports whether cross-origin requests are unrestricted.
func (that *CORS) AllowsAnyOrigin() bool {
	if len(that.AllowedOrigins) == 0 {
		return true
	}

	for _, origin := range that.AllowedOrigins {
		if origin == "*" {
			return true
		}
	}

	return false
}

func (that *CORS) IsAllowed(origin string) bool {
	if that.AllowsAnyOrigin() {
		return true
	}

	for _, allowed := range that.AllowedOrigins {
		if allowed == origin {
			return true
		}
	}

	return false
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
