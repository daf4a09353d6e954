package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

var ErrUnknownStore = errors.New("unknown room store")

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	GinMode  string `yaml:"gin-mode" env:"GIN_MODE" env-default:"release"`
	Store    string `yaml:"store" env:"ROOM_STORE" env-default:"memory"`
	Redis    Redis  `yaml:"redis"`
	Room     Room   `yaml:"room"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	DB   int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Room struct {
	CodeLength    int           `yaml:"code-length" env:"ROOM_CODE_LENGTH" env-default:"6"`
	IdleTimeout   time.Duration `yaml:"idle-timeout" env:"ROOM_IDLE_TIMEOUT" env-default:"30m"`
	SweepInterval time.Duration `yaml:"sweep-interval" env:"ROOM_SWEEP_INTERVAL" env-default:"1m"`
}

// MustLoad - load all configurations from the yml file at path, or from CONFIG_PATH when set.
// A missing file leaves defaults and environment only.
func MustLoad(path string) *Config {
	if fromEnv := os.Getenv("CONFIG_PATH"); fromEnv != "" {
		path = fromEnv
	}

	config := &Config{}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, config)
	} else {
		err = cleanenv.ReadEnv(config)
	}

	if err != nil {
		panic(fmt.Errorf("unable to load config: %w", err))
	}

	if err = config.Validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	return config
}

func (that *Config) Validate() error {
	if that.Store != StoreMemory && that.Store != StoreRedis {
		return fmt.Errorf("%w: %q", ErrUnknownStore, that.Store)
	}

	if that.Room.CodeLength <= 0 {
		return fmt.Errorf("room code length must be positive, got %d", that.Room.CodeLength)
	}

	if that.Room.IdleTimeout <= 0 || that.Room.SweepInterval <= 0 {
		return errors.New("room idle timeout and sweep interval must be positive")
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// Player configures the terminal client.
type Player struct {
	ServerURL    string        `env:"SERVER_URL" env-default:"http://localhost:9090"`
	PollInterval time.Duration `env:"POLL_INTERVAL" env-default:"800ms"`
	Difficulty   string        `env:"DIFFICULTY" env-default:"hard"`
	LogLevel     string        `env:"LOG_LEVEL" env-default:"warn"`
}

func LoadPlayer() (*Player, error) {
	player := &Player{}
	if err := cleanenv.ReadEnv(player); err != nil {
		return nil, fmt.Errorf("unable to read player environment: %w", err)
	}

	return player, nil
}
