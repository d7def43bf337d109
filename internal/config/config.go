// Package config предоставялет структуры и функции для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	Backend         `yaml:"backend"`
	Storage         `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	HTTPServer      `yaml:"http_server"`
}

// HTTPServer структура для настройки локального сервера панели
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"20"`
	RateBurst   int           `yaml:"rate_burst" env-default:"40"`
}

// Backend структура для настройки REST API салона
type Backend struct {
	BaseURL          string        `yaml:"base_url" env:"BACKEND_BASE_URL" env-required:"true"`
	APIToken         string        `yaml:"api_token" env:"BACKEND_API_TOKEN"`
	APITokenHeader   string        `yaml:"api_token_header" env-default:"X-Api-Token"`
	Timeout          time.Duration `yaml:"timeout" env:"BACKEND_TIMEOUT" env-default:"30s"`
	RequestsPerSec   float64       `yaml:"requests_per_sec" env-default:"10"`
	Burst            int           `yaml:"burst" env-default:"20"`
	CriticalPrefixes []string      `yaml:"critical_prefixes" env-separator:","`
	CriticalExempt   []string      `yaml:"critical_exempt" env-separator:","`
}

// Storage структура для выбора хранилища сессии: memory, file или redis
type Storage struct {
	Driver   string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	FilePath string `yaml:"file_path" env:"STORAGE_FILE_PATH"`
	Prefix   string `yaml:"prefix" env-default:"salon-admin:"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// RabbitMQ структура для публикации событий абонементов.
// Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL      string `yaml:"url" env:"RABBITMQ_URL"`
	Exchange string `yaml:"exchange" env-default:"memberships"`
}

// DefaultCriticalPrefixes — префиксы путей, 401 на которых завершает сессию.
var DefaultCriticalPrefixes = []string{"/auth", "/user", "/profile", "/admin"}

// DefaultCriticalExempt — пути под критичными префиксами, 401 на которых
// сессию не завершает.
var DefaultCriticalExempt = []string{"/authentication/login"}

// MustLoad функция для загрузки конфига из файла, путь к которому лежит в CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	cfg.applyDefaults()
	return &cfg
}

// LoadEnv читает конфиг только из переменных окружения. Используется CLI.
func LoadEnv() (*Config, error) {
	const op = "config.LoadEnv"
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.CriticalPrefixes) == 0 {
		c.CriticalPrefixes = DefaultCriticalPrefixes
	}
	if len(c.CriticalExempt) == 0 {
		c.CriticalExempt = DefaultCriticalExempt
	}
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Backend:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"  CriticalPrefixes: %v\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  FilePath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  Exchange: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n",
		c.Env,
		c.BaseURL,
		c.Backend.Timeout,
		c.CriticalPrefixes,
		c.Driver,
		c.FilePath,
		c.AddressRedis,
		c.DB,
		c.Exchange,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
	)
}
