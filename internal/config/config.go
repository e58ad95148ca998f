package config

import (
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" env-default:"0.0.0.0:8080"`
	PostgresConn  string `env:"POSTGRES_CONN" env-required:"true"`
	LogLevel      string `env:"LOG_LEVEL" env-default:"info"`
}

// Load читает конфигурацию из окружения; .env подхватывается, если есть
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
