package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Database DatabaseConfig `json:"database" mapstructure:"database"`
	LLM      LLMConfig      `json:"llm" mapstructure:"llm"`
}

type ServerConfig struct {
	Host        string `json:"host" mapstructure:"host"`
	Port        int    `json:"port" mapstructure:"port"`
	CORSOrigins string `json:"cors_origins" mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

type LLMConfig struct {
	BaseURL string `json:"base_url" mapstructure:"base_url"`
	APIKey  string `json:"api_key" mapstructure:"api_key"`
	Model   string `json:"model" mapstructure:"model"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	// Add config paths
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Check for user config directory
	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".screenbreak"))
	}

	// Set defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.cors_origins", "http://localhost:3000,http://localhost:8000,http://localhost:5173")
	viper.SetDefault("database.path", "screenbreak.db")
	viper.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("llm.model", "llama-3.3-70b-versatile")

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine, defaults plus env cover it.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func loadEnvOverrides(cfg *Config) {
	if host := os.Getenv("SCREENBREAK_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SCREENBREAK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if origins := os.Getenv("SCREENBREAK_CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = origins
	}
	if path := os.Getenv("SCREENBREAK_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if url := os.Getenv("SCREENBREAK_LLM_BASE_URL"); url != "" {
		cfg.LLM.BaseURL = url
	}
	if model := os.Getenv("SCREENBREAK_LLM_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
}
