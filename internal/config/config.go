package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config is the whole service configuration. An optional config.json sets
// the baseline and environment variables override it; credentials only ever
// come from the environment.
type Config struct {
	Server ServerConfig `json:"server" mapstructure:"server"`
	OpenAI OpenAIConfig `json:"openai" mapstructure:"openai"`
	Vision VisionConfig `json:"vision" mapstructure:"vision"`
	CORS   CORSConfig   `json:"cors" mapstructure:"cors"`

	// PromptPath locates the persona prompt file loaded once at startup.
	PromptPath string `json:"prompt_path" mapstructure:"prompt_path"`
}

type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// OpenAIConfig configures the chat-completion provider.
type OpenAIConfig struct {
	APIKey string `json:"api_key,omitempty" mapstructure:"api_key"`
	Model  string `json:"model" mapstructure:"model"`
}

// VisionConfig configures the vision-analysis provider. BaseURL may point at
// any OpenAI-compatible endpoint; empty means the default OpenAI one. An
// empty APIKey falls back to the OpenAI key.
type VisionConfig struct {
	APIKey  string `json:"api_key,omitempty" mapstructure:"api_key"`
	Model   string `json:"model" mapstructure:"model"`
	BaseURL string `json:"base_url,omitempty" mapstructure:"base_url"`
}

type CORSConfig struct {
	// AllowOrigins is a comma-separated origin list, as the fiber cors
	// middleware expects it.
	AllowOrigins string `json:"allow_origins" mapstructure:"allow_origins"`
}

// Load reads the configuration. A missing config file is not an error; a
// missing chat API key is.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("openai.model", "gpt-4o")
	viper.SetDefault("vision.model", "gpt-4o")
	viper.SetDefault("prompt_path", "prompts/system.txt")
	viper.SetDefault("cors.allow_origins", "http://localhost:5173,https://ptm-chat.onrender.com")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	if cfg.OpenAI.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not configured")
	}
	if cfg.Vision.APIKey == "" {
		cfg.Vision.APIKey = cfg.OpenAI.APIKey
	}

	return &cfg, nil
}

func loadEnvOverrides(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.OpenAI.Model = model
	}
	if key := os.Getenv("VISION_API_KEY"); key != "" {
		cfg.Vision.APIKey = key
	}
	if model := os.Getenv("VISION_MODEL"); model != "" {
		cfg.Vision.Model = model
	}
	if baseURL := os.Getenv("VISION_BASE_URL"); baseURL != "" {
		cfg.Vision.BaseURL = baseURL
	}
	if host := os.Getenv("PTM_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("PTM_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if origins := os.Getenv("PTM_CORS_ORIGINS"); origins != "" {
		cfg.CORS.AllowOrigins = origins
	}
	if path := os.Getenv("PTM_SYSTEM_PROMPT"); path != "" {
		cfg.PromptPath = path
	}
}
