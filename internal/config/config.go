package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	DataDir      string `json:"data_dir"`
	LogLevel     string `json:"log_level"`
	Listen       string `json:"listen"`
	StoreBackend string `json:"store_backend"`
	Redis        struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`
	LLM struct {
		BaseURL        string  `json:"base_url"`
		APIKey         string  `json:"api_key"`
		Model          string  `json:"model"`
		VisionModel    string  `json:"vision_model"`
		MaxTokens      int     `json:"max_tokens"`
		Temperature    float32 `json:"temperature"`
		TimeoutSeconds int     `json:"timeout_seconds"`
		MaxConcurrent  int     `json:"max_concurrent"`
	} `json:"llm"`
	Retrieval struct {
		TopK             int `json:"top_k"`
		MaxContextTokens int `json:"max_context_tokens"`
	} `json:"retrieval"`
	Limits struct {
		MaxImageBytes int `json:"max_image_bytes"`
		MaxAudioBytes int `json:"max_audio_bytes"`
	} `json:"limits"`
	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:      filepath.Join(os.Getenv("HOME"), ".kisanmitra"),
		LogLevel:     "info",
		Listen:       ":8080",
		StoreBackend: "file",
	}
	cfg.Redis.Addr = "localhost:6379"
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.VisionModel = "gpt-4o"
	cfg.LLM.MaxTokens = 2048
	cfg.LLM.Temperature = 0.2
	cfg.LLM.TimeoutSeconds = 60
	cfg.LLM.MaxConcurrent = 4
	cfg.Retrieval.TopK = 5
	cfg.Retrieval.MaxContextTokens = 6000
	cfg.Limits.MaxImageBytes = 5 << 20
	cfg.Limits.MaxAudioBytes = 10 << 20

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		cfg.LLM.BaseURL = baseURL
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cfg.Redis.Addr = redisAddr
	}

	return cfg, nil
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}
