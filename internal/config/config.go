package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port    string        `ignored:"true"`
	Env     string        `envconfig:"APP_ENV" default:"local"`
	Log     LogConfig     `envconfig:"LOG"`
	LLM     LLMConfig     `envconfig:"LLM"`
	Story   StoryConfig   `envconfig:"STORY"`
	History HistoryConfig `envconfig:"HISTORY"`
	Session SessionConfig `envconfig:"SESSION"`
	Tracing TracingConfig `envconfig:"TRACING"`
}

type LogConfig struct {
	Level      string `envconfig:"LEVEL" default:"info"`
	Encoding   string `envconfig:"ENCODING" default:"json"`
	OutputPath string `envconfig:"OUTPUT"`
}

type LLMConfig struct {
	// Fake swaps every provider for the deterministic offline client.
	Fake           bool          `envconfig:"FAKE" default:"false"`
	GeminiAPIKey   string        `envconfig:"GEMINI_API_KEY"`
	OpenAIAPIKey   string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL  string        `envconfig:"OPENAI_BASE_URL"`
	OpenAIModels   []string      `envconfig:"OPENAI_MODELS"`
	MaxAttempts    int           `envconfig:"MAX_ATTEMPTS" default:"1"`
	RetryBaseDelay time.Duration `envconfig:"RETRY_BASE_DELAY" default:"300ms"`
	RPS            float64       `envconfig:"RPS" default:"0"`
	Burst          int           `envconfig:"BURST" default:"1"`
}

type StoryConfig struct {
	Chapters       int `envconfig:"CHAPTERS" default:"5"`
	ThinkingBudget int `envconfig:"THINKING_BUDGET" default:"4000"`
}

type HistoryConfig struct {
	Backend  string `envconfig:"BACKEND" default:"file"`
	Key      string `envconfig:"KEY" default:"storyspark_history"`
	FilePath string `envconfig:"FILE_PATH" default:"tmp/story_history.json"`

	PostgresDSN string `envconfig:"PG_DSN"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	S3 S3Config `envconfig:"S3"`
}

type S3Config struct {
	Endpoint  string `envconfig:"ENDPOINT"`
	Region    string `envconfig:"REGION" default:"us-east-1"`
	AccessKey string `envconfig:"ACCESS_KEY"`
	SecretKey string `envconfig:"SECRET_KEY"`
	Bucket    string `envconfig:"BUCKET" default:"storyspark-history"`
	UseSSL    string `envconfig:"USE_SSL"`
}

type SessionConfig struct {
	Max int `envconfig:"MAX" default:"256"`
}

type TracingConfig struct {
	Enabled     bool    `envconfig:"ENABLED" default:"false"`
	Endpoint    string  `envconfig:"ENDPOINT" default:"localhost:4317"`
	SampleRate  float64 `envconfig:"SAMPLE_RATE" default:"1"`
	ServiceName string  `envconfig:"SERVICE_NAME" default:"storyspark"`
}

// Load reads .env (if present), the environment and the command line. PORT
// in the environment wins over -port.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("storyspark", flag.ContinueOnError)
	port := fs.String("port", ":8081", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	cfg.Port = normalizePort(firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), *port))
	cfg.Env = strings.TrimSpace(cfg.Env)
	if cfg.Env == "" {
		cfg.Env = "local"
	}
	cfg.LLM.GeminiAPIKey = firstNonEmpty(
		strings.TrimSpace(cfg.LLM.GeminiAPIKey),
		strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
		strings.TrimSpace(os.Getenv("API_KEY")),
	)
	cfg.LLM.OpenAIAPIKey = firstNonEmpty(
		strings.TrimSpace(cfg.LLM.OpenAIAPIKey),
		strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
	)
	cfg.History.Backend = strings.ToLower(strings.TrimSpace(cfg.History.Backend))
	cfg.History.S3 = resolveS3(cfg.Env, cfg.History.S3)

	if cfg.Story.Chapters <= 0 {
		return nil, fmt.Errorf("STORY_CHAPTERS must be positive, got %d", cfg.Story.Chapters)
	}
	if cfg.LLM.MaxAttempts < 1 {
		cfg.LLM.MaxAttempts = 1
	}
	return &cfg, nil
}

func (c *Config) IsLocal() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "local")
}

func normalizePort(p string) string {
	if strings.HasPrefix(p, ":") || strings.Contains(p, ":") {
		return p
	}
	return ":" + p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
