package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "NEWSLABEL_CONFIG"
	envFileEnv         = "NEWSLABEL_ENV_FILE"
	logLevelEnv        = "NEWSLABEL_LOG_LEVEL"
	thresholdEnv       = "NEWSLABEL_THRESHOLD"
	workersEnv         = "NEWSLABEL_WORKERS"
	classifierEnv      = "NEWSLABEL_CLASSIFIER"
	classifierURLEnv   = "ZERO_SHOT_ENDPOINT"
	classifierKeyEnv   = "HF_API_TOKEN"
	chatGPTAPIKeyEnv   = "CHATGPT_API_KEY"
	chatGPTModelEnv    = "CHATGPT_MODEL"
	valkeyAddressEnv   = "VALKEY_INIT_ADDRESS"
	valkeyPasswordEnv  = "VALKEY_PASSWORD"
	storageDriverEnv   = "NEWSLABEL_STORAGE"
	storageDSNEnv      = "DATABASE_DSN"
	awsEndpointEnv     = "AWS_ENDPOINT"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	defaultEnvFile     = ".env"
	defaultTemplate    = "This article is about {}."
	defaultThreshold   = 0.4
	defaultWorkers     = 4
	defaultProgress    = 100
	defaultHFEndpoint  = "https://api-inference.huggingface.co/models/facebook/bart-large-mnli"
	defaultChatGPTURL  = "https://api.openai.com/v1/chat/completions"
	defaultSQLitePath  = "labeled_news.db"
	defaultDynamoTable = "LabeledArticles"
)

// Classifier backends.
const (
	BackendHTTP    = "http"
	BackendLocal   = "hugot"
	BackendChatGPT = "chatgpt"
)

// Storage drivers.
const (
	StorageNone     = "none"
	StorageSQLite   = "sqlite"
	StorageDynamoDB = "dynamodb"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Labeling      LabelingConfig     `yaml:"labeling"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	Cache         CacheConfig        `yaml:"cache"`
	Storage       StorageConfig      `yaml:"storage"`
	Analysis      AnalysisConfig     `yaml:"analysis"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LabelingConfig drives the fusion pipeline.
type LabelingConfig struct {
	ZeroShotThreshold  float64             `yaml:"zero_shot_threshold"`
	HypothesisTemplate string              `yaml:"hypothesis_template"`
	Workers            int                 `yaml:"workers"`
	ProgressEvery      int                 `yaml:"progress_every"`
	Keywords           map[string][]string `yaml:"keywords"`
	Regions            map[string]string   `yaml:"regions"`

	thresholdSet bool
}

// ClassifierConfig selects and tunes the zero-shot backend.
type ClassifierConfig struct {
	Backend    string        `yaml:"backend"`
	Endpoint   string        `yaml:"endpoint"`
	APIKey     string        `yaml:"apiKey"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"maxRetries"`
	ModelName  string        `yaml:"modelName"`
	ModelDir   string        `yaml:"modelDir"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// CacheConfig enables the Valkey score cache when Address is set.
type CacheConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	TLS      bool          `yaml:"tls"`
	TTL      time.Duration `yaml:"ttl"`
}

// StorageConfig describes where labeled rows are persisted for audit.
type StorageConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// AnalysisConfig sizes the statistics report.
type AnalysisConfig struct {
	TopWords       int `yaml:"top_words"`
	TopTFIDF       int `yaml:"top_tfidf"`
	RegionTopWords int `yaml:"region_top_words"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads the env file and YAML configuration (if present) and applies environment overrides.
// path overrides NEWSLABEL_CONFIG when non-empty.
func Load(path string) (Config, error) {
	envFile := os.Getenv(envFileEnv)
	if envFile == "" {
		envFile = defaultEnvFile
	}
	if err := gotenv.Load(envFile); err != nil && envFile != defaultEnvFile {
		log.Printf("config: cannot load env file %s: %v", envFile, err)
	}

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		fileCfg, err := parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parse(raw []byte) (Config, error) {
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, err
	}

	// A threshold of 0 is legal, so record whether the key was present at all.
	var probe struct {
		Labeling struct {
			Threshold *float64 `yaml:"zero_shot_threshold"`
		} `yaml:"labeling"`
	}
	if err := yaml.Unmarshal(raw, &probe); err != nil {
		return Config{}, err
	}
	fileCfg.Labeling.thresholdSet = probe.Labeling.Threshold != nil
	return fileCfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Logging.Level)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "tint", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Logging.Format)
	}
	if c.Labeling.ZeroShotThreshold < 0 || c.Labeling.ZeroShotThreshold > 1 {
		return fmt.Errorf("config: zero_shot_threshold %.3f outside [0,1]", c.Labeling.ZeroShotThreshold)
	}
	if c.Labeling.Workers < 1 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Labeling.Workers)
	}
	switch c.Classifier.Backend {
	case BackendHTTP, BackendLocal, BackendChatGPT:
	default:
		return fmt.Errorf("config: unknown classifier backend %q", c.Classifier.Backend)
	}
	switch c.Storage.Driver {
	case StorageNone, StorageSQLite, StorageDynamoDB:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(thresholdEnv); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Labeling.ZeroShotThreshold = f
		} else {
			log.Printf("config: ignoring %s=%q: %v", thresholdEnv, v, err)
		}
	}

	if v := os.Getenv(workersEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Labeling.Workers = n
		} else {
			log.Printf("config: ignoring %s=%q: %v", workersEnv, v, err)
		}
	}

	if v := os.Getenv(classifierEnv); v != "" {
		c.Classifier.Backend = v
	}

	if v := os.Getenv(classifierURLEnv); v != "" {
		c.Classifier.Endpoint = v
	}

	if v := os.Getenv(classifierKeyEnv); v != "" {
		c.Classifier.APIKey = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(valkeyAddressEnv); v != "" {
		c.Cache.Address = v
	}

	if v := os.Getenv(valkeyPasswordEnv); v != "" {
		c.Cache.Password = v
	}

	if v := os.Getenv(storageDriverEnv); v != "" {
		c.Storage.Driver = v
	}

	if v := os.Getenv(storageDSNEnv); v != "" {
		c.Storage.DSN = v
	}

	if v := os.Getenv(awsEndpointEnv); v != "" {
		c.Storage.Endpoint = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Labeling.thresholdSet {
		base.Labeling.ZeroShotThreshold = override.Labeling.ZeroShotThreshold
	}
	if override.Labeling.HypothesisTemplate != "" {
		base.Labeling.HypothesisTemplate = override.Labeling.HypothesisTemplate
	}
	if override.Labeling.Workers != 0 {
		base.Labeling.Workers = override.Labeling.Workers
	}
	if override.Labeling.ProgressEvery != 0 {
		base.Labeling.ProgressEvery = override.Labeling.ProgressEvery
	}
	if len(override.Labeling.Keywords) > 0 {
		base.Labeling.Keywords = override.Labeling.Keywords
	}
	if len(override.Labeling.Regions) > 0 {
		base.Labeling.Regions = override.Labeling.Regions
	}

	if override.Classifier.Backend != "" {
		base.Classifier.Backend = override.Classifier.Backend
	}
	if override.Classifier.Endpoint != "" {
		base.Classifier.Endpoint = override.Classifier.Endpoint
	}
	if override.Classifier.APIKey != "" {
		base.Classifier.APIKey = override.Classifier.APIKey
	}
	if override.Classifier.Timeout != 0 {
		base.Classifier.Timeout = override.Classifier.Timeout
	}
	if override.Classifier.MaxRetries != 0 {
		base.Classifier.MaxRetries = override.Classifier.MaxRetries
	}
	if override.Classifier.ModelName != "" {
		base.Classifier.ModelName = override.Classifier.ModelName
	}
	if override.Classifier.ModelDir != "" {
		base.Classifier.ModelDir = override.Classifier.ModelDir
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}
	if override.ChatGPT.Timeout != 0 {
		base.ChatGPT.Timeout = override.ChatGPT.Timeout
	}

	if override.Cache.Address != "" {
		base.Cache = override.Cache
		if base.Cache.TTL == 0 {
			base.Cache.TTL = defaultConfig().Cache.TTL
		}
	}

	if override.Storage.Driver != "" {
		base.Storage.Driver = override.Storage.Driver
	}
	if override.Storage.DSN != "" {
		base.Storage.DSN = override.Storage.DSN
	}
	if override.Storage.Table != "" {
		base.Storage.Table = override.Storage.Table
	}
	if override.Storage.Region != "" {
		base.Storage.Region = override.Storage.Region
	}
	if override.Storage.Endpoint != "" {
		base.Storage.Endpoint = override.Storage.Endpoint
	}

	if override.Analysis.TopWords != 0 {
		base.Analysis.TopWords = override.Analysis.TopWords
	}
	if override.Analysis.TopTFIDF != 0 {
		base.Analysis.TopTFIDF = override.Analysis.TopTFIDF
	}
	if override.Analysis.RegionTopWords != 0 {
		base.Analysis.RegionTopWords = override.Analysis.RegionTopWords
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "tint"},
		Labeling: LabelingConfig{
			ZeroShotThreshold:  defaultThreshold,
			HypothesisTemplate: defaultTemplate,
			Workers:            defaultWorkers,
			ProgressEvery:      defaultProgress,
		},
		Classifier: ClassifierConfig{
			Backend:    BackendHTTP,
			Endpoint:   defaultHFEndpoint,
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			ModelName:  "facebook/bart-large-mnli",
			ModelDir:   "./models",
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:     defaultChatGPTURL,
			Model:        "gpt-4o-mini",
			SystemPrompt: "You are a news topic classifier. You answer only with JSON.",
			Timeout:      30 * time.Second,
		},
		Cache: CacheConfig{TTL: 7 * 24 * time.Hour},
		Storage: StorageConfig{
			Driver: StorageNone,
			DSN:    defaultSQLitePath,
			Table:  defaultDynamoTable,
			Region: "us-west-2",
		},
		Analysis: AnalysisConfig{TopWords: 20, TopTFIDF: 20, RegionTopWords: 10},
	}
}
