package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Account AccountConfig `yaml:"account"`
	Poll    PollConfig    `yaml:"poll"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
	Log     LogConfig     `yaml:"log"`
}

// AccountConfig identifica la cuenta de Steam. Lo normal es pasarlo por env.
type AccountConfig struct {
	AccountName    string `yaml:"account_name"`
	Password       string `yaml:"password"`
	IdentitySecret string `yaml:"identity_secret"` // base64, del autenticador móvil
}

// PollConfig controla el polling de ofertas.
type PollConfig struct {
	IntervalSeconds int    `yaml:"interval_seconds"`
	Language        string `yaml:"language"`
}

// APIConfig contiene los base URLs de Steam.
type APIConfig struct {
	CommunityBase string `yaml:"community_base"`
	WebAPIBase    string `yaml:"web_api_base"`
	APIKey        string `yaml:"api_key"` // vacío: se lee de /dev/apikey tras el login
}

// StorageConfig controla dónde se persisten el token y el checkpoint.
type StorageConfig struct {
	Backend      string `yaml:"backend"` // file | sqlite | redis
	GuardPath    string `yaml:"guard_path"`
	PollDataPath string `yaml:"poll_data_path"`
	DSN          string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
	RedisURL     string `yaml:"redis_url"`
}

// EventsConfig controla la publicación de eventos de ofertas.
type EventsConfig struct {
	Backend     string `yaml:"backend"` // none | gochannel | redis
	TopicPrefix string `yaml:"topic_prefix"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
	File   string `yaml:"file"`   // se trunca en cada arranque; vacío = stdout
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un YAML inexistente no es error: quedan defaults + variables de entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// PollInterval devuelve el intervalo de polling como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ACCOUNT_NAME"); v != "" {
		cfg.Account.AccountName = v
	}
	if v := os.Getenv("PASSWORD"); v != "" {
		cfg.Account.Password = v
	}
	if v := os.Getenv("IDENTITY_SECRET"); v != "" {
		cfg.Account.IdentitySecret = v
	}
	if v := os.Getenv("POLLING_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POLLING_INTERVAL %q: %w", v, err)
		}
		cfg.Poll.IntervalSeconds = n
	}
	if v := os.Getenv("STEAM_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Storage.RedisURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v, ok := os.LookupEnv("LOG_FILE"); ok {
		cfg.Log.File = v
		if v == "" {
			cfg.Log.File = "-"
		}
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Poll.IntervalSeconds <= 0 {
		cfg.Poll.IntervalSeconds = 10
	}
	if cfg.Poll.Language == "" {
		cfg.Poll.Language = "en"
	}
	if cfg.API.CommunityBase == "" {
		cfg.API.CommunityBase = "https://steamcommunity.com"
	}
	if cfg.API.WebAPIBase == "" {
		cfg.API.WebAPIBase = "https://api.steampowered.com"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "file"
	}
	if cfg.Storage.GuardPath == "" {
		cfg.Storage.GuardPath = "steamguard.txt"
	}
	if cfg.Storage.PollDataPath == "" {
		cfg.Storage.PollDataPath = "polldata.json"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "offerbot.db"
	}
	if cfg.Storage.RedisURL == "" {
		cfg.Storage.RedisURL = "redis://localhost:6379/0"
	}
	if cfg.Events.Backend == "" {
		cfg.Events.Backend = "none"
	}
	if cfg.Events.TopicPrefix == "" {
		cfg.Events.TopicPrefix = "offerbot"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	switch cfg.Log.File {
	case "":
		cfg.Log.File = "log.txt"
	case "-":
		cfg.Log.File = ""
	}
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Events.Backend {
	case "none", "gochannel", "redis":
	default:
		return fmt.Errorf("unknown events backend %q", c.Events.Backend)
	}
	return nil
}
