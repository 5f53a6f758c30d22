package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del ledger.
type Config struct {
	Ledger    LedgerConfig    `yaml:"ledger"`
	Scores    ScoresConfig    `yaml:"scores"`
	Storage   StorageConfig   `yaml:"storage"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Log       LogConfig       `yaml:"log"`
}

// LedgerConfig controla el write path.
type LedgerConfig struct {
	ParserVersion string `yaml:"parser_version"` // se registra en el audit Create
}

// ScoresConfig apunta al proveedor de resultados finales.
type ScoresConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// ReconcileConfig controla el ciclo de reconciliación.
type ReconcileConfig struct {
	IntervalSeconds int    `yaml:"interval_seconds"`
	Workers         int    `yaml:"workers"`
	GradingVersion  int    `yaml:"grading_version"` // versión explícita, nunca un singleton
	SportKey        string `yaml:"sport_key"`       // filtro opcional por liga
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Los valores del entorno sobreescriben los del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// ReconcileInterval devuelve el intervalo del ciclo como time.Duration.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.Reconcile.IntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("SCORES_API_KEY"); v != "" {
		cfg.Scores.APIKey = v
	}
	if v := os.Getenv("LEDGER_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Ledger.ParserVersion == "" {
		cfg.Ledger.ParserVersion = "manual"
	}
	if cfg.Reconcile.IntervalSeconds <= 0 {
		cfg.Reconcile.IntervalSeconds = 300
	}
	if cfg.Reconcile.Workers <= 0 {
		cfg.Reconcile.Workers = 1
	}
	if cfg.Reconcile.GradingVersion <= 0 {
		cfg.Reconcile.GradingVersion = 1
	}
	if cfg.Scores.BaseURL == "" {
		cfg.Scores.BaseURL = "https://api.the-scores-provider.example"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "basement-bets.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
