package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/flexbt/internal/domain"
)

// DefaultPath es la ruta por defecto del archivo de configuración.
const DefaultPath = "config/config.yaml"

// Config es la configuración completa del backtester.
type Config struct {
	Backtest BacktestConfig `yaml:"backtest"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// BacktestConfig controla la simulación.
type BacktestConfig struct {
	Input      string  `yaml:"input"`
	Output     string  `yaml:"output"`
	InitialUSD float64 `yaml:"initial_usd"`

	// Signals es el vocabulario canónico, en orden de prioridad de matching.
	// Vacío = vocabulario por defecto.
	Signals []string `yaml:"signals"`

	// Policy mapea combinaciones "sig1|sig2" ("" = sin señales) a posición
	// objetivo. Vacío = policy por defecto. Las combinaciones ausentes
	// mantienen la posición anterior, por contrato.
	Policy map[string]PolicyEntry `yaml:"policy"`
}

// PolicyEntry es una entrada de la policy en el YAML.
type PolicyEntry struct {
	Position string   `yaml:"position"`
	Ratio    *float64 `yaml:"ratio"` // nil = 1.0
}

// StorageConfig controla dónde se archivan los runs.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Si el archivo no existe y la ruta es la por defecto, devuelve la
// configuración por defecto (el binario funciona sin config file).
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
		// sin archivo: defaults
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Normalizer devuelve el normalizador con el vocabulario configurado.
func (c *Config) Normalizer() domain.Normalizer {
	return domain.NewNormalizer(c.Backtest.Signals...)
}

// Policy construye la policy del dominio desde el YAML, o la policy por
// defecto si no hay ninguna configurada. Valida posiciones y ratios.
func (c *Config) Policy() (domain.Policy, error) {
	if len(c.Backtest.Policy) == 0 {
		return domain.DefaultPolicy(), nil
	}

	norm := c.Normalizer()
	policy := make(domain.Policy, len(c.Backtest.Policy))
	for key, entry := range c.Backtest.Policy {
		pos, err := domain.ParsePositionType(entry.Position)
		if err != nil {
			return nil, fmt.Errorf("config.Policy: combination %q: %w", key, err)
		}
		ratio := 1.0
		if entry.Ratio != nil {
			ratio = *entry.Ratio
		}
		set := domain.NewSignalSet()
		if key != "" {
			for _, part := range splitCombo(key) {
				set.Add(norm.Normalize(part))
			}
		}
		policy[set.Key()] = domain.PolicyEntry{Position: pos, Ratio: ratio}
	}

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("config.Policy: %w", err)
	}
	return policy, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Backtest.Input == "" {
		cfg.Backtest.Input = "btc_trading.csv"
	}
	if cfg.Backtest.Output == "" {
		cfg.Backtest.Output = "flexbt_result.csv"
	}
	if cfg.Backtest.InitialUSD <= 0 {
		cfg.Backtest.InitialUSD = 1000
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "flexbt.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func splitCombo(key string) []string {
	var parts []string
	for _, p := range strings.Split(key, "|") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
