package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
)

// Config represents the top-level ledgerdesk.yaml configuration.
type Config struct {
	Business       BusinessConfig       `yaml:"business" validate:"required"`
	RequiredFields map[string][]string  `yaml:"required_fields,omitempty"`
	CustomEntities []CustomEntityConfig `yaml:"custom_entities,omitempty" validate:"dive"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Git            GitConfig            `yaml:"git"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// BusinessConfig identifies the tenant.
type BusinessConfig struct {
	Name     string `yaml:"name" validate:"required"`
	Currency string `yaml:"currency"`
}

// CustomEntityConfig declares a blueprint entity in the config file.
type CustomEntityConfig struct {
	ID     string              `yaml:"id" validate:"required"`
	Label  string              `yaml:"label"`
	Fields []CustomFieldConfig `yaml:"fields" validate:"dive"`
}

// CustomFieldConfig declares one custom field.
type CustomFieldConfig struct {
	ID           string   `yaml:"id" validate:"required"`
	Label        string   `yaml:"label"`
	Type         string   `yaml:"type" validate:"required,oneof=text number select date checkbox textarea"`
	Required     bool     `yaml:"required"`
	Options      []string `yaml:"options,omitempty"`
	DefaultValue any      `yaml:"default_value,omitempty"`
}

// ReconciliationConfig controls the match tolerance bands.
type ReconciliationConfig struct {
	AmountTolerancePct float64 `yaml:"amount_tolerance_pct" validate:"gte=0,lte=100"`
	DateWindowDays     int     `yaml:"date_window_days" validate:"gte=0"`
	MaxSuggestions     int     `yaml:"max_suggestions" validate:"omitempty,gte=1"`
}

// GitConfig controls git integration for the data directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// ToDef converts a config declaration into the model blueprint.
func (c CustomEntityConfig) ToDef() model.CustomEntityDef {
	def := model.CustomEntityDef{ID: c.ID, Label: c.Label}
	for _, f := range c.Fields {
		def.Fields = append(def.Fields, model.CustomFieldDef{
			ID:           f.ID,
			Label:        f.Label,
			Type:         model.FieldType(f.Type),
			Required:     f.Required,
			Options:      f.Options,
			DefaultValue: f.DefaultValue,
		})
	}
	return def
}

// Load reads and validates a ledgerdesk.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:     businessName,
			Currency: "USD",
		},
		RequiredFields: map[string][]string{
			"leads":    {"name", "company", "email", "phone"},
			"accounts": {"name"},
			"contacts": {"name", "email"},
			"invoices": {"relatedToType", "relatedToId"},
			"expenses": {"description", "amount"},
		},
		Reconciliation: ReconciliationConfig{
			AmountTolerancePct: 2,
			DateWindowDays:     30,
			MaxSuggestions:     5,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "LedgerDesk",
			AuthorEmail: "bot@ledgerdesk.dev",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
