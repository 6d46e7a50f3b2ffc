package config

import (
	"fmt"
	"os"

	"github.com/cognicore/kwplan/pkg/kwplan/rules"
)

// Loader reads the configuration file and constructs components
type Loader struct {
	ConfigPath string
}

// Components holds all loaded configuration components
type Components struct {
	Config *Config
	Rules  *rules.Table
	// Raw is the unparsed file text; the rule table is built from it so
	// heading comments survive.
	Raw string
}

// Load reads the file once, then builds the typed config and the rule table
func (l *Loader) Load() (*Components, error) {
	if l.ConfigPath == "" {
		return nil, fmt.Errorf("load config: no path given")
	}
	data, err := os.ReadFile(l.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return FromBytes(data)
}

// FromBytes builds components from in-memory configuration text
func FromBytes(data []byte) (*Components, error) {
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	raw := string(data)
	return &Components{
		Config: cfg,
		Rules:  rules.Parse(raw),
		Raw:    raw,
	}, nil
}
