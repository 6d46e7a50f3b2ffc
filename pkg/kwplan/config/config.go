package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/kwplan/pkg/kwplan/internalerr"
)

const (
	DefaultOutputDir      = "output"
	DefaultMainFile       = "keyword_research_results.csv"
	DefaultCurrencySymbol = "₹"
	DefaultRawDataFile    = "raw_keywords_data.json"
)

// Config is the typed view over the campaign configuration file
type Config struct {
	Brand            Party            `yaml:"brand"`
	Competitor       Party            `yaml:"competitor"`
	Filters          Filters          `yaml:"filters"`
	Advanced         Advanced         `yaml:"advanced"`
	Output           Output           `yaml:"output"`
	CategoryTerms    []string         `yaml:"category_terms"`
	ServiceLocations []string         `yaml:"service_locations"`
	CampaignSettings CampaignSettings `yaml:"campaign_settings"`
	Budgets          Budgets          `yaml:"budgets"`
}

// Party names the advertiser or a competitor
type Party struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Filters holds the keyword filter thresholds. Pointers distinguish
// "absent" from zero.
type Filters struct {
	MinSearchVolume *int64   `yaml:"min_search_volume"`
	MaxCPCThreshold *float64 `yaml:"max_cpc_threshold"`
}

// Advanced holds classification tuning
type Advanced struct {
	MatchTypeStrategy string   `yaml:"match_type_strategy"`
	ExcludeTerms      []string `yaml:"exclude_terms"`
	HighPriorityTerms []string `yaml:"high_priority_terms"`
}

// Output controls where results are written
type Output struct {
	RawDataFile                  string `yaml:"raw_data_file"`
	MainFile                     string `yaml:"main_file"`
	Dir                          string `yaml:"output_dir"`
	CreateIndividualAdGroupFiles bool   `yaml:"create_individual_adgroup_files"`
	CurrencySymbol               string `yaml:"currency_symbol"`
	ArchivePath                  string `yaml:"archive_path"`
	MetricsPath                  string `yaml:"metrics_path"`
}

// CampaignSettings feeds the shopping bid calculation
type CampaignSettings struct {
	TargetCPA      *float64 `yaml:"target_cpa"`
	ConversionRate *float64 `yaml:"conversion_rate"`
}

// Budgets holds per-channel budget amounts
type Budgets struct {
	ShoppingAds *float64 `yaml:"shopping_ads"`
}

// Parse decodes configuration YAML and fills defaults for optional keys
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, internalerr.Configf("decode yaml: %v", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadConfig loads the configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (c *Config) applyDefaults() {
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
	if c.Output.MainFile == "" {
		c.Output.MainFile = DefaultMainFile
	}
	if c.Output.CurrencySymbol == "" {
		c.Output.CurrencySymbol = DefaultCurrencySymbol
	}
	if c.Output.RawDataFile == "" {
		c.Output.RawDataFile = DefaultRawDataFile
	}
}

// Validate checks that the keys the engine cannot run without are present
func (c *Config) Validate() error {
	if c.Filters.MinSearchVolume == nil {
		return internalerr.Configf("filters.min_search_volume is required")
	}
	if *c.Filters.MinSearchVolume < 0 {
		return internalerr.Configf("filters.min_search_volume must be non-negative, got %d", *c.Filters.MinSearchVolume)
	}
	if c.Advanced.MatchTypeStrategy == "" {
		return internalerr.Configf("advanced.match_type_strategy is required")
	}
	if t := c.Filters.MaxCPCThreshold; t != nil && *t < 0 {
		return internalerr.Configf("filters.max_cpc_threshold must be non-negative, got %v", *t)
	}
	return nil
}

// TargetCPA returns the configured target CPA or the default of 10.
func (c *Config) TargetCPA() float64 {
	if v := c.CampaignSettings.TargetCPA; v != nil {
		return *v
	}
	return 10
}

// ConversionRate returns the configured conversion rate or the default of 2%.
func (c *Config) ConversionRate() float64 {
	if v := c.CampaignSettings.ConversionRate; v != nil {
		return *v
	}
	return 0.02
}
