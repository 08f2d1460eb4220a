package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fwojciec/blueprint"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "blueprint.yaml"

// Environment variable names. The values are read in one place and passed
// down as plain values.
const (
	envProvider     = "BLUEPRINT_PROVIDER"
	envBaseURL      = "BLUEPRINT_BASE_URL"
	envModel        = "MODEL_NAME"
	envInputPrice   = "INPUT_PRICE_PER_1M"
	envOutputPrice  = "OUTPUT_PRICE_PER_1M"
	envGeminiKey    = "GEMINI_API_KEY"
	envGoogleKey    = "GOOGLE_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
	envOpenAIKey    = "OPENAI_API_KEY"
)

// fileConfig is the optional YAML configuration file.
type fileConfig struct {
	Provider     string        `yaml:"provider,omitempty"`
	Model        string        `yaml:"model,omitempty"`
	BaseURL      string        `yaml:"base_url,omitempty"`
	Pricing      pricingConfig `yaml:"pricing,omitempty"`
	Paths        pathsConfig   `yaml:"paths,omitempty"`
	StageTimeout string        `yaml:"stage_timeout,omitempty"`
}

type pricingConfig struct {
	InputPerMillion  *float64 `yaml:"input_per_million,omitempty"`
	OutputPerMillion *float64 `yaml:"output_per_million,omitempty"`
}

type pathsConfig struct {
	Materials        string `yaml:"materials,omitempty"`
	Prompts          string `yaml:"prompts,omitempty"`
	StructureExample string `yaml:"structure_example,omitempty"`
	CodeExample      string `yaml:"code_example,omitempty"`
	Output           string `yaml:"output,omitempty"`
	Ledger           string `yaml:"ledger,omitempty"`
}

// settings is the resolved configuration of one invocation.
type settings struct {
	Provider     string
	Model        string
	APIKey       string
	BaseURL      string
	Pricing      blueprint.Pricing
	Materials    string
	Prompts      string // empty selects the built-in prompts
	Structure    string
	CodeExample  string
	OutputDir    string
	Ledger       string
	StageTimeout time.Duration
	Keys         apiKeys
}

// apiKeys holds the provider keys found in the environment.
type apiKeys struct {
	Gemini    string
	Anthropic string
	OpenAI    string
}

func defaultSettings() settings {
	return settings{
		Pricing:     blueprint.DefaultPricing(),
		Materials:   "materials/materials.txt",
		Structure:   "examples/structure_example.json",
		CodeExample: "examples/code_example.py",
		OutputDir:   "generated",
		Ledger:      "generated/ledger.db",
	}
}

// readConfigFile loads path. A missing file is not an error unless required.
func readConfigFile(path string, required bool) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return fc, nil
		}
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

func (s *settings) applyFile(fc fileConfig) error {
	setString(&s.Provider, fc.Provider)
	setString(&s.Model, fc.Model)
	setString(&s.BaseURL, fc.BaseURL)
	if fc.Pricing.InputPerMillion != nil {
		s.Pricing.InputPerMillion = *fc.Pricing.InputPerMillion
	}
	if fc.Pricing.OutputPerMillion != nil {
		s.Pricing.OutputPerMillion = *fc.Pricing.OutputPerMillion
	}
	setString(&s.Materials, fc.Paths.Materials)
	setString(&s.Prompts, fc.Paths.Prompts)
	setString(&s.Structure, fc.Paths.StructureExample)
	setString(&s.CodeExample, fc.Paths.CodeExample)
	setString(&s.OutputDir, fc.Paths.Output)
	setString(&s.Ledger, fc.Paths.Ledger)
	if fc.StageTimeout != "" {
		d, err := time.ParseDuration(fc.StageTimeout)
		if err != nil {
			return fmt.Errorf("config: stage_timeout: %w", err)
		}
		s.StageTimeout = d
	}
	return nil
}

func (s *settings) applyEnv(getenv func(string) string) error {
	setString(&s.Provider, getenv(envProvider))
	setString(&s.Model, getenv(envModel))
	setString(&s.BaseURL, getenv(envBaseURL))
	if err := setPrice(&s.Pricing.InputPerMillion, envInputPrice, getenv(envInputPrice)); err != nil {
		return err
	}
	if err := setPrice(&s.Pricing.OutputPerMillion, envOutputPrice, getenv(envOutputPrice)); err != nil {
		return err
	}
	s.Keys = apiKeys{
		Gemini:    getenv(envGeminiKey),
		Anthropic: getenv(envAnthropicKey),
		OpenAI:    getenv(envOpenAIKey),
	}
	if s.Keys.Gemini == "" {
		s.Keys.Gemini = getenv(envGoogleKey)
	}
	return nil
}

// applyFlags copies every flag the user set explicitly.
func (s *settings) applyFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	for name, dst := range map[string]*string{
		"provider":          &s.Provider,
		"model":             &s.Model,
		"api-key":           &s.APIKey,
		"base-url":          &s.BaseURL,
		"materials":         &s.Materials,
		"prompts":           &s.Prompts,
		"structure-example": &s.Structure,
		"code-example":      &s.CodeExample,
		"output":            &s.OutputDir,
		"ledger":            &s.Ledger,
	} {
		if f.Lookup(name) == nil || !f.Changed(name) {
			continue
		}
		v, err := f.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	for name, dst := range map[string]*float64{
		"input-price":  &s.Pricing.InputPerMillion,
		"output-price": &s.Pricing.OutputPerMillion,
	} {
		if f.Lookup(name) == nil || !f.Changed(name) {
			continue
		}
		v, err := f.GetFloat64(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	if f.Lookup("stage-timeout") != nil && f.Changed("stage-timeout") {
		d, err := f.GetDuration("stage-timeout")
		if err != nil {
			return err
		}
		s.StageTimeout = d
	}
	return nil
}

func (s settings) validate() error {
	if s.Pricing.InputPerMillion < 0 || s.Pricing.OutputPerMillion < 0 {
		return fmt.Errorf("config: prices must not be negative: %w", blueprint.ErrValidation)
	}
	if s.StageTimeout < 0 {
		return fmt.Errorf("config: stage timeout must not be negative: %w", blueprint.ErrValidation)
	}
	if s.Materials == "" {
		return fmt.Errorf("config: materials path is empty: %w", blueprint.ErrValidation)
	}
	return nil
}

// loadSettings resolves configuration with precedence flags, then
// environment, then config file, then defaults.
func loadSettings(cmd *cobra.Command, getenv func(string) string) (settings, error) {
	s := defaultSettings()

	// An empty path skips the file.
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		fc, err := readConfigFile(path, cmd.Flags().Changed("config"))
		if err != nil {
			return s, err
		}
		if err := s.applyFile(fc); err != nil {
			return s, err
		}
	}
	if err := s.applyEnv(getenv); err != nil {
		return s, err
	}
	if err := s.applyFlags(cmd); err != nil {
		return s, err
	}
	return s, s.validate()
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPrice(dst *float64, name, v string) error {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	*dst = f
	return nil
}
