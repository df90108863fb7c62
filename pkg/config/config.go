package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/jsat-analyzer/pkg/analysis"
	"github.com/ritzau/jsat-analyzer/pkg/history"
)

// DefaultFile is the config file read from the working directory
const DefaultFile = "jsat.toml"

// EnvPrefix prefixes environment overrides. A double underscore separates
// sections and a single one stands for a dash, so JSAT_ANALYSIS__CYCLE_CAP
// sets analysis.cycle-cap.
const EnvPrefix = "JSAT_"

// Config holds all configuration for the application
type Config struct {
	Document  string   `koanf:"document"`
	Port      int      `koanf:"port" validate:"min=1,max=65535"`
	Watch     bool     `koanf:"watch"`
	Verbosity string   `koanf:"verbosity" validate:"omitempty,oneof=trace debug info warn warning error"`
	Verbose   int      `koanf:"verbose" validate:"min=0"`
	JSONLogs  bool     `koanf:"json-logs"`
	History   History  `koanf:"history"`
	Analysis  Analysis `koanf:"analysis"`
}

// History configures the undo stack
type History struct {
	Limit int `koanf:"limit" validate:"min=1,max=10000"`
}

// Analysis configures cycle enumeration and highlight colors
type Analysis struct {
	CycleCap         int      `koanf:"cycle-cap" validate:"min=1"`
	CyclePalette     []string `koanf:"cycle-palette" validate:"omitempty,dive,required"`
	CommunityPalette []string `koanf:"community-palette" validate:"omitempty,dive,required"`
}

// flagKeys maps flag names to config keys where they differ
var flagKeys = map[string]string{
	"history-limit":     "history.limit",
	"cycle-cap":         "analysis.cycle-cap",
	"cycle-palette":     "analysis.cycle-palette",
	"community-palette": "analysis.community-palette",
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
// A "config" flag, when defined and set, replaces DefaultFile.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]any{
		"document":           "",
		"port":               8080,
		"watch":              false,
		"verbosity":          "",
		"verbose":            0,
		"json-logs":          false,
		"history.limit":      history.DefaultLimit,
		"analysis.cycle-cap": analysis.DefaultCycleCap,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (optional unless named explicitly)
	path, explicit := DefaultFile, false
	if f != nil {
		if cf := f.Lookup("config"); cf != nil && cf.Changed {
			path, explicit = cf.Value.String(), true
		}
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	// 3. Environment Variables
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, any) {
			key := fl.Name
			if mapped, ok := flagKeys[key]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(f, fl)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps JSAT_ANALYSIS__CYCLE_PALETTE=red,blue to
// analysis.cycle-palette = [red blue]
func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	key = strings.ReplaceAll(key, "_", "-")
	if strings.HasSuffix(key, "-palette") {
		return key, splitList(value)
	}
	return key, value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// AnalysisConfig builds the immutable analysis configuration
func (c *Config) AnalysisConfig() analysis.Config {
	opts := []analysis.Option{analysis.WithCycleCap(c.Analysis.CycleCap)}
	if len(c.Analysis.CyclePalette) > 0 {
		opts = append(opts, analysis.WithCyclePalette(c.Analysis.CyclePalette...))
	}
	if len(c.Analysis.CommunityPalette) > 0 {
		opts = append(opts, analysis.WithCommunityPalette(c.Analysis.CommunityPalette...))
	}
	return analysis.NewConfig(opts...)
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]any
}

func makeMapProvider(m map[string]any) *mapProvider {
	return &mapProvider{m: m}
}

// Read returns the defaults unflattened, so dotted keys merge with file sections
func (p *mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any)
	for key, v := range p.m {
		section, name, nested := strings.Cut(key, ".")
		if !nested {
			out[key] = v
			continue
		}
		sub, _ := out[section].(map[string]any)
		if sub == nil {
			sub = make(map[string]any)
			out[section] = sub
		}
		sub[name] = v
	}
	return out, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
