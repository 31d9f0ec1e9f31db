package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/oascompose/internal/emitter/catalogemitter"
	"github.com/mark3labs/oascompose/internal/logging"
	"github.com/mark3labs/oascompose/internal/spec"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "OASCOMPOSE_"

// Config captures all inputs after merging defaults, the config file, the
// environment and command-line flags, in that order.
type Config struct {
	Input        string
	Out          string
	Format       string
	IncludeTags  []string
	ExcludeTags  []string
	Methods      []string
	PathPatterns []string
	Workers      int
	Strict       bool
	DryRun       bool
	Force        bool
	Verbose      bool
	LogLevel     string
	LogFormat    string
	LogFile      string
	ConfigPath   string
}

func defaultConfig() Config {
	return Config{Format: string(catalogemitter.JSON), LogFormat: "text"}
}

// configFields maps normalized keys to setters. Config files and the
// environment share it.
var configFields = map[string]func(*Config, any) error{
	"input":        setString(func(c *Config) *string { return &c.Input }),
	"out":          setString(func(c *Config) *string { return &c.Out }),
	"format":       setString(func(c *Config) *string { return &c.Format }),
	"includetags":  setList(func(c *Config) *[]string { return &c.IncludeTags }),
	"excludetags":  setList(func(c *Config) *[]string { return &c.ExcludeTags }),
	"methods":      setList(func(c *Config) *[]string { return &c.Methods }),
	"pathpatterns": setList(func(c *Config) *[]string { return &c.PathPatterns }),
	"workers":      setInt(func(c *Config) *int { return &c.Workers }),
	"strict":       setBool(func(c *Config) *bool { return &c.Strict }),
	"dryrun":       setBool(func(c *Config) *bool { return &c.DryRun }),
	"force":        setBool(func(c *Config) *bool { return &c.Force }),
	"verbose":      setBool(func(c *Config) *bool { return &c.Verbose }),
	"loglevel":     setString(func(c *Config) *string { return &c.LogLevel }),
	"logformat":    setString(func(c *Config) *string { return &c.LogFormat }),
	"logfile":      setString(func(c *Config) *string { return &c.LogFile }),
}

func setString(field func(*Config) *string) func(*Config, any) error {
	return func(c *Config, v any) error {
		s, err := valueAsString(v)
		*field(c) = s
		return err
	}
}

func setList(field func(*Config) *[]string) func(*Config, any) error {
	return func(c *Config, v any) error {
		list, err := valueAsStringSlice(v)
		*field(c) = sanitizeList(list)
		return err
	}
}

func setBool(field func(*Config) *bool) func(*Config, any) error {
	return func(c *Config, v any) error {
		b, err := valueAsBool(v)
		*field(c) = b
		return err
	}
}

func setInt(field func(*Config) *int) func(*Config, any) error {
	return func(c *Config, v any) error {
		n, err := valueAsInt(v)
		*field(c) = n
		return err
	}
}

// loadConfig resolves the effective Config for cmd.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	cfg := defaultConfig()
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if configPath = strings.TrimSpace(configPath); configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	envFile, err := flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	env, err := readEnv(envFile, flags.Changed("env-file"))
	if err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg, env); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(flags, &cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

func applyConfigFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		set, ok := configFields[normalizeKey(key)]
		if !ok {
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if err := set(cfg, raw[key]); err != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
		}
	}
	return nil
}

// readEnv returns the .env file values overlaid by the process environment.
// A missing .env is only an error when the path was given explicitly.
func readEnv(envFile string, explicit bool) (map[string]string, error) {
	env := map[string]string{}
	if envFile = strings.TrimSpace(envFile); envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			env = values
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, newUsageError(fmt.Sprintf("read env file %q: %v", envFile, err))
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) && v != "" {
			env[k] = v
		}
	}
	return env, nil
}

// applyEnv applies OASCOMPOSE_* variables, e.g. OASCOMPOSE_INCLUDE_TAGS.
// Unknown names are ignored.
func applyEnv(cfg *Config, env map[string]string) error {
	names := make([]string, 0, len(env))
	for k := range env {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		key, ok := strings.CutPrefix(name, EnvPrefix)
		if !ok {
			continue
		}
		set, ok := configFields[normalizeKey(key)]
		if !ok {
			continue
		}
		if err := set(cfg, env[name]); err != nil {
			return newUsageError(fmt.Sprintf("environment %s: %v", name, err))
		}
	}
	return nil
}

func applyFlagOverrides(flags *pflag.FlagSet, cfg *Config) error {
	strs := map[string]*string{
		"input":      &cfg.Input,
		"out":        &cfg.Out,
		"format":     &cfg.Format,
		"log-level":  &cfg.LogLevel,
		"log-format": &cfg.LogFormat,
		"log-file":   &cfg.LogFile,
	}
	for name, dst := range strs {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(v)
	}

	lists := map[string]*[]string{
		"include-tags": &cfg.IncludeTags,
		"exclude-tags": &cfg.ExcludeTags,
		"methods":      &cfg.Methods,
		"paths":        &cfg.PathPatterns,
	}
	for name, dst := range lists {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = sanitizeList(v)
	}

	bools := map[string]*bool{
		"strict":  &cfg.Strict,
		"dry-run": &cfg.DryRun,
		"force":   &cfg.Force,
		"verbose": &cfg.Verbose,
	}
	for name, dst := range bools {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		v, err := flags.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = v
	}
	return nil
}

func (c *Config) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.IncludeTags = sanitizeList(c.IncludeTags)
	c.ExcludeTags = sanitizeList(c.ExcludeTags)
	c.PathPatterns = sanitizeList(c.PathPatterns)
	methods := sanitizeList(c.Methods)
	for i, m := range methods {
		methods[i] = strings.ToLower(m)
	}
	c.Methods = methods
}

// validate checks the fields every command needs.
func (c *Config) validate(command string) error {
	if c.Input == "" {
		return newUsageError(fmt.Sprintf("%s: --input is required (set via flag, config file or %sINPUT)", command, EnvPrefix))
	}
	if c.Workers < 0 {
		return newUsageError(fmt.Sprintf("%s: --workers must not be negative", command))
	}
	for _, m := range c.Methods {
		if !isKnownMethod(m) {
			return newUsageError(fmt.Sprintf("%s: unknown method %q", command, m))
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return newUsageError(fmt.Sprintf("%s: --log-level: %v", command, err))
	}
	if overlap := intersect(c.IncludeTags, c.ExcludeTags); len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("%s: include/exclude tags overlap: %s", command, strings.Join(overlap, ", ")))
	}
	return nil
}

func (c *Config) httpMethods() []spec.HttpMethod {
	out := make([]spec.HttpMethod, 0, len(c.Methods))
	for _, m := range c.Methods {
		out = append(out, spec.HttpMethod(m))
	}
	return out
}

func isKnownMethod(m string) bool {
	for _, known := range spec.Methods {
		if string(known) == m {
			return true
		}
	}
	return false
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		}
		return false, fmt.Errorf("invalid boolean value %q", val)
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func valueAsInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid integer value %q", val)
		}
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
