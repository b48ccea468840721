package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/c360/complianceflow/errors"
)

//go:embed schema.json
var schemaJSON []byte

// EnvPrefix prefixes every environment override
const EnvPrefix = "COMPLIANCEFLOW"

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: true,
		envPrefix:  EnvPrefix,
		lookupEnv:  os.LookupEnv,
	}
}

// AddLayer adds a configuration file layer. Later layers win.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load merges defaults, every file layer and environment overrides
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		raw, err := l.loadRaw(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", "load "+path)
		}
		cfg, err = l.mergeFromMap(cfg, raw)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", "merge "+path)
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadRaw reads a JSON or YAML file into a generic document and checks it
// against the embedded schema
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	var node any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &node)
	} else {
		err = yaml.Unmarshal(data, &node)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	if err := checkDepth(node, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}

	doc, ok := normalize(node).(map[string]any)
	if node != nil && !ok {
		return nil, fmt.Errorf("%w: top level must be a mapping", errors.ErrInvalidConfig)
	}

	if err := validateSchema(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// validateSchema checks a decoded document against schema.json
func validateSchema(doc map[string]any) error {
	if doc == nil {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(msgs, "; "))
	}
	return nil
}

// normalize turns YAML mappings with non-string keys into JSON-compatible maps
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalize(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalize(item)
		}
		return val
	default:
		return v
	}
}

// mergeFromMap merges configuration from a raw map, only overriding fields present in the map
func (l *Loader) mergeFromMap(base *Config, override map[string]any) (*Config, error) {
	if override == nil {
		return base, nil
	}

	baseJSON, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return nil, err
	}

	mergedJSON, err := json.Marshal(l.deepMergeMaps(baseMap, override))
	if err != nil {
		return nil, err
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	return &merged, nil
}

// replacedMaps are map-valued settings that a layer replaces whole, so a
// layer can clear them with an empty map
var replacedMaps = map[string]bool{
	"policy.internal_policy.department_services": true,
	"policy.risk.category_weights":               true,
}

// deepMergeMaps recursively merges two maps, with override taking precedence.
// Arrays and the settings in replacedMaps are replaced, not merged.
func (l *Loader) deepMergeMaps(base, override map[string]any) map[string]any {
	return l.mergeAt("", base, override)
}

func (l *Loader) mergeAt(path string, base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))

	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}

		key := k
		if path != "" {
			key = path + "." + k
		}

		// If both base and override have maps at this key, merge them
		if baseMap, baseOk := base[k].(map[string]any); baseOk && !replacedMaps[key] {
			if overrideMap, overrideOk := v.(map[string]any); overrideOk {
				result[k] = l.mergeAt(key, baseMap, overrideMap)
				continue
			}
		}

		result[k] = v
	}

	return result
}

// applyEnvOverrides applies COMPLIANCEFLOW_* environment variables
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	uints := map[string]*uint64{
		"RATE":       &cfg.TargetRate,
		"SEED":       &cfg.Seed,
		"MAX_EVENTS": &cfg.MaxEvents,
	}
	ints := map[string]*int{
		"THREADS":          &cfg.Threads,
		"TICKS_PER_SECOND": &cfg.TicksPerSecond,
		"MAX_BATCH":        &cfg.MaxBatch,
		"METRICS_PORT":     &cfg.Metrics.Port,
	}
	durations := map[string]*Duration{
		"INTERVAL": &cfg.ReportInterval,
		"DURATION": &cfg.Duration,
		"REFRESH":  &cfg.Reporter.Refresh,
	}
	strs := map[string]*string{
		"LOG_LEVEL":  &cfg.Log.Level,
		"LOG_FORMAT": &cfg.Log.Format,
	}

	for name, dst := range uints {
		val, ok, err := l.env(name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return l.envError(name, err)
		}
		*dst = n
	}
	for name, dst := range ints {
		val, ok, err := l.env(name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return l.envError(name, err)
		}
		*dst = n
	}
	for name, dst := range durations {
		val, ok, err := l.env(name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := dst.Set(val); err != nil {
			return l.envError(name, err)
		}
	}
	for name, dst := range strs {
		val, ok, err := l.env(name)
		if err != nil {
			return err
		}
		if ok {
			*dst = val
		}
	}

	if val, ok, err := l.env("THROTTLE"); err != nil {
		return err
	} else if ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return l.envError("THROTTLE", err)
		}
		cfg.Throttle = b
	}

	return nil
}

// env looks up prefix_name, ignoring empty values
func (l *Loader) env(name string) (string, bool, error) {
	key := l.envPrefix + "_" + name
	val, ok := l.lookupEnv(key)
	if !ok || val == "" {
		return "", false, nil
	}
	if err := checkEnvValue(key, val); err != nil {
		return "", false, errors.WrapInvalid(err, "Loader", "Load", "read "+key)
	}
	return val, true, nil
}

func (l *Loader) envError(name string, err error) error {
	key := l.envPrefix + "_" + name
	return errors.WrapInvalid(fmt.Errorf("%w: %s: %v", errors.ErrInvalidConfig, key, err),
		"Loader", "Load", "parse "+key)
}
