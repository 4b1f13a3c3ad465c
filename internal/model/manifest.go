package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"riptide/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ManifestEntry describes a single predictor in models.yaml. The optional
// schema constrains params; entries with invalid params are rejected at load.
type ManifestEntry struct {
	Type   string                 `yaml:"type"`
	Params map[string]any         `yaml:"params"`
	Schema map[string]interface{} `yaml:"schema"`
}

type manifestFile struct {
	Models map[string]ManifestEntry `yaml:"models"`
}

type modelSet struct {
	edge     EdgeModel
	regime   RegimeModel
	friction FrictionModel
	loadedAt time.Time
}

// Registry loads the model manifest, validates entry params against their
// schemas, and hot-swaps the active predictors when the file changes.
type Registry struct {
	path string
	v    *viper.Viper

	mu     sync.RWMutex
	active modelSet
}

var _ Provider = (*Registry)(nil)

// NewRegistry reads the manifest and starts watching it for changes.
func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("model registry requires manifest path")
	}
	r := &Registry{path: path}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read model manifest failed: %w", err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("model manifest reload failed (%s): %v", evt.Name, err)
		}
	})
	v.WatchConfig()
	r.v = v
	return r, nil
}

// NewStaticRegistry builds a registry from fixed predictors, bypassing the
// manifest. Used by tests and the sandbox dry-run path.
func NewStaticRegistry(edge EdgeModel, regime RegimeModel, friction FrictionModel) *Registry {
	return &Registry{active: modelSet{
		edge:     edge,
		regime:   regime,
		friction: friction,
		loadedAt: time.Now(),
	}}
}

func (r *Registry) Edge() EdgeModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active.edge
}

func (r *Registry) Regime() RegimeModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active.regime
}

func (r *Registry) Friction() FrictionModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active.friction
}

func (r *Registry) reload() error {
	file, err := readManifest(r.path)
	if err != nil {
		return err
	}
	next := modelSet{loadedAt: time.Now()}
	for name, entry := range file.Models {
		if err := entry.validateParams(); err != nil {
			return fmt.Errorf("model %q params invalid: %w", name, err)
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "edge":
			next.edge, err = buildEdge(entry)
		case "regime":
			next.regime, err = buildRegime(entry)
		case "friction":
			next.friction, err = buildFriction(entry)
		default:
			logger.Warnf("model manifest: unknown model %q ignored", name)
		}
		if err != nil {
			return fmt.Errorf("model %q: %w", name, err)
		}
	}
	if next.edge == nil {
		next.edge = NewBaselineEdgeModel(nil)
	}
	if next.regime == nil {
		next.regime = NewBaselineRegimeModel(nil)
	}
	if next.friction == nil {
		next.friction = NewBaselineFrictionModel(nil)
	}
	r.mu.Lock()
	r.active = next
	r.mu.Unlock()
	logger.Infof("model registry loaded %d entries from %s", len(file.Models), filepath.Base(r.path))
	return nil
}

func buildEdge(entry ManifestEntry) (EdgeModel, error) {
	switch entryType(entry) {
	case "baseline":
		return NewBaselineEdgeModel(entry.Params), nil
	case "static":
		p, _ := floatParam(entry.Params, "p")
		return StaticEdgeModel{P: p}, nil
	default:
		return nil, fmt.Errorf("unsupported edge model type %q", entry.Type)
	}
}

func buildRegime(entry ManifestEntry) (RegimeModel, error) {
	switch entryType(entry) {
	case "baseline":
		return NewBaselineRegimeModel(entry.Params), nil
	case "static":
		label := ""
		if raw, ok := entry.Params["label"]; ok {
			label, _ = raw.(string)
		}
		return StaticRegimeModel{Label: ParseRegime(label)}, nil
	default:
		return nil, fmt.Errorf("unsupported regime model type %q", entry.Type)
	}
}

func buildFriction(entry ManifestEntry) (FrictionModel, error) {
	switch entryType(entry) {
	case "baseline":
		return NewBaselineFrictionModel(entry.Params), nil
	case "static":
		f, _ := floatParam(entry.Params, "friction")
		return StaticFrictionModel{Friction: f}, nil
	default:
		return nil, fmt.Errorf("unsupported friction model type %q", entry.Type)
	}
}

func entryType(entry ManifestEntry) string {
	return strings.ToLower(strings.TrimSpace(entry.Type))
}

func (e ManifestEntry) validateParams() error {
	if len(e.Schema) == 0 {
		return nil
	}
	compiled, err := compileSchema(e.Schema)
	if err != nil {
		return fmt.Errorf("schema compile failed: %w", err)
	}
	params := e.Params
	if params == nil {
		params = map[string]any{}
	}
	return compiled.Validate(sanitizeForSchema(params))
}

func compileSchema(data map[string]interface{}) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// sanitizeForSchema round-trips params through JSON so the validator sees the
// same types an external JSON producer would emit.
func sanitizeForSchema(params map[string]any) any {
	raw, err := json.Marshal(params)
	if err != nil {
		return params
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return params
	}
	return out
}

func readManifest(path string) (manifestFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return manifestFile{}, fmt.Errorf("read model manifest failed: %w", err)
	}
	var file manifestFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return manifestFile{}, fmt.Errorf("parse model manifest failed: %w", err)
	}
	return file, nil
}
