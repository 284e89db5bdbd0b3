package config

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Built-in embedding models.
const (
	ModelBGEM3       = "bge-m3-v1.5"
	ModelOpenAISmall = "text-embedding-3-small"
	ModelOpenAILarge = "text-embedding-3-large"
)

const (
	dimensionBGEM3       = 1024
	dimensionOpenAISmall = 1536
	dimensionOpenAILarge = 3072
)

// EmbeddingRegistry maps embedding model names to their required vector
// length. It only grows: a registered model can never change dimension.
type EmbeddingRegistry struct {
	mu         sync.RWMutex
	dimensions map[string]int
}

// NewEmbeddingRegistry returns a registry holding the built-in models.
func NewEmbeddingRegistry() *EmbeddingRegistry {
	return &EmbeddingRegistry{
		dimensions: map[string]int{
			ModelBGEM3:       dimensionBGEM3,
			ModelOpenAISmall: dimensionOpenAISmall,
			ModelOpenAILarge: dimensionOpenAILarge,
		},
	}
}

// Dimension returns the registered length for model.
func (r *EmbeddingRegistry) Dimension(model string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dim, ok := r.dimensions[model]
	return dim, ok
}

// Register adds model with the given dimension. Re-registering a model with
// its existing dimension is a no-op; any other change is rejected.
func (r *EmbeddingRegistry) Register(model string, dimension int) error {
	if model == "" {
		return fmt.Errorf("embedding model name is required")
	}
	if dimension <= 0 {
		return fmt.Errorf("embedding model %q: dimension must be positive, got %d", model, dimension)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.dimensions[model]; ok {
		if existing != dimension {
			return fmt.Errorf("embedding model %q is registered with dimension %d, refusing %d",
				model, existing, dimension)
		}
		return nil
	}
	r.dimensions[model] = dimension
	return nil
}

// Models lists registered model names in lexical order.
func (r *EmbeddingRegistry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.dimensions))
	for model := range r.dimensions {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// registryFile is the on-disk shape of additional embedding models:
//
//	embedding_models:
//	  nomic-embed-text-v1.5: 768
type registryFile struct {
	EmbeddingModels map[string]int `yaml:"embedding_models"`
}

// LoadFile registers every model listed in the YAML file at path.
func (r *EmbeddingRegistry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read embedding registry %s: %w", path, err)
	}
	return r.LoadYAML(data)
}

// LoadYAML registers every model listed in data.
func (r *EmbeddingRegistry) LoadYAML(data []byte) error {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse embedding registry: %w", err)
	}

	names := make([]string, 0, len(file.EmbeddingModels))
	for name := range file.EmbeddingModels {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.Register(name, file.EmbeddingModels[name]); err != nil {
			return err
		}
	}
	return nil
}
