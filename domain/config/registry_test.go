package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingRegistry_BuiltIns(t *testing.T) {
	registry := NewEmbeddingRegistry()

	tests := []struct {
		model     string
		dimension int
	}{
		{"bge-m3-v1.5", 1024},
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			dim, ok := registry.Dimension(tt.model)
			require.True(t, ok)
			assert.Equal(t, tt.dimension, dim)
		})
	}

	_, ok := registry.Dimension("custom-finetune-v1")
	assert.False(t, ok)
}

func TestEmbeddingRegistry_Register(t *testing.T) {
	t.Run("adds a new model", func(t *testing.T) {
		registry := NewEmbeddingRegistry()
		require.NoError(t, registry.Register("nomic-embed-text-v1.5", 768))

		dim, ok := registry.Dimension("nomic-embed-text-v1.5")
		require.True(t, ok)
		assert.Equal(t, 768, dim)
	})

	t.Run("identical re-registration is accepted", func(t *testing.T) {
		registry := NewEmbeddingRegistry()
		assert.NoError(t, registry.Register(ModelBGEM3, 1024))
	})

	t.Run("built-in dimension cannot change", func(t *testing.T) {
		registry := NewEmbeddingRegistry()
		err := registry.Register(ModelBGEM3, 768)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "refusing 768")

		dim, _ := registry.Dimension(ModelBGEM3)
		assert.Equal(t, 1024, dim)
	})

	t.Run("rejects empty name and non-positive dimension", func(t *testing.T) {
		registry := NewEmbeddingRegistry()
		assert.Error(t, registry.Register("", 10))
		assert.Error(t, registry.Register("zero", 0))
	})
}

func TestEmbeddingRegistry_ConcurrentRegistration(t *testing.T) {
	registry := NewEmbeddingRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = registry.Register("shared-model", 384)
			_, _ = registry.Dimension(ModelBGEM3)
		}()
	}
	wg.Wait()

	dim, ok := registry.Dimension("shared-model")
	require.True(t, ok)
	assert.Equal(t, 384, dim)
}

func TestEmbeddingRegistry_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedding_models:
  nomic-embed-text-v1.5: 768
  bge-m3-v1.5: 1024
`), 0o600))

	registry := NewEmbeddingRegistry()
	require.NoError(t, registry.LoadFile(path))

	assert.Equal(t, []string{
		"bge-m3-v1.5",
		"nomic-embed-text-v1.5",
		"text-embedding-3-large",
		"text-embedding-3-small",
	}, registry.Models())
}

func TestEmbeddingRegistry_LoadYAMLRejectsOverride(t *testing.T) {
	registry := NewEmbeddingRegistry()
	err := registry.LoadYAML([]byte("embedding_models:\n  text-embedding-3-small: 512\n"))
	require.Error(t, err)

	dim, _ := registry.Dimension(ModelOpenAISmall)
	assert.Equal(t, 1536, dim)
}

func TestLoadDomainConfig(t *testing.T) {
	prod := LoadDomainConfig("production")
	assert.False(t, prod.StrictDigests)
	assert.Zero(t, prod.MaxEdgesPerNode)

	dev := LoadDomainConfig("development")
	assert.False(t, dev.StrictDigests)
	assert.Zero(t, dev.MaxEdgesPerNode)

	opted := LoadDomainConfig("production").WithOptionalRules(true, 256)
	assert.True(t, opted.StrictDigests)
	assert.Equal(t, 256, opted.MaxEdgesPerNode)

	def := DefaultDomainConfig()
	assert.Equal(t, "bge-m3-v1.5", def.DefaultEmbeddingModel)
	assert.Equal(t, "1.0", def.DefaultEmbeddingVersion)
	assert.Equal(t, "T1_NVMe_Index", def.DefaultStorageTier)
	assert.Equal(t, "internal", def.DefaultClassification)
	assert.Equal(t, 8, def.MinUnknownEmbeddingLength)
}

func TestDomainConfig_WithRegistryFile(t *testing.T) {
	cfg, err := DefaultDomainConfig().WithRegistryFile("")
	require.NoError(t, err)
	assert.Len(t, cfg.Embeddings.Models(), 3)

	_, err = DefaultDomainConfig().WithRegistryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
