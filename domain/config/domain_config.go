package config

// DomainConfig holds the defaults and validation thresholds applied when a
// memory node is constructed.
type DomainConfig struct {
	// Defaults for zero-valued node fields
	DefaultStorageTier      string
	DefaultClassification   string
	DefaultEmbeddingModel   string
	DefaultEmbeddingVersion string

	// MinUnknownEmbeddingLength is the shortest vector accepted for a model
	// missing from the registry. Unrelated to the affect vector length.
	MinUnknownEmbeddingLength int

	// Optional rules
	StrictDigests   bool // digests must be hexadecimal, not just 64 chars
	MaxEdgesPerNode int  // 0 means unlimited

	// FailFast stops validation at the first violation instead of
	// aggregating every failure.
	FailFast bool

	Embeddings *EmbeddingRegistry
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		DefaultStorageTier:      "T1_NVMe_Index",
		DefaultClassification:   "internal",
		DefaultEmbeddingModel:   ModelBGEM3,
		DefaultEmbeddingVersion: "1.0",

		MinUnknownEmbeddingLength: 8,

		StrictDigests:   false,
		MaxEdgesPerNode: 0,
		FailFast:        false,

		Embeddings: NewEmbeddingRegistry(),
	}
}

// ProductionDomainConfig returns production-specific configuration. It
// accepts exactly what the defaults accept; the optional rules are turned
// on per deployment with WithOptionalRules.
func ProductionDomainConfig() *DomainConfig {
	return DefaultDomainConfig()
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	return DefaultDomainConfig()
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// WithOptionalRules enables the rules no built-in profile turns on:
// hexadecimal digests and an edge cap. A maxEdges of 0 leaves edges
// unlimited.
func (c *DomainConfig) WithOptionalRules(strictDigests bool, maxEdges int) *DomainConfig {
	c.StrictDigests = strictDigests
	if maxEdges > 0 {
		c.MaxEdgesPerNode = maxEdges
	}
	return c
}

// WithRegistryFile loads additional embedding models from path. An empty
// path leaves the registry untouched.
func (c *DomainConfig) WithRegistryFile(path string) (*DomainConfig, error) {
	if path == "" {
		return c, nil
	}
	if err := c.Embeddings.LoadFile(path); err != nil {
		return nil, err
	}
	return c, nil
}
