// Package config loads GraphRAG's runtime configuration from environment
// variables, following the teacher's GRAPHRAG_*-prefixed LoadFromEnv/
// Validate idiom (pkg/config/config.go's NEO4J_*/NORNICDB_* convention,
// generalized to a single prefix since this module has no Neo4j wire
// compatibility to preserve).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orneryd/graphrag-core/pkg/graphrag"
	"github.com/orneryd/graphrag-core/pkg/memdecay"
	"github.com/orneryd/graphrag-core/pkg/vectorindex"
)

// Config holds all GraphRAG configuration loaded from environment
// variables, organized by the component it configures.
type Config struct {
	Storage   StorageConfig
	Vector    VectorConfig
	Decay     memdecay.Config
	Retrieval graphrag.RetrievalConfig
	Server    ServerConfig
	Logging   LoggingConfig

	// RetrievalConfigPath, if set, names a YAML file overriding Retrieval's
	// defaults; see LoadRetrievalConfigFile.
	RetrievalConfigPath string
}

// StorageConfig controls the kvstore backend.
type StorageConfig struct {
	// DataDir is the Badger directory; empty means in-memory storage.
	DataDir string
}

// VectorConfig controls the vector index backend.
type VectorConfig struct {
	Dimension int
	Backend   vectorindex.BackendKind
}

// ServerConfig holds the listening address read from
// GRAPHRAG_SERVER_ADDRESS. cmd/graphragd serve opens no listener and
// does not read it.
type ServerConfig struct {
	Address string
}

// LoggingConfig holds the log level and format read from
// GRAPHRAG_LOG_LEVEL and GRAPHRAG_LOG_FORMAT. cmd/graphragd logs through
// the standard log package and does not read these fields.
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// LoadFromEnv loads configuration from environment variables, applying
// documented defaults where a variable is unset.
func LoadFromEnv() *Config {
	cfg := &Config{}

	cfg.Storage.DataDir = getEnv("GRAPHRAG_DATA_DIR", "")

	cfg.Vector.Dimension = getEnvInt("GRAPHRAG_VECTOR_DIMENSION", 768)
	cfg.Vector.Backend = vectorindex.BackendKind(getEnv("GRAPHRAG_VECTOR_BACKEND", string(vectorindex.BackendAuto)))

	decay := memdecay.DefaultConfig()
	decay.Curve = memdecay.Curve(getEnv("GRAPHRAG_DECAY_CURVE", string(decay.Curve)))
	decay.DecayScale = getEnvFloat("GRAPHRAG_DECAY_SCALE", decay.DecayScale)
	decay.PowerLawAlpha = getEnvFloat("GRAPHRAG_DECAY_POWERLAW_ALPHA", decay.PowerLawAlpha)
	decay.RetentionThreshold = getEnvFloat("GRAPHRAG_DECAY_RETENTION_THRESHOLD", decay.RetentionThreshold)
	cfg.Decay = decay

	retrieval := graphrag.DefaultRetrievalConfig()
	retrieval.Mode = graphrag.Mode(getEnv("GRAPHRAG_RETRIEVAL_MODE", string(retrieval.Mode)))
	retrieval.MaxVectorResults = getEnvInt("GRAPHRAG_MAX_VECTOR_RESULTS", retrieval.MaxVectorResults)
	retrieval.MaxGraphResults = getEnvInt("GRAPHRAG_MAX_GRAPH_RESULTS", retrieval.MaxGraphResults)
	retrieval.MaxHops = getEnvInt("GRAPHRAG_MAX_HOPS", retrieval.MaxHops)
	retrieval.MinRelevance = getEnvFloat("GRAPHRAG_MIN_RELEVANCE", retrieval.MinRelevance)
	retrieval.Deduplicate = getEnvBool("GRAPHRAG_DEDUPLICATE", retrieval.Deduplicate)
	retrieval.MaxContextSize = getEnvInt("GRAPHRAG_MAX_CONTEXT_SIZE", retrieval.MaxContextSize)
	retrieval.Alpha = getEnvFloat("GRAPHRAG_ALPHA", retrieval.Alpha)
	retrieval.Beta = getEnvFloat("GRAPHRAG_BETA", retrieval.Beta)
	retrieval.HopDecay = getEnvFloat("GRAPHRAG_HOP_DECAY", retrieval.HopDecay)
	cfg.Retrieval = retrieval
	cfg.RetrievalConfigPath = getEnv("GRAPHRAG_RETRIEVAL_CONFIG", "")

	cfg.Server.Address = getEnv("GRAPHRAG_SERVER_ADDRESS", "0.0.0.0:8080")

	cfg.Logging.Level = getEnv("GRAPHRAG_LOG_LEVEL", "info")
	cfg.Logging.Format = getEnv("GRAPHRAG_LOG_FORMAT", "json")

	if cfg.RetrievalConfigPath != "" {
		if merged, err := LoadRetrievalConfigFile(cfg.RetrievalConfigPath, cfg.Retrieval); err == nil {
			cfg.Retrieval = merged
		}
	}

	return cfg
}

// Validate checks the configuration for logical errors.
func (c *Config) Validate() error {
	if c.Vector.Dimension <= 0 {
		return fmt.Errorf("config: invalid vector dimension: %d", c.Vector.Dimension)
	}
	if err := c.Decay.Validate(); err != nil {
		return fmt.Errorf("config: invalid decay config: %w", err)
	}
	if c.Retrieval.MaxHops < 0 {
		return fmt.Errorf("config: invalid max_hops: %d", c.Retrieval.MaxHops)
	}
	if c.Retrieval.Alpha < 0 || c.Retrieval.Beta < 0 {
		return fmt.Errorf("config: scoring weights must be non-negative")
	}
	return nil
}

// retrievalConfigFile mirrors graphrag.RetrievalConfig's fields for YAML
// decoding, since the struct itself carries no yaml tags (spec.md §4.5.8
// defines the fields but not their on-disk representation).
type retrievalConfigFile struct {
	Mode             string  `yaml:"mode"`
	MaxVectorResults int     `yaml:"max_vector_results"`
	MaxGraphResults  int     `yaml:"max_graph_results"`
	MaxHops          int     `yaml:"max_hops"`
	MinRelevance     float64 `yaml:"min_relevance"`
	Deduplicate      bool    `yaml:"deduplicate"`
	MaxContextSize   int     `yaml:"max_context_size"`
	Alpha            float64 `yaml:"alpha"`
	Beta             float64 `yaml:"beta"`
	HopDecay         float64 `yaml:"hop_decay"`
}

// LoadRetrievalConfigFile reads a YAML file overriding base's fields and
// returns the merged config. Fields absent from the file keep base's
// value. A missing path is not an error; base is returned unchanged.
func LoadRetrievalConfigFile(path string, base graphrag.RetrievalConfig) (graphrag.RetrievalConfig, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return base, fmt.Errorf("config: reading retrieval config file: %w", err)
	}

	file := retrievalConfigFile{
		Mode:             string(base.Mode),
		MaxVectorResults: base.MaxVectorResults,
		MaxGraphResults:  base.MaxGraphResults,
		MaxHops:          base.MaxHops,
		MinRelevance:     base.MinRelevance,
		Deduplicate:      base.Deduplicate,
		MaxContextSize:   base.MaxContextSize,
		Alpha:            base.Alpha,
		Beta:             base.Beta,
		HopDecay:         base.HopDecay,
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return base, fmt.Errorf("config: parsing retrieval config file: %w", err)
	}

	return graphrag.RetrievalConfig{
		Mode:             graphrag.Mode(file.Mode),
		MaxVectorResults: file.MaxVectorResults,
		MaxGraphResults:  file.MaxGraphResults,
		MaxHops:          file.MaxHops,
		MinRelevance:     file.MinRelevance,
		Deduplicate:      file.Deduplicate,
		MaxContextSize:   file.MaxContextSize,
		Alpha:            file.Alpha,
		Beta:             file.Beta,
		HopDecay:         file.HopDecay,
	}, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

