package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphrag-core/pkg/graphrag"
)

func TestLoadFromEnv_DefaultsWithNoEnvSet(t *testing.T) {
	cfg := LoadFromEnv()
	assert.Equal(t, 768, cfg.Vector.Dimension)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv_OverridesFromEnvironment(t *testing.T) {
	t.Setenv("GRAPHRAG_VECTOR_DIMENSION", "384")
	t.Setenv("GRAPHRAG_ALPHA", "0.9")
	t.Setenv("GRAPHRAG_SERVER_ADDRESS", "127.0.0.1:9090")

	cfg := LoadFromEnv()
	assert.Equal(t, 384, cfg.Vector.Dimension)
	assert.Equal(t, 0.9, cfg.Retrieval.Alpha)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Address)
}

func TestValidate_RejectsNonPositiveDimension(t *testing.T) {
	cfg := LoadFromEnv()
	cfg.Vector.Dimension = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNegativeScoringWeights(t *testing.T) {
	cfg := LoadFromEnv()
	cfg.Retrieval.Alpha = -1
	assert.Error(t, cfg.Validate())
}

func TestLoadRetrievalConfigFile_MissingPathReturnsBaseUnchanged(t *testing.T) {
	base := graphrag.DefaultRetrievalConfig()
	merged, err := LoadRetrievalConfigFile(filepath.Join(t.TempDir(), "absent.yaml"), base)
	require.NoError(t, err)
	assert.Equal(t, base, merged)
}

func TestLoadRetrievalConfigFile_OverridesNamedFields(t *testing.T) {
	base := graphrag.DefaultRetrievalConfig()
	path := filepath.Join(t.TempDir(), "retrieval.yaml")
	content := "alpha: 0.5\nbeta: 0.5\nmax_hops: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	merged, err := LoadRetrievalConfigFile(path, base)
	require.NoError(t, err)
	assert.Equal(t, 0.5, merged.Alpha)
	assert.Equal(t, 0.5, merged.Beta)
	assert.Equal(t, 4, merged.MaxHops)
	assert.Equal(t, base.MaxVectorResults, merged.MaxVectorResults)
}
