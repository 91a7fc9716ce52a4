package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/morphic/pkg/imageenc"
)

func validConfig() Config {
	return Config{InputFolder: "pages/", OutputPath: "out.pdf"}
}

func TestConfigDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultSourceDPI, cfg.SourceDPI)
	assert.Equal(t, cfg.SourceDPI, cfg.OutputDPI)
	assert.Equal(t, imageenc.FormatJP2, cfg.Format)
	assert.Equal(t, DefaultCompressionRatio, cfg.CompressionRatio)
	assert.Equal(t, DefaultQueueDepth, cfg.QueueDepth)
}

func TestConfigOutputDPIIndependent(t *testing.T) {
	cfg := validConfig()
	cfg.SourceDPI = 600
	cfg.OutputDPI = 150
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 150, cfg.OutputDPI)
}

func TestConfigInputSelection(t *testing.T) {
	cfg := Config{OutputPath: "out.pdf"}
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = Config{InputPDF: "in.pdf", InputFolder: "pages/", OutputPath: "out.pdf"}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
}

func TestConfigOutputRequired(t *testing.T) {
	cfg := Config{InputPDF: "in.pdf"}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestConfigRejectsWebp(t *testing.T) {
	cfg := validConfig()
	cfg.Format = "webp"
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigQueueDepthBounds(t *testing.T) {
	for _, depth := range []int{1, 5, 10} {
		cfg := validConfig()
		cfg.QueueDepth = depth
		assert.NoError(t, cfg.Validate())
	}
	for _, depth := range []int{-1, 11, 100} {
		cfg := validConfig()
		cfg.QueueDepth = depth
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig, "depth %d", depth)
	}
}

func TestConfigNegativeRatio(t *testing.T) {
	cfg := validConfig()
	cfg.CompressionRatio = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
