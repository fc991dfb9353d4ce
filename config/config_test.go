package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig_Defaults(t *testing.T) {
	cfg, err := ReadConfig("testdata/minimal.yml")
	require.NoError(t, err)

	assert.Equal(t, "image-compression-test", cfg.App.Name)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 200, cfg.MYSQL.MaxConns)
	assert.Equal(t, "image_compression", cfg.RMQ.Exchange)
	assert.Equal(t, "compress_request", cfg.RMQ.RequestQueue)
	assert.Equal(t, "compression_response", cfg.RMQ.ResponseQueue)
	assert.Equal(t, "http://localhost:9000", cfg.S3.Endpoint)
	assert.Equal(t, "-compressed", cfg.S3.ResultBucketSuffix)
	assert.Equal(t, "jaeger", cfg.OTEL.Exporter)

	assert.Equal(t, int64(5_000_000), cfg.Compression.MaxSizeBytes)
	assert.Equal(t, 2048, cfg.Compression.MaxDimension)
	assert.InDelta(t, 0.86, cfg.Compression.InitialQuality, 1e-9)
	assert.InDelta(t, 0.6, cfg.Compression.MinQuality, 1e-9)
	assert.InDelta(t, 0.08, cfg.Compression.QualityStep, 1e-9)
	assert.Equal(t, 8, cfg.Compression.MaxAttempts)
	assert.Equal(t, int64(50_000_000), cfg.Compression.MaxPixels)
	assert.Equal(t, int64(64<<20), cfg.Compression.MaxEntryBytes)
	assert.Equal(t, int64(256<<20), cfg.Compression.MaxUnpackBytes)
	assert.True(t, cfg.Compression.PreferWebP)
}

func TestReadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("COMPRESSION_MAX_SIZE_BYTES", "1000")
	t.Setenv("S3_RESULT_BUCKET_SUFFIX", "-small")

	cfg, err := ReadConfig("testdata/minimal.yml")
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, int64(1000), cfg.Compression.MaxSizeBytes)
	assert.Equal(t, "-small", cfg.S3.ResultBucketSuffix)
}

func TestReadConfig_MissingFile(t *testing.T) {
	_, err := ReadConfig("testdata/does-not-exist.yml")
	assert.ErrorContains(t, err, "config error")
}

func TestNewConfig_UsesConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "testdata/minimal.yml")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "image-compression-test", cfg.App.Name)
}
