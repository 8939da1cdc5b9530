package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metric "github.com/otelmetric/sdk"
	"github.com/otelmetric/sdk/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaultsForUnsetFields(t *testing.T) {
	path := writeConfig(t, `{}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.ExporterMemory, cfg.Reader.Exporter)
	assert.Equal(t, config.TemporalityCumulative, cfg.Reader.Temporality)
	assert.Equal(t, int64(60_000_000_000), cfg.Reader.Interval.Nanoseconds())
	assert.Equal(t, int64(30_000_000_000), cfg.Reader.Timeout.Nanoseconds())
}

func TestLoadHonorsExplicitFields(t *testing.T) {
	path := writeConfig(t, `
resource:
  service.name: demo
reader:
  interval: 5s
  timeout: 2s
  exporter: log
  temporality: delta
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.ExporterLog, cfg.Reader.Exporter)
	assert.Equal(t, config.TemporalityDelta, cfg.Reader.Temporality)
	assert.Equal(t, "5s", cfg.Reader.Interval.String())
	assert.Equal(t, "2s", cfg.Reader.Timeout.String())
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "not: [valid: yaml")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestTemporalitySelectorMatchesConfiguredValue(t *testing.T) {
	deltaCfg := &config.Config{Reader: config.ReaderConfig{Temporality: config.TemporalityDelta}}
	sel := deltaCfg.TemporalitySelector()
	assert.Equal(t, sel(metric.KindCounter), metric.AlwaysDelta(metric.KindCounter))

	cumulativeCfg := &config.Config{Reader: config.ReaderConfig{Temporality: config.TemporalityCumulative}}
	sel = cumulativeCfg.TemporalitySelector()
	assert.Equal(t, sel(metric.KindCounter), metric.AlwaysCumulative(metric.KindCounter))
}

func TestResourceAttributesAreSortedByKey(t *testing.T) {
	cfg := &config.Config{Resource: map[string]string{"b": "2", "a": "1"}}
	assert.Equal(t, "a=1,b=2", cfg.ResourceAttributes().String())
}
