// File: control/config_test.go
// Author: momentics <momentics@gmail.com>

package control_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/plugrt/control"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := control.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, control.DefaultConfig(), cfg)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugrt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"max_sources: 64\nmax_events: 8\ndrive_timeout: 25ms\n",
	), 0o644))

	cfg, err := control.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.MaxSources)
	assert.Equal(t, 8, cfg.MaxEvents)
	assert.Equal(t, 25*time.Millisecond, cfg.DriveTimeout)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PLUGRT_MAX_EVENTS", "32")
	cfg, err := control.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.MaxEvents)
}

func TestLoadConfigRejectsMissingFile(t *testing.T) {
	_, err := control.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestNonsenseValuesClampedToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugrt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"max_sources: -1\nmax_events: 0\n",
	), 0o644))

	cfg, err := control.LoadConfig(path)
	require.NoError(t, err)
	def := control.DefaultConfig()
	assert.Equal(t, def.MaxSources, cfg.MaxSources)
	assert.Equal(t, def.MaxEvents, cfg.MaxEvents)
}

func TestMetricsRegistryIsPerInstance(t *testing.T) {
	// Two metric sets must register without colliding.
	a := control.NewMetrics()
	b := control.NewMetrics()

	a.Ticks.Inc()

	fa, err := a.Registry().Gather()
	require.NoError(t, err)
	fb, err := b.Registry().Gather()
	require.NoError(t, err)

	var av, bv float64
	for _, f := range fa {
		if f.GetName() == "plugrt_ticks_total" {
			av = f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	for _, f := range fb {
		if f.GetName() == "plugrt_ticks_total" {
			bv = f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(1), av)
	assert.Equal(t, float64(0), bv)
}
