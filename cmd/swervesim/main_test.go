package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/swervesim/internal/config"
)

func newFlagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	configFile, preset, logLevel, dataDir = "", "", "", ""
	cmd := &cobra.Command{Use: "test"}
	addSimFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newFlagCmd(t))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestLoadConfig_Layers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	file := config.DefaultConfig()
	file.Heading.Kp = 3
	file.Heading.Kd = 0.3
	require.NoError(t, config.Save(path, file))

	cmd := newFlagCmd(t, "--kd", "0.7", "--alliance", "red")
	configFile = path
	preset = "aggressive"

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 8.0, cfg.Heading.Kp, "preset over file")
	assert.Equal(t, 0.7, cfg.Heading.Kd, "flag over preset")
	assert.Equal(t, "red", cfg.Match.Alliance)
	assert.Equal(t, "rk4", cfg.Sim.Integrator, "unset flag leaves config alone")
}

func TestLoadConfig_UnknownPreset(t *testing.T) {
	cmd := newFlagCmd(t)
	preset = "nope"
	_, err := loadConfig(cmd)
	assert.Error(t, err)
}

func TestRefuseOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.yaml")
	forceWrite = false
	assert.NoError(t, refuseOverwrite(path))

	require.NoError(t, os.WriteFile(path, nil, 0644))
	assert.Error(t, refuseOverwrite(path))

	forceWrite = true
	defer func() { forceWrite = false }()
	assert.NoError(t, refuseOverwrite(path))
}
