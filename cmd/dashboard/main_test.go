package main

import (
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootPreRun_WrapsConfigError(t *testing.T) {
	prev := configFile
	t.Cleanup(func() { configFile = prev })
	configFile = filepath.Join(t.TempDir(), "missing.yaml")

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
	assert.NotNil(t, eris.Unwrap(err))
}
