package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	internalApp "github.com/haierkeys/vault-link-index/internal/app"
	"github.com/haierkeys/vault-link-index/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, &service.RepairResult{LinksFound: 2, Created: 1}))
	assert.Contains(t, buf.String(), `"linksFound": 2`)
	assert.Contains(t, buf.String(), `"aborted": false`)
}

func TestResolveConfigCreatesDefault(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	configDefault = "vault:\n  path: \"\"\n"

	vault := `/srv/my "quoted" notes\dir: x`
	f := &commonFlags{vault: vault}
	path, err := f.resolveConfig()
	require.NoError(t, err)
	assert.Equal(t, "config/config.yaml", path)

	cfg, _, err := internalApp.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, vault, cfg.Vault.Path)

	// the written file is found on the next run
	path, err = (&commonFlags{}).resolveConfig()
	require.NoError(t, err)
	assert.Equal(t, "config/config.yaml", path)
}

func TestResolveConfigPrefersExplicitFile(t *testing.T) {
	explicit := filepath.Join(t.TempDir(), "mine.yaml")
	path, err := (&commonFlags{config: explicit}).resolveConfig()
	require.NoError(t, err)
	assert.Equal(t, explicit, path)
}
