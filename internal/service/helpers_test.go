package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/vault-link-index/internal/dao"
	"github.com/haierkeys/vault-link-index/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testMachine = "testhost"

type testEnv struct {
	t        *testing.T
	vault    *Vault
	ext      string // directory holding "external" files outside the vault
	settings StoreSettings
	resolver *LinkResolver
	scanner  *LinkScanner
	sync     SyncService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	vaultDir := filepath.Join(root, "vault")
	require.NoError(t, os.MkdirAll(vaultDir, 0o755))
	ext := filepath.Join(root, "ext")
	require.NoError(t, os.MkdirAll(ext, 0o755))

	v, err := NewVault(vaultDir, testMachine)
	require.NoError(t, err)

	lg := zap.NewNop()
	resolver := NewLinkResolver(v)
	scanner := NewLinkScanner(v, resolver, NewFileURLRewriter(v, lg), 0, lg)

	return &testEnv{
		t:        t,
		vault:    v,
		ext:      ext,
		resolver: resolver,
		scanner:  scanner,
		sync:     NewSyncService(scanner, dao.OpenStore, lg),
		settings: StoreSettings{
			URI:            "sqlite://" + filepath.Join(root, "store", "links.sqlite3"),
			Collection:     "vault.links",
			ConnectTimeout: 5 * time.Second,
		},
	}
}

func (e *testEnv) loader() StoreSettingsLoader {
	return func() (StoreSettings, error) { return e.settings, nil }
}

func (e *testEnv) writeNote(rel, content string) {
	e.t.Helper()
	p := e.vault.Abs(rel)
	require.NoError(e.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(e.t, os.WriteFile(p, []byte(content), 0o644))
}

func (e *testEnv) readNote(rel string) string {
	e.t.Helper()
	data, err := os.ReadFile(e.vault.Abs(rel))
	require.NoError(e.t, err)
	return string(data)
}

// writeExt creates an external file and returns its absolute path.
func (e *testEnv) writeExt(rel string) string {
	e.t.Helper()
	p := filepath.Join(e.ext, filepath.FromSlash(rel))
	require.NoError(e.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(e.t, os.WriteFile(p, []byte("data"), 0o644))
	return p
}

func (e *testEnv) syncOptions() SyncOptions {
	return SyncOptions{URI: e.settings.URI, Collection: e.settings.Collection, BatchSize: 2, ConnectTimeout: e.settings.ConnectTimeout}
}

func (e *testEnv) runSync() *SyncResult {
	e.t.Helper()
	res, err := e.sync.Sync(context.Background(), e.syncOptions())
	require.NoError(e.t, err)
	return res
}

func (e *testEnv) openStore() domain.LinkStore {
	e.t.Helper()
	store, err := openStore(context.Background(), dao.OpenStore, e.settings, zap.NewNop())
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func (e *testEnv) countByStatus() map[string]int64 {
	e.t.Helper()
	counts, err := e.openStore().CountBy(context.Background(), domain.GroupByStatus)
	require.NoError(e.t, err)
	return counts
}

func recordsByTarget(records []*domain.LinkRecord) map[string]*domain.LinkRecord {
	out := make(map[string]*domain.LinkRecord, len(records))
	for _, r := range records {
		out[r.RawTarget] = r
	}
	return out
}

func removeNote(e *testEnv, rel string) error {
	return os.Remove(e.vault.Abs(rel))
}
