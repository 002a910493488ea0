package dao

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/vault-link-index/internal/domain"
	"github.com/haierkeys/vault-link-index/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveStoreKind(t *testing.T) {
	tests := []struct {
		uri  string
		want StoreKind
	}{
		{"sqlite://storage/x.sqlite3", StoreSQL},
		{"file:storage/x.db?cache=shared", StoreSQL},
		{"mysql://u:p@tcp(localhost:3306)/db", StoreSQL},
		{"postgres://u:p@localhost/db", StoreSQL},
		{"postgresql://u:p@localhost/db", StoreSQL},
		{"mongodb://localhost:27017", StoreMongo},
		{"MONGODB+SRV://cluster.example.net", StoreMongo},
	}
	for _, tt := range tests {
		got, err := ResolveStoreKind(tt.uri)
		require.NoError(t, err, tt.uri)
		assert.Equal(t, tt.want, got, tt.uri)
	}

	for _, bad := range []string{"", "   ", "localhost", "redis://x"} {
		_, err := ResolveStoreKind(bad)
		assert.True(t, errors.Is(err, code.ErrorInvalidStoreURI), bad)
	}
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "vault_links_v2", TableName(domain.CollectionKey{Database: "vault", Collection: "links.v2"}))
}

func openTestSQLiteStore(t *testing.T) domain.LinkStore {
	t.Helper()
	uri := "sqlite://" + filepath.Join(t.TempDir(), "db", "links.sqlite3")
	store, err := OpenStore(context.Background(), StoreConfig{
		URI:            uri,
		Collection:     domain.CollectionKey{Database: "vault", Collection: "links"},
		ConnectTimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestGormLinkStore(t *testing.T) {
	exerciseLinkStore(t, openTestSQLiteStore(t))
}

func TestOpenStoreRejectsUnknownScheme(t *testing.T) {
	_, err := OpenStore(context.Background(), StoreConfig{URI: "redis://localhost"}, zap.NewNop())
	assert.True(t, errors.Is(err, code.ErrorInvalidStoreURI))
}

func edge(id, target string, status domain.LinkStatus, lt domain.LinkType, seen time.Time) *domain.Edge {
	return &domain.Edge{
		ID:        id,
		Kind:      domain.EdgeKindLink,
		SourceURI: "vault:///note.md",
		TargetURI: target,
		LinkType:  lt,
		Status:    status,
		Line:      1,
		NotePath:  "note.md",
		FirstSeen: seen,
		LastSeen:  seen,
	}
}

// exerciseLinkStore runs the behaviour every LinkStore backend must share.
func exerciseLinkStore(t *testing.T, store domain.LinkStore) {
	ctx := context.Background()
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC)
	t2 := t1.Add(time.Nanosecond)

	meta, err := store.GetMeta(ctx)
	require.NoError(t, err)
	assert.Nil(t, meta)

	res, err := store.UpsertEdges(ctx, []*domain.Edge{
		edge("a", "vault:///A", domain.StatusOK, domain.LinkTypeWikiLink, t1),
		edge("b", "file:///tmp/x.pdf", domain.StatusMissingSymlink, domain.LinkTypeWikiLink, t1),
		edge("c", "file:///tmp/x.pdf", domain.StatusOK, domain.LinkTypeEmbed, t1),
		edge("d", "legacy:///_links/old", domain.StatusLegacyLink, domain.LinkTypeWikiLink, t1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Inserted)
	assert.Equal(t, int64(0), res.Updated)
	assert.Empty(t, res.Failed)

	// Second sighting keeps first_seen and bumps last_seen
	res, err = store.UpsertEdges(ctx, []*domain.Edge{
		edge("a", "vault:///A", domain.StatusOK, domain.LinkTypeWikiLink, t2),
		edge("b", "file:///tmp/x.pdf", domain.StatusMissingSymlink, domain.LinkTypeWikiLink, t2),
		edge("c", "file:///tmp/x.pdf", domain.StatusOK, domain.LinkTypeEmbed, t2),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Inserted)
	assert.Equal(t, int64(3), res.Updated)

	issues, err := store.ListIssues(ctx, 10)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "b", issues[0].ID)
	assert.Equal(t, t1, issues[0].FirstSeen)
	assert.Equal(t, t2, issues[0].LastSeen)
	assert.Equal(t, "d", issues[1].ID)

	byStatus, err := store.CountBy(ctx, domain.GroupByStatus)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"ok": 2, "missing_symlink": 1, "legacy_link": 1}, byStatus)

	byType, err := store.CountBy(ctx, domain.GroupByLinkType)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"wikilink": 3, "embed": 1}, byType)

	uris, err := store.DistinctTargetURIs(ctx, domain.SchemeFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"file:///tmp/x.pdf"}, uris)

	deleted, err := store.DeleteStaleEdges(ctx, t2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	updated, err := store.UpdateTargetURI(ctx, "file:///tmp/x.pdf", "file:///tmp/y.pdf", domain.StatusOK)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	byStatus, err = store.CountBy(ctx, domain.GroupByStatus)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"ok": 3}, byStatus)

	err = store.SaveMeta(ctx, &domain.ScanMeta{
		RunID:        "run-1",
		StartedAt:    t2,
		DurationMs:   12,
		NotesScanned: 1,
		EdgeTotal:    3,
		ByType:       map[string]int64{"wikilink": 3},
		ByStatus:     map[string]int64{"ok": 3},
		Errors:       []string{"boom"},
	})
	require.NoError(t, err)
	require.NoError(t, store.SaveMeta(ctx, &domain.ScanMeta{RunID: "run-2", StartedAt: t2, ByStatus: map[string]int64{"ok": 3}}))

	meta, err = store.GetMeta(ctx)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "run-2", meta.RunID)
	assert.Equal(t, t2, meta.StartedAt)
	assert.True(t, meta.HasCounts())

	_, err = store.CountBy(ctx, domain.GroupField("note_path; DROP TABLE x"))
	assert.Error(t, err)
}
