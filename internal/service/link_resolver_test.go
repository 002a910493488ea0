package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/haierkeys/vault-link-index/internal/domain"
	"github.com/haierkeys/vault-link-index/pkg/fileurl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkResolverClassification(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		raw    string
		status domain.LinkStatus
		kind   domain.TargetKind
		uri    string
	}{
		{"SomeNote", domain.StatusOK, domain.TargetNote, "vault:///SomeNote"},
		{"https://example.com/a", domain.StatusOK, domain.TargetExternalURL, "https://example.com/a"},
		{"HTTP://example.com", domain.StatusOK, domain.TargetExternalURL, "HTTP://example.com"},
		{"_attachments/img.png", domain.StatusOK, domain.TargetVaultDir, "vault:///_attachments/img.png"},
		{"links/old/document.pdf", domain.StatusLegacyLink, domain.TargetLegacy, "legacy:///_links/old/document.pdf"},
		{"LINKS/Old/Doc.pdf", domain.StatusLegacyLink, domain.TargetLegacy, "legacy:///_links/Old/Doc.pdf"},
		{"_links/broken/link.pdf", domain.StatusMissingSymlink, domain.TargetSymlink, "vault:///_links/broken/link.pdf"},
		{"_links/testhost/tmp/gone.pdf", domain.StatusMissingSymlink, domain.TargetSymlink, "file:///tmp/gone.pdf"},
		{"_links", domain.StatusOK, domain.TargetNote, "vault:///_links"},
		{"", domain.StatusOK, domain.TargetNote, "vault:///"},
		{"folder/Note#Heading", domain.StatusOK, domain.TargetNote, "vault:///folder/Note#Heading"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			res := env.resolver.Resolve(tt.raw)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.kind, res.Kind)
			assert.Equal(t, tt.uri, res.URI)
		})
	}
}

func TestLinkResolverSymlinks(t *testing.T) {
	env := newTestEnv(t)
	paper := env.writeExt("papers/paper.pdf")

	// a hand made link outside the machine namespace
	link := env.vault.Abs("_links/papers/paper.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0o755))
	require.NoError(t, os.Symlink(paper, link))

	res := env.resolver.Resolve("_links/papers/paper.pdf")
	assert.Equal(t, domain.StatusOK, res.Status)
	assert.Equal(t, fileurl.FromPath(paper), res.URI)
	resolvedPaper, _ := filepath.EvalSymlinks(paper)
	assert.Equal(t, resolvedPaper, res.ResolvedPath)

	// dangling link
	dangling := env.vault.Abs("_links/papers/gone.pdf")
	require.NoError(t, os.Symlink(filepath.Join(env.ext, "gone.pdf"), dangling))
	res = env.resolver.Resolve("_links/papers/gone.pdf")
	assert.Equal(t, domain.StatusMissingTarget, res.Status)
	assert.Empty(t, res.ResolvedPath)

	// machine namespace link derives the URI from its own path
	ref := env.vault.LinkRef(paper)
	mlink := env.vault.Abs(ref)
	require.NoError(t, os.MkdirAll(filepath.Dir(mlink), 0o755))
	require.NoError(t, os.Symlink(paper, mlink))
	res = env.resolver.Resolve(ref)
	assert.Equal(t, domain.StatusOK, res.Status)
	assert.Equal(t, fileurl.FromPath(paper), res.URI)
}
