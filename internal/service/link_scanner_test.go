package service

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/haierkeys/vault-link-index/internal/domain"
	"github.com/haierkeys/vault-link-index/pkg/fileurl"
	"github.com/haierkeys/vault-link-index/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanExtractsEveryReferenceSyntax(t *testing.T) {
	env := newTestEnv(t)
	env.writeNote("index.md", strings.Join([]string{
		"# Index",
		"See [[Other Note|the other]] and ![[_attachments/diagram.png]].",
		"Docs at [site](https://example.com/docs) and [[links/old/file.pdf]].",
		"Broken [[_links/nowhere/file.pdf]]",
	}, "\n"))

	res, err := env.scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.NotesScanned)
	assert.Equal(t, 5, res.Stats.EdgeTotal)
	assert.Empty(t, res.Stats.Errors)

	byTarget := recordsByTarget(res.Records)

	other := byTarget["Other Note"]
	require.NotNil(t, other)
	assert.Equal(t, domain.LinkTypeWikiLink, other.LinkType)
	assert.Equal(t, "the other", other.Alias)
	assert.Equal(t, "vault:///index.md", other.SourceURI)
	assert.Equal(t, 2, other.Line)
	assert.Equal(t, util.LinkID("vault:///index.md", 2, "Other Note"), other.ID)

	embed := byTarget["_attachments/diagram.png"]
	require.NotNil(t, embed)
	assert.Equal(t, domain.LinkTypeEmbed, embed.LinkType)
	assert.Equal(t, domain.TargetVaultDir, embed.Kind)

	site := byTarget["https://example.com/docs"]
	require.NotNil(t, site)
	assert.Equal(t, domain.LinkTypeMarkdownURL, site.LinkType)
	assert.Equal(t, domain.TargetExternalURL, site.Kind)

	assert.Equal(t, domain.StatusLegacyLink, byTarget["links/old/file.pdf"].Status)
	assert.Equal(t, domain.StatusMissingSymlink, byTarget["_links/nowhere/file.pdf"].Status)
}

func TestScanSkipsFencedBlocksAndLinkNamespace(t *testing.T) {
	env := newTestEnv(t)
	env.writeNote("code.md", "before [[A]]\n```\n[[InFence]]\n```\n~~~go\n[[AlsoFenced]]\n~~~\nafter [[B]]\n")
	env.writeNote("_links/testhost/stray.md", "[[ShouldNotAppear]]")
	env.writeNote(".obsidian/workspace.md", "[[Hidden]]")
	env.writeNote("notes.txt", "[[NotMarkdown]]")

	res, err := env.scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.NotesScanned)

	byTarget := recordsByTarget(res.Records)
	assert.Len(t, byTarget, 2)
	assert.Contains(t, byTarget, "A")
	assert.Contains(t, byTarget, "B")
	assert.Equal(t, 8, byTarget["B"].Line)
}

func TestScanFenceMismatchesKeepLaterReferences(t *testing.T) {
	env := newTestEnv(t)
	env.writeNote("inline.md", "```inline``` code\n[[AfterInline]]\n")
	env.writeNote("nested.md", "~~~\n```\n[[Hidden]]\n~~~\n[[AfterNested]]\n")

	res, err := env.scanner.Scan(context.Background())
	require.NoError(t, err)

	byTarget := recordsByTarget(res.Records)
	assert.Len(t, byTarget, 2)
	assert.Equal(t, 2, byTarget["AfterInline"].Line)
	assert.Equal(t, 5, byTarget["AfterNested"].Line)
}

func TestScanDeduplicatesWithinLine(t *testing.T) {
	env := newTestEnv(t)
	env.writeNote("dup.md", "[[X]] and [[X]] again\n[[X]]")

	res, err := env.scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 1, res.Records[0].Line)
	assert.Equal(t, 2, res.Records[1].Line)
}

func TestScanDirectoryNamedLikeNoteIsPerFileError(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(env.vault.Abs("weird.md"), 0o755))
	env.writeNote("good.md", "[[Target]]")

	res, err := env.scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.NotesScanned)
	require.Len(t, res.Stats.Errors, 1)
	assert.Contains(t, res.Stats.Errors[0], "weird.md")
	require.Len(t, res.Records, 1)
}

func TestScanTruncatesRawLine(t *testing.T) {
	env := newTestEnv(t)
	long := "[[T]] " + strings.Repeat("é", 500)
	env.writeNote("long.md", long)

	res, err := env.scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	raw := res.Records[0].RawLine
	assert.True(t, strings.HasSuffix(raw, util.Ellipsis))
	assert.LessOrEqual(t, len([]rune(raw)), DefaultMaxLineLength+len([]rune(util.Ellipsis)))
	assert.True(t, strings.HasPrefix(raw, "[[T]] "))
}

func TestScanRewritesExistingFileURL(t *testing.T) {
	env := newTestEnv(t)
	paper := env.writeExt("library/paper.pdf")
	rawURL := fileurl.FromPath(paper)
	env.writeNote("reading.md", "Read [the paper]("+rawURL+") soon")

	res, err := env.scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Stats.Errors)
	require.Len(t, res.Records, 1)

	ref := env.vault.LinkRef(paper)
	rec := res.Records[0]
	assert.Equal(t, domain.LinkTypeWikiLink, rec.LinkType)
	assert.Equal(t, ref, rec.RawTarget)
	assert.Equal(t, rawURL, rec.TargetURI)
	assert.Equal(t, domain.StatusOK, rec.Status)

	assert.Equal(t, "Read [["+ref+"]] soon", env.readNote("reading.md"))
	target, err := os.Readlink(env.vault.Abs(ref))
	require.NoError(t, err)
	assert.Equal(t, paper, target)

	// the rewritten note yields the same identity on the next pass
	again, err := env.scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, again.Records, 1)
	assert.Equal(t, rec.ID, again.Records[0].ID)
}

func TestScanLeavesMissingFileURLUntouched(t *testing.T) {
	env := newTestEnv(t)
	content := "Gone [old](file:///definitely/not/here.pdf)\n"
	env.writeNote("stale.md", content)

	res, err := env.scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	require.Len(t, res.Stats.Errors, 1)
	assert.Contains(t, res.Stats.Errors[0], "non-existent")
	assert.Contains(t, res.Stats.Errors[0], "stale.md:1")
	assert.Equal(t, content, env.readNote("stale.md"))
	assert.False(t, fileurl.IsLinkExist(env.vault.MachineDir()))
}

func TestScanHonoursCancellation(t *testing.T) {
	env := newTestEnv(t)
	env.writeNote("a.md", "[[B]]")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := env.scanner.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
