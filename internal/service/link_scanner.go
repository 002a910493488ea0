package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/haierkeys/vault-link-index/internal/domain"
	"github.com/haierkeys/vault-link-index/pkg/logger"
	"github.com/haierkeys/vault-link-index/pkg/util"

	"go.uber.org/zap"
)

// DefaultMaxLineLength bounds the raw line kept on each record.
const DefaultMaxLineLength = 200

// ScanResult is the outcome of one vault scan
type ScanResult struct {
	Records []*domain.LinkRecord
	Stats   domain.ScanStats
}

// Scanner produces the link records of a vault.
type Scanner interface {
	Scan(ctx context.Context) (*ScanResult, error)
}

// LinkScanner walks vault notes line by line and resolves every reference.
type LinkScanner struct {
	vault         *Vault
	resolver      *LinkResolver
	rewriter      *FileURLRewriter
	maxLineLength int
	logger        *zap.Logger
}

// NewLinkScanner creates a LinkScanner; maxLineLength <= 0 uses DefaultMaxLineLength.
func NewLinkScanner(v *Vault, resolver *LinkResolver, rewriter *FileURLRewriter, maxLineLength int, lg *zap.Logger) *LinkScanner {
	if maxLineLength <= 0 {
		maxLineLength = DefaultMaxLineLength
	}
	return &LinkScanner{
		vault:         v,
		resolver:      resolver,
		rewriter:      rewriter,
		maxLineLength: maxLineLength,
		logger:        lg,
	}
}

// Scan reads every note sequentially. A note that cannot be read is skipped with an error
// in Stats.Errors; only a failure to walk the vault root or cancellation aborts the scan.
func (s *LinkScanner) Scan(ctx context.Context) (*ScanResult, error) {
	notes, walkErrs, err := s.vault.NotePaths()
	if err != nil {
		return nil, err
	}

	res := &ScanResult{}
	res.Stats.Errors = append(res.Stats.Errors, walkErrs...)

	for _, rel := range notes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, errs, err := s.scanNote(rel)
		res.Stats.Errors = append(res.Stats.Errors, errs...)
		if err != nil {
			res.Stats.Errors = append(res.Stats.Errors, fmt.Sprintf("read %s: %v", rel, err))
			s.logger.Warn("skip unreadable note", zap.String(logger.FieldNotePath, rel), zap.Error(err))
			continue
		}
		res.Stats.NotesScanned++
		res.Records = append(res.Records, records...)
	}

	res.Stats.EdgeTotal = len(res.Records)
	s.logger.Debug("vault scanned",
		zap.String(logger.FieldVault, s.vault.Root),
		zap.Int("notes", res.Stats.NotesScanned),
		zap.Int("edges", res.Stats.EdgeTotal),
		zap.Int("errors", len(res.Stats.Errors)))
	return res, nil
}

type lineEdit struct {
	start, end int
	text       string
}

// scanNote extracts the records of one note, rewriting file:// links in place.
// errs holds recoverable problems; err means the note could not be read at all.
func (s *LinkScanner) scanNote(rel string) (records []*domain.LinkRecord, errs []string, err error) {
	data, err := s.vault.readNote(rel)
	if err != nil {
		return nil, nil, err
	}

	notePath := util.NormalizeNotePath(rel)
	sourceURI := domain.SchemeVault + notePath
	lines := strings.Split(string(data), "\n")
	seen := make(map[string]bool)
	rewritten := false
	var fence util.FenceState

	for i, line := range lines {
		if fence.Skip(line) {
			continue
		}

		lineNum := i + 1
		var edits []lineEdit
		var lineRecords []*domain.LinkRecord

		for _, tok := range util.ParseLineLinks(line) {
			switch {
			case tok.IsFileURL():
				link, err := s.rewriter.Link(tok.Target)
				if err != nil {
					errs = append(errs, fmt.Sprintf("%v (%s:%d)", err, rel, lineNum))
					continue
				}
				edits = append(edits, lineEdit{start: tok.Start, end: tok.End, text: link.Replacement()})
				lineRecords = append(lineRecords, s.newRecord(notePath, sourceURI, lineNum, domain.LinkTypeWikiLink, link.LinkRef, ""))
			case tok.Kind == util.TokenMarkdownURL:
				lineRecords = append(lineRecords, s.newRecord(notePath, sourceURI, lineNum, domain.LinkTypeMarkdownURL, tok.Target, tok.Alias))
			case tok.Kind == util.TokenEmbed:
				lineRecords = append(lineRecords, s.newRecord(notePath, sourceURI, lineNum, domain.LinkTypeEmbed, tok.Target, tok.Alias))
			default:
				lineRecords = append(lineRecords, s.newRecord(notePath, sourceURI, lineNum, domain.LinkTypeWikiLink, tok.Target, tok.Alias))
			}
		}

		if len(edits) > 0 {
			line = applyEdits(line, edits)
			lines[i] = line
			rewritten = true
		}

		for _, r := range lineRecords {
			// the same target twice on one line is one edge
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			r.RawLine = util.TruncateRunes(strings.TrimRight(line, "\r"), s.maxLineLength)
			records = append(records, r)
		}
	}

	if rewritten {
		if err := s.rewriter.RewriteNote(rel, []byte(strings.Join(lines, "\n"))); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return records, errs, nil
}

func (s *LinkScanner) newRecord(notePath, sourceURI string, line int, lt domain.LinkType, raw, alias string) *domain.LinkRecord {
	res := s.resolver.Resolve(raw)
	return &domain.LinkRecord{
		ID:           util.LinkID(sourceURI, line, raw),
		SourceURI:    sourceURI,
		NotePath:     notePath,
		Line:         line,
		LinkType:     lt,
		RawTarget:    raw,
		Alias:        alias,
		TargetURI:    res.URI,
		Status:       res.Status,
		Kind:         res.Kind,
		ResolvedPath: res.ResolvedPath,
	}
}

// applyEdits replaces token spans right to left so earlier offsets stay valid.
func applyEdits(line string, edits []lineEdit) string {
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	for _, e := range edits {
		line = line[:e.start] + e.text + line[e.end:]
	}
	return line
}
