package service

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/haierkeys/vault-link-index/internal/domain"
	"github.com/haierkeys/vault-link-index/pkg/code"
	"github.com/haierkeys/vault-link-index/pkg/diff"
	"github.com/haierkeys/vault-link-index/pkg/fileurl"
	"github.com/haierkeys/vault-link-index/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NoteRewrite is one note touched by a vault link rewrite.
type NoteRewrite struct {
	NotePath     string `json:"notePath"`
	Replacements int    `json:"replacements"`
	Patch        string `json:"patch,omitempty"` // dry-run only
}

// VaultRewrite is the outcome of UpdateVaultLinksOnMove.
type VaultRewrite struct {
	OldRef string         `json:"oldRef"`
	NewRef string         `json:"newRef"`
	DryRun bool           `json:"dryRun"`
	Notes  []*NoteRewrite `json:"notes"`
	Errors []string       `json:"errors"`
}

// MoveReport is the outcome of HandleFileMove.
type MoveReport struct {
	Skipped      bool          `json:"skipped"`
	EdgesUpdated int64         `json:"edgesUpdated"`
	Vault        *VaultRewrite `json:"vault,omitempty"`
}

// MoveService propagates moves of referenced external files without a full rescan.
// Every hook is idempotent and tolerates replayed or out-of-order events.
type MoveService interface {
	// UpdateLinksOnFileMove repoints every edge targeting oldURI to newURI with status ok.
	UpdateLinksOnFileMove(ctx context.Context, oldURI, newURI string) (int64, error)

	// UpdateLinkOnMove moves the machine namespace symlink only.
	UpdateLinkOnMove(oldPath, newPath string) error

	// UpdateVaultLinksOnMove rewrites _links/<machine>/<old> references in note text.
	UpdateVaultLinksOnMove(oldPath, newPath string, dryRun bool) (*VaultRewrite, error)

	// MarkReferenceDeleted only logs; note content is never changed on deletion.
	MarkReferenceDeleted(path string)

	// HandleFileMove runs the symlink, note and edge updates for one move event.
	HandleFileMove(ctx context.Context, oldPath, newPath string) (*MoveReport, error)
}

// moveService implements MoveService interface
type moveService struct {
	vault        *Vault
	loadSettings StoreSettingsLoader
	openStore    StoreOpener
	logger       *zap.Logger
}

// NewMoveService creates a MoveService instance
func NewMoveService(v *Vault, load StoreSettingsLoader, open StoreOpener, lg *zap.Logger) MoveService {
	return &moveService{vault: v, loadSettings: load, openStore: open, logger: lg}
}

func (s *moveService) UpdateLinksOnFileMove(ctx context.Context, oldURI, newURI string) (int64, error) {
	if oldURI == "" || newURI == "" {
		return 0, code.ErrorInvalidMoveArgument
	}
	if oldURI == newURI {
		return 0, nil
	}

	settings, err := s.loadSettings()
	if err != nil {
		return 0, code.ErrorConfigLoad.WithDetails(err.Error())
	}
	store, err := openStore(ctx, s.openStore, settings, s.logger)
	if err != nil {
		return 0, err
	}
	defer closeStore(store, s.logger)

	n, err := store.UpdateTargetURI(ctx, oldURI, newURI, domain.StatusOK)
	if err != nil {
		return 0, code.ErrorStoreWrite.WithDetails(err.Error())
	}
	s.logger.Info("edges repointed after move",
		zap.String("from", oldURI), zap.String("to", newURI), zap.Int64(logger.FieldCount, n))
	return n, nil
}

func (s *moveService) UpdateLinkOnMove(oldPath, newPath string) error {
	if oldPath == "" || newPath == "" {
		return code.ErrorInvalidMoveArgument
	}
	oldLink := s.vault.Abs(s.vault.LinkRef(oldPath))
	newLink := s.vault.Abs(s.vault.LinkRef(newPath))

	hadLink := false
	if fi, err := os.Lstat(oldLink); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(oldLink); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "remove symlink %s", oldLink)
		}
		hadLink = true
		s.pruneEmptyDirs(filepath.Dir(oldLink))
	}

	// Unreferenced files have no link to move.
	if !hadLink && !fileurl.IsLinkExist(newLink) {
		return nil
	}
	if _, err := fileurl.EnsureSymlink(newLink, filepath.Clean(newPath)); err != nil {
		return errors.Wrapf(err, "relink %s", newPath)
	}
	s.logger.Debug("symlink moved", zap.String("from", oldLink), zap.String("to", newLink))
	return nil
}

// pruneEmptyDirs removes now empty parents up to, but excluding, the machine directory.
func (s *moveService) pruneEmptyDirs(dir string) {
	stop := s.vault.MachineDir()
	for dir != stop && strings.HasPrefix(dir, stop+string(filepath.Separator)) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (s *moveService) UpdateVaultLinksOnMove(oldPath, newPath string, dryRun bool) (*VaultRewrite, error) {
	if oldPath == "" || newPath == "" {
		return nil, code.ErrorInvalidMoveArgument
	}
	out := &VaultRewrite{
		OldRef: s.vault.LinkRef(oldPath),
		NewRef: s.vault.LinkRef(newPath),
		DryRun: dryRun,
	}
	if out.OldRef == out.NewRef {
		return out, nil
	}

	// The reference must end where a wikilink target ends, so /a.pdf never matches /a.pdf.bak.
	re := regexp.MustCompile(regexp.QuoteMeta(out.OldRef) + `([\]|#])`)

	notes, walkErrs, err := s.vault.NotePaths()
	if err != nil {
		return nil, err
	}
	out.Errors = append(out.Errors, walkErrs...)

	for _, rel := range notes {
		data, err := s.vault.readNote(rel)
		if err != nil {
			out.Errors = append(out.Errors, "read "+rel+": "+err.Error())
			continue
		}
		before := string(data)
		if !strings.Contains(before, out.OldRef) {
			continue
		}

		count := 0
		after := re.ReplaceAllStringFunc(before, func(m string) string {
			count++
			return out.NewRef + m[len(m)-1:]
		})
		if count == 0 {
			continue
		}

		nr := &NoteRewrite{NotePath: rel, Replacements: count}
		if dryRun {
			nr.Patch = diff.Compute(before, after).Patch
		} else if err := fileurl.WriteFilePreservePerm(s.vault.Abs(rel), []byte(after)); err != nil {
			out.Errors = append(out.Errors, code.ErrorNoteRewrite.WithSubject(rel).WithDetails(err.Error()).Error())
			continue
		}
		out.Notes = append(out.Notes, nr)
	}

	s.logger.Info("vault links rewritten after move",
		zap.String("from", out.OldRef), zap.String("to", out.NewRef),
		zap.Int("notes", len(out.Notes)), zap.Bool("dryRun", dryRun))
	return out, nil
}

func (s *moveService) MarkReferenceDeleted(path string) {
	s.logger.Info("referenced file deleted, links left untouched", zap.String(logger.FieldPath, path))
}

func (s *moveService) HandleFileMove(ctx context.Context, oldPath, newPath string) (*MoveReport, error) {
	report := &MoveReport{}
	// A later event already moved or removed the file again.
	if !fileurl.IsExist(newPath) {
		report.Skipped = true
		s.logger.Debug("stale move event skipped", zap.String("from", oldPath), zap.String("to", newPath))
		return report, nil
	}

	if err := s.UpdateLinkOnMove(oldPath, newPath); err != nil {
		return report, err
	}

	rewrite, err := s.UpdateVaultLinksOnMove(oldPath, newPath, false)
	if err != nil {
		return report, err
	}
	report.Vault = rewrite

	n, err := s.UpdateLinksOnFileMove(ctx, fileurl.FromPath(oldPath), fileurl.FromPath(newPath))
	if err != nil {
		return report, err
	}
	report.EdgesUpdated = n
	return report, nil
}
