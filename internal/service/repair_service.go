package service

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/haierkeys/vault-link-index/internal/domain"
	"github.com/haierkeys/vault-link-index/pkg/code"
	"github.com/haierkeys/vault-link-index/pkg/fileurl"
	"github.com/haierkeys/vault-link-index/pkg/logger"
	"github.com/haierkeys/vault-link-index/pkg/util"

	"go.uber.org/zap"
)

// Failure IDs for repair steps that abort the whole run.
const (
	RepairFailNamespace = "namespace"
	RepairFailConfig    = "config"
	RepairFailStore     = "store"
)

// ReasonTargetNotFound is recorded for links whose target file is gone.
const ReasonTargetNotFound = "Target file not found"

// knownRootDirs are first path segments treated as the start of an absolute path
// when a _links reference has to be mapped back to a file.
var knownRootDirs = map[string]bool{
	"Users": true, "home": true, "tmp": true, "Volumes": true, "mnt": true,
	"opt": true, "var": true, "private": true, "media": true, "srv": true,
}

// RepairFailure is one link that could not be rebuilt, or an aborting step.
type RepairFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// RepairResult summarises a repair run. Aborted runs leave the live namespace untouched.
type RepairResult struct {
	LinksFound int             `json:"linksFound"`
	Created    int             `json:"created"`
	Skipped    int             `json:"skipped"`
	Failed     []RepairFailure `json:"failed"`
	Aborted    bool            `json:"aborted"`
}

func (r *RepairResult) abort(id string, reason string) *RepairResult {
	r.Aborted = true
	r.Failed = append(r.Failed, RepairFailure{ID: id, Reason: reason})
	return r
}

// RepairService rebuilds the machine symlink namespace.
// Sync and repair against one vault must not run concurrently.
type RepairService interface {
	// FixSymlinks recreates _links/<machine>/ from the file:// targets in the store.
	FixSymlinks(ctx context.Context) (*RepairResult, error)

	// RepairFromNotes recreates missing symlinks referenced by notes, inferring targets from the link path.
	RepairFromNotes(ctx context.Context) (*RepairResult, error)
}

// repairService implements RepairService interface
type repairService struct {
	vault        *Vault
	loadSettings StoreSettingsLoader
	openStore    StoreOpener
	logger       *zap.Logger
}

// NewRepairService creates a RepairService instance
func NewRepairService(v *Vault, load StoreSettingsLoader, open StoreOpener, lg *zap.Logger) RepairService {
	return &repairService{vault: v, loadSettings: load, openStore: open, logger: lg}
}

func (s *repairService) stagingDir() string {
	return filepath.Join(s.vault.LinksDir(), "."+s.vault.Machine+".staging")
}

// FixSymlinks builds the new namespace in a staging directory and swaps it in at the end,
// so a crash or an aborted step never leaves a half-built namespace in place.
// Expected failures are reported in the result; only cancellation returns an error.
func (s *repairService) FixSymlinks(ctx context.Context) (*RepairResult, error) {
	res := &RepairResult{}
	staging := s.stagingDir()
	log := s.logger.With(zap.String(logger.FieldMachine, s.vault.Machine))

	// 1. clear leftovers of an interrupted run
	if err := os.RemoveAll(staging); err != nil {
		return res.abort(RepairFailNamespace, err.Error()), nil
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return res.abort(RepairFailNamespace, err.Error()), nil
	}
	defer os.RemoveAll(staging)

	// 2. connection configuration
	settings, err := s.loadSettings()
	if err != nil {
		return res.abort(RepairFailConfig, err.Error()), nil
	}

	// 3. distinct file:// targets
	uris, err := s.fileTargets(ctx, settings)
	if err != nil {
		return res.abort(RepairFailStore, err.Error()), nil
	}
	res.LinksFound = len(uris)

	// 4. one link per target; OS errors stay per entry
	for _, uri := range uris {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := fileurl.ToPath(uri)
		if err != nil {
			res.Failed = append(res.Failed, RepairFailure{ID: uri, Reason: err.Error()})
			continue
		}
		if !fileurl.IsExist(path) {
			res.Failed = append(res.Failed, RepairFailure{ID: uri, Reason: ReasonTargetNotFound})
			continue
		}
		created, err := fileurl.EnsureSymlink(filepath.Join(staging, fileurl.StripRoot(path)), path)
		if err != nil {
			res.Failed = append(res.Failed, RepairFailure{ID: uri, Reason: err.Error()})
			continue
		}
		if created {
			res.Created++
		}
	}

	// swap: the live namespace is only removed once the replacement is complete
	if err := os.RemoveAll(s.vault.MachineDir()); err != nil {
		log.Error("clear machine namespace failed", zap.Error(err))
		return res.discard().abort(RepairFailNamespace, code.ErrorNamespaceRemove.WithSubject(s.vault.MachineDir()).WithDetails(err.Error()).Error()), nil
	}
	if err := os.Rename(staging, s.vault.MachineDir()); err != nil {
		log.Error("publish rebuilt namespace failed", zap.Error(err))
		return res.discard().abort(RepairFailNamespace, code.ErrorNamespacePublish.WithSubject(s.vault.MachineDir()).WithDetails(err.Error()).Error()), nil
	}

	log.Info("symlink namespace rebuilt",
		zap.Int("found", res.LinksFound), zap.Int("created", res.Created), zap.Int("failed", len(res.Failed)))
	return res, nil
}

// discard forgets links built in staging that were never published.
func (r *RepairResult) discard() *RepairResult {
	r.Created = 0
	return r
}

func (s *repairService) fileTargets(ctx context.Context, settings StoreSettings) ([]string, error) {
	store, err := openStore(ctx, s.openStore, settings, s.logger)
	if err != nil {
		return nil, err
	}
	defer closeStore(store, s.logger)
	return store.DistinctTargetURIs(ctx, domain.SchemeFile)
}

func (s *repairService) RepairFromNotes(ctx context.Context) (*RepairResult, error) {
	res := &RepairResult{}
	refs, errs, err := s.missingNoteRefs(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range errs {
		res.Failed = append(res.Failed, RepairFailure{ID: "scan", Reason: e})
	}
	res.LinksFound = len(refs)

	for _, ref := range refs {
		candidates, ok := s.inferTargets(ref)
		if !ok {
			res.Skipped++
			continue
		}
		target := ""
		for _, c := range candidates {
			if fileurl.IsExist(c) {
				target = c
				break
			}
		}
		if target == "" {
			res.Failed = append(res.Failed, RepairFailure{ID: ref, Reason: ReasonTargetNotFound})
			continue
		}
		created, err := fileurl.EnsureSymlink(s.vault.Abs(ref), target)
		if err != nil {
			res.Failed = append(res.Failed, RepairFailure{ID: ref, Reason: err.Error()})
			continue
		}
		if created {
			res.Created++
		}
	}

	s.logger.Info("symlinks repaired from notes",
		zap.Int("found", res.LinksFound), zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped), zap.Int("failed", len(res.Failed)))
	return res, nil
}

// missingNoteRefs collects distinct _links/ references whose symlink does not exist.
func (s *repairService) missingNoteRefs(ctx context.Context) ([]string, []string, error) {
	notes, errs, err := s.vault.NotePaths()
	if err != nil {
		return nil, errs, err
	}
	seen := make(map[string]bool)
	var refs []string
	for _, rel := range notes {
		if err := ctx.Err(); err != nil {
			return nil, errs, err
		}
		data, err := s.vault.readNote(rel)
		if err != nil {
			errs = append(errs, "read "+rel+": "+err.Error())
			continue
		}
		var fence util.FenceState
		for _, line := range strings.Split(string(data), "\n") {
			if fence.Skip(line) {
				continue
			}
			for _, tok := range util.ParseLineLinks(line) {
				ref := tok.Target
				if tok.Kind == util.TokenMarkdownURL || !strings.HasPrefix(ref, LinksDirName+"/") || seen[ref] {
					continue
				}
				seen[ref] = true
				if !fileurl.IsLinkExist(s.vault.Abs(ref)) {
					refs = append(refs, ref)
				}
			}
		}
	}
	sort.Strings(refs)
	return refs, errs, nil
}

// inferTargets maps _links/<seg>/<rest> back to candidate absolute paths.
// The link path alone cannot say where a file lived, so this is a best-effort guess:
// the own machine maps to /<rest>, a known root directory maps to /<seg>/<rest>,
// and an unknown segment followed by a known root directory maps to /<rest>.
// Anything else, such as hand made links like _links/papers/x.pdf, is skipped.
func (s *repairService) inferTargets(ref string) ([]string, bool) {
	seg, rest, ok := strings.Cut(strings.TrimPrefix(ref, LinksDirName+"/"), "/")
	if !ok || rest == "" {
		return nil, false
	}
	switch {
	case seg == s.vault.Machine:
		return []string{filepath.FromSlash("/" + rest)}, true
	case knownRootDirs[seg]:
		return []string{filepath.FromSlash("/" + seg + "/" + rest)}, true
	case knownRootDirs[util.FirstSegment(rest)]:
		// a namespace written under an earlier host name
		return []string{filepath.FromSlash("/" + rest)}, true
	}
	return nil, false
}
