package service

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/haierkeys/vault-link-index/internal/domain"
	"github.com/haierkeys/vault-link-index/pkg/fileurl"
	"github.com/haierkeys/vault-link-index/pkg/util"
)

const legacyLinksPrefix = "links/"

// Resolution is the classification of one raw reference target.
type Resolution struct {
	Status       domain.LinkStatus
	Kind         domain.TargetKind
	URI          string
	ResolvedPath string
}

// LinkResolver classifies raw reference targets against a vault.
// It only performs exists/readlink checks and never fails.
type LinkResolver struct {
	vault *Vault
}

// NewLinkResolver creates a LinkResolver for the vault
func NewLinkResolver(v *Vault) *LinkResolver {
	return &LinkResolver{vault: v}
}

// Resolve applies the rules in priority order:
// external URL, underscore vault directory, legacy links/ prefix, _links/ symlink, plain note.
func (r *LinkResolver) Resolve(raw string) Resolution {
	if util.HasScheme(raw, "http") || util.HasScheme(raw, "https") {
		return Resolution{Status: domain.StatusOK, Kind: domain.TargetExternalURL, URI: raw}
	}

	first := util.FirstSegment(raw)
	if strings.HasPrefix(first, "_") && first != LinksDirName {
		return Resolution{Status: domain.StatusOK, Kind: domain.TargetVaultDir, URI: domain.SchemeVault + raw}
	}

	if len(raw) >= len(legacyLinksPrefix) && strings.EqualFold(raw[:len(legacyLinksPrefix)], legacyLinksPrefix) {
		return Resolution{
			Status: domain.StatusLegacyLink,
			Kind:   domain.TargetLegacy,
			URI:    domain.SchemeLegacy + LinksDirName + "/" + raw[len(legacyLinksPrefix):],
		}
	}

	if strings.HasPrefix(raw, LinksDirName+"/") {
		return r.resolveSymlink(raw)
	}

	return Resolution{Status: domain.StatusOK, Kind: domain.TargetNote, URI: domain.SchemeVault + raw}
}

func (r *LinkResolver) resolveSymlink(raw string) Resolution {
	res := Resolution{Kind: domain.TargetSymlink, URI: domain.SchemeVault + raw}
	link := r.vault.Abs(raw)

	// Inside the own namespace the link path encodes the absolute target.
	if rest, ok := strings.CutPrefix(raw, r.vault.MachinePrefix()); ok && rest != "" {
		res.URI = fileurl.FromPath("/" + rest)
	}

	if _, err := os.Lstat(link); err != nil {
		res.Status = domain.StatusMissingSymlink
		return res
	}

	if !strings.HasPrefix(raw, r.vault.MachinePrefix()) {
		if target, err := fileurl.ReadLinkAbs(link); err == nil {
			res.URI = fileurl.FromPath(target)
		}
	}

	resolved, err := filepath.EvalSymlinks(link)
	if err != nil || !fileurl.IsExist(resolved) {
		res.Status = domain.StatusMissingTarget
		return res
	}

	res.Status = domain.StatusOK
	res.ResolvedPath = resolved
	return res
}
