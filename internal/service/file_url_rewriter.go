package service

import (
	"github.com/haierkeys/vault-link-index/pkg/code"
	"github.com/haierkeys/vault-link-index/pkg/fileurl"
	"github.com/haierkeys/vault-link-index/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FileLink is a file:// reference moved into the machine namespace.
type FileLink struct {
	Path    string // absolute target path
	URI     string // canonical file:// URI of Path
	LinkRef string // _links/<machine>/<path> reference replacing the markdown token
	Created bool   // false when an identical symlink already existed
}

// Replacement is the wikilink text written over the original [text](file://...) token.
func (l FileLink) Replacement() string {
	return "[[" + l.LinkRef + "]]"
}

// FileURLRewriter turns [text](file://path) references into machine namespaced symlinks.
// It is the only part of a scan that writes to the vault.
type FileURLRewriter struct {
	vault  *Vault
	logger *zap.Logger
}

// NewFileURLRewriter creates a FileURLRewriter for the vault
func NewFileURLRewriter(v *Vault, lg *zap.Logger) *FileURLRewriter {
	return &FileURLRewriter{vault: v, logger: lg}
}

// Link creates _links/<machine>/<path> for a file URL whose target exists.
// A missing target creates nothing and returns code.ErrorFileURLNotExist.
func (w *FileURLRewriter) Link(rawURL string) (FileLink, error) {
	path, err := fileurl.ToPath(rawURL)
	if err != nil {
		return FileLink{}, err
	}
	if !fileurl.IsExist(path) {
		return FileLink{}, code.ErrorFileURLNotExist.WithDetails(path)
	}

	l := FileLink{Path: path, URI: fileurl.FromPath(path), LinkRef: w.vault.LinkRef(path)}
	created, err := fileurl.EnsureSymlink(w.vault.Abs(l.LinkRef), path)
	if err != nil {
		if errors.Is(err, fileurl.ErrLinkConflict) {
			return FileLink{}, code.ErrorSymlinkConflict.WithSubject(l.LinkRef)
		}
		return FileLink{}, code.ErrorSymlinkCreate.WithSubject(l.LinkRef).WithDetails(err.Error())
	}
	l.Created = created
	if created {
		w.logger.Info("file url linked", zap.String(logger.FieldPath, path), zap.String("link", l.LinkRef))
	}
	return l, nil
}

// RewriteNote writes the rewritten note content preserving permissions.
func (w *FileURLRewriter) RewriteNote(rel string, content []byte) error {
	if err := fileurl.WriteFilePreservePerm(w.vault.Abs(rel), content); err != nil {
		return code.ErrorNoteRewrite.WithSubject(rel).WithDetails(err.Error())
	}
	return nil
}
