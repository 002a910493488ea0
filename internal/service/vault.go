package service

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/haierkeys/vault-link-index/pkg/code"
	"github.com/haierkeys/vault-link-index/pkg/fileurl"
	"github.com/haierkeys/vault-link-index/pkg/util"
)

// LinksDirName is the vault's symlink namespace root.
const LinksDirName = "_links"

// Vault is a note vault root plus the machine owning _links/<machine>/.
type Vault struct {
	Root    string
	Machine string
}

// NewVault resolves root to an absolute directory and validates the machine name.
func NewVault(root, machine string) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, code.ErrorInvalidVaultPath.WithSubject(root).WithDetails(err.Error())
	}
	if !fileurl.IsDir(abs) {
		return nil, code.ErrorInvalidVaultPath.WithSubject(abs)
	}
	if machine == "" || util.SanitizeMachineName(machine) != machine {
		return nil, code.ErrorInvalidMachineName.WithSubject(machine)
	}
	return &Vault{Root: abs, Machine: machine}, nil
}

// LinksDir is <vault>/_links.
func (v *Vault) LinksDir() string {
	return filepath.Join(v.Root, LinksDirName)
}

// MachineDir is <vault>/_links/<machine>.
func (v *Vault) MachineDir() string {
	return filepath.Join(v.Root, LinksDirName, v.Machine)
}

// MachinePrefix is the vault relative prefix "_links/<machine>/".
func (v *Vault) MachinePrefix() string {
	return LinksDirName + "/" + v.Machine + "/"
}

// LinkRef is the vault relative reference naming the symlink for an absolute path.
func (v *Vault) LinkRef(absPath string) string {
	return v.MachinePrefix() + filepath.ToSlash(fileurl.StripRoot(absPath))
}

// Abs converts a vault relative slash path to an OS path.
func (v *Vault) Abs(rel string) string {
	return filepath.Join(v.Root, filepath.FromSlash(rel))
}

// NotePaths lists markdown notes in lexical order, skipping the _links subtree and dot-directories.
// A directory named like a note is returned so that reading it fails per file.
// Unreadable subdirectories are reported in errs and skipped.
func (v *Vault) NotePaths() (notes []string, errs []string, err error) {
	err = filepath.WalkDir(v.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == v.Root {
				return walkErr
			}
			errs = append(errs, fmt.Sprintf("walk %s: %v", v.rel(path), walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == v.Root {
			return nil
		}

		rel := v.rel(path)
		isNote := strings.EqualFold(filepath.Ext(d.Name()), ".md")
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || rel == LinksDirName {
				return filepath.SkipDir
			}
			if isNote {
				notes = append(notes, rel)
				return filepath.SkipDir
			}
			return nil
		}
		if isNote {
			notes = append(notes, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errs, code.ErrorScanVault.WithSubject(v.Root).WithDetails(err.Error())
	}
	return notes, errs, nil
}

func (v *Vault) rel(path string) string {
	rel, err := filepath.Rel(v.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// readNote reads a vault relative note; directories fail like any unreadable file.
func (v *Vault) readNote(rel string) ([]byte, error) {
	abs := v.Abs(rel)
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a note", rel)
	}
	return os.ReadFile(abs)
}
