package fileurl

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ErrLinkConflict is returned when a non-matching entry occupies a symlink path.
var ErrLinkConflict = errors.New("a different entry already exists at link path")

// EnsureSymlink makes link point at target, creating parent directories.
// An existing symlink with the same target is reused and reported as not created.
// EnsureSymlink 确保 link 指向 target，已存在相同链接时直接复用
func EnsureSymlink(link, target string) (bool, error) {
	if fi, err := os.Lstat(link); err == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			if cur, err := os.Readlink(link); err == nil && filepath.Clean(cur) == filepath.Clean(target) {
				return false, nil
			}
		}
		return false, errors.Wrapf(ErrLinkConflict, "%s", link)
	}

	if err := CreatePath(link, 0o755); err != nil {
		return false, errors.Wrapf(err, "create parent of %s", link)
	}
	if err := os.Symlink(target, link); err != nil {
		return false, errors.Wrapf(err, "symlink %s -> %s", link, target)
	}
	return true, nil
}

// ReadLinkAbs returns the symlink's own target, made absolute relative to the link directory.
// ReadLinkAbs 读取符号链接目标并转换为绝对路径
func ReadLinkAbs(link string) (string, error) {
	target, err := os.Readlink(link)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(link), target)
	}
	return filepath.Clean(target), nil
}

// WriteFilePreservePerm replaces path's content keeping its permission bits.
// WriteFilePreservePerm 写入文件并保留原有权限
func WriteFilePreservePerm(path string, data []byte) error {
	perm := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		perm = fi.Mode().Perm()
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return err
	}
	// WriteFile keeps the existing mode only when umask allows it.
	return os.Chmod(path, perm)
}
