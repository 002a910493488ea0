package fileurl

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// IsDir determines if the given path is a directory
// IsDir 判断所给路径是否为文件夹
func IsDir(path string) bool {
	s, err := os.Stat(path)
	if err != nil {
		return false
	}
	return s.IsDir()
}

// IsExist determines if the given path exists, following symlinks
// IsExist 判断所给路径是否存在 (跟随符号链接)
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	return err == nil
}

// IsLinkExist reports whether an entry exists at dst without following it.
// IsLinkExist 判断路径本身是否存在 (不跟随符号链接)
func IsLinkExist(dst string) bool {
	_, err := os.Lstat(dst)
	return err == nil
}

// CreatePath creates the parent directory of dst
// CreatePath 创建 dst 的父目录
func CreatePath(dst string, perm os.FileMode) error {
	return os.MkdirAll(filepath.Dir(dst), perm)
}

// ToPath converts a file:// URL into an absolute, cleaned local path.
// Percent escapes are decoded; a host other than "" or "localhost" is rejected.
// ToPath 将 file:// URL 转换为本地绝对路径
func ToPath(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", errors.Wrapf(err, "parse file url %q", raw)
	}
	if !strings.EqualFold(u.Scheme, "file") {
		return "", errors.Errorf("not a file url: %q", raw)
	}
	if u.Host != "" && !strings.EqualFold(u.Host, "localhost") {
		return "", errors.Errorf("file url %q names remote host %q", raw, u.Host)
	}
	p := u.Path
	if p == "" {
		p = u.Opaque
	}
	if p == "" {
		return "", errors.Errorf("file url %q has no path", raw)
	}
	p = filepath.FromSlash(p)
	if !filepath.IsAbs(p) {
		p = string(filepath.Separator) + p
	}
	return filepath.Clean(p), nil
}

// FromPath builds the canonical, percent-encoded file:// URL of an absolute path.
// ToPath(FromPath(p)) returns p for any clean absolute path.
// FromPath 根据绝对路径生成 file:// URL
func FromPath(p string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Clean(p))}).String()
}

// StripRoot removes the leading separator (and volume) so p can be nested under another directory.
// StripRoot 去掉开头的分隔符，使绝对路径可以挂载到其他目录下
func StripRoot(p string) string {
	p = filepath.Clean(p)
	p = strings.TrimPrefix(p, filepath.VolumeName(p))
	return strings.TrimLeft(p, `/\`)
}
