package util

import (
	"os"
	"strings"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	machineName      string
	machineNameMutex sync.Mutex
)

// GetMachineName returns the identifier naming this host's symlink namespace.
// Prefers the short host name, then a prefix of the OS machine id.
// Returns "" when neither is available; callers must require an explicit name then.
// GetMachineName 获取本机链接命名空间使用的机器名
func GetMachineName() string {
	machineNameMutex.Lock()
	defer machineNameMutex.Unlock()

	if machineName != "" {
		return machineName
	}

	// 1. 主机名 (去掉域名部分)
	if host, err := os.Hostname(); err == nil {
		if name := SanitizeMachineName(strings.SplitN(host, ".", 2)[0]); name != "" {
			machineName = name
			return machineName
		}
	}

	// 2. machineid 库
	if id, err := machineid.ID(); err == nil && id != "" {
		if len(id) > 12 {
			id = id[:12]
		}
		machineName = SanitizeMachineName(id)
		return machineName
	}

	return ""
}

// SanitizeMachineName strips characters that would escape the _links/<machine> directory.
func SanitizeMachineName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "-", "\\", "-", "\x00", "").Replace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}
