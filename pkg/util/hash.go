package util

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
)

// EncodeMD5 对字符串进行MD5编码
// str: 待编码的字符串
// 返回值: MD5编码后的32位十六进制字符串
func EncodeMD5(str string) string {
	h := md5.New()
	h.Write([]byte(str))
	return hex.EncodeToString(h.Sum(nil))
}

// LinkID is the idempotent key of one link occurrence.
// The NUL separators keep ("a", 1, "b") distinct from ("a1", ..., "b").
// LinkID 链接出现位置的幂等主键
func LinkID(sourceURI string, line int, rawTarget string) string {
	return EncodeMD5(sourceURI + "\x00" + strconv.Itoa(line) + "\x00" + rawTarget)
}
