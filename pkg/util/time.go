package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses duration string, supports 'd' (day) suffix
// ParseDuration 解析时间字符串，支持 'd' (天) 后缀
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	// 如果是纯数字，默认为秒
	if _, err := strconv.Atoi(s); err == nil {
		s += "s"
	}
	return time.ParseDuration(s)
}

// MonotonicAfter returns now, or prev+1ns when the wall clock has not moved past prev.
// Sweep watermarks rely on strictly increasing scan start times.
func MonotonicAfter(now, prev time.Time) time.Time {
	if prev.IsZero() || now.After(prev) {
		return now
	}
	return prev.Add(time.Nanosecond)
}
