package utils

import (
	"net/url"
	"strings"
)

// platformHosts 视频平台域名表，按顺序匹配
var platformHosts = []struct {
	platform string
	hosts    []string
}{
	{"youtube", []string{"youtube.com", "youtu.be"}},
	{"tiktok", []string{"tiktok.com"}},
	{"facebook", []string{"facebook.com", "fb.watch"}},
	{"instagram", []string{"instagram.com"}},
	{"vimeo", []string{"vimeo.com"}},
	{"twitter", []string{"twitter.com", "x.com"}},
}

// ParseWebURL 解析绝对 http/https 链接
func ParseWebURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	if u.Hostname() == "" {
		return nil, false
	}
	return u, true
}

// IsWebURL 是否为绝对 http/https 链接
func IsWebURL(raw string) bool {
	_, ok := ParseWebURL(raw)
	return ok
}

// DetectPlatform 按域名识别视频平台，子域名同样匹配（m.youtube.com）
func DetectPlatform(raw string) string {
	u, ok := ParseWebURL(raw)
	if !ok {
		return "other"
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range platformHosts {
		for _, h := range p.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return p.platform
			}
		}
	}
	return "other"
}
