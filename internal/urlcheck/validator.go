package urlcheck

import (
	"net/url"
	"strings"
	"unicode"
)

const (
	MaxURLLength  = 2048
	MaxHostLength = 255
)

// Validate 检查链接是否是合法的 http/https 绝对地址，返回解析结果和不合法的原因
func Validate(raw string) (*url.URL, []string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, []string{"URL cannot be empty"}
	}
	if len(raw) > MaxURLLength {
		return nil, []string{"URL is too long (max 2048 characters)"}
	}
	for _, r := range raw {
		if unicode.IsControl(r) {
			return nil, []string{"URL contains invalid control characters"}
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, []string{"invalid URL format"}
	}

	var reasons []string
	switch {
	case u.Scheme == "":
		reasons = append(reasons, "URL must have a scheme (http:// or https://)")
	case u.Scheme != "http" && u.Scheme != "https":
		reasons = append(reasons, "URL scheme must be http or https")
	}
	if u.Hostname() == "" {
		reasons = append(reasons, "URL must have a host")
	} else if len(u.Host) > MaxHostLength {
		reasons = append(reasons, "hostname is too long (max 255 characters)")
	}
	if len(reasons) > 0 {
		return nil, reasons
	}
	return u, nil
}

// NormalizeHost 统一主机名格式：小写、去端口、去末尾的点和 www. 前缀
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if u, err := url.Parse("//" + host); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}

// HostMatcher 判断链接是否指向服务自身的域名
type HostMatcher struct {
	hosts map[string]struct{}
}

func NewHostMatcher(hosts ...string) *HostMatcher {
	m := &HostMatcher{hosts: make(map[string]struct{}, len(hosts))}
	for _, h := range hosts {
		if h = NormalizeHost(h); h != "" {
			m.hosts[h] = struct{}{}
		}
	}
	return m
}

func (m *HostMatcher) Matches(u *url.URL) bool {
	if m == nil || u == nil {
		return false
	}
	_, ok := m.hosts[NormalizeHost(u.Hostname())]
	return ok
}
