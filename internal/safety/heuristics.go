package safety

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// 嵌入在链接中的其他协议，例如 https://a.com/?next=javascript:...
var embeddedScheme = regexp.MustCompile(`(^|[^a-z0-9])(javascript|data|vbscript|file):`)

var suspiciousPatterns = []string{
	"<script", "alert(", "prompt(", "confirm(",
	"onload=", "onerror=", "../", `\\`,
	"eval(", "exec(", "%00", "0x00",
}

// 常被仿冒的品牌域名
var defaultBrands = []string{
	"google.com",
	"facebook.com",
	"apple.com",
	"microsoft.com",
	"paypal.com",
}

var defaultHostRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.(pw|top|xyz)$`),
	regexp.MustCompile(`(?i)(admin|login|signin|banking|secure)\d+`),
}

// Heuristics 本地规则检查，不依赖外部服务
type Heuristics struct {
	blockPrivate bool
	brands       []string
	hostRules    []*regexp.Regexp
}

func NewHeuristics(blockPrivate bool) *Heuristics {
	return &Heuristics{
		blockPrivate: blockPrivate,
		brands:       defaultBrands,
		hostRules:    defaultHostRules,
	}
}

// Check 返回命中的规则说明，为空表示通过
func (h *Heuristics) Check(u *url.URL) []string {
	var reasons []string
	host := strings.ToLower(u.Hostname())

	if h.blockPrivate && isPrivateHost(host) {
		reasons = append(reasons, "IP-based URLs with private/local addresses are not allowed")
	}

	if p := suspiciousPattern(u); p != "" {
		reasons = append(reasons, "URL contains potentially malicious pattern: "+p)
	}

	if brand := h.lookAlike(host); brand != "" {
		reasons = append(reasons, "URL imitates a well-known domain: "+brand)
	}

	for _, rule := range h.hostRules {
		if rule.MatchString(host) {
			reasons = append(reasons, "URL matches known malicious pattern")
			break
		}
	}
	return reasons
}

// suspiciousPattern 同时检查原始和解码后的链接
func suspiciousPattern(u *url.URL) string {
	lower := strings.ToLower(u.String())
	candidates := []string{lower}
	if decoded, err := url.QueryUnescape(lower); err == nil && decoded != lower {
		candidates = append(candidates, decoded)
	}
	for _, s := range candidates {
		if m := embeddedScheme.FindStringSubmatch(s); m != nil {
			return m[2] + ":"
		}
		for _, p := range suspiciousPatterns {
			if strings.Contains(s, p) {
				return strings.TrimSpace(p)
			}
		}
	}
	return ""
}

func isPrivateHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// lookAlike 检测仿冒品牌的域名，例如 paypal.com.evil.net、secure-paypal.net。
// 品牌名在其他公共后缀下（google.de）视为合法。
func (h *Heuristics) lookAlike(host string) string {
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	suffix, _ := publicsuffix.PublicSuffix(host)
	label := strings.TrimSuffix(registrable, "."+suffix)
	subdomains := strings.Split(strings.TrimSuffix(strings.TrimSuffix(host, registrable), "."), ".")

	for _, brand := range h.brands {
		if registrable == brand {
			return ""
		}
	}
	for _, brand := range h.brands {
		name := strings.TrimSuffix(brand, ".com")
		for _, sub := range subdomains {
			if sub == name {
				return brand
			}
		}
		if label != name && containsToken(label, name) {
			return brand
		}
	}
	return ""
}

// containsToken 按连字符切分后是否包含 name
func containsToken(label, name string) bool {
	for _, token := range strings.Split(label, "-") {
		if token == name {
			return true
		}
	}
	return false
}
