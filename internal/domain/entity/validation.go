package entity

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// maxURLLength caps stored source and event URLs.
const maxURLLength = 2048

// lookupIP is replaced in tests.
var lookupIP = net.LookupIP

// ValidateURL checks that rawURL is an absolute http(s) URL with a host that
// does not resolve into a private network. Hosts that fail to resolve are accepted
// since a source may be configured before its DNS exists.
func ValidateURL(rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}
	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: fmt.Sprintf("malformed URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	ips, err := lookupIP(u.Hostname())
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if IsPrivateIP(ip) {
			return &ValidationError{Field: "url", Message: "url cannot point to private network"}
		}
	}
	return nil
}

var privateNetworks = func() []*net.IPNet {
	cidrs := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "169.254.0.0/16", "fc00::/7"}
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, _ := net.ParseCIDR(c)
		nets = append(nets, n)
	}
	return nets
}()

// IsPrivateIP reports whether ip is loopback, link-local (cloud metadata included)
// or inside an RFC 1918 / unique-local range.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return true
	}
	for _, n := range privateNetworks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
