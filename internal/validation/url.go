package validation

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// EndpointURLValidator checks the catalog, OAuth and news endpoints a user
// configures before any request is sent to them.
type EndpointURLValidator struct {
	// AllowLocalhost permits loopback hosts.
	AllowLocalhost bool
	// AllowPrivateIPs permits RFC 1918, link-local and ULA addresses.
	AllowPrivateIPs bool
	MaxLength       int
}

// NewEndpointURLValidator rejects loopback and private hosts
func NewEndpointURLValidator() *EndpointURLValidator {
	return &EndpointURLValidator{MaxLength: 2048}
}

// NewPermissiveEndpointURLValidator allows local hosts, used for development
// servers and the OAuth redirect listener
func NewPermissiveEndpointURLValidator() *EndpointURLValidator {
	return &EndpointURLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize validates an endpoint URL and returns it normalized,
// without a trailing slash.
func (v *EndpointURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	switch {
	case input == "":
		return "", fmt.Errorf("URL cannot be empty")
	case len(input) > v.MaxLength:
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	case strings.ContainsAny(input, "<>\"'` "):
		return "", fmt.Errorf("URL contains invalid characters")
	}

	// bare hosts default to https
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if err := v.checkHost(u.Hostname()); err != nil {
		return "", err
	}
	if strings.Contains(u.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}
	if u.User != nil {
		return "", fmt.Errorf("credentials in URL are not permitted")
	}

	u.Fragment, u.RawFragment = "", ""
	return strings.TrimRight(u.String(), "/"), nil
}

func (v *EndpointURLValidator) checkHost(hostname string) error {
	hostname = strings.ToLower(hostname)
	if !v.AllowLocalhost && isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}
	if addr, err := netip.ParseAddr(hostname); err == nil {
		if addr.IsUnspecified() {
			return fmt.Errorf("unspecified address is not a valid endpoint")
		}
		if !v.AllowPrivateIPs && (addr.IsPrivate() || addr.IsLinkLocalUnicast()) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}
	return nil
}

func isLocalhost(hostname string) bool {
	if hostname == "localhost" || strings.HasSuffix(hostname, ".localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}

// RedirectURL builds the loopback OAuth redirect address for port.
func RedirectURL(port int) (string, error) {
	if port <= 0 || port > 65535 {
		return "", fmt.Errorf("redirect port %d out of range", port)
	}
	return fmt.Sprintf("http://127.0.0.1:%d/callback", port), nil
}
