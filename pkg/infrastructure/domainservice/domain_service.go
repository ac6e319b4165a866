package domainservice

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"golang.org/x/net/publicsuffix"
)

// Config holds normalizer options
type Config struct {
	CaseSensitive   bool
	StripWWW        bool
	MaxDomainLength int
}

// Normalizer implements service.DomainNormalizer
type Normalizer struct {
	config     Config
	labelRegex *regexp.Regexp
	letter     *regexp.Regexp
}

// NewNormalizer creates a new domain normalizer
func NewNormalizer(config Config) *Normalizer {
	if config.MaxDomainLength <= 0 {
		config.MaxDomainLength = 253
	}
	return &Normalizer{
		config:     config,
		labelRegex: regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`),
		letter:     regexp.MustCompile(`[a-zA-Z]`),
	}
}

// Normalize strips scheme, path and port, applies case folding and www
// stripping, then validates the label grammar.
func (n *Normalizer) Normalize(input string) (string, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return "", invalid(input, "empty input")
	}

	host, err := extractHost(raw)
	if err != nil {
		return "", invalid(input, err.Error())
	}
	if host == "" {
		return "", invalid(input, "no host")
	}

	if !n.config.CaseSensitive {
		host = strings.ToLower(host)
	}

	if n.config.StripWWW {
		for len(host) > 4 && strings.EqualFold(host[:4], "www.") && strings.Contains(host[4:], ".") {
			host = host[4:]
		}
	}

	if reason := n.validate(host); reason != "" {
		return "", invalid(input, reason)
	}
	return host, nil
}

// validate checks the label grammar and returns a reason on failure
func (n *Normalizer) validate(domain string) string {
	if len(domain) > n.config.MaxDomainLength {
		return "domain too long"
	}
	if !strings.Contains(domain, ".") {
		return "missing TLD"
	}
	if strings.Contains(domain, "..") {
		return "consecutive dots"
	}

	labels := strings.Split(domain, ".")
	for _, label := range labels {
		if label == "" {
			return "empty label"
		}
		if len(label) > 63 {
			return "label too long"
		}
		if !n.labelRegex.MatchString(label) {
			return "invalid label " + label
		}
	}

	if !n.letter.MatchString(labels[len(labels)-1]) {
		return "TLD must contain a letter"
	}
	return ""
}

// RootDomain returns the registrable domain (eTLD+1)
func (n *Normalizer) RootDomain(domain string) string {
	root, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(domain))
	if err != nil {
		return domain
	}
	return root
}

// extractHost accepts either a bare domain or a full URL
func extractHost(raw string) (string, error) {
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "//") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", err
		}
		host := u.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		return host, nil
	}

	host := raw
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host, nil
}

func invalid(input, reason string) error {
	return &entity.InvalidDomainError{Input: input, Reason: reason}
}
