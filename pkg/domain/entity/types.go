package entity

import (
	"fmt"
	"strings"
)

// WebsiteType classifies what kind of site a domain hosts
type WebsiteType string

const (
	WebsiteBusiness    WebsiteType = "business"
	WebsitePersonal    WebsiteType = "personal"
	WebsiteBlog        WebsiteType = "blog"
	WebsiteEcommerce   WebsiteType = "ecommerce"
	WebsitePortfolio   WebsiteType = "portfolio"
	WebsiteNewsMedia   WebsiteType = "news_media"
	WebsiteSocialMedia WebsiteType = "social_media"
	WebsiteDirectory   WebsiteType = "directory"
	WebsiteGovernment  WebsiteType = "government"
	WebsiteEducational WebsiteType = "educational"
	WebsiteNonprofit   WebsiteType = "nonprofit"
	WebsitePlatform    WebsiteType = "platform"
	WebsiteUnknown     WebsiteType = "unknown"
)

// WebsiteTypes lists every website type in declaration order
var WebsiteTypes = []WebsiteType{
	WebsiteBusiness, WebsitePersonal, WebsiteBlog, WebsiteEcommerce,
	WebsitePortfolio, WebsiteNewsMedia, WebsiteSocialMedia, WebsiteDirectory,
	WebsiteGovernment, WebsiteEducational, WebsiteNonprofit, WebsitePlatform,
	WebsiteUnknown,
}

// ParseWebsiteType parses a website type name
func ParseWebsiteType(s string) (WebsiteType, error) {
	t := WebsiteType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range WebsiteTypes {
		if t == known {
			return t, nil
		}
	}
	return WebsiteUnknown, fmt.Errorf("unknown website type %q", s)
}

// PlatformType is the website-building platform detected for a domain
type PlatformType string

const (
	PlatformWordPress   PlatformType = "wordpress"
	PlatformShopify     PlatformType = "shopify"
	PlatformWix         PlatformType = "wix"
	PlatformSquarespace PlatformType = "squarespace"
	PlatformWeebly      PlatformType = "weebly"
	PlatformDrupal      PlatformType = "drupal"
	PlatformJoomla      PlatformType = "joomla"
	PlatformMagento     PlatformType = "magento"
	PlatformPrestaShop  PlatformType = "prestashop"
	PlatformBigCommerce PlatformType = "bigcommerce"
	PlatformWebflow     PlatformType = "webflow"
	PlatformGhost       PlatformType = "ghost"
	PlatformCustom      PlatformType = "custom"
	PlatformUnknown     PlatformType = "unknown"
)

// PlatformTypes lists every platform type in declaration order
var PlatformTypes = []PlatformType{
	PlatformWordPress, PlatformShopify, PlatformWix, PlatformSquarespace,
	PlatformWeebly, PlatformDrupal, PlatformJoomla, PlatformMagento,
	PlatformPrestaShop, PlatformBigCommerce, PlatformWebflow, PlatformGhost,
	PlatformCustom, PlatformUnknown,
}

// ParsePlatformType parses a platform name
func ParsePlatformType(s string) (PlatformType, error) {
	p := PlatformType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range PlatformTypes {
		if p == known {
			return p, nil
		}
	}
	return PlatformUnknown, fmt.Errorf("unknown platform type %q", s)
}

// PriorityLevel is the crawl priority bucket derived from the priority score
type PriorityLevel string

const (
	PriorityCritical PriorityLevel = "critical"
	PriorityHigh     PriorityLevel = "high"
	PriorityMedium   PriorityLevel = "medium"
	PriorityLow      PriorityLevel = "low"
	PrioritySkip     PriorityLevel = "skip"
)

// PriorityLevels lists levels from most to least important
var PriorityLevels = []PriorityLevel{
	PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, PrioritySkip,
}

// Rank orders levels: critical > high > medium > low > skip
func (p PriorityLevel) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	case PrioritySkip:
		return 0
	}
	return -1
}

// ParsePriorityLevel parses a priority level name
func ParsePriorityLevel(s string) (PriorityLevel, error) {
	p := PriorityLevel(strings.ToLower(strings.TrimSpace(s)))
	if p.Rank() < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownPriority, s)
	}
	return p, nil
}
