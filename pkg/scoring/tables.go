// Package scoring holds the declarative indicator tables and the model that
// turns a fetched page into platform detections and a business score.
package scoring

import (
	"fmt"
	"os"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"gopkg.in/yaml.v3"
)

// Signature describes how to recognize one platform
type Signature struct {
	Platform entity.PlatformType `yaml:"platform"`
	// Headers maps a response header name to a regex over its value
	Headers map[string]string `yaml:"headers"`
	// HTML is a list of regexes over the raw document
	HTML []string `yaml:"html"`
	// Generator is a regex over <meta name="generator">
	Generator string `yaml:"generator"`
	// Weight is the confidence added per matched signal
	Weight float64 `yaml:"weight"`
}

// Indicator is one weighted business signal
type Indicator struct {
	Name     string   `yaml:"name"`
	Weight   float64  `yaml:"weight"`
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

// WebsiteRule classifies a page as a website type. Rules are evaluated in
// order and the first one reaching MinMatches wins.
type WebsiteRule struct {
	Type       entity.WebsiteType    `yaml:"type"`
	Patterns   []string              `yaml:"patterns"`
	Platforms  []entity.PlatformType `yaml:"platforms"`
	MinMatches int                   `yaml:"min_matches"`
}

// Industry maps an industry hint to its keywords
type Industry struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Tables is the complete indicator corpus
type Tables struct {
	Platforms           []Signature                     `yaml:"platforms"`
	Indicators          []Indicator                     `yaml:"indicators"`
	WebsiteRules        []WebsiteRule                   `yaml:"website_rules"`
	Industries          []Industry                      `yaml:"industries"`
	PlatformMultipliers map[entity.PlatformType]float64 `yaml:"platform_multipliers"`
	// Ceiling normalizes the raw indicator sum into [0,1]
	Ceiling float64 `yaml:"ceiling"`
	// BusinessThreshold is the score above which an unclassified page is a business
	BusinessThreshold float64 `yaml:"business_threshold"`
	// CustomConfidence is reported for pages that match no known signature
	CustomConfidence float64 `yaml:"custom_confidence"`
}

// DefaultTables returns the built-in indicator corpus
func DefaultTables() *Tables {
	return &Tables{
		Platforms: []Signature{
			{
				Platform:  entity.PlatformWordPress,
				Headers:   map[string]string{"Link": `wp-json`, "X-Powered-By": `WordPress`},
				HTML:      []string{`/wp-content/`, `/wp-includes/`, `wp-emoji-release`},
				Generator: `WordPress`,
				Weight:    0.35,
			},
			{
				Platform:  entity.PlatformShopify,
				Headers:   map[string]string{"X-ShopId": `.+`, "X-Shopify-Stage": `.+`, "Powered-By": `Shopify`},
				HTML:      []string{`cdn\.shopify\.com`, `Shopify\.theme`, `myshopify\.com`},
				Generator: `Shopify`,
				Weight:    0.4,
			},
			{
				Platform:  entity.PlatformWix,
				Headers:   map[string]string{"X-Wix-Request-Id": `.+`},
				HTML:      []string{`static\.wixstatic\.com`, `wix-code`, `_wixCssImports`},
				Generator: `Wix\.com`,
				Weight:    0.4,
			},
			{
				Platform:  entity.PlatformSquarespace,
				Headers:   map[string]string{"Server": `Squarespace`},
				HTML:      []string{`static1\.squarespace\.com`, `Static\.SQUARESPACE_CONTEXT`},
				Generator: `Squarespace`,
				Weight:    0.4,
			},
			{
				Platform:  entity.PlatformWeebly,
				HTML:      []string{`editmysite\.com`, `weebly\.com`},
				Generator: `Weebly`,
				Weight:    0.4,
			},
			{
				Platform:  entity.PlatformDrupal,
				Headers:   map[string]string{"X-Generator": `Drupal`, "X-Drupal-Cache": `.+`},
				HTML:      []string{`/sites/default/files/`, `Drupal\.settings`, `drupal\.js`},
				Generator: `Drupal`,
				Weight:    0.35,
			},
			{
				Platform:  entity.PlatformJoomla,
				HTML:      []string{`/media/jui/`, `/components/com_`, `joomla`},
				Generator: `Joomla`,
				Weight:    0.35,
			},
			{
				Platform: entity.PlatformMagento,
				Headers:  map[string]string{"X-Magento-Cache-Debug": `.+`, "X-Magento-Tags": `.+`},
				HTML:     []string{`Mage\.Cookies`, `/static/version\d+/frontend/`, `mage/cookies`},
				Weight:   0.4,
			},
			{
				Platform:  entity.PlatformPrestaShop,
				Headers:   map[string]string{"Powered-By": `PrestaShop`},
				HTML:      []string{`prestashop`, `/themes/classic/assets/`},
				Generator: `PrestaShop`,
				Weight:    0.4,
			},
			{
				Platform: entity.PlatformBigCommerce,
				Headers:  map[string]string{"X-BC-Storefront": `.+`},
				HTML:     []string{`cdn\d*\.bigcommerce\.com`, `BCData`},
				Weight:   0.4,
			},
			{
				Platform:  entity.PlatformWebflow,
				HTML:      []string{`assets\.website-files\.com`, `data-wf-page`, `data-wf-site`},
				Generator: `Webflow`,
				Weight:    0.4,
			},
			{
				Platform:  entity.PlatformGhost,
				HTML:      []string{`ghost-(?:portal|search)`, `/ghost/api/`},
				Generator: `Ghost`,
				Weight:    0.4,
			},
		},
		Indicators: []Indicator{
			{
				Name:     entity.IndicatorContactInfo,
				Weight:   1.0,
				Positive: []string{`mailto:`, `tel:`, `\bcontact us\b`, `/contact`, `\(?\d{3}\)?[\s.-]\d{3}[\s.-]\d{4}`},
			},
			{
				Name:     "physical_address",
				Weight:   0.8,
				Positive: []string{`\b\d{1,5}\s+\w+(?:\s\w+)?\s(?:street|st\.|avenue|ave\.|road|rd\.|boulevard|blvd\.|suite|drive|dr\.)`, `\bour address\b`, `\blocated at\b`},
			},
			{
				Name:     "business_hours",
				Weight:   0.5,
				Positive: []string{`\bbusiness hours\b`, `\bopening hours\b`, `\bmon(?:day)?\s*[-–]\s*fri(?:day)?\b`, `\bopen \d{1,2}\s*(?:am|pm)\b`},
			},
			{
				Name:     "services_offered",
				Weight:   0.6,
				Positive: []string{`\bour services\b`, `\bwhat we do\b`, `\bfree (?:quote|estimate|consultation)\b`, `\bget a quote\b`, `\bbook (?:now|online|an appointment)\b`},
			},
			{
				Name:     "company_info",
				Weight:   0.5,
				Positive: []string{`\babout us\b`, `\bour team\b`, `\bfamily[- ]owned\b`, `\blicensed and insured\b`, `\bsince (?:19|20)\d{2}\b`},
			},
			{
				Name:     "ecommerce_signals",
				Weight:   0.6,
				Positive: []string{`\badd to cart\b`, `\bcheckout\b`, `\bshop now\b`, `\bfree shipping\b`, `/cart\b`},
			},
			{
				Name:     "legal_pages",
				Weight:   0.3,
				Positive: []string{`\bprivacy policy\b`, `\bterms (?:of service|and conditions)\b`, `\bcopyright\b|©`},
			},
			{
				Name:     "social_proof",
				Weight:   0.3,
				Positive: []string{`\btestimonials?\b`, `\bcustomer reviews?\b`, `\b5[- ]star\b`},
			},
			{
				Name:     "personal_site",
				Weight:   0.8,
				Negative: []string{`\bmy (?:blog|journey|thoughts|personal)\b`, `\babout me\b`, `\bhi,? i'?m\b`},
			},
			{
				Name:     "placeholder_page",
				Weight:   1.5,
				Negative: []string{`\bcoming soon\b`, `\bunder construction\b`, `\bthis domain (?:is|may be) for sale\b`, `\bparked (?:free|domain)\b`, `\bdefault web page\b`},
			},
		},
		WebsiteRules: []WebsiteRule{
			{Type: entity.WebsiteGovernment, Patterns: []string{`\.gov\b`, `\bofficial website of the\b`, `\bcity council\b`, `\bdepartment of\b`}, MinMatches: 2},
			{Type: entity.WebsiteEducational, Patterns: []string{`\.edu\b`, `\buniversity\b`, `\badmissions\b`, `\bstudents?\b`, `\bfaculty\b`}, MinMatches: 2},
			{Type: entity.WebsiteNonprofit, Patterns: []string{`\bnon-?profit\b`, `\bdonate\b`, `\b501\(c\)\(3\)\b`, `\bvolunteer\b`}, MinMatches: 2},
			{Type: entity.WebsiteSocialMedia, Patterns: []string{`\bfollowers\b`, `\bsign up to connect\b`, `\bshare your\b`}, MinMatches: 2},
			{Type: entity.WebsiteEcommerce, Patterns: []string{`\badd to cart\b`, `\bcheckout\b`, `\bshop now\b`, `\bin stock\b`, `/products?/`}, Platforms: []entity.PlatformType{entity.PlatformShopify, entity.PlatformBigCommerce, entity.PlatformMagento, entity.PlatformPrestaShop}, MinMatches: 2},
			{Type: entity.WebsiteDirectory, Patterns: []string{`\bbusiness directory\b`, `\blistings?\b`, `\bfind a\b`, `\bnear you\b`}, MinMatches: 3},
			{Type: entity.WebsiteNewsMedia, Patterns: []string{`\bbreaking news\b`, `\bsubscribe\b`, `\beditorial\b`, `\bheadlines\b`}, MinMatches: 2},
			{Type: entity.WebsitePortfolio, Patterns: []string{`\bportfolio\b`, `\bmy work\b`, `\bselected projects\b`}, MinMatches: 2},
			{Type: entity.WebsiteBlog, Patterns: []string{`\bposted (?:on|by)\b`, `\bread more\b`, `\bcomments?\b`, `\barchives?\b`}, Platforms: []entity.PlatformType{entity.PlatformGhost}, MinMatches: 3},
			{Type: entity.WebsitePersonal, Patterns: []string{`\babout me\b`, `\bmy (?:blog|journey|thoughts)\b`, `\bhi,? i'?m\b`}, MinMatches: 2},
			{Type: entity.WebsitePlatform, Patterns: []string{`\bcreate your (?:free )?(?:website|store)\b`, `\bpricing\b`, `\bstart (?:your )?free trial\b`}, MinMatches: 3},
		},
		Industries: []Industry{
			{Name: "home_services", Keywords: []string{"plumbing", "plumber", "hvac", "roofing", "electrician", "landscaping", "contractor"}},
			{Name: "healthcare", Keywords: []string{"dentist", "dental", "clinic", "medical", "chiropractor", "physician"}},
			{Name: "legal", Keywords: []string{"attorney", "lawyer", "law firm", "legal services"}},
			{Name: "food_beverage", Keywords: []string{"restaurant", "menu", "catering", "bakery", "cafe"}},
			{Name: "retail", Keywords: []string{"boutique", "store", "shop", "apparel"}},
			{Name: "automotive", Keywords: []string{"auto repair", "mechanic", "car dealership", "tires"}},
			{Name: "real_estate", Keywords: []string{"real estate", "realtor", "property management", "homes for sale"}},
			{Name: "finance", Keywords: []string{"accounting", "bookkeeping", "tax preparation", "financial advisor", "insurance"}},
			{Name: "beauty_wellness", Keywords: []string{"salon", "spa", "barber", "massage", "fitness"}},
			{Name: "technology", Keywords: []string{"software", "it services", "web design", "saas", "cloud"}},
		},
		PlatformMultipliers: map[entity.PlatformType]float64{
			entity.PlatformShopify:     1.3,
			entity.PlatformWordPress:   1.1,
			entity.PlatformCustom:      1.2,
			entity.PlatformWix:         1.0,
			entity.PlatformSquarespace: 1.0,
			entity.PlatformUnknown:     0.8,
		},
		Ceiling:           4.0,
		BusinessThreshold: 0.5,
		CustomConfidence:  0.3,
	}
}

// LoadTables reads a YAML table file over the defaults. Lists present in the
// file replace the default lists; multipliers are merged per platform.
func LoadTables(path string) (*Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read indicator tables %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, tables); err != nil {
		return nil, fmt.Errorf("parse indicator tables %s: %w", path, err)
	}
	return tables, nil
}

// Multiplier returns the platform multiplier, 1.0 when unset
func (t *Tables) Multiplier(platform entity.PlatformType) float64 {
	if m, ok := t.PlatformMultipliers[platform]; ok {
		return m
	}
	return 1.0
}
