package scoring

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel(DefaultTables())
	require.NoError(t, err)
	return m
}

func mustPage(t *testing.T, headers http.Header, html string) *Page {
	t.Helper()
	page, err := ParsePage("https://site.test/", headers, []byte(html))
	require.NoError(t, err)
	return page
}

func TestDampening(t *testing.T) {
	tests := []struct {
		matches int
		want    float64
	}{
		{0, 0},
		{1, 1.0},
		{2, 1.1},
		{6, 1.5},
		{11, 2.0},
		{50, 2.0},
	}

	for _, tt := range tests {
		if got := Dampening(tt.matches); got < tt.want-1e-9 || got > tt.want+1e-9 {
			t.Errorf("Dampening(%d) = %v, want %v", tt.matches, got, tt.want)
		}
	}
}

func TestParsePage(t *testing.T) {
	page := mustPage(t, nil, `<html><head><title> Hello </title><meta name="generator" content="Ghost 5.0"></head>
<body><p>Visible   text</p>
<script>hidden()</script>
<a href="/about">About</a></body></html>`)

	assert.Equal(t, "Hello", page.Title)
	assert.Equal(t, "Ghost 5.0", page.Generator)
	assert.Equal(t, "Visible text About", page.Text)
	assert.Equal(t, []string{"/about"}, page.Links)
	assert.NotNil(t, page.Headers)
}

func TestDetectPlatforms(t *testing.T) {
	m := mustModel(t)

	tests := []struct {
		name    string
		headers http.Header
		html    string
		want    entity.PlatformType
	}{
		{
			name: "shopify by header and cdn",
			headers: http.Header{
				"X-Shopid": []string{"12345"},
			},
			html: `<html><body><script src="https://cdn.shopify.com/s/files/theme.js"></script></body></html>`,
			want: entity.PlatformShopify,
		},
		{
			name: "wix by static host",
			html: `<html><body><img src="https://static.wixstatic.com/media/a.jpg"></body></html>`,
			want: entity.PlatformWix,
		},
		{
			name: "drupal by generator",
			html: `<html><head><meta name="generator" content="Drupal 10 (https://www.drupal.org)"></head><body></body></html>`,
			want: entity.PlatformDrupal,
		},
		{
			name: "no signature is custom",
			html: `<html><body><p>Hand written site</p></body></html>`,
			want: entity.PlatformCustom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detections := m.DetectPlatforms(mustPage(t, tt.headers, tt.html))
			require.NotEmpty(t, detections)
			assert.Equal(t, tt.want, detections[0].Platform)
			assert.NotEmpty(t, detections[0].Evidence)
			for _, d := range detections {
				assert.GreaterOrEqual(t, d.Confidence, 0.0)
				assert.LessOrEqual(t, d.Confidence, 1.0)
			}
		})
	}
}

func TestDetectPlatforms_OrderedByConfidence(t *testing.T) {
	m := mustModel(t)
	page := mustPage(t, http.Header{"X-Shopid": []string{"1"}},
		`<html><head><meta name="generator" content="Shopify"></head><body>
<link href="/wp-content/x.css"><script src="https://cdn.shopify.com/a.js"></script></body></html>`)

	detections := m.DetectPlatforms(page)
	require.Len(t, detections, 2)
	assert.Equal(t, entity.PlatformShopify, detections[0].Platform)
	assert.Equal(t, entity.PlatformWordPress, detections[1].Platform)
}

func TestScore_Bounds(t *testing.T) {
	m := mustModel(t)

	tests := []struct {
		name string
		html string
	}{
		{"empty", `<html><body></body></html>`},
		{"placeholder", `<html><body>Coming soon. This domain is for sale. Under construction. Coming soon!</body></html>`},
		{"everything", `<html><body>` + strings.Repeat(`Contact us <a href="mailto:a@b.c">mail</a> tel: 555-123-4567
123 Main Street, business hours, our services, about us, add to cart, checkout, privacy policy, testimonials. `, 20) + `</body></html>`},
	}

	for _, tt := range tests {
		for _, platform := range entity.PlatformTypes {
			a := m.Score(mustPage(t, nil, tt.html), platform)
			if a.Score < 0 || a.Score > 1 {
				t.Errorf("%s/%s: Score = %v, want within [0,1]", tt.name, platform, a.Score)
			}
		}
	}
}

func TestScore_Indicators(t *testing.T) {
	m := mustModel(t)

	business := m.Score(mustPage(t, nil, `<html><body>
<h1>Rapid Plumbing</h1><p>Licensed and insured plumber. Our services include repairs. Get a quote today.</p>
<p>Call (555) 123-4567 or <a href="/contact">contact us</a>. Located at 12 Oak Avenue.</p></body></html>`), entity.PlatformUnknown)

	assert.Contains(t, business.Positive, entity.IndicatorContactInfo)
	assert.Contains(t, business.Positive, "services_offered")
	assert.Empty(t, business.Negative)
	assert.Contains(t, business.Industries, "home_services")
	assert.Greater(t, business.Raw, 0.0)

	parked := m.Score(mustPage(t, nil, `<html><body>Coming soon</body></html>`), entity.PlatformUnknown)
	assert.Equal(t, []string{"placeholder_page"}, parked.Negative)
	assert.Less(t, parked.Raw, 0.0)
	assert.Equal(t, 0.0, parked.Score)
	assert.Equal(t, entity.WebsiteUnknown, parked.WebsiteType)
}

func TestScore_PlatformMultiplier(t *testing.T) {
	m := mustModel(t)
	page := mustPage(t, nil, `<html><body>Contact us for our services.</body></html>`)

	shopify := m.Score(page, entity.PlatformShopify)
	unknown := m.Score(page, entity.PlatformUnknown)
	assert.Greater(t, shopify.Raw, unknown.Raw)
}

func TestScore_WebsiteTypeByPlatform(t *testing.T) {
	m := mustModel(t)
	a := m.Score(mustPage(t, nil, `<html><body>Welcome</body></html>`), entity.PlatformShopify)
	assert.Equal(t, entity.WebsiteEcommerce, a.WebsiteType)
}

func TestNewModel_InvalidPattern(t *testing.T) {
	tables := DefaultTables()
	tables.Indicators = append(tables.Indicators, Indicator{Name: "broken", Weight: 1, Positive: []string{"("}})

	_, err := NewModel(tables)
	assert.Error(t, err)

	tables = DefaultTables()
	tables.Ceiling = 0
	_, err = NewModel(tables)
	assert.Error(t, err)
}

func TestLoadTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ceiling: 2.5
indicators:
  - name: contact_info_found
    weight: 2
    positive: ["call us"]
platform_multipliers:
  ghost: 1.4
`), 0644))

	tables, err := LoadTables(path)
	require.NoError(t, err)

	assert.Equal(t, 2.5, tables.Ceiling)
	require.Len(t, tables.Indicators, 1)
	assert.Equal(t, []string{"call us"}, tables.Indicators[0].Positive)
	assert.Equal(t, 1.4, tables.Multiplier(entity.PlatformGhost))
	assert.Equal(t, 1.3, tables.Multiplier(entity.PlatformShopify))
	assert.Equal(t, 1.0, tables.Multiplier(entity.PlatformJoomla))
	assert.NotEmpty(t, tables.Platforms)

	_, err = LoadTables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
