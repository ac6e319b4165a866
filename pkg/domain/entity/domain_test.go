package entity

import (
	"math"
	"testing"
	"time"
)

func TestNewDomainRecord_Defaults(t *testing.T) {
	now := time.Now()
	record := NewDomainRecord("example.com", "https://www.example.com/", "example.com", now)

	if record.WebsiteType != WebsiteUnknown {
		t.Errorf("WebsiteType = %s, want unknown", record.WebsiteType)
	}
	if record.PlatformType != PlatformUnknown {
		t.Errorf("PlatformType = %s, want unknown", record.PlatformType)
	}
	if record.PriorityLevel != PriorityMedium {
		t.Errorf("PriorityLevel = %s, want medium", record.PriorityLevel)
	}
	if !record.IsAccessible {
		t.Error("new records should be accessible until probed")
	}
	if record.BusinessScore != 0 {
		t.Errorf("BusinessScore = %f, want 0", record.BusinessScore)
	}
	if !record.CreatedAt.Equal(now) || !record.LastUpdated.Equal(now) {
		t.Error("timestamps should be set to creation time")
	}
}

func TestDomainRecord_CloneIsDeep(t *testing.T) {
	code := 200
	record := NewDomainRecord("example.com", "example.com", "example.com", time.Now())
	record.BusinessIndicators = append(record.BusinessIndicators, "contact_info_found")
	record.StatusCode = &code

	clone := record.Clone()
	clone.BusinessIndicators[0] = "changed"
	*clone.StatusCode = 500

	if record.BusinessIndicators[0] != "contact_info_found" {
		t.Errorf("clone aliases indicator slice")
	}
	if *record.StatusCode != 200 {
		t.Errorf("clone aliases status code")
	}
}

func TestPatch_Apply(t *testing.T) {
	record := NewDomainRecord("example.com", "example.com", "example.com", time.Now())
	record.ExclusionReasons = append(record.ExclusionReasons, "first")

	score := 1.7
	accessible := false
	platform := PlatformShopify
	Patch{
		BusinessScore:          &score,
		IsAccessible:           &accessible,
		PlatformType:           &platform,
		AppendExclusionReasons: []string{"second"},
	}.Apply(record)

	if record.BusinessScore != 1.0 {
		t.Errorf("BusinessScore = %f, want clamped 1.0", record.BusinessScore)
	}
	if record.IsAccessible {
		t.Error("IsAccessible should be false")
	}
	if record.PlatformType != PlatformShopify {
		t.Errorf("PlatformType = %s, want shopify", record.PlatformType)
	}
	if len(record.ExclusionReasons) != 2 || record.ExclusionReasons[0] != "first" {
		t.Errorf("ExclusionReasons = %v, want [first second]", record.ExclusionReasons)
	}
	if record.WebsiteType != WebsiteUnknown {
		t.Errorf("untouched field changed: WebsiteType = %s", record.WebsiteType)
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"negative", -0.5, 0},
		{"zero", 0, 0},
		{"inside", 0.42, 0.42},
		{"one", 1, 1},
		{"above", 3.2, 1},
		{"nan", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := Clamp01(tt.input); result != tt.expected {
				t.Errorf("Clamp01(%v) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPriorityLevel_Rank(t *testing.T) {
	for i := 1; i < len(PriorityLevels); i++ {
		if PriorityLevels[i-1].Rank() <= PriorityLevels[i].Rank() {
			t.Errorf("%s should rank above %s", PriorityLevels[i-1], PriorityLevels[i])
		}
	}
	if PriorityLevel("bogus").Rank() >= 0 {
		t.Error("unknown levels should have a negative rank")
	}
}

func TestParsePriorityLevel(t *testing.T) {
	if level, err := ParsePriorityLevel(" HIGH "); err != nil || level != PriorityHigh {
		t.Errorf("ParsePriorityLevel(HIGH) = %s, %v", level, err)
	}
	if _, err := ParsePriorityLevel("urgent"); err == nil {
		t.Error("ParsePriorityLevel(urgent) should fail")
	}
}

func TestParsePlatformAndWebsiteType(t *testing.T) {
	if p, err := ParsePlatformType("Shopify"); err != nil || p != PlatformShopify {
		t.Errorf("ParsePlatformType(Shopify) = %s, %v", p, err)
	}
	if p, err := ParsePlatformType("tumblr"); err == nil || p != PlatformUnknown {
		t.Errorf("ParsePlatformType(tumblr) = %s, %v", p, err)
	}
	if w, err := ParseWebsiteType("news_media"); err != nil || w != WebsiteNewsMedia {
		t.Errorf("ParseWebsiteType(news_media) = %s, %v", w, err)
	}
}

func TestPatch_ApplySkipsSeenIndicators(t *testing.T) {
	record := NewDomainRecord("example.com", "example.com", "example.com", time.Now())
	patch := Patch{
		AppendBusinessIndicators: []string{IndicatorContactInfo},
		AppendNegativeIndicators: []string{"placeholder_page"},
		AppendExclusionReasons:   []string{"probe_error: timeout"},
	}
	patch.Apply(record)
	patch.Apply(record)

	if len(record.BusinessIndicators) != 1 {
		t.Errorf("BusinessIndicators = %v, want one entry", record.BusinessIndicators)
	}
	if len(record.NegativeIndicators) != 1 {
		t.Errorf("NegativeIndicators = %v, want one entry", record.NegativeIndicators)
	}
	if len(record.ExclusionReasons) != 2 {
		t.Errorf("ExclusionReasons = %v, want both entries kept", record.ExclusionReasons)
	}
}
