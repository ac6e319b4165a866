package scoring

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is the parsed view of a fetched homepage used for matching
type Page struct {
	URL       string
	Headers   http.Header
	HTML      string
	Title     string
	Generator string
	Text      string
	Links     []string
}

// ParsePage extracts title, generator, visible text and links from an HTML body
func ParsePage(url string, headers http.Header, body []byte) (*Page, error) {
	page := &Page{
		URL:     url,
		Headers: headers,
		HTML:    string(body),
	}
	if page.Headers == nil {
		page.Headers = http.Header{}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	page.Generator = strings.TrimSpace(doc.Find(`meta[name="generator"]`).First().AttrOr("content", ""))

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			page.Links = append(page.Links, href)
		}
	})

	doc.Find("script, style, noscript, template").Remove()
	page.Text = strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if page.Text == "" {
		page.Text = strings.Join(strings.Fields(doc.Text()), " ")
	}

	return page, nil
}

// corpus is the text indicator patterns are matched against
func (p *Page) corpus() string {
	var b strings.Builder
	b.WriteString(p.URL)
	b.WriteByte(' ')
	b.WriteString(p.Title)
	b.WriteByte(' ')
	b.WriteString(p.Text)
	for _, link := range p.Links {
		b.WriteByte(' ')
		b.WriteString(link)
	}
	return b.String()
}
