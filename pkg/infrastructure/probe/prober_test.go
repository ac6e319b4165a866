package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/service"
	infrahttp "github.com/WangYihang/Domain-Prioritizer/pkg/infrastructure/http"
	"github.com/WangYihang/Domain-Prioritizer/pkg/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopHTML = `<html><head><title>Acme Boutique</title>
<meta name="generator" content="WordPress 6.4">
<link rel="stylesheet" href="/wp-content/themes/acme/style.css"></head>
<body><h1>Acme Boutique</h1>
<p>Family-owned apparel store since 1998. Shop now and enjoy free shipping.</p>
<p>Visit us at 123 Main Street, Springfield. Business hours Mon - Fri.</p>
<a href="mailto:hello@acme.test">Email</a> <a href="/contact">Contact us</a>
<a href="/cart">Cart</a> <button>Add to cart</button> <a href="/checkout">Checkout</a>
<script>var ignored = "coming soon";</script>
</body></html>`

type stubResolver struct {
	ips []string
	err error
}

func (s stubResolver) Resolve(ctx context.Context, domain string) ([]string, error) {
	return s.ips, s.err
}

func newTestProber(t *testing.T, handler http.HandlerFunc, opts ...Option) *Prober {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	model, err := scoring.NewModel(scoring.DefaultTables())
	require.NoError(t, err)

	opts = append([]Option{WithTargets(func(string) []string { return []string{server.URL + "/"} })}, opts...)
	return NewProber(infrahttp.NewFetcher(infrahttp.Config{Timeout: time.Second}), model, opts...)
}

func TestProber_ProbePlatform(t *testing.T) {
	p := newTestProber(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(shopHTML))
	})

	result, err := p.ProbePlatform(context.Background(), "acme.test", service.ProbeOptions{Timeout: time.Second})
	require.NoError(t, err)

	require.NotEmpty(t, result.Detections)
	assert.Equal(t, entity.PlatformWordPress, result.Detections[0].Platform)
	assert.InDelta(t, 0.7, result.Detections[0].Confidence, 1e-9)
	require.NotNil(t, result.StatusCode)
	assert.Equal(t, http.StatusOK, *result.StatusCode)
	require.NotNil(t, result.ResponseTimeMs)
}

func TestProber_ScoreBusiness(t *testing.T) {
	p := newTestProber(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(shopHTML))
	})

	result, err := p.ScoreBusiness(context.Background(), "acme.test", entity.PlatformWordPress, service.ProbeOptions{Timeout: time.Second})
	require.NoError(t, err)

	assert.Equal(t, entity.WebsiteEcommerce, result.WebsiteType)
	assert.Contains(t, result.PositiveIndicators, entity.IndicatorContactInfo)
	assert.Contains(t, result.PositiveIndicators, "physical_address")
	assert.NotContains(t, result.NegativeIndicators, "placeholder_page", "script text must not be scored")
	assert.Contains(t, result.IndustryHints, "retail")
	assert.Greater(t, result.BusinessScore, 0.5)
	assert.LessOrEqual(t, result.BusinessScore, 1.0)
}

func TestProber_Retries(t *testing.T) {
	calls := 0
	p := newTestProber(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(shopHTML))
	})

	_, err := p.ProbePlatform(context.Background(), "acme.test", service.ProbeOptions{Timeout: time.Second, Retries: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

type slowFirstFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *slowFirstFetcher) Fetch(ctx context.Context, url string) (*service.HTTPResponse, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if call == 1 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &service.HTTPResponse{URL: url, StatusCode: http.StatusOK, Body: []byte(shopHTML)}, nil
}

func TestProber_RetryAfterTimeout(t *testing.T) {
	model, err := scoring.NewModel(scoring.DefaultTables())
	require.NoError(t, err)

	fetcher := &slowFirstFetcher{}
	p := NewProber(fetcher, model, WithTargets(func(string) []string { return []string{"https://acme.test/"} }))

	result, err := p.ProbePlatform(context.Background(), "acme.test", service.ProbeOptions{Timeout: 50 * time.Millisecond, Retries: 1})
	require.NoError(t, err, "each attempt gets its own timeout")
	assert.Equal(t, 2, fetcher.calls)
	require.NotEmpty(t, result.Detections)
	assert.Equal(t, entity.PlatformWordPress, result.Detections[0].Platform)
}

func TestProber_CanceledBeforeRetry(t *testing.T) {
	model, err := scoring.NewModel(scoring.DefaultTables())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &slowFirstFetcher{}
	p := NewProber(fetcher, model, WithTargets(func(string) []string { return []string{"https://acme.test/"} }))

	_, err = p.ProbePlatform(ctx, "acme.test", service.ProbeOptions{Timeout: time.Second, Retries: 3})
	assert.ErrorIs(t, err, entity.ErrProbeFailed)
	assert.Equal(t, 0, fetcher.calls)
}

func TestProber_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		resolver service.DNSResolver
	}{
		{name: "http error", status: http.StatusNotFound},
		{name: "dns failure", status: http.StatusOK, resolver: stubResolver{err: errors.New("no such host")}},
		{name: "no addresses", status: http.StatusOK, resolver: stubResolver{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.resolver != nil {
				opts = append(opts, WithResolver(tt.resolver))
			}
			p := newTestProber(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(shopHTML))
			}, opts...)

			_, err := p.ProbePlatform(context.Background(), "acme.test", service.ProbeOptions{Timeout: time.Second})
			assert.ErrorIs(t, err, entity.ErrProbeFailed)
		})
	}
}

func TestDefaultTargets(t *testing.T) {
	assert.Equal(t, []string{"https://example.com/", "http://example.com/"}, DefaultTargets("example.com"))
}
