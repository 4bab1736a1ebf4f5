package tenant

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"seva/internal/gateway"
	"seva/internal/theme"
)

type ResolverSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *ResolverSuite) newResolver(body string, status int, calls *atomic.Int32) (*Resolver, *httptest.Server) {
	r := chi.NewRouter()
	r.Get("/public/tenants/by-host", func(w http.ResponseWriter, req *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(r)
	return NewResolver(gateway.New(srv.URL, gateway.WithLogger(s.logger)), WithLogger(s.logger)), srv
}

func (s *ResolverSuite) TestMicrositeResolution() {
	body := `{"mode":"MICROSITE","tenant":{"id":"7b1c3a52-5b1e-4b7e-9d3a-0c4c4c1f2a10","name":"Hope Trust","slug":"hope-trust"},"theme":{"primary_color":"#336699","logo_url":"https://cdn.example.org/hope.png"}}`
	resolver, srv := s.newResolver(body, http.StatusOK, nil)
	defer srv.Close()

	res := resolver.Resolve(context.Background(), "giveforhope.org")
	s.Equal(ModeMicrosite, res.Mode)
	s.Require().NotNil(res.Tenant)
	s.Equal("hope-trust", res.Tenant.Slug)
	s.Equal("#336699", res.Theme.Primary.Base)
	s.Equal("https://cdn.example.org/hope.png", res.Theme.LogoURL)

	current, ok := resolver.Current()
	s.True(ok)
	s.Equal(res, current)
}

func (s *ResolverSuite) TestFailOpenFallback() {
	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"server error", `{"detail":"boom"}`, http.StatusInternalServerError},
		{"not found", `{"detail":"unknown host"}`, http.StatusNotFound},
		{"malformed json", `{"mode":`, http.StatusOK},
		{"microsite without tenant", `{"mode":"MICROSITE"}`, http.StatusOK},
		{"unknown mode", `{"mode":"KIOSK"}`, http.StatusOK},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			resolver, srv := s.newResolver(tc.body, tc.status, nil)
			defer srv.Close()

			res := resolver.Resolve(context.Background(), "giveforhope.org")
			s.Equal(ModeMarketplace, res.Mode)
			s.Nil(res.Tenant)
			s.Equal(theme.Default(), res.Theme)
		})
	}

	s.Run("unreachable upstream", func() {
		resolver := NewResolver(gateway.New("http://127.0.0.1:1", gateway.WithLogger(s.logger)), WithLogger(s.logger))
		res := resolver.Resolve(context.Background(), "giveforhope.org")
		s.Equal(ModeMarketplace, res.Mode)
		s.Nil(res.Tenant)
	})
}

func (s *ResolverSuite) TestMarketplaceAnswer() {
	resolver, srv := s.newResolver(`{"mode":"MARKETPLACE"}`, http.StatusOK, nil)
	defer srv.Close()

	res := resolver.Resolve(context.Background(), "marketplace.example.org")
	s.Equal(ModeMarketplace, res.Mode)
	s.Nil(res.Tenant)
}

func (s *ResolverSuite) TestResolutionIsCachedForSession() {
	var calls atomic.Int32
	body := `{"mode":"MICROSITE","tenant":{"id":"7b1c3a52-5b1e-4b7e-9d3a-0c4c4c1f2a10","name":"Hope Trust","slug":"hope-trust"}}`
	resolver, srv := s.newResolver(body, http.StatusOK, &calls)
	defer srv.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := resolver.Resolve(ctx, "giveforhope.org")
			s.Equal(ModeMicrosite, res.Mode)
		}()
	}
	wg.Wait()

	// a second wave after settlement must not revalidate
	resolver.Resolve(ctx, "giveforhope.org")
	s.Equal(int32(1), calls.Load())
}

func (s *ResolverSuite) TestSwitchToMarketplace() {
	body := `{"mode":"MICROSITE","tenant":{"id":"7b1c3a52-5b1e-4b7e-9d3a-0c4c4c1f2a10","name":"Hope Trust","slug":"hope-trust"}}`
	resolver, srv := s.newResolver(body, http.StatusOK, nil)
	defer srv.Close()

	resolver.Resolve(context.Background(), "giveforhope.org")

	res := resolver.SwitchToMarketplace()
	s.Equal(ModeMarketplace, res.Mode)
	s.Nil(res.Tenant)
	s.Equal(theme.Default(), res.Theme)

	// idempotent, and the session stays marketplace afterwards
	s.Equal(res, resolver.SwitchToMarketplace())
	current, ok := resolver.Current()
	s.True(ok)
	s.Equal(ModeMarketplace, current.Mode)
	s.Equal(res, resolver.Resolve(context.Background(), "giveforhope.org"))
}

func (s *ResolverSuite) TestCurrentBeforeSettlement() {
	resolver := NewResolver(gateway.New("http://127.0.0.1:1", gateway.WithLogger(s.logger)), WithLogger(s.logger))
	_, ok := resolver.Current()
	s.False(ok)
}
