package cause

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"seva/internal/gateway"
	dErrors "seva/pkg/domain-errors"
)

type CatalogSuite struct {
	suite.Suite
	logger *slog.Logger
	calls  atomic.Int32
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.calls.Store(0)
}

func (s *CatalogSuite) newCatalog(body string) (*Catalog, *httptest.Server) {
	r := chi.NewRouter()
	r.Get("/public/causes", func(w http.ResponseWriter, req *http.Request) {
		s.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(r)
	return NewCatalog(gateway.New(srv.URL, gateway.WithLogger(s.logger)), WithLogger(s.logger)), srv
}

const liveCause = `{"value":[{"id":42,"title":"Clean Water","target_amount":5000000,"current_amount":1250000,"currency":"INR","status":"LIVE"}],"Count":1}`

func (s *CatalogSuite) TestGetCause() {
	catalog, srv := s.newCatalog(liveCause)
	defer srv.Close()

	got, err := catalog.GetCause(context.Background(), 42)
	s.Require().NoError(err)
	s.Equal("Clean Water", got.Title)
	s.True(got.AcceptsDonations())
	s.Equal("INR", got.Target().Currency().Code)
	s.Equal(int64(1250000), got.Raised().Amount())
}

func (s *CatalogSuite) TestCacheAndInvalidate() {
	catalog, srv := s.newCatalog(liveCause)
	defer srv.Close()
	ctx := context.Background()

	_, err := catalog.GetCause(ctx, 42)
	s.Require().NoError(err)
	_, err = catalog.GetCause(ctx, 42)
	s.Require().NoError(err)
	s.Equal(int32(1), s.calls.Load(), "second read must come from cache")

	catalog.Invalidate(42)
	_, err = catalog.GetCause(ctx, 42)
	s.Require().NoError(err)
	s.Equal(int32(2), s.calls.Load(), "invalidated cause must be refetched")
}

func (s *CatalogSuite) TestNotFound() {
	catalog, srv := s.newCatalog(`{"value":[],"Count":0}`)
	defer srv.Close()

	_, err := catalog.GetCause(context.Background(), 99)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CatalogSuite) TestListPassesFiltersAndCount() {
	r := chi.NewRouter()
	r.Get("/public/causes", func(w http.ResponseWriter, req *http.Request) {
		s.Equal("hope-trust", req.URL.Query().Get("ngo"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":[{"id":1,"title":"A","currency":"INR","status":"LIVE"},{"id":2,"title":"B","currency":"INR","status":"CLOSED"}],"Count":7}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()
	catalog := NewCatalog(gateway.New(srv.URL, gateway.WithLogger(s.logger)), WithLogger(s.logger))

	causes, count, err := catalog.List(context.Background(), map[string][]string{"ngo": {"hope-trust"}})
	s.Require().NoError(err)
	s.Len(causes, 2)
	s.Equal(7, count)
	s.False(causes[1].AcceptsDonations())
}
