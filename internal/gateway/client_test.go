package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	dErrors "seva/pkg/domain-errors"
)

type staticTokens string

func (t staticTokens) AccessToken() string { return string(t) }

type ClientSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *ClientSuite) TestBearerInjection() {
	var gotAuth string
	r := chi.NewRouter()
	r.Get("/auth/me", func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	s.Run("attaches token when source yields one", func() {
		client := New(srv.URL, WithLogger(s.logger), WithTokenSource(staticTokens("tok-123")))
		var out map[string]any
		s.Require().NoError(client.Get(context.Background(), "/auth/me", nil, &out))
		s.Equal("Bearer tok-123", gotAuth)
	})

	s.Run("omits header when token empty", func() {
		client := New(srv.URL, WithLogger(s.logger), WithTokenSource(staticTokens("")))
		var out map[string]any
		s.Require().NoError(client.Get(context.Background(), "/auth/me", nil, &out))
		s.Empty(gotAuth)
	})
}

func (s *ClientSuite) TestUnauthorizedHook() {
	r := chi.NewRouter()
	r.Get("/auth/me", func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, `{"detail":"token expired"}`, http.StatusUnauthorized)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	var hookCalls int
	client := New(srv.URL, WithLogger(s.logger),
		WithUnauthorizedHandler(func(context.Context) { hookCalls++ }))

	err := client.Get(context.Background(), "/auth/me", nil, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Equal(1, hookCalls)
}

func (s *ClientSuite) TestErrorEnvelopeDecoding() {
	r := chi.NewRouter()
	r.Post("/donations/init", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"cause is not accepting donations"}`))
	})
	r.Get("/public/causes", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`not json`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()
	client := New(srv.URL, WithLogger(s.logger))

	s.Run("surfaces server detail verbatim", func() {
		err := client.PostJSON(context.Background(), "/donations/init", map[string]any{"amount": 1}, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Equal("cause is not accepting donations", err.Error())
	})

	s.Run("falls back to generic message on undecodable body", func() {
		err := client.Get(context.Background(), "/public/causes", nil, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Equal("request failed with status 500", err.Error())
	})
}

func (s *ClientSuite) TestTransportFailure() {
	client := New("http://127.0.0.1:1", WithLogger(s.logger))
	err := client.Get(context.Background(), "/public/tenants/by-host", url.Values{"host": {"x"}}, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ClientSuite) TestFormPost() {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		s.Require().NoError(req.ParseForm())
		s.Equal("donor@example.com", req.PostFormValue("username"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"a","refresh_token":"r","token_type":"bearer"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()
	client := New(srv.URL, WithLogger(s.logger))

	var out struct {
		AccessToken string `json:"access_token"`
	}
	form := url.Values{"username": {"donor@example.com"}, "password": {"secret"}}
	s.Require().NoError(client.PostForm(context.Background(), "/auth/login", form, &out))
	s.Equal("a", out.AccessToken)
}
