package pipeline

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/domain-cli/internal/config"
	"github.com/sells-group/domain-cli/internal/model"
)

func hostOf(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Host
}

func testVerifyConfig() config.VerifyConfig {
	return config.VerifyConfig{TimeoutSecs: 2, UserAgent: "test-agent"}
}

func TestVerifier_Verified(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := NewVerifier(testVerifyConfig(), WithVerifierHTTPClient(srv.Client()))
	assert.Equal(t, model.StatusVerified, v.Verify(context.Background(), hostOf(t, srv.URL)))
}

func TestVerifier_RedirectCountsAsVerified(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://elsewhere.invalid/", http.StatusMovedPermanently)
	}))
	defer srv.Close()

	v := NewVerifier(testVerifyConfig(), WithVerifierHTTPClient(srv.Client()))
	assert.Equal(t, model.StatusVerified, v.Verify(context.Background(), hostOf(t, srv.URL)))
}

func TestVerifier_HTTPOnly(t *testing.T) {
	// A plain server fails the TLS handshake and answers over http.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := NewVerifier(testVerifyConfig())
	assert.Equal(t, model.StatusHTTPOnly, v.Verify(context.Background(), hostOf(t, srv.URL)))
}

func TestVerifier_Inaccessible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	v := NewVerifier(testVerifyConfig())
	assert.Equal(t, model.StatusInaccessible, v.Verify(context.Background(), hostOf(t, srv.URL)))
}

func TestVerifier_HTTPSErrorStatusThenConnectionError(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	// The http probe lands on the TLS listener and never gets a 2xx/3xx.
	v := NewVerifier(testVerifyConfig(), WithVerifierHTTPClient(srv.Client()))
	assert.Equal(t, model.StatusInaccessible, v.Verify(context.Background(), hostOf(t, srv.URL)))
}

func TestVerifier_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	v := NewVerifier(testVerifyConfig())
	assert.Equal(t, model.StatusUnreachable, v.Verify(context.Background(), addr))
}

func TestVerifier_HeadRejectedFallsBackToGet(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := NewVerifier(testVerifyConfig())
	assert.Equal(t, model.StatusHTTPOnly, v.Verify(context.Background(), hostOf(t, srv.URL)))
	assert.Equal(t, []string{http.MethodHead, http.MethodGet}, methods)
}

type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, net.ErrClosed
}

func TestVerifier_EmptyDomainMakesNoCalls(t *testing.T) {
	rt := &countingTransport{}
	v := NewVerifier(testVerifyConfig(), WithVerifierHTTPClient(&http.Client{Transport: rt}))

	assert.Equal(t, model.StatusNoDomainFound, v.Verify(context.Background(), ""))
	assert.Equal(t, model.StatusNoDomainFound, v.Verify(context.Background(), "   "))
	assert.Zero(t, rt.calls.Load())
}
