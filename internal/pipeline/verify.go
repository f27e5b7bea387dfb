package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/domain-cli/internal/config"
	"github.com/sells-group/domain-cli/internal/model"
	"github.com/sells-group/domain-cli/internal/resilience"
)

// DomainVerifier classifies whether a candidate domain answers requests.
type DomainVerifier interface {
	Verify(ctx context.Context, domain string) model.VerificationStatus
}

// Verifier probes https://{domain} then http://{domain}.
type Verifier struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithVerifierHTTPClient sets the HTTP client used for probes. Redirects are
// never followed regardless of the client's own policy.
func WithVerifierHTTPClient(c *http.Client) VerifierOption {
	return func(v *Verifier) {
		clone := *c
		clone.CheckRedirect = noRedirect
		v.client = &clone
	}
}

// NewVerifier creates a Verifier from config.
func NewVerifier(cfg config.VerifyConfig, opts ...VerifierOption) *Verifier {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	v := &Verifier{
		client:    &http.Client{CheckRedirect: noRedirect},
		timeout:   timeout,
		userAgent: cfg.UserAgent,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// probeStatusError reports a probe that got an answer with status >= 400.
type probeStatusError struct {
	StatusCode int
}

func (e *probeStatusError) Error() string {
	return fmt.Sprintf("verify: status %d", e.StatusCode)
}

// Verify returns the reachability classification for domain. An empty
// domain yields StatusNoDomainFound without any network call.
func (v *Verifier) Verify(ctx context.Context, domain string) model.VerificationStatus {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return model.StatusNoDomainFound
	}

	chain := resilience.NewChain(v.timeout,
		resilience.Strategy[int]{
			Name: "https",
			Run:  func(ctx context.Context) (int, error) { return v.probe(ctx, "https://"+domain) },
		},
		resilience.Strategy[int]{
			Name: "http",
			Run:  func(ctx context.Context) (int, error) { return v.probe(ctx, "http://"+domain) },
		},
	)

	_, attempts, err := chain.Run(ctx)
	status := classify(attempts, err)

	zap.L().Debug("verify: domain classified",
		zap.String("domain", domain),
		zap.String("status", string(status)),
		zap.Int("attempts", len(attempts)),
	)
	return status
}

func classify(attempts []resilience.Attempt, err error) model.VerificationStatus {
	if err == nil {
		if len(attempts) == 1 {
			return model.StatusVerified
		}
		return model.StatusHTTPOnly
	}

	var httpsStatus, httpStatus *probeStatusError
	if len(attempts) > 0 {
		errors.As(attempts[0].Err, &httpsStatus)
	}
	if len(attempts) > 1 {
		errors.As(attempts[1].Err, &httpStatus)
	}
	if httpStatus != nil || httpsStatus != nil {
		return model.StatusInaccessible
	}
	return model.StatusUnreachable
}

// probe issues HEAD and, when the server rejects the method, one GET on the
// same URL. Any status below 400 succeeds.
func (v *Verifier) probe(ctx context.Context, url string) (int, error) {
	code, err := v.do(ctx, http.MethodHead, url)
	if err != nil {
		return 0, err
	}
	if code == http.StatusMethodNotAllowed || code == http.StatusNotImplemented {
		if code, err = v.do(ctx, http.MethodGet, url); err != nil {
			return 0, err
		}
	}
	if code >= http.StatusBadRequest {
		return code, &probeStatusError{StatusCode: code}
	}
	return code, nil
}

func (v *Verifier) do(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, eris.Wrap(err, "verify: create request")
	}
	if v.userAgent != "" {
		req.Header.Set("User-Agent", v.userAgent)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, eris.Wrapf(err, "verify: %s %s", method, url)
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode, nil
}
