package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/TrellixVulnTeam/bob.devtools-EQ2L/errors"
)

// VisibilityProber decides whether a project is publicly reachable.
type VisibilityProber interface {
	Public(ctx context.Context, projectURL string) (bool, error)
}

// HTTPProber probes project visibility with an unauthenticated GET: anything
// but a 200 means the project is private to the anonymous visitor. Transport
// failures are reported as network errors, not as "private".
type HTTPProber struct {
	// Client defaults to a client with a short timeout.
	Client *http.Client
}

// Public implements VisibilityProber.
func (p *HTTPProber) Public(ctx context.Context, projectURL string) (bool, error) {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, projectURL, nil)
	if err != nil {
		return false, errors.Wrap(err, errors.CodeInvalidConfig,
			"building visibility probe for "+projectURL)
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, errors.Wrap(err, errors.CodeNetwork,
			"probing visibility of "+projectURL)
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
