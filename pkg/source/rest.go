package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/fleetglass/fleetglass/pkg/demo"
	"github.com/fleetglass/fleetglass/pkg/types"
)

// RestSource is the plain request/response fallback behind the
// authenticated API. It only runs when both the agent and the stream
// were skipped or failed.
type RestSource struct {
	baseURL string
	client  *http.Client

	// token reads the bearer token from durable session storage. An
	// empty token or the demo sentinel disables the source.
	token func() string
}

// NewRestSource creates a REST fallback source.
func NewRestSource(baseURL string, token func() string) *RestSource {
	return &RestSource{
		baseURL: baseURL,
		client:  &http.Client{},
		token:   token,
	}
}

// Name implements Source.
func (r *RestSource) Name() string {
	return "rest"
}

// Available implements Source.
func (r *RestSource) Available(ctx context.Context) error {
	return checkToken(r.token)
}

// Fetch implements Source.
func (r *RestSource) Fetch(ctx context.Context, family types.Family, scope types.Scope) ([]types.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, family.RestTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/api/v1/%s", r.baseURL, family.Name)
	if q := scopeQuery(scope).Encode(); q != "" {
		u += "?" + q
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, classifyRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: api returned %d", types.ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyRequestError(ctx, err)
	}

	return decodeItems(family.Name, body)
}

// checkToken gates the authenticated sources: no session, or the demo
// placeholder session, means skip.
func checkToken(token func() string) error {
	if token == nil {
		return fmt.Errorf("%w: no session token reader", types.ErrSourceUnavailable)
	}
	switch t := token(); t {
	case "":
		return fmt.Errorf("%w: no session token", types.ErrSourceUnavailable)
	case demo.TokenSentinel:
		return fmt.Errorf("%w: demo session", types.ErrSourceUnavailable)
	default:
		return nil
	}
}
