package storage

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
)

// EvidenceClient is the boundary to the content-addressable evidence store.
// Uploads and pinning happen outside the core; only the content identifier is
// persisted on a project, so the client's job is to check a reported CID.
type EvidenceClient interface {
	CheckPin(ctx context.Context, cid string) error
}

var cidPattern = regexp.MustCompile(`^(Qm[1-9A-HJ-NP-Za-km-z]{44}|baf[a-z2-7]{10,})$`)

// PinServiceClient checks CIDs against a Pinata-style pinning service.
type PinServiceClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewPinServiceClient creates an evidence client. baseURL may be empty, in
// which case only the CID format is checked.
func NewPinServiceClient(baseURL, apiKey string, timeout time.Duration) *PinServiceClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PinServiceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CheckPin validates the CID format and, when a pinning service is configured,
// that the content is pinned there.
func (c *PinServiceClient) CheckPin(ctx context.Context, cid string) error {
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return apperrors.Validationf("evidence cid is required")
	}
	if !cidPattern.MatchString(cid) {
		return apperrors.Externalf("malformed evidence cid %q", cid)
	}

	if c.baseURL == "" {
		return nil
	}

	url := fmt.Sprintf("%s/pins/%s", c.baseURL, cid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.KindExternal, "building pin lookup request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.KindExternal, "pinning service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.Externalf("evidence cid %s is not pinned", cid)
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.Externalf("pinning service returned status %d", resp.StatusCode)
	}
	return nil
}
