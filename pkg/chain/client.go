package chain

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
)

// Client is the boundary to the external settlement ledger. The registry never
// initiates or awaits on-chain actions; callers report a settlement reference
// once a transfer, mint or retire has been confirmed, and the client only
// checks that the reported reference is plausible.
type Client interface {
	ValidateSettlementRef(ctx context.Context, ref string) error
}

var settlementRefPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// NormalizeAddress canonicalizes a wallet identity for comparison and storage.
// Addresses are compared case-insensitively everywhere in the registry.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// LedgerClient validates settlement references, optionally against an explorer
// endpoint. Constructed once in main and injected into the workflows.
type LedgerClient struct {
	explorerURL string
	httpClient  *http.Client
}

// NewLedgerClient creates a settlement-ledger client. explorerURL may be empty,
// in which case only the reference format is checked.
func NewLedgerClient(explorerURL string, timeout time.Duration) *LedgerClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LedgerClient{
		explorerURL: strings.TrimRight(explorerURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// ValidateSettlementRef checks that ref looks like a settlement transaction
// hash and, when an explorer endpoint is configured, that the transaction is
// known to it.
func (c *LedgerClient) ValidateSettlementRef(ctx context.Context, ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return apperrors.Validationf("settlement reference is required")
	}
	if !settlementRefPattern.MatchString(ref) {
		return apperrors.Externalf("malformed settlement reference %q", ref)
	}

	if c.explorerURL == "" {
		return nil
	}

	url := fmt.Sprintf("%s/tx/%s", c.explorerURL, strings.ToLower(ref))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.KindExternal, "building settlement lookup request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.KindExternal, "settlement ledger unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.Externalf("settlement reference %s unknown to ledger", ref)
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.Externalf("settlement ledger returned status %d", resp.StatusCode)
	}
	return nil
}
