package crypto

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxRemoteKeySize bounds a fetched key body; a PEM public key is well
// under a kilobyte.
const maxRemoteKeySize = 64 * 1024

// FetchPublicKey retrieves a PEM-encoded public key from an HTTPS URL,
// so a data holder can encrypt against a key published by its custodian.
func FetchPublicKey(ctx context.Context, url string) (*PublicKey, error) {
	client := &http.Client{Timeout: 15 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building key request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching public key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching public key: unexpected status %s", resp.Status)
	}

	pemBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteKeySize))
	if err != nil {
		return nil, fmt.Errorf("reading public key body: %w", err)
	}
	return ParsePublicKey(pemBytes)
}
