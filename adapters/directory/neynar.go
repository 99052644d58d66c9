package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/layer-3/snappa/core"
	"github.com/layer-3/snappa/ports"
	"github.com/tidwall/gjson"
)

// DefaultNeynarBaseURL is the Neynar Farcaster API root
const DefaultNeynarBaseURL = "https://api.neynar.com/v2/farcaster"

const maxResponseBytes = 1 << 20

// NeynarDirectory implements the Directory interface using the Neynar API
type NeynarDirectory struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewNeynarDirectory creates a directory backed by the Neynar bulk user endpoint
func NewNeynarDirectory(baseURL, apiKey string, client *http.Client) ports.Directory {
	if baseURL == "" {
		baseURL = DefaultNeynarBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &NeynarDirectory{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

// GetUser fetches the user record for fid
func (d *NeynarDirectory) GetUser(ctx context.Context, fid core.FID) (*core.DirectoryUser, error) {
	endpoint := d.baseURL + "/user/bulk?" + url.Values{"fids": {fid.String()}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", core.ErrDirectory, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDirectory, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", core.ErrDirectory, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("fid %s: %w", fid, core.ErrUserNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", core.ErrDirectory, resp.StatusCode)
	case !gjson.ValidBytes(body):
		return nil, fmt.Errorf("%w: malformed response", core.ErrDirectory)
	}

	return parseBulkUser(body, fid)
}

func parseBulkUser(body []byte, fid core.FID) (*core.DirectoryUser, error) {
	record := gjson.GetBytes(body, "users.0")
	if !record.Exists() {
		return nil, fmt.Errorf("fid %s: %w", fid, core.ErrUserNotFound)
	}

	user := &core.DirectoryUser{
		FID:            fid,
		Username:       record.Get("username").String(),
		CustodyAddress: record.Get("custody_address").String(),
	}
	for _, addr := range record.Get("verified_addresses.eth_addresses").Array() {
		user.VerifiedAddresses = append(user.VerifiedAddresses, addr.String())
	}

	return user, nil
}
