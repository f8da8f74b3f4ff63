package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

// Directory resolves display names from an external user directory
// over HTTP. A user without a directory record resolves to a fallback
// identity rather than an error: missing profile data is normal for
// freshly provisioned users.
type Directory struct {
	baseURL string
	client  *http.Client
}

// NewDirectory creates a resolver for the directory at baseURL. The
// client should carry the service's instrumented transport.
func NewDirectory(baseURL string, client *http.Client) *Directory {
	if client == nil {
		client = http.DefaultClient
	}
	return &Directory{baseURL: baseURL, client: client}
}

type userRecord struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

func (d *Directory) Lookup(ctx context.Context, userID string) (Identity, error) {
	u := fmt.Sprintf("%s/users/%s", d.baseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("directory request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory lookup for %s: %w", userID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		log.Debug().Str("user", userID).Msg("no directory record, using fallback identity")
		return User{UserID: userID, Name: userID}, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("directory lookup for %s: unexpected status %d", userID, resp.StatusCode)
	}

	var record userRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("directory response for %s: %w", userID, err)
	}

	name := record.DisplayName
	if name == "" {
		name = userID
	}

	return User{UserID: userID, Name: name}, nil
}
