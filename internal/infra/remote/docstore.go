package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// CollectionUsers is the document collection holding player state.
const CollectionUsers = "users"

// DocStoreClient is the HTTP client for the remote document store. The
// wire contract mirrors glow-syncd: GET/PATCH /v1/docs/{collection}/{id}
// with JSON bodies.
type DocStoreClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewDocStoreClient creates a client for the store at baseURL. token, if
// non-empty, is sent as a bearer credential.
func NewDocStoreClient(baseURL, token string, client *http.Client) *DocStoreClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &DocStoreClient{baseURL: baseURL, token: token, client: client}
}

func (c *DocStoreClient) docURL(collection, id string) string {
	return fmt.Sprintf("%s/v1/docs/%s/%s",
		c.baseURL, url.PathEscape(collection), url.PathEscape(id))
}

// GetDocument fetches one document. Returns (nil, nil) when the document
// does not exist.
func (c *DocStoreClient) GetDocument(ctx context.Context, collection, id string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.docURL(collection, id), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteSync, err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s/%s: %v", ErrRemoteSync, collection, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: get %s/%s: status %d", ErrRemoteSync, collection, id, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s/%s: %v", ErrRemoteSync, collection, id, err)
	}
	return json.RawMessage(body), nil
}

// SetDocument writes the partial state into the document. With merge the
// write shallow-merges into the stored body; without it the document is
// replaced.
func (c *DocStoreClient) SetDocument(ctx context.Context, collection, id string, partial any, merge bool) error {
	body, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("%w: set %s/%s: %v", ErrRemoteSync, collection, id, err)
	}

	method := http.MethodPut
	if merge {
		method = http.MethodPatch
	}
	req, err := http.NewRequestWithContext(ctx, method, c.docURL(collection, id), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteSync, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: set %s/%s: %v", ErrRemoteSync, collection, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: set %s/%s: status %d", ErrRemoteSync, collection, id, resp.StatusCode)
	}
	return nil
}

func (c *DocStoreClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
