package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// AuthProvider returns the Authorization header value for a request against
// the Drop server. Credential generation lives outside this package; the
// daemon wires in BearerAuth, tests wire in whatever they need.
type AuthProvider func() (string, error)

// BearerAuth is the default AuthProvider: a static API key.
func BearerAuth(apiKey string) AuthProvider {
	return func() (string, error) {
		return "Bearer " + apiKey, nil
	}
}

// ManifestCache stores raw manifest payloads keyed by game id + version so a
// re-queued or resumed job doesn't refetch. Implemented by cache.FileCache.
type ManifestCache interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
	Exists(key string) bool
}

// Client talks to one Drop server.
type Client struct {
	base  *url.URL
	http  *http.Client
	auth  AuthProvider
	cache ManifestCache
}

// NewClient builds a client for the given (already validated) base URL.
// cache may be nil to disable manifest caching.
func NewClient(base *url.URL, auth AuthProvider, cache ManifestCache) *Client {
	return &Client{
		base:  base,
		http:  &http.Client{},
		auth:  auth,
		cache: cache,
	}
}

type healthcheck struct {
	AppName string `json:"appName"`
}

// ValidateEndpoint checks that rawURL points at a real Drop server by hitting
// its healthcheck route. Returns the parsed base URL on success; callers
// persist that, never the unvalidated input.
func ValidateEndpoint(ctx context.Context, rawURL string) (*url.URL, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote URL %q: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.JoinPath("api", "v1").String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drop server is inaccessible: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(resp)
	}

	var hc healthcheck
	if err := json.NewDecoder(resp.Body).Decode(&hc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if hc.AppName != "Drop" {
		return nil, ErrNotDrop
	}

	return base, nil
}

// FetchManifest retrieves the chunk manifest for one game version, consulting
// the cache first when one is configured.
func (c *Client) FetchManifest(ctx context.Context, gameID, version string) (*Manifest, error) {
	key := gameID + "@" + version

	if c.cache != nil {
		if data, err := c.cache.Get(key); err == nil {
			var m Manifest
			if err := json.Unmarshal(data, &m); err == nil {
				return &m, nil
			}
			// Corrupt cache entry: fall through and refetch
		}
	}

	u := c.base.JoinPath("api", "v1", "client", "game", "manifest")
	q := url.Values{}
	q.Set("id", gameID)
	q.Set("version", version)
	u.RawQuery = q.Encode()

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: bad manifest: %v", ErrInvalidResponse, err)
	}

	if c.cache != nil {
		_ = c.cache.Put(key, data)
	}

	return &m, nil
}

// ChunkRequest identifies one remote chunk.
type ChunkRequest struct {
	GameID  string
	Version string
	Name    string
	Index   int
}

// ChunkResponse is an open streaming body plus the length the server
// declared for it. The caller owns Body and must close it.
type ChunkResponse struct {
	Body   io.ReadCloser
	Length int64
}

// FetchChunk opens a streaming request for one chunk. A declared
// Content-Length is mandatory: the copy loop's termination condition depends
// on a known target size, so an unbounded stream is refused up front.
func (c *Client) FetchChunk(ctx context.Context, req ChunkRequest) (*ChunkResponse, error) {
	u := c.base.JoinPath("api", "v1", "client", "chunk")
	q := url.Values{}
	q.Set("id", req.GameID)
	q.Set("version", req.Version)
	q.Set("name", req.Name)
	q.Set("chunk", strconv.Itoa(req.Index))
	u.RawQuery = q.Encode()

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, newStatusError(resp)
	}

	if resp.ContentLength < 0 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: chunk response has no Content-Length", ErrInvalidResponse)
	}

	return &ChunkResponse{Body: resp.Body, Length: resp.ContentLength}, nil
}

func (c *Client) get(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	header, err := c.auth()
	if err != nil {
		return nil, fmt.Errorf("could not obtain credentials: %w", err)
	}
	req.Header.Set("Authorization", header)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to drop server failed: %w", err)
	}
	return resp, nil
}
