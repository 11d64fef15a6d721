package gcsjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/storeops/logship/pkg/backend"
)

// Backend implements backend.StorageBackend over the JSON object API
// using bearer-assertion authorization.
type Backend struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger

	tokenEndpoint string
	apiBase       string

	// token lives for one top-level operation; the backend itself is
	// request-scoped so nothing outlives the request.
	token string
}

var _ backend.StorageBackend = (*Backend)(nil)

// New creates a bearer-assertion backend. Key material is validated
// structurally here; the token exchange happens in Authenticate.
func New(cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokenEndpoint := cfg.TokenEndpoint
	if tokenEndpoint == "" {
		tokenEndpoint = DefaultTokenEndpoint
	}
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}

	return &Backend{
		cfg:           cfg,
		client:        client,
		logger:        logger,
		tokenEndpoint: tokenEndpoint,
		apiBase:       apiBase,
	}, nil
}

// Authenticate builds a signed assertion and exchanges it for a bearer
// token. Always fetches fresh; tokens are never reused across operations.
func (b *Backend) Authenticate(ctx context.Context) error {
	assertion, err := buildAssertion(b.cfg.ClientEmail, b.cfg.PrivateKey, b.tokenEndpoint, time.Now())
	if err != nil {
		return err
	}

	token, err := exchangeAssertion(ctx, b.client, b.tokenEndpoint, assertion)
	if err != nil {
		return err
	}
	b.token = token
	b.logger.Debug("obtained bearer token", zap.String("bucket", b.cfg.Bucket))
	return nil
}

// listResponse is the JSON API listing shape. Sizes arrive as decimal
// strings.
type listResponse struct {
	Items []struct {
		Name string `json:"name"`
		Size string `json:"size"`
	} `json:"items"`
}

// List returns up to maxKeys objects under prefix.
func (b *Backend) List(ctx context.Context, prefix string, maxKeys int) ([]backend.ObjectRecord, error) {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxResults
	}

	q := url.Values{}
	q.Set("prefix", prefix)
	q.Set("maxResults", strconv.Itoa(maxKeys))
	listURL := fmt.Sprintf("%s/storage/v1/b/%s/o?%s", b.apiBase, url.PathEscape(b.cfg.Bucket), q.Encode())

	body, _, err := b.do(ctx, listURL)
	if err != nil {
		return nil, b.wrapError("List", "", err)
	}

	var lr listResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, b.wrapError("List", "", fmt.Errorf("failed to decode listing: %w", err))
	}

	records := make([]backend.ObjectRecord, 0, len(lr.Items))
	for _, item := range lr.Items {
		size, _ := strconv.ParseInt(item.Size, 10, 64)
		records = append(records, backend.ObjectRecord{Key: item.Name, Size: size})
	}
	return records, nil
}

// Fetch retrieves a single object's bytes via media download.
func (b *Backend) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	fetchURL := fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media",
		b.apiBase, url.PathEscape(b.cfg.Bucket), url.QueryEscape(key))

	body, contentType, err := b.do(ctx, fetchURL)
	if err != nil {
		// A 404 on a single-object read means the object is missing,
		// not the bucket.
		if errors.Is(err, backend.ErrBucketNotFound) {
			err = backend.ErrObjectNotFound
		}
		return nil, "", b.wrapError("Fetch", key, err)
	}
	return body, contentType, nil
}

// Close releases resources. The HTTP client needs no explicit cleanup,
// but the token is dropped so it cannot outlive the request.
func (b *Backend) Close() error {
	b.token = ""
	return nil
}

// do executes an authorized GET and returns the body and content type.
func (b *Backend) do(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+b.token)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := backend.ClassifyStatus(resp.StatusCode); err != nil {
		return nil, "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// wrapError attaches operation context to backend failures.
func (b *Backend) wrapError(op, key string, err error) error {
	return &backend.BackendError{
		Op:      op,
		Backend: backend.KindBearerAssertion,
		Bucket:  b.cfg.Bucket,
		Key:     key,
		Err:     err,
	}
}
