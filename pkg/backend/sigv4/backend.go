package sigv4

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storeops/logship/pkg/backend"
)

// service is the service name used in the credential scope.
const service = "s3"

// DefaultMaxKeys is the default page size for List operations.
const DefaultMaxKeys = 1000

// Config configures a manually-signed backend.
type Config struct {
	// Bucket is the bucket name (required).
	Bucket string

	// AccessKeyID and SecretAccessKey are the long-lived signing keys.
	AccessKeyID     string
	SecretAccessKey string

	// Region is used in the credential scope and the default endpoint.
	// Empty defaults to us-east-1.
	Region string

	// Endpoint is a custom endpoint URL for S3-compatible stores. Empty
	// derives the regional default. Requests are path-style either way.
	Endpoint string

	// HTTPClient overrides the transport. Nil uses http.DefaultClient.
	HTTPClient *http.Client

	// Logger receives debug detail. Nil uses zap.NewNop().
	Logger *zap.Logger

	// now is overridable for deterministic signing in tests.
	now func() time.Time
}

// DefaultRegion is the fallback region when none is supplied.
const DefaultRegion = "us-east-1"

// Backend implements backend.StorageBackend with per-request signatures.
type Backend struct {
	cfg      Config
	client   *http.Client
	logger   *zap.Logger
	endpoint string
	region   string
	now      func() time.Time
}

var _ backend.StorageBackend = (*Backend)(nil)

// New creates a manually-signed backend.
func New(cfg Config) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, &backend.CredentialError{Reason: backend.ReasonMalformed, Message: "bucket name is required"}
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, &backend.CredentialError{Reason: backend.ReasonMalformed, Message: "access key ID and secret access key are required"}
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", region)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.now
	if now == nil {
		now = time.Now
	}

	return &Backend{
		cfg:      cfg,
		client:   client,
		logger:   logger,
		endpoint: endpoint,
		region:   region,
		now:      now,
	}, nil
}

// Authenticate validates key material. There is no exchange step on this
// path; each call carries its own signature.
func (b *Backend) Authenticate(ctx context.Context) error {
	return nil
}

// listBucketResult is the XML listing shape.
type listBucketResult struct {
	XMLName  xml.Name `xml:"ListBucketResult"`
	Contents []struct {
		Key  string `xml:"Key"`
		Size int64  `xml:"Size"`
	} `xml:"Contents"`
}

// List returns up to maxKeys objects under prefix.
func (b *Backend) List(ctx context.Context, prefix string, maxKeys int) ([]backend.ObjectRecord, error) {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}

	q := url.Values{}
	q.Set("list-type", "2")
	q.Set("prefix", prefix)
	q.Set("max-keys", strconv.Itoa(maxKeys))

	body, _, err := b.do(ctx, "/"+b.cfg.Bucket, q)
	if err != nil {
		return nil, b.wrapError("List", "", err)
	}

	var result listBucketResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, b.wrapError("List", "", fmt.Errorf("failed to decode listing: %w", err))
	}

	records := make([]backend.ObjectRecord, 0, len(result.Contents))
	for _, obj := range result.Contents {
		records = append(records, backend.ObjectRecord{Key: obj.Key, Size: obj.Size})
	}
	return records, nil
}

// Fetch retrieves a single object's bytes.
func (b *Backend) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	body, contentType, err := b.do(ctx, "/"+b.cfg.Bucket+"/"+key, nil)
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

// Close releases resources.
func (b *Backend) Close() error {
	return nil
}

// do executes one signed GET. Each call gets a fresh timestamp.
func (b *Backend) do(ctx context.Context, path string, query url.Values) ([]byte, string, error) {
	reqURL := b.endpoint + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", err
	}
	SignRequest(req, b.cfg.AccessKeyID, b.cfg.SecretAccessKey, b.region, service, b.now())

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
		Backend: backend.KindRequestSigning,
		Bucket:  b.cfg.Bucket,
		Key:     key,
		Err:     err,
	}
}
