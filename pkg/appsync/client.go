// Package appsync is a small GraphQL-over-HTTP client for the logging
// console's AppSync API. Requests are authenticated with an API key or
// signed with SigV4 for the "appsync" service.
package appsync

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/goliatone/go-pipewizard/pkg/apierr"
)

// AuthMode selects how requests are authenticated.
type AuthMode string

const (
	AuthAPIKey AuthMode = "API_KEY"
	AuthIAM    AuthMode = "AWS_IAM"
)

const signingService = "appsync"

// ErrNoEndpoint is returned by New without an endpoint.
var ErrNoEndpoint = errors.New("appsync: endpoint is required")

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithAPIKey authenticates with the x-api-key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.auth = AuthAPIKey
		c.apiKey = key
	}
}

// WithIAM signs requests with credentials from provider.
func WithIAM(region string, provider aws.CredentialsProvider) Option {
	return func(c *Client) {
		c.auth = AuthIAM
		c.region = region
		c.credentials = provider
	}
}

// WithLogger routes request logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the signing clock.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client posts GraphQL operations to one AppSync endpoint.
type Client struct {
	endpoint    string
	http        *http.Client
	auth        AuthMode
	apiKey      string
	region      string
	credentials aws.CredentialsProvider
	signer      *v4.Signer
	logger      *slog.Logger
	now         func() time.Time
}

// New constructs a Client. Without an auth option requests are sent
// unauthenticated, which is only useful against local mocks.
func New(endpoint string, options ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
		signer:   v4.NewSigner(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	switch c.auth {
	case AuthAPIKey:
		if c.apiKey == "" {
			return nil, errors.New("appsync: api key is required for API_KEY auth")
		}
	case AuthIAM:
		if c.credentials == nil || c.region == "" {
			return nil, errors.New("appsync: region and credentials are required for AWS_IAM auth")
		}
	}
	return c, nil
}

// StaticKeys holds explicit IAM credentials. Empty keys fall back to the AWS
// default credential chain.
type StaticKeys struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// LoadIAM resolves AWS credentials and region for SigV4 signing.
func LoadIAM(ctx context.Context, region string, keys StaticKeys) (Option, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if keys.AccessKeyID != "" && keys.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(keys.AccessKeyID, keys.SecretAccessKey, keys.SessionToken),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("appsync: load aws config: %w", err)
	}
	if cfg.Region == "" {
		return nil, errors.New("appsync: aws region is not configured")
	}
	return WithIAM(cfg.Region, cfg.Credentials), nil
}

type request struct {
	Query     string `json:"query"`
	Variables any    `json:"variables,omitempty"`
}

type gqlError struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType"`
}

type envelope struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []gqlError                 `json:"errors"`
}

// Do executes query and decodes data.<operation> into out. A GraphQL error
// is returned as a wrapped *apierr.Error.
func (c *Client) Do(ctx context.Context, operation, query string, variables, out any) error {
	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("appsync: %s: encode request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("appsync: %s: build request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if err := c.authorize(ctx, req, body); err != nil {
		return fmt.Errorf("appsync: %s: %w", operation, err)
	}

	started := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("appsync: %s: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("appsync: %s: read response: %w", operation, err)
	}
	c.logger.Debug("appsync request", "operation", operation, "status", resp.StatusCode, "duration", time.Since(started))

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("appsync: %s: unexpected status %d: %s", operation, resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("appsync: %s: decode response: %w", operation, err)
	}
	if len(env.Errors) > 0 {
		apiErr := refine(env.Errors[0])
		c.logger.Warn("appsync operation failed", "operation", operation, "code", apiErr.Code, "message", apiErr.Message)
		return fmt.Errorf("appsync: %s: %w", operation, apiErr)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("appsync: %s: unexpected status %d", operation, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	payload, ok := env.Data[operation]
	if !ok {
		return fmt.Errorf("appsync: %s: response has no data", operation)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("appsync: %s: decode data: %w", operation, err)
	}
	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request, body []byte) error {
	switch c.auth {
	case AuthAPIKey:
		req.Header.Set("x-api-key", c.apiKey)
		return nil
	case AuthIAM:
		creds, err := c.credentials.Retrieve(ctx)
		if err != nil {
			return fmt.Errorf("retrieve credentials: %w", err)
		}
		sum := sha256.Sum256(body)
		if err := c.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), signingService, c.region, c.now()); err != nil {
			return fmt.Errorf("sign request: %w", err)
		}
		return nil
	default:
		return nil
	}
}

// refine maps a GraphQL error onto the API error enumeration. AppSync
// resolvers either set errorType to the code or embed it in the message.
func refine(e gqlError) *apierr.Error {
	if code := apierr.ParseCode(e.ErrorType); code != apierr.CodeUnknown {
		return &apierr.Error{Code: code, Message: strings.TrimSpace(e.Message), Raw: e.Message}
	}
	return apierr.Refine(e.Message)
}
