package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/mddclient/internal/client/models"
	"github.com/dmitrijs2005/mddclient/internal/logging"
)

const (
	RequestIDHeader = "X-Request-ID"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	log     logging.Logger
}

type Option func(*options)

type options struct {
	timeout        time.Duration
	base           http.RoundTripper
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithTransport replaces the underlying round tripper, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithAuth attaches tokens to authenticated requests and reports their
// 401 responses to h.
func WithAuth(tokens TokenSource, h UnauthorizedHandler) Option {
	return func(o *options) {
		o.tokens = tokens
		o.onUnauthorized = h
	}
}

func NewHTTPClient(baseURL string, log logging.Logger, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}
	if log == nil {
		log = logging.Nop()
	}

	o := options{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	return &HTTPClient{
		baseURL: u,
		http: &http.Client{
			Timeout: o.timeout,
			Transport: &authTransport{
				base:           o.base,
				tokens:         o.tokens,
				onUnauthorized: o.onUnauthorized,
			},
		},
		log: log,
	}, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(withoutAuth(ctx), http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, credentialError(err)
	}
	return &resp, nil
}

func (c *HTTPClient) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(withoutAuth(ctx), http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, credentialError(err)
	}
	return &resp, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) UpdateUser(ctx context.Context, userID int64, upd models.UserProfileUpdate) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPut, "/api/users/"+id(userID), nil, upd, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Themes(ctx context.Context) ([]models.Theme, error) {
	var themes []models.Theme
	if err := c.do(ctx, http.MethodGet, "/api/themes", nil, nil, &themes); err != nil {
		return nil, err
	}
	return themes, nil
}

func (c *HTTPClient) UserSubscriptions(ctx context.Context, userID int64) ([]models.RawSubscription, error) {
	var raw models.RawSubscriptionList
	if err := c.do(ctx, http.MethodGet, "/api/subscriptions/user/"+id(userID), nil, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *HTTPClient) Subscribe(ctx context.Context, userID, themeID int64) (models.RawSubscription, error) {
	var raw models.RawSubscription
	if err := c.do(ctx, http.MethodPost, "/api/subscriptions/subscribe", subscriptionQuery(userID, themeID), nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *HTTPClient) Unsubscribe(ctx context.Context, userID, themeID int64) error {
	return c.do(ctx, http.MethodDelete, "/api/subscriptions/unsubscribe", subscriptionQuery(userID, themeID), nil, nil)
}

func (c *HTTPClient) SubscribedArticles(ctx context.Context, userID int64) ([]models.Article, error) {
	var articles []models.Article
	if err := c.do(ctx, http.MethodGet, "/api/articles/subscribed/"+id(userID), nil, nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (c *HTTPClient) CreateArticle(ctx context.Context, a models.NewArticle) (*models.Article, error) {
	var out models.Article
	if err := c.do(ctx, http.MethodPost, "/api/articles", nil, a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Article(ctx context.Context, articleID int64) (*models.Article, error) {
	var out models.Article
	if err := c.do(ctx, http.MethodGet, "/api/articles/"+id(articleID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateComment(ctx context.Context, cm models.NewComment) (*models.Comment, error) {
	var out models.Comment
	if err := c.do(ctx, http.MethodPost, "/api/comments", nil, cm, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func id(n int64) string {
	return strconv.FormatInt(n, 10)
}

func subscriptionQuery(userID, themeID int64) url.Values {
	return url.Values{
		"userId":  []string{id(userID)},
		"themeId": []string{id(themeID)},
	}
}

// do sends one JSON exchange. A nil in sends no body; a nil out discards
// the response body.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.baseURL
	u.Path += path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return transportError(method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug(ctx, "request done",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s %s: %w", method, path, statusError(resp.StatusCode, b))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, ErrUnavailable)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func transportError(method, path string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", method, path, context.Canceled)
	}
	return fmt.Errorf("%s %s: %w: %v", method, path, ErrUnavailable, err)
}

func statusError(code int, body []byte) error {
	switch {
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusBadRequest, code == http.StatusConflict:
		return ErrBadRequest
	case code >= 500:
		return ErrUnavailable
	default:
		return &StatusError{Code: code, Body: strings.TrimSpace(string(body))}
	}
}

// credentialError folds every rejection of a login or register into
// ErrCredentials. Transport failures keep their own error.
func credentialError(err error) error {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrBadRequest):
		return fmt.Errorf("%w: %v", ErrCredentials, err)
	default:
		return err
	}
}
