package chat

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
	"sync"
	"time"

	"experiencebylocals/models"

	"go.uber.org/zap"
)

// Platform is the hosted chat service.
type Platform interface {
	Init(ctx context.Context) error
	CreateUser(ctx context.Context, user models.ChatUser) error
	Login(ctx context.Context, uid string) (string, error)
	Logout(ctx context.Context, uid, authToken string) error
	ListUsers(ctx context.Context, uids []string, limit int) ([]models.ChatUser, error)
}

// CometChatConfig holds the app credentials. BaseURL overrides the regional
// endpoint derived from AppID and Region.
type CometChatConfig struct {
	AppID   string
	Region  string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// CometChat talks to the CometChat REST API v3.
type CometChat struct {
	cfg        CometChatConfig
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	initOnce sync.Once
	initErr  error
}

// NewCometChat creates a client. Nothing is checked until Init.
func NewCometChat(cfg CometChatConfig, logger *zap.Logger) *CometChat {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" && cfg.AppID != "" && cfg.Region != "" {
		base = fmt.Sprintf("https://%s.api-%s.cometchat.io/v3", cfg.AppID, cfg.Region)
	}
	return &CometChat{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Init checks the configuration once per process. Later calls return the
// first result.
func (c *CometChat) Init(_ context.Context) error {
	c.initOnce.Do(func() {
		var missing []string
		if c.cfg.AppID == "" {
			missing = append(missing, "app id")
		}
		if c.cfg.Region == "" {
			missing = append(missing, "region")
		}
		if c.cfg.APIKey == "" {
			missing = append(missing, "api key")
		}
		if len(missing) > 0 {
			c.initErr = fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
			c.logger.Warn("chat platform disabled", zap.Error(c.initErr))
			return
		}
		c.logger.Info("chat platform initialized", zap.String("appID", c.cfg.AppID), zap.String("region", c.cfg.Region))
	})
	return c.initErr
}

// CreateUser registers uid on the platform. An existing uid counts as success.
func (c *CometChat) CreateUser(ctx context.Context, user models.ChatUser) error {
	err := c.do(ctx, "create user", http.MethodPost, "/users", nil, user, nil)
	if errors.Is(err, ErrUIDExists) {
		return nil
	}
	return err
}

// Login issues an auth token for uid.
func (c *CometChat) Login(ctx context.Context, uid string) (string, error) {
	var resp struct {
		Data struct {
			UID       string `json:"uid"`
			AuthToken string `json:"authToken"`
		} `json:"data"`
	}
	path := "/users/" + url.PathEscape(uid) + "/auth_tokens"
	if err := c.do(ctx, "login", http.MethodPost, path, nil, map[string]any{}, &resp); err != nil {
		return "", err
	}
	if resp.Data.AuthToken == "" {
		return "", &PlatformError{Op: "login", Status: http.StatusOK, Message: "no auth token returned"}
	}
	return resp.Data.AuthToken, nil
}

// Logout revokes an auth token.
func (c *CometChat) Logout(ctx context.Context, uid, authToken string) error {
	path := "/users/" + url.PathEscape(uid) + "/auth_tokens/" + url.PathEscape(authToken)
	return c.do(ctx, "logout", http.MethodDelete, path, nil, nil, nil)
}

// ListUsers fetches up to limit users by uid.
func (c *CometChat) ListUsers(ctx context.Context, uids []string, limit int) ([]models.ChatUser, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	var resp struct {
		Data []models.ChatUser `json:"data"`
	}
	q := url.Values{
		"uids":    {strings.Join(uids, ",")},
		"perPage": {strconv.Itoa(limit)},
	}
	if err := c.do(ctx, "list users", http.MethodGet, "/users", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *CometChat) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	if err := c.Init(ctx); err != nil {
		return err
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("chat: %s: failed to marshal body: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("chat: %s: failed to create request: %w", op, err)
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chat: %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		return &PlatformError{Op: op, Status: resp.StatusCode, Code: e.Error.Code, Message: e.Error.Message}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("chat: %s: failed to decode response: %w", op, err)
	}
	return nil
}
