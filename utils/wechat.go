package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mitodev/mito/config"
)

// WeChatBaseURL is the jscode2session endpoint used to exchange a
// mini-program login code for session info.
const WeChatBaseURL = "https://api.weixin.qq.com/sns/jscode2session"

var (
	// ErrWeChatUnavailable indicates a network or HTTP failure reaching the
	// WeChat API; callers translate it to 503.
	ErrWeChatUnavailable = errors.New("failed to connect to wechat api")
	// ErrWeChatBadResponse indicates an undecodable provider response;
	// callers translate it to 500.
	ErrWeChatBadResponse = errors.New("invalid response from wechat api")
)

// WeChatSession is the provider's answer to a code exchange. A zero OpenID
// or non-zero ErrCode means the code was rejected.
type WeChatSession struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
	UnionID    string `json:"unionid"`
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
}

// SessionExchanger exchanges a WeChat login code for session info. The
// interface exists so handlers can be tested against a stub provider.
type SessionExchanger interface {
	Code2Session(ctx context.Context, code string) (*WeChatSession, error)
}

// WeChatClient talks to the real WeChat API with a bounded request timeout.
type WeChatClient struct {
	appID      string
	appSecret  string
	httpClient *http.Client
}

// NewWeChatClient builds a client from application configuration.
func NewWeChatClient(cfg config.AppConfig) *WeChatClient {
	return &WeChatClient{
		appID:     cfg.WeChatAppID,
		appSecret: cfg.WeChatAppSecret,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.WeChatTimeoutSec) * time.Second,
		},
	}
}

// Code2Session performs the jscode2session exchange. No retries: the caller
// must re-invoke with a fresh code on failure.
func (c *WeChatClient) Code2Session(ctx context.Context, code string) (*WeChatSession, error) {
	endpoint := fmt.Sprintf("%s?appid=%s&secret=%s&js_code=%s&grant_type=authorization_code",
		WeChatBaseURL,
		url.QueryEscape(c.appID),
		url.QueryEscape(c.appSecret),
		url.QueryEscape(code),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeChatUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrWeChatUnavailable, resp.StatusCode)
	}

	var session WeChatSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeChatBadResponse, err)
	}
	return &session, nil
}
