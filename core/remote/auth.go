package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Authenticator performs the device and user token exchange.
type Authenticator struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewAuthenticator creates an Authenticator. A nil client uses NewHTTPClient.
func NewAuthenticator(cfg Config, client *http.Client, logger *zap.Logger) *Authenticator {
	if client == nil {
		client = NewHTTPClient(cfg.Timeout())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{cfg: cfg, client: client, logger: logger}
}

type deviceRequest struct {
	Code       string `json:"code"`
	DeviceDesc string `json:"deviceDesc"`
	DeviceID   string `json:"deviceID"`
}

// RegisterDevice exchanges a one-time code for a device token.
func (a *Authenticator) RegisterDevice(ctx context.Context, code, deviceID string) (string, error) {
	if code == "" {
		return "", errors.New("one-time code is required to register a device")
	}
	a.logger.Info("Registering new device", zap.String("device_id", deviceID))

	t := newTransport(a.client, "", a.logger)
	body, err := jsonBody(deviceRequest{Code: code, DeviceDesc: a.cfg.DeviceDesc, DeviceID: deviceID})
	if err != nil {
		return "", err
	}
	data, err := t.do(ctx, call{
		op:          "register device",
		method:      http.MethodPost,
		url:         strings.TrimRight(a.cfg.AuthHost, "/") + "/token/json/2/device/new",
		body:        body,
		contentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return tokenFrom(data, "device")
}

// UserToken exchanges a device token for a user token.
func (a *Authenticator) UserToken(ctx context.Context, deviceToken string) (string, error) {
	t := newTransport(a.client, deviceToken, a.logger)
	data, err := t.do(ctx, call{
		op:          "user token",
		method:      http.MethodPost,
		url:         strings.TrimRight(a.cfg.AuthHost, "/") + "/token/json/2/user/new",
		body:        []byte("{}"),
		contentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return tokenFrom(data, "user")
}

type discoveryResponse struct {
	Status string `json:"Status"`
	Host   string `json:"Host"`
}

// StorageHost returns the configured storage host, or discovers it.
func (a *Authenticator) StorageHost(ctx context.Context, userToken string) (string, error) {
	if a.cfg.StorageHost != "" {
		return strings.TrimRight(a.cfg.StorageHost, "/"), nil
	}
	if a.cfg.DiscoveryURL == "" {
		return "", errors.New("neither storage host nor discovery url is configured")
	}

	var resp discoveryResponse
	t := newTransport(a.client, userToken, a.logger)
	if err := t.doJSON(ctx, "discover storage", http.MethodGet, a.cfg.DiscoveryURL, nil, &resp); err != nil {
		return "", err
	}
	if resp.Status != "OK" || resp.Host == "" {
		return "", fmt.Errorf("storage discovery returned status %q", resp.Status)
	}

	host := resp.Host
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	a.logger.Info("Discovered storage host", zap.String("host", host))
	return strings.TrimRight(host, "/"), nil
}

func tokenFrom(data []byte, kind string) (string, error) {
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("empty %s token in response", kind)
	}
	return token, nil
}
