package synchronizer

import (
	"context"
	"fmt"

	"docsync/core/propstore"
	"docsync/core/remote"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session turns cached device credentials into a connected remote store.
type Session struct {
	Props   propstore.Store
	Auth    Authenticator
	Connect Connector
	// OneTimeCode registers a new device when no device token is cached.
	OneTimeCode string
}

// Dial authenticates and connects to the storage host.
func (s *Session) Dial(ctx context.Context, log *zap.Logger) (remote.Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	props, err := s.Props.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read properties: %w", err)
	}

	userToken, err := s.authenticate(ctx, log, props)
	if err != nil {
		return nil, err
	}
	host, err := s.Auth.StorageHost(ctx, userToken)
	if err != nil {
		return nil, fmt.Errorf("discover storage host: %w", err)
	}
	store, err := s.Connect(ctx, host, userToken)
	if err != nil {
		return nil, fmt.Errorf("connect to remote: %w", err)
	}
	return store, nil
}

// authenticate returns a user token, registering a device when needed.
// New device credentials are persisted before they are used.
func (s *Session) authenticate(ctx context.Context, log *zap.Logger, props map[string]string) (string, error) {
	deviceToken := props[propstore.KeyDeviceToken]
	if deviceToken == "" {
		if s.OneTimeCode == "" {
			return "", ErrNoCredentials
		}
		deviceID := uuid.NewString()
		token, err := s.Auth.RegisterDevice(ctx, s.OneTimeCode, deviceID)
		if err != nil {
			return "", fmt.Errorf("register device: %w", err)
		}
		if err := s.Props.SetOne(ctx, propstore.KeyDeviceToken, token); err != nil {
			return "", fmt.Errorf("store device token: %w", err)
		}
		if err := s.Props.SetOne(ctx, propstore.KeyDeviceID, deviceID); err != nil {
			return "", fmt.Errorf("store device id: %w", err)
		}
		log.Info("Registered new device", zap.String("device_id", deviceID))
		deviceToken = token
	}

	userToken, err := s.Auth.UserToken(ctx, deviceToken)
	if err != nil {
		return "", fmt.Errorf("refresh user token: %w", err)
	}
	return userToken, nil
}

// ResetCredentials deletes the reserved keys from props.
func ResetCredentials(ctx context.Context, props propstore.Store) error {
	for _, key := range propstore.ReservedKeys {
		if err := props.DeleteOne(ctx, key); err != nil {
			return fmt.Errorf("reset %s: %w", key, err)
		}
	}
	return nil
}
