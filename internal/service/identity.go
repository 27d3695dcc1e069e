package service

import (
	"context"
	"errors"
	"fmt"

	"linguo/internal/domain"
	"linguo/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdentityService issues anonymous identities per device
type IdentityService struct {
	identityRepo repository.IdentityRepository
	newID        func() string
	logger       *zap.Logger
}

// NewIdentityService creates a new identity service
func NewIdentityService(identityRepo repository.IdentityRepository, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		identityRepo: identityRepo,
		newID:        uuid.NewString,
		logger:       logger,
	}
}

// Current returns the identity of the device, or nil if it never signed in
func (s *IdentityService) Current(ctx context.Context, deviceKey string) (*domain.Identity, error) {
	return s.identityRepo.GetByDeviceKey(ctx, deviceKey)
}

// SignInAnonymously creates an identity for the device
func (s *IdentityService) SignInAnonymously(ctx context.Context, deviceKey string) (*domain.Identity, error) {
	if deviceKey == "" {
		return nil, fmt.Errorf("device key cannot be empty")
	}

	identity, err := s.identityRepo.Create(ctx, domain.Identity{ID: s.newID(), DeviceKey: deviceKey})
	if errors.Is(err, repository.ErrIdentityExists) {
		// Another request for the same device won the race
		return s.identityRepo.GetByDeviceKey(ctx, deviceKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	s.logger.Info("Anonymous identity created",
		zap.String("identity_id", identity.ID),
		zap.String("device_key", deviceKey),
	)
	return identity, nil
}
