package testutil

import (
	"context"
	"io"

	"linguo/internal/domain"
	"linguo/internal/translate"

	"github.com/stretchr/testify/mock"
)

// MockIdentityRepository is a mock for IdentityRepository
type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) GetByDeviceKey(ctx context.Context, deviceKey string) (*domain.Identity, error) {
	args := m.Called(ctx, deviceKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityRepository) Create(ctx context.Context, identity domain.Identity) (*domain.Identity, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

// MockIdentityProvider is a mock for the session identity provider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) Current(ctx context.Context, deviceKey string) (*domain.Identity, error) {
	args := m.Called(ctx, deviceKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityProvider) SignInAnonymously(ctx context.Context, deviceKey string) (*domain.Identity, error) {
	args := m.Called(ctx, deviceKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

// MockQuotaStore is a mock for QuotaStore
type MockQuotaStore struct {
	mock.Mock
}

func (m *MockQuotaStore) Load(ctx context.Context, identityID string) (int, error) {
	args := m.Called(ctx, identityID)
	return args.Int(0), args.Error(1)
}

func (m *MockQuotaStore) Save(ctx context.Context, identityID string, count int) error {
	args := m.Called(ctx, identityID, count)
	return args.Error(0)
}

func (m *MockQuotaStore) Reset(ctx context.Context, identityID string) error {
	args := m.Called(ctx, identityID)
	return args.Error(0)
}

// MockTranslator is a mock for the translation endpoint
type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, req translate.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockSpeech is a mock for speech output and input
type MockSpeech struct {
	mock.Mock
}

func (m *MockSpeech) Available() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockSpeech) Speak(ctx context.Context, text, lang string) error {
	args := m.Called(ctx, text, lang)
	return args.Error(0)
}

// Listen matches on the audio content read as a string
func (m *MockSpeech) Listen(ctx context.Context, audio io.Reader, lang string) (string, error) {
	var data []byte
	if audio != nil {
		data, _ = io.ReadAll(audio)
	}
	args := m.Called(ctx, string(data), lang)
	return args.String(0), args.Error(1)
}
