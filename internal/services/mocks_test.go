package services_test

import (
	"context"

	"github.com/whitedevilpython/hackathon-registration/internal/models"
	"github.com/whitedevilpython/hackathon-registration/internal/repositories"

	"github.com/stretchr/testify/mock"
)

// MockParticipantRepository is a mock implementation of repositories.ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) GetAll(ctx context.Context) ([]models.Participant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockParticipantRepository) CreateWithNextID(ctx context.Context, participant *models.Participant, next repositories.NextIDFunc) error {
	args := m.Called(ctx, participant, next)
	return args.Error(0)
}

func (m *MockParticipantRepository) MarkVerified(ctx context.Context, token string) (*models.Participant, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) DeleteByUniqueID(ctx context.Context, uniqueID string) (int64, error) {
	args := m.Called(ctx, uniqueID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockParticipantRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockPendingRepository is a mock implementation of repositories.PendingRepository
type MockPendingRepository struct {
	mock.Mock
}

func (m *MockPendingRepository) Put(ctx context.Context, pending *models.PendingRegistration) error {
	return m.Called(ctx, pending).Error(0)
}

func (m *MockPendingRepository) GetByToken(ctx context.Context, token string) (*models.PendingRegistration, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingRegistration), args.Error(1)
}

func (m *MockPendingRepository) DeleteByEmail(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

// MockNotifier is a mock implementation of services.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendVerification(ctx context.Context, to, name, link string) error {
	return m.Called(ctx, to, name, link).Error(0)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEvent(routingKey string, payload interface{}) error {
	return m.Called(routingKey, payload).Error(0)
}

// allocateFrom makes a CreateWithNextID expectation run the allocator against last.
func allocateFrom(last string) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		participant := args.Get(1).(*models.Participant)
		next := args.Get(2).(repositories.NextIDFunc)
		id, err := next(last)
		if err != nil {
			panic(err)
		}
		participant.ID = 1
		participant.UniqueID = id
	}
}
