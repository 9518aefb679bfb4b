package service

import (
	"context"
	"errors"
	"testing"

	"wagerbot/events"
	"wagerbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetOrCreateUser_ExistingUser(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)
	mockEventPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(mockUserRepo, mockBalanceHistoryRepo, mockEventPublisher)

	service := NewUserService(mockFactory, 100000)

	existingUser := &models.User{
		DiscordID: 123456,
		Username:  "testuser",
		Balance:   50000,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	// No Commit() expected since the user exists and nothing changes
	mockUserRepo.On("GetByDiscordID", ctx, int64(123456)).Return(existingUser, nil)

	user, err := service.GetOrCreateUser(ctx, 123456, "testuser")

	assert.NoError(t, err)
	assert.Equal(t, existingUser, user)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockBalanceHistoryRepo.AssertNotCalled(t, "Record")
	mockEventPublisher.AssertNotCalled(t, "Publish")
}

func TestUserService_GetOrCreateUser_NewUser(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)
	mockEventPublisher := new(MockEventPublisher)

	mockUoW.SetRepositories(mockUserRepo, mockBalanceHistoryRepo, mockEventPublisher)

	service := NewUserService(mockFactory, 100000)

	newUser := &models.User{
		DiscordID: 123456,
		Username:  "newuser",
		Balance:   100000,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByDiscordID", ctx, int64(123456)).Return(nil, nil)
	mockUserRepo.On("Create", ctx, int64(123456), "newuser", int64(100000)).Return(newUser, nil)
	mockBalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.DiscordID == 123456 &&
			h.BalanceBefore == 0 &&
			h.BalanceAfter == 100000 &&
			h.TransactionType == models.TransactionTypeInitial
	})).Return(nil)
	mockEventPublisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()
	mockEventPublisher.On("Publish", events.UserCreatedEvent{
		DiscordID:      123456,
		Username:       "newuser",
		InitialBalance: 100000,
	}).Return()

	user, err := service.GetOrCreateUser(ctx, 123456, "newuser")

	require.NoError(t, err)
	assert.Equal(t, newUser, user)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockBalanceHistoryRepo.AssertExpectations(t)
	mockEventPublisher.AssertExpectations(t)
}

func TestUserService_GetOrCreateUser_CreateFails(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockBalanceHistoryRepo, new(MockEventPublisher))

	service := NewUserService(mockFactory, 100000)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByDiscordID", ctx, int64(123456)).Return(nil, nil)
	mockUserRepo.On("Create", ctx, int64(123456), "newuser", int64(100000)).Return(nil, errors.New("duplicate key"))

	user, err := service.GetOrCreateUser(ctx, 123456, "newuser")

	assert.Error(t, err)
	assert.Nil(t, user)
	assert.Contains(t, err.Error(), "failed to create user")
	mockUoW.AssertNotCalled(t, "Commit")
	mockBalanceHistoryRepo.AssertNotCalled(t, "Record")
}

func TestUserService_GetUser_NotFound(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, nil)

	service := NewUserService(mockFactory, 100000)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByDiscordID", ctx, int64(42)).Return(nil, nil)

	user, err := service.GetUser(ctx, 42)

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, user)
}
