package game

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/WalSacramento/contexto-live/internal/domain"
)

// --- RoomStore ---

type MockRoomStore struct {
	mock.Mock
}

func (m *MockRoomStore) CreateRoom(ctx context.Context, roomId string, mode domain.GameMode, userId, nickname string) error {
	args := m.Called(ctx, roomId, mode, userId, nickname)
	return args.Error(0)
}

func (m *MockRoomStore) JoinRoom(ctx context.Context, roomId, userId, nickname string) (domain.RoomStatus, error) {
	args := m.Called(ctx, roomId, userId, nickname)
	return args.Get(0).(domain.RoomStatus), args.Error(1)
}

func (m *MockRoomStore) StartGame(ctx context.Context, roomId, userId string, gameDay int) (domain.GameMode, error) {
	args := m.Called(ctx, roomId, userId, gameDay)
	return args.Get(0).(domain.GameMode), args.Error(1)
}

func (m *MockRoomStore) CreateRematch(ctx context.Context, parentRoomId, newRoomId, userId string) (domain.GameMode, error) {
	args := m.Called(ctx, parentRoomId, newRoomId, userId)
	return args.Get(0).(domain.GameMode), args.Error(1)
}

func (m *MockRoomStore) RankTarget(ctx context.Context, roomId string) (domain.RoomStatus, domain.RankTarget, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(domain.RoomStatus), args.Get(1).(domain.RankTarget), args.Error(2)
}

func (m *MockRoomStore) RecordGuess(ctx context.Context, roomId, userId, word string, rank int) (domain.GuessResult, error) {
	args := m.Called(ctx, roomId, userId, word, rank)
	return args.Get(0).(domain.GuessResult), args.Error(1)
}

func (m *MockRoomStore) Snapshot(ctx context.Context, roomId string) (domain.RoomSnapshot, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(domain.RoomSnapshot), args.Error(1)
}

func (m *MockRoomStore) Stats(ctx context.Context) (domain.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Stats), args.Error(1)
}

// --- RankingProvider ---

type MockRankingProvider struct {
	mock.Mock
}

func (m *MockRankingProvider) Rank(ctx context.Context, target domain.RankTarget, word string) (int, error) {
	args := m.Called(ctx, target, word)
	return args.Int(0), args.Error(1)
}

// --- GameService (for handler tests) ---

type MockGameService struct {
	mock.Mock
}

func (m *MockGameService) CreateRoom(ctx context.Context, userId, nickname string, mode domain.GameMode) (string, error) {
	args := m.Called(ctx, userId, nickname, mode)
	return args.String(0), args.Error(1)
}

func (m *MockGameService) JoinRoom(ctx context.Context, roomId, userId, nickname string) (domain.RoomStatus, error) {
	args := m.Called(ctx, roomId, userId, nickname)
	return args.Get(0).(domain.RoomStatus), args.Error(1)
}

func (m *MockGameService) StartGame(ctx context.Context, roomId, userId string) (domain.GameMode, error) {
	args := m.Called(ctx, roomId, userId)
	return args.Get(0).(domain.GameMode), args.Error(1)
}

func (m *MockGameService) CreateRematch(ctx context.Context, parentRoomId, userId string) (string, domain.GameMode, error) {
	args := m.Called(ctx, parentRoomId, userId)
	return args.String(0), args.Get(1).(domain.GameMode), args.Error(2)
}

func (m *MockGameService) SubmitGuess(ctx context.Context, roomId, userId, rawWord string) (domain.GuessResult, error) {
	args := m.Called(ctx, roomId, userId, rawWord)
	return args.Get(0).(domain.GuessResult), args.Error(1)
}

func (m *MockGameService) Snapshot(ctx context.Context, roomId string) (domain.RoomSnapshot, error) {
	args := m.Called(ctx, roomId)
	return args.Get(0).(domain.RoomSnapshot), args.Error(1)
}

func (m *MockGameService) Stats(ctx context.Context) (domain.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Stats), args.Error(1)
}
