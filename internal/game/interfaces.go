package game

import (
	"context"

	"github.com/WalSacramento/contexto-live/internal/domain"
)

// RoomStore is the persistence surface the game service runs on. All
// cross-player coordination happens through it; the service itself holds no
// mutable game state.
type RoomStore interface {
	CreateRoom(ctx context.Context, roomId string, mode domain.GameMode, userId, nickname string) error
	JoinRoom(ctx context.Context, roomId, userId, nickname string) (domain.RoomStatus, error)
	StartGame(ctx context.Context, roomId, userId string, gameDay int) (domain.GameMode, error)
	CreateRematch(ctx context.Context, parentRoomId, newRoomId, userId string) (domain.GameMode, error)
	RankTarget(ctx context.Context, roomId string) (domain.RoomStatus, domain.RankTarget, error)
	RecordGuess(ctx context.Context, roomId, userId, word string, rank int) (domain.GuessResult, error)
	Snapshot(ctx context.Context, roomId string) (domain.RoomSnapshot, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

type RankingProvider interface {
	Rank(ctx context.Context, target domain.RankTarget, word string) (int, error)
}
