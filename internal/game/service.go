package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/WalSacramento/contexto-live/internal/domain"
)

// roomCodeRetries bounds how often CreateRoom redraws after a code
// collision before giving up.
const roomCodeRetries = 5

type Service struct {
	store      RoomStore
	providers  map[domain.GameMode]RankingProvider
	maxGameDay int
}

func NewService(store RoomStore, providers map[domain.GameMode]RankingProvider, maxGameDay int) *Service {
	return &Service{
		store:      store,
		providers:  providers,
		maxGameDay: maxGameDay,
	}
}

func normalizeWord(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func validateNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || utf8.RuneCountInString(nickname) > 20 {
		return "", domain.ErrInvalidNickname
	}
	return nickname, nil
}

// CreateRoom creates a waiting room with the caller as host. No secret word
// is chosen yet; that only happens when the host starts the game.
func (s *Service) CreateRoom(ctx context.Context, userId, nickname string, mode domain.GameMode) (string, error) {
	if userId == "" {
		return "", domain.ErrInvalidUserId
	}
	nickname, err := validateNickname(nickname)
	if err != nil {
		return "", err
	}
	if mode != domain.ModeLocal && mode != domain.ModeRemote {
		return "", domain.ErrInvalidGameMode
	}

	for range roomCodeRetries {
		roomId := newRoomCode()
		err := s.store.CreateRoom(ctx, roomId, mode, userId, nickname)
		if err == domain.ErrRoomIdTaken {
			continue
		}
		if err != nil {
			return "", err
		}
		return roomId, nil
	}
	return "", fmt.Errorf("%w: could not find a free room code", domain.UnexpectedDatabaseError)
}

func (s *Service) JoinRoom(ctx context.Context, roomId, userId, nickname string) (domain.RoomStatus, error) {
	if userId == "" {
		return "", domain.ErrInvalidUserId
	}
	nickname, err := validateNickname(nickname)
	if err != nil {
		return "", err
	}
	return s.store.JoinRoom(ctx, roomId, userId, nickname)
}

// StartGame fixes the room's target at this moment: a random dictionary
// entry for local rooms, a random game day for remote ones.
func (s *Service) StartGame(ctx context.Context, roomId, userId string) (domain.GameMode, error) {
	gameDay := rand.IntN(s.maxGameDay) + 1
	return s.store.StartGame(ctx, roomId, userId, gameDay)
}

func (s *Service) CreateRematch(ctx context.Context, parentRoomId, userId string) (string, domain.GameMode, error) {
	for range roomCodeRetries {
		roomId := newRoomCode()
		mode, err := s.store.CreateRematch(ctx, parentRoomId, roomId, userId)
		if err == domain.ErrRoomIdTaken {
			continue
		}
		if err != nil {
			return "", mode, err
		}
		return roomId, mode, nil
	}
	return "", "", fmt.Errorf("%w: could not find a free room code", domain.UnexpectedDatabaseError)
}

// SubmitGuess normalizes and ranks one guess, then hands it to the store's
// atomic record operation. Nothing is persisted when ranking fails.
func (s *Service) SubmitGuess(ctx context.Context, roomId, userId, rawWord string) (domain.GuessResult, error) {
	word := normalizeWord(rawWord)
	if word == "" {
		return domain.GuessResult{}, domain.ErrEmptyWord
	}

	status, target, err := s.store.RankTarget(ctx, roomId)
	if err != nil {
		return domain.GuessResult{}, err
	}
	if status == domain.StatusWaiting {
		return domain.GuessResult{}, domain.ErrGameNotActive
	}

	provider, ok := s.providers[target.Mode]
	if !ok {
		return domain.GuessResult{}, fmt.Errorf("%w: no ranking provider for mode %q", domain.ErrRankingUnavailable, target.Mode)
	}

	rank, err := provider.Rank(ctx, target, word)
	if err != nil {
		return domain.GuessResult{}, err
	}

	return s.store.RecordGuess(ctx, roomId, userId, word, rank)
}

func (s *Service) Snapshot(ctx context.Context, roomId string) (domain.RoomSnapshot, error) {
	return s.store.Snapshot(ctx, roomId)
}

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	return s.store.Stats(ctx)
}
