package domain

import "errors"

var ErrRoomNotFound = errors.New("room-not-found")

// Invalid state errors: the action exists but the room is not in a status
// that allows it.
var (
	ErrGameNotActive  = errors.New("game-not-active")
	ErrGameAlreadyOn  = errors.New("game-already-started")
	ErrRoomNotWaiting = errors.New("room-not-waiting")
	ErrNotHost        = errors.New("not-host")
	ErrNotAMember     = errors.New("not-a-member")
	ErrAlreadyJoined  = errors.New("already-joined")
)

// ErrRoomIdTaken signals a generated room code collided with an existing
// room; callers retry with a fresh code.
var ErrRoomIdTaken = errors.New("room-id-taken")

var (
	ErrEmptyWord       = errors.New("empty-word")
	ErrInvalidUserId   = errors.New("invalid-user-id")
	ErrWordNotAccepted = errors.New("word-not-accepted")
	ErrDuplicateGuess  = errors.New("word-already-guessed")
	ErrInvalidNickname = errors.New("invalid-nickname")
	ErrInvalidGameMode = errors.New("invalid-game-mode")
)

// ErrRankingUnavailable covers ranking-source timeouts and transport
// failures. A guess must never be persisted when ranking failed.
var ErrRankingUnavailable = errors.New("ranking-unavailable")

var UnexpectedDatabaseError = errors.New("unexpected-database-error")
