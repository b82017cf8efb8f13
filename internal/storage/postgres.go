package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/WalSacramento/contexto-live/internal/domain"
)

// "23505" is the PostgreSQL error code for unique_violation
const uniqueViolation = "23505"

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

// wrapDBError normalizes driver errors the way every repo method reports
// them: context errors pass through, anything else is tagged as unexpected.
func wrapDBError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
}

// CreateRoom inserts a waiting room with the creator as its only player,
// marked host. The secret word is not chosen here; StartGame fixes it later.
func (r *PostgresRepo) CreateRoom(ctx context.Context, roomId string, mode domain.GameMode, userId, nickname string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrapDBError(err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"INSERT INTO rooms(id, game_mode) VALUES($1, $2)",
		roomId, mode)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrRoomIdTaken
		}
		return wrapDBError(err)
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO room_players(room_id, user_id, nickname, is_host) VALUES($1, $2, $3, TRUE)",
		roomId, userId, nickname)
	if err != nil {
		return wrapDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapDBError(err)
	}
	return nil
}

// JoinRoom adds a non-host player to a waiting room. Late joins are
// rejected: every player must be present before the game starts.
func (r *PostgresRepo) JoinRoom(ctx context.Context, roomId, userId, nickname string) (domain.RoomStatus, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", wrapDBError(err)
	}
	defer tx.Rollback(ctx)

	var status domain.RoomStatus
	err = tx.QueryRow(ctx,
		"SELECT status FROM rooms WHERE id = $1 FOR UPDATE",
		roomId).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrRoomNotFound
		}
		return "", wrapDBError(err)
	}

	if status != domain.StatusWaiting {
		return status, domain.ErrRoomNotWaiting
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO room_players(room_id, user_id, nickname, is_host) VALUES($1, $2, $3, FALSE)",
		roomId, userId, nickname)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return status, domain.ErrAlreadyJoined
		}
		return "", wrapDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", wrapDBError(err)
	}
	return status, nil
}

// StartGame transitions a waiting room to playing and fixes its target:
// local mode draws a random dictionary entry, remote mode pins gameDay.
// Only the host may start.
func (r *PostgresRepo) StartGame(ctx context.Context, roomId, userId string, gameDay int) (domain.GameMode, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", wrapDBError(err)
	}
	defer tx.Rollback(ctx)

	var status domain.RoomStatus
	var mode domain.GameMode
	err = tx.QueryRow(ctx,
		"SELECT status, game_mode FROM rooms WHERE id = $1 FOR UPDATE",
		roomId).Scan(&status, &mode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrRoomNotFound
		}
		return "", wrapDBError(err)
	}

	if status != domain.StatusWaiting {
		return mode, domain.ErrGameAlreadyOn
	}

	if err := r.requireHost(ctx, tx, roomId, userId); err != nil {
		return mode, err
	}

	switch mode {
	case domain.ModeLocal:
		var secretId *int64
		err = tx.QueryRow(ctx,
			`UPDATE rooms
			 SET status = 'playing',
			     secret_word_id = (SELECT id FROM dictionary ORDER BY RANDOM() LIMIT 1)
			 WHERE id = $1
			 RETURNING secret_word_id`,
			roomId).Scan(&secretId)
		if err != nil {
			return mode, wrapDBError(err)
		}
		if secretId == nil {
			return mode, fmt.Errorf("%w: dictionary is empty", domain.UnexpectedDatabaseError)
		}
	case domain.ModeRemote:
		_, err = tx.Exec(ctx,
			"UPDATE rooms SET status = 'playing', game_day = $2 WHERE id = $1",
			roomId, gameDay)
		if err != nil {
			return mode, wrapDBError(err)
		}
	default:
		return mode, domain.ErrInvalidGameMode
	}

	if err := tx.Commit(ctx); err != nil {
		return mode, wrapDBError(err)
	}
	return mode, nil
}

// CreateRematch creates a fresh waiting room linked to a finished (or any)
// parent room. Players and guesses are not copied over; everyone rejoins.
func (r *PostgresRepo) CreateRematch(ctx context.Context, parentRoomId, newRoomId, userId string) (domain.GameMode, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", wrapDBError(err)
	}
	defer tx.Rollback(ctx)

	var mode domain.GameMode
	err = tx.QueryRow(ctx,
		"SELECT game_mode FROM rooms WHERE id = $1",
		parentRoomId).Scan(&mode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrRoomNotFound
		}
		return "", wrapDBError(err)
	}

	if err := r.requireHost(ctx, tx, parentRoomId, userId); err != nil {
		return mode, err
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO rooms(id, game_mode, parent_room_id) VALUES($1, $2, $3)",
		newRoomId, mode, parentRoomId)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return mode, domain.ErrRoomIdTaken
		}
		return mode, wrapDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mode, wrapDBError(err)
	}
	return mode, nil
}

func (r *PostgresRepo) requireHost(ctx context.Context, tx pgx.Tx, roomId, userId string) error {
	var isHost bool
	err := tx.QueryRow(ctx,
		"SELECT is_host FROM room_players WHERE room_id = $1 AND user_id = $2",
		roomId, userId).Scan(&isHost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotAMember
		}
		return wrapDBError(err)
	}
	if !isHost {
		return domain.ErrNotHost
	}
	return nil
}

// RankTarget returns the room's current status and the target its guesses
// are ranked against. The target is only meaningful once the room started.
func (r *PostgresRepo) RankTarget(ctx context.Context, roomId string) (domain.RoomStatus, domain.RankTarget, error) {
	var (
		status   domain.RoomStatus
		target   domain.RankTarget
		secretId *int64
		gameDay  *int
	)
	err := r.pool.QueryRow(ctx,
		"SELECT status, game_mode, secret_word_id, game_day FROM rooms WHERE id = $1",
		roomId).Scan(&status, &target.Mode, &secretId, &gameDay)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", target, domain.ErrRoomNotFound
		}
		return "", target, wrapDBError(err)
	}

	if secretId != nil {
		target.SecretWordId = *secretId
	}
	if gameDay != nil {
		target.GameDay = *gameDay
	}
	return status, target, nil
}

func (r *PostgresRepo) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := r.pool.QueryRow(ctx,
		"SELECT (SELECT COUNT(*) FROM rooms), (SELECT COUNT(*) FROM room_players)").
		Scan(&stats.TotalRooms, &stats.TotalPlayers)
	if err != nil {
		return stats, wrapDBError(err)
	}
	return stats, nil
}
