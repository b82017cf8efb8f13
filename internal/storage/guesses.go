package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/WalSacramento/contexto-live/internal/domain"
)

// RecordGuess persists one already-ranked guess. The whole
// read-detect-collision-write-maybe-finish sequence runs in a single
// transaction with the room row locked, so two players guessing the same
// word, or the winning word, at the same instant serialize here and exactly
// one of them can finish the room.
func (r *PostgresRepo) RecordGuess(ctx context.Context, roomId, userId, word string, rank int) (domain.GuessResult, error) {
	result := domain.GuessResult{Rank: rank}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return result, wrapDBError(err)
	}
	defer tx.Rollback(ctx)

	var status domain.RoomStatus
	err = tx.QueryRow(ctx,
		"SELECT status FROM rooms WHERE id = $1 FOR UPDATE",
		roomId).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result, domain.ErrRoomNotFound
		}
		return result, wrapDBError(err)
	}

	// A finished room still records late guesses (a player may submit
	// before the finish event reaches them), it just never gains a second
	// winner. Only a room that never started rejects guesses.
	if status == domain.StatusWaiting {
		return result, domain.ErrGameNotActive
	}

	// Word collision: the same normalized word from a different player
	// reveals every copy of it in the room, the new row included.
	tag, err := tx.Exec(ctx,
		"UPDATE guesses SET is_revealed = TRUE WHERE room_id = $1 AND word = $2 AND user_id <> $3",
		roomId, word, userId)
	if err != nil {
		return result, wrapDBError(err)
	}
	result.Revealed = tag.RowsAffected() > 0

	_, err = tx.Exec(ctx,
		"INSERT INTO guesses(room_id, user_id, word, rank, is_revealed) VALUES($1, $2, $3, $4, $5)",
		roomId, userId, word, rank, result.Revealed)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return result, domain.ErrDuplicateGuess
		}
		return result, wrapDBError(err)
	}

	if rank == 1 && status == domain.StatusPlaying {
		tag, err := tx.Exec(ctx,
			"UPDATE rooms SET status = 'finished', winner_id = $2 WHERE id = $1 AND status = 'playing'",
			roomId, userId)
		if err != nil {
			return result, wrapDBError(err)
		}
		result.IsWinner = tag.RowsAffected() == 1
	}

	if err := tx.Commit(ctx); err != nil {
		return result, wrapDBError(err)
	}
	return result, nil
}

// Snapshot reads room, players and guesses in one repeatable-read
// transaction so clients initialize from a consistent view before they
// start merging the realtime stream. The secret word itself is only
// exposed once the room is finished.
func (r *PostgresRepo) Snapshot(ctx context.Context, roomId string) (domain.RoomSnapshot, error) {
	var snap domain.RoomSnapshot

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return snap, wrapDBError(err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`SELECT r.id, r.status, r.game_mode, r.secret_word_id, r.game_day,
		        r.winner_id, r.parent_room_id, r.created_at,
		        CASE WHEN r.status = 'finished' THEN d.word END
		 FROM rooms r
		 LEFT JOIN dictionary d ON d.id = r.secret_word_id
		 WHERE r.id = $1`,
		roomId).Scan(
		&snap.Room.Id, &snap.Room.Status, &snap.Room.GameMode,
		&snap.Room.SecretWordId, &snap.Room.GameDay,
		&snap.Room.WinnerId, &snap.Room.ParentRoomId, &snap.Room.CreatedAt,
		&snap.Room.SecretWord)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snap, domain.ErrRoomNotFound
		}
		return snap, wrapDBError(err)
	}

	rows, err := tx.Query(ctx,
		"SELECT room_id, user_id, nickname, is_host, joined_at FROM room_players WHERE room_id = $1 ORDER BY joined_at",
		roomId)
	if err != nil {
		return snap, wrapDBError(err)
	}
	snap.Players, err = pgx.CollectRows(rows, pgx.RowToStructByPos[domain.RoomPlayer])
	if err != nil {
		return snap, wrapDBError(err)
	}

	rows, err = tx.Query(ctx,
		"SELECT id, room_id, user_id, word, rank, is_revealed, created_at FROM guesses WHERE room_id = $1 ORDER BY created_at",
		roomId)
	if err != nil {
		return snap, wrapDBError(err)
	}
	snap.Guesses, err = pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Guess])
	if err != nil {
		return snap, wrapDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return snap, wrapDBError(err)
	}
	return snap, nil
}

// ListDictionary loads every dictionary entry. The local ranking provider
// calls this once at startup; the table is read-only at request time.
func (r *PostgresRepo) ListDictionary(ctx context.Context) ([]domain.DictionaryEntry, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, word, embedding FROM dictionary")
	if err != nil {
		return nil, wrapDBError(err)
	}
	entries, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.DictionaryEntry])
	if err != nil {
		return nil, wrapDBError(err)
	}
	return entries, nil
}

// InsertDictionaryWord adds one word to the dictionary. Serving code never
// writes the dictionary; this exists for the offline seeding step and tests.
func (r *PostgresRepo) InsertDictionaryWord(ctx context.Context, word string, embedding []float64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		"INSERT INTO dictionary(word, embedding) VALUES($1, $2) RETURNING id",
		word, embedding).Scan(&id)
	if err != nil {
		return 0, wrapDBError(err)
	}
	return id, nil
}
