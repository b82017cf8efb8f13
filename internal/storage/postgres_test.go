package storage_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/WalSacramento/contexto-live/internal/domain"
	"github.com/WalSacramento/contexto-live/internal/migrations"
	"github.com/WalSacramento/contexto-live/internal/storage"
)

var (
	repo        *storage.PostgresRepo
	connString  string
	secretWords = map[int64]string{}
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine3.22",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testusername"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		panic(err)
	}

	connString, err = postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	if err := migrations.Migrate(connString); err != nil {
		panic(err)
	}

	repo, err = storage.NewPostgresRepo(ctx, connString)
	if err != nil {
		panic(err)
	}

	for _, seed := range []struct {
		word      string
		embedding []float64
	}{
		{"sol", []float64{1, 0}},
		{"lua", []float64{0.9, 0.1}},
		{"praia", []float64{0.5, 0.5}},
		{"mar", []float64{0, 1}},
	} {
		id, err := repo.InsertDictionaryWord(ctx, seed.word, seed.embedding)
		if err != nil {
			panic(err)
		}
		secretWords[id] = seed.word
	}

	code := m.Run()

	repo.Close()
	postgresContainer.Terminate(ctx)
	os.Exit(code)
}

var roomCounter atomic.Int64

func newRoomId() string {
	return fmt.Sprintf("RM%04d", roomCounter.Add(1))
}

// startedRoom creates a local-mode room with host "a" and player "b" and
// starts it.
func startedRoom(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	roomId := newRoomId()

	require.NoError(t, repo.CreateRoom(ctx, roomId, domain.ModeLocal, "a", "Ana"))
	_, err := repo.JoinRoom(ctx, roomId, "b", "Bia")
	require.NoError(t, err)
	_, err = repo.StartGame(ctx, roomId, "a", 0)
	require.NoError(t, err)
	return roomId
}

func TestRoomLifecycle(t *testing.T) {
	ctx := context.Background()
	roomId := newRoomId()

	t.Run("create", func(t *testing.T) {
		require.NoError(t, repo.CreateRoom(ctx, roomId, domain.ModeLocal, "a", "Ana"))

		snap, err := repo.Snapshot(ctx, roomId)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusWaiting, snap.Room.Status)
		require.Len(t, snap.Players, 1)
		assert.True(t, snap.Players[0].IsHost)
		assert.Nil(t, snap.Room.SecretWordId, "no secret before start")
	})

	t.Run("duplicate room code", func(t *testing.T) {
		err := repo.CreateRoom(ctx, roomId, domain.ModeLocal, "z", "Zed")
		assert.ErrorIs(t, err, domain.ErrRoomIdTaken)
	})

	t.Run("join", func(t *testing.T) {
		status, err := repo.JoinRoom(ctx, roomId, "b", "Bia")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusWaiting, status)
	})

	t.Run("join twice", func(t *testing.T) {
		_, err := repo.JoinRoom(ctx, roomId, "b", "Bia")
		assert.ErrorIs(t, err, domain.ErrAlreadyJoined)
	})

	t.Run("start by non-host", func(t *testing.T) {
		_, err := repo.StartGame(ctx, roomId, "b", 0)
		assert.ErrorIs(t, err, domain.ErrNotHost)

		snap, err := repo.Snapshot(ctx, roomId)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusWaiting, snap.Room.Status, "failed start leaves status unchanged")
	})

	t.Run("start by stranger", func(t *testing.T) {
		_, err := repo.StartGame(ctx, roomId, "nobody", 0)
		assert.ErrorIs(t, err, domain.ErrNotAMember)
	})

	t.Run("start by host fixes secret", func(t *testing.T) {
		mode, err := repo.StartGame(ctx, roomId, "a", 0)
		require.NoError(t, err)
		assert.Equal(t, domain.ModeLocal, mode)

		status, target, err := repo.RankTarget(ctx, roomId)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPlaying, status)
		assert.Contains(t, secretWords, target.SecretWordId)
	})

	t.Run("start twice", func(t *testing.T) {
		_, err := repo.StartGame(ctx, roomId, "a", 0)
		assert.ErrorIs(t, err, domain.ErrGameAlreadyOn)
	})

	t.Run("late join rejected", func(t *testing.T) {
		_, err := repo.JoinRoom(ctx, roomId, "c", "Caio")
		assert.ErrorIs(t, err, domain.ErrRoomNotWaiting)

		snap, err := repo.Snapshot(ctx, roomId)
		require.NoError(t, err)
		assert.Len(t, snap.Players, 2, "rejected join adds no player row")
	})
}

func TestJoinRoom_NotFound(t *testing.T) {
	_, err := repo.JoinRoom(context.Background(), "MISSING", "a", "Ana")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestStartGame_RemoteModePinsGameDay(t *testing.T) {
	ctx := context.Background()
	roomId := newRoomId()

	require.NoError(t, repo.CreateRoom(ctx, roomId, domain.ModeRemote, "a", "Ana"))
	_, err := repo.StartGame(ctx, roomId, "a", 1234)
	require.NoError(t, err)

	status, target, err := repo.RankTarget(ctx, roomId)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlaying, status)
	assert.Equal(t, domain.ModeRemote, target.Mode)
	assert.Equal(t, 1234, target.GameDay)
}

func TestRecordGuess_WaitingRoomRejected(t *testing.T) {
	ctx := context.Background()
	roomId := newRoomId()
	require.NoError(t, repo.CreateRoom(ctx, roomId, domain.ModeLocal, "a", "Ana"))

	_, err := repo.RecordGuess(ctx, roomId, "a", "lua", 5)
	assert.ErrorIs(t, err, domain.ErrGameNotActive)

	snap, err := repo.Snapshot(ctx, roomId)
	require.NoError(t, err)
	assert.Empty(t, snap.Guesses, "rejected guess leaves no row")
}

func TestRecordGuess_RoomNotFound(t *testing.T) {
	_, err := repo.RecordGuess(context.Background(), "MISSING", "a", "lua", 5)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRecordGuess_DuplicateWordSameUser(t *testing.T) {
	ctx := context.Background()
	roomId := startedRoom(t)

	_, err := repo.RecordGuess(ctx, roomId, "a", "lua", 5)
	require.NoError(t, err)

	_, err = repo.RecordGuess(ctx, roomId, "a", "lua", 5)
	assert.ErrorIs(t, err, domain.ErrDuplicateGuess)
}

func TestRecordGuess_CollisionRevealsAllCopies(t *testing.T) {
	ctx := context.Background()
	roomId := startedRoom(t)

	first, err := repo.RecordGuess(ctx, roomId, "a", "lua", 5)
	require.NoError(t, err)
	assert.False(t, first.Revealed, "a word guessed by only one player stays hidden")

	second, err := repo.RecordGuess(ctx, roomId, "b", "lua", 5)
	require.NoError(t, err)
	assert.True(t, second.Revealed)

	solo, err := repo.RecordGuess(ctx, roomId, "a", "praia", 9)
	require.NoError(t, err)
	assert.False(t, solo.Revealed)

	snap, err := repo.Snapshot(ctx, roomId)
	require.NoError(t, err)
	revealedByWord := map[string][]bool{}
	for _, g := range snap.Guesses {
		revealedByWord[g.Word] = append(revealedByWord[g.Word], g.IsRevealed)
	}
	assert.Equal(t, []bool{true, true}, revealedByWord["lua"], "both copies revealed")
	assert.Equal(t, []bool{false}, revealedByWord["praia"])
}

func TestRecordGuess_WinFinishesRoomOnce(t *testing.T) {
	ctx := context.Background()
	roomId := startedRoom(t)

	result, err := repo.RecordGuess(ctx, roomId, "a", "sol", 1)
	require.NoError(t, err)
	assert.True(t, result.IsWinner)

	snap, err := repo.Snapshot(ctx, roomId)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, snap.Room.Status)
	require.NotNil(t, snap.Room.WinnerId)
	assert.Equal(t, "a", *snap.Room.WinnerId)

	// B's identical guess after the finish is still recorded with its true
	// rank, but never becomes a second winner.
	late, err := repo.RecordGuess(ctx, roomId, "b", "sol", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, late.Rank)
	assert.False(t, late.IsWinner)
	assert.True(t, late.Revealed, "same word as a's winning guess")

	snap, err = repo.Snapshot(ctx, roomId)
	require.NoError(t, err)
	assert.Equal(t, "a", *snap.Room.WinnerId, "winner is never overwritten")
	assert.Len(t, snap.Guesses, 2)
}

func TestRecordGuess_ConcurrentWinnersRace(t *testing.T) {
	ctx := context.Background()
	roomId := startedRoom(t)

	var wg sync.WaitGroup
	results := make([]domain.GuessResult, 2)
	errs := make([]error, 2)
	for i, user := range []string{"a", "b"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = repo.RecordGuess(ctx, roomId, user, "sol", 1)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, results[0].IsWinner, results[1].IsWinner,
		"exactly one of two simultaneous exact guesses wins")

	snap, err := repo.Snapshot(ctx, roomId)
	require.NoError(t, err)
	require.NotNil(t, snap.Room.WinnerId)
	assert.Len(t, snap.Guesses, 2, "the loser's guess is recorded too")
}

func TestSnapshot_SecretWordOnlyWhenFinished(t *testing.T) {
	ctx := context.Background()
	roomId := startedRoom(t)

	snap, err := repo.Snapshot(ctx, roomId)
	require.NoError(t, err)
	assert.Nil(t, snap.Room.SecretWord, "secret hidden while playing")

	_, target, err := repo.RankTarget(ctx, roomId)
	require.NoError(t, err)

	_, err = repo.RecordGuess(ctx, roomId, "a", secretWords[target.SecretWordId], 1)
	require.NoError(t, err)

	snap, err = repo.Snapshot(ctx, roomId)
	require.NoError(t, err)
	require.NotNil(t, snap.Room.SecretWord)
	assert.Equal(t, secretWords[target.SecretWordId], *snap.Room.SecretWord)
}

func TestCreateRematch(t *testing.T) {
	ctx := context.Background()
	roomId := startedRoom(t)
	_, err := repo.RecordGuess(ctx, roomId, "a", "sol", 1)
	require.NoError(t, err)

	t.Run("non-host rejected", func(t *testing.T) {
		_, err := repo.CreateRematch(ctx, roomId, newRoomId(), "b")
		assert.ErrorIs(t, err, domain.ErrNotHost)
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, err := repo.CreateRematch(ctx, "MISSING", newRoomId(), "a")
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})

	t.Run("host creates fresh linked room", func(t *testing.T) {
		rematchId := newRoomId()
		mode, err := repo.CreateRematch(ctx, roomId, rematchId, "a")
		require.NoError(t, err)
		assert.Equal(t, domain.ModeLocal, mode)

		snap, err := repo.Snapshot(ctx, rematchId)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusWaiting, snap.Room.Status)
		assert.Equal(t, domain.ModeLocal, snap.Room.GameMode)
		require.NotNil(t, snap.Room.ParentRoomId)
		assert.Equal(t, roomId, *snap.Room.ParentRoomId)
		assert.Empty(t, snap.Players, "players must rejoin")
		assert.Empty(t, snap.Guesses)
	})
}

func TestStats(t *testing.T) {
	ctx := context.Background()

	before, err := repo.Stats(ctx)
	require.NoError(t, err)

	roomId := newRoomId()
	require.NoError(t, repo.CreateRoom(ctx, roomId, domain.ModeLocal, "a", "Ana"))
	_, err = repo.JoinRoom(ctx, roomId, "b", "Bia")
	require.NoError(t, err)

	after, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.TotalRooms+1, after.TotalRooms)
	assert.Equal(t, before.TotalPlayers+2, after.TotalPlayers)
}
