// Package session holds the client-side room state: one consistent snapshot
// merged with the realtime stream. The merge is idempotent, so duplicate
// delivery and snapshot/stream races are harmless.
package session

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/WalSacramento/contexto-live/internal/domain"
	"github.com/WalSacramento/contexto-live/internal/realtime"
)

type SnapshotFetcher interface {
	Snapshot(ctx context.Context, roomId string) (domain.RoomSnapshot, error)
}

type Actions interface {
	SubmitGuess(ctx context.Context, roomId, word string) (domain.GuessResult, error)
	StartGame(ctx context.Context, roomId string) (domain.GameMode, error)
}

type LeaderboardEntry struct {
	UserId   string
	Nickname string
	BestRank int
}

type Controller struct {
	roomId  string
	userId  string
	fetcher SnapshotFetcher
	actions Actions

	mu      sync.RWMutex
	room    domain.Room
	players []domain.RoomPlayer
	guesses []domain.Guess
	// nicknames caches user_id -> nickname per room so guess events don't
	// need a lookup. Bounded by room membership.
	nicknames map[string]string
	guessIdx  map[string]int
}

// Attach fetches the initial snapshot and returns a controller ready to
// consume the room's event stream.
func Attach(ctx context.Context, roomId, userId string, fetcher SnapshotFetcher, actions Actions) (*Controller, error) {
	c := &Controller{
		roomId:  roomId,
		userId:  userId,
		fetcher: fetcher,
		actions: actions,
	}
	if err := c.Resync(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Resync replaces local state with a fresh snapshot. It is the recovery
// path for reconnects and for any ambiguity the stream alone cannot
// resolve.
func (c *Controller) Resync(ctx context.Context) error {
	snap, err := c.fetcher.Snapshot(ctx, c.roomId)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = snap.Room
	c.players = snap.Players
	c.guesses = snap.Guesses
	c.nicknames = make(map[string]string, len(snap.Players))
	for _, p := range snap.Players {
		c.nicknames[p.UserId] = p.Nickname
	}
	c.guessIdx = make(map[string]int, len(snap.Guesses))
	for i, g := range snap.Guesses {
		c.guessIdx[g.Id] = i
	}
	return nil
}

// Apply merges one stream event into local state. It reports whether the
// caller should resync: a room that just finished carries information the
// event row does not (the revealed secret word, possibly a winning guess
// this client never saw).
func (c *Controller) Apply(ev realtime.Event) (resync bool) {
	if ev.RoomId != c.roomId {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Table {
	case "guesses":
		var g domain.Guess
		if err := json.Unmarshal(ev.Row, &g); err != nil {
			return true
		}
		if i, ok := c.guessIdx[g.Id]; ok {
			// Revealed flag only ever flips false -> true; keep it sticky
			// under duplicate or reordered delivery.
			g.IsRevealed = g.IsRevealed || c.guesses[i].IsRevealed
			c.guesses[i] = g
			return false
		}
		c.guessIdx[g.Id] = len(c.guesses)
		c.guesses = append(c.guesses, g)
		return false

	case "room_players":
		var p domain.RoomPlayer
		if err := json.Unmarshal(ev.Row, &p); err != nil {
			return true
		}
		if _, ok := c.nicknames[p.UserId]; !ok {
			c.players = append(c.players, p)
		}
		c.nicknames[p.UserId] = p.Nickname
		return false

	case "rooms":
		var room domain.Room
		if err := json.Unmarshal(ev.Row, &room); err != nil {
			return true
		}
		// Status never moves backwards; a stale event must not undo a
		// finish observed through another path.
		if statusOrder(room.Status) < statusOrder(c.room.Status) {
			return false
		}
		finishedNow := room.Status == domain.StatusFinished && c.room.Status != domain.StatusFinished
		if room.SecretWord == nil {
			room.SecretWord = c.room.SecretWord
		}
		c.room = room
		return finishedNow

	default:
		return false
	}
}

// Run consumes events until the stream closes or the context ends,
// resyncing whenever Apply asks for it. A closed stream means the hub
// dropped us; the caller reconnects and attaches again.
func (c *Controller) Run(ctx context.Context, events <-chan realtime.Event) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if c.Apply(ev) {
				if err := c.Resync(ctx); err != nil {
					return err
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Controller) Room() domain.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

func (c *Controller) Players() []domain.RoomPlayer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.RoomPlayer, len(c.players))
	copy(out, c.players)
	return out
}

func (c *Controller) Guesses() []domain.Guess {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Guess, len(c.guesses))
	copy(out, c.guesses)
	return out
}

func (c *Controller) Nickname(userId string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nicknames[userId]
}

// BestRank is the minimum rank over this player's own guesses, 0 before the
// first guess.
func (c *Controller) BestRank() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	best := 0
	for _, g := range c.guesses {
		if g.UserId != c.userId {
			continue
		}
		if best == 0 || g.Rank < best {
			best = g.Rank
		}
	}
	return best
}

// Leaderboard lists every player's best rank, best first. Players who have
// not guessed yet rank 0 and sort last.
func (c *Controller) Leaderboard() []LeaderboardEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	best := make(map[string]int, len(c.players))
	for _, g := range c.guesses {
		if cur, ok := best[g.UserId]; !ok || g.Rank < cur {
			best[g.UserId] = g.Rank
		}
	}

	entries := make([]LeaderboardEntry, 0, len(c.players))
	for _, p := range c.players {
		entries = append(entries, LeaderboardEntry{
			UserId:   p.UserId,
			Nickname: p.Nickname,
			BestRank: best[p.UserId],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := entries[i].BestRank, entries[j].BestRank
		if ri == 0 {
			return false
		}
		if rj == 0 {
			return true
		}
		return ri < rj
	})
	return entries
}

func (c *Controller) SubmitGuess(ctx context.Context, word string) (domain.GuessResult, error) {
	return c.actions.SubmitGuess(ctx, c.roomId, word)
}

func (c *Controller) StartGame(ctx context.Context) (domain.GameMode, error) {
	return c.actions.StartGame(ctx, c.roomId)
}

func statusOrder(s domain.RoomStatus) int {
	switch s {
	case domain.StatusWaiting:
		return 0
	case domain.StatusPlaying:
		return 1
	case domain.StatusFinished:
		return 2
	}
	return -1
}
