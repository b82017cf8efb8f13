package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/WalSacramento/contexto-live/internal/domain"
	"github.com/WalSacramento/contexto-live/internal/realtime"
)

// Client is the HTTP/WebSocket binding of SnapshotFetcher and Actions. The
// cookie jar carries the identity token minted by create/join.
type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
}

func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar},
		dialer:  &websocket.Dialer{Jar: jar},
	}, nil
}

// CreateRoom returns the new room's id and the server-assigned user id. The
// server only honors a claimed id backed by a valid token, so the client
// always adopts the id the response carries.
func (c *Client) CreateRoom(ctx context.Context, nickname string, mode domain.GameMode) (string, string, error) {
	var out struct {
		RoomId string `json:"room_id"`
		UserId string `json:"user_id"`
	}
	err := c.post(ctx, "/rooms", map[string]any{
		"nickname":  nickname,
		"game_mode": mode,
	}, &out)
	return out.RoomId, out.UserId, err
}

func (c *Client) JoinRoom(ctx context.Context, roomId, nickname string) (domain.RoomStatus, string, error) {
	var out struct {
		RoomStatus domain.RoomStatus `json:"room_status"`
		UserId     string            `json:"user_id"`
	}
	err := c.post(ctx, "/rooms/"+roomId+"/join", map[string]any{
		"nickname": nickname,
	}, &out)
	return out.RoomStatus, out.UserId, err
}

func (c *Client) StartGame(ctx context.Context, roomId string) (domain.GameMode, error) {
	var out struct {
		GameMode domain.GameMode `json:"game_mode"`
	}
	err := c.post(ctx, "/rooms/"+roomId+"/start", nil, &out)
	return out.GameMode, err
}

func (c *Client) CreateRematch(ctx context.Context, roomId string) (string, domain.GameMode, error) {
	var out struct {
		RoomId   string          `json:"room_id"`
		GameMode domain.GameMode `json:"game_mode"`
	}
	err := c.post(ctx, "/rooms/"+roomId+"/rematch", nil, &out)
	return out.RoomId, out.GameMode, err
}

func (c *Client) SubmitGuess(ctx context.Context, roomId, word string) (domain.GuessResult, error) {
	var out domain.GuessResult
	err := c.post(ctx, "/rooms/"+roomId+"/guess", map[string]any{"word": word}, &out)
	return out, err
}

func (c *Client) Snapshot(ctx context.Context, roomId string) (domain.RoomSnapshot, error) {
	var snap domain.RoomSnapshot

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rooms/"+roomId, nil)
	if err != nil {
		return snap, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return snap, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return snap, errorFromResponse(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, err
	}
	return snap, nil
}

// Events dials the room's websocket stream. The returned channel closes
// when the server drops the connection or ctx ends; the consumer is
// expected to re-attach (snapshot first) after a close.
func (c *Client) Events(ctx context.Context, roomId string) (<-chan realtime.Event, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/rooms/" + roomId + "/events"

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}

	events := make(chan realtime.Event)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var ev realtime.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// knownErrors maps the server's kebab-case error strings back onto the
// domain sentinels so callers branch with errors.Is on either side of the
// wire.
var knownErrors = map[string]error{
	"room-not-found":       domain.ErrRoomNotFound,
	"room-not-waiting":     domain.ErrRoomNotWaiting,
	"game-already-started": domain.ErrGameAlreadyOn,
	"game-not-active":      domain.ErrGameNotActive,
	"already-joined":       domain.ErrAlreadyJoined,
	"word-already-guessed": domain.ErrDuplicateGuess,
	"not-host":             domain.ErrNotHost,
	"not-a-member":         domain.ErrNotAMember,
	"word-not-accepted":    domain.ErrWordNotAccepted,
	"invalid-nickname":     domain.ErrInvalidNickname,
	"invalid-game-mode":    domain.ErrInvalidGameMode,
	"invalid-user-id":      domain.ErrInvalidUserId,
	"ranking-unavailable":  domain.ErrRankingUnavailable,
}

func errorFromResponse(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		if sentinel, ok := knownErrors[body.Error]; ok {
			return sentinel
		}
		return fmt.Errorf("server error: %s (status %d)", body.Error, resp.StatusCode)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
