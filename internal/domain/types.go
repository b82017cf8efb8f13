package domain

import "time"

type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

type GameMode string

const (
	// ModeLocal ranks guesses against the self-hosted embedding dictionary.
	ModeLocal GameMode = "local"
	// ModeRemote ranks guesses through the external contexto ranking API,
	// keyed by a game day.
	ModeRemote GameMode = "remote"
)

type Room struct {
	Id           string     `json:"id"`
	Status       RoomStatus `json:"status"`
	GameMode     GameMode   `json:"game_mode"`
	SecretWordId *int64     `json:"secret_word_id,omitempty"`
	GameDay      *int       `json:"game_day,omitempty"`
	WinnerId     *string    `json:"winner_id,omitempty"`
	// SecretWord is only populated once the room is finished.
	SecretWord   *string   `json:"secret_word,omitempty"`
	ParentRoomId *string   `json:"parent_room_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type RoomPlayer struct {
	RoomId   string    `json:"room_id"`
	UserId   string    `json:"user_id"`
	Nickname string    `json:"nickname"`
	IsHost   bool      `json:"is_host"`
	JoinedAt time.Time `json:"joined_at"`
}

type Guess struct {
	Id         string    `json:"id"`
	RoomId     string    `json:"room_id"`
	UserId     string    `json:"user_id"`
	Word       string    `json:"word"`
	Rank       int       `json:"rank"`
	IsRevealed bool      `json:"is_revealed"`
	CreatedAt  time.Time `json:"created_at"`
}

type DictionaryEntry struct {
	Id        int64
	Word      string
	Embedding []float64
}

// RoomSnapshot is the single consistent read a client initializes from
// before it starts consuming the realtime stream.
type RoomSnapshot struct {
	Room    Room         `json:"room"`
	Players []RoomPlayer `json:"players"`
	Guesses []Guess      `json:"guesses"`
}

// RankTarget is the secret a room was started against, fixed at start time.
// Exactly one of SecretWordId (local mode) or GameDay (remote mode) is set.
type RankTarget struct {
	Mode         GameMode
	SecretWordId int64
	GameDay      int
}

type GuessResult struct {
	Rank     int  `json:"rank"`
	Revealed bool `json:"revealed"`
	IsWinner bool `json:"is_winner"`
}

type Stats struct {
	TotalRooms   int64 `json:"total_rooms"`
	TotalPlayers int64 `json:"total_players"`
}
