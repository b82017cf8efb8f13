package game

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/WalSacramento/contexto-live/internal/domain"
	"github.com/WalSacramento/contexto-live/internal/identity"
)

// GameService is what the HTTP layer needs from the game core.
type GameService interface {
	CreateRoom(ctx context.Context, userId, nickname string, mode domain.GameMode) (string, error)
	JoinRoom(ctx context.Context, roomId, userId, nickname string) (domain.RoomStatus, error)
	StartGame(ctx context.Context, roomId, userId string) (domain.GameMode, error)
	CreateRematch(ctx context.Context, parentRoomId, userId string) (string, domain.GameMode, error)
	SubmitGuess(ctx context.Context, roomId, userId, rawWord string) (domain.GuessResult, error)
	Snapshot(ctx context.Context, roomId string) (domain.RoomSnapshot, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// Limiters for users idle this long are dropped on the next sweep.
const limiterIdleTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Handler struct {
	service GameService
	tokens  *identity.TokenManager

	// One guess limiter per user id, shared across that user's rooms.
	// Idle entries are swept so the map stays bounded by active users.
	limitersMu sync.Mutex
	limiters   map[string]*userLimiter
	lastSweep  time.Time
}

func NewHandler(service GameService, tokens *identity.TokenManager) *Handler {
	return &Handler{
		service:   service,
		tokens:    tokens,
		limiters:  make(map[string]*userLimiter),
		lastSweep: time.Now(),
	}
}

// resolveUserId decides which identity a create/join request acts as. A
// client-claimed id is only honored when the request already carries a valid
// token for that exact id; any other claim gets a fresh server-generated id,
// so nobody can adopt another player's identity from a room snapshot.
func (h *Handler) resolveUserId(ctx *gin.Context, claimed string) string {
	if token, err := ctx.Cookie(identity.CookieName); err == nil {
		if verified, err := h.tokens.Verify(token); err == nil {
			if claimed == "" || claimed == verified {
				return verified
			}
		}
	}
	return uuid.NewString()
}

func (h *Handler) guessLimiter(userId string) *rate.Limiter {
	h.limitersMu.Lock()
	defer h.limitersMu.Unlock()

	now := time.Now()
	if now.Sub(h.lastSweep) > limiterIdleTTL {
		for id, ul := range h.limiters {
			if now.Sub(ul.lastSeen) > limiterIdleTTL {
				delete(h.limiters, id)
			}
		}
		h.lastSweep = now
	}

	ul, ok := h.limiters[userId]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(rate.Limit(2), 5)}
		h.limiters[userId] = ul
	}
	ul.lastSeen = now
	return ul.limiter
}

func (h *Handler) CreateRoomHandler(ctx *gin.Context) {
	var body struct {
		UserId   string          `json:"user_id"`
		Nickname string          `json:"nickname"`
		GameMode domain.GameMode `json:"game_mode"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}
	if body.GameMode == "" {
		body.GameMode = domain.ModeLocal
	}
	body.UserId = h.resolveUserId(ctx, body.UserId)

	roomId, err := h.service.CreateRoom(ctx.Request.Context(), body.UserId, body.Nickname, body.GameMode)
	if err != nil {
		respondError(ctx, err)
		return
	}

	if err := h.tokens.SetUserCookie(ctx, body.UserId); err != nil {
		log.Error().Err(err).Msg("failed to mint identity token")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"room_id": roomId, "user_id": body.UserId})
}

func (h *Handler) JoinRoomHandler(ctx *gin.Context) {
	var body struct {
		UserId   string `json:"user_id"`
		Nickname string `json:"nickname"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}
	body.UserId = h.resolveUserId(ctx, body.UserId)

	status, err := h.service.JoinRoom(ctx.Request.Context(), ctx.Param("roomid"), body.UserId, body.Nickname)
	if err != nil {
		respondError(ctx, err)
		return
	}

	if err := h.tokens.SetUserCookie(ctx, body.UserId); err != nil {
		log.Error().Err(err).Msg("failed to mint identity token")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"room_status": status, "user_id": body.UserId})
}

func (h *Handler) StartGameHandler(ctx *gin.Context) {
	userId := ctx.GetString(identity.ContextKey)

	mode, err := h.service.StartGame(ctx.Request.Context(), ctx.Param("roomid"), userId)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"game_mode": mode})
}

func (h *Handler) SubmitGuessHandler(ctx *gin.Context) {
	userId := ctx.GetString(identity.ContextKey)

	if !h.guessLimiter(userId).Allow() {
		ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too-many-guesses"})
		return
	}

	var body struct {
		Word string `json:"word"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}

	result, err := h.service.SubmitGuess(ctx.Request.Context(), ctx.Param("roomid"), userId, body.Word)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (h *Handler) RematchHandler(ctx *gin.Context) {
	userId := ctx.GetString(identity.ContextKey)

	roomId, mode, err := h.service.CreateRematch(ctx.Request.Context(), ctx.Param("roomid"), userId)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"room_id": roomId, "game_mode": mode})
}

func (h *Handler) SnapshotHandler(ctx *gin.Context) {
	snap, err := h.service.Snapshot(ctx.Request.Context(), ctx.Param("roomid"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, snap)
}

func (h *Handler) StatsHandler(ctx *gin.Context) {
	stats, err := h.service.Stats(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "room-not-found"})

	case errors.Is(err, domain.ErrRoomNotWaiting):
		ctx.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "room-not-waiting"})
	case errors.Is(err, domain.ErrGameAlreadyOn):
		ctx.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "game-already-started"})
	case errors.Is(err, domain.ErrGameNotActive):
		ctx.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "game-not-active"})
	case errors.Is(err, domain.ErrAlreadyJoined):
		ctx.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "already-joined"})
	case errors.Is(err, domain.ErrDuplicateGuess):
		ctx.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "word-already-guessed"})

	case errors.Is(err, domain.ErrNotHost):
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not-host"})
	case errors.Is(err, domain.ErrNotAMember):
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not-a-member"})

	case errors.Is(err, domain.ErrEmptyWord), errors.Is(err, domain.ErrWordNotAccepted):
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "word-not-accepted"})
	case errors.Is(err, domain.ErrInvalidNickname):
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-nickname"})
	case errors.Is(err, domain.ErrInvalidGameMode):
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-game-mode"})
	case errors.Is(err, domain.ErrInvalidUserId):
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-user-id"})

	case errors.Is(err, domain.ErrRankingUnavailable):
		ctx.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "ranking-unavailable"})

	case errors.Is(err, context.DeadlineExceeded):
		ctx.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "server-timeout"})
	case errors.Is(err, context.Canceled):
		ctx.AbortWithStatus(499) // http code for "Client Closed Request"

	default:
		log.Error().Err(err).Str("path", ctx.FullPath()).Msg("unexpected error")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
	}
}
