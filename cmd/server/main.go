package main

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/WalSacramento/contexto-live/internal/configs"
	"github.com/WalSacramento/contexto-live/internal/domain"
	"github.com/WalSacramento/contexto-live/internal/game"
	"github.com/WalSacramento/contexto-live/internal/identity"
	"github.com/WalSacramento/contexto-live/internal/logger"
	"github.com/WalSacramento/contexto-live/internal/migrations"
	"github.com/WalSacramento/contexto-live/internal/ranking"
	"github.com/WalSacramento/contexto-live/internal/realtime"
	"github.com/WalSacramento/contexto-live/internal/storage"
)

func main() {
	envs := configs.Load()
	logger.Setup(envs.GIN_MODE)
	if envs.GIN_MODE == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	if err := migrations.Migrate(envs.POSTGRES_URL); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	repo, err := storage.NewPostgresRepo(ctx, envs.POSTGRES_URL)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to postgres")
	}
	defer repo.Close()

	entries, err := repo.ListDictionary(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load dictionary")
	}
	log.Info().Int("words", len(entries)).Msg("dictionary loaded")

	providers := map[domain.GameMode]game.RankingProvider{
		domain.ModeLocal: ranking.NewLocalProvider(entries),
		domain.ModeRemote: ranking.NewRemoteProvider(
			envs.RANKING_BASE_URL,
			envs.RANKING_NAMESPACE,
			envs.RANKING_LOCALE,
			envs.RANKING_TIMEOUT,
		),
	}

	service := game.NewService(repo, providers, envs.MAX_GAME_DAY)
	tokens := identity.NewTokenManager(envs.JWT_KEY)
	handler := game.NewHandler(service, tokens)

	hub := realtime.NewHub()
	go realtime.NewListener(envs.POSTGRES_URL, hub).Run(ctx)

	var allowedOrigins []string
	if envs.GIN_MODE == "release" {
		allowedOrigins = append(allowedOrigins, "https://"+envs.FRONTEND_ORIGIN)
		allowedOrigins = append(allowedOrigins, "https://www."+envs.FRONTEND_ORIGIN)
	} else {
		allowedOrigins = append(allowedOrigins, "http://"+envs.FRONTEND_ORIGIN)
	}

	r := gin.Default()

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}

		ctx.JSON(http.StatusForbidden, gin.H{"error": "forbidden origin"})
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{"Content-Type", "Origin"},
	}))

	game.RegisterRoutes(r, handler, tokens)
	realtime.RegisterRoutes(r, realtime.NewWSHandler(hub))

	log.Info().Str("addr", envs.LISTEN_ADDR).Msg("api listening")
	if err := r.Run(envs.LISTEN_ADDR); err != nil {
		log.Fatal().Err(err).Msg("couldn't start server")
	}
}
