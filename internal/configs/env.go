package configs

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Env struct {
	LISTEN_ADDR     string
	FRONTEND_ORIGIN string
	GIN_MODE        string
	POSTGRES_URL    string
	JWT_KEY         []byte

	RANKING_BASE_URL  string
	RANKING_NAMESPACE string
	RANKING_LOCALE    string
	RANKING_TIMEOUT   time.Duration
	MAX_GAME_DAY      int
}

func Load() Env {
	// Missing .env is fine outside development; real env vars win either way.
	godotenv.Load()

	return Env{
		LISTEN_ADDR:     getenv("LISTEN_ADDR", ":5000"),
		FRONTEND_ORIGIN: getenv("FRONTEND_ORIGIN", "localhost:3000"),
		GIN_MODE:        os.Getenv("GIN_MODE"),
		POSTGRES_URL:    os.Getenv("POSTGRES_URL"),
		JWT_KEY:         []byte(os.Getenv("JWT_KEY")),

		RANKING_BASE_URL:  getenv("RANKING_BASE_URL", "https://api.contexto.me"),
		RANKING_NAMESPACE: getenv("RANKING_NAMESPACE", "machado"),
		RANKING_LOCALE:    getenv("RANKING_LOCALE", "pt-br"),
		RANKING_TIMEOUT:   getenvDuration("RANKING_TIMEOUT", 5*time.Second),
		MAX_GAME_DAY:      getenvInt("MAX_GAME_DAY", 1386),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
