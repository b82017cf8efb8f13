package ranking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WalSacramento/contexto-live/internal/domain"
)

func remoteTarget(day int) domain.RankTarget {
	return domain.RankTarget{Mode: domain.ModeRemote, GameDay: day}
}

func TestRemoteProvider_MapsDistanceToRank(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/machado/pt-br/game/42/lua", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"distance": 17, "word": "lua"}`))
	}))
	defer server.Close()

	p := NewRemoteProvider(server.URL, "machado", "pt-br", time.Second)
	rank, err := p.Rank(context.Background(), remoteTarget(42), "lua")
	require.NoError(t, err)

	// The service's distance is zero-based; rank is one-based.
	assert.Equal(t, 18, rank)
}

func TestRemoteProvider_ExactWord(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"distance": 0, "word": "sol"}`))
	}))
	defer server.Close()

	p := NewRemoteProvider(server.URL, "machado", "pt-br", time.Second)
	rank, err := p.Rank(context.Background(), remoteTarget(1), "sol")
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
}

func TestRemoteProvider_WordNotAccepted(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Essa palavra não vale"}`))
	}))
	defer server.Close()

	p := NewRemoteProvider(server.URL, "machado", "pt-br", time.Second)
	_, err := p.Rank(context.Background(), remoteTarget(1), "xyzzy")
	assert.ErrorIs(t, err, domain.ErrWordNotAccepted)
}

func TestRemoteProvider_ServerErrorUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewRemoteProvider(server.URL, "machado", "pt-br", time.Second)
	_, err := p.Rank(context.Background(), remoteTarget(1), "sol")
	assert.ErrorIs(t, err, domain.ErrRankingUnavailable)
}

func TestRemoteProvider_TimeoutUnavailable(t *testing.T) {
	t.Parallel()

	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	p := NewRemoteProvider(server.URL, "machado", "pt-br", 50*time.Millisecond)
	_, err := p.Rank(context.Background(), remoteTarget(1), "sol")
	assert.ErrorIs(t, err, domain.ErrRankingUnavailable)
}

func TestRemoteProvider_MalformedBodyUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	p := NewRemoteProvider(server.URL, "machado", "pt-br", time.Second)
	_, err := p.Rank(context.Background(), remoteTarget(1), "sol")
	assert.ErrorIs(t, err, domain.ErrRankingUnavailable)
}
