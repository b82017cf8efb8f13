// Package ranking resolves how close a guessed word is to a room's secret.
// Rank 1 is an exact match; higher ranks are semantically farther away.
package ranking

import (
	"context"

	"github.com/WalSacramento/contexto-live/internal/domain"
)

type Provider interface {
	Rank(ctx context.Context, target domain.RankTarget, word string) (int, error)
}
