package ranking

import (
	"context"
	"fmt"
	"math"

	"github.com/WalSacramento/contexto-live/internal/domain"
)

// LocalProvider ranks guesses against the self-hosted embedding dictionary.
// The whole dictionary is held in memory; it is immutable at serving time.
type LocalProvider struct {
	entries []domain.DictionaryEntry
	byWord  map[string]int
	byId    map[int64]int
}

func NewLocalProvider(entries []domain.DictionaryEntry) *LocalProvider {
	p := &LocalProvider{
		entries: entries,
		byWord:  make(map[string]int, len(entries)),
		byId:    make(map[int64]int, len(entries)),
	}
	for i, e := range entries {
		p.byWord[e.Word] = i
		p.byId[e.Id] = i
	}
	return p
}

// Rank orders the dictionary by ascending cosine distance to the secret and
// returns the candidate's 1-based position. Only the secret itself ranks 1;
// words outside the dictionary are rejected as not accepted.
func (p *LocalProvider) Rank(ctx context.Context, target domain.RankTarget, word string) (int, error) {
	si, ok := p.byId[target.SecretWordId]
	if !ok {
		return 0, fmt.Errorf("%w: secret word id %d not in dictionary", domain.ErrRankingUnavailable, target.SecretWordId)
	}
	ci, ok := p.byWord[word]
	if !ok {
		return 0, domain.ErrWordNotAccepted
	}

	secret := p.entries[si]
	if p.entries[ci].Id == secret.Id {
		return 1, nil
	}

	// The secret itself always holds rank 1, so any other word starts at 2
	// even when its embedding ties the secret's distance of zero.
	dist := cosineDistance(p.entries[ci].Embedding, secret.Embedding)
	rank := 2
	for i := range p.entries {
		if i == si || i == ci {
			continue
		}
		if cosineDistance(p.entries[i].Embedding, secret.Embedding) < dist {
			rank++
		}
	}
	return rank, nil
}

// cosineDistance is 1 - cos(a, b). Degenerate vectors rank as far as
// possible instead of propagating NaN.
func cosineDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
