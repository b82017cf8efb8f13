package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/WalSacramento/contexto-live/internal/domain"
)

// RemoteProvider proxies ranking to the external contexto API, keyed by the
// room's game day. Every guess is one round trip; there is no cache.
type RemoteProvider struct {
	client    *http.Client
	baseURL   string
	namespace string
	locale    string
}

func NewRemoteProvider(baseURL, namespace, locale string, timeout time.Duration) *RemoteProvider {
	return &RemoteProvider{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		namespace: namespace,
		locale:    locale,
	}
}

// apiResponse is the external service's wire format. Distance is zero-based
// (0 = exact match); an error field instead of a distance means the word
// was not accepted.
type apiResponse struct {
	Distance *int   `json:"distance"`
	Lemma    string `json:"lemma"`
	Word     string `json:"word"`
	Error    string `json:"error"`
}

func (p *RemoteProvider) Rank(ctx context.Context, target domain.RankTarget, word string) (int, error) {
	reqURL := fmt.Sprintf("%s/%s/%s/game/%d/%s",
		p.baseURL, p.namespace, p.locale, target.GameDay, url.PathEscape(word))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrRankingUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ContextoLive/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrRankingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: ranking service returned %d", domain.ErrRankingUnavailable, resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrRankingUnavailable, err)
	}

	if body.Error != "" {
		return 0, fmt.Errorf("%w: %s", domain.ErrWordNotAccepted, body.Error)
	}

	// Missing distance on a success response counts as 0, matching the
	// service's own convention for the exact word.
	rank := 1
	if body.Distance != nil {
		rank = *body.Distance + 1
	}
	return rank, nil
}
