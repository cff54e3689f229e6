// Package cache memoizes zero-shot scores.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"NewsLabeler/internal/domain"
	"NewsLabeler/internal/logging"
	"NewsLabeler/internal/ports"
)

const keyPrefix = "newslabel:scores:"

// ScoreCache wraps an oracle and reuses scores for text it has seen.
// Store failures degrade to a direct call.
type ScoreCache struct {
	next     ports.ScoreOracle
	store    Store
	template string
	ttl      time.Duration
	logger   *slog.Logger
}

var _ ports.ScoreOracle = (*ScoreCache)(nil)

// NewScoreCache decorates next. template is part of the key so a changed
// hypothesis never serves stale scores.
func NewScoreCache(next ports.ScoreOracle, store Store, template string, ttl time.Duration, logger *slog.Logger) *ScoreCache {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ScoreCache{next: next, store: store, template: template, ttl: ttl, logger: logger}
}

// Name reports the wrapped oracle.
func (c *ScoreCache) Name() string {
	return c.next.Name()
}

type cachedScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Score serves from the store when possible.
func (c *ScoreCache) Score(ctx context.Context, text string, labels []domain.Category) (domain.ScoreResult, error) {
	key := c.key(text, labels)

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		if result, ok := decode(raw, labels); ok {
			return result, nil
		}
		c.logger.Warn("discarding unreadable cache entry", "key", key)
	case !errors.Is(err, ErrMiss):
		c.logger.Warn("score cache read failed", "error", err)
	}

	result, err := c.next.Score(ctx, text, labels)
	if err != nil {
		return nil, err
	}

	if encoded, merr := encode(result); merr == nil {
		if serr := c.store.Set(ctx, key, encoded, c.ttl); serr != nil {
			c.logger.Warn("score cache write failed", "error", serr)
		}
	}
	return result, nil
}

func (c *ScoreCache) key(text string, labels []domain.Category) string {
	h := sha256.New()
	h.Write([]byte(c.next.Name()))
	h.Write([]byte{0})
	h.Write([]byte(c.template))
	h.Write([]byte{0})
	for _, l := range labels {
		h.Write([]byte(l))
		h.Write([]byte{0})
	}
	h.Write([]byte(text))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func encode(result domain.ScoreResult) ([]byte, error) {
	out := make([]cachedScore, len(result))
	for i, ls := range result {
		out[i] = cachedScore{Label: string(ls.Label), Score: ls.Score}
	}
	return json.Marshal(out)
}

func decode(raw []byte, labels []domain.Category) (domain.ScoreResult, bool) {
	var entries []cachedScore
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	result := make(domain.ScoreResult, len(entries))
	for i, e := range entries {
		result[i] = domain.LabelScore{Label: domain.Category(e.Label), Score: e.Score}
	}
	if result.Validate(labels) != nil {
		return nil, false
	}
	return result, true
}
