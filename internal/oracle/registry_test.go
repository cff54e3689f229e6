package oracle

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsLabeler/internal/config"
	"NewsLabeler/internal/domain"
	"NewsLabeler/internal/ports"
)

type namedOracle string

func (n namedOracle) Name() string { return string(n) }

func (n namedOracle) Score(context.Context, string, []domain.Category) (domain.ScoreResult, error) {
	return nil, nil
}

func TestRegistryBuildsRegisteredBackend(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register("http", func(cfg config.Config, _ *slog.Logger) (ports.ScoreOracle, error) {
		return namedOracle(cfg.Classifier.Endpoint), nil
	})

	cfg := config.Default()
	cfg.Classifier.Endpoint = "http://classifier.local"

	got, err := registry.Build("http", cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://classifier.local", got.Name())
}

func TestRegistryUnknownBackend(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register("hugot", nil)
	registry.Register("chatgpt", nil)

	_, err := registry.Build("bert", config.Default(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bert")
	assert.Equal(t, []string{"chatgpt", "hugot"}, registry.Names())
}

func TestRegistryWrapsFactoryErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("model download failed")
	var registry Registry
	registry.Register("hugot", func(config.Config, *slog.Logger) (ports.ScoreOracle, error) {
		return nil, boom
	})

	_, err := registry.Build("hugot", config.Default(), nil)
	require.ErrorIs(t, err, boom)
}
