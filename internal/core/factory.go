// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"

	"privacy-sentinel/internal/config"
	"privacy-sentinel/internal/observability"
	"privacy-sentinel/internal/resilience"
	"privacy-sentinel/internal/suppressions"
	"privacy-sentinel/internal/supplemental"

	"github.com/rs/zerolog"
)

// BuildEngine constructs the engine described by the resolved defaults.
// When supplementalEnabled is set the collaborator client is created from
// cfg.Supplemental; a missing API key is an error unless a custom base URL
// (such as a local model server) is configured.
func BuildEngine(cfg *config.Config, defaults config.Defaults, supplementalEnabled bool, logger zerolog.Logger) (*Engine, error) {
	level, err := observability.ParseLevel(defaults.Observability)
	if err != nil {
		return nil, err
	}
	observer := observability.NewStandardObserver(level, logger)

	categories, err := ParseCategories(defaults.Categories)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithObserver(observer),
		WithCategories(categories),
		WithContextWindow(defaults.ContextWindow),
	}

	if supplementalEnabled {
		client, err := BuildCollaborator(cfg.Supplemental, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts,
			WithSupplemental(client),
			WithCollaboratorTimeout(cfg.Supplemental.Timeout),
		)
		if cfg.Supplemental.Validate {
			opts = append(opts, WithValidator(client))
		}
	}

	return NewEngine(opts...), nil
}

// BuildCollaborator creates the OpenAI-compatible client with its retry
// policy and circuit breaker.
func BuildCollaborator(sc config.Supplemental, logger zerolog.Logger) (*supplemental.OpenAIClient, error) {
	key := sc.APIKey()
	if key == "" && sc.BaseURL == "" {
		return nil, fmt.Errorf("supplemental detection enabled but $%s is not set", sc.APIKeyEnv)
	}

	breakerCfg := resilience.DefaultBreakerConfig("supplemental")
	if sc.FailureThreshold > 0 {
		breakerCfg.FailureThreshold = sc.FailureThreshold
	}
	if sc.Cooldown > 0 {
		breakerCfg.Cooldown = sc.Cooldown
	}
	breakerCfg.OnStateChange = func(name string, from, to resilience.BreakerState) {
		logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
			Msg("circuit breaker state changed")
	}

	retry := resilience.DefaultRetryPolicy()
	retry.MaxRetries = sc.MaxRetries
	retry.OnRetry = func(attempt int, err error) {
		logger.Debug().Int("attempt", attempt).Err(err).Msg("retrying supplemental call")
	}

	return supplemental.NewOpenAIClient(supplemental.ClientConfig{
		APIKey:            key,
		BaseURL:           sc.BaseURL,
		Model:             sc.Model,
		RequestsPerSecond: sc.RequestsPerSecond,
		Burst:             sc.Burst,
		Retry:             retry,
		Breaker:           resilience.NewBreaker(breakerCfg),
	}), nil
}

// BuildSuppressionManager loads the rule file named by override or, when
// empty, by the configuration. It returns nil when suppressions are
// disabled.
func BuildSuppressionManager(cfg *config.Config, override string) (*suppressions.SuppressionManager, error) {
	path := override
	if path == "" {
		if !cfg.Suppressions.Enabled {
			return nil, nil
		}
		path = cfg.Suppressions.File
	}
	return suppressions.Load(path)
}
