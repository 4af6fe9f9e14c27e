// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package suppressions

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"privacy-sentinel/internal/detector"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// DefaultTTL is applied to rules added without an explicit expiry
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrRuleExists is returned when a rule for the same finding is present
	ErrRuleExists = errors.New("suppression rule already exists for this finding")
	// ErrRuleNotFound is returned when no rule carries the requested ID
	ErrRuleNotFound = errors.New("suppression rule not found")
)

// SuppressionRule represents a single suppression rule. The finding value
// itself is never stored, only its hash.
type SuppressionRule struct {
	ID         string            `yaml:"id" json:"id"`
	Hash       string            `yaml:"hash" json:"hash"`
	Category   detector.Category `yaml:"category" json:"category"`
	Reason     string            `yaml:"reason" json:"reason"`
	Enabled    bool              `yaml:"enabled" json:"enabled"`
	CreatedBy  string            `yaml:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt  time.Time         `yaml:"created_at" json:"created_at"`
	LastSeenAt *time.Time        `yaml:"last_seen_at,omitempty" json:"last_seen_at,omitempty"`
	ExpiresAt  *time.Time        `yaml:"expires_at,omitempty" json:"expires_at,omitempty"`
	Metadata   map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Expired reports whether the rule's expiry lies before now
func (r SuppressionRule) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// SuppressionConfig represents the suppression configuration file
type SuppressionConfig struct {
	Version string            `yaml:"version"`
	Rules   []SuppressionRule `yaml:"rules"`
}

// SuppressionManager handles finding suppressions. It is safe for
// concurrent use.
type SuppressionManager struct {
	mu         sync.RWMutex
	configPath string
	config     *SuppressionConfig
	enabled    bool
	now        func() time.Time
}

// NewSuppressionManager loads rules from configPath. A missing or
// unreadable file yields an empty rule set; LoadError reports why.
func NewSuppressionManager(configPath string) *SuppressionManager {
	sm := &SuppressionManager{
		configPath: configPath,
		enabled:    true,
		now:        time.Now,
	}
	_ = sm.load()
	return sm
}

// Load is like NewSuppressionManager but fails on a file that exists and
// cannot be parsed.
func Load(configPath string) (*SuppressionManager, error) {
	sm := &SuppressionManager{
		configPath: configPath,
		enabled:    true,
		now:        time.Now,
	}
	if err := sm.load(); err != nil {
		return nil, err
	}
	return sm, nil
}

func emptyConfig() *SuppressionConfig {
	return &SuppressionConfig{Version: "1.0", Rules: []SuppressionRule{}}
}

func (sm *SuppressionManager) load() error {
	sm.config = emptyConfig()
	if sm.configPath == "" {
		return nil
	}

	data, err := os.ReadFile(filepath.Clean(sm.configPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read suppression file: %w", err)
	}

	var config SuppressionConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse suppression file: %w", err)
	}
	if config.Version == "" {
		config.Version = "1.0"
	}
	if config.Rules == nil {
		config.Rules = []SuppressionRule{}
	}
	sm.config = &config
	return nil
}

// FindingHash identifies a finding by category and raw value
func FindingHash(category detector.Category, rawValue string) string {
	sum := sha256.Sum256([]byte(string(category) + "|" + strings.TrimSpace(rawValue)))
	return fmt.Sprintf("%x", sum)
}

func hashOf(match detector.Match) string {
	return FindingHash(match.Category, match.RawValue)
}

// IsSuppressed checks if a finding should be suppressed
func (sm *SuppressionManager) IsSuppressed(match detector.Match) (bool, *SuppressionRule) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if !sm.enabled {
		return false, nil
	}

	hash := hashOf(match)
	now := sm.now()
	for _, rule := range sm.config.Rules {
		if rule.Hash != hash || !rule.Enabled || rule.Expired(now) {
			continue
		}
		r := rule
		return true, &r
	}
	return false, nil
}

// GetExpiredRule returns an enabled rule for the finding that has expired
func (sm *SuppressionManager) GetExpiredRule(match detector.Match) *SuppressionRule {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if !sm.enabled {
		return nil
	}

	hash := hashOf(match)
	now := sm.now()
	for _, rule := range sm.config.Rules {
		if rule.Hash == hash && rule.Enabled && rule.Expired(now) {
			r := rule
			return &r
		}
	}
	return nil
}

// Apply splits matches into those still reported and those covered by an
// active rule. Matches covered only by an expired rule stay reported.
func (sm *SuppressionManager) Apply(matches []detector.Match) ([]detector.Match, []detector.SuppressedMatch) {
	kept := make([]detector.Match, 0, len(matches))
	var suppressed []detector.SuppressedMatch
	for _, m := range matches {
		ok, rule := sm.IsSuppressed(m)
		if !ok {
			kept = append(kept, m)
			continue
		}
		suppressed = append(suppressed, detector.SuppressedMatch{
			Match:        m,
			SuppressedBy: rule.ID,
			RuleReason:   rule.Reason,
			ExpiresAt:    rule.ExpiresAt,
		})
	}
	return kept, suppressed
}

// AddSuppression adds a rule for match and persists the rule file. A nil
// expiresAt defaults to DefaultTTL from now.
func (sm *SuppressionManager) AddSuppression(match detector.Match, reason, createdBy string, expiresAt *time.Time) (*SuppressionRule, error) {
	if !match.Category.Valid() {
		return nil, fmt.Errorf("unknown category %q", match.Category)
	}
	if strings.TrimSpace(match.RawValue) == "" {
		return nil, errors.New("finding value must not be empty")
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	hash := hashOf(match)
	for _, rule := range sm.config.Rules {
		if rule.Hash == hash {
			return nil, fmt.Errorf("%w (rule %s)", ErrRuleExists, rule.ID)
		}
	}

	now := sm.now()
	if expiresAt == nil {
		expiry := now.Add(DefaultTTL)
		expiresAt = &expiry
	}

	rule := SuppressionRule{
		ID:        "SUP-" + strings.ToUpper(uuid.NewString()[:8]),
		Hash:      hash,
		Category:  match.Category,
		Reason:    reason,
		Enabled:   true,
		CreatedBy: createdBy,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		Metadata: map[string]string{
			"masked_value": match.MaskedValue,
		},
	}
	sm.config.Rules = append(sm.config.Rules, rule)
	if err := sm.saveLocked(); err != nil {
		sm.config.Rules = sm.config.Rules[:len(sm.config.Rules)-1]
		return nil, err
	}
	return &rule, nil
}

// RemoveSuppression removes a suppression rule by ID
func (sm *SuppressionManager) RemoveSuppression(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for i, rule := range sm.config.Rules {
		if rule.ID == id {
			sm.config.Rules = append(sm.config.Rules[:i], sm.config.Rules[i+1:]...)
			return sm.saveLocked()
		}
	}
	return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
}

// ListSuppressions returns a copy of all suppression rules
func (sm *SuppressionManager) ListSuppressions() []SuppressionRule {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]SuppressionRule, len(sm.config.Rules))
	copy(out, sm.config.Rules)
	return out
}

// CleanupExpired removes expired suppression rules and returns how many
// were dropped
func (sm *SuppressionManager) CleanupExpired() (int, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.now()
	active := make([]SuppressionRule, 0, len(sm.config.Rules))
	for _, rule := range sm.config.Rules {
		if !rule.Expired(now) {
			active = append(active, rule)
		}
	}

	removed := len(sm.config.Rules) - len(active)
	if removed == 0 {
		return 0, nil
	}
	sm.config.Rules = active
	return removed, sm.saveLocked()
}

// MarkSeen stamps last_seen_at on every rule that suppressed one of the
// given findings. It does not persist.
func (sm *SuppressionManager) MarkSeen(suppressed []detector.SuppressedMatch) {
	if len(suppressed) == 0 {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.now()
	ids := make(map[string]bool, len(suppressed))
	for _, s := range suppressed {
		ids[s.SuppressedBy] = true
	}
	for i := range sm.config.Rules {
		if ids[sm.config.Rules[i].ID] {
			sm.config.Rules[i].LastSeenAt = &now
		}
	}
}

// Save writes the rule file
func (sm *SuppressionManager) Save() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.saveLocked()
}

func (sm *SuppressionManager) saveLocked() error {
	if sm.configPath == "" {
		return errors.New("no suppression file configured")
	}

	data, err := yaml.Marshal(sm.config)
	if err != nil {
		return fmt.Errorf("failed to marshal suppression config: %w", err)
	}

	dir := filepath.Dir(sm.configPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(sm.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write suppression config: %w", err)
	}
	return nil
}

// SetEnabled enables or disables the suppression manager
func (sm *SuppressionManager) SetEnabled(enabled bool) {
	sm.mu.Lock()
	sm.enabled = enabled
	sm.mu.Unlock()
}

// IsEnabled returns whether the suppression manager is enabled
func (sm *SuppressionManager) IsEnabled() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.enabled
}

// GetConfigPath returns the path to the suppression config file
func (sm *SuppressionManager) GetConfigPath() string {
	return sm.configPath
}
