package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles. Supports gradual rollout by
// admin, time-based activation, and per-admin overrides for debugging.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	adminOverrides map[string]map[string]bool // adminID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Admins are assigned based on hash of their ID
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	AdminID string
}

// Predefined feature flag names.
const (
	// === Query Pipeline Features ===
	FeatureQueryRefinement      = "query.refinement"       // LLM refinement hook
	FeatureQueryRefinementCache = "query.refinement_cache" // Cache refined intents in Redis
	FeatureQueryExplain         = "query.explain"          // Plan-explanation endpoint

	// === Audit Features ===
	FeatureAuditTrail = "audit.trail" // Persist query events to the audit table

	// === Roster Features ===
	FeatureRosterAutoReload = "roster.auto_reload" // Scheduled roster reloads
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:       make(map[string]*Feature),
		adminOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Kill switch: refinement itself is opted into via REFINEMENT_ENABLED,
	// this flag exists to shut it off without touching provider config.
	ff.features[FeatureQueryRefinement] = &Feature{
		Name:           FeatureQueryRefinement,
		Description:    "LLM refinement of parsed intents",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureQueryRefinementCache] = &Feature{
		Name:           FeatureQueryRefinementCache,
		Description:    "Cache refined intents in Redis",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureQueryExplain] = &Feature{
		Name:           FeatureQueryExplain,
		Description:    "Expose the plan-explanation endpoint",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureAuditTrail] = &Feature{
		Name:           FeatureAuditTrail,
		Description:    "Persist query events to the audit table",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureRosterAutoReload] = &Feature{
		Name:           FeatureRosterAutoReload,
		Description:    "Reload the roster on a schedule",
		Enabled:        true,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_QUERY_REFINEMENT=true
// Example: FEATURE_QUERY_REFINEMENT=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "query.refinement" -> "FEATURE_QUERY_REFINEMENT"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check admin overrides first
	if ctx != nil && ctx.AdminID != "" {
		if overrides, ok := ff.adminOverrides[ctx.AdminID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.AdminID != "" {
		return ff.isInRollout(ctx.AdminID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if an admin is in the rollout percentage.
// Uses consistent hashing so admins stay in their bucket.
func (ff *FeatureFlags) isInRollout(adminID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(adminID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// SetAdminOverride sets a feature override for a specific admin.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetAdminOverride(adminID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.adminOverrides[adminID]; !ok {
		ff.adminOverrides[adminID] = make(map[string]bool)
	}
	ff.adminOverrides[adminID][featureName] = enabled
}

// ClearAdminOverrides removes all overrides for an admin.
func (ff *FeatureFlags) ClearAdminOverrides(adminID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.adminOverrides, adminID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
