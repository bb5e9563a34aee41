package anthropic

import "github.com/petal-labs/aide/core"

// Model constants for Anthropic Claude models.
const (
	ModelClaudeSonnet4  core.ModelID = "claude-sonnet-4-20250514"
	ModelClaudeOpus4    core.ModelID = "claude-opus-4-20250514"
	ModelClaudeSonnet37 core.ModelID = "claude-3-7-sonnet-20250219"
	ModelClaudeSonnet35 core.ModelID = "claude-3-5-sonnet-20241022"
	ModelClaudeHaiku35  core.ModelID = "claude-3-5-haiku-20241022"
)

// TestConnectionModel is the low-cost model used by TestConnection.
const TestConnectionModel = ModelClaudeHaiku35

var fullCapabilities = []core.Feature{
	core.FeatureChat,
	core.FeatureChatStreaming,
	core.FeatureToolCalling,
	core.FeatureVision,
}

// models is the static list of supported models. Exactly one is default.
var models = []core.ModelInfo{
	{
		ID:              ModelClaudeSonnet4,
		DisplayName:     "Claude Sonnet 4",
		Family:          "claude-4",
		Version:         "20250514",
		MaxInputTokens:  200000,
		MaxOutputTokens: 64000,
		Capabilities:    fullCapabilities,
		IsDefault:       true,
	},
	{
		ID:              ModelClaudeOpus4,
		DisplayName:     "Claude Opus 4",
		Family:          "claude-4",
		Version:         "20250514",
		MaxInputTokens:  200000,
		MaxOutputTokens: 32000,
		Capabilities:    fullCapabilities,
	},
	{
		ID:              ModelClaudeSonnet37,
		DisplayName:     "Claude 3.7 Sonnet",
		Family:          "claude-3.7",
		Version:         "20250219",
		MaxInputTokens:  200000,
		MaxOutputTokens: 64000,
		Capabilities:    fullCapabilities,
	},
	{
		ID:              ModelClaudeSonnet35,
		DisplayName:     "Claude 3.5 Sonnet",
		Family:          "claude-3.5",
		Version:         "20241022",
		MaxInputTokens:  200000,
		MaxOutputTokens: 8192,
		Capabilities:    fullCapabilities,
	},
	{
		ID:              ModelClaudeHaiku35,
		DisplayName:     "Claude 3.5 Haiku",
		Family:          "claude-3.5",
		Version:         "20241022",
		MaxInputTokens:  200000,
		MaxOutputTokens: 8192,
		Capabilities: []core.Feature{
			core.FeatureChat,
			core.FeatureChatStreaming,
			core.FeatureToolCalling,
		},
	},
}

// modelRegistry is a map for quick model lookup by ID.
var modelRegistry = buildModelRegistry()

func buildModelRegistry() map[core.ModelID]*core.ModelInfo {
	registry := make(map[core.ModelID]*core.ModelInfo, len(models))
	for i := range models {
		registry[models[i].ID] = &models[i]
	}
	return registry
}

// Models returns a copy of the model catalog.
func Models() []core.ModelInfo {
	result := make([]core.ModelInfo, len(models))
	for i, m := range models {
		m.Capabilities = append([]core.Feature(nil), m.Capabilities...)
		result[i] = m
	}
	return result
}

// GetModelInfo returns the ModelInfo for a given model ID, or nil if not found.
func GetModelInfo(id core.ModelID) *core.ModelInfo {
	m, ok := modelRegistry[id]
	if !ok {
		return nil
	}
	info := *m
	return &info
}

// DefaultModel returns the catalog entry marked as default.
func DefaultModel() core.ModelID {
	for _, m := range models {
		if m.IsDefault {
			return m.ID
		}
	}
	return models[0].ID
}
