package anthropic

import "github.com/petal-labs/aide/core"

// APIKeyEnvVar is the environment variable consulted for the API key when
// no stored key exists.
const APIKeyEnvVar = "ANTHROPIC_API_KEY"

// Models returns the list of available models.
func (c *Client) Models() []core.ModelInfo {
	return Models()
}

// Supports reports whether the provider supports the given feature.
func (c *Client) Supports(feature core.Feature) bool {
	switch feature {
	case core.FeatureChat, core.FeatureChatStreaming, core.FeatureToolCalling, core.FeatureVision:
		return true
	default:
		return false
	}
}
