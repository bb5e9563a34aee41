package core

// charsPerToken is the rough ratio used for local budget checks.
const charsPerToken = 4

// EstimateTokens approximates the token count of text as one token per four
// bytes, rounded up. It never touches the network and is not billing-accurate.
func EstimateTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}
