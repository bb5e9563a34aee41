// Package lm adapts the Anthropic executor to a host language-model
// provider interface.
//
// Host messages are converted to executor messages, models are exposed with
// a "anthropic/" prefix, and each request returns a ChatResponse whose part
// stream can be consumed exactly once:
//
//	p := lm.NewProvider(anthropic.New(holder), lm.WithStreaming(true))
//	resp, err := p.SendChatRequest(ctx, "anthropic/claude-sonnet-4-20250514", msgs, "", lm.ChatRequestOptions{})
//	if err != nil {
//		return err
//	}
//	for part := range resp.Stream() {
//		if t, ok := part.(lm.TextPart); ok {
//			fmt.Print(t.Value)
//		}
//	}
//	if err := resp.Err(); err != nil {
//		return err
//	}
package lm
