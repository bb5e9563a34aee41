// Package anthropic executes requests against the Anthropic Messages API.
//
// A Client reads credentials and generation defaults from a core.Holder and
// hands each resolved Exchange to a Transport. The default HTTPTransport
// posts to {baseUrl}/v1/messages; other transports, such as the bridge relay,
// are selected with WithTransport.
//
//	holder := core.NewHolder(core.Config{APIKey: core.NewSecret(key)})
//	client := anthropic.New(holder)
//	resp, err := client.SendMessage(ctx, msgs, "", core.SendOptions{}, nil)
//
// Passing a progress callback streams the response. Deltas are delivered
// in arrival order and the returned Response carries the accumulated text.
package anthropic
