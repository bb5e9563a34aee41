package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/aide/core"
)

const maxTokensLimit = 8192

type chatFlags struct {
	prompt      string
	system      string
	temperature float64
	maxTokens   int
	stream      bool
}

func (a *App) newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send a message to a model",
		Long: `Send a message to a Claude model and print the reply.

Examples:
  aide chat --prompt "Hello"
  aide chat --prompt "Hello" --stream
  aide chat --prompt "Hello" --system "Answer in French" --json
  aide chat --prompt "Hello" --bridge ws://127.0.0.1:7878/bridge`,
		RunE: a.runChat,
	}

	cmd.Flags().StringVar(&a.chat.prompt, "prompt", "", "User message (required)")
	cmd.Flags().StringVar(&a.chat.system, "system", "", "System message")
	cmd.Flags().Float64Var(&a.chat.temperature, "temperature", 0, "Temperature in 0..1 (unset = config or default)")
	cmd.Flags().IntVar(&a.chat.maxTokens, "max-tokens", 0, "Max tokens (0 = config or default)")
	cmd.Flags().BoolVar(&a.chat.stream, "stream", false, "Print the reply as it arrives")

	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func (a *App) runChat(cmd *cobra.Command, args []string) error {
	opts := core.SendOptions{MaxTokens: a.chat.maxTokens}
	if a.chat.maxTokens < 0 || a.chat.maxTokens > maxTokensLimit {
		return exitWithCode(ExitValidation, fmt.Errorf("--max-tokens must be in 1..%d", maxTokensLimit))
	}
	if cmd.Flags().Changed("temperature") {
		if a.chat.temperature < 0 || a.chat.temperature > 1 {
			return exitWithCode(ExitValidation, fmt.Errorf("--temperature must be in 0..1"))
		}
		opts.Temperature = core.Float64(a.chat.temperature)
	}

	var messages []core.Message
	if a.chat.system != "" {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: a.chat.system})
	}
	messages = append(messages, core.Message{Role: core.RoleUser, Content: a.chat.prompt})

	ctx := cmd.Context()
	exec, release, err := a.newExecutor(ctx)
	if err != nil {
		return err
	}
	defer release()

	var onProgress func(string)
	if a.chat.stream {
		onProgress = func(string) {}
		if !a.jsonOutput {
			onProgress = func(delta string) { fmt.Fprint(a.stdout, delta) }
		}
	}

	resp, err := exec.SendMessage(ctx, messages, "", opts, onProgress)
	if a.chat.stream && !a.jsonOutput {
		fmt.Fprintln(a.stdout)
	}
	if err != nil {
		return providerFailure(err)
	}

	if a.jsonOutput {
		return a.outputJSON(resp)
	}
	if !a.chat.stream {
		fmt.Fprintln(a.stdout, resp.Text())
	}
	for _, use := range resp.ToolUses() {
		fmt.Fprintf(a.stdout, "[tool_use %s %s %s]\n", use.ID, use.Name, use.Input)
	}

	if a.verbose && resp.Usage != nil {
		fmt.Fprintf(a.stderr, "Usage: %d input + %d output = %d total tokens\n",
			resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.Total())
	}
	return nil
}

func (a *App) outputJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
