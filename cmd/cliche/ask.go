package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sizzlebop/CLIche/internal/sysinfo"
)

const snarkySystemPrompt = "You are cliche, a terminal assistant with a dry, sarcastic streak. " +
	"Answer accurately and completely, but feel free to be witty about it. Keep answers in markdown."

const professionalSystemPrompt = "You are cliche, a concise and professional terminal assistant. " +
	"Answer accurately in markdown without editorializing."

var askProfessional bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the active model a one-shot question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		client, err := newLLMClient()
		if err != nil {
			return err
		}

		system := snarkySystemPrompt
		if askProfessional || cfg.Professional {
			system = professionalSystemPrompt
			if info, err := sysinfo.Collect(); err == nil {
				system += " " + info.PromptContext()
			}
		}

		logger.Debug("asking", zap.String("model", client.Model()), zap.Int("question_len", len(question)))
		answer, err := client.CompleteWithSystem(cmd.Context(), system, question)
		if err != nil {
			return err
		}

		return renderMarkdown(cmd, answer)
	},
}

// renderMarkdown pretty-prints markdown to the terminal, falling back to
// plain output when the renderer cannot start (e.g. piped output).
func renderMarkdown(cmd *cobra.Command, markdown string) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		if out, rerr := renderer.Render(markdown); rerr == nil {
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), markdown)
	return nil
}

func init() {
	askCmd.Flags().BoolVar(&askProfessional, "professional", false, "drop the snark and include host context")
	rootCmd.AddCommand(askCmd)
}
