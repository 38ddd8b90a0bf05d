// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/askq/internal/model"
	"github.com/jeranaias/askq/internal/session"
)

// maxStdinQuestion bounds a question read from a pipe.
const maxStdinQuestion = 1 << 20

// askOptions are the flags of the ask command.
type askOptions struct {
	markdown bool
	json     bool
}

// askResult is the --json output of the ask command.
type askResult struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Error    *string `json:"error"`
}

func newAskCmd(g *globalOptions) *cobra.Command {
	opts := askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask a single question and print the answer",
		Long: `Ask sends one question to the completion endpoint and prints the answer.

With no arguments the question is read from stdin.`,
		Example: `  askq ask "What is the capital of France?"
  askq ask --markdown "Explain goroutines"
  echo "Summarise TCP" | askq ask --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := questionFrom(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			a, err := g.setup()
			if err != nil {
				return err
			}
			defer a.Close()

			return runAsk(cmd.Context(), cmd.OutOrStdout(), a.client, question, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.markdown, "markdown", false, "render the answer's markdown")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	cmd.MarkFlagsMutuallyExclusive("markdown", "json")
	return cmd
}

// questionFrom joins the arguments, or reads stdin when there are none and
// stdin is not a terminal.
func questionFrom(args []string, stdin io.Reader) (string, error) {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" && !IsTTY() {
		data, err := io.ReadAll(io.LimitReader(stdin, maxStdinQuestion))
		if err != nil {
			return "", errors.Wrap(err, "read question from stdin")
		}
		question = strings.TrimSpace(string(data))
	}
	if question == "" {
		return "", errors.New("no question given")
	}
	return question, nil
}

// rawRecorder remembers the last uncleaned answer so --markdown can render
// the formatting the session strips.
type rawRecorder struct {
	session.Completer

	mu  sync.Mutex
	raw string
}

func (r *rawRecorder) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := r.Completer.Generate(ctx, prompt)
	if err == nil {
		r.mu.Lock()
		r.raw = text
		r.mu.Unlock()
	}
	return text, err
}

func (r *rawRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.raw
}

// runAsk performs one question/answer cycle through a throwaway session.
func runAsk(ctx context.Context, w io.Writer, completer session.Completer, question string, opts askOptions) error {
	recorder := &rawRecorder{Completer: completer}
	sess := session.New(recorder)

	submitErr := sess.SubmitQuestion(ctx, question)

	var answer string
	if turn, ok := model.LastAnswer(sess.Snapshot().ActiveTranscript); ok {
		answer = turn.Text
	}

	switch {
	case opts.json:
		result := askResult{Question: question, Answer: answer}
		if submitErr != nil {
			msg := submitErr.Error()
			result.Error = &msg
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return errors.Wrap(err, "encode result")
		}
		return submitErr

	case submitErr != nil:
		return submitErr

	case opts.markdown:
		rendered, err := renderMarkdown(recorder.last(), GetTerminalWidth())
		if err != nil {
			return err
		}
		fmt.Fprint(w, rendered)
		return nil

	default:
		fmt.Fprintln(w, answer)
		return nil
	}
}

// renderMarkdown renders md with glamour for the current terminal.
func renderMarkdown(md string, width int) (string, error) {
	style := glamour.WithAutoStyle()
	if GetColorProfile() == termenv.Ascii {
		style = glamour.WithStandardStyle("notty")
	}

	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width-2))
	if err != nil {
		return "", errors.Wrap(err, "create markdown renderer")
	}
	out, err := r.Render(md)
	if err != nil {
		return "", errors.Wrap(err, "render markdown")
	}
	return out, nil
}
