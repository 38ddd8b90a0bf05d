// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/askq/internal/config"
	"github.com/jeranaias/askq/internal/model"
	"github.com/jeranaias/askq/internal/session"
	"github.com/jeranaias/askq/internal/util"
)

// historyFileName is the REPL history file inside config.Dir().
const historyFileName = "chat_history"

func newChatCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start a line-mode chat session",
		Long: `Chat reads questions line by line and prints each answer.

Lines starting with / are commands; type /help to list them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := RequiresTTY("start a chat"); err != nil {
				return err
			}
			a, err := g.setup()
			if err != nil {
				return err
			}
			defer a.Close()

			return runChat(cmd.Context(), cmd.OutOrStdout(), a)
		},
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and persistent history for the REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads any saved history.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history owner-readable only.
func (c *ChatCLI) SaveHistory() error {
	var buf bytes.Buffer
	if _, err := c.line.WriteHistory(&buf); err != nil {
		return errors.Wrap(err, "encode history")
	}
	return util.AtomicWriteFile(c.historyFile, buf.Bytes(), 0600, 0700)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	err := c.SaveHistory()
	if cerr := c.line.Close(); err == nil {
		err = cerr
	}
	return err
}

// =============================================================================
// REPL
// =============================================================================

// repl executes chat lines against a session.
type repl struct {
	sess      *session.Session
	out       io.Writer
	clipboard func(string) error
}

func newREPL(sess *session.Session, out io.Writer) *repl {
	return &repl{sess: sess, out: out, clipboard: clipboard.WriteAll}
}

// handle runs one input line. It reports whether the REPL should exit.
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, "/") {
		return r.command(line)
	}
	r.ask(ctx, line)
	return false
}

func (r *repl) ask(ctx context.Context, question string) {
	fmt.Fprintln(r.out, infoStyle.Render("Thinking..."))

	if err := r.sess.SubmitQuestion(ctx, question); err != nil {
		fmt.Fprintln(r.out, errorStyle.Render("Error: ")+err.Error())
		return
	}

	if turn, ok := model.LastAnswer(r.sess.Snapshot().ActiveTranscript); ok {
		fmt.Fprintln(r.out, answerLabelStyle.Render(turn.Kind.DisplayName()+":"))
		fmt.Fprintln(r.out, turn.Text)
		fmt.Fprintln(r.out)
	}
}

func (r *repl) command(line string) bool {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h":
		r.printHelp()

	case "/new", "/n":
		r.sess.StartNewChat()
		fmt.Fprintln(r.out, infoStyle.Render("Started a new chat."))

	case "/list", "/l":
		r.list()

	case "/open", "/o":
		r.open(args)

	case "/copy":
		r.copy()

	default:
		fmt.Fprintf(r.out, "%s %s. Type %s for commands.\n",
			errorStyle.Render("Unknown command"), name, commandStyle.Render("/help"))
	}
	return false
}

func (r *repl) printHelp() {
	cmds := []struct{ name, desc string }{
		{"/new", "start a new chat"},
		{"/list", "list saved chats"},
		{"/open <n>", "continue saved chat n"},
		{"/copy", "copy the last answer to the clipboard"},
		{"/help", "show this help"},
		{"/quit", "exit (also Ctrl+D)"},
	}
	for _, c := range cmds {
		fmt.Fprintf(r.out, "  %-12s %s\n", commandStyle.Render(c.name), infoStyle.Render(c.desc))
	}
}

func (r *repl) list() {
	st := r.sess.Snapshot()
	if len(st.SavedConversations) == 0 {
		fmt.Fprintln(r.out, infoStyle.Render("No saved chats yet."))
		return
	}
	for i, c := range st.SavedConversations {
		marker := " "
		if c.ID == st.ActiveConversationID {
			marker = activeMarkerStyle.Render("*")
		}
		fmt.Fprintf(r.out, "%s %2d. %s %s\n", marker, i+1, c.Title,
			infoStyle.Render(fmt.Sprintf("(%d turns)", c.TurnCount())))
	}
}

func (r *repl) open(args []string) {
	st := r.sess.Snapshot()
	if len(args) != 1 {
		fmt.Fprintln(r.out, errorStyle.Render("Usage: /open <n>"))
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(st.SavedConversations) {
		fmt.Fprintf(r.out, "%s %q\n", errorStyle.Render("No saved chat"), args[0])
		return
	}

	conv := st.SavedConversations[n-1]
	r.sess.SelectConversation(conv.ID)
	fmt.Fprintln(r.out, welcomeStyle.Render(conv.Title))
	for _, turn := range conv.Transcript {
		fmt.Fprintf(r.out, "%s %s\n", answerLabelStyle.Render(turn.Kind.DisplayName()+":"), turn.Text)
	}
	fmt.Fprintln(r.out)
}

func (r *repl) copy() {
	turn, ok := model.LastAnswer(r.sess.Snapshot().ActiveTranscript)
	if !ok {
		fmt.Fprintln(r.out, errorStyle.Render("No answer to copy."))
		return
	}
	if err := r.clipboard(turn.Text); err != nil {
		fmt.Fprintln(r.out, errorStyle.Render("Copy failed: ")+err.Error())
		return
	}
	fmt.Fprintln(r.out, infoStyle.Render(fmt.Sprintf("Copied %d characters.", util.RuneLen(turn.Text))))
}

// runChat drives the REPL until /quit or Ctrl+D.
func runChat(ctx context.Context, out io.Writer, a *app) error {
	historyFile := historyFileName
	if dir, err := config.Dir(); err == nil {
		historyFile = filepath.Join(dir, historyFileName)
	}

	input := NewChatCLI(historyFile)
	defer func() {
		if err := input.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("save chat history")
		}
	}()

	r := newREPL(session.New(a.client, session.WithLogger(a.logger.Logger)), out)

	fmt.Fprintln(out, welcomeStyle.Render("askq chat"))
	fmt.Fprintln(out, infoStyle.Render("Endpoint: "+a.client.EndpointRedacted()))
	fmt.Fprintln(out, infoStyle.Render("Type /help for commands, Ctrl+D to exit."))
	fmt.Fprintln(out)

	prompt := promptStyle.Render("ask> ")
	for {
		line, err := input.ReadInput(prompt)
		if err == liner.ErrPromptAborted {
			fmt.Fprintln(out, infoStyle.Render("Type /quit or press Ctrl+D to exit."))
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read input")
		}

		// Ctrl+C while a question is in flight cancels just that request.
		askCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		quit := r.handle(askCtx, line)
		stop()
		if quit {
			return nil
		}
	}
}
