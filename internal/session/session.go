// Package session runs the line-oriented chat loop: one user utterance in,
// exactly one assistant reply out, until an exit keyword or end of input.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"

	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/shopping-assistant/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/shopping-assistant/pkg/logger"
)

// Runner executes one user turn.
type Runner interface {
	Invoke(ctx context.Context, in model.TurnInput) (string, error)
}

const (
	Goodbye       = "Thanks for shopping with us. Goodbye!"
	maxLineLength = 64 * 1024
)

// Session owns one dialogue for its whole lifetime.
type Session struct {
	ID       string
	runner   Runner
	dialogue *model.DialogueState
	exit     map[string]struct{}
	welcome  string
}

// New seeds a dialogue with the system prompt and welcome message.
func New(runner Runner, systemPrompt, welcome string, exitKeywords []string) *Session {
	exit := make(map[string]struct{}, len(exitKeywords))
	for _, k := range exitKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			exit[k] = struct{}{}
		}
	}
	return &Session{
		ID:       uuid.NewString(),
		runner:   runner,
		dialogue: model.NewDialogueState(systemPrompt, welcome),
		exit:     exit,
		welcome:  welcome,
	}
}

// Dialogue exposes the session's dialogue state.
func (s *Session) Dialogue() *model.DialogueState { return s.dialogue }

// IsExit reports whether input is one of the exit keywords.
func (s *Session) IsExit(input string) bool {
	_, ok := s.exit[strings.ToLower(strings.TrimSpace(input))]
	return ok
}

// Turn processes one utterance. Errors and panics inside the turn are logged
// and answered with the apology; they never end the session.
func (s *Session) Turn(ctx context.Context, input string) (reply string) {
	defer func() {
		if rec := recover(); rec != nil {
			logx.Error().
				Str("conversation_id", s.ID).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("Turn panicked")
			reply = nodes.ApologyMessage
		}
	}()

	out, err := s.runner.Invoke(ctx, model.TurnInput{
		ConversationID: s.ID,
		Dialogue:       s.dialogue,
		Query:          input,
	})
	if err != nil {
		logx.Error().Str("conversation_id", s.ID).Err(err).Msg("Turn failed")
		return nodes.ApologyMessage
	}
	if strings.TrimSpace(out) == "" {
		return nodes.ApologyMessage
	}
	return out
}

// Run drives the session over a reader and writer until an exit keyword,
// end of input or context cancellation.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	logx.Info().Str("conversation_id", s.ID).Msg("Session started")
	if s.welcome != "" {
		fmt.Fprintf(out, "Assistant: %s\n", s.welcome)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if s.IsExit(line) {
			s.dialogue.Done = true
			fmt.Fprintf(out, "Assistant: %s\n", Goodbye)
			logx.Info().Str("conversation_id", s.ID).Msg("Session ended by user")
			return nil
		}

		reply := s.Turn(ctx, line)
		fmt.Fprintf(out, "Assistant: %s\n", reply)

		totals := s.dialogue.Cart.Totals()
		logx.Debug().
			Str("conversation_id", s.ID).
			Int("messages", len(s.dialogue.Messages)).
			Int("cart_lines", totals.Lines).
			Float64("cart_total", totals.Price).
			Msg("Turn complete")
	}
	fmt.Fprintln(out)
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	s.dialogue.Done = true
	return nil
}
