// Command proposecheck asks the configured model for moves interactively.
// Each input line is a FEN; "retry" resends the last FEN with the retry
// preamble and "rating <value>" changes the skill rating.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	appcfg "github.com/park285/cheese-llm-move/internal/config"
	"github.com/park285/cheese-llm-move/internal/movebuilder"
	"github.com/park285/cheese-llm-move/internal/obslog"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	ctx := context.Background()
	deps, err := movebuilder.New(ctx, cfg, obslog.L())
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer deps.Close()

	s := newSession(deps.Service, "1200")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		runInteractive(ctx, s, cfg.LLMModel)
		return
	}
	runLines(ctx, s, os.Stdin, os.Stdout)
}

func runInteractive(ctx context.Context, s *session, model string) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fen> ",
		HistoryFile:     ".proposecheck_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Fatalf("readline: %v", err)
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "model %s, rating %s. Enter a FEN, 'retry', 'rating <n>' or 'exit'.\n", model, s.rating)
	for {
		rl.SetPrompt(fmt.Sprintf("fen [%s]> ", s.rating))
		line, err := rl.Readline()
		if err == io.EOF {
			return
		}
		if err != nil {
			continue
		}
		if !s.handle(ctx, line, rl.Stdout()) {
			return
		}
	}
}

// runLines is the non-TTY mode: one command per line, no prompt.
func runLines(ctx context.Context, s *session, in io.Reader, out io.Writer) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if !s.handle(ctx, strings.TrimSpace(sc.Text()), out) {
			return
		}
	}
}
