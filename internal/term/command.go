package term

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownCommand = errors.New("unknown command")

type Kind int

const (
	CmdNone Kind = iota
	CmdRegister
	CmdDrop
	CmdAgain
	CmdDismiss
	CmdLeaderboard
	CmdHelp
	CmdQuit
)

type Command struct {
	Kind   Kind
	Name   string
	Column int
}

const helpText = `commands:
  register <name>   join the queue
  drop <0-6>        drop a disc (a bare digit works too)
  again             back to the lobby after a game
  dismiss           clear the error banner
  leaderboard       show standings
  quit
`

// Parse reads one input line. Blank lines parse to CmdNone.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, nil
	}
	verb := strings.ToLower(fields[0])

	if n, err := strconv.Atoi(verb); err == nil && len(fields) == 1 {
		return Command{Kind: CmdDrop, Column: n}, nil
	}

	switch verb {
	case "register", "r":
		if len(fields) < 2 {
			return Command{}, fmt.Errorf("usage: register <name>")
		}
		// the name keeps its inner spacing; normalization happens later
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		return Command{Kind: CmdRegister, Name: name}, nil
	case "drop", "d":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("usage: drop <0-6>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return Command{}, fmt.Errorf("column %q is not a number", fields[1])
		}
		return Command{Kind: CmdDrop, Column: n}, nil
	case "again", "a":
		return Command{Kind: CmdAgain}, nil
	case "dismiss":
		return Command{Kind: CmdDismiss}, nil
	case "leaderboard", "lb":
		return Command{Kind: CmdLeaderboard}, nil
	case "help", "?":
		return Command{Kind: CmdHelp}, nil
	case "quit", "exit", "q":
		return Command{Kind: CmdQuit}, nil
	}
	return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
}
