package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"go.uber.org/zap"
	xterm "golang.org/x/term"

	"github.com/DoyleJ11/fourinarow-client/internal/hub"
	"github.com/DoyleJ11/fourinarow-client/pkg/types"
)

// ErrQuit is returned by Run when the user asks to leave.
var ErrQuit = errors.New("quit")

const clearScreen = "\x1b[H\x1b[2J"

type Actions interface {
	Register(ctx context.Context, name string) error
	Drop(ctx context.Context, column int) error
	PlayAgain(ctx context.Context) error
	DismissBanner()
}

type Standings interface {
	Leaderboard(ctx context.Context) ([]types.LeaderboardEntry, error)
}

type Options struct {
	In        io.Reader
	Out       io.Writer
	Actions   Actions
	Standings Standings
	Log       *zap.Logger
	// Clear redraws each frame from the top of the screen.
	Clear bool
}

type Presenter struct {
	mu   sync.Mutex
	opts Options
	log  *zap.Logger
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return xterm.IsTerminal(int(f.Fd()))
}

func New(opts Options) *Presenter {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Presenter{opts: opts, log: log.Named("term")}
}

// Watch draws every snapshot until the channel closes or ctx ends.
func (p *Presenter) Watch(ctx context.Context, snaps <-chan hub.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			p.draw(snap)
		}
	}
}

func (p *Presenter) draw(snap hub.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opts.Clear {
		io.WriteString(p.opts.Out, clearScreen)
	}
	io.WriteString(p.opts.Out, Render(snap))
}

func (p *Presenter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.opts.Out, format, args...)
}

// Run reads commands line by line. It returns nil at end of input, ErrQuit on
// quit, and nil when ctx ends. A blocked read on In is abandoned, not
// interrupted.
func (p *Presenter) Run(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(p.opts.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			if err := p.Exec(ctx, line); err != nil {
				if errors.Is(err, ErrQuit) {
					return err
				}
				p.printf("error: %v\n", err)
			}
		}
	}
}

// Exec runs one command line.
func (p *Presenter) Exec(ctx context.Context, line string) error {
	cmd, err := Parse(line)
	if err != nil {
		return err
	}
	a := p.opts.Actions

	switch cmd.Kind {
	case CmdNone:
		return nil
	case CmdRegister:
		return a.Register(ctx, cmd.Name)
	case CmdDrop:
		return a.Drop(ctx, cmd.Column)
	case CmdAgain:
		return a.PlayAgain(ctx)
	case CmdDismiss:
		a.DismissBanner()
		return nil
	case CmdLeaderboard:
		return p.leaderboard(ctx)
	case CmdHelp:
		p.printf("%s", helpText)
		return nil
	case CmdQuit:
		return ErrQuit
	}
	return nil
}

func (p *Presenter) leaderboard(ctx context.Context) error {
	if p.opts.Standings == nil {
		return errors.New("leaderboard unavailable")
	}
	rows, err := p.opts.Standings.Leaderboard(ctx)
	if err != nil {
		p.log.Warn("leaderboard fetch failed", zap.Error(err))
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(rows) == 0 {
		io.WriteString(p.opts.Out, "No players yet\n")
		return nil
	}
	tw := tabwriter.NewWriter(p.opts.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPLAYER\tW\tL\tD\tWIN RATE")
	for i, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n", i+1, r.Username, r.Wins, r.Losses, r.Draws, r.WinRate)
	}
	return tw.Flush()
}
