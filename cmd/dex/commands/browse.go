package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fivetwenty-io/dex/internal/constants"
	"github.com/fivetwenty-io/dex/pkg/dex"
)

const (
	// browseChromeLines is the number of terminal rows used by the header,
	// the sentinel line and the status line.
	browseChromeLines = 3

	// browseRootMargin is how many rows past the viewport count as visible.
	browseRootMargin = 2

	defaultTerminalHeight = 24

	keyCtrlC  = 3
	keyEscape = 27
)

const clearScreen = "\x1b[H\x1b[2J"

// NewBrowseCommand creates the interactive browse command.
func NewBrowseCommand() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog interactively",
		Long: `Scroll through the catalog in the terminal. More pages load as the end of
the list comes into view.

Keys: j/down and k/up move, space pages down, f toggles the favorite under
the cursor, r retries a failed load, q quits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := opts.viewState(cmd.Flags())
			if err != nil {
				return err
			}

			return runBrowse(commandContext(cmd), cmd.ErrOrStderr(), opts, view)
		},
	}

	addViewFlags(cmd.Flags(), opts)

	return cmd
}

func runBrowse(ctx context.Context, errOut io.Writer, opts *listOptions, view dex.ViewState) error {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int

	if !term.IsTerminal(fd) {
		return constants.ErrNotATerminal
	}

	height := defaultTerminalHeight

	_, rows, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec // file descriptors fit in int
	if err == nil && rows > browseChromeLines {
		height = rows
	}

	s, err := newSession(ctx, errOut)
	if err != nil {
		return err
	}
	defer s.Close()

	s.store.SetFilters(view.Filters)

	err = s.store.SetSort(view.Sort)
	if err != nil {
		return err
	}

	if !opts.favorites {
		// A failed first page is shown in the status line and can be retried.
		_ = s.store.FetchList(ctx, view.Page, view.Filters, false)
	}

	b := newBrowser(ctx, s.store, height-browseChromeLines, opts.favorites, dex.WithRootMargin(browseRootMargin))
	defer b.Close()

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}

	defer func() { _ = term.Restore(fd, oldState) }()

	return b.Run(os.Stdin, os.Stdout)
}

// browser is the terminal-independent model behind browse: a viewport over
// the displayed list with a sentinel row after the last entry.
type browser struct {
	ctx           context.Context
	store         *dex.Store
	scroller      *dex.Scroller
	unsubscribe   func()
	favoritesOnly bool
	height        int
	top           int
	cursor        int
	sentinel      sentinelKey
}

// sentinelKey identifies the row after the last entry. Each loaded page puts
// a new sentinel at the end of the list.
type sentinelKey struct {
	rows int
	page int
}

func newBrowser(ctx context.Context, store *dex.Store, height int, favoritesOnly bool, opts ...dex.ScrollOption) *browser {
	b := &browser{
		ctx:           ctx,
		store:         store,
		favoritesOnly: favoritesOnly,
		height:        max(height, 1),
	}

	b.scroller = dex.NewScroller(store.ScrollStatus, b.loadMore, opts...)
	b.unsubscribe = store.Subscribe(func(state dex.State) {
		b.scroller.LoadingChanged(state.Loading)
	})

	b.observe()

	return b
}

// Close stops observing the store.
func (b *browser) Close() {
	b.scroller.Detach()
	b.unsubscribe()
}

// Run renders and handles keys until quit.
func (b *browser) Run(in io.Reader, out io.Writer) error {
	buf := make([]byte, 3) //nolint:mnd // longest escape sequence handled

	for {
		err := b.Render(out)
		if err != nil {
			return err
		}

		n, err := in.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		if b.HandleKey(decodeKey(buf[:n])) {
			_, _ = io.WriteString(out, clearScreen)

			return nil
		}
	}
}

// decodeKey maps arrow escape sequences onto j and k.
func decodeKey(input []byte) rune {
	if len(input) == 0 {
		return 0
	}

	if input[0] == keyEscape && len(input) == 3 && input[1] == '[' {
		switch input[2] {
		case 'A':
			return 'k'
		case 'B':
			return 'j'
		}
	}

	return rune(input[0])
}

func (b *browser) rows() []dex.Resource {
	return b.store.DisplayList(b.favoritesOnly)
}

// HandleKey applies one key press and reports whether to quit.
func (b *browser) HandleKey(key rune) bool {
	rows := b.rows()

	switch key {
	case 'q', keyCtrlC:
		return true
	case 'j':
		if b.cursor < len(rows)-1 {
			b.cursor++
		}
	case 'k':
		if b.cursor > 0 {
			b.cursor--
		}
	case ' ':
		b.cursor = min(b.cursor+b.height, max(len(rows)-1, 0))
		b.top = b.cursor
	case 'f':
		if b.cursor < len(rows) {
			_, err := b.store.ToggleFavorite(b.ctx, rows[b.cursor])
			if err != nil {
				b.store.Dispatch(dex.SetError{Message: err.Error()})
			}
		}
	case 'r':
		_ = b.store.Retry(b.ctx)
	}

	b.follow()
	b.observe()

	return false
}

// follow keeps the cursor inside the viewport.
func (b *browser) follow() {
	if b.cursor < b.top {
		b.top = b.cursor
	}

	if b.cursor >= b.top+b.height {
		b.top = b.cursor - b.height + 1
	}
}

// sentinelVisible reports whether the row after the last entry is in view.
func (b *browser) sentinelVisible() bool {
	return b.scroller.Intersects(len(b.rows()), b.top, b.height)
}

// observe attaches the current sentinel and feeds its visibility to the
// scroller until it settles.
func (b *browser) observe() {
	if b.favoritesOnly {
		return
	}

	for {
		key := sentinelKey{rows: len(b.rows()), page: b.store.State().CurrentPage}
		if key != b.sentinel {
			b.sentinel = key
			b.scroller.Attach()
		}

		if !b.scroller.Observe(b.sentinelVisible()) {
			return
		}
	}
}

func (b *browser) loadMore() {
	// Failures are recorded in the store and shown in the status line.
	_ = b.store.LoadNextPage(b.ctx)
}

// Render draws the viewport. Lines end in CRLF for raw terminals.
func (b *browser) Render(out io.Writer) error {
	state := b.store.State()
	rows := b.rows()

	var sb strings.Builder

	sb.WriteString(clearScreen)
	sb.WriteString(b.header(state))
	sb.WriteString("\r\n")

	for i := b.top; i < min(b.top+b.height, len(rows)); i++ {
		sb.WriteString(b.row(i, rows[i], state))
		sb.WriteString("\r\n")
	}

	switch {
	case b.favoritesOnly:
		_, _ = fmt.Fprintf(&sb, "-- %d favorites --", len(rows))
	case state.Loading:
		sb.WriteString("-- loading --")
	case state.HasMore:
		sb.WriteString("-- more --")
	default:
		sb.WriteString("-- end --")
	}

	sb.WriteString("\r\n")
	sb.WriteString(b.status(state, len(rows)))

	_, err := io.WriteString(out, sb.String())
	if err != nil {
		return fmt.Errorf("writing screen: %w", err)
	}

	return nil
}

func (b *browser) header(state dex.State) string {
	header := "dex browse  sort: " + state.Sort.String()
	if filters := state.Filters.Canonical(); filters != "" {
		header += "  filters: " + filters
	}

	return header
}

func (b *browser) row(i int, r dex.Resource, state dex.State) string {
	cursor := " "
	if i == b.cursor {
		cursor = ">"
	}

	favorite := " "
	if state.IsFavorite(r.ID) {
		favorite = FavoriteMark
	}

	return fmt.Sprintf("%s %s %-6s %-16s %s", cursor, favorite, r.DisplayID(), r.DisplayName(), formatTypes(r))
}

func (b *browser) status(state dex.State, shown int) string {
	if state.Error != "" {
		return "Error: " + state.Error + " (r to retry, q to quit)"
	}

	if b.favoritesOnly {
		return "f toggle  q quit"
	}

	return fmt.Sprintf("page %d/%d  %d of %d  j/k move  f favorite  q quit",
		state.CurrentPage, state.TotalPages, shown, state.TotalCount)
}
