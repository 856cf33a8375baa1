package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var (
	actionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// Bar renders a single-line progress bar to a terminal, redrawing it in
// place on every report.
type Bar struct {
	mu       sync.Mutex
	out      io.Writer
	bar      progress.Model
	action   string
	fraction float64
}

// NewBar returns a bar writing to out.
func NewBar(out io.Writer) *Bar {
	return &Bar{
		out: out,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
	}
}

func (b *Bar) SetCurrentAction(action string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.action = action
	b.draw()
}

func (b *Bar) SetProgress(p float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if IsDone(p) {
		fmt.Fprintf(b.out, "\r\033[K%s %s\n", b.bar.ViewAs(1), doneStyle.Render("done"))
		return
	}
	b.fraction = p
	b.draw()
}

func (b *Bar) draw() {
	fmt.Fprintf(b.out, "\r\033[K%s %s", b.bar.ViewAs(b.fraction), actionStyle.Render(b.action))
}
