package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/core/render/sink"
	"github.com/matzehuels/kintree/pkg/core/viewport"
	"github.com/matzehuels/kintree/pkg/family"
)

// A terminal cell stands for this many screen pixels, so the controller
// works with the same numbers as a browser viewport.
const (
	cellWidth  = 10.0
	cellHeight = 20.0

	headerLines = 2
	footerLines = 1
	panelWidth  = 34

	panStep   = 40.0  // pixels per arrow key press
	zoomStep  = 1.25  // scale factor per +/- press
	wheelStep = 100.0 // pixels of wheel delta per notch
)

// Tree styles
var (
	treeLinkStyle     = lipgloss.NewStyle().Foreground(colorFaint)
	treeSelectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	panelLabelStyle   = lipgloss.NewStyle().Foreground(colorLabel).Width(8)
	panelStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFaint).Padding(0, 1)
)

// genderStyle colours a label like the card stroke in the SVG renderer.
func genderStyle(g family.Gender) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(sink.GenderColor(g)))
}

// =============================================================================
// Key Bindings
// =============================================================================

type treeKeyMap struct {
	left    key.Binding
	right   key.Binding
	up      key.Binding
	down    key.Binding
	zoomIn  key.Binding
	zoomOut key.Binding
	reset   key.Binding
	close   key.Binding
	quit    key.Binding
}

func defaultTreeKeys() treeKeyMap {
	return treeKeyMap{
		left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "pan left"),
		),
		right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "pan right"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "pan up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "pan down"),
		),
		zoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "zoom in"),
		),
		zoomOut: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "zoom out"),
		),
		reset: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "reset"),
		),
		close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close details"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k treeKeyMap) help() string {
	var parts []string
	for _, b := range []key.Binding{k.left, k.right, k.up, k.down, k.zoomIn, k.zoomOut, k.reset, k.close, k.quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}

// =============================================================================
// TreeModel - Interactive tree viewer
// =============================================================================

// TreeModel is the bubbletea model behind `kintree view`. It renders the
// layout into a character grid and forwards keyboard and mouse input to a
// viewport controller.
type TreeModel struct {
	Title    string
	Selected string // identifier of the activated person, if any

	ctrl    *viewport.Controller
	people  map[string]family.Person
	keys    treeKeyMap
	width   int // terminal columns
	height  int // terminal rows
	seq     uint64
	drag    bool
	moved   bool
	lastX   int
	lastY   int
	message string
}

// NewTreeModel creates a viewer over l. people supplies the details shown
// when a card is activated.
func NewTreeModel(title string, l layout.Layout, people []family.Person, opts viewport.Options) TreeModel {
	m := TreeModel{
		Title:  title,
		people: make(map[string]family.Person, len(people)),
		keys:   defaultTreeKeys(),
	}
	for _, p := range people {
		if _, dup := m.people[p.ID]; !dup {
			m.people[p.ID] = p
		}
	}
	m.ctrl = viewport.New(l, viewport.WithOptions(opts))
	return m
}

// Controller exposes the viewport controller, mainly for tests.
func (m TreeModel) Controller() *viewport.Controller { return m.ctrl }

func (m TreeModel) Init() tea.Cmd {
	return nil
}

// mapSize returns the tree area in cells.
func (m TreeModel) mapSize() (cols, rows int) {
	cols = m.width
	if m.Selected != "" {
		cols -= panelWidth
	}
	rows = m.height - headerLines - footerLines
	return max(cols, 1), max(rows, 1)
}

// resize keeps the content in place and re-centres on the first size.
func (m *TreeModel) resize(w, h int) {
	first := m.width == 0
	m.width, m.height = w, h
	cols, rows := m.mapSize()
	pw, ph := float64(cols)*cellWidth, float64(rows)*cellHeight
	if first {
		m.ctrl.Initialize(pw, ph)
		return
	}
	m.ctrl.Resize(pw, ph)
}

func (m *TreeModel) apply(e viewport.Event) {
	m.seq++
	e.Seq = m.seq
	m.ctrl.OnPanZoomInput(e)
}

// screenPoint converts a terminal cell to the pixel at its centre.
func screenPoint(col, row int) viewport.Point {
	return viewport.Point{
		X: (float64(col) + 0.5) * cellWidth,
		Y: (float64(row-headerLines) + 0.5) * cellHeight,
	}
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.close):
			m.Selected = ""
			m.resize(m.width, m.height)
		case key.Matches(msg, m.keys.left):
			m.apply(viewport.Event{Kind: viewport.Drag, DX: panStep})
		case key.Matches(msg, m.keys.right):
			m.apply(viewport.Event{Kind: viewport.Drag, DX: -panStep})
		case key.Matches(msg, m.keys.up):
			m.apply(viewport.Event{Kind: viewport.Drag, DY: panStep})
		case key.Matches(msg, m.keys.down):
			m.apply(viewport.Event{Kind: viewport.Drag, DY: -panStep})
		case key.Matches(msg, m.keys.zoomIn):
			m.apply(viewport.Event{Kind: viewport.ScaleTo, Scale: m.ctrl.Transform().K * zoomStep})
		case key.Matches(msg, m.keys.zoomOut):
			m.apply(viewport.Event{Kind: viewport.ScaleTo, Scale: m.ctrl.Transform().K / zoomStep})
		case key.Matches(msg, m.keys.reset):
			m.ctrl.Reset()
		}
	case tea.MouseMsg:
		m.mouse(msg)
	}
	return m, nil
}

func (m *TreeModel) mouse(msg tea.MouseMsg) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.apply(viewport.Event{Kind: viewport.Wheel, DY: -wheelStep, Point: screenPoint(msg.X, msg.Y)})
	case msg.Button == tea.MouseButtonWheelDown:
		m.apply(viewport.Event{Kind: viewport.Wheel, DY: wheelStep, Point: screenPoint(msg.X, msg.Y)})
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.drag, m.moved = true, false
		m.lastX, m.lastY = msg.X, msg.Y
	case msg.Action == tea.MouseActionMotion && m.drag:
		dx, dy := msg.X-m.lastX, msg.Y-m.lastY
		if dx != 0 || dy != 0 {
			m.moved = true
			m.apply(viewport.Event{Kind: viewport.Drag, DX: float64(dx) * cellWidth, DY: float64(dy) * cellHeight})
		}
		m.lastX, m.lastY = msg.X, msg.Y
	case msg.Action == tea.MouseActionRelease && m.drag:
		m.drag = false
		if !m.moved {
			m.click(msg.X, msg.Y)
		}
	}
}

// click activates the person under a cell. A miss keeps the panel as is.
func (m *TreeModel) click(col, row int) {
	if row < headerLines {
		return
	}
	if cols, _ := m.mapSize(); col >= cols {
		return
	}
	id, ok := m.ctrl.OnNodeActivated(screenPoint(col, row))
	if !ok {
		m.message = "no one there"
		return
	}
	wasOpen := m.Selected != ""
	m.Selected = id
	m.message = ""
	if !wasOpen {
		m.resize(m.width, m.height)
	}
}

// =============================================================================
// Drawing
// =============================================================================

// canvas is a grid of runes with one style per cell.
type canvas struct {
	cols, rows int
	cells      [][]rune
	styles     [][]*lipgloss.Style
}

func newCanvas(cols, rows int) *canvas {
	c := &canvas{cols: cols, rows: rows}
	c.cells = make([][]rune, rows)
	c.styles = make([][]*lipgloss.Style, rows)
	for r := range c.cells {
		c.cells[r] = []rune(strings.Repeat(" ", cols))
		c.styles[r] = make([]*lipgloss.Style, cols)
	}
	return c
}

func (c *canvas) set(col, row int, ch rune, st *lipgloss.Style) {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return
	}
	c.cells[row][col] = ch
	c.styles[row][col] = st
}

func (c *canvas) text(col, row int, s string, st *lipgloss.Style) {
	for i, ch := range []rune(s) {
		c.set(col+i, row, ch, st)
	}
}

// hline draws between two columns, leaving existing glyphs alone.
func (c *canvas) hline(row, from, to int, st *lipgloss.Style) {
	if from > to {
		from, to = to, from
	}
	for col := from; col <= to; col++ {
		if col >= 0 && col < c.cols && row >= 0 && row < c.rows && c.cells[row][col] == ' ' {
			c.set(col, row, '─', st)
		}
	}
}

func (c *canvas) vline(col, from, to int, st *lipgloss.Style) {
	if from > to {
		from, to = to, from
	}
	for row := from; row <= to; row++ {
		if col >= 0 && col < c.cols && row >= 0 && row < c.rows && c.cells[row][col] == ' ' {
			c.set(col, row, '│', st)
		}
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for r := range c.cells {
		if r > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for col := 1; col <= c.cols; col++ {
			if col < c.cols && c.styles[r][col] == c.styles[r][start] {
				continue
			}
			run := string(c.cells[r][start:col])
			if st := c.styles[r][start]; st != nil {
				run = st.Render(run)
			}
			b.WriteString(run)
			start = col
		}
	}
	return b.String()
}

// cell converts a screen pixel to a terminal cell within the map.
func cell(p viewport.Point) (col, row int) {
	return int(math.Floor(p.X / cellWidth)), int(math.Floor(p.Y / cellHeight))
}

// drawTree renders links as elbows from the parent's card bottom to the
// child's card top, then the cards' name labels on top.
func (m TreeModel) drawTree(cols, rows int) string {
	cv := newCanvas(cols, rows)
	l := m.ctrl.Layout()
	t := m.ctrl.Transform()
	half := l.Options.NodeHeight / 2

	for _, link := range l.Links {
		src, ok1 := l.Lookup(link.Source)
		dst, ok2 := l.Lookup(link.Target)
		if !ok1 || !ok2 {
			continue
		}
		sc, sr := cell(t.Apply(viewport.Point{X: src.X, Y: src.Y + half}))
		dc, dr := cell(t.Apply(viewport.Point{X: dst.X, Y: dst.Y - half}))
		mid := (sr + dr) / 2
		cv.vline(sc, sr, mid, &treeLinkStyle)
		cv.hline(mid, sc, dc, &treeLinkStyle)
		cv.vline(dc, mid, dr, &treeLinkStyle)
	}

	for i := range l.Nodes {
		n := l.Nodes[i]
		col, row := cell(t.Apply(viewport.Point{X: n.X, Y: n.Y}))
		st := genderStyle(n.Gender)
		if n.ID == m.Selected {
			st = st.Inherit(treeSelectedStyle)
		}
		maxLen := int(l.Options.NodeWidth * t.K / cellWidth)
		first, last := fit(n.FirstName, maxLen), fit(n.LastName, maxLen)
		if last == "" || t.K*l.Options.NodeHeight < 2*cellHeight {
			label := fit(strings.TrimSpace(n.FirstName+" "+n.LastName), maxLen)
			cv.text(col-len([]rune(label))/2, row, label, &st)
			continue
		}
		cv.text(col-len([]rune(first))/2, row, first, &st)
		cv.text(col-len([]rune(last))/2, row+1, last, &st)
	}
	return cv.String()
}

// fit shortens s to n runes, marking the cut with an ellipsis.
func fit(s string, n int) string {
	r := []rune(s)
	switch {
	case n <= 0:
		return ""
	case len(r) <= n:
		return s
	case n == 1:
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func (m TreeModel) details() string {
	p, ok := m.people[m.Selected]
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(genderStyle(p.Gender).Bold(true).Render(p.DisplayName()))
	b.WriteString("\n")
	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString("\n" + panelLabelStyle.Render(label) + StyleValue.Render(value))
	}
	row("Lived", p.Lifespan())
	row("Gender", string(p.Gender))
	row("Born", p.BirthPlace)
	row("Died", p.DeathPlace)
	if n := len(p.AsFirst) + len(p.AsSecond); n > 0 {
		row("Links", fmt.Sprintf("%d", n))
	}
	if p.Bio != "" {
		b.WriteString("\n\n" + lipgloss.NewStyle().Width(panelWidth-4).Render(p.Bio))
	}
	b.WriteString("\n\n" + StyleDim.Render(p.ID))
	return panelStyle.Width(panelWidth - 2).Render(b.String())
}

func (m TreeModel) View() string {
	if m.width == 0 {
		return ""
	}
	var b strings.Builder

	t := m.ctrl.Transform()
	status := fmt.Sprintf("  %d people  ·  %.0f%%", m.ctrl.Layout().Len(), t.K*100)
	if m.message != "" {
		status += "  ·  " + m.message
	}
	b.WriteString(StyleTitle.Render(m.Title) + StyleDim.Render(status))
	b.WriteString("\n\n")

	cols, rows := m.mapSize()
	tree := m.drawTree(cols, rows)
	if m.Selected != "" {
		tree = lipgloss.JoinHorizontal(lipgloss.Top, tree, m.details())
	}
	b.WriteString(tree)
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(m.keys.help()))

	return b.String()
}
