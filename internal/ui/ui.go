package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/hwsnap/internal/classify"
	"github.com/Dicklesworthstone/hwsnap/internal/model"
	"github.com/Dicklesworthstone/hwsnap/internal/store"
)

// Feed is what the dashboard reads. *monitor.Monitor satisfies it.
type Feed interface {
	Store() *store.Store
	Running() bool
	LoopErr() error
}

// Model renders the live aggregates of a feed.
type Model struct {
	feed    Feed
	now     time.Time
	cpu     model.CPU
	gpu     model.GPU
	memory  model.Memory
	storage model.Storage
	network model.Network
	running bool
	loopErr error
	width   int
	height  int
}

func New(feed Feed) *Model {
	m := &Model{feed: feed, width: 120, height: 40}
	m.refresh(time.Now())
	return m
}

// Messages
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/5, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		m.refresh(time.Time(msg))
		return m, tickCmd()
	}
	return m, nil
}

func (m *Model) refresh(now time.Time) {
	st := m.feed.Store()
	m.now = now
	m.cpu = st.CPU()
	m.gpu = st.GPU()
	m.memory = st.Memory()
	m.storage = st.Storage()
	m.network = st.Network()
	m.running = m.feed.Running()
	m.loopErr = m.feed.LoopErr()
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	status := subtleStyle.Render("refresh stopped")
	switch {
	case m.loopErr != nil:
		status = errorStyle.Render("refresh failed: " + m.loopErr.Error())
	case m.running:
		status = subtleStyle.Render("refreshing")
	}
	header := titleStyle.Render("Hardware Sensors") + "  " +
		subtleStyle.Render(m.now.Format("Mon Jan 2 15:04:05 MST 2006")) + "  " + status

	c := m.cpu
	cpuCard := card("CPU "+truncate(c.Name, 30),
		fmt.Sprintf("%s  max core %5.1f%%\npkg %4.1f°C  avg %4.1f°C  max %4.1f°C\n%.1f W package  %.1f W cores  %d cores / %d threads\n%s",
			gaugeBar(c.CPUUsage, 28), c.MaxCoreUsage,
			c.PackageTemperature, c.AverageTemperature, c.MaxTemperature,
			c.PackagePower, c.CoresPower, c.Cores, c.Threads,
			renderCores(c, 8)))

	mem := m.memory
	memCard := card("Memory",
		fmt.Sprintf("%s  %.1f GB used / %.1f GB free\nSwap %s  %.1f GB used",
			gaugeBar(mem.MemoryUtilization, 28), mem.MemoryUsed, mem.MemoryAvailable,
			gaugeBar(mem.VirtualMemoryUtilization, 16), mem.VirtualMemoryUsed))

	columns := []string{cpuCard, memCard}
	if len(m.gpu) > 0 {
		columns = append(columns, card("GPU", renderGPU(m.gpu)))
	}
	line1 := lipgloss.JoinHorizontal(lipgloss.Top, columns...)

	diskRows := make([][]string, 0, len(m.storage))
	for _, name := range sortedNames(m.storage) {
		d := m.storage[name]
		diskRows = append(diskRows, []string{
			truncate(name, 14),
			fmt.Sprintf("%5.1f%%", d.UsedSpace),
			fmt.Sprintf("%5.1f%%", d.TotalActivity),
			rate(d.ReadRate),
			rate(d.WriteRate),
		})
	}
	diskTable := card("Storage", renderTable([]string{"disk", "used", "busy", "read", "write"}, diskRows, 8))

	nicRows := make([][]string, 0, len(m.network))
	for _, name := range sortedNames(m.network) {
		n := m.network[name]
		nicRows = append(nicRows, []string{
			truncate(name, 14),
			rate(n.DownloadSpeed),
			rate(n.UploadSpeed),
			fmt.Sprintf("%5.1f%%", n.NetworkUtilization),
			fmt.Sprintf("%.2f GB", n.DataDownloaded+n.DataUploaded),
		})
	}
	nicTable := card("Network", renderTable([]string{"nic", "down", "up", "util", "total"}, nicRows, 8))

	line2 := lipgloss.JoinHorizontal(lipgloss.Top, diskTable, nicTable)
	return lipgloss.JoinVertical(lipgloss.Left, header, line1, line2)
}

// renderCores lists per-core load and clock in core index order.
func renderCores(c model.CPU, limit int) string {
	labels := make([]string, 0, len(c.CoreLoad))
	for label := range c.CoreLoad {
		if _, ok := classify.CoreIndex(label); ok {
			labels = append(labels, label)
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		a, _ := classify.CoreIndex(labels[i])
		b, _ := classify.CoreIndex(labels[j])
		return a < b
	})

	rows := make([][]string, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, []string{
			strings.TrimPrefix(label, "CPU "),
			fmt.Sprintf("%5.1f%%", c.CoreLoad[label]),
			fmt.Sprintf("%4.0f MHz", c.CoreClock[label]),
		})
	}
	return renderTable([]string{"core", "load", "clock"}, rows, limit)
}

func renderGPU(g model.GPU) string {
	var b strings.Builder
	for _, dev := range sortedNames(g) {
		b.WriteString(truncate(dev, 28) + "\n")
		sensors := g[dev]
		for _, label := range sortedNames(sensors) {
			s := sensors[label]
			fmt.Fprintf(&b, "  %-20s %s\n", truncate(label, 20), formatValue(s.Kind, s.Value))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Helpers
func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func card(title, body string) string {
	titleStr := labelStyle.Render(title)
	content := titleStr + "\n" + body
	return cardStyle.Render(content)
}

func renderTable(headers []string, rows [][]string, limit int) string {
	n := min(limit, len(rows))
	var b strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&b, "%-12s", h)
	}
	b.WriteString("\n")
	for i := 0; i < n; i++ {
		for _, cell := range rows[i] {
			fmt.Fprintf(&b, "%-12s", cell)
		}
		b.WriteString("\n")
	}
	if len(rows) > n {
		fmt.Fprintf(&b, "… %d more\n", len(rows)-n)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatValue(k model.Kind, v float64) string {
	switch k {
	case model.KindLoad, model.KindLevel:
		return fmt.Sprintf("%.1f%%", v)
	case model.KindTemperature:
		return fmt.Sprintf("%.1f°C", v)
	case model.KindClock:
		return fmt.Sprintf("%.0f MHz", v)
	case model.KindVoltage:
		return fmt.Sprintf("%.3f V", v)
	case model.KindPower:
		return fmt.Sprintf("%.1f W", v)
	case model.KindThroughput:
		return rate(v)
	case model.KindFan:
		return fmt.Sprintf("%.0f%%", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// rate formats bytes per second.
func rate(bps float64) string {
	switch {
	case bps >= 1<<30:
		return fmt.Sprintf("%.1f GB/s", bps/(1<<30))
	case bps >= 1<<20:
		return fmt.Sprintf("%.1f MB/s", bps/(1<<20))
	case bps >= 1<<10:
		return fmt.Sprintf("%.1f KB/s", bps/(1<<10))
	}
	return fmt.Sprintf("%.0f B/s", bps)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func sortedNames[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RunTUI starts the Bubble Tea program.
func RunTUI(feed Feed) error {
	prog := tea.NewProgram(New(feed), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
