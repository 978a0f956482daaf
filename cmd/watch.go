// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/brindlebrook/mavrelay/internal/mavcommon"
	"github.com/brindlebrook/mavrelay/internal/wire"
)

var watchRemote string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Attach a live dashboard to a router's debug websocket mirror",
	Long: `watch dials a router started with "route --admin" and renders the
sources it sees (distinct system_id/component_id pairs) and a recent-event
log, the same two-panel layout the teacher's control_tui.go uses for a
device list plus a detail panel.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchRemote, "remote", "ws://127.0.0.1:14551/debug/frames", "websocket URL of the router's --admin debug mirror")
}

func runWatch(cmd *cobra.Command, args []string) error {
	token, err := getAdminToken()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	u, err := url.Parse(watchRemote)
	if err != nil {
		return fmt.Errorf("watch: invalid --remote: %w", err)
	}

	p := tea.NewProgram(initialWatchModel(u.String()), tea.WithAltScreen())

	go streamFrames(u.String(), token, p)

	_, err = p.Run()
	return err
}

func streamFrames(remote, token string, p *tea.Program) {
	header := http.Header{}
	header.Set("Sec-WebSocket-Protocol", token)

	conn, _, err := websocket.DefaultDialer.Dial(remote, header)
	if err != nil {
		p.Send(watchErrMsg{err: fmt.Errorf("dial %s: %w", remote, err)})
		return
	}
	defer conn.Close()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			p.Send(watchErrMsg{err: err})
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		frame, decodeErr := wire.UnpackFrame(data, mavcommon.Dispatcher)
		p.Send(watchFrameMsg{frame: frame, err: decodeErr})
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea model
//////////////////////////////////////////////////////////////

// errorLogEntry is one line of the scrolling event log shown under the
// source list.
type errorLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

type sourceItem struct {
	sysID, compID uint8
	lastMessage   string
	count         uint64
	lastSeen      time.Time
}

func (s sourceItem) Title() string { return fmt.Sprintf("sys %d / comp %d", s.sysID, s.compID) }
func (s sourceItem) Description() string {
	return fmt.Sprintf("%s  (%d frames)", s.lastMessage, s.count)
}
func (s sourceItem) FilterValue() string { return s.Title() }

type watchFrameMsg struct {
	frame *wire.Frame
	err   error
}

type watchErrMsg struct{ err error }

type watchTickMsg time.Time

type watchModel struct {
	remote string

	sources    map[[2]uint8]*sourceItem
	sourceList list.Model

	eventLog      []errorLogEntry
	maxLogEntries int

	framesTotal uint64
	decodeErrs  uint64

	connErr  error
	width    int
	height   int
	quitting bool
}

func initialWatchModel(remote string) watchModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	sourceList := list.New(nil, delegate, 34, 10)
	sourceList.Title = "Sources"
	sourceList.SetShowStatusBar(false)
	sourceList.SetShowHelp(false)
	sourceList.SetFilteringEnabled(false)

	return watchModel{
		remote:        remote,
		sources:       make(map[[2]uint8]*sourceItem),
		sourceList:    sourceList,
		eventLog:      make([]errorLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m watchModel) Init() tea.Cmd {
	return watchTickCmd()
}

func watchTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return watchTickMsg(t) })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sourceList.SetSize(34, m.height/3)

	case watchTickMsg:
		return m, watchTickCmd()

	case watchFrameMsg:
		m.processFrame(msg)

	case watchErrMsg:
		m.connErr = msg.err
		m.addEvent(fmt.Sprintf("connection error: %v", msg.err), true)
	}

	var cmd tea.Cmd
	m.sourceList, cmd = m.sourceList.Update(msg)
	return m, cmd
}

func (m *watchModel) processFrame(msg watchFrameMsg) {
	m.framesTotal++
	if msg.err != nil {
		m.decodeErrs++
		m.addEvent(fmt.Sprintf("decode error: %v", msg.err), true)
		if msg.frame == nil {
			return
		}
	}
	frame := msg.frame
	if frame == nil {
		return
	}

	key := [2]uint8{frame.SourceSystem, frame.SourceComponent}
	name := fmt.Sprintf("msg %d", frame.MessageID)
	src, ok := m.sources[key]
	if !ok {
		src = &sourceItem{sysID: frame.SourceSystem, compID: frame.SourceComponent}
		m.sources[key] = src
		m.addEvent(fmt.Sprintf("new source: sys %d / comp %d", frame.SourceSystem, frame.SourceComponent), false)
	}
	src.lastMessage = name
	src.count++
	src.lastSeen = time.Now()
	m.refreshSourceList()
}

func (m *watchModel) refreshSourceList() {
	items := make([]list.Item, 0, len(m.sources))
	keys := make([][2]uint8, 0, len(m.sources))
	for k := range m.sources {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	for _, k := range keys {
		items = append(items, *m.sources[k])
	}
	m.sourceList.SetItems(items)
}

func (m *watchModel) addEvent(message string, isError bool) {
	m.eventLog = append(m.eventLog, errorLogEntry{timestamp: time.Now(), message: message, isError: isError})
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m watchModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Background(lipgloss.Color("235")).Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statsLabelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	statsValueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boxStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("MAVRELAY WATCH"))
	s.WriteString(" ")
	connStatus := m.remote
	if m.connErr != nil {
		connStatus = warningStyle.Render("disconnected")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | q=quit", connStatus)))
	s.WriteString("\n\n")

	listPanel := boxStyle.Width(36).Render(m.sourceList.View())

	statsContent := fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Frames:"), statsValueStyle.Render(fmt.Sprintf("%d", m.framesTotal)),
		statsLabelStyle.Render("Decode errors:"), func() string {
			if m.decodeErrs > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", m.decodeErrs))
			}
			return statsValueStyle.Render("0")
		}())
	statsPanel := boxStyle.Width(36).Render(statsContent)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, listPanel, " ", statsPanel))
	s.WriteString("\n\n")

	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")
	logHeight := 10
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}
	var log strings.Builder
	if len(m.eventLog) == 0 {
		log.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			e := m.eventLog[i]
			ts := e.timestamp.Format("15:04:05.000")
			if e.isError {
				log.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(ts), errorStyle.Render("x "+e.message)))
			} else {
				log.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(ts), warningStyle.Render("i "+e.message)))
			}
		}
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(log.String()))

	return s.String()
}
