package tui

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"unicode"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hylla/lobsim/internal/app"
	"github.com/hylla/lobsim/internal/domain"
)

// Service represents the game operations used by the TUI.
type Service interface {
	Project() app.ProjectParams
	Catalog() domain.Catalog
	Targets() domain.ConstraintTarget
	Limits() app.RoundLimits
	ReferencePlan() (app.RoundPlan, error)
	Progress(...domain.Schedule) domain.ProgressTable
	StartSession(context.Context, string, domain.Mode) (domain.Session, error)
	RecordRound(context.Context, string, domain.RoundResult) (domain.RoundResult, error)
	AdvanceRound(context.Context, string) (domain.Session, error)
	Summary(context.Context, string) (app.Summary, error)
	GanttRound(app.Round1Input) (app.Round1Result, error)
	CheckLOBRound(app.Round2Input) (app.Round2Result, error)
	BufferRound(app.Round3Input) (app.Round3Result, error)
	RateRound(app.Round4Input) (app.Round4Result, error)
	OptimizeRound(app.Round5Input) (app.RoundPlan, error)
}

// fieldCharLimit bounds numeric field entry length.
const fieldCharLimit = 12

// formField is one numeric entry in a round form.
type formField struct {
	key   string
	label string
	input textinput.Model
}

// fleetRow is one adjustable equipment count in the optimization round.
type fleetRow struct {
	activity domain.Activity
	option   domain.EquipmentOption
}

// Model represents the game screen state.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string

	help     help.Model
	keys     keyMap
	mode     domain.Mode
	chart    ChartConfig
	copyText func(string) error
	markdown *markdownRenderer

	session   domain.Session
	round     domain.Round
	nameInput textinput.Model
	reference app.RoundPlan
	offset    int

	fields  []formField
	focus   int
	checked bool
	checks  map[string]app.FieldCheck

	r1    app.Round1Result
	hasR1 bool
	r2    app.Round2Result
	hasR2 bool

	buffer3   int
	baseStart string
	r3        app.Round3Result

	equipment map[domain.ActivityID]int
	rateRow   int
	r4        app.Round4Result

	fleet    map[domain.ActivityID]map[string]int
	buffer5  int
	fleetRow int
	r5       app.RoundPlan

	summary    app.Summary
	hasSummary bool
}

// sessionStartedMsg carries the result of starting a session.
type sessionStartedMsg struct {
	session   domain.Session
	reference app.RoundPlan
	err       error
}

// roundSavedMsg carries the result of recording and optionally advancing a round.
type roundSavedMsg struct {
	round    domain.Round
	session  domain.Session
	advanced bool
	err      error
}

// summaryLoadedMsg carries the end-of-game summary.
type summaryLoadedMsg struct {
	summary app.Summary
	err     error
}

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	err error
}

// NewModel constructs the game model.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	nameInput := newModalInput("name: ", "enter your name", "", 64)
	nameInput.Focus()
	m := Model{
		svc:       svc,
		status:    "enter your name to start",
		help:      h,
		keys:      newKeyMap(),
		mode:      domain.ModePlayer,
		chart:     DefaultChartConfig(),
		copyText:  systemClipboard,
		markdown:  &markdownRenderer{},
		round:     domain.RoundIntro,
		nameInput: nameInput,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sessionStartedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, app.ErrInvalidPlayerName) || errors.Is(msg.err, domain.ErrInvalidName) {
				m.status = "enter your name to start"
				return m, nil
			}
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session
		m.reference = msg.reference
		m.nameInput.Blur()
		m.status = fmt.Sprintf("welcome, %s", msg.session.PlayerName)
		cmd := m.enterRound(msg.session.Round)
		return m, cmd

	case roundSavedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, app.ErrRoundLocked) {
				m.status = "answer the revised schedule correctly to continue"
				return m, nil
			}
			m.err = msg.err
			return m, nil
		}
		if !msg.advanced {
			m.status = fmt.Sprintf("round %d recorded • enter to continue", int(msg.round))
			return m, nil
		}
		m.session = msg.session
		m.status = fmt.Sprintf("round %d complete", int(msg.round))
		cmd := m.enterRound(msg.session.Round)
		return m, cmd

	case summaryLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.summary = msg.summary
		m.hasSummary = true
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "summary copied to clipboard"
		return m, nil

	case tea.KeyPressMsg:
		if m.err != nil {
			return m.handleErrorKey(msg)
		}
		switch {
		case m.round == domain.RoundIntro:
			return m.handleIntroKey(msg)
		case len(m.fields) > 0:
			return m.handleFormKey(msg)
		default:
			return m.handleControlKey(msg)
		}
	}
	return m, nil
}

// handleErrorKey dismisses or quits from the error screen.
func (m Model) handleErrorKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart), msg.String() == "esc":
		m.err = nil
		m.status = "ready"
	}
	return m, nil
}

// handleIntroKey edits the player name and starts the session.
func (m Model) handleIntroKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	keys := m.keys.textEntryKeys()
	switch {
	case key.Matches(msg, keys.quit):
		return m, tea.Quit
	case key.Matches(msg, keys.scrollUp):
		m.offset = max(0, m.offset-m.pageSize())
		return m, nil
	case key.Matches(msg, keys.scrollDown):
		m.offset += m.pageSize()
		return m, nil
	case key.Matches(msg, keys.submit):
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			m.status = "enter your name to start"
			return m, nil
		}
		m.status = "starting..."
		return m, m.startSessionCmd(name)
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

// handleFormKey drives the numeric entry rounds.
func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	keys := m.keys.textEntryKeys()
	switch {
	case key.Matches(msg, keys.quit):
		return m, tea.Quit
	case key.Matches(msg, keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, keys.nextField):
		cmd := m.focusField(m.focus + 1)
		return m, cmd
	case key.Matches(msg, keys.prevField):
		cmd := m.focusField(m.focus - 1)
		return m, cmd
	case key.Matches(msg, keys.scrollUp):
		m.offset = max(0, m.offset-m.pageSize())
		return m, nil
	case key.Matches(msg, keys.scrollDown):
		m.offset += m.pageSize()
		return m, nil
	case key.Matches(msg, keys.submit):
		return m.submitForm()
	}
	if !acceptsFieldText(msg.Text) {
		return m, nil
	}
	var cmd tea.Cmd
	before := m.fields[m.focus].input.Value()
	m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
	if m.fields[m.focus].input.Value() != before {
		m.checked = false
	}
	return m, cmd
}

// handleControlKey drives the adjustable rounds and the summary.
func (m Model) handleControlKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.scrollUp):
		m.offset = max(0, m.offset-m.pageSize())
		return m, nil
	case key.Matches(msg, m.keys.scrollDown):
		m.offset += m.pageSize()
		return m, nil
	}

	if m.round == domain.RoundSummary {
		switch {
		case key.Matches(msg, m.keys.copySum):
			if !m.hasSummary {
				m.status = "summary is still loading"
				return m, nil
			}
			return m, m.copySummaryCmd()
		case key.Matches(msg, m.keys.restart):
			return m.restart(), nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.submit):
		result, ok := m.currentResult()
		if !ok {
			return m, nil
		}
		m.status = "saving..."
		return m, m.recordRoundCmd(result, true)
	case key.Matches(msg, m.keys.nextField):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.prevField):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.increase):
		m.adjust(1)
	case key.Matches(msg, m.keys.decrease):
		m.adjust(-1)
	default:
		return m, nil
	}
	m.recompute()
	return m, nil
}

// acceptsFieldText reports whether typed text belongs in a numeric field.
func acceptsFieldText(text string) bool {
	for _, r := range text {
		if !unicode.IsDigit(r) && r != '$' && r != ',' {
			return false
		}
	}
	return true
}

// startSessionCmd creates the session and loads the reference plan.
func (m Model) startSessionCmd(name string) tea.Cmd {
	svc, mode := m.svc, m.mode
	return func() tea.Msg {
		reference, err := svc.ReferencePlan()
		if err != nil {
			return sessionStartedMsg{err: err}
		}
		session, err := svc.StartSession(context.Background(), name, mode)
		return sessionStartedMsg{session: session, reference: reference, err: err}
	}
}

// recordRoundCmd stores a round result and optionally advances the session.
func (m Model) recordRoundCmd(result domain.RoundResult, advance bool) tea.Cmd {
	svc, sessionID := m.svc, m.session.ID
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := svc.RecordRound(ctx, sessionID, result); err != nil {
			return roundSavedMsg{round: result.Round, err: err}
		}
		if !advance {
			return roundSavedMsg{round: result.Round}
		}
		session, err := svc.AdvanceRound(ctx, sessionID)
		return roundSavedMsg{round: result.Round, session: session, advanced: err == nil, err: err}
	}
}

// advanceCmd moves the session past an already recorded round.
func (m Model) advanceCmd() tea.Cmd {
	svc, sessionID, round := m.svc, m.session.ID, m.round
	return func() tea.Msg {
		session, err := svc.AdvanceRound(context.Background(), sessionID)
		return roundSavedMsg{round: round, session: session, advanced: err == nil, err: err}
	}
}

// loadSummaryCmd loads the end-of-game summary.
func (m Model) loadSummaryCmd() tea.Cmd {
	svc, sessionID := m.svc, m.session.ID
	return func() tea.Msg {
		summary, err := svc.Summary(context.Background(), sessionID)
		return summaryLoadedMsg{summary: summary, err: err}
	}
}

// copySummaryCmd writes the summary markdown to the clipboard.
func (m Model) copySummaryCmd() tea.Cmd {
	write, text := m.copyText, summaryMarkdown(m.summary)
	return func() tea.Msg {
		return copiedMsg{err: write(text)}
	}
}

// restart returns to the intro keeping the player name.
func (m Model) restart() Model {
	name := m.session.PlayerName
	out := NewModel(m.svc,
		WithMode(m.mode),
		WithChartConfig(m.chart),
		WithClipboard(m.copyText),
		WithPlayerName(name),
	)
	out.ready, out.width, out.height = m.ready, m.width, m.height
	out.markdown = m.markdown
	out.status = "press enter to play again"
	return out
}

// enterRound prepares state for round and returns any follow-up command.
func (m *Model) enterRound(round domain.Round) tea.Cmd {
	m.round = round
	m.offset = 0
	m.fields = nil
	m.focus = 0
	m.checked = false
	m.checks = nil
	limits := m.svc.Limits()
	project := m.svc.Project()

	switch round {
	case domain.RoundGantt:
		m.fields = m.ganttFields()
		return m.focusField(0)
	case domain.RoundLOB:
		m.fields = m.lobFields()
		return m.focusField(0)
	case domain.RoundBuffer:
		m.buffer3 = app.ClampBuffer(project.DefaultBuffer, limits.BufferMin, limits.BufferMax)
	case domain.RoundRate:
		m.equipment = limits.DefaultEquipment
		m.rateRow = 0
	case domain.RoundOptimize:
		m.fleet = make(map[domain.ActivityID]map[string]int, len(limits.DefaultFleet))
		for _, crew := range m.svc.Catalog().Crews {
			counts := maps.Clone(limits.DefaultFleet[crew.ID])
			if counts == nil {
				counts = map[string]int{}
			}
			m.fleet[crew.ID] = counts
		}
		m.buffer5 = app.ClampBuffer(project.DefaultBuffer, limits.OptimizeBufferMin, limits.OptimizeBufferMax)
		m.fleetRow = 0
	case domain.RoundSummary:
		m.hasSummary = false
		return m.loadSummaryCmd()
	}
	m.recompute()
	return nil
}

// ganttFields builds the round 1 form. Player mode enters every column; other modes only pick starts.
func (m Model) ganttFields() []formField {
	reveal := m.session.Mode.RevealsAnswers()
	player := m.session.Mode == domain.ModePlayer
	out := make([]formField, 0, 3*len(m.svc.Catalog().Crews))
	for _, crew := range m.svc.Catalog().Crews {
		id := string(crew.ID)
		if player {
			out = append(out, newFormField(id+".duration", crew.Name+" duration", ""))
		}
		start := ""
		if reveal {
			if a, ok := m.reference.Schedule.Find(crew.ID); ok {
				start = strconv.Itoa(a.Start)
			}
		}
		out = append(out, newFormField(id+".start", crew.Name+" start", start))
		if player {
			out = append(out, newFormField(id+".end", crew.Name+" end", ""))
		}
	}
	return out
}

// lobFields builds the round 2 schedule revision and budget form.
func (m Model) lobFields() []formField {
	reveal := m.session.Mode.RevealsAnswers()
	value := func(v int64) string {
		if !reveal {
			return ""
		}
		return strconv.FormatInt(v, 10)
	}
	crews := m.svc.Catalog().Crews
	out := make([]formField, 0, 3*len(crews)+4)
	for _, crew := range crews {
		a, _ := m.reference.Schedule.Find(crew.ID)
		id := string(crew.ID)
		out = append(out,
			newFormField(id+".start", crew.Name+" start", value(int64(a.Start))),
			newFormField(id+".end", crew.Name+" end", value(int64(a.End))),
		)
	}
	for _, crew := range crews {
		cost, _ := m.reference.Cost.Cost(crew.ID)
		out = append(out, newFormField(string(crew.ID)+".cost", crew.Name+" cost", value(cost)))
	}
	out = append(out,
		newFormField("direct", "Direct cost", value(m.reference.Cost.Direct)),
		newFormField("indirect", "Indirect cost", value(m.reference.Cost.Indirect)),
		newFormField("profit", "Profit", value(m.reference.Cost.Profit)),
		newFormField("total", "Total cost", value(m.reference.Cost.Total)),
	)
	return out
}

// newFormField constructs one numeric form field.
func newFormField(fieldKey, label, value string) formField {
	return formField{
		key:   fieldKey,
		label: label,
		input: newModalInput("", "0", value, fieldCharLimit),
	}
}

// newModalInput constructs one text input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// focusField focuses the form field at idx, wrapping around.
func (m *Model) focusField(idx int) tea.Cmd {
	if len(m.fields) == 0 {
		return nil
	}
	idx = wrapIndex(idx, len(m.fields))
	m.focus = idx
	for i := range m.fields {
		m.fields[i].input.Blur()
	}
	return m.fields[idx].input.Focus()
}

// fieldValue returns the raw entry for one field key.
func (m Model) fieldValue(fieldKey string) string {
	for _, f := range m.fields {
		if f.key == fieldKey {
			return f.input.Value()
		}
	}
	return ""
}

// fieldValues returns raw entries per crew for one field suffix in chain order.
func (m Model) fieldValues(suffix string) []string {
	crews := m.svc.Catalog().Crews
	out := make([]string, 0, len(crews))
	for _, crew := range crews {
		out = append(out, m.fieldValue(string(crew.ID)+"."+suffix))
	}
	return out
}

// submitForm checks the current entries, or advances when they were already checked.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	if m.checked {
		if m.round == domain.RoundGantt && !m.r1.Complete {
			m.status = "enter a start and end for every activity to continue"
			return m, nil
		}
		if m.round == domain.RoundLOB && m.session.Mode == domain.ModePlayer && !m.r2.Complete {
			m.status = "enter a start and end for every activity to continue"
			return m, nil
		}
		m.status = "saving..."
		return m, m.advanceCmd()
	}

	var result domain.RoundResult
	switch m.round {
	case domain.RoundGantt:
		r1, err := m.svc.GanttRound(app.Round1Input{
			Mode:      m.session.Mode,
			Durations: m.fieldValues("duration"),
			Starts:    m.fieldValues("start"),
			Ends:      m.fieldValues("end"),
		})
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.r1, m.hasR1 = r1, true
		m.checks = indexChecks(r1.DurationChecks)
		result = r1.Result()
	case domain.RoundLOB:
		per := make(map[domain.ActivityID]string)
		for _, crew := range m.svc.Catalog().Crews {
			per[crew.ID] = m.fieldValue(string(crew.ID) + ".cost")
		}
		r2, err := m.svc.CheckLOBRound(app.Round2Input{
			Mode:   m.session.Mode,
			Starts: m.fieldValues("start"),
			Ends:   m.fieldValues("end"),
			Budget: app.BudgetInput{
				PerActivity: per,
				Direct:      m.fieldValue("direct"),
				Indirect:    m.fieldValue("indirect"),
				Profit:      m.fieldValue("profit"),
				Total:       m.fieldValue("total"),
			},
		})
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.r2, m.hasR2 = r2, true
		m.checks = indexChecks(append(slicesClone(r2.ScheduleChecks), r2.BudgetChecks...))
		m.baseStart = ""
		if len(r2.Schedule.Activities) > 0 && r2.Schedule.Activities[0].Plotted {
			m.baseStart = strconv.Itoa(r2.Schedule.Activities[0].Start)
		}
		result = r2.Result()
	default:
		return m, nil
	}
	m.checked = true
	m.status = "checking..."
	return m, m.recordRoundCmd(result, false)
}

// indexChecks keys field checks by field name.
func indexChecks(checks []app.FieldCheck) map[string]app.FieldCheck {
	out := make(map[string]app.FieldCheck, len(checks))
	for _, check := range checks {
		out[check.Field] = check
	}
	return out
}

// slicesClone copies checks so appends never alias the result slice.
func slicesClone(in []app.FieldCheck) []app.FieldCheck {
	return append([]app.FieldCheck(nil), in...)
}

// currentResult returns the result of an adjustable round.
func (m Model) currentResult() (domain.RoundResult, bool) {
	switch m.round {
	case domain.RoundBuffer:
		return m.r3.Result(), true
	case domain.RoundRate:
		return m.r4.Result(), true
	case domain.RoundOptimize:
		return m.r5.Result(domain.RoundOptimize), true
	default:
		return domain.RoundResult{}, false
	}
}

// fleetRows lists every equipment option in chain order.
func (m Model) fleetRows() []fleetRow {
	catalog := m.svc.Catalog()
	out := make([]fleetRow, 0)
	for _, crew := range catalog.Crews {
		for _, opt := range catalog.Options(crew.ID) {
			out = append(out, fleetRow{activity: crew, option: opt})
		}
	}
	return out
}

// moveCursor moves the selection of an adjustable round.
func (m *Model) moveCursor(delta int) {
	switch m.round {
	case domain.RoundRate:
		m.rateRow = wrapIndex(m.rateRow+delta, len(m.svc.Catalog().Crews))
	case domain.RoundOptimize:
		m.fleetRow = wrapIndex(m.fleetRow+delta, len(m.fleetRows())+1)
	case domain.RoundBuffer:
		m.adjust(delta)
	}
}

// adjust changes the selected value of an adjustable round.
func (m *Model) adjust(delta int) {
	limits := m.svc.Limits()
	switch m.round {
	case domain.RoundBuffer:
		m.buffer3 = app.ClampBuffer(m.buffer3+delta, limits.BufferMin, limits.BufferMax)
	case domain.RoundRate:
		crews := m.svc.Catalog().Crews
		if len(crews) == 0 {
			return
		}
		id := crews[clamp(m.rateRow, 0, len(crews)-1)].ID
		options := m.svc.Catalog().Options(id)
		if len(options) == 0 {
			return
		}
		next := maps.Clone(m.equipment)
		if next == nil {
			next = map[domain.ActivityID]int{}
		}
		next[id] = wrapIndex(next[id]+delta, len(options))
		m.equipment = next
	case domain.RoundOptimize:
		rows := m.fleetRows()
		if m.fleetRow >= len(rows) {
			m.buffer5 = app.ClampBuffer(m.buffer5+delta, limits.OptimizeBufferMin, limits.OptimizeBufferMax)
			return
		}
		row := rows[m.fleetRow]
		counts := maps.Clone(m.fleet[row.activity.ID])
		if counts == nil {
			counts = map[string]int{}
		}
		counts[row.option.Key] = clamp(counts[row.option.Key]+delta, 0, domain.MaxFleetUnits)
		next := maps.Clone(m.fleet)
		next[row.activity.ID] = counts
		m.fleet = next
	}
}

// recompute refreshes the live plan of an adjustable round.
func (m *Model) recompute() {
	var err error
	switch m.round {
	case domain.RoundBuffer:
		m.r3, err = m.svc.BufferRound(app.Round3Input{Buffer: m.buffer3, BaseStart: m.baseStart})
	case domain.RoundRate:
		m.r4, err = m.svc.RateRound(app.Round4Input{Equipment: m.equipment})
	case domain.RoundOptimize:
		m.r5, err = m.svc.OptimizeRound(app.Round5Input{Fleet: m.fleet, Buffer: m.buffer5})
	}
	if err != nil {
		m.err = err
	}
}

// pageSize returns the scroll step for the body viewport.
func (m Model) pageSize() int {
	return max(1, m.height/2)
}

// activeKeys returns the bindings that apply to the current screen.
func (m Model) activeKeys() keyMap {
	if m.round == domain.RoundIntro || len(m.fields) > 0 {
		return m.keys.textEntryKeys()
	}
	return m.keys
}

// View renders the current screen.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress esc to dismiss • q quit\n")
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.activeKeys()))

	header := m.renderHeader()
	status := statusStyle.Render(truncate(m.status, max(1, m.width-2)))
	body := m.renderBody(m.contentWidth())

	if m.height > 0 {
		bodyHeight := max(1, m.height-lipgloss.Height(header)-lipgloss.Height(helpLine)-1)
		lines := strings.Split(body, "\n")
		offset := clamp(m.offset, 0, max(0, len(lines)-bodyHeight))
		body = fitLines(strings.Join(lines[offset:], "\n"), bodyHeight)
	}
	v := tea.NewView(header + "\n" + body + "\n" + status + "\n" + helpLine)
	v.AltScreen = true
	return v
}

// contentWidth returns the wrap width for body content.
func (m Model) contentWidth() int {
	if m.width <= 0 {
		return m.chart.Width
	}
	return max(40, m.width-2)
}

// renderHeader draws the title, round progress and player line.
func (m Model) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	done := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	current := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	todo := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	segments := make([]string, 0, int(domain.RoundOptimize))
	for r := domain.RoundGantt; r <= domain.RoundOptimize; r++ {
		style := todo
		switch {
		case r < m.round:
			style = done
		case r == m.round:
			style = current
		}
		segments = append(segments, style.Render("━━━━"))
	}

	title := m.round.Title()
	if m.round.Playable() {
		title = fmt.Sprintf("Round %d: %s", int(m.round), title)
	}
	line := titleStyle.Render("lobsim") + "  " + title + "  " + strings.Join(segments, " ")
	if m.session.PlayerName != "" {
		line += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(m.session.PlayerName+" • "+string(m.session.Mode))
	}
	return line
}

// renderBody renders the content of the current round.
func (m Model) renderBody(width int) string {
	project := m.svc.Project()
	targets := m.svc.Targets()
	limits := m.svc.Limits()
	chartWidth := min(m.chart.Width, width)
	sections := make([]string, 0, 8)
	add := func(title, content string) {
		if strings.TrimSpace(content) == "" {
			return
		}
		if title != "" {
			content = lipgloss.NewStyle().Bold(true).Render(title) + "\n" + content
		}
		sections = append(sections, content)
	}

	switch m.round {
	case domain.RoundIntro:
		add("", m.markdown.render(introMarkdown(project, m.svc.Catalog(), targets), width))
		add("Ready to play?", m.nameInput.View()+"\n"+axisStyle.Render("mode: "+string(m.mode)+" • enter to start"))
	case domain.RoundGantt:
		add("", m.markdown.render(roundMarkdown(m.round, project, targets, limits), width))
		add("Schedule table", m.renderFields())
		if m.hasR1 {
			add("Gantt chart", renderGantt(m.r1.Schedule, chartWidth))
		}
	case domain.RoundLOB:
		add("", m.markdown.render(roundMarkdown(m.round, project, targets, limits), width))
		if m.hasR1 {
			add("Your round 1 schedule as a line of balance",
				renderLOB(m.svc.Progress(m.r1.Schedule), []string{"R1"}, chartWidth, m.chart.Height)+"\n"+
					renderSpacing(domain.AnalyzeSpacing(m.r1.Schedule, project.DefaultBuffer)))
		}
		add(fmt.Sprintf("Revise the schedule (%d-day buffer) and price it", project.DefaultBuffer), m.renderFields())
		if m.hasR2 && m.checked {
			add("Revised line of balance",
				renderLOB(m.svc.Progress(m.r2.Schedule), []string{"R2"}, chartWidth, m.chart.Height)+"\n"+renderSpacing(m.r2.Spacing))
			add("", m.renderLOBVerdict())
		}
	case domain.RoundBuffer:
		add("", m.markdown.render(roundMarkdown(m.round, project, targets, limits), width))
		add("Adjust buffer", renderBufferGauge(m.buffer3, limits.BufferMin, limits.BufferMax))
		add(fmt.Sprintf("Schedule with buffer = %d days", m.r3.Schedule.Buffer), renderScheduleTable(m.r3.Schedule))
		add("", fmt.Sprintf("Total cost %s (reference buffer: %s, end day %d)",
			money(m.r3.Cost.Total), money(m.r3.Reference.Cost.Total), m.r3.Reference.Schedule.End))
		add("Line of balance: R2 vs R3",
			renderLOB(m.svc.Progress(m.r3.Reference.Schedule, m.r3.Schedule), []string{"R2", "R3"}, chartWidth, m.chart.Height))
	case domain.RoundRate:
		add("", m.markdown.render(roundMarkdown(m.round, project, targets, limits), width))
		add("Select equipment type", m.renderEquipment())
		add("Round 4 schedule", renderScheduleTable(m.r4.Schedule))
		add("Budget", renderCost(m.r4.Cost, m.r4.Schedule))
		add("Line of balance: crews vs equipment",
			renderLOB(m.svc.Progress(m.r4.Reference.Schedule, m.r4.Schedule), []string{"crews", "R4"}, chartWidth, m.chart.Height))
	case domain.RoundOptimize:
		add("", m.markdown.render(roundMarkdown(m.round, project, targets, limits), width))
		add("Configure equipment (multiple units)", m.renderFleet())
		add("Round 5 schedule", renderScheduleTable(m.r5.Schedule))
		add("Budget", renderCost(m.r5.Cost, m.r5.Schedule))
		add("Constraints check", renderConstraint(m.r5.Schedule.End, m.r5.Cost.Total, targets, m.r5.Constraint))
		add("Line of balance", renderLOB(m.svc.Progress(m.r5.Schedule), []string{"R5"}, chartWidth, m.chart.Height))
	case domain.RoundSummary:
		if !m.hasSummary {
			add("", "loading summary...")
			break
		}
		add("", m.markdown.render(summaryMarkdown(m.summary), width))
		add("", axisStyle.Render("y copy summary • r play again • q quit"))
	}
	return strings.Join(sections, "\n\n")
}

// renderFields lists the round form with check marks once entries were checked.
func (m Model) renderFields() string {
	labelWidth := 0
	for _, f := range m.fields {
		labelWidth = max(labelWidth, len(f.label))
	}
	showMarks := m.checked && m.session.Mode != domain.ModePlayer
	lines := make([]string, 0, len(m.fields))
	for idx, f := range m.fields {
		cursor := "  "
		if idx == m.focus {
			cursor = cursorGlyph() + " "
		}
		line := fmt.Sprintf("%s%-*s  %s", cursor, labelWidth, f.label, f.input.View())
		if check, ok := m.checks[f.key]; ok && showMarks {
			switch {
			case check.Correct:
				line += " " + okStyle.Render("✓")
			case m.session.Mode.RevealsAnswers():
				line += " " + badStyle.Render("✗ "+strconv.FormatInt(check.Expected, 10))
			default:
				line += " " + badStyle.Render("✗")
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// cursorGlyph renders the focus cursor glyph.
func cursorGlyph() string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Render("›")
}

// renderLOBVerdict summarizes the round 2 checks.
func (m Model) renderLOBVerdict() string {
	count := func(checks []app.FieldCheck) int {
		n := 0
		for _, c := range checks {
			if c.Correct {
				n++
			}
		}
		return n
	}
	schedule := fmt.Sprintf("schedule %d/%d correct", count(m.r2.ScheduleChecks), len(m.r2.ScheduleChecks))
	budget := fmt.Sprintf("budget %d/%d correct", count(m.r2.BudgetChecks), len(m.r2.BudgetChecks))
	if m.r2.ScheduleCorrect {
		schedule = okStyle.Render(schedule)
	} else {
		schedule = badStyle.Render(schedule)
	}
	if m.r2.BudgetCorrect {
		budget = okStyle.Render(budget)
	} else {
		budget = warnStyle.Render(budget)
	}
	line := schedule + " • " + budget
	if m.session.Mode.ChecksAnswers() && !m.r2.ScheduleCorrect {
		line += "\n" + axisStyle.Render("answer the schedule correctly to proceed")
	}
	return line
}

// renderEquipment lists the selected equipment option per activity.
func (m Model) renderEquipment() string {
	crews := m.svc.Catalog().Crews
	lines := make([]string, 0, len(crews))
	for idx, crew := range crews {
		cursor := "  "
		if idx == m.rateRow {
			cursor = cursorGlyph() + " "
		}
		options := m.svc.Catalog().Options(crew.ID)
		choice := "crew rate"
		if opt, ok := m.r4.Selected[crew.ID]; ok {
			choice = fmt.Sprintf("◀ %s ▶ %d/day • %s/day (%d/%d)", opt.Name, opt.Rate, money(opt.DailyCost), m.equipment[crew.ID]+1, len(options))
		}
		lines = append(lines, cursor+activityStyle(idx).Render(fmt.Sprintf("%-12s", crew.Name))+" "+choice)
	}
	return strings.Join(lines, "\n")
}

// renderFleet lists unit counts per equipment option plus the buffer row.
func (m Model) renderFleet() string {
	rows := m.fleetRows()
	limits := m.svc.Limits()
	lines := make([]string, 0, len(rows)+4)
	var lastActivity domain.ActivityID
	activityIdx := -1
	for idx, row := range rows {
		if row.activity.ID != lastActivity {
			lastActivity = row.activity.ID
			activityIdx++
			total := ""
			if activityIdx < len(m.r5.Fleets) {
				fleet := m.r5.Fleets[activityIdx]
				total = fmt.Sprintf("  %d units • %d/day • %s/day", fleet.Units, fleet.Activity.Rate, money(fleet.Activity.DailyCost))
				if fleet.ZeroRate {
					total += warnStyle.Render("  no units, rate floor applied")
				}
			}
			lines = append(lines, activityStyle(activityIdx).Render(row.activity.Name)+axisStyle.Render(total))
		}
		cursor := "  "
		if idx == m.fleetRow {
			cursor = cursorGlyph() + " "
		}
		count := m.fleet[row.activity.ID][row.option.Key]
		lines = append(lines, fmt.Sprintf("%s  %-22s %d/day %s/day   units: %d",
			cursor, row.option.Name, row.option.Rate, money(row.option.DailyCost), count))
	}
	cursor := "  "
	if m.fleetRow >= len(rows) {
		cursor = cursorGlyph() + " "
	}
	lines = append(lines, cursor+renderBufferGauge(m.buffer5, limits.OptimizeBufferMin, limits.OptimizeBufferMax))
	return strings.Join(lines, "\n")
}

// wrapIndex wraps idx into [0, total).
func wrapIndex(idx, total int) int {
	if total <= 0 {
		return 0
	}
	idx %= total
	if idx < 0 {
		idx += total
	}
	return idx
}

// clamp bounds v to [minV, maxV].
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
