package tui

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/hylla/lobsim/internal/domain"
)

// activityPalette colors activities in chain order.
var activityPalette = []string{"39", "42", "208", "170", "220", "45"}

// seriesGlyphs marks progress lines by schedule index.
var seriesGlyphs = []string{"●", "◆", "▲", "■"}

var (
	axisStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	mobStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
)

// activityColor returns the chart color for the activity at idx.
func activityColor(idx int) color.Color {
	if idx < 0 {
		idx = 0
	}
	return lipgloss.Color(activityPalette[idx%len(activityPalette)])
}

// activityStyle returns the foreground style for the activity at idx.
func activityStyle(idx int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(activityColor(idx))
}

// renderGantt draws mobilization and activity bars on a shared day axis.
func renderGantt(schedule domain.Schedule, width int) string {
	_, mobEnd := schedule.Mobilization()
	maxDay := max(schedule.End, mobEnd)
	for _, a := range schedule.Activities {
		if a.Plotted {
			maxDay = max(maxDay, a.End)
		}
	}
	if maxDay <= 0 {
		return axisStyle.Render("no plotted activities")
	}

	const labelWidth = 14
	barWidth := max(10, width-labelWidth-12)
	col := func(day int) int {
		return int(math.Round(float64(day) * float64(barWidth) / float64(maxDay)))
	}
	bar := func(start, end int, style lipgloss.Style) string {
		from := clamp(col(start-1), 0, barWidth-1)
		to := clamp(col(end), from+1, barWidth)
		return strings.Repeat(" ", from) + style.Render(strings.Repeat("█", to-from)) + strings.Repeat(" ", max(0, barWidth-to))
	}

	lines := make([]string, 0, len(schedule.Activities)+2)
	if mobEnd > 0 {
		lines = append(lines, fmt.Sprintf("%-*s %s %s", labelWidth, "Mobilization", bar(1, mobEnd, mobStyle), axisStyle.Render(fmt.Sprintf("1-%d", mobEnd))))
	}
	for idx, a := range schedule.Activities {
		label := truncate(a.Name, labelWidth)
		if !a.Plotted {
			lines = append(lines, fmt.Sprintf("%-*s %s", labelWidth, label, warnStyle.Render("not plotted")))
			continue
		}
		lines = append(lines, fmt.Sprintf("%-*s %s %s", labelWidth, label, bar(a.Start, a.End, activityStyle(idx)), axisStyle.Render(fmt.Sprintf("%d-%d", a.Start, a.End))))
	}
	endLabel := strconv.Itoa(maxDay)
	axis := "0" + strings.Repeat("─", max(0, barWidth-1-len(endLabel))) + endLabel
	lines = append(lines, strings.Repeat(" ", labelWidth+1)+axisStyle.Render(axis+" day"))
	return strings.Join(lines, "\n")
}

// lobCell is one character cell of the progress grid.
type lobCell struct {
	glyph string
	style lipgloss.Style
	set   bool
}

// renderLOB draws sampled progress lines on a character grid.
// names labels schedules by index in the legend.
func renderLOB(progress domain.ProgressTable, names []string, width, height int) string {
	if len(progress.Samples) == 0 || len(progress.Series) == 0 {
		return axisStyle.Render("no progress to chart")
	}
	length := 0
	lastSchedule := 0
	activityIndex := map[domain.ActivityID]int{}
	for _, s := range progress.Series {
		length = max(length, s.Length)
		lastSchedule = max(lastSchedule, s.ScheduleIndex)
		if _, ok := activityIndex[s.ActivityID]; !ok {
			activityIndex[s.ActivityID] = len(activityIndex)
		}
	}
	if length <= 0 {
		return axisStyle.Render("no progress to chart")
	}

	yLabel := strconv.Itoa(length)
	plotWidth := max(10, width-len(yLabel)-2)
	plotHeight := max(4, height)
	grid := make([][]lobCell, plotHeight)
	for row := range grid {
		grid[row] = make([]lobCell, plotWidth)
	}

	for _, s := range progress.Series {
		if !s.Plotted {
			continue
		}
		style := activityStyle(activityIndex[s.ActivityID])
		if s.ScheduleIndex < lastSchedule {
			style = style.Faint(true)
		}
		glyph := seriesGlyphs[s.ScheduleIndex%len(seriesGlyphs)]
		for c := range plotWidth {
			sample := progress.Samples[sampleIndex(c, plotWidth, len(progress.Samples))]
			if sample.Day < s.Start || sample.Day > s.End {
				continue
			}
			value := sample.Values[s.Key]
			row := plotHeight - 1 - int(math.Round(value/float64(length)*float64(plotHeight-1)))
			row = clamp(row, 0, plotHeight-1)
			grid[row][c] = lobCell{glyph: glyph, style: style, set: true}
		}
	}

	lines := make([]string, 0, plotHeight+3)
	for row, cells := range grid {
		label := strings.Repeat(" ", len(yLabel))
		switch row {
		case 0:
			label = yLabel
		case plotHeight - 1:
			label = fmt.Sprintf("%*d", len(yLabel), 0)
		}
		var b strings.Builder
		b.WriteString(axisStyle.Render(label + " │"))
		for _, cell := range cells {
			if cell.set {
				b.WriteString(cell.style.Render(cell.glyph))
				continue
			}
			b.WriteByte(' ')
		}
		lines = append(lines, b.String())
	}
	horizon := strconv.Itoa(progress.Horizon)
	lines = append(lines, axisStyle.Render(strings.Repeat(" ", len(yLabel))+" └"+strings.Repeat("─", plotWidth)))
	lines = append(lines, axisStyle.Render(strings.Repeat(" ", len(yLabel)+2)+"0"+strings.Repeat(" ", max(1, plotWidth-1-len(horizon)))+horizon+" day"))
	lines = append(lines, renderLOBLegend(progress.Series, activityIndex, names, lastSchedule))
	return strings.Join(lines, "\n")
}

// sampleIndex maps a grid column onto the sample slice.
func sampleIndex(col, cols, samples int) int {
	if cols <= 1 || samples <= 1 {
		return 0
	}
	return clamp(col*(samples-1)/(cols-1), 0, samples-1)
}

// renderLOBLegend lists one glyph per plotted series.
func renderLOBLegend(series []domain.ProgressSeries, activityIndex map[domain.ActivityID]int, names []string, lastSchedule int) string {
	parts := make([]string, 0, len(series))
	for _, s := range series {
		style := activityStyle(activityIndex[s.ActivityID])
		if s.ScheduleIndex < lastSchedule {
			style = style.Faint(true)
		}
		label := s.Label
		if s.ScheduleIndex < len(names) && names[s.ScheduleIndex] != "" && lastSchedule > 0 {
			label += " (" + names[s.ScheduleIndex] + ")"
		}
		if !s.Plotted {
			label += " n/a"
		}
		parts = append(parts, style.Render(seriesGlyphs[s.ScheduleIndex%len(seriesGlyphs)])+" "+label)
	}
	return strings.Join(parts, "  ")
}

// newTable returns a bordered table with the shared header style.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// renderScheduleTable lists computed timing per activity.
func renderScheduleTable(schedule domain.Schedule) string {
	t := newTable("Activity", "Crew", "Rate", "Daily", "Dur", "Start", "End", "Rule")
	for _, a := range schedule.Activities {
		if !a.Plotted {
			t.Row(a.Name, a.Crew, strconv.Itoa(a.Rate), money(a.DailyCost), "-", "-", "-", "-")
			continue
		}
		rule := string(a.Rule)
		if rule == "" {
			rule = "-"
		}
		t.Row(a.Name, a.Crew, strconv.Itoa(a.Rate), money(a.DailyCost),
			strconv.Itoa(a.Duration), strconv.Itoa(a.Start), strconv.Itoa(a.End), rule)
	}
	return t.Render() + "\n" + fmt.Sprintf("Project end: day %d", schedule.End)
}

// renderCost lists the staged budget of a plan.
func renderCost(cost domain.CostBreakdown, schedule domain.Schedule) string {
	t := newTable("Item", "Cost")
	t.Row("Mobilization", money(cost.Mobilization))
	for _, item := range cost.PerActivity {
		name := string(item.ActivityID)
		if a, ok := schedule.Find(item.ActivityID); ok {
			name = a.Name
		}
		t.Row(name, money(item.Cost))
	}
	t.Row("Direct", money(cost.Direct))
	t.Row("Indirect", money(cost.Indirect))
	t.Row("Profit", money(cost.Profit))
	t.Row("Total", money(cost.Total))
	return t.Render()
}

// renderConstraint reports the owner-target check for a plan.
func renderConstraint(end int, total int64, targets domain.ConstraintTarget, result domain.ConstraintResult) string {
	mark := func(ok bool) string {
		if ok {
			return okStyle.Render("✓")
		}
		return badStyle.Render("✗")
	}
	lines := []string{
		fmt.Sprintf("%s duration %d days (target ≤ %d)", mark(result.DurationOK), end, targets.MaxDays),
		fmt.Sprintf("%s cost %s (target ≤ %s)", mark(result.CostOK), money(total), money(targets.MaxCost)),
	}
	if result.Pass {
		lines = append(lines, okStyle.Render("Owner constraints met"))
	} else {
		lines = append(lines, badStyle.Render("Owner constraints not met"))
	}
	return strings.Join(lines, "\n")
}

// renderSpacing lists spacing advisories between consecutive progress lines.
func renderSpacing(advisories []domain.SpacingAdvisory) string {
	if len(advisories) == 0 {
		return ""
	}
	lines := make([]string, 0, len(advisories))
	for _, item := range advisories {
		switch item.Level {
		case domain.SpacingCrossing:
			lines = append(lines, badStyle.Render("✗ "+item.Message))
		case domain.SpacingTight:
			lines = append(lines, warnStyle.Render("! "+item.Message))
		default:
			lines = append(lines, okStyle.Render("✓")+" "+item.Message)
		}
	}
	return strings.Join(lines, "\n")
}

// renderBufferGauge draws the buffer value on its allowed range.
func renderBufferGauge(value, lo, hi int) string {
	if hi <= lo {
		return fmt.Sprintf("buffer %d days", value)
	}
	cells := make([]string, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		if v == value {
			cells = append(cells, okStyle.Render("●"))
			continue
		}
		cells = append(cells, axisStyle.Render("─"))
	}
	return fmt.Sprintf("%2d %s %2d   buffer = %d days", lo, strings.Join(cells, ""), hi, value)
}
