package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/hylla/lobsim/internal/app"
	"github.com/hylla/lobsim/internal/domain"
)

// money formats a whole-currency amount with thousands separators.
func money(amount int64) string {
	if amount < 0 {
		return "-$" + humanize.Comma(-amount)
	}
	return "$" + humanize.Comma(amount)
}

// percent formats a rate fraction as a whole percentage.
func percent(rate float64) string {
	return fmt.Sprintf("%g%%", math.Round(rate*10000)/100)
}

// introMarkdown describes the project, crews and cost structure.
func introMarkdown(project app.ProjectParams, catalog domain.Catalog, targets domain.ConstraintTarget) string {
	var b strings.Builder
	b.WriteString("# LOB Simulation Game\n\n")
	b.WriteString("Five rounds of line-of-balance scheduling.\n\n")
	b.WriteString("## Project overview\n\n")
	fmt.Fprintf(&b, "- **Project:** %s\n", project.Name)
	fmt.Fprintf(&b, "- **Total length:** %s %s\n", humanize.Comma(int64(project.TotalLength)), project.Unit)
	fmt.Fprintf(&b, "- **Mobilization:** %d days, %s\n", project.MobilizationDays, money(project.MobilizationCost))
	fmt.Fprintf(&b, "- **Default buffer:** %d days\n", project.DefaultBuffer)
	fmt.Fprintf(&b, "- **Owner targets:** at most %d days and %s\n\n", targets.MaxDays, money(targets.MaxCost))

	b.WriteString("## Crew definitions\n\n")
	fmt.Fprintf(&b, "| Crew | Activity | Daily cost | Rate (%s/day) |\n", project.Unit)
	b.WriteString("|---|---|---:|---:|\n")
	for _, crew := range catalog.Crews {
		fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", crew.Crew, crew.Label, money(crew.DailyCost), crew.Rate)
	}

	b.WriteString("\n## Cost structure\n\n")
	fmt.Fprintf(&b, "- **Indirect:** %s of direct cost\n", percent(project.IndirectRate))
	fmt.Fprintf(&b, "- **Profit:** %s of direct plus indirect\n", percent(project.ProfitRate))
	return b.String()
}

// roundMarkdown returns the task briefing shown above a round's inputs.
func roundMarkdown(round domain.Round, project app.ProjectParams, targets domain.ConstraintTarget, limits app.RoundLimits) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Round %d: %s\n\n", int(round), round.Title())
	switch round {
	case domain.RoundGantt:
		b.WriteString("Create a schedule using a **Gantt chart**.\n\n")
		b.WriteString("1. Calculate the duration of each activity.\n")
		b.WriteString("2. Choose a start day.\n")
		b.WriteString("3. Calculate the end day.\n\n")
		fmt.Fprintf(&b, "- `Duration = ceil(%s %s / Rate)`\n", humanize.Comma(int64(project.TotalLength)), project.Unit)
		b.WriteString("- `End = Start + Duration - 1`\n")
	case domain.RoundLOB:
		fmt.Fprintf(&b, "Analyze your round 1 schedule as a **line of balance** and revise it with a **%d-day buffer**.\n\n", project.DefaultBuffer)
		b.WriteString("Look for conflicts: does a faster crew catch a slower one?\n\n")
		b.WriteString("- **Simple buffer** when the follower is slower: `Start = Prev Start + Buffer`\n")
		b.WriteString("- **Delayed buffer** when the follower is as fast or faster: `Start = Prev End + Buffer - Duration + 1`\n\n")
		fmt.Fprintf(&b, "Then price the plan: indirect is %s of direct, profit is %s of direct plus indirect.\n",
			percent(project.IndirectRate), percent(project.ProfitRate))
	case domain.RoundBuffer:
		fmt.Fprintf(&b, "See how the **buffer** affects project duration. Adjust it between %d and %d days.\n\n",
			limits.BufferMin, limits.BufferMax)
		b.WriteString("> Buffer up means duration up, but cost stays the same.\n")
	case domain.RoundRate:
		b.WriteString("Select one equipment **type** per activity and see how it changes rate and cost.\n")
	case domain.RoundOptimize:
		fmt.Fprintf(&b, "Combine equipment units and a buffer between %d and %d days to meet the owner targets: ",
			limits.OptimizeBufferMin, limits.OptimizeBufferMax)
		fmt.Fprintf(&b, "**at most %d days** and **at most %s**.\n", targets.MaxDays, money(targets.MaxCost))
	}
	return b.String()
}

// summaryMarkdown renders the end-of-game report.
func summaryMarkdown(summary app.Summary) string {
	var b strings.Builder
	b.WriteString("# Game complete\n\n")
	fmt.Fprintf(&b, "Great job, **%s**!\n\n", summary.Session.PlayerName)
	switch {
	case !summary.HasFinal:
		b.WriteString("> The optimization round was not recorded.\n\n")
	case summary.Pass:
		b.WriteString("> Owner constraints met!\n\n")
	default:
		b.WriteString("> Owner constraints not met.\n\n")
	}
	fmt.Fprintf(&b, "Targets: at most %d days and %s.\n\n", summary.Targets.MaxDays, money(summary.Targets.MaxCost))

	b.WriteString("| Round | Buffer | End day | Total cost | Result |\n")
	b.WriteString("|---|---:|---:|---:|---|\n")
	for _, result := range summary.Results {
		cost := "-"
		if result.HasCost {
			cost = money(result.Cost.Total)
		}
		fmt.Fprintf(&b, "| %d. %s | %d | %d | %s | %s |\n",
			int(result.Round), result.Round.Title(), result.Buffer, result.End, cost, resultVerdict(result))
	}

	b.WriteString("\n## Key learnings\n\n")
	for idx, learning := range summary.Learnings {
		fmt.Fprintf(&b, "- **R%d:** %s\n", idx+1, learning)
	}
	return b.String()
}

// resultVerdict describes the outcome column of one summary row.
func resultVerdict(result domain.RoundResult) string {
	switch {
	case result.HasConstraint && result.Constraint.Pass:
		return "pass"
	case result.HasConstraint:
		var misses []string
		if !result.Constraint.DurationOK {
			misses = append(misses, "days")
		}
		if !result.Constraint.CostOK {
			misses = append(misses, "cost")
		}
		return "over " + strings.Join(misses, " and ")
	case result.Round == domain.RoundLOB && result.Correct:
		return "correct"
	case result.Round == domain.RoundLOB:
		return "revised"
	default:
		return "recorded"
	}
}
