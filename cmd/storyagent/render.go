package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"storyagent/internal/agent"
	"storyagent/internal/checker"
	"storyagent/internal/rules"
	"storyagent/internal/scenarios"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	badStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	phaseStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Width(11)
	storyBoxBase = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(78)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderReport(r *checker.Report) string {
	var b strings.Builder
	if r.Consistent() {
		b.WriteString(okStyle.Render("✓ consistent") + "\n")
	} else {
		b.WriteString(badStyle.Render(fmt.Sprintf("✗ %d violations", len(r.Violations))) + "\n")
		for _, v := range r.Violations {
			b.WriteString("  • " + v.Message + "\n")
		}
	}
	for _, f := range r.Failures {
		b.WriteString(errorStyle.Render("  rule failed: ") + f.Error() + "\n")
	}
	for _, w := range r.Warnings {
		b.WriteString(warnStyle.Render("  warning: ") + w.String() + "\n")
	}
	for _, rej := range r.Rejected {
		b.WriteString(warnStyle.Render("  rejected: ") + rej + "\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d facts, %d derived, %d rules, background %s, catalog %s, %v",
		r.Facts, r.Closure.DerivedTriples, r.RulesRun, r.BackgroundVersion, r.CatalogVersion, r.Duration.Round(time.Microsecond))) + "\n")
	return b.String()
}

func renderEvent(ev agent.Event) string {
	return fmt.Sprintf("%s %s %s",
		dimStyle.Render(fmt.Sprintf("[%d]", ev.Iteration)),
		phaseStyle.Render(string(ev.Phase)),
		ev.Message)
}

func renderState(st *agent.State) string {
	var b strings.Builder
	b.WriteString("\n" + titleStyle.Render("Original story") + "\n")
	b.WriteString(storyBoxBase.BorderForeground(lipgloss.Color("245")).Render(st.OriginalStory) + "\n")
	b.WriteString(titleStyle.Render("Final story") + "\n")
	b.WriteString(storyBoxBase.BorderForeground(lipgloss.Color("63")).Render(st.CurrentStory) + "\n")

	var banner string
	switch st.Outcome {
	case agent.OutcomeConsistent:
		banner = okStyle.Render("✓ " + string(st.Outcome))
	case agent.OutcomeExhausted:
		banner = badStyle.Render("✗ " + string(st.Outcome))
	default:
		banner = errorStyle.Render("! " + string(st.Outcome))
	}
	b.WriteString(fmt.Sprintf("%s after %d rewrites (%d/%d iterations)\n",
		banner, st.Rewrites(), st.IterationCount, st.MaxIterations))
	for _, v := range st.Inconsistencies {
		b.WriteString("  • " + v.Message + "\n")
	}
	b.WriteString(dimStyle.Render("  run "+st.RunID) + "\n")
	return b.String()
}

func renderBatch(items []batchItem) string {
	var b strings.Builder
	inconsistent := 0
	for _, it := range items {
		b.WriteString(titleStyle.Render(it.Name) + "\n")
		b.WriteString(renderReport(it.Report))
		if !it.Report.Consistent() {
			inconsistent++
		}
	}
	b.WriteString(fmt.Sprintf("\n%d checked, %d inconsistent\n", len(items), inconsistent))
	return b.String()
}

func renderRules(catalog []rules.Rule, t rules.Thresholds) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Rule catalog %s (%d rules)", rules.CatalogVersion, len(catalog))) + "\n")
	for i, r := range catalog {
		b.WriteString(fmt.Sprintf("%2d. %s\n    %s\n", i+1, r.Name, dimStyle.Render(r.Description)))
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf(
		"adult age %d, walking ≤ %gkm at ≤ %gkm/h, cycling ≤ %gkm at ≤ %gkm/h, free travel ≤ %g, freezing %g°C, city sizes %d/%d",
		t.AdultAge, t.MaxWalkingDistanceKm, t.MaxWalkingSpeedKmh, t.MaxCyclingDistanceKm, t.MaxCyclingSpeedKmh,
		t.FreeTravelCost, t.FreezingPointC, t.SmallCityMaxPopulation, t.LargeCityMinPopulation)) + "\n")
	return b.String()
}

func renderScenarioList(all []scenarios.Scenario) string {
	var b strings.Builder
	for _, s := range all {
		tag := dimStyle.Render("run only")
		if s.HasFacts() {
			tag = dimStyle.Render("expects " + strings.Join(s.Expect, ", "))
		}
		b.WriteString(fmt.Sprintf("%-9s %s  %s\n", s.Name, titleStyle.Render(s.Title), tag))
	}
	return b.String()
}

func renderScenario(s scenarios.Scenario) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(s.Name+": "+s.Title) + "\n")
	b.WriteString(storyBoxBase.Render(s.Story) + "\n")
	if s.HasFacts() {
		b.WriteString(dimStyle.Render("expects: "+strings.Join(s.Expect, ", ")) + "\n")
		b.WriteString(strings.TrimSpace(s.FactsJSON) + "\n")
	}
	return b.String()
}
