package controller

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	m "trapcov.dev/pkg/trapcov/internal/model"
)

func renderStatsTable(stats []m.ReplayStats) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Trace", "Modules", "Traps", "Shared", "Hits", "Misses", "Exits"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	for _, s := range stats {
		table.Append([]string{
			s.Trace,
			fmt.Sprintf("%d", s.Modules),
			fmt.Sprintf("%d", s.Traps),
			fmt.Sprintf("%d", s.Shared),
			fmt.Sprintf("%d", s.Hits),
			fmt.Sprintf("%d", s.Misses),
			fmt.Sprintf("%d", s.Exits),
		})
	}

	table.Render()

	return tableBuffer.String()
}

func renderCoverageTable(report *m.CoverageData) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Module", "File", "Executed", "Lines", "Coverage"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	filesCount := 0

	for _, module := range report.Modules {
		for _, file := range module.Files {
			table.Append([]string{
				module.Path,
				file.Path,
				fmt.Sprintf("%d", file.Rate.Executed),
				fmt.Sprintf("%d", file.Rate.Total),
				formatPercentage(file.Rate),
			})

			filesCount++
		}
	}

	table.SetFooter([]string{
		fmt.Sprintf("Modules %d", len(report.Modules)),
		fmt.Sprintf("Files %d", filesCount),
		fmt.Sprintf("%d", report.Rate.Executed),
		fmt.Sprintf("%d", report.Rate.Total),
		formatPercentage(report.Rate),
	})

	table.Render()

	return tableBuffer.String()
}

func formatPercentage(rate m.CoverageRate) string {
	return fmt.Sprintf("%.1f%%", rate.Percentage())
}

func reportTitle(report *m.CoverageData) string {
	return fmt.Sprintf("Coverage for %s (exit code %d)", report.Name, report.ExitCode)
}
