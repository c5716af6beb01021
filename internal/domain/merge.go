package domain

import (
	"sort"
	"strings"

	m "trapcov.dev/pkg/trapcov/internal/model"
)

// MergeCoverage combines several reports of the same program. Modules are matched by
// name, files by path and lines by number; a line is executed when any input executed
// it. The run names are joined and the first non-zero exit code wins. Rates are
// recomputed.
func MergeCoverage(reports ...*m.CoverageData) *m.CoverageData {
	names := make([]string, 0, len(reports))
	exitCode := 0
	modules := make(map[string]map[string]map[uint32]bool)

	for _, report := range reports {
		if report == nil {
			continue
		}

		names = append(names, report.Name)

		if exitCode == 0 {
			exitCode = report.ExitCode
		}

		for _, module := range report.Modules {
			files, ok := modules[module.Path]
			if !ok {
				files = make(map[string]map[uint32]bool)
				modules[module.Path] = files
			}

			for _, file := range module.Files {
				lines, ok := files[file.Path]
				if !ok {
					lines = make(map[uint32]bool)
					files[file.Path] = lines
				}

				for _, line := range file.Lines {
					lines[line.Number] = lines[line.Number] || line.Executed
				}
			}
		}
	}

	merged := m.NewCoverageData(strings.Join(names, "+"), exitCode)

	for _, modulePath := range m.SortedKeys(modules) {
		moduleCoverage := merged.AddModule(modulePath)
		files := modules[modulePath]

		for _, filePath := range m.SortedKeys(files) {
			fileCoverage := moduleCoverage.AddFile(filePath)
			lines := files[filePath]

			numbers := make([]uint32, 0, len(lines))
			for number := range lines {
				numbers = append(numbers, number)
			}

			sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

			for _, number := range numbers {
				fileCoverage.AddLine(number, lines[number])
			}
		}
	}

	merged.ComputeCoverageRate()

	return merged
}
