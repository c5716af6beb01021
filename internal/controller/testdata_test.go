package controller

import m "trapcov.dev/pkg/trapcov/internal/model"

func sampleReport(exitCode int) *m.CoverageData {
	report := m.NewCoverageData("sample", exitCode)

	app := report.AddModule("app.exe")
	mainFile := app.AddFile("main.cpp")
	mainFile.AddLine(10, true)
	mainFile.AddLine(20, false)

	util := app.AddFile("util.cpp")
	util.AddLine(3, true)

	report.AddModule("lib.dll").AddFile("lib.cpp").AddLine(1, false)
	report.ComputeCoverageRate()

	return report
}
