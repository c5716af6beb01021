package model

// CoverageData is the hierarchical coverage report of one run: module -> file -> line.
type CoverageData struct {
	Name     string            `yaml:"name"`
	ExitCode int               `yaml:"exit_code"`
	Modules  []*ModuleCoverage `yaml:"modules"`
	Rate     CoverageRate      `yaml:"rate"`
}

// ModuleCoverage holds the files of one loaded binary image.
type ModuleCoverage struct {
	Path  string          `yaml:"path"`
	Files []*FileCoverage `yaml:"files"`
	Rate  CoverageRate    `yaml:"rate"`
}

// FileCoverage holds the per-line execution state of one source file.
type FileCoverage struct {
	Path  string         `yaml:"path"`
	Lines []LineCoverage `yaml:"lines"`
	Rate  CoverageRate   `yaml:"rate"`
}

// LineCoverage records whether one source line has been executed.
type LineCoverage struct {
	Number   uint32 `yaml:"number"`
	Executed bool   `yaml:"executed"`
}

// CoverageRate counts executed lines against instrumented lines.
type CoverageRate struct {
	Executed int `yaml:"executed"`
	Total    int `yaml:"total"`
}

// NewCoverageData creates an empty report for the named run.
func NewCoverageData(name string, exitCode int) *CoverageData {
	return &CoverageData{Name: name, ExitCode: exitCode}
}

// AddModule appends a module entry and returns it for population.
func (c *CoverageData) AddModule(path string) *ModuleCoverage {
	module := &ModuleCoverage{Path: path}
	c.Modules = append(c.Modules, module)

	return module
}

// AddFile appends a file entry and returns it for population.
func (mc *ModuleCoverage) AddFile(path string) *FileCoverage {
	file := &FileCoverage{Path: path}
	mc.Files = append(mc.Files, file)

	return file
}

// AddLine appends a line entry. Callers add lines in ascending order.
func (fc *FileCoverage) AddLine(number uint32, executed bool) {
	fc.Lines = append(fc.Lines, LineCoverage{Number: number, Executed: executed})
}

// ComputeCoverageRate fills the rate of every file, module and of the run itself.
func (c *CoverageData) ComputeCoverageRate() {
	var total CoverageRate

	for _, module := range c.Modules {
		module.computeCoverageRate()
		total = total.Add(module.Rate)
	}

	c.Rate = total
}

func (mc *ModuleCoverage) computeCoverageRate() {
	var total CoverageRate

	for _, file := range mc.Files {
		file.computeCoverageRate()
		total = total.Add(file.Rate)
	}

	mc.Rate = total
}

func (fc *FileCoverage) computeCoverageRate() {
	rate := CoverageRate{Total: len(fc.Lines)}

	for _, line := range fc.Lines {
		if line.Executed {
			rate.Executed++
		}
	}

	fc.Rate = rate
}

// Add returns the sum of two rates.
func (r CoverageRate) Add(other CoverageRate) CoverageRate {
	return CoverageRate{
		Executed: r.Executed + other.Executed,
		Total:    r.Total + other.Total,
	}
}

// Unexecuted returns the number of instrumented lines that never ran.
func (r CoverageRate) Unexecuted() int {
	return r.Total - r.Executed
}

// Percentage returns the executed share in [0, 100]. An empty rate is 0%.
func (r CoverageRate) Percentage() float64 {
	if r.Total == 0 {
		return 0
	}

	return float64(r.Executed) / float64(r.Total) * 100
}
