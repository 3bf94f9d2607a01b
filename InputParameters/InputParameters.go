package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type RunParameters struct {
	Title            string  `yaml:"Title"`
	NumProcesses     int     `yaml:"NumProcesses"`
	RefinementLevels int     `yaml:"RefinementLevels"`
	DomainHalfWidth  float64 `yaml:"DomainHalfWidth"`
	AbsTol           float64 `yaml:"AbsTol"`
	RelTol           float64 `yaml:"RelTol"`
	Verbose          bool    `yaml:"Verbose"`
}

func (rp *RunParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, rp)
}

func (rp *RunParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", rp.Title)
	fmt.Printf("[%d]\t\t\t= Number of Processes\n", rp.NumProcesses)
	fmt.Printf("[%d]\t\t\t= Refinement Levels\n", rp.RefinementLevels)
	fmt.Printf("%8.5f\t\t= Domain Half Width\n", rp.DomainHalfWidth)
	fmt.Printf("%8.2e\t\t= Absolute Tolerance\n", rp.AbsTol)
	fmt.Printf("%8.2e\t\t= Relative Tolerance\n", rp.RelTol)
	fmt.Printf("[%v]\t\t\t= Verbose\n", rp.Verbose)
}
