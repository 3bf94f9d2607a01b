/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/spf13/cobra"

	"github.com/notargets/parfem/InputParameters"
	"github.com/notargets/parfem/fe"
)

type PeriodicityRun struct {
	NumProcesses     int
	RefinementLevels int
	DomainHalfWidth  float64
	Verbose          bool
	ICFile           string
}

// periodicityCmd represents the periodicity command
var periodicityCmd = &cobra.Command{
	Use:   "periodicity",
	Short: "Parallel consistency check of hanging and periodic constraints",
	Long: `
Builds the periodic cube refined toward a corner, distributes Q1 degrees
of freedom over the requested number of processes, and verifies that
every process holds identical constraint expansions,

parfem periodicity `,
	Run: func(cmd *cobra.Command, args []string) {
		pr := &PeriodicityRun{}
		fmt.Println("periodicity called")
		pr.NumProcesses, _ = cmd.Flags().GetInt("np")
		pr.RefinementLevels, _ = cmd.Flags().GetInt("levels")
		pr.DomainHalfWidth, _ = cmd.Flags().GetFloat64("halfWidth")
		pr.Verbose, _ = cmd.Flags().GetBool("verbose")
		pr.ICFile, _ = cmd.Flags().GetString("input")
		RunPeriodicity(pr)
	},
}

func init() {
	rootCmd.AddCommand(periodicityCmd)
	periodicityCmd.Flags().IntP("np", "p", 13, "number of processes")
	periodicityCmd.Flags().IntP("levels", "l", 4, "corner refinement levels")
	periodicityCmd.Flags().Float64P("halfWidth", "w", 20, "cube half width L, domain is [-L,L]^3")
	periodicityCmd.Flags().BoolP("verbose", "v", true, "print per-process mismatch diagnostics")
	periodicityCmd.Flags().StringP("input", "I", "", "YAML input file with run parameters")
}

func processPeriodicityInput(pr *PeriodicityRun) {
	if len(pr.ICFile) == 0 {
		return
	}
	var (
		data []byte
		err  error
	)
	if data, err = ioutil.ReadFile(pr.ICFile); err != nil {
		panic(fmt.Errorf("unable to read input file %s: %w", pr.ICFile, err))
	}
	rp := &InputParameters.RunParameters{}
	if err = rp.Parse(data); err != nil {
		panic(fmt.Errorf("unable to parse input file %s: %w", pr.ICFile, err))
	}
	rp.Print()
	pr.NumProcesses = rp.NumProcesses
	pr.RefinementLevels = rp.RefinementLevels
	pr.DomainHalfWidth = rp.DomainHalfWidth
	pr.Verbose = rp.Verbose
}

func RunPeriodicity(pr *PeriodicityRun) {
	processPeriodicityInput(pr)
	_, err := fe.RunPeriodicityRegression(pr.NumProcesses, pr.RefinementLevels,
		pr.DomainHalfWidth, pr.Verbose, os.Stdout)
	if err != nil {
		panic(err)
	}
}
