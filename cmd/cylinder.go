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
	"os"

	"github.com/spf13/cobra"

	"github.com/notargets/parfem/mesh"
)

// cylinderCmd represents the cylinder command
var cylinderCmd = &cobra.Command{
	Use:   "cylinder",
	Short: "Cylinder grid vertex dump and boundary mesh extraction",
	Long: `
Builds the coarse cylinder triangulation, attaches the hull manifold,
refines, and dumps either every active cell vertex or the extracted and
refined boundary mesh in gnuplot form,

parfem cylinder `,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("cylinder called")
		radius, _ := cmd.Flags().GetFloat64("radius")
		halfLength, _ := cmd.Flags().GetFloat64("halfLength")
		levels, _ := cmd.Flags().GetInt("levels")
		surface, _ := cmd.Flags().GetBool("surface")
		RunCylinder(radius, halfLength, levels, surface)
	},
}

func init() {
	rootCmd.AddCommand(cylinderCmd)
	cylinderCmd.Flags().Float64P("radius", "r", 1, "cylinder radius")
	cylinderCmd.Flags().Float64P("halfLength", "x", 1, "half length along the axis")
	cylinderCmd.Flags().IntP("levels", "l", 2, "global refinement levels")
	cylinderCmd.Flags().BoolP("surface", "s", false, "extract and dump the boundary mesh instead of vertices")
}

func RunCylinder(radius, halfLength float64, levels int, surface bool) {
	m := mesh.Cylinder(radius, halfLength)
	if surface {
		m.CopyBoundaryToManifoldIDs()
		m.SetManifold(0, mesh.CylinderManifold{Radius: radius, Axis: 0})
		sm := m.ExtractBoundaryMesh()
		sm.SetManifold(0, mesh.CylinderManifold{Radius: radius, Axis: 0})
		sm.RefineGlobal(levels)
		sm.WriteGnuplot(os.Stdout)
		fmt.Println(sm.NUsedVertices())
		fmt.Println(sm.NActiveCells())
		return
	}
	m.SetManifold(0, mesh.CylinderManifold{Radius: radius, Axis: 0})
	m.RefineGlobal(levels)
	m.DumpActiveVertices(os.Stdout, 1e-10)
}
