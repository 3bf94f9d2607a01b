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

	"github.com/spf13/cobra"

	"github.com/notargets/parfem/mesh"
)

// partitionCmd represents the partition command
var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Partition a refined cube mesh and report the decomposition",
	Long: `
Refines the unit cube, partitions the active cells with METIS (or the
deterministic contiguous splitter), and prints the cells per rank,

parfem partition `,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("partition called")
		np, _ := cmd.Flags().GetInt("np")
		levels, _ := cmd.Flags().GetInt("levels")
		objective, _ := cmd.Flags().GetString("objective")
		imbalance, _ := cmd.Flags().GetFloat32("imbalance")
		contiguous, _ := cmd.Flags().GetBool("contiguous")
		RunPartition(np, levels, objective, imbalance, contiguous)
	},
}

func init() {
	rootCmd.AddCommand(partitionCmd)
	partitionCmd.Flags().IntP("np", "p", 4, "number of partitions")
	partitionCmd.Flags().IntP("levels", "l", 3, "global refinement levels")
	partitionCmd.Flags().StringP("objective", "o", "vol", "METIS objective: cut or vol")
	partitionCmd.Flags().Float32P("imbalance", "i", 1.05, "allowed partition imbalance factor")
	partitionCmd.Flags().BoolP("contiguous", "c", false, "use the deterministic contiguous splitter instead of METIS")
}

func RunPartition(np, levels int, objective string, imbalance float32, contiguous bool) {
	m := mesh.HyperCube(0, 1, false)
	m.RefineGlobal(levels)
	if contiguous {
		mesh.PartitionContiguous(m, np)
	} else {
		config := mesh.DefaultPartitionConfig(int32(np))
		config.Objective = objective
		config.ImbalanceFactor = imbalance
		if err := mesh.PartitionMetis(m, config); err != nil {
			panic(err)
		}
	}
	counts := make([]int, np)
	for _, id := range m.ActiveCells() {
		counts[m.EToP[id]]++
	}
	for p := 0; p < np; p++ {
		fmt.Printf("rank %d: %d cells\n", p, counts[p])
	}
}
