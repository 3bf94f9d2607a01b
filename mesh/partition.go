package mesh

import (
	"fmt"
	"log"

	metis "github.com/notargets/go-metis"
)

// PartitionConfig holds configuration for mesh partitioning.
type PartitionConfig struct {
	NumPartitions   int32
	ImbalanceFactor float32 // e.g. 1.05 for 5% imbalance
	Objective       string  // "cut" or "vol"
}

// DefaultPartitionConfig returns the partitioning defaults.
func DefaultPartitionConfig(nparts int32) *PartitionConfig {
	return &PartitionConfig{
		NumPartitions:   nparts,
		ImbalanceFactor: 1.05,
		Objective:       "vol",
	}
}

/*
PartitionMetis distributes the active cells over config.NumPartitions ranks
with METIS k-way partitioning of the face-adjacency dual graph, writing the
result into m.EToP. Regression drivers that need a bitwise-stable
decomposition use PartitionContiguous instead.
*/
func PartitionMetis(m *Mesh, config *PartitionConfig) error {
	active := m.ActiveCells()
	log.Printf("Partitioning mesh with %d active cells into %d parts",
		len(active), config.NumPartitions)

	if config.NumPartitions < 2 {
		for _, id := range active {
			m.EToP[id] = 0
		}
		return nil
	}

	// Dual graph in CSR form over active cell positions
	pos := make(map[int]int, len(active))
	for k, id := range active {
		pos[id] = k
	}
	idx := m.activeFaceIndex()
	adj := make([][]int32, len(active))
	for _, refs := range idx {
		if len(refs) != 2 {
			continue
		}
		a, b := pos[refs[0].Cell], pos[refs[1].Cell]
		adj[a] = append(adj[a], int32(b))
		adj[b] = append(adj[b], int32(a))
	}
	xadj := make([]int32, len(active)+1)
	var adjncy []int32
	for k, nbrs := range adj {
		xadj[k+1] = xadj[k] + int32(len(nbrs))
		adjncy = append(adjncy, nbrs...)
	}

	opts := make([]int32, metis.NoOptions)
	if err := metis.SetDefaultOptions(opts); err != nil {
		return fmt.Errorf("failed to set METIS options: %w", err)
	}
	if config.Objective == "vol" {
		opts[metis.OptionObjType] = metis.ObjTypeVol
	} else {
		opts[metis.OptionObjType] = metis.ObjTypeCut
	}
	ubvec := []float32{config.ImbalanceFactor}

	part, objval, err := metis.PartGraphKwayWeighted(
		xadj, adjncy, nil, nil,
		config.NumPartitions, nil, ubvec, opts)
	if err != nil {
		return fmt.Errorf("METIS partitioning failed: %w", err)
	}
	log.Printf("METIS objective value: %d", objval)

	for k, id := range active {
		m.EToP[id] = int(part[k])
	}
	return nil
}

/*
PartitionContiguous splits the active cells into np contiguous buckets of
near-equal size in active-cell order, maximum imbalance one cell. Fully
deterministic, which the consistency regressions rely on.
*/
func PartitionContiguous(m *Mesh, np int) {
	active := m.ActiveCells()
	k := len(active)
	for n := 0; n < np; n++ {
		lo := k * n / np
		hi := k * (n + 1) / np
		for _, id := range active[lo:hi] {
			m.EToP[id] = n
		}
	}
}
