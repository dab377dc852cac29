package partition

import metis "github.com/notargets/go-metis"

// PartitionWithMetis is an opt-in, higher-quality alternative to
// FastPartition for large meshes where partition quality (minimizing the
// edge cut, not just producing *some* partition) matters more than the
// zero-dependency simplicity of the hash partitioner. It builds the CSR
// adjacency METIS expects from the vertex graph and calls its multilevel
// k-way partitioner.
//
// Correctness of Coarsen/Swap never depends on which of the two
// partitioners is used; this is purely a load-balance/cut-quality choice
// left to the caller.
func PartitionWithMetis(g Graph, workers int) ([]int32, error) {
	n := int(g.NNodes())
	if workers < 1 {
		workers = 1
	}
	if workers == 1 || n == 0 {
		part := make([]int32, n)
		return part, nil
	}

	xadj := make([]int32, n+1)
	var adjncy []int32
	for v := 0; v < n; v++ {
		xadj[v] = int32(len(adjncy))
		for _, u := range g.NNList(int64(v)) {
			adjncy = append(adjncy, u)
		}
	}
	xadj[n] = int32(len(adjncy))

	part, _, err := metis.PartGraphKway(int32(n), xadj, adjncy, int32(workers))
	if err != nil {
		return nil, err
	}
	return part, nil
}
