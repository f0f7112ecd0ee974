// Package comm implements the multi-rank communicator: time-axis
// partitioning, the six-partition overlap schedule that hides halo transport
// behind interior compute, and the gRPC transport that exchanges halo
// slices and reduces gauge-quality scalars across ranks. Grounded line for
// line on
// original_source/src/gaugefixing/apps/MultiGPU_MPI/MultiGPU_MPI_Communicator.hxx.
package comm

// Partition describes one rank's ownership of the time axis and its
// precomputed six-stage overlap schedule.
type Partition struct {
	Rank, Nprocs int
	Tmin, Tmax   int
	LeftRank     int
	RightRank    int
	StartPart    [6]int
	EndPart      [6]int
}

// NewPartition computes a rank's owned timeslice range and overlap schedule
// exactly as the source constructor does: tmin = rank*Nt/nprocs, tmax =
// (rank+1)*Nt/nprocs, and the six partitions sized to spread the interior
// timeslices as evenly as possible across the six overlap stages.
func NewPartition(rank, nprocs, nt int) Partition {
	p := Partition{
		Rank:      rank,
		Nprocs:    nprocs,
		Tmin:      rank * nt / nprocs,
		Tmax:      (rank + 1) * nt / nprocs,
		LeftRank:  (rank - 1 + nprocs) % nprocs,
		RightRank: (rank + 1) % nprocs,
	}
	numbSlices := p.Tmax - p.Tmin

	for l := 0; l < 6; l++ {
		p.StartPart[l] = p.Tmin + 1
		p.EndPart[l] = p.Tmin + 1
	}
	for t := 1; t < numbSlices; t++ {
		for l := 0; l < 6; l++ {
			if l == (t-1)%6 {
				p.EndPart[l]++
			}
			if l > (t-1)%6 {
				p.StartPart[l]++
				p.EndPart[l]++
			}
		}
	}
	return p
}

// OwnerOf returns which rank owns global timeslice t.
func OwnerOf(t, nprocs, nt int) int {
	for k := 0; k < nprocs; k++ {
		lo, hi := k*nt/nprocs, (k+1)*nt/nprocs
		if t >= lo && t < hi {
			return k
		}
	}
	return -1
}
