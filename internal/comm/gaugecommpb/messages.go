// Package gaugecommpb holds the wire messages for the GaugeComm gRPC
// service. They are plain, gob-encodable structs rather than
// protoc-generated types: the service is wired through a custom gRPC codec
// (see comm.gobCodec) registered under the "gob" content-subtype, the
// documented extension point grpc-go offers for non-protobuf payloads, used
// here because this module never invokes protoc.
package gaugecommpb

// HaloRequest carries a whole boundary timeslice (every site, both parities,
// all four directions) from the sending rank to its neighbour. Node never
// sets Parity and does not read it.
type HaloRequest struct {
	FromRank int32
	Parity   bool
	Data     []float64
}

// HaloResponse carries the responder's own boundary timeslice on that seam,
// which the caller stores into its ghost slot.
type HaloResponse struct {
	Data []float64
}

// ReduceRequest carries a partial gauge-quality sum to the next rank in the
// all-reduce ring.
type ReduceRequest struct {
	FromRank int32
	Gff      float64
	Theta    float64
}

// ReduceResponse acknowledges a ReduceRequest. Node returns it empty; each
// rank accumulates the reduced scalars itself from the requests it receives.
type ReduceResponse struct {
	Gff   float64
	Theta float64
}
