package vec

// =============================================================================
// Constants for vector operations
// =============================================================================

// Float32 constants
var (
	vecOne_f32  float32 = 1.0
	vecZero_f32 float32 = 0.0
)

// Float64 constants
var (
	vecOne_f64  float64 = 1.0
	vecZero_f64 float64 = 0.0
)
