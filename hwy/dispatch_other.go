// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hwy

// This is the only dispatch backend: the gauge-fixing kernels parallelize
// over checkerboard blocks with goroutines (see internal/kernel), not CPU
// SIMD lanes, so there is no per-arch feature detection to perform.
func init() {
	currentLevel = DispatchScalar
	currentWidth = 16 // keep a 16-byte notion of a "vector" for API consistency
	currentName = "scalar"
}

// HasF16C always returns false; there is no SIMD backend in this build.
func HasF16C() bool {
	return false
}

// HasAVX512FP16 always returns false; there is no SIMD backend in this build.
func HasAVX512FP16() bool {
	return false
}

// HasAVX512BF16 always returns false; there is no SIMD backend in this build.
func HasAVX512BF16() bool {
	return false
}

// HasARMFP16 always returns false; there is no SIMD backend in this build.
func HasARMFP16() bool {
	return false
}

// HasARMBF16 always returns false; there is no SIMD backend in this build.
func HasARMBF16() bool {
	return false
}
