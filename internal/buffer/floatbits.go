package buffer

import "math"

func uint32ToFloat32(v uint32) float32 { return math.Float32frombits(v) }
func float32ToUint32(v float32) uint32 { return math.Float32bits(v) }
func uint64ToFloat64(v uint64) float64 { return math.Float64frombits(v) }
func float64ToUint64(v float64) uint64 { return math.Float64bits(v) }
