// Compressed-splat (.sog) container stub.
package formats

// DecodeSOG accepts a compressed-splat container and returns an empty
// point set. The compact container format is not decoded yet; callers
// should surface a warning when they receive an empty cloud from this
// path.
//
// TODO: decode the webp-packed attribute planes once the container layout
// is settled upstream.
func DecodeSOG(data []byte) (*SplatCloud, error) {
	_ = data
	return &SplatCloud{
		Positions: []float32{},
		Scales:    []float32{},
		Rotations: []float32{},
		Colors:    []float32{},
		Opacities: []float32{},
	}, nil
}
