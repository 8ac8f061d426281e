// Gaussian-splat vertex record decoder: converts log-scale, quaternion,
// spherical-harmonic and logit-opacity encoded records into flat,
// render-ready attribute buffers.
package formats

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chewxy/math32"
)

// shC0 is the spherical-harmonic band-0 normalization constant used to
// convert the DC coefficient to a linear color channel.
const shC0 = 0.28209479177387814

// SplatCloud holds decoded splat attributes as parallel flat buffers, one
// slot per point. Every element is finite; colors and opacities are
// clamped to [0, 1].
type SplatCloud struct {
	Count int

	Positions []float32 // Count*3, world-space xyz
	Scales    []float32 // Count*3, exponentiated, > 0
	Rotations []float32 // Count*4, unit quaternion as (w, x, y, z)
	Colors    []float32 // Count*3, linear RGB in [0, 1]
	Opacities []float32 // Count, probability in [0, 1]
}

// Bounds returns the axis-aligned bounding box of the point positions.
func (c *SplatCloud) Bounds() (min, max [3]float32) {
	min = [3]float32{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	max = [3]float32{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
	for i := 0; i < c.Count; i++ {
		for axis := 0; axis < 3; axis++ {
			v := c.Positions[i*3+axis]
			if v < min[axis] {
				min[axis] = v
			}
			if v > max[axis] {
				max[axis] = v
			}
		}
	}
	if c.Count == 0 {
		min = [3]float32{}
		max = [3]float32{}
	}
	return min, max
}

// Center returns the midpoint of the bounding box.
func (c *SplatCloud) Center() [3]float32 {
	min, max := c.Bounds()
	return [3]float32{
		(min[0] + max[0]) / 2,
		(min[1] + max[1]) / 2,
		(min[2] + max[2]) / 2,
	}
}

// SplatOptions controls splat decoding.
type SplatOptions struct {
	// MaxPoints caps the number of decoded records; 0 means no cap.
	// This is the only backpressure mechanism: decoding is synchronous
	// and runs to completion once started.
	MaxPoints int
}

// fieldReader reads one named vertex field per record, returning a default
// when the container does not declare the field.
type fieldReader struct {
	prop    Property
	present bool
	def     float32
}

func (l *ContainerLayout) field(name string, def float32) fieldReader {
	p, ok := l.Property(name)
	return fieldReader{prop: p, present: ok, def: def}
}

func (f *fieldReader) read(data []byte, recordOffset int, order binary.ByteOrder) float32 {
	if !f.present {
		return f.def
	}
	return readScalar(data, recordOffset+f.prop.ByteOffset, f.prop.Type, order)
}

// readScalar interprets bytes at off as the given scalar type and widens
// to float32. Callers guarantee the slice covers the full record.
func readScalar(data []byte, off int, t ScalarType, order binary.ByteOrder) float32 {
	switch t {
	case TypeFloat64:
		return float32(math.Float64frombits(order.Uint64(data[off:])))
	case TypeUint8:
		return float32(data[off])
	case TypeInt8:
		return float32(int8(data[off]))
	case TypeUint16:
		return float32(order.Uint16(data[off:]))
	case TypeInt16:
		return float32(int16(order.Uint16(data[off:])))
	case TypeUint32:
		return float32(order.Uint32(data[off:]))
	case TypeInt32:
		return float32(int32(order.Uint32(data[off:])))
	default:
		return math.Float32frombits(order.Uint32(data[off:]))
	}
}

// sanitize maps non-finite raw field values to 0 so every decoded
// attribute stays finite.
func sanitize(v float32) float32 {
	if math32.IsNaN(v) || math32.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp01(v float32) float32 {
	if !(v > 0) { // catches NaN as well
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sigmoid is the logistic function used for logit-encoded opacity.
func sigmoid(v float32) float32 {
	return 1 / (1 + math32.Exp(-v))
}

// DecodeSplat decodes splat vertex records from a binary PLY payload into
// a SplatCloud. Fields absent from the layout yield per-field defaults
// rather than failing; decoding only aborts when the payload itself is
// unusable (ascii encoding, or fewer bytes than the declared records).
func DecodeSplat(data []byte, layout *ContainerLayout, opts SplatOptions) (*SplatCloud, error) {
	if layout.Encoding == EncodingASCII {
		return nil, fmt.Errorf("%w: ascii records are not supported by the splat decoder", ErrUnsupportedEncoding)
	}
	var order binary.ByteOrder = binary.LittleEndian
	if layout.Encoding == EncodingBinaryBE {
		order = binary.BigEndian
	}

	count := layout.RecordCount
	if opts.MaxPoints > 0 && count > opts.MaxPoints {
		count = opts.MaxPoints
	}

	if layout.BytesPerRecord <= 0 && count > 0 {
		return nil, fmt.Errorf("%w: vertex element has no fixed record size", ErrMalformedHeader)
	}
	// Divide instead of multiplying so an absurd declared count cannot
	// overflow past the bounds check.
	if count > 0 && count > (len(data)-layout.DataStart)/layout.BytesPerRecord {
		return nil, fmt.Errorf("%w: %d records of %d bytes exceed the %d-byte payload",
			ErrTruncatedData, count, layout.BytesPerRecord, len(data)-layout.DataStart)
	}

	// Resolve every field once; the per-record loop never touches the
	// property list again.
	px := layout.field("x", 0)
	py := layout.field("y", 0)
	pz := layout.field("z", 0)
	var scales [3]fieldReader
	for i := range scales {
		scales[i] = layout.field(fmt.Sprintf("scale_%d", i), 0)
	}
	var rots [4]fieldReader
	rotDefaults := [4]float32{1, 0, 0, 0} // identity (w, x, y, z)
	for i := range rots {
		rots[i] = layout.field(fmt.Sprintf("rot_%d", i), rotDefaults[i])
	}
	var dc [3]fieldReader
	for i := range dc {
		dc[i] = layout.field(fmt.Sprintf("f_dc_%d", i), 0)
	}
	// An absent opacity field decodes as sigmoid(0) = 0.5.
	op := layout.field("opacity", 0)

	cloud := &SplatCloud{
		Count:     count,
		Positions: make([]float32, count*3),
		Scales:    make([]float32, count*3),
		Rotations: make([]float32, count*4),
		Colors:    make([]float32, count*3),
		Opacities: make([]float32, count),
	}

	for i := 0; i < count; i++ {
		rec := layout.DataStart + i*layout.BytesPerRecord

		cloud.Positions[i*3+0] = sanitize(px.read(data, rec, order))
		cloud.Positions[i*3+1] = sanitize(py.read(data, rec, order))
		cloud.Positions[i*3+2] = sanitize(pz.read(data, rec, order))

		for axis := 0; axis < 3; axis++ {
			s := math32.Exp(sanitize(scales[axis].read(data, rec, order)))
			if math32.IsInf(s, 1) {
				s = math32.MaxFloat32
			}
			cloud.Scales[i*3+axis] = s
		}

		var q [4]float32
		var norm float32
		for j := 0; j < 4; j++ {
			q[j] = sanitize(rots[j].read(data, rec, order))
			norm += q[j] * q[j]
		}
		if norm < 1e-12 {
			q = rotDefaults
		} else {
			inv := 1 / math32.Sqrt(norm)
			for j := range q {
				q[j] *= inv
			}
		}
		copy(cloud.Rotations[i*4:i*4+4], q[:])

		for ch := 0; ch < 3; ch++ {
			raw := sanitize(dc[ch].read(data, rec, order))
			cloud.Colors[i*3+ch] = clamp01(0.5 + shC0*raw)
		}

		cloud.Opacities[i] = clamp01(sigmoid(sanitize(op.read(data, rec, order))))
	}

	return cloud, nil
}
