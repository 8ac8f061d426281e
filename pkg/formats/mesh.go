// PLY surface-mesh decoder: vertex attributes, face triangulation, normal
// synthesis and recentering.
package formats

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// Mesh is a decoded triangle mesh with flat attribute buffers. Normals are
// always populated (synthesized from faces when the source lacks them),
// positions are recentered to the mesh centroid, and Colors is non-empty
// only when the source supplies per-vertex color.
type Mesh struct {
	VertexCount int

	Positions []float32 // VertexCount*3
	Normals   []float32 // VertexCount*3
	Colors    []float32 // VertexCount*3 when HasColor, else nil
	Indices   []uint32  // 3 per triangle; empty for pure point sets

	HasColor bool
}

// Bounds returns the axis-aligned bounding box of the mesh positions.
func (m *Mesh) Bounds() (min, max [3]float32) {
	min = [3]float32{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	max = [3]float32{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
	for i := 0; i < m.VertexCount; i++ {
		for axis := 0; axis < 3; axis++ {
			v := m.Positions[i*3+axis]
			if v < min[axis] {
				min[axis] = v
			}
			if v > max[axis] {
				max[axis] = v
			}
		}
	}
	if m.VertexCount == 0 {
		min = [3]float32{}
		max = [3]float32{}
	}
	return min, max
}

// DecodeMesh decodes a PLY surface mesh. Both ascii and binary payloads
// are accepted. Topology is taken as declared; faces with more than three
// vertices are fan-triangulated.
func DecodeMesh(data []byte, layout *ContainerLayout) (*Mesh, error) {
	var mesh *Mesh
	var err error
	if layout.Encoding == EncodingASCII {
		mesh, err = decodeMeshASCII(data, layout)
	} else {
		mesh, err = decodeMeshBinary(data, layout)
	}
	if err != nil {
		return nil, err
	}

	if len(mesh.Normals) == 0 {
		mesh.Normals = SmoothNormals(mesh.Positions, mesh.Indices)
	}
	CenterToCentroid(mesh.Positions)
	return mesh, nil
}

// vertexFields resolves the optional mesh vertex attributes once.
type vertexFields struct {
	pos  [3]fieldReader
	nrm  [3]fieldReader
	col  [3]fieldReader
	norm bool
	col8 bool // color stored as uchar, normalize by 255
}

func resolveVertexFields(layout *ContainerLayout) vertexFields {
	var f vertexFields
	for i, name := range []string{"x", "y", "z"} {
		f.pos[i] = layout.field(name, 0)
	}
	for i, name := range []string{"nx", "ny", "nz"} {
		f.nrm[i] = layout.field(name, 0)
	}
	f.norm = f.nrm[0].present && f.nrm[1].present && f.nrm[2].present
	for i, name := range []string{"red", "green", "blue"} {
		f.col[i] = layout.field(name, 0)
	}
	if f.col[0].present {
		f.col8 = f.col[0].prop.Type == TypeUint8 || f.col[0].prop.Type == TypeInt8
	}
	return f
}

func (f *vertexFields) hasColor() bool {
	return f.col[0].present && f.col[1].present && f.col[2].present
}

func decodeMeshBinary(data []byte, layout *ContainerLayout) (*Mesh, error) {
	var order binary.ByteOrder = binary.LittleEndian
	if layout.Encoding == EncodingBinaryBE {
		order = binary.BigEndian
	}

	fields := resolveVertexFields(layout)
	mesh := &Mesh{}

	cursor := layout.DataStart
	for ei := range layout.Elements {
		elem := &layout.Elements[ei]

		switch {
		case elem.Name == "vertex":
			if elem.HasList() {
				return nil, fmt.Errorf("%w: list property in vertex element", ErrMalformedHeader)
			}
			if elem.Count > 0 && elem.ByteSize <= 0 {
				return nil, fmt.Errorf("%w: vertex element has no fixed record size", ErrMalformedHeader)
			}
			// Division rather than multiplication so a huge declared count
			// cannot overflow past the check.
			if elem.Count > 0 && elem.Count > (len(data)-cursor)/elem.ByteSize {
				return nil, fmt.Errorf("%w: %d vertex records of %d bytes exceed the remaining %d bytes",
					ErrTruncatedData, elem.Count, elem.ByteSize, len(data)-cursor)
			}
			readMeshVertices(mesh, data, cursor, elem.Count, elem.ByteSize, &fields, order)
			cursor += elem.Count * elem.ByteSize

		case elem.HasList():
			var err error
			cursor, err = readListElement(mesh, data, cursor, elem, order)
			if err != nil {
				return nil, err
			}

		default:
			if elem.Count > 0 && elem.ByteSize > 0 && elem.Count > (len(data)-cursor)/elem.ByteSize {
				return nil, fmt.Errorf("%w: element %q exceeds buffer", ErrTruncatedData, elem.Name)
			}
			cursor += elem.Count * elem.ByteSize
		}
	}

	return mesh, nil
}

func readMeshVertices(mesh *Mesh, data []byte, base, count, stride int, fields *vertexFields, order binary.ByteOrder) {
	mesh.VertexCount = count
	mesh.Positions = make([]float32, count*3)
	if fields.norm {
		mesh.Normals = make([]float32, count*3)
	}
	mesh.HasColor = fields.hasColor()
	if mesh.HasColor {
		mesh.Colors = make([]float32, count*3)
	}

	for i := 0; i < count; i++ {
		rec := base + i*stride
		for axis := 0; axis < 3; axis++ {
			mesh.Positions[i*3+axis] = sanitize(fields.pos[axis].read(data, rec, order))
			if fields.norm {
				mesh.Normals[i*3+axis] = sanitize(fields.nrm[axis].read(data, rec, order))
			}
			if mesh.HasColor {
				c := sanitize(fields.col[axis].read(data, rec, order))
				if fields.col8 {
					c /= 255
				}
				mesh.Colors[i*3+axis] = clamp01(c)
			}
		}
	}
}

// readListElement walks a variable-size element record by record. Face
// elements contribute triangulated indices; other list elements are only
// skipped over.
func readListElement(mesh *Mesh, data []byte, cursor int, elem *Element, order binary.ByteOrder) (int, error) {
	isFace := elem.Name == "face"

	for i := 0; i < elem.Count; i++ {
		for pi := range elem.Properties {
			prop := &elem.Properties[pi]

			if !prop.IsList {
				next := cursor + prop.Type.ByteSize()
				if next > len(data) {
					return 0, fmt.Errorf("%w: element %q record %d", ErrTruncatedData, elem.Name, i)
				}
				cursor = next
				continue
			}

			countSize := prop.CountType.ByteSize()
			if cursor+countSize > len(data) {
				return 0, fmt.Errorf("%w: element %q record %d", ErrTruncatedData, elem.Name, i)
			}
			n := int(readScalar(data, cursor, prop.CountType, order))
			cursor += countSize
			if n < 0 {
				return 0, fmt.Errorf("%w: negative list length in element %q", ErrMalformedHeader, elem.Name)
			}

			itemSize := prop.Type.ByteSize()
			if cursor+n*itemSize > len(data) {
				return 0, fmt.Errorf("%w: element %q record %d", ErrTruncatedData, elem.Name, i)
			}

			if isFace && isIndexProperty(prop.Name) {
				idx := make([]uint32, n)
				for j := 0; j < n; j++ {
					idx[j] = uint32(readScalar(data, cursor+j*itemSize, prop.Type, order))
				}
				appendTriangulated(mesh, idx)
			}
			cursor += n * itemSize
		}
	}
	return cursor, nil
}

func isIndexProperty(name string) bool {
	return name == "vertex_indices" || name == "vertex_index"
}

// appendTriangulated fan-triangulates a polygon's vertex indices, dropping
// indices outside the decoded vertex range.
func appendTriangulated(mesh *Mesh, idx []uint32) {
	limit := uint32(mesh.VertexCount)
	for j := 2; j < len(idx); j++ {
		a, b, c := idx[0], idx[j-1], idx[j]
		if a >= limit || b >= limit || c >= limit {
			continue
		}
		mesh.Indices = append(mesh.Indices, a, b, c)
	}
}

func decodeMeshASCII(data []byte, layout *ContainerLayout) (*Mesh, error) {
	tokens := strings.Fields(string(data[layout.DataStart:]))
	pos := 0
	next := func() (float32, error) {
		if pos >= len(tokens) {
			return 0, fmt.Errorf("%w: ascii payload ended early", ErrTruncatedData)
		}
		v, err := strconv.ParseFloat(tokens[pos], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad ascii token %q", ErrTruncatedData, tokens[pos])
		}
		pos++
		return float32(v), nil
	}

	fields := resolveVertexFields(layout)
	mesh := &Mesh{}

	for ei := range layout.Elements {
		elem := &layout.Elements[ei]

		if elem.Name == "vertex" {
			if elem.Count > 0 && len(elem.Properties) == 0 {
				return nil, fmt.Errorf("%w: vertex element has no properties", ErrMalformedHeader)
			}
			// Every record consumes at least one token per property, so a
			// count the remaining tokens cannot cover is rejected before
			// the buffers are sized from it.
			if elem.Count > 0 && elem.Count > (len(tokens)-pos)/len(elem.Properties) {
				return nil, fmt.Errorf("%w: %d vertex records exceed the %d remaining ascii tokens",
					ErrTruncatedData, elem.Count, len(tokens)-pos)
			}
			mesh.VertexCount = elem.Count
			mesh.Positions = make([]float32, elem.Count*3)
			if fields.norm {
				mesh.Normals = make([]float32, elem.Count*3)
			}
			mesh.HasColor = fields.hasColor()
			if mesh.HasColor {
				mesh.Colors = make([]float32, elem.Count*3)
			}

			for i := 0; i < elem.Count; i++ {
				for pi := range elem.Properties {
					prop := &elem.Properties[pi]
					v, err := next()
					if err != nil {
						return nil, err
					}
					storeASCIIVertexValue(mesh, &fields, prop, i, v)
				}
			}
			continue
		}

		// Non-vertex elements: walk records, keeping face indices.
		isFace := elem.Name == "face"
		for i := 0; i < elem.Count; i++ {
			for pi := range elem.Properties {
				prop := &elem.Properties[pi]
				if !prop.IsList {
					if _, err := next(); err != nil {
						return nil, err
					}
					continue
				}
				nf, err := next()
				if err != nil {
					return nil, err
				}
				n := int(nf)
				if n < 0 {
					return nil, fmt.Errorf("%w: negative list length", ErrMalformedHeader)
				}
				if n > len(tokens)-pos {
					return nil, fmt.Errorf("%w: list length %d exceeds remaining ascii tokens", ErrTruncatedData, n)
				}
				idx := make([]uint32, n)
				for j := 0; j < n; j++ {
					v, err := next()
					if err != nil {
						return nil, err
					}
					idx[j] = uint32(v)
				}
				if isFace && isIndexProperty(prop.Name) {
					appendTriangulated(mesh, idx)
				}
			}
		}
	}

	return mesh, nil
}

func storeASCIIVertexValue(mesh *Mesh, fields *vertexFields, prop *Property, vert int, v float32) {
	v = sanitize(v)
	switch prop.Name {
	case "x":
		mesh.Positions[vert*3] = v
	case "y":
		mesh.Positions[vert*3+1] = v
	case "z":
		mesh.Positions[vert*3+2] = v
	case "nx", "ny", "nz":
		if fields.norm {
			axis := int(prop.Name[1] - 'x')
			mesh.Normals[vert*3+axis] = v
		}
	case "red", "green", "blue":
		if mesh.HasColor {
			axis := 0
			switch prop.Name {
			case "green":
				axis = 1
			case "blue":
				axis = 2
			}
			if fields.col8 {
				v /= 255
			}
			mesh.Colors[vert*3+axis] = clamp01(v)
		}
	}
}

// SmoothNormals synthesizes per-vertex normals by accumulating
// area-weighted face normals. Vertices referenced by no face get an
// up-facing normal so unlit rendering still behaves.
func SmoothNormals(positions []float32, indices []uint32) []float32 {
	normals := make([]float32, len(positions))

	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := int(indices[t])*3, int(indices[t+1])*3, int(indices[t+2])*3

		e1 := [3]float32{positions[b] - positions[a], positions[b+1] - positions[a+1], positions[b+2] - positions[a+2]}
		e2 := [3]float32{positions[c] - positions[a], positions[c+1] - positions[a+1], positions[c+2] - positions[a+2]}

		n := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}

		for _, base := range []int{a, b, c} {
			normals[base] += n[0]
			normals[base+1] += n[1]
			normals[base+2] += n[2]
		}
	}

	for i := 0; i+2 < len(normals); i += 3 {
		l := math32.Sqrt(normals[i]*normals[i] + normals[i+1]*normals[i+1] + normals[i+2]*normals[i+2])
		if l < 1e-8 {
			normals[i], normals[i+1], normals[i+2] = 0, 1, 0
			continue
		}
		normals[i] /= l
		normals[i+1] /= l
		normals[i+2] /= l
	}

	return normals
}

// CenterToCentroid translates positions so their centroid sits at the
// origin, returning the offset that was subtracted.
func CenterToCentroid(positions []float32) [3]float32 {
	n := len(positions) / 3
	if n == 0 {
		return [3]float32{}
	}

	var sum [3]float64
	for i := 0; i < n; i++ {
		sum[0] += float64(positions[i*3])
		sum[1] += float64(positions[i*3+1])
		sum[2] += float64(positions[i*3+2])
	}

	centroid := [3]float32{
		float32(sum[0] / float64(n)),
		float32(sum[1] / float64(n)),
		float32(sum[2] / float64(n)),
	}
	for i := 0; i < n; i++ {
		positions[i*3] -= centroid[0]
		positions[i*3+1] -= centroid[1]
		positions[i*3+2] -= centroid[2]
	}
	return centroid
}
