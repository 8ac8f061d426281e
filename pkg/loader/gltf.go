// glTF / GLB scene loading on top of qmuntal/gltf, flattened into the
// viewer's mesh shape.
package loader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"

	"github.com/voxelia/splatview/pkg/formats"
)

// SceneAsset is a decoded glTF scene: the parsed document plus a merged
// triangle mesh ready for rendering, and the names of any animations and
// cameras the document carries.
type SceneAsset struct {
	Doc  *gltf.Document
	Mesh *formats.Mesh

	Animations []string
	Cameras    []string
}

// DecodeScene parses a .glb or .gltf asset. Primitives referencing
// external buffer files are skipped; the viewer expects self-contained
// assets (GLB or data-URI buffers).
func DecodeScene(data []byte) (*SceneAsset, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("gltf decode: %w", err)
	}

	asset := &SceneAsset{
		Doc:  doc,
		Mesh: mergePrimitives(doc),
	}

	for _, anim := range doc.Animations {
		asset.Animations = append(asset.Animations, anim.Name)
	}
	for _, cam := range doc.Cameras {
		asset.Cameras = append(asset.Cameras, cam.Name)
	}

	return asset, nil
}

// mergePrimitives flattens every triangle primitive in the document into
// one mesh. Node transforms are not applied; the merged mesh is recentered
// to its centroid for framing, which is sufficient for single-model
// viewing.
func mergePrimitives(doc *gltf.Document) *formats.Mesh {
	mesh := &formats.Mesh{}
	sawNormals := true

	for _, gm := range doc.Meshes {
		for _, prim := range gm.Primitives {
			posIdx, ok := prim.Attributes["POSITION"]
			if !ok {
				continue
			}
			positions := readVec3Accessor(doc, int(posIdx))
			if positions == nil {
				continue
			}
			base := uint32(mesh.VertexCount)
			vertCount := len(positions) / 3

			mesh.Positions = append(mesh.Positions, positions...)
			mesh.VertexCount += vertCount

			if nIdx, ok := prim.Attributes["NORMAL"]; ok {
				if normals := readVec3Accessor(doc, int(nIdx)); len(normals) == len(positions) {
					mesh.Normals = append(mesh.Normals, normals...)
				} else {
					sawNormals = false
				}
			} else {
				sawNormals = false
			}

			if cIdx, ok := prim.Attributes["COLOR_0"]; ok {
				if colors := readVec3Accessor(doc, int(cIdx)); len(colors) == len(positions) {
					mesh.Colors = append(mesh.Colors, colors...)
					mesh.HasColor = true
				}
			}

			if prim.Indices != nil {
				for _, idx := range readIndexAccessor(doc, int(*prim.Indices)) {
					mesh.Indices = append(mesh.Indices, base+idx)
				}
			} else {
				for i := 0; i < vertCount; i++ {
					mesh.Indices = append(mesh.Indices, base+uint32(i))
				}
			}
		}
	}

	// Color arrays must cover all vertices or none.
	if mesh.HasColor && len(mesh.Colors) != len(mesh.Positions) {
		mesh.Colors = nil
		mesh.HasColor = false
	}

	if !sawNormals || len(mesh.Normals) != len(mesh.Positions) {
		mesh.Normals = formats.SmoothNormals(mesh.Positions, mesh.Indices)
	}
	formats.CenterToCentroid(mesh.Positions)

	return mesh
}

// accessorBytes resolves an accessor's backing byte range and stride.
func accessorBytes(doc *gltf.Document, idx int) (data []byte, count, stride, offset int, compType gltf.ComponentType, ok bool) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, 0, 0, 0, 0, false
	}
	acc := doc.Accessors[idx]
	if acc.BufferView == nil {
		return nil, 0, 0, 0, 0, false
	}
	// The decoder does not validate cross-references, so a malformed
	// document can point past the bufferView or buffer tables.
	viewIdx := int(*acc.BufferView)
	if viewIdx < 0 || viewIdx >= len(doc.BufferViews) {
		return nil, 0, 0, 0, 0, false
	}
	view := doc.BufferViews[viewIdx]
	bufIdx := int(view.Buffer)
	if bufIdx < 0 || bufIdx >= len(doc.Buffers) {
		return nil, 0, 0, 0, 0, false
	}
	buf := doc.Buffers[bufIdx]
	if len(buf.Data) == 0 {
		// External, unembedded buffer.
		return nil, 0, 0, 0, 0, false
	}
	end := int(view.ByteOffset) + int(view.ByteLength)
	if end > len(buf.Data) {
		return nil, 0, 0, 0, 0, false
	}
	return buf.Data[view.ByteOffset:end], int(acc.Count), int(view.ByteStride), int(acc.ByteOffset), acc.ComponentType, true
}

// readVec3Accessor reads a float32 vec3 accessor into a flat buffer.
func readVec3Accessor(doc *gltf.Document, idx int) []float32 {
	data, count, stride, offset, compType, ok := accessorBytes(doc, idx)
	if !ok || compType != gltf.ComponentFloat {
		return nil
	}
	if stride == 0 {
		stride = 12
	}

	out := make([]float32, 0, count*3)
	for i := 0; i < count; i++ {
		rec := i*stride + offset
		if rec+12 > len(data) {
			return nil
		}
		for c := 0; c < 3; c++ {
			bits := binary.LittleEndian.Uint32(data[rec+c*4:])
			out = append(out, math.Float32frombits(bits))
		}
	}
	return out
}

// readIndexAccessor reads an index accessor, widening to uint32.
func readIndexAccessor(doc *gltf.Document, idx int) []uint32 {
	data, count, stride, offset, compType, ok := accessorBytes(doc, idx)
	if !ok {
		return nil
	}

	var size int
	switch compType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil
	}
	if stride == 0 {
		stride = size
	}

	out := make([]uint32, 0, count)
	for i := 0; i < count; i++ {
		rec := i*stride + offset
		if rec+size > len(data) {
			return nil
		}
		switch compType {
		case gltf.ComponentUbyte:
			out = append(out, uint32(data[rec]))
		case gltf.ComponentUshort:
			out = append(out, uint32(binary.LittleEndian.Uint16(data[rec:])))
		default:
			out = append(out, binary.LittleEndian.Uint32(data[rec:]))
		}
	}
	return out
}
