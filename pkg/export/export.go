// Package export converts decoded assets back into interchange formats.
package export

import (
	"fmt"
	"io"

	"github.com/EliCDavis/polyform/formats/ply"
	"github.com/EliCDavis/polyform/modeling"
	"github.com/EliCDavis/vector/vector3"

	"github.com/voxelia/splatview/pkg/formats"
)

// SplatToPLY writes a splat cloud as a binary point-cloud PLY with
// position and color attributes. Gaussian parameters (scale, rotation,
// opacity) have no point-cloud equivalent and are dropped.
func SplatToPLY(w io.Writer, cloud *formats.SplatCloud) error {
	if cloud == nil || cloud.Count == 0 {
		return fmt.Errorf("export: empty splat cloud")
	}

	positions := make([]vector3.Float64, cloud.Count)
	colors := make([]vector3.Float64, cloud.Count)
	for i := 0; i < cloud.Count; i++ {
		positions[i] = vector3.New(
			float64(cloud.Positions[i*3+0]),
			float64(cloud.Positions[i*3+1]),
			float64(cloud.Positions[i*3+2]),
		)
		colors[i] = vector3.New(
			float64(cloud.Colors[i*3+0]),
			float64(cloud.Colors[i*3+1]),
			float64(cloud.Colors[i*3+2]),
		)
	}

	pc := modeling.NewPointCloud(
		map[string][]vector3.Float64{
			modeling.PositionAttribute: positions,
			modeling.ColorAttribute:    colors,
		},
		nil,
		nil,
		nil,
	)

	if err := ply.WriteBinary(w, pc); err != nil {
		return fmt.Errorf("export: write ply: %w", err)
	}
	return nil
}

// MeshToPLY writes a triangle mesh's vertices as a binary point-cloud
// PLY. Face connectivity is dropped; the output is a sampling of the
// surface suitable for point-based tooling.
func MeshToPLY(w io.Writer, mesh *formats.Mesh) error {
	if mesh == nil || mesh.VertexCount == 0 {
		return fmt.Errorf("export: empty mesh")
	}

	positions := make([]vector3.Float64, mesh.VertexCount)
	for i := 0; i < mesh.VertexCount; i++ {
		positions[i] = vector3.New(
			float64(mesh.Positions[i*3+0]),
			float64(mesh.Positions[i*3+1]),
			float64(mesh.Positions[i*3+2]),
		)
	}

	attrs := map[string][]vector3.Float64{
		modeling.PositionAttribute: positions,
	}
	if mesh.HasColor {
		colors := make([]vector3.Float64, mesh.VertexCount)
		for i := 0; i < mesh.VertexCount; i++ {
			colors[i] = vector3.New(
				float64(mesh.Colors[i*3+0]),
				float64(mesh.Colors[i*3+1]),
				float64(mesh.Colors[i*3+2]),
			)
		}
		attrs[modeling.ColorAttribute] = colors
	}

	pc := modeling.NewPointCloud(attrs, nil, nil, nil)
	if err := ply.WriteBinary(w, pc); err != nil {
		return fmt.Errorf("export: write ply: %w", err)
	}
	return nil
}
