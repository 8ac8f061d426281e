package scene

import (
	"github.com/voxelia/splatview/pkg/formats"
	"github.com/voxelia/splatview/pkg/loader"
	"github.com/voxelia/splatview/pkg/math"
)

// Scene owns the GPU renderers and the currently displayed asset.
// Exactly one of the renderers holds data at a time.
type Scene struct {
	Splat *SplatRenderer
	Mesh  *MeshRenderer

	current *loader.Result

	// ModelRotation spins the displayed asset around the Y axis.
	ModelRotation float32
}

// New creates both renderers. Must be called with a current GL context.
func New() (*Scene, error) {
	splat, err := NewSplatRenderer()
	if err != nil {
		return nil, err
	}
	mesh, err := NewMeshRenderer()
	if err != nil {
		splat.Destroy()
		return nil, err
	}
	return &Scene{Splat: splat, Mesh: mesh}, nil
}

// SetResult uploads a decoded asset, replacing whatever was shown
// before. The caller decodes first and only calls this on success, so
// a failed load never disturbs the current view.
func (s *Scene) SetResult(res *loader.Result) {
	s.Splat.Upload(nil)
	s.Mesh.Upload(nil)
	s.current = res
	if res == nil {
		return
	}

	switch res.Kind {
	case loader.ResultSplatCloud:
		s.Splat.Upload(res.Splat)
	case loader.ResultMesh:
		s.Mesh.Upload(res.Mesh)
	case loader.ResultScene:
		if res.Scene != nil {
			s.Mesh.Upload(res.Scene.Mesh)
		}
	}
}

// Current returns the asset being displayed, or nil.
func (s *Scene) Current() *loader.Result {
	return s.current
}

// Bounds returns the axis-aligned bounds of the displayed asset.
func (s *Scene) Bounds() (min, max math.Vec3, ok bool) {
	var lo, hi [3]float32
	switch {
	case s.current == nil:
		return math.Vec3{}, math.Vec3{}, false
	case s.current.Splat != nil && s.current.Splat.Count > 0:
		lo, hi = s.current.Splat.Bounds()
	case s.current.Mesh != nil && s.current.Mesh.VertexCount > 0:
		lo, hi = s.current.Mesh.Bounds()
	case s.current.Scene != nil && s.current.Scene.Mesh != nil && s.current.Scene.Mesh.VertexCount > 0:
		lo, hi = s.current.Scene.Mesh.Bounds()
	default:
		return math.Vec3{}, math.Vec3{}, false
	}
	return math.Vec3{X: lo[0], Y: lo[1], Z: lo[2]}, math.Vec3{X: hi[0], Y: hi[1], Z: hi[2]}, true
}

// Render draws the displayed asset with the given camera matrices.
func (s *Scene) Render(view, projection math.Mat4) {
	model := math.RotateY(s.ModelRotation)

	if s.Splat.Count() > 0 {
		// Model rotation folds into the view matrix so the shader's
		// distance term stays correct.
		s.Splat.Render(view.Mul(model), projection)
		return
	}
	s.Mesh.Render(model, view, projection)
}

// DisplayedMesh returns the mesh currently uploaded, if any.
func (s *Scene) DisplayedMesh() *formats.Mesh {
	if s.current == nil {
		return nil
	}
	if s.current.Mesh != nil {
		return s.current.Mesh
	}
	if s.current.Scene != nil {
		return s.current.Scene.Mesh
	}
	return nil
}

// Destroy releases both renderers.
func (s *Scene) Destroy() {
	if s.Splat != nil {
		s.Splat.Destroy()
	}
	if s.Mesh != nil {
		s.Mesh.Destroy()
	}
	s.current = nil
}
