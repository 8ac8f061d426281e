// Offscreen 3D viewport rendered into a framebuffer texture for ImGui.
package main

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/voxelia/splatview/internal/config"
	"github.com/voxelia/splatview/internal/engine/camera"
	"github.com/voxelia/splatview/internal/engine/framebuffer"
	"github.com/voxelia/splatview/internal/engine/scene"
	"github.com/voxelia/splatview/pkg/loader"
	"github.com/voxelia/splatview/pkg/math"
)

// viewerFOV is the vertical field of view in radians.
const viewerFOV = float32(0.8)

// Viewer3D renders the loaded asset to an offscreen framebuffer so the
// result can be shown as an ImGui image inside the viewport panel.
type Viewer3D struct {
	fb     *framebuffer.Framebuffer
	scene  *scene.Scene
	camera *camera.OrbitCamera

	background [3]float32

	// AutoRotate spins the model about Y when set.
	AutoRotate bool
}

// NewViewer3D creates the offscreen viewer. Requires a current OpenGL
// context; call only after the backend window exists.
func NewViewer3D(width, height int32, cfg *config.Config) (*Viewer3D, error) {
	fb, err := framebuffer.New(width, height)
	if err != nil {
		return nil, fmt.Errorf("framebuffer: %w", err)
	}

	sc, err := scene.New()
	if err != nil {
		fb.Destroy()
		return nil, fmt.Errorf("scene: %w", err)
	}
	sc.Splat.BasePointSize = cfg.Render.BasePointSize
	sc.Mesh.LightDir = cfg.Render.LightDir
	sc.Mesh.Ambient = cfg.Render.Ambient

	return &Viewer3D{
		fb:         fb,
		scene:      sc,
		camera:     camera.NewOrbitCamera(),
		background: cfg.Render.Background,
	}, nil
}

// SetResult swaps the displayed asset and reframes the camera. The caller
// has already decoded successfully, so the previous asset is only released
// here, never on a failed load.
func (v *Viewer3D) SetResult(res *loader.Result) {
	v.scene.SetResult(res)
	v.FrameView()
}

// FrameView recenters and re-distances the camera on the current asset.
func (v *Viewer3D) FrameView() {
	if min, max, ok := v.scene.Bounds(); ok {
		v.camera.FrameBounds(min, max, viewerFOV)
	}
}

// Render draws the scene into the framebuffer and returns the color
// texture ID. The caller's framebuffer and viewport are restored.
func (v *Viewer3D) Render(dt float32) uint32 {
	if v.AutoRotate {
		v.scene.ModelRotation += dt * 0.5
	}

	restore := v.fb.BindWithViewport()
	defer restore()

	v.fb.Clear(v.background[0], v.background[1], v.background[2], 1.0)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	width, height := v.fb.Size()
	aspect := float32(width) / float32(height)
	projection := math.Perspective(viewerFOV, aspect, 0.01, 10000.0)
	view := v.camera.ViewMatrix()

	v.scene.Render(view, projection)
	gl.BindVertexArray(0)

	return v.fb.ColorTexture()
}

// ReadPixels returns the rendered viewport as RGBA bytes in OpenGL row
// order, bottom row first, along with its dimensions.
func (v *Viewer3D) ReadPixels() ([]byte, int32, int32) {
	width, height := v.fb.Size()
	return v.fb.ReadPixels(), width, height
}

// HandleMouseDrag rotates the orbit camera.
func (v *Viewer3D) HandleMouseDrag(deltaX, deltaY float32) {
	v.camera.HandleDrag(deltaX, deltaY)
}

// HandleMousePan shifts the orbit center in the screen plane.
func (v *Viewer3D) HandleMousePan(deltaX, deltaY float32) {
	v.camera.HandlePan(deltaX, deltaY)
}

// HandleMouseWheel zooms toward or away from the orbit center.
func (v *Viewer3D) HandleMouseWheel(delta float32) {
	v.camera.HandleZoom(delta)
}

// ResetView restores the default orbit angles and reframes the asset.
func (v *Viewer3D) ResetView() {
	v.scene.ModelRotation = 0
	v.FrameView()
}

// SetBackground updates the viewport clear color.
func (v *Viewer3D) SetBackground(rgb [3]float32) {
	v.background = rgb
}

// PointSize returns a pointer to the live splat size factor so the
// settings slider can edit it in place.
func (v *Viewer3D) PointSize() *float32 {
	return &v.scene.Splat.BasePointSize
}

// TextureRef wraps the color texture for imgui.ImageWithBgV.
func (v *Viewer3D) TextureRef() imgui.TextureRef {
	return *imgui.NewTextureRefTextureID(imgui.TextureID(v.fb.ColorTexture()))
}

// Destroy releases all GPU resources.
func (v *Viewer3D) Destroy() {
	if v.scene != nil {
		v.scene.Destroy()
		v.scene = nil
	}
	if v.fb != nil {
		v.fb.Destroy()
		v.fb = nil
	}
}
