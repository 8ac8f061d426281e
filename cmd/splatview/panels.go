// Side panel, viewport panel, and status bar rendering.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/voxelia/splatview/pkg/export"
	"github.com/voxelia/splatview/pkg/loader"
)

// renderAssetPanel renders the left panel: asset details and render settings.
func (app *App) renderAssetPanel() {
	if imgui.ButtonV("Open...", imgui.NewVec2(-1, 0)) {
		app.openFileDialog()
	}

	imgui.Separator()

	if app.result == nil {
		imgui.TextDisabled("No asset loaded")
		imgui.TextDisabled("File > Open... or Ctrl+O")
		app.renderSettings()
		return
	}

	res := app.result

	imgui.Text("File:")
	imgui.TextWrapped(res.Name)
	imgui.Text(fmt.Sprintf("Kind: %s", res.Kind))
	imgui.Text(fmt.Sprintf("Load time: %s", app.loadElapsed))

	if res.Warning != "" {
		imgui.Spacing()
		imgui.TextColored(imgui.NewVec4(1, 0.8, 0, 1), "Warning:")
		imgui.TextWrapped(res.Warning)
	}

	imgui.Spacing()
	imgui.Separator()

	switch res.Kind {
	case loader.ResultSplatCloud:
		app.renderSplatInfo()
	case loader.ResultMesh:
		app.renderMeshInfo()
	case loader.ResultScene:
		app.renderSceneInfo()
	}

	app.renderClassification()
	app.renderSettings()
}

func (app *App) renderSplatInfo() {
	cloud := app.result.Splat

	imgui.Text("Splat Cloud:")
	imgui.Text(fmt.Sprintf("  Points: %d", cloud.Count))

	if cloud.Count > 0 {
		min, max := cloud.Bounds()
		center := cloud.Center()
		imgui.Text(fmt.Sprintf("  Min: (%.2f, %.2f, %.2f)", min[0], min[1], min[2]))
		imgui.Text(fmt.Sprintf("  Max: (%.2f, %.2f, %.2f)", max[0], max[1], max[2]))
		imgui.Text(fmt.Sprintf("  Center: (%.2f, %.2f, %.2f)", center[0], center[1], center[2]))
	}

	if app.cfg.Render.MaxPoints > 0 && cloud.Count == app.cfg.Render.MaxPoints {
		imgui.TextDisabled(fmt.Sprintf("  (capped at %d points)", app.cfg.Render.MaxPoints))
	}
}

func (app *App) renderMeshInfo() {
	mesh := app.result.Mesh

	imgui.Text("Mesh:")
	imgui.Text(fmt.Sprintf("  Vertices: %d", mesh.VertexCount))
	imgui.Text(fmt.Sprintf("  Triangles: %d", len(mesh.Indices)/3))
	imgui.Text(fmt.Sprintf("  Vertex colors: %v", mesh.HasColor))

	if mesh.VertexCount > 0 {
		min, max := mesh.Bounds()
		imgui.Text(fmt.Sprintf("  Min: (%.2f, %.2f, %.2f)", min[0], min[1], min[2]))
		imgui.Text(fmt.Sprintf("  Max: (%.2f, %.2f, %.2f)", max[0], max[1], max[2]))
	}
}

func (app *App) renderSceneInfo() {
	sc := app.result.Scene

	imgui.Text("Scene:")
	if sc.Mesh != nil {
		imgui.Text(fmt.Sprintf("  Vertices: %d", sc.Mesh.VertexCount))
		imgui.Text(fmt.Sprintf("  Triangles: %d", len(sc.Mesh.Indices)/3))
	}

	if len(sc.Animations) > 0 {
		if imgui.TreeNodeExStrV(fmt.Sprintf("Animations (%d)", len(sc.Animations)), imgui.TreeNodeFlagsNone) {
			for _, name := range sc.Animations {
				imgui.BulletText(name)
			}
			imgui.TreePop()
		}
	}
	if len(sc.Cameras) > 0 {
		if imgui.TreeNodeExStrV(fmt.Sprintf("Cameras (%d)", len(sc.Cameras)), imgui.TreeNodeFlagsNone) {
			for _, name := range sc.Cameras {
				imgui.BulletText(name)
			}
			imgui.TreePop()
		}
	}
}

// renderClassification shows the header classification that routed a PLY
// file to the splat or mesh decoder.
func (app *App) renderClassification() {
	class := app.result.Classification
	if class == nil {
		return
	}

	imgui.Spacing()
	imgui.Separator()

	if imgui.TreeNodeExStrV("Classification", imgui.TreeNodeFlagsDefaultOpen) {
		imgui.Text(fmt.Sprintf("Records: %d", class.RecordCount))
		imgui.Text(fmt.Sprintf("Color: %v  Normal: %v", class.HasColor, class.HasNormal))

		if len(class.MatchedSplatProperties) > 0 {
			imgui.Text("Splat properties:")
			for _, name := range class.MatchedSplatProperties {
				imgui.BulletText(name)
			}
		} else {
			imgui.TextDisabled("No splat properties matched")
		}

		imgui.TreePop()
	}
}

// renderSettings shows the live render controls.
func (app *App) renderSettings() {
	imgui.Spacing()
	imgui.Separator()

	if app.viewer == nil {
		if app.viewerErr != "" {
			imgui.TextColored(imgui.NewVec4(1, 0.4, 0.4, 1), "Viewer unavailable:")
			imgui.TextWrapped(app.viewerErr)
		}
		return
	}

	if imgui.TreeNodeExStrV("Settings", imgui.TreeNodeFlagsDefaultOpen) {
		imgui.Text("Point size")
		imgui.SetNextItemWidth(-1)
		imgui.SliderFloatV("##PointSize", app.viewer.PointSize(), 0.1, 5.0, "%.2f", imgui.SliderFlagsNone)

		imgui.Checkbox("Auto-rotate", &app.viewer.AutoRotate)

		if imgui.Button("Frame") {
			app.viewer.FrameView()
		}
		imgui.SameLine()
		if imgui.Button("Reset View") {
			app.viewer.ResetView()
		}

		imgui.TreePop()
	}
}

// renderViewportPanel renders the offscreen 3D view and routes mouse input
// to the orbit camera while the image is hovered.
func (app *App) renderViewportPanel(dt float32) {
	if app.viewer == nil {
		imgui.TextDisabled("3D viewport unavailable")
		if app.viewerErr != "" {
			imgui.TextWrapped(app.viewerErr)
		}
		return
	}

	app.viewer.Render(dt)

	viewerW := float32(viewportWidth)
	viewerH := float32(viewportHeight)

	// Fit the texture into the available space, preserving aspect ratio.
	avail := imgui.ContentRegionAvail()
	aspectRatio := viewerW / viewerH
	displayW := avail.X
	displayH := displayW / aspectRatio
	if displayH > avail.Y {
		displayH = avail.Y
		displayW = displayH * aspectRatio
	}

	startX := imgui.CursorPosX()
	if displayW < avail.X {
		imgui.SetCursorPosX(startX + (avail.X-displayW)/2)
	}

	// Flip V so the GL framebuffer shows right side up.
	imgui.ImageWithBgV(
		app.viewer.TextureRef(),
		imgui.NewVec2(displayW, displayH),
		imgui.NewVec2(0, 1),
		imgui.NewVec2(1, 0),
		imgui.NewVec4(0.05, 0.05, 0.06, 1.0),
		imgui.NewVec4(1, 1, 1, 1),
	)

	if imgui.IsItemHovered() {
		mousePos := imgui.MousePos()
		if imgui.IsMouseDragging(imgui.MouseButtonLeft) {
			deltaX := mousePos.X - app.lastMousePos.X
			deltaY := mousePos.Y - app.lastMousePos.Y
			app.viewer.HandleMouseDrag(deltaX, deltaY)
		} else if imgui.IsMouseDragging(imgui.MouseButtonRight) {
			deltaX := mousePos.X - app.lastMousePos.X
			deltaY := mousePos.Y - app.lastMousePos.Y
			app.viewer.HandleMousePan(deltaX, deltaY)
		}
		app.lastMousePos = mousePos

		wheel := imgui.CurrentIO().MouseWheel()
		if wheel != 0 {
			app.viewer.HandleMouseWheel(wheel)
		}
	}

	imgui.TextDisabled("(Drag to orbit, right-drag to pan, scroll to zoom, F to frame)")
}

// renderStatusBar renders the status bar at the bottom.
func (app *App) renderStatusBar() {
	if app.lastError != "" {
		imgui.TextColored(imgui.NewVec4(1, 0.4, 0.4, 1), "Error: "+app.lastError)
		return
	}
	if app.statusMsg != "" {
		imgui.Text(app.statusMsg)
		return
	}
	imgui.Text("No asset loaded")
}

// canExport reports whether the current asset has something to write.
func (app *App) canExport() bool {
	if app.result == nil {
		return false
	}
	switch app.result.Kind {
	case loader.ResultSplatCloud:
		return app.result.Splat != nil && app.result.Splat.Count > 0
	case loader.ResultMesh:
		return app.result.Mesh != nil && app.result.Mesh.VertexCount > 0
	case loader.ResultScene:
		return app.result.Scene != nil && app.result.Scene.Mesh != nil
	}
	return false
}

// exportAsset writes the current asset as a binary PLY point cloud.
func (app *App) exportAsset(path string) error {
	if !app.canExport() {
		return errors.New("nothing to export")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	switch app.result.Kind {
	case loader.ResultSplatCloud:
		return export.SplatToPLY(f, app.result.Splat)
	case loader.ResultMesh:
		return export.MeshToPLY(f, app.result.Mesh)
	case loader.ResultScene:
		return export.MeshToPLY(f, app.result.Scene.Mesh)
	}
	return errors.New("unsupported asset kind")
}
