// SplatView - A graphical viewer for Gaussian splat clouds and meshes.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/voxelia/splatview/internal/config"
	"github.com/voxelia/splatview/internal/engine/screenshot"
	"github.com/voxelia/splatview/internal/logger"
	"github.com/voxelia/splatview/pkg/loader"
)

// Offscreen viewport resolution. Independent of window size; the panel
// scales the texture to fit.
const (
	viewportWidth  = 1024
	viewportHeight = 768
)

func main() {
	runtime.LockOSThread()

	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== splatview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	app := NewApp(cfg)
	defer app.Close()

	// An optional positional argument names the first file to show. It is
	// queued and loaded on the first frame, once the GL context is live.
	if path := flag.Arg(0); path != "" {
		app.pendingPath = path
	}

	app.Run()
}

// App holds the SplatView application state.
type App struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
	cfg     *config.Config

	// 3D viewport (created lazily on the first frame, after GL init)
	viewer    *Viewer3D
	viewerErr string

	// Loaded asset state
	result      *loader.Result
	assetPath   string
	loadElapsed time.Duration
	lastError   string

	// File dialog state (must open on main thread)
	pendingPath       string // Load path selected from file dialog, processed on main thread
	pendingExportPath string // Export destination, processed on main thread

	statusMsg string

	// Screenshot capture, taken after the viewport has rendered
	capture             *screenshot.Capture
	screenshotRequested bool

	lastFrame    time.Time
	lastMousePos imgui.Vec2
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config) *App {
	app := &App{
		cfg:       cfg,
		capture:   screenshot.NewCapture("screenshots", "splatview"),
		lastFrame: time.Now(),
	}

	var err error
	app.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		panic(fmt.Sprintf("failed to create backend: %v", err))
	}

	app.backend.SetBgColor(imgui.NewVec4(0.1, 0.1, 0.12, 1.0))
	app.backend.CreateWindow("SplatView", int(cfg.Graphics.Width), int(cfg.Graphics.Height))

	if err := gl.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "OpenGL init failed: %v\n", err)
		os.Exit(1)
	}

	return app
}

// Close cleans up resources.
func (app *App) Close() {
	if app.viewer != nil {
		app.viewer.Destroy()
		app.viewer = nil
	}
}

// Run starts the main application loop.
func (app *App) Run() {
	app.backend.Run(app.render)
}

// openFileDialog shows a native file dialog to pick an asset.
func (app *App) openFileDialog() {
	// Run in goroutine to not block the UI. Window operations must happen
	// on the main thread, so only pendingPath is set here and render()
	// picks it up.
	go func() {
		filename, err := dialog.File().
			Filter("3D Assets", "ply", "gltf", "glb", "sog").
			Filter("All Files", "*").
			Title("Open Asset").
			Load()

		if err != nil {
			if err != dialog.ErrCancelled {
				logger.Error("file dialog", zap.Error(err))
			}
			return
		}

		app.pendingPath = filename
	}()
}

// exportFileDialog shows a native save dialog for the PLY export.
func (app *App) exportFileDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("PLY Point Cloud", "ply").
			Title("Export PLY").
			Save()

		if err != nil {
			if err != dialog.ErrCancelled {
				logger.Error("export dialog", zap.Error(err))
			}
			return
		}

		app.pendingExportPath = filename
	}()
}

// LoadAsset reads and decodes a file, replacing the current asset only
// when decoding succeeds.
func (app *App) LoadAsset(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	start := time.Now()
	res, err := loader.Load(data, filepath.Base(path), loader.Options{
		MaxPoints: app.cfg.Render.MaxPoints,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if res.Warning != "" {
		logger.Warn("load warning", zap.String("file", res.Name), zap.String("warning", res.Warning))
	}

	app.result = res
	app.assetPath = path
	app.loadElapsed = elapsed
	app.lastError = ""
	app.statusMsg = fmt.Sprintf("Loaded %s (%s) in %s", res.Name, res.Kind, elapsed.Round(time.Millisecond))

	if app.viewer != nil {
		app.viewer.SetResult(res)
	}

	app.backend.SetWindowTitle(fmt.Sprintf("SplatView - %s", res.Name))
	logger.Sugar.Infow("asset loaded",
		"file", res.Name,
		"kind", res.Kind.String(),
		"elapsed", elapsed,
	)
	return nil
}

// initViewer builds the offscreen viewport. Deferred to the first frame so
// shader compilation happens with the backend's GL context current.
func (app *App) initViewer() {
	v, err := NewViewer3D(viewportWidth, viewportHeight, app.cfg)
	if err != nil {
		app.viewerErr = err.Error()
		logger.Error("viewer init failed", zap.Error(err))
		return
	}
	app.viewer = v
	if app.result != nil {
		v.SetResult(app.result)
	}
}

// render is called each frame to draw the UI.
func (app *App) render() {
	now := time.Now()
	dt := float32(now.Sub(app.lastFrame).Seconds())
	app.lastFrame = now

	if app.viewer == nil && app.viewerErr == "" {
		app.initViewer()
	}

	// Process pending file dialog results (must be on main thread)
	if app.pendingPath != "" {
		path := app.pendingPath
		app.pendingPath = ""
		if err := app.LoadAsset(path); err != nil {
			app.lastError = err.Error()
			app.statusMsg = "Load failed"
			logger.Error("load failed", zap.String("path", path), zap.Error(err))
		}
	}
	if app.pendingExportPath != "" {
		path := app.pendingExportPath
		app.pendingExportPath = ""
		if err := app.exportAsset(path); err != nil {
			app.lastError = err.Error()
			app.statusMsg = "Export failed"
			logger.Error("export failed", zap.String("path", path), zap.Error(err))
		} else {
			app.statusMsg = "Exported " + filepath.Base(path)
		}
	}

	// Keyboard shortcuts
	if imgui.IsKeyChordPressed(imgui.KeyChord(imgui.ModCtrl)|imgui.KeyChord(imgui.KeyO)) {
		app.openFileDialog()
	}
	if app.viewer != nil && !imgui.IsAnyItemActive() {
		if imgui.IsKeyChordPressed(imgui.KeyChord(imgui.KeyF)) {
			app.viewer.FrameView()
		}
		if imgui.IsKeyChordPressed(imgui.KeyChord(imgui.KeyF12)) {
			app.screenshotRequested = true
		}
	}

	app.renderMenuBar()

	// Get viewport work area (excludes menu bar)
	viewport := imgui.MainViewport()
	workPos := viewport.WorkPos()
	workSize := viewport.WorkSize()

	leftPanelWidth := float32(320)
	statusBarHeight := float32(30)
	contentHeight := workSize.Y - statusBarHeight

	flags := imgui.WindowFlagsNoMove | imgui.WindowFlagsNoResize | imgui.WindowFlagsNoCollapse

	// Left panel - asset info and render settings
	imgui.SetNextWindowPos(workPos)
	imgui.SetNextWindowSize(imgui.NewVec2(leftPanelWidth, contentHeight))
	if imgui.BeginV("Asset", nil, flags) {
		app.renderAssetPanel()
	}
	imgui.End()

	// Center panel - 3D viewport
	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X+leftPanelWidth, workPos.Y))
	imgui.SetNextWindowSize(imgui.NewVec2(workSize.X-leftPanelWidth, contentHeight))
	if imgui.BeginV("Viewport", nil, flags) {
		app.renderViewportPanel(dt)
	}
	imgui.End()

	// The framebuffer holds this frame's image once the viewport panel has
	// drawn, so captures run here rather than at the key press.
	if app.screenshotRequested {
		app.screenshotRequested = false
		app.saveScreenshot()
	}

	// Status bar at bottom
	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X, workPos.Y+contentHeight))
	imgui.SetNextWindowSize(imgui.NewVec2(workSize.X, statusBarHeight))
	statusFlags := flags | imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoScrollbar
	if imgui.BeginV("##StatusBar", nil, statusFlags) {
		app.renderStatusBar()
	}
	imgui.End()
}

// saveScreenshot writes the current viewport framebuffer to a PNG.
func (app *App) saveScreenshot() {
	if app.viewer == nil {
		return
	}
	pixels, width, height := app.viewer.ReadPixels()
	path, err := app.capture.FromPixels(pixels, int(width), int(height))
	if err != nil {
		app.lastError = err.Error()
		app.statusMsg = "Screenshot failed"
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	app.statusMsg = "Saved " + path
	logger.Info("screenshot saved", zap.String("path", path))
}

func (app *App) renderMenuBar() {
	if imgui.BeginMainMenuBar() {
		if imgui.BeginMenu("File") {
			if imgui.MenuItemBool("Open...") {
				app.openFileDialog()
			}
			if app.canExport() && imgui.MenuItemBool("Export PLY...") {
				app.exportFileDialog()
			}
			imgui.Separator()
			if imgui.MenuItemBool("Exit") {
				os.Exit(0)
			}
			imgui.EndMenu()
		}
		if imgui.BeginMenu("View") {
			if imgui.MenuItemBool("Frame Asset") && app.viewer != nil {
				app.viewer.FrameView()
			}
			if imgui.MenuItemBool("Reset View") && app.viewer != nil {
				app.viewer.ResetView()
			}
			imgui.Separator()
			if app.viewer != nil && imgui.MenuItemBool("Toggle Auto-Rotate") {
				app.viewer.AutoRotate = !app.viewer.AutoRotate
			}
			if app.viewer != nil && imgui.MenuItemBool("Screenshot (F12)") {
				app.screenshotRequested = true
			}
			imgui.EndMenu()
		}
		imgui.EndMainMenuBar()
	}
}
