// Package viewer implements the interactive viewing loop shared by the
// SDL front end: window setup, camera control, and load-replace of
// displayed assets.
package viewer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/voxelia/splatview/internal/config"
	"github.com/voxelia/splatview/internal/engine/camera"
	"github.com/voxelia/splatview/internal/engine/input"
	"github.com/voxelia/splatview/internal/engine/renderer"
	"github.com/voxelia/splatview/internal/engine/scene"
	"github.com/voxelia/splatview/internal/engine/window"
	"github.com/voxelia/splatview/internal/logger"
	"github.com/voxelia/splatview/pkg/loader"
	"github.com/voxelia/splatview/pkg/math"
)

const fovY = float32(0.8) // ~46 degrees vertical

// Viewer is the interactive application instance.
type Viewer struct {
	cfg     *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	scene    *scene.Scene
	camera   *camera.OrbitCamera

	width  int
	height int

	dragging   bool
	lastMouseX int
	lastMouseY int

	currentName string
}

// New creates the viewer window, GL state, and scene renderers.
func New(cfg *config.Config) (*Viewer, error) {
	logger.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	v := &Viewer{
		cfg:    cfg,
		width:  cfg.Graphics.Width,
		height: cfg.Graphics.Height,
	}

	// Create window (this also creates the OpenGL context)
	var err error
	v.window, err = window.New(window.Config{
		Title:      "splatshow",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	v.renderer, err = renderer.New(renderer.Config{
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Background: cfg.Render.Background,
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.scene, err = scene.New()
	if err != nil {
		v.renderer.Close()
		v.window.Close()
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}
	v.scene.Splat.BasePointSize = cfg.Render.BasePointSize
	v.scene.Mesh.LightDir = cfg.Render.LightDir
	v.scene.Mesh.Ambient = cfg.Render.Ambient

	v.input = input.New()
	v.camera = camera.NewOrbitCamera()

	return v, nil
}

// LoadFile reads, detects, and decodes a file, then swaps it in as the
// displayed asset. On failure the previous asset stays on screen.
func (v *Viewer) LoadFile(path string) error {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	res, err := loader.Load(data, filepath.Base(path), loader.Options{
		MaxPoints: v.cfg.Render.MaxPoints,
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if res.Warning != "" {
		logger.Warn(res.Warning, zap.String("file", path))
	}

	// Decode succeeded, replace the displayed asset.
	v.scene.SetResult(res)
	v.currentName = res.Name
	v.window.SetTitle("splatshow - " + res.Name)

	if min, max, ok := v.scene.Bounds(); ok {
		v.camera.FrameBounds(min, max, fovY)
	}

	logger.Info("loaded asset",
		zap.String("file", path),
		zap.String("kind", res.Kind.String()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Run starts the interactive loop and blocks until quit.
func (v *Viewer) Run() error {
	v.running = true

	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting viewer loop")

	for v.running {
		if v.input.Update() {
			v.running = false
			break
		}

		for _, event := range v.input.Events() {
			v.handleEvent(event)
		}

		v.render()
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			if v.cfg.Viewer.ShowFPS {
				logger.Debug("fps", zap.Int("count", frameCount))
			}
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvent(event input.Event) {
	switch event.Type {
	case input.EventWindowResize:
		v.width = event.Width
		v.height = event.Height
		v.renderer.Resize(event.Width, event.Height)

	case input.EventKeyDown:
		switch event.Key {
		case sdl.SCANCODE_ESCAPE:
			v.running = false
		case sdl.SCANCODE_F:
			if min, max, ok := v.scene.Bounds(); ok {
				v.camera.FrameBounds(min, max, fovY)
			}
		}

	case input.EventMouseDown:
		if event.Button == sdl.BUTTON_LEFT {
			v.dragging = true
			v.lastMouseX = event.MouseX
			v.lastMouseY = event.MouseY
		}

	case input.EventMouseUp:
		if event.Button == sdl.BUTTON_LEFT {
			v.dragging = false
		}

	case input.EventMouseMove:
		if v.dragging {
			dx := float32(event.MouseX - v.lastMouseX)
			dy := float32(event.MouseY - v.lastMouseY)
			v.camera.HandleDrag(dx, dy)
			v.lastMouseX = event.MouseX
			v.lastMouseY = event.MouseY
		}

	case input.EventMouseWheel:
		v.camera.HandleZoom(event.WheelY)

	case input.EventDropFile:
		if err := v.LoadFile(event.Path); err != nil {
			logger.Error("drop load failed", zap.Error(err))
		}
	}
}

func (v *Viewer) render() {
	v.renderer.Begin()

	aspect := float32(v.width) / float32(v.height)
	view := v.camera.ViewMatrix()
	projection := math.Perspective(fovY, aspect, 0.01, 10000)

	v.scene.Render(view, projection)

	v.renderer.End()
}

// Close cleans up all resources.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	if v.scene != nil {
		v.scene.Destroy()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
