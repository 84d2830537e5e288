package main

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/glfw/v3.3/glfw"

	"lucidia/internal/config"
	"lucidia/internal/controls"
	"lucidia/internal/gldevice"
	"lucidia/internal/hud"
	"lucidia/internal/render"
	"lucidia/internal/texcache"
)

// skippedFrameWait paces the loop while nothing is drawn, since there is no
// buffer swap to block on.
const skippedFrameWait = time.Second / 60

// viewer hosts the renderer in a GLFW window. It is the render.FrameHost:
// at most one frame callback is pending and it runs once per loop turn.
type viewer struct {
	window   *glfw.Window
	dev      *gldevice.Device
	logger   *log.Logger
	renderer *render.Renderer
	overlay  *gldevice.Overlay
	meter    *hud.Meter
	idle     *controls.IdleTracker

	pending       func(timestamp float64)
	overlayHidden bool

	// Windowed geometry to restore when leaving fullscreen.
	windowedX, windowedY, windowedW, windowedH int
}

var _ render.FrameHost = (*viewer)(nil)

func (vw *viewer) RequestFrame(cb func(timestamp float64)) {
	vw.pending = cb
}

func runViewer(s *config.Settings, logger *log.Logger) error {
	if !s.Debug {
		hideConsoleWindow()
	}
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initializing GLFW: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Samples, 4)

	title := windowTitle(s.Images[0])
	var (
		window *glfw.Window
		err    error
	)
	if s.Fullscreen {
		monitor := glfw.GetPrimaryMonitor()
		mode := monitor.GetVideoMode()
		window, err = glfw.CreateWindow(mode.Width, mode.Height, title, monitor, nil)
	} else {
		window, err = glfw.CreateWindow(s.Width, s.Height, title, nil, nil)
	}
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer window.Destroy()
	window.MakeContextCurrent()
	if s.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	dev, err := gldevice.New(logger)
	if err != nil {
		return err
	}

	maxSize := s.MaxTextureSize
	if driverMax := dev.MaxTextureSize(); driverMax > 0 && driverMax < maxSize {
		logger.Debug("texture size limited by driver", "configured", maxSize, "driver", driverMax)
		maxSize = driverMax
	}
	cache := texcache.New(texcache.FileLoader{MaxSize: maxSize}, dev,
		texcache.WithLogger(logger.WithPrefix("texcache")),
		texcache.WithWorkers(s.DecodeWorkers))

	vw := &viewer{
		window: window,
		dev:    dev,
		logger: logger,
		meter:  hud.NewMeter(),
	}
	vw.windowedX, vw.windowedY = window.GetPos()
	vw.windowedW, vw.windowedH = s.Width, s.Height

	var overlay render.HUD
	if s.Debug {
		vw.overlay, err = gldevice.NewOverlay(dev, vw.meter)
		if err != nil {
			cache.Close()
			return fmt.Errorf("creating overlay: %w", err)
		}
		vw.overlay.SetColor(s.TextColor)
		defer vw.overlay.Release()
		overlay = vw.overlay
	}

	seed := s.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	fbWidth, fbHeight := window.GetFramebufferSize()
	r, err := render.New(render.Options{
		Device:  dev,
		Cache:   cache,
		Host:    vw,
		Images:  s.Images,
		Profile: s.RenderProfile(),
		Preload: s.Preload,
		Width:   fbWidth,
		Height:  fbHeight,
		Rand:    rand.New(rand.NewSource(seed)),
		Logger:  logger.WithPrefix("render"),
		HUD:     overlay,
	})
	if err != nil {
		cache.Close()
		var ce *render.CompileError
		if errors.As(err, &ce) {
			logger.Error("shader build failed", "stage", ce.Stage, "log", ce.Log)
			logger.Debug("shader source", "source", ce.Source)
		}
		return err
	}
	defer r.Close()
	vw.renderer = r

	vw.idle = controls.NewIdleTracker(s.IdleTimeout, time.Now(), vw.setIdle)
	vw.installCallbacks()

	r.Start()
	vw.loop()
	return nil
}

func (vw *viewer) installCallbacks() {
	vw.window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		vw.renderer.OnResize(width, height)
	})
	vw.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		vw.idle.Activity(time.Now())
		if action != glfw.Press {
			return
		}
		vw.handle(keyAction(key))
	})
	vw.window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		vw.idle.Activity(time.Now())
	})
	vw.window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		vw.idle.Activity(time.Now())
	})
}

func (vw *viewer) loop() {
	lastIdleCheck := time.Now()
	for !vw.window.ShouldClose() {
		now := time.Now()
		if now.Sub(lastIdleCheck) >= controls.PollInterval {
			vw.idle.Check(now)
			lastIdleCheck = now
		}

		cb := vw.pending
		vw.pending = nil
		if cb == nil {
			glfw.WaitEventsTimeout(skippedFrameWait.Seconds())
			continue
		}

		start := time.Now()
		cb(glfw.GetTime())
		stats := vw.renderer.LastFrame()
		if !stats.Drew {
			glfw.WaitEventsTimeout(skippedFrameWait.Seconds())
			continue
		}

		if vw.overlay != nil {
			// Wait for the GPU so the measured time covers the shader run.
			vw.dev.Finish()
		}
		vw.meter.Frame(start, time.Since(start))
		if stats.Promoted {
			vw.window.SetTitle(windowTitle(stats.Image))
		}
		vw.window.SwapBuffers()
		glfw.PollEvents()
	}
}

// keyAction maps a pressed key to a viewer action.
func keyAction(key glfw.Key) controls.Action {
	switch {
	case key >= glfw.Key1 && key <= glfw.Key9:
		return controls.Digit(int(key - glfw.Key0))
	case key >= glfw.KeyKP1 && key <= glfw.KeyKP9:
		return controls.Digit(int(key - glfw.KeyKP0))
	}
	switch key {
	case glfw.KeyRight, glfw.KeySpace:
		return controls.Action{Kind: controls.Next}
	case glfw.KeyLeft:
		return controls.Action{Kind: controls.Prev}
	case glfw.KeyF, glfw.KeyF11:
		return controls.Action{Kind: controls.ToggleFullscreen}
	case glfw.KeyH:
		return controls.Action{Kind: controls.ToggleHUD}
	case glfw.KeyEscape, glfw.KeyQ:
		return controls.Action{Kind: controls.Quit}
	}
	return controls.Action{}
}

func (vw *viewer) handle(a controls.Action) {
	handled, err := controls.Navigate(vw.renderer, a)
	if handled {
		if err != nil {
			vw.logger.Debug("ignored selection", "action", a.Kind, "index", a.Index, "err", err)
		}
		return
	}
	switch a.Kind {
	case controls.ToggleFullscreen:
		vw.toggleFullscreen()
	case controls.ToggleHUD:
		if vw.overlay != nil {
			vw.overlayHidden = !vw.overlayHidden
			vw.overlay.SetHidden(vw.overlayHidden || vw.idle.Idle())
		}
	case controls.Quit:
		vw.window.SetShouldClose(true)
	}
}

func (vw *viewer) toggleFullscreen() {
	if vw.window.GetMonitor() != nil {
		vw.window.SetMonitor(nil, vw.windowedX, vw.windowedY, vw.windowedW, vw.windowedH, 0)
		vw.logger.Debug("left fullscreen")
		return
	}
	vw.windowedX, vw.windowedY = vw.window.GetPos()
	vw.windowedW, vw.windowedH = vw.window.GetSize()
	monitor := glfw.GetPrimaryMonitor()
	mode := monitor.GetVideoMode()
	vw.window.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
	vw.logger.Debug("entered fullscreen", "width", mode.Width, "height", mode.Height)
}

// setIdle hides the cursor and overlay while the user is away. Animation
// state is left alone.
func (vw *viewer) setIdle(idle bool) {
	if idle {
		vw.window.SetInputMode(glfw.CursorMode, glfw.CursorHidden)
	} else {
		vw.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
	if vw.overlay != nil {
		vw.overlay.SetHidden(idle || vw.overlayHidden)
	}
}

func windowTitle(image string) string {
	return fmt.Sprintf("%s - %s", appName, filepath.Base(image))
}
