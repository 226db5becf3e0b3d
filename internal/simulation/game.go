package simulation

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"go.uber.org/zap"

	"github.com/lao-tseu-is-alive/go-boids-explore/internal/flock"
	"github.com/lao-tseu-is-alive/go-boids-explore/pkg/ui"
)

const (
	WindowTitle   = "Explore"
	dotRadius     = 2.5
	headingLength = 8
)

var backgroundColor = color.RGBA{R: 0x0e, G: 0x0b, B: 0x16, A: 0xff}

// Game renders the frames of a Simulator and feeds the tuning panel back into it.
// It terminates once ctx is done.
type Game struct {
	ctx context.Context
	sim *Simulator
	log *zap.Logger

	frame    Frame
	hasFrame bool

	// UI Controls
	showPanel    *ui.Checkbox
	showHeadings *ui.Checkbox
	panel        *ui.UIPanel

	widgetAlignmentRadius    *ui.Slider
	widgetCohesionRadius     *ui.Slider
	widgetSeparationRadius   *ui.Slider
	widgetAlignmentStrength  *ui.Slider
	widgetCohesionStrength   *ui.Slider
	widgetSeparationStrength *ui.Slider
	widgetMaxSpeed           *ui.Slider
	widgetMaxForce           *ui.Slider

	// Timing instrumentation
	updateAvg float64 // rolling average in ms
	drawAvg   float64
}

func NewGame(ctx context.Context, sim *Simulator, p flock.Params, log *zap.Logger) *Game {
	if log == nil {
		log = zap.NewNop()
	}
	panel := ui.NewUIPanel("Flock tuning", 10, 34, 260, 520)

	panel.AddSection("Perception Radii")
	widgetAlignmentRadius := panel.AddSlider("Alignment Radius", 0, 200, p.AlignmentRadius)
	widgetCohesionRadius := panel.AddSlider("Cohesion Radius", 0, 200, p.CohesionRadius)
	widgetSeparationRadius := panel.AddSlider("Separation Radius", 0, 200, p.SeparationRadius)
	panel.EndSection()

	panel.AddSection("Strengths")
	widgetAlignmentStrength := panel.AddSlider("Alignment", 0, 10, p.AlignmentStrength)
	widgetCohesionStrength := panel.AddSlider("Cohesion", 0, 10, p.CohesionStrength)
	widgetSeparationStrength := panel.AddSlider("Separation", 0, 10, p.SeparationStrength)
	panel.EndSection()

	panel.AddSection("Physics")
	widgetMaxSpeed := panel.AddSlider("Max Speed", 0.1, 10, p.MaxSpeed)
	widgetMaxForce := panel.AddSlider("Max Force", 0, 0.5, p.MaxForce)
	panel.EndSection()

	panel.AddSection("Display")
	showHeadings := panel.AddCheckbox("Headings", false)
	panel.EndSection()

	panel.AddSection("Remote")
	panel.AddButton("Resync now (R)", sim.RequestResync)
	panel.EndSection()

	return &Game{
		ctx:                      ctx,
		sim:                      sim,
		log:                      log,
		showPanel:                ui.NewCheckbox(10, 10, "Show panel", true),
		showHeadings:             showHeadings,
		panel:                    panel,
		widgetAlignmentRadius:    widgetAlignmentRadius,
		widgetCohesionRadius:     widgetCohesionRadius,
		widgetSeparationRadius:   widgetSeparationRadius,
		widgetAlignmentStrength:  widgetAlignmentStrength,
		widgetCohesionStrength:   widgetCohesionStrength,
		widgetSeparationStrength: widgetSeparationStrength,
		widgetMaxSpeed:           widgetMaxSpeed,
		widgetMaxForce:           widgetMaxForce,
	}
}

func (g *Game) sliders() []*ui.Slider {
	return []*ui.Slider{
		g.widgetAlignmentRadius,
		g.widgetCohesionRadius,
		g.widgetSeparationRadius,
		g.widgetAlignmentStrength,
		g.widgetCohesionStrength,
		g.widgetSeparationStrength,
		g.widgetMaxSpeed,
		g.widgetMaxForce,
	}
}

func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	// Latest frame wins, the simulator keeps at most one queued
	select {
	case f := <-g.sim.Frames():
		if !g.hasFrame {
			g.syncSliders(f.Params)
		}
		g.frame = f
		g.hasFrame = true
	default:
	}

	g.showPanel.Update()
	if g.showPanel.Value {
		g.panel.Update()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.sim.RequestResync()
	}

	changed := false
	for _, s := range g.sliders() {
		if s.Changed() {
			changed = true
		}
	}
	if changed && g.hasFrame {
		if err := g.sim.Tune(g.tunedParams(g.frame.Params)); err != nil {
			g.log.Warn("rejected tuning", zap.Error(err))
		}
	}
	return nil
}

// syncSliders shows p on the panel without counting as a user change.
func (g *Game) syncSliders(p flock.Params) {
	g.widgetAlignmentRadius.Value = p.AlignmentRadius
	g.widgetCohesionRadius.Value = p.CohesionRadius
	g.widgetSeparationRadius.Value = p.SeparationRadius
	g.widgetAlignmentStrength.Value = p.AlignmentStrength
	g.widgetCohesionStrength.Value = p.CohesionStrength
	g.widgetSeparationStrength.Value = p.SeparationStrength
	g.widgetMaxSpeed.Value = p.MaxSpeed
	g.widgetMaxForce.Value = p.MaxForce
}

// tunedParams overlays the slider values on base, the world size never changes.
func (g *Game) tunedParams(base flock.Params) flock.Params {
	p := base
	p.AlignmentRadius = g.widgetAlignmentRadius.Value
	p.CohesionRadius = g.widgetCohesionRadius.Value
	p.SeparationRadius = g.widgetSeparationRadius.Value
	p.AlignmentStrength = g.widgetAlignmentStrength.Value
	p.CohesionStrength = g.widgetCohesionStrength.Value
	p.SeparationStrength = g.widgetSeparationStrength.Value
	p.MaxSpeed = g.widgetMaxSpeed.Value
	p.MaxForce = g.widgetMaxForce.Value
	return p
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(backgroundColor)

	// The window is resizable, so the viewport is read on every frame
	bounds := screen.Bounds()
	screenW, screenH := float64(bounds.Dx()), float64(bounds.Dy())
	p := g.frame.Params
	for _, a := range g.frame.Agents {
		pos := flock.MapToScreen(a.Pos, p.WorldWidth, p.WorldHeight, screenW, screenH)
		c := ParseColor(a.Color)
		vector.FillCircle(screen, float32(pos.X), float32(pos.Y), dotRadius, c, true)
		if g.showHeadings.Value && a.Vel.LenSqr() > 0 {
			angle := a.Vel.Angle()
			tipX := pos.X + headingLength*math.Cos(angle)
			tipY := pos.Y + headingLength*math.Sin(angle)
			vector.StrokeLine(screen, float32(pos.X), float32(pos.Y), float32(tipX), float32(tipY), 1, c, true)
		}
	}

	g.showPanel.Draw(screen)
	ebitenutil.DebugPrintAt(screen, g.showPanel.Label, 32, 10)
	if g.showPanel.Value {
		g.panel.Draw(screen)
	}

	ebitenutil.DebugPrintAt(screen, g.status(), bounds.Dx()-190, 10)
}

func (g *Game) status() string {
	if !g.hasFrame {
		return "Loading flock..."
	}
	lastSync := "never"
	if !g.frame.LastSync.IsZero() {
		lastSync = fmt.Sprintf("%.0fs ago", time.Since(g.frame.LastSync).Seconds())
	}
	return fmt.Sprintf("Agents: %d\nTick:   %d\nSync:   %s\n\nFPS: %.1f\nTPS: %.1f\nUpdate: %.2fms\nDraw:   %.2fms",
		len(g.frame.Agents),
		g.frame.Tick,
		lastSync,
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.updateAvg,
		g.drawAvg)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
