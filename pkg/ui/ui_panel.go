package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// UIWidget is an interface for all UI widgets
type UIWidget interface {
	Update()
	Draw(screen *ebiten.Image)
	GetHeight() float64
}

// SliderWrapper wraps Slider to implement UIWidget
type SliderWrapper struct {
	*Slider
}

func (s *SliderWrapper) GetHeight() float64 {
	return s.H + 25 // slider + label
}

// CheckboxWrapper wraps Checkbox to implement UIWidget
type CheckboxWrapper struct {
	*Checkbox
}

func (c *CheckboxWrapper) GetHeight() float64 {
	return c.Size + 20
}

// ButtonWrapper wraps Button to implement UIWidget
type ButtonWrapper struct {
	*Button
}

func (b *ButtonWrapper) GetHeight() float64 {
	return b.Height + 10
}

// UIPanel manages a collection of UI widgets in a scrollable panel
type UIPanel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	Widgets       []UIWidget
	Labels        []string
	ScrollOffset  float64

	BGColor     color.RGBA
	BorderColor color.RGBA

	sections []PanelSection
}

// PanelSection groups consecutive widgets under a header
type PanelSection struct {
	Title      string
	StartIndex int // first widget of the section
	EndIndex   int // exclusive
}

// NewUIPanel creates a new UI panel
func NewUIPanel(title string, x, y, width, height float64) *UIPanel {
	return &UIPanel{
		Title:       title,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BGColor:     color.RGBA{R: 30, G: 24, B: 44, A: 230},
		BorderColor: color.RGBA{R: 100, G: 90, B: 130, A: 255},
	}
}

// AddSection adds a section header
func (p *UIPanel) AddSection(title string) {
	p.sections = append(p.sections, PanelSection{
		Title:      title,
		StartIndex: len(p.Widgets),
	})
}

// EndSection closes the current section
func (p *UIPanel) EndSection() {
	if len(p.sections) > 0 {
		p.sections[len(p.sections)-1].EndIndex = len(p.Widgets)
	}
}

// AddSlider adds a slider widget to the panel
func (p *UIPanel) AddSlider(label string, min, max, value float64) *Slider {
	yOffset := p.calculateNextYOffset()
	slider := NewSlider(p.X+10, p.Y+yOffset+20, p.Width-20, label, min, max, value)

	p.Widgets = append(p.Widgets, &SliderWrapper{slider})
	p.Labels = append(p.Labels, label)
	return slider
}

// AddCheckbox adds a checkbox widget to the panel
func (p *UIPanel) AddCheckbox(label string, value bool) *Checkbox {
	yOffset := p.calculateNextYOffset()
	checkbox := NewCheckbox(p.X+10, p.Y+yOffset+20, label, value)

	p.Widgets = append(p.Widgets, &CheckboxWrapper{checkbox})
	p.Labels = append(p.Labels, label)
	return checkbox
}

// AddButton adds a full width button, its label is drawn inside it
func (p *UIPanel) AddButton(label string, onClick func()) *Button {
	yOffset := p.calculateNextYOffset()
	button := NewButton(p.X+10, p.Y+yOffset+20, p.Width-20, 24, label, onClick)

	p.Widgets = append(p.Widgets, &ButtonWrapper{button})
	p.Labels = append(p.Labels, "")
	return button
}

func (p *UIPanel) calculateNextYOffset() float64 {
	offset := float64(len(p.sections)) * 25
	for _, widget := range p.Widgets {
		offset += widget.GetHeight()
	}
	return offset
}

// Contains reports whether a screen point lies on the panel.
func (p *UIPanel) Contains(x, y float64) bool {
	return x >= p.X && x <= p.X+p.Width && y >= p.Y && y <= p.Y+p.Height
}

// Update handles input for all widgets
func (p *UIPanel) Update() {
	mx, my := ebiten.CursorPosition()
	if _, dy := ebiten.Wheel(); dy != 0 && p.Contains(float64(mx), float64(my)) {
		p.scroll(dy)
	}

	for _, widget := range p.Widgets {
		widget.Update()
	}
}

func (p *UIPanel) scroll(dy float64) {
	p.ScrollOffset -= dy * 20

	maxScroll := p.calculateTotalHeight() - p.Height + 40
	if maxScroll < 0 {
		maxScroll = 0
	}
	if p.ScrollOffset < 0 {
		p.ScrollOffset = 0
	}
	if p.ScrollOffset > maxScroll {
		p.ScrollOffset = maxScroll
	}
}

// Draw renders the panel and all widgets
func (p *UIPanel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		p.BGColor, true)
	vector.StrokeRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	currentY := p.Y + 30 - p.ScrollOffset
	for _, section := range p.sections {
		if p.visible(currentY, 25) {
			vector.FillRect(screen,
				float32(p.X+5), float32(currentY),
				float32(p.Width-10), 20,
				color.RGBA{R: 50, G: 40, B: 70, A: 255}, true)
			ebitenutil.DebugPrintAt(screen, section.Title, int(p.X+10), int(currentY+3))
		}
		currentY += 25

		for i := section.StartIndex; i < section.EndIndex && i < len(p.Widgets); i++ {
			widget := p.Widgets[i]
			if p.visible(currentY, widget.GetHeight()) {
				if p.Labels[i] != "" {
					ebitenutil.DebugPrintAt(screen, p.Labels[i], int(p.X+10), int(currentY))
				}
				p.adjustWidgetPosition(widget, currentY)
				widget.Draw(screen)
			} else {
				// park hidden widgets off screen so they take no clicks
				p.adjustWidgetPosition(widget, -1000)
			}
			currentY += widget.GetHeight()
		}
	}
}

func (p *UIPanel) visible(y, h float64) bool {
	return y >= p.Y+25 && y+h <= p.Y+p.Height
}

// adjustWidgetPosition moves a widget to its scrolled row
func (p *UIPanel) adjustWidgetPosition(widget UIWidget, rowY float64) {
	switch w := widget.(type) {
	case *SliderWrapper:
		w.Y = rowY + 18
	case *CheckboxWrapper:
		w.Y = rowY + 16
	case *ButtonWrapper:
		w.Y = rowY
	}
}

func (p *UIPanel) calculateTotalHeight() float64 {
	height := 30.0 + float64(len(p.sections))*25
	for _, widget := range p.Widgets {
		height += widget.GetHeight()
	}
	return height
}
