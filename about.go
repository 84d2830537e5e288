package main

import (
	"fmt"
	"image/color"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"lucidia/internal/config"
)

const (
	aboutWindowTitle = "About"
	aboutWidth       = 420
	aboutHeight      = 420
	openFolderText   = "Open image folder"
	keysText         = "1-9 select  ←/→ browse  F fullscreen  Esc quit"

	// Palette, any CSS colour syntax.
	titleColor      = "#1b1035"
	infoColor       = "rebeccapurple"
	buttonTextColor = "white"
	buttonColor     = "#7b2ff7"
	backgroundColor = "#f3e8ff"
)

func cssColor(s string) color.Color {
	c, err := config.ParseColor(s)
	if err != nil {
		return color.Black
	}
	return c
}

// thumbLayout centres a single square object of the given edge.
type thumbLayout struct {
	edge float32
}

func (l *thumbLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) == 0 {
		return
	}
	objects[0].Resize(fyne.NewSize(l.edge, l.edge))
	objects[0].Move(fyne.NewPos((size.Width-l.edge)/2, (size.Height-l.edge)/2))
}

func (l *thumbLayout) MinSize([]fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(l.edge, l.edge)
}

// aboutLayout stacks, top to bottom: title, thumbnail, info lines, the image
// list and a button. The list takes whatever height is left.
type aboutLayout struct {
	width     float32
	height    float32
	padding   float32
	spacing   float32
	lineCount int
}

const (
	titleHeight = 25
	lineHeight  = 20
	lineSpacing = 4
	minButton   = 35
)

func (l *aboutLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) != l.lineCount+4 {
		return
	}
	inner := l.width - 2*l.padding
	y := l.padding

	title := objects[0]
	title.Resize(fyne.NewSize(inner, titleHeight))
	title.Move(fyne.NewPos(l.padding, y))
	y += titleHeight + l.spacing

	thumb := objects[1]
	ts := thumb.MinSize()
	thumb.Resize(ts)
	thumb.Move(fyne.NewPos((l.width-ts.Width)/2, y))
	y += ts.Height + l.spacing

	for _, line := range objects[2 : 2+l.lineCount] {
		line.Resize(fyne.NewSize(inner, lineHeight))
		line.Move(fyne.NewPos(l.padding, y))
		y += lineHeight + lineSpacing
	}
	y += l.spacing - lineSpacing

	button := objects[len(objects)-1]
	bs := button.MinSize()
	if bs.Height < minButton {
		bs.Height = minButton
	}
	if bs.Width > inner {
		bs.Width = inner
	}
	buttonY := l.height - l.padding - bs.Height
	button.Resize(bs)
	button.Move(fyne.NewPos((l.width-bs.Width)/2, buttonY))

	list := objects[len(objects)-2]
	listHeight := buttonY - l.spacing - y
	if listHeight < 0 {
		listHeight = 0
	}
	list.Resize(fyne.NewSize(inner, listHeight))
	list.Move(fyne.NewPos(l.padding, y))
}

func (l *aboutLayout) MinSize([]fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(l.width, l.height)
}

// accentButton is a flat coloured button.
type accentButton struct {
	widget.BaseWidget
	text      string
	textColor color.Color
	fill      color.Color
	onTapped  func()
}

func newAccentButton(text string, textColor, fill color.Color, onTapped func()) *accentButton {
	b := &accentButton{text: text, textColor: textColor, fill: fill, onTapped: onTapped}
	b.ExtendBaseWidget(b)
	return b
}

func (b *accentButton) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(b.fill)
	bg.SetMinSize(fyne.NewSize(170, minButton))
	bg.CornerRadius = 6

	label := canvas.NewText(b.text, b.textColor)
	label.Alignment = fyne.TextAlignCenter
	label.TextSize = 14

	return &accentButtonRenderer{
		button:  b,
		bg:      bg,
		label:   label,
		content: container.NewStack(bg, container.NewCenter(label)),
	}
}

func (b *accentButton) Tapped(*fyne.PointEvent) {
	if b.onTapped != nil {
		b.onTapped()
	}
}

type accentButtonRenderer struct {
	button  *accentButton
	bg      *canvas.Rectangle
	label   *canvas.Text
	content fyne.CanvasObject
}

func (r *accentButtonRenderer) Layout(size fyne.Size) { r.content.Resize(size) }
func (r *accentButtonRenderer) MinSize() fyne.Size    { return r.content.MinSize() }

func (r *accentButtonRenderer) Refresh() {
	r.bg.FillColor = r.button.fill
	r.label.Color = r.button.textColor
	r.label.Text = r.button.text
	r.bg.Refresh()
	r.label.Refresh()
}

func (r *accentButtonRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.content} }
func (r *accentButtonRenderer) Destroy()                     {}

func infoText(text string, c color.Color) fyne.CanvasObject {
	t := canvas.NewText(text, c)
	t.Alignment = fyne.TextAlignCenter
	t.TextSize = 12
	return container.NewCenter(t)
}

// aboutLines summarises what the viewer would show.
func aboutLines(v *viper.Viper, s *config.Settings) []string {
	source := "built-in defaults"
	if f := v.ConfigFileUsed(); f != "" {
		source = f
	}
	if s == nil {
		return []string{
			fmt.Sprintf("%s %s", appName, version),
			"No images configured",
			"Settings: " + source,
			keysText,
		}
	}
	return []string{
		fmt.Sprintf("%s %s, %s profile", appName, version, s.Profile),
		fmt.Sprintf("%d images, fade over %.0f frames", len(s.Images), 1/s.FadeRate),
		"Settings: " + source,
		keysText,
	}
}

// imageFolder is the directory holding the first image, or "" without one.
func imageFolder(s *config.Settings) string {
	if s == nil || len(s.Images) == 0 {
		return ""
	}
	dir, err := filepath.Abs(filepath.Dir(s.Images[0]))
	if err != nil {
		return filepath.Dir(s.Images[0])
	}
	return dir
}

// runAbout shows the About window and blocks until it is closed.
func runAbout(v *viper.Viper, s *config.Settings, logger *log.Logger) {
	a := app.New()
	w := a.NewWindow(aboutWindowTitle)
	w.Resize(fyne.NewSize(aboutWidth, aboutHeight))
	w.SetFixedSize(true)
	w.CenterOnScreen()

	title := canvas.NewText(appName, cssColor(titleColor))
	title.Alignment = fyne.TextAlignCenter
	title.TextSize = 18
	title.TextStyle = fyne.TextStyle{Bold: true}

	var thumb fyne.CanvasObject
	if s != nil {
		img := canvas.NewImageFromFile(s.Images[0])
		img.FillMode = canvas.ImageFillContain
		thumb = img
	} else {
		thumb = widget.NewIcon(theme.FileImageIcon())
	}
	thumbBox := container.New(&thumbLayout{edge: 120}, thumb)

	lines := aboutLines(v, s)
	objects := []fyne.CanvasObject{container.NewCenter(title), thumbBox}
	for _, l := range lines {
		objects = append(objects, infoText(l, cssColor(infoColor)))
	}

	var images []string
	if s != nil {
		images = s.Images
	}
	list := widget.NewList(
		func() int { return len(images) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(fmt.Sprintf("%d  %s", i+1, filepath.Base(images[i])))
		},
	)
	objects = append(objects, list)

	folder := imageFolder(s)
	open := newAccentButton(openFolderText, cssColor(buttonTextColor), cssColor(buttonColor), func() {
		if folder == "" {
			return
		}
		if err := openURL(folder); err != nil {
			logger.Error("opening folder", "path", folder, "err", err)
		}
	})
	objects = append(objects, open)

	content := container.New(&aboutLayout{
		width:     aboutWidth,
		height:    aboutHeight,
		padding:   15,
		spacing:   12,
		lineCount: len(lines),
	}, objects...)

	background := canvas.NewRectangle(cssColor(backgroundColor))
	w.SetContent(container.NewStack(background, content))
	w.Resize(fyne.NewSize(aboutWidth, aboutHeight))
	w.ShowAndRun()
}
