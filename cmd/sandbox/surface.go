package main

import (
	"github.com/footlight/footlight"
	"github.com/footlight/footlight/internal/core/observability/log"
)

// consoleSurface narrates every paint call to the log. It stands in for a
// real 2D context so the sandbox can run headless.
type consoleSurface struct {
	log           footlight.Logger
	width, height int
}

func newConsoleSurface(logger footlight.Logger) *consoleSurface {
	return &consoleSurface{log: logger, width: 320, height: 200}
}

func (s *consoleSurface) Bind(target string) error {
	s.log.Info("surface bound", log.String("target", target))
	return nil
}

func (s *consoleSurface) SetSize(width, height int) {
	s.width, s.height = width, height
	s.log.Info("surface resized", log.Int("width", width), log.Int("height", height))
}

func (s *consoleSurface) Save()    {}
func (s *consoleSurface) Restore() {}

func (s *consoleSurface) Clear() {
	s.log.Debug("paint clear")
}

func (s *consoleSurface) DrawImage(image string, x, y, width, height, opacity float64, flipX, flipY bool) {
	s.log.Debug("paint image",
		log.String("image", image),
		log.Float64("x", x), log.Float64("y", y),
		log.Float64("w", width), log.Float64("h", height))
}

func (s *consoleSurface) FillText(content string, x, y float64, font, align, color string) {
	s.log.Debug("paint text",
		log.String("content", content),
		log.Float64("x", x), log.Float64("y", y))
}

func (s *consoleSurface) FillRect(x, y, width, height float64, fill string) {
	s.log.Debug("paint rect",
		log.Float64("x", x), log.Float64("y", y),
		log.Float64("w", width), log.Float64("h", height),
		log.String("fill", fill))
}

func (s *consoleSurface) StrokeRect(x, y, width, height float64, stroke string, strokeWidth float64) {
	s.log.Debug("paint stroke",
		log.Float64("x", x), log.Float64("y", y),
		log.Float64("w", width), log.Float64("h", height),
		log.String("stroke", stroke))
}

func (s *consoleSurface) Release() error {
	s.log.Info("surface released")
	return nil
}
