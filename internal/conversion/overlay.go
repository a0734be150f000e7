package conversion

import (
	"image/color"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
)

// Calibration marks printed on every template. Players locate the map by
// these fixed positions, so none of them depend on the scan.
const (
	markMargin     = 30.0
	squareSize     = 80.0
	circleDiameter = 40.0
	markSpacing    = 5.0
	labelSize      = 50.0

	appLabel         = "CamIO Explorer"
	institutionLabel = "University of Milan"
)

func gray(v float64) color.Color {
	return gg.RGB(v, v, v).Color()
}

// drawOverlay adds the corner labels, the three-square grayscale ramp in
// the top-left corner and the four-circle ramp in the bottom-right corner.
func drawOverlay(dc *gg.Context, font *text.FontSource, size int) error {
	s := float64(size)

	face := font.Face(labelSize)
	dc.SetFont(face)
	dc.SetColor(ink)
	ascent := face.Metrics().Ascent

	w, _ := dc.MeasureString(appLabel)
	dc.DrawString(appLabel, s-markMargin-w, markMargin+ascent)

	_, h := dc.MeasureString(institutionLabel)
	dc.DrawString(institutionLabel, markMargin, s-markMargin-h+ascent)

	squares := []struct {
		x, y  float64
		shade float64
	}{
		{markMargin, markMargin, 0},
		{markMargin + squareSize + markSpacing, markMargin, 0.5},
		{markMargin, markMargin + squareSize + markSpacing, 0.8},
	}
	for _, sq := range squares {
		dc.DrawRectangle(sq.x, sq.y, squareSize, squareSize)
		if err := fillWith(dc, gray(sq.shade)); err != nil {
			return err
		}
	}

	bx := s - markMargin - (2*circleDiameter + markSpacing)
	by := bx
	step := circleDiameter + markSpacing
	r := circleDiameter / 2
	circles := []struct {
		x, y  float64
		shade float64
	}{
		{bx, by, 1},
		{bx + step, by, 0.75},
		{bx, by + step, 0.5},
		{bx + step, by + step, 0},
	}
	for _, c := range circles {
		dc.DrawCircle(c.x+r, c.y+r, r)
		if err := fillWith(dc, gray(c.shade)); err != nil {
			return err
		}
	}
	return nil
}
