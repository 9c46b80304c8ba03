package omaf

import (
	"image"
	"math"
)

// Projector maps a viewport onto the source picture.
// The returned rectangles are ordered left to right as seen by the viewer.
type Projector interface {
	Footprint(vp Viewport, srcWidth, srcHeight int) []image.Rectangle
}

// EquirectProjector projects viewports onto an equirectangular picture.
// Yaw 0 is the horizontal centre of the picture, pitch +90 the top edge.
type EquirectProjector struct{}

// YawToX converts yaw in degrees to a picture column
func YawToX(yaw float64, width int) float64 {
	return (yaw + 180) * float64(width) / 360
}

// PitchToY converts pitch in degrees to a picture row
func PitchToY(pitch float64, height int) float64 {
	return (90 - pitch) * float64(height) / 180
}

// Footprint returns the viewport's footprint in source pixels.
// A footprint crossing the yaw seam is split in two.
func (EquirectProjector) Footprint(vp Viewport, srcWidth, srcHeight int) []image.Rectangle {
	if srcWidth <= 0 || srcHeight <= 0 || vp.HFOV <= 0 || vp.VFOV <= 0 {
		return nil
	}

	top := clamp(vp.Pitch+vp.VFOV/2, -90, 90)
	bottom := clamp(vp.Pitch-vp.VFOV/2, -90, 90)

	y0 := int(math.Floor(PitchToY(top, srcHeight)))
	y1 := int(math.Ceil(PitchToY(bottom, srcHeight)))
	if y1 <= y0 {
		return nil
	}

	// Parallels shrink towards the poles, so the same angular width covers
	// more of the picture at high latitude.
	full := []image.Rectangle{image.Rect(0, y0, srcWidth, y1)}
	maxLat := math.Max(math.Abs(top), math.Abs(bottom))
	if maxLat >= 90 {
		return full
	}
	half := vp.HFOV / 2 / math.Cos(maxLat*math.Pi/180)
	if half >= 180 {
		return full
	}

	yaw := normalizeYaw(vp.Yaw)
	x0 := int(math.Floor(YawToX(yaw-half, srcWidth)))
	x1 := int(math.Ceil(YawToX(yaw+half, srcWidth)))

	switch {
	case x0 < 0:
		return []image.Rectangle{
			image.Rect(srcWidth+x0, y0, srcWidth, y1),
			image.Rect(0, y0, x1, y1),
		}
	case x1 > srcWidth:
		return []image.Rectangle{
			image.Rect(x0, y0, srcWidth, y1),
			image.Rect(0, y0, x1-srcWidth, y1),
		}
	}
	return []image.Rectangle{image.Rect(x0, y0, x1, y1)}
}

// normalizeYaw folds yaw into [-180, 180)
func normalizeYaw(yaw float64) float64 {
	yaw = math.Mod(yaw+180, 360)
	if yaw < 0 {
		yaw += 360
	}
	return yaw - 180
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
