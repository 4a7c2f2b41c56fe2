package geo

import "math"

// Window is a pixel-space view (xoff, yoff, xsize, ysize) relative to a
// source's native origin. Per §3, offsets are non-negative and the window
// fits within the native raster size UNLESS the window has been expanded
// to a union, in which case offsets may be negative and sizes may exceed
// the native raster.
type Window struct {
	XOff, YOff, XSize, YSize int
}

// alignTolerance is the 0.5px round tolerance from §4.1.
const alignTolerance = 0.5

// WindowFor computes the pixel window that area target occupies within a
// layer whose native area is native and whose pixel scale is scale.
// Offsets are rounded to the nearest pixel; a residual beyond the 0.5px
// tolerance is ErrWindowMisalignment.
func WindowFor(native Area, scale PixelScale, target Area) (Window, error) {
	xstep := math.Abs(scale.XStep)
	ystep := math.Abs(scale.YStep)
	if xstep == 0 || ystep == 0 {
		return Window{}, ErrWindowMisalignment
	}

	xoffF := (target.Left - native.Left) / xstep
	yoffF := (native.Top - target.Top) / ystep
	xsizeF := (target.Right - target.Left) / xstep
	ysizeF := (target.Top - target.Bottom) / ystep

	xoff, err := roundWithTolerance(xoffF)
	if err != nil {
		return Window{}, err
	}
	yoff, err := roundWithTolerance(yoffF)
	if err != nil {
		return Window{}, err
	}
	xsize, err := roundWithTolerance(xsizeF)
	if err != nil {
		return Window{}, err
	}
	ysize, err := roundWithTolerance(ysizeF)
	if err != nil {
		return Window{}, err
	}

	return Window{XOff: xoff, YOff: yoff, XSize: xsize, YSize: ysize}, nil
}

func roundWithTolerance(v float64) (int, error) {
	r := math.Round(v)
	if math.Abs(v-r) > alignTolerance {
		return 0, ErrWindowMisalignment
	}
	return int(r), nil
}

// SnapEnvelope floors left/bottom and ceils right/top against scale, so
// that the resulting area is a whole-pixel multiple of the origin — the
// rasterizer's envelope-snap contract (§4.1 invariant 3, §4.5 step 2).
func SnapEnvelope(native Area, scale PixelScale, envelope Area) Area {
	xstep := math.Abs(scale.XStep)
	ystep := math.Abs(scale.YStep)

	leftPix := math.Floor((envelope.Left - native.Left) / xstep)
	rightPix := math.Ceil((envelope.Right - native.Left) / xstep)
	topPix := math.Floor((native.Top - envelope.Top) / ystep)
	bottomPix := math.Ceil((native.Top - envelope.Bottom) / ystep)

	return Area{
		Left:   native.Left + leftPix*xstep,
		Right:  native.Left + rightPix*xstep,
		Top:    native.Top - topPix*ystep,
		Bottom: native.Top - bottomPix*ystep,
	}
}

// Contains reports whether b lies within a, to floating point tolerance.
func (a Area) Contains(b Area) bool {
	const eps = 1e-6
	return b.Left >= a.Left-eps && b.Right <= a.Right+eps &&
		b.Bottom >= a.Bottom-eps && b.Top <= a.Top+eps
}
