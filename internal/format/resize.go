package format

// ResizeMode picks whether the scaled box must fit entirely inside (Fit) or
// entirely cover (Fill) the target dimensions.
type ResizeMode int

const (
	ResizeFit ResizeMode = iota
	ResizeFill
)

const maxDimension = 1<<32 - 1

// ResizeDimensions computes the scaled (width, height) for an original origW x
// origH box resized toward a target targetW x targetH, per §4.1: with rw =
// origW/targetW and rh = origH/targetH, Fit divides both original dimensions by
// max(rw, rh) so the result fits entirely inside the target box (equivalent to
// the spec's r = min(targetW/origW, targetH/origH) applied as a direct scale
// factor), and Fill divides by min(rw, rh) so the result entirely covers it. Each
// resulting dimension is clamped into [1, 2^32-1]; if scaling overflows that range
// on either axis, the ratio is recomputed from whichever axis overflowed so the
// result never returns zero.
func ResizeDimensions(origW, origH, targetW, targetH int, mode ResizeMode) (int, int) {
	if origW <= 0 {
		origW = 1
	}
	if origH <= 0 {
		origH = 1
	}
	if targetW <= 0 {
		targetW = 1
	}
	if targetH <= 0 {
		targetH = 1
	}

	rw := float64(origW) / float64(targetW)
	rh := float64(origH) / float64(targetH)

	var ratio float64
	switch mode {
	case ResizeFill:
		ratio = rw
		if rh < ratio {
			ratio = rh
		}
	default:
		ratio = rw
		if rh > ratio {
			ratio = rh
		}
	}
	if ratio <= 0 {
		ratio = 1
	}

	w := int(float64(origW) / ratio)
	h := int(float64(origH) / ratio)

	w, h = clampDim(w), clampDim(h)

	// If either axis overflowed the representable range, recompute the ratio from
	// the axis that actually overflowed so we never return a zero-area box.
	if w == maxDimension && origW > maxDimension {
		ratio = float64(origW) / maxDimension
		w, h = clampDim(int(float64(origW)/ratio)), clampDim(int(float64(origH)/ratio))
	}
	if h == maxDimension && origH > maxDimension {
		ratio = float64(origH) / maxDimension
		w, h = clampDim(int(float64(origW)/ratio)), clampDim(int(float64(origH)/ratio))
	}

	return w, h
}

func clampDim(v int) int {
	if v < 1 {
		return 1
	}
	if v > maxDimension {
		return maxDimension
	}
	return v
}
