package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// transform applies the configured resize, grayscale, and contrast steps in
// that order.
func transform(img image.Image, opts Options) image.Image {
	if w, h, ok := fit(img.Bounds(), opts.MaxWidth, opts.MaxHeight); ok {
		img = scale(img, w, h)
	}
	if opts.Grayscale {
		gray := toGray(img)
		if opts.AutoContrast {
			stretchContrast(gray)
		}
		return gray
	}
	return img
}

// fit computes the largest dimensions within maxW x maxH that preserve the
// aspect ratio of bounds. ok is false when no resize is needed; pages are
// never upscaled.
func fit(bounds image.Rectangle, maxW, maxH int) (w, h int, ok bool) {
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, false
	}
	if (maxW <= 0 || srcW <= maxW) && (maxH <= 0 || srcH <= maxH) {
		return 0, 0, false
	}

	scaleW, scaleH := 1.0, 1.0
	if maxW > 0 {
		scaleW = float64(maxW) / float64(srcW)
	}
	if maxH > 0 {
		scaleH = float64(maxH) / float64(srcH)
	}
	s := scaleW
	if scaleH < s {
		s = scaleH
	}

	w = int(float64(srcW)*s + 0.5)
	h = int(float64(srcH)*s + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h, true
}

func scale(img image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func toGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// stretchContrast maps the darkest pixel to black and the lightest to white
// with a linear ramp in between. Flat pages are left alone.
func stretchContrast(gray *image.Gray) {
	lo, hi := uint8(255), uint8(0)
	for _, p := range gray.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if lo == 0 && hi == 255 {
		return
	}
	if lo >= hi {
		return
	}

	span := int(hi) - int(lo)
	var lut [256]uint8
	for i := int(lo); i <= int(hi); i++ {
		lut[i] = uint8((i - int(lo)) * 255 / span)
	}
	for i := int(hi) + 1; i < 256; i++ {
		lut[i] = 255
	}
	for i, p := range gray.Pix {
		gray.Pix[i] = lut[p]
	}
}
