package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/wudi/pdfview/contentstream"
	"github.com/wudi/pdfview/ir/semantic"
)

var errNoSamples = errors.New("image has no sample data")

// decodeImage turns an image XObject into a Go image. Stencil masks paint with fill.
func decodeImage(xo *semantic.XObject, fill color.NRGBA) (image.Image, error) {
	if xo == nil {
		return nil, errNoSamples
	}
	var img image.Image
	var err error
	switch {
	case xo.ImageFilter == "DCTDecode":
		img, err = jpeg.Decode(bytes.NewReader(xo.Data))
		if err != nil {
			return nil, fmt.Errorf("jpeg: %w", err)
		}
	case xo.ImageFilter != "":
		return nil, fmt.Errorf("unsupported image codec %s", xo.ImageFilter)
	case xo.ImageMask:
		img, err = stencil(xo, fill)
	default:
		img, err = samples(xo)
	}
	if err != nil {
		return nil, err
	}
	if xo.SMask != nil {
		if mask, merr := decodeImage(xo.SMask, fill); merr == nil {
			img = applySoftMask(img, mask)
		}
	}
	return img, nil
}

type layout struct {
	w, h, bpc, n, rowBytes int
}

func layoutOf(xo *semantic.XObject, n int) (layout, error) {
	l := layout{w: xo.Width, h: xo.Height, bpc: xo.BitsPerComponent, n: n}
	if l.bpc == 0 {
		l.bpc = 8
	}
	switch l.bpc {
	case 1, 2, 4, 8, 16:
	default:
		return l, fmt.Errorf("unsupported bits per component %d", l.bpc)
	}
	if l.w <= 0 || l.h <= 0 {
		return l, fmt.Errorf("invalid image size %dx%d", l.w, l.h)
	}
	l.rowBytes = (l.w*l.n*l.bpc + 7) / 8
	// short streams paint the rows that are present
	if rows := len(xo.Data) / l.rowBytes; rows < l.h {
		if rows == 0 {
			return l, errNoSamples
		}
		l.h = rows
	}
	return l, nil
}

func sample(row []byte, i, bpc int) uint32 {
	switch bpc {
	case 8:
		return uint32(row[i])
	case 16:
		return uint32(row[2*i])<<8 | uint32(row[2*i+1])
	}
	bit := i * bpc
	shift := 8 - bpc - bit%8
	return uint32(row[bit/8]>>shift) & (1<<bpc - 1)
}

func samples(xo *semantic.XObject) (image.Image, error) {
	cs := xo.ColorSpace
	if cs == nil {
		cs = semantic.DeviceColorSpace{Name: "DeviceGray"}
	}
	n := cs.Components()
	if n <= 0 {
		return nil, fmt.Errorf("color space %s has no components", cs.ColorSpaceName())
	}
	l, err := layoutOf(xo, n)
	if err != nil {
		return nil, err
	}
	maxV := float64(uint32(1)<<l.bpc - 1)
	lo, hi := make([]float64, n), make([]float64, n)
	for c := 0; c < n; c++ {
		lo[c], hi[c] = 0, 1
		if _, indexed := cs.(*semantic.IndexedColorSpace); indexed {
			hi[c] = maxV
		}
		if len(xo.Decode) >= 2*(c+1) {
			lo[c], hi[c] = xo.Decode[2*c], xo.Decode[2*c+1]
		}
	}
	out := image.NewNRGBA(image.Rect(0, 0, l.w, l.h))
	comps := make([]float64, n)
	for y := 0; y < l.h; y++ {
		row := xo.Data[y*l.rowBytes : (y+1)*l.rowBytes]
		for x := 0; x < l.w; x++ {
			for c := 0; c < n; c++ {
				v := float64(sample(row, x*n+c, l.bpc))
				comps[c] = lo[c] + v/maxV*(hi[c]-lo[c])
			}
			out.SetNRGBA(x, y, contentstream.ColorOf(cs, comps))
		}
	}
	return out, nil
}

// stencil paints fill where the mask sample selects it (0 by default, 1 with Decode [1 0]).
func stencil(xo *semantic.XObject, fill color.NRGBA) (image.Image, error) {
	l, err := layoutOf(xo, 1)
	if err != nil {
		return nil, err
	}
	l.bpc = 1
	l.rowBytes = (l.w + 7) / 8
	paint := uint32(0)
	if len(xo.Decode) >= 2 && xo.Decode[0] > xo.Decode[1] {
		paint = 1
	}
	out := image.NewNRGBA(image.Rect(0, 0, l.w, l.h))
	for y := 0; y < l.h; y++ {
		row := xo.Data[y*l.rowBytes : (y+1)*l.rowBytes]
		for x := 0; x < l.w; x++ {
			if sample(row, x, 1) == paint {
				out.SetNRGBA(x, y, fill)
			}
		}
	}
	return out, nil
}

// applySoftMask multiplies img's alpha by the mask's luminance, sampling the mask nearest-neighbor.
func applySoftMask(img, mask image.Image) image.Image {
	b := img.Bounds()
	out, ok := img.(*image.NRGBA)
	if !ok {
		out = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	}
	mb := mask.Bounds()
	for y := 0; y < b.Dy(); y++ {
		my := mb.Min.Y + y*mb.Dy()/b.Dy()
		for x := 0; x < b.Dx(); x++ {
			mx := mb.Min.X + x*mb.Dx()/b.Dx()
			g := color.GrayModel.Convert(mask.At(mx, my)).(color.Gray).Y
			i := out.PixOffset(x+out.Rect.Min.X, y+out.Rect.Min.Y)
			out.Pix[i+3] = uint8(uint32(out.Pix[i+3]) * uint32(g) / 255)
		}
	}
	return out
}
