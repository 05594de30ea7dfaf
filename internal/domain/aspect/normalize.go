package aspect

import (
	"fmt"
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/forPelevin/hlreel/internal/types"
)

// CropRect returns the centered region of bounds that has the target aspect
// ratio. Only one axis is ever cropped: height when the frame is relatively
// taller than the target, width otherwise (including equal aspects).
func CropRect(bounds image.Rectangle, targetW, targetH int) (image.Rectangle, error) {
	fw, fh := bounds.Dx(), bounds.Dy()
	if fw <= 0 || fh <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: frame is %dx%d", types.ErrInvalidFrame, fw, fh)
	}
	if targetW <= 0 || targetH <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: target is %dx%d", types.ErrInvalidFrame, targetW, targetH)
	}

	// Compare fw/fh against tw/th without floating point so that equal ratios
	// never produce a one-pixel crop from rounding.
	W, H := int64(fw), int64(fh)
	tw, th := int64(targetW), int64(targetH)

	if W*th < H*tw {
		keep := W * th / tw
		top := (H*tw - W*th) / (2 * tw)
		keep = clampExtent(keep, H)
		r := image.Rect(0, int(top), fw, int(top+keep))
		return r.Add(bounds.Min), nil
	}

	keep := H * tw / th
	left := (W*th - H*tw) / (2 * th)
	keep = clampExtent(keep, W)
	r := image.Rect(int(left), 0, int(left+keep), fh)
	return r.Add(bounds.Min), nil
}

func clampExtent(keep, limit int64) int64 {
	if keep < 1 {
		return 1
	}
	if keep > limit {
		return limit
	}
	return keep
}

// Normalize center-crops src to the target aspect ratio and resizes the crop
// to exactly targetW x targetH. Integer truncation in the crop may stretch the
// content by up to a pixel; that is accepted.
func Normalize(src image.Image, targetW, targetH int) (*image.RGBA, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil frame", types.ErrInvalidFrame)
	}
	crop, err := CropRect(src.Bounds(), targetW, targetH)
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	if crop.Dx() == targetW && crop.Dy() == targetH {
		draw.Draw(dst, dst.Bounds(), src, crop.Min, draw.Src)
		return dst, nil
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst, nil
}
