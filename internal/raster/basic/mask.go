package basic

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const glyphHeight = 13

// maxMaskPixels bounds a single event's outline mask.
const maxMaskPixels = 1 << 25

var face = basicfont.Face7x13

// mask is a coverage bitmap with rows padded to 16 bytes.
type mask struct {
	w, h   int
	stride int
	pix    []byte
}

func newMask(w, h int) *mask {
	stride := (w + 15) &^ 15
	return &mask{w: w, h: h, stride: stride, pix: make([]byte, stride*h)}
}

// textMask draws lines with the built-in face, aligned within the block by
// col (0 left, 1 center, 2 right). It returns nil for text without width.
func textMask(lines []string, col int) *mask {
	widths := make([]int, len(lines))
	width := 0
	for i, line := range lines {
		widths[i] = font.MeasureString(face, line).Ceil()
		width = max(width, widths[i])
	}
	if width == 0 {
		return nil
	}
	img := image.NewAlpha(image.Rect(0, 0, width, len(lines)*glyphHeight))
	d := font.Drawer{Dst: img, Src: image.Opaque, Face: face}
	for i, line := range lines {
		x := col * (width - widths[i]) / 2
		d.Dot = fixed.P(x, i*glyphHeight+face.Ascent)
		d.DrawString(line)
	}

	m := newMask(img.Rect.Dx(), img.Rect.Dy())
	for y := 0; y < m.h; y++ {
		copy(m.pix[y*m.stride:y*m.stride+m.w], img.Pix[y*img.Stride:y*img.Stride+m.w])
	}
	return m
}

// scale enlarges m by an integer factor using nearest neighbour.
func (m *mask) scale(factor int) *mask {
	if factor <= 1 {
		return m
	}
	out := newMask(m.w*factor, m.h*factor)
	for y := 0; y < out.h; y++ {
		src := m.pix[(y/factor)*m.stride:]
		dst := out.pix[y*out.stride : y*out.stride+out.w]
		for x := range dst {
			dst[x] = src[x/factor]
		}
	}
	return out
}

// dilate grows coverage by radius pixels in every direction. The result is
// 2*radius larger in both dimensions and aligned so that m's origin sits at
// (radius, radius). The square window is applied as a row pass then a column
// pass, each linear in the mask size.
func (m *mask) dilate(radius int) *mask {
	span := 2*radius + 1
	rows := newMask(m.w+2*radius, m.h)
	queue := make([]int, 0, max(m.w, m.h))
	for y := 0; y < m.h; y++ {
		queue = windowMax(rows.pix[y*rows.stride:y*rows.stride+rows.w], m.pix[y*m.stride:y*m.stride+m.w], span, queue)
	}

	out := newMask(rows.w, m.h+2*radius)
	src := make([]byte, rows.h)
	dst := make([]byte, out.h)
	for x := 0; x < rows.w; x++ {
		for y := range src {
			src[y] = rows.pix[y*rows.stride+x]
		}
		queue = windowMax(dst, src, span, queue)
		for y, v := range dst {
			out.pix[y*out.stride+x] = v
		}
	}
	return out
}

// windowMax sets dst[k] to the largest src[j] with k-span < j <= k, keeping a
// queue of indices whose values decrease. dst is len(src)+span-1 long.
func windowMax(dst, src []byte, span int, queue []int) []int {
	queue = queue[:0]
	head := 0
	for k := range dst {
		if k < len(src) {
			v := src[k]
			for len(queue) > head && src[queue[len(queue)-1]] <= v {
				queue = queue[:len(queue)-1]
			}
			queue = append(queue, k)
		}
		for head < len(queue) && queue[head] <= k-span {
			head++
		}
		if head < len(queue) {
			dst[k] = src[queue[head]]
		} else {
			dst[k] = 0
		}
	}
	return queue
}
