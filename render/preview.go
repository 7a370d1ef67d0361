// Package render draws stick-figure previews of resolved poses.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/binzume/bvhkit/geom"
	"github.com/binzume/bvhkit/pose"
	"golang.org/x/image/draw"
)

type PreviewOption struct {
	Width       int // Default: 256
	Height      int // Default: Width
	Supersample int // Default: 2
	Margin      int // Default: Width/16
	Camera      Camera

	Background color.Color
	BoneColor  color.Color
	JointColor color.Color
}

var (
	DefaultBackground = color.RGBA{24, 24, 32, 255}
	DefaultBoneColor  = color.RGBA{220, 220, 220, 255}
	DefaultJointColor = color.RGBA{255, 128, 0, 255}
)

func (o PreviewOption) withDefaults() PreviewOption {
	if o.Width <= 0 {
		o.Width = 256
	}
	if o.Height <= 0 {
		o.Height = o.Width
	}
	if o.Supersample <= 0 {
		o.Supersample = 2
	}
	if o.Margin <= 0 {
		o.Margin = o.Width / 16
	}
	if o.Background == nil {
		o.Background = DefaultBackground
	}
	if o.BoneColor == nil {
		o.BoneColor = DefaultBoneColor
	}
	if o.JointColor == nil {
		o.JointColor = DefaultJointColor
	}
	return o
}

func fillRect(img *image.RGBA, cx, cy, r int, c color.Color) {
	rect := image.Rect(cx-r, cy-r, cx+r+1, cy+r+1).Intersect(img.Bounds())
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)
}

// Preview renders p as an orthographic stick figure. The figure is drawn at
// Supersample times the output size and scaled down with CatmullRom.
func Preview(p *pose.Pose, opt *PreviewOption) *image.RGBA {
	var o PreviewOption
	if opt != nil {
		o = *opt
	}
	o = o.withDefaults()
	ss := o.Supersample

	big := image.NewRGBA(image.Rect(0, 0, o.Width*ss, o.Height*ss))
	draw.Draw(big, big.Bounds(), image.NewUniform(o.Background), image.Point{}, draw.Src)

	bones := p.Bones()
	pts := p.Points()
	vp := FitViewport(Project(pts, o.Camera), big.Rect.Dx(), big.Rect.Dy(), o.Margin*ss)

	thickness := ss / 2
	for _, b := range bones {
		seg := Project([]geom.Vector3{b.From, b.To}, o.Camera)
		x0, y0 := vp.ToScreen(seg[0])
		x1, y1 := vp.ToScreen(seg[1])
		Line(x0, y0, x1, y1, func(x, y int) {
			fillRect(big, x, y, thickness, o.BoneColor)
		})
	}
	for _, v := range Project(pts, o.Camera) {
		x, y := vp.ToScreen(v)
		fillRect(big, x, y, ss*2, o.JointColor)
	}

	if ss == 1 {
		return big
	}
	dst := image.NewRGBA(image.Rect(0, 0, o.Width, o.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), big, big.Bounds(), draw.Src, nil)
	return dst
}

// FormatFromPath returns "png" or "webp" from a file extension.
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// EncodeImage writes img as "png" or "webp".
func EncodeImage(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "webp":
		return nativewebp.Encode(w, img, nil)
	}
	return fmt.Errorf("render: unsupported image format %q", format)
}
