package glyph

import (
	"fmt"
	"image"
	"math"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/txt2pdf/fonts"
)

// 离屏采样参数。
const (
	SurfaceSize = 40
	SampleSize  = 24
	// NotACharacter 是用来获取字体“未找到”方框的保留码点。
	NotACharacter = '\uFFFF'
	// WidthTolerance 是宽度比较的容差（像素）。
	WidthTolerance = 0.05
)

// Sample 是一次离屏绘制的结果：步进宽度与 RGBA 像素。
type Sample struct {
	Width  float64
	Pixels []uint8
}

// IsTofu 判断 sample 是否与“未找到”指纹一致。
// 宽度为 0 视为合法的不可见字形；宽度差异超过容差视为正常字形；
// 否则逐像素比较 alpha，alpha>0 处再比较 RGB。
func (s Sample) IsTofu(ref Sample) bool {
	if s.Width == 0 {
		return false
	}
	if math.Abs(s.Width-ref.Width) > WidthTolerance {
		return false
	}
	if len(s.Pixels) != len(ref.Pixels) {
		return false
	}
	for i := 0; i+3 < len(s.Pixels); i += 4 {
		if s.Pixels[i+3] != ref.Pixels[i+3] {
			return false
		}
		if s.Pixels[i+3] > 0 &&
			(s.Pixels[i] != ref.Pixels[i] || s.Pixels[i+1] != ref.Pixels[i+1] || s.Pixels[i+2] != ref.Pixels[i+2]) {
			return false
		}
	}
	return true
}

// Rasterizer 在离屏表面上用字体栈绘制文本。
type Rasterizer interface {
	Render(stack fonts.Stack, text string) (Sample, error)
}

// FaceRasterizer 用 x/image 的 opentype 字形面在 40×40 的 RGBA 表面上居中绘制。
// 字体栈中第一个覆盖该字符的字体负责绘制，没有则由首个字体绘制 .notdef。
type FaceRasterizer struct {
	book *fonts.Book

	mu    sync.Mutex
	faces map[*fonts.Font]font.Face
}

// NewFaceRasterizer 创建基于字体集合的离屏绘制器。
func NewFaceRasterizer(book *fonts.Book) *FaceRasterizer {
	return &FaceRasterizer{book: book, faces: map[*fonts.Font]font.Face{}}
}

func (fr *FaceRasterizer) Render(stack fonts.Stack, text string) (Sample, error) {
	r, _ := utf8.DecodeRuneInString(text)
	f, ok := fr.book.Resolve(stack, r)
	if !ok {
		f = fr.book.Primary(stack)
	}

	fr.mu.Lock()
	defer fr.mu.Unlock()

	face, cached := fr.faces[f]
	if !cached {
		var err error
		face, err = opentype.NewFace(f.SFNT(), &opentype.FaceOptions{
			Size:    SampleSize,
			DPI:     72,
			Hinting: font.HintingNone,
		})
		if err != nil {
			return Sample{}, fmt.Errorf("创建字形面 %s 失败: %w", f.Name, err)
		}
		fr.faces[f] = face
	}

	dst := image.NewRGBA(image.Rect(0, 0, SurfaceSize, SurfaceSize))
	d := &font.Drawer{Dst: dst, Src: image.Black, Face: face}
	adv := d.MeasureString(text)
	m := face.Metrics()
	// 水平居中，垂直以字体中线对齐表面中心
	x := fixed.I(SurfaceSize/2) - adv/2
	y := fixed.I(SurfaceSize/2) + (m.Ascent-m.Descent)/2
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(text)

	return Sample{Width: float64(adv) / 64, Pixels: dst.Pix}, nil
}
