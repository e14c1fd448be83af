package shotpdf

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name  string
		img   image.Image
		check func(t *testing.T, got *image.NRGBA)
	}{
		{
			name: "fully transparent becomes white",
			img:  image.NewRGBA(image.Rect(0, 0, 3, 2)),
			check: func(t *testing.T, got *image.NRGBA) {
				for y := 0; y < 2; y++ {
					for x := 0; x < 3; x++ {
						if c := got.NRGBAAt(x, y); c != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
							t.Errorf("pixel (%d, %d) = %v, want white", x, y, c)
						}
					}
				}
			},
		},
		{
			name: "half transparent is blended onto white",
			img:  solidImage(2, 2, color.NRGBA{R: 255, A: 128}),
			check: func(t *testing.T, got *image.NRGBA) {
				c := got.NRGBAAt(1, 1)
				if c.R < 254 || c.A != 255 {
					t.Errorf("pixel = %v, want opaque red channel", c)
				}
				if c.G < 126 || c.G > 128 || c.B < 126 || c.B > 128 {
					t.Errorf("pixel = %v, want G and B about 127", c)
				}
			},
		},
		{
			name: "opaque image is kept",
			img:  stripes(8, 4, 2),
			check: func(t *testing.T, got *image.NRGBA) {
				want := stripes(8, 4, 2)
				if !bytes.Equal(got.Pix, want.Pix) {
					t.Error("opaque image was modified")
				}
			},
		},
		{
			name: "gray image is converted",
			img:  image.NewGray(image.Rect(0, 0, 4, 4)),
			check: func(t *testing.T, got *image.NRGBA) {
				if c := got.NRGBAAt(0, 0); c != (color.NRGBA{A: 255}) {
					t.Errorf("pixel = %v, want opaque black", c)
				}
			},
		},
		{
			name: "paletted transparent entry becomes white",
			img: func() image.Image {
				p := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.NRGBA{}, color.NRGBA{B: 255, A: 255}})
				p.SetColorIndex(1, 1, 1)
				return p
			}(),
			check: func(t *testing.T, got *image.NRGBA) {
				if c := got.NRGBAAt(0, 0); c != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
					t.Errorf("pixel (0, 0) = %v, want white", c)
				}
				if c := got.NRGBAAt(1, 1); c != (color.NRGBA{B: 255, A: 255}) {
					t.Errorf("pixel (1, 1) = %v, want blue", c)
				}
			},
		},
		{
			name: "sub image keeps its size",
			img:  image.NewRGBA(image.Rect(0, 0, 10, 10)).SubImage(image.Rect(2, 3, 7, 10)),
			check: func(t *testing.T, got *image.NRGBA) {
				if got.Bounds() != image.Rect(0, 0, 5, 7) {
					t.Errorf("bounds = %v, want %v", got.Bounds(), image.Rect(0, 0, 5, 7))
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Flatten(tt.img)
			b := tt.img.Bounds()
			if got.Bounds().Dx() != b.Dx() || got.Bounds().Dy() != b.Dy() {
				t.Fatalf("size = %v, want %v", got.Bounds().Size(), b.Size())
			}
			assertOpaque(t, got)
			tt.check(t, got)
		})
	}
}

func TestHasAlpha(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		want bool
	}{
		{"opaque NRGBA", solidImage(2, 2, color.NRGBA{R: 1, A: 255}), false},
		{"transparent NRGBA", solidImage(2, 2, color.NRGBA{R: 1, A: 10}), true},
		{"empty RGBA", image.NewRGBA(image.Rect(0, 0, 2, 2)), true},
		{"gray", image.NewGray(image.Rect(0, 0, 2, 2)), false},
		{"YCbCr", image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio420), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasAlpha(tt.img); got != tt.want {
				t.Errorf("hasAlpha() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDataURI(t *testing.T) {
	pngData := dummyPNG(t).Bytes()
	encoded := base64.StdEncoding.EncodeToString(pngData)
	tests := []struct {
		name     string
		in       string
		wantMIME MIMEType
		wantErr  bool
	}{
		{"valid PNG", "data:image/png;base64," + encoded, MIMETypeImagePNG, false},
		{"missing prefix", "image/png;base64," + encoded, "", true},
		{"missing base64 separator", "data:image/png," + encoded, "", true},
		{"broken base64", "data:image/png;base64,!!!", "", true},
		{"not an image", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello")), "", true},
		{"MIME type mismatch", "data:image/jpeg;base64," + encoded, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt, b, err := ParseDataURI(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDataURI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if mt != tt.wantMIME {
				t.Errorf("MIME type = %s, want %s", mt, tt.wantMIME)
			}
			if !bytes.Equal(b, pngData) {
				t.Error("decoded payload differs from the original")
			}
		})
	}
}

func TestEquivalent(t *testing.T) {
	base := gradient(64, 64, false)

	newImage := func(img image.Image) *Image {
		i, err := newImageFromBuffer(bytes.NewReader(encodePNG(t, img)))
		if err != nil {
			t.Fatal(err)
		}
		return i
	}
	// same pixels, different bytes
	reencoded := func(img image.Image) *Image {
		buf := new(bytes.Buffer)
		enc := &png.Encoder{CompressionLevel: png.NoCompression}
		if err := enc.Encode(buf, img); err != nil {
			t.Fatal(err)
		}
		i, err := newImageFromBuffer(buf)
		if err != nil {
			t.Fatal(err)
		}
		return i
	}

	tests := []struct {
		name string
		a    *Image
		b    *Image
		want bool
	}{
		{"same data", newImage(base), newImage(base), true},
		{"re-encoded", newImage(base), reencoded(base), true},
		{"inverted", newImage(base), newImage(gradient(64, 64, true)), false},
		{"nil", newImage(base), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equivalent(tt.b); got != tt.want {
				t.Errorf("Equivalent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewImage(t *testing.T) {
	dir := t.TempDir()
	p := writePNG(t, dir, "01-landing.png", stripes(6, 4, 2))

	i, err := NewImage(p)
	if err != nil {
		t.Fatalf("NewImage() error = %v", err)
	}
	if i.Name() != "01-landing.png" {
		t.Errorf("Name() = %q, want %q", i.Name(), "01-landing.png")
	}
	if i.MIMEType() != MIMETypeImagePNG {
		t.Errorf("MIMEType() = %s, want %s", i.MIMEType(), MIMETypeImagePNG)
	}
	w, h, err := i.Size()
	if err != nil {
		t.Fatal(err)
	}
	if w != 6 || h != 4 {
		t.Errorf("Size() = %dx%d, want 6x4", w, h)
	}

	cached, err := NewImage(p)
	if err != nil {
		t.Fatal(err)
	}
	if cached != i {
		t.Error("NewImage() did not return the cached image for an unchanged file")
	}

	writePNG(t, dir, "01-landing.png", stripes(8, 8, 2))
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(p, future, future); err != nil {
		t.Fatal(err)
	}
	reloaded, err := NewImage(p)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded == i {
		t.Error("NewImage() returned the cached image for a modified file")
	}
	if w, _, _ := reloaded.Size(); w != 8 {
		t.Errorf("reloaded width = %d, want 8", w)
	}
}

func TestNewImageSameModTime(t *testing.T) {
	dir := t.TempDir()
	p := writePNG(t, dir, "01-landing.png", stripes(6, 4, 2))
	fi, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	i, err := NewImage(p)
	if err != nil {
		t.Fatal(err)
	}

	// rewritten within the same modification time tick
	writePNG(t, dir, "01-landing.png", stripes(64, 64, 3))
	if err := os.Chtimes(p, fi.ModTime(), fi.ModTime()); err != nil {
		t.Fatal(err)
	}
	reloaded, err := NewImage(p)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded == i {
		t.Fatal("NewImage() returned the cached image for a file of another size")
	}
	if w, _, _ := reloaded.Size(); w != 64 {
		t.Errorf("reloaded width = %d, want 64", w)
	}
}

func TestImageConcurrentAccess(t *testing.T) {
	i, err := newImageFromBuffer(bytes.NewReader(encodePNG(t, gradient(32, 32, false))))
	if err != nil {
		t.Fatal(err)
	}
	other, err := newImageFromBuffer(bytes.NewReader(encodePNG(t, gradient(32, 32, true))))
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := i.Flatten(); err != nil {
				t.Error(err)
			}
			if _, err := i.PHash(); err != nil {
				t.Error(err)
			}
			_ = i.Equivalent(other)
			_, _, _ = i.Size()
		}()
	}
	wg.Wait()
	flat1, _ := i.Flatten()
	flat2, _ := i.Flatten()
	if flat1 != flat2 {
		t.Error("Flatten() is not cached")
	}
}

func TestNewImageErrors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(broken, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.png")},
		{"broken file", broken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewImage(tt.path); err == nil {
				t.Error("NewImage() error = nil, want error")
			}
		})
	}
}

// gradient returns an opaque image whose brightness is the product of x and y.
func gradient(w, h int, inverted bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * y * 255 / ((w - 1) * (h - 1)))
			if inverted {
				v = 255 - v
			}
			img.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}
