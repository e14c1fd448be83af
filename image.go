package shotpdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	"github.com/k1LoW/errors"
)

type MIMEType string

const (
	MIMETypeImagePNG  MIMEType = "image/png"
	MIMETypeImageJPEG MIMEType = "image/jpeg"
	MIMETypeImageGIF  MIMEType = "image/gif"
)

// similarityThreshold is the maximum pHash distance for two screenshots to be equivalent.
const similarityThreshold = 5

// Image is a decoded screenshot. Lazily computed values are guarded by mu
// because cached images are shared between builds.
type Image struct {
	mu       sync.Mutex
	i        image.Image
	b        []byte // Raw image data
	mimeType MIMEType
	path     string
	checksum uint32                 // Checksum for the image data
	pHash    *goimagehash.ImageHash // Perceptual hash
	modTime  time.Time              // Modification time of the image file
	size     int64                  // Size of the image file
	flat     *image.NRGBA           // Opaque version of the image
}

// NewImage loads the image file at p.
// Images are cached by path and reloaded when the modification time or the size of the file has changed.
func NewImage(p string) (_ *Image, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	fi, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image file %s: %w", p, err)
	}
	modTime := fi.ModTime()
	if i, ok := LoadImageCache(p); ok {
		if modTime.Equal(i.modTime) && fi.Size() == i.size {
			return i, nil
		}
	}
	file, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", p, err)
	}
	defer file.Close()
	i, err := newImageFromBuffer(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create image from %s: %w", p, err)
	}
	i.path = p
	i.modTime = modTime
	i.size = fi.Size()
	StoreImageCache(p, i)
	return i, nil
}

func newImageFromBuffer(r io.Reader) (_ *Image, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	_, mimeType, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	var mt MIMEType
	switch mimeType {
	case "png":
		mt = MIMETypeImagePNG
	case "jpeg":
		mt = MIMETypeImageJPEG
	case "gif":
		mt = MIMETypeImageGIF
	default:
		return nil, fmt.Errorf("unsupported image MIME type: %s", mimeType)
	}
	return &Image{
		b:        b,
		mimeType: mt,
	}, nil
}

// ParseDataURI parses a data URI of the form `data:<mime>;base64,<payload>`.
// The decoded payload must be an image of the declared MIME type.
func ParseDataURI(s string) (_ MIMEType, _ []byte, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if !strings.HasPrefix(s, "data:") {
		return "", nil, fmt.Errorf("invalid data URI: missing data: prefix")
	}
	mt, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ";base64,")
	if !ok {
		return "", nil, fmt.Errorf("invalid data URI: missing ;base64, separator")
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode base64 image data: %w", err)
	}
	i, err := newImageFromBuffer(bytes.NewReader(decoded))
	if err != nil {
		return "", nil, err
	}
	if string(i.mimeType) != mt {
		return "", nil, fmt.Errorf("image MIME type mismatch: expected %s, got %s", mt, i.mimeType)
	}
	return i.mimeType, decoded, nil
}

// Name returns the file name of the image.
func (i *Image) Name() string {
	if i == nil {
		return ""
	}
	return filepath.Base(i.path)
}

func (i *Image) Path() string {
	if i == nil {
		return ""
	}
	return i.path
}

func (i *Image) MIMEType() MIMEType {
	if i == nil {
		return ""
	}
	return i.mimeType
}

func (i *Image) Equivalent(ii *Image) bool {
	if i == nil || ii == nil {
		return false
	}
	if i.Checksum() == ii.Checksum() {
		return true
	}

	// Screenshots of the same screen differ slightly (cursor, animations, re-encoding),
	// so we use Perceptual Hashing for comparison
	aHash, err := i.PHash()
	if err != nil {
		return false
	}
	bHash, err := ii.PHash()
	if err != nil {
		return false
	}
	distance, err := aHash.Distance(bHash)
	if err != nil {
		return false
	}
	return distance < similarityThreshold
}

func (i *Image) Checksum() uint32 {
	if i == nil {
		return 0
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.checksum == 0 {
		i.checksum = crc32.ChecksumIEEE(i.b)
	}
	return i.checksum
}

func (i *Image) Image() (image.Image, error) {
	if i == nil {
		return nil, fmt.Errorf("image is nil")
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.decode()
}

// decode must be called with mu held.
func (i *Image) decode() (image.Image, error) {
	if i.i == nil {
		img, _, err := image.Decode(bytes.NewReader(i.b))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		i.i = img
	}
	return i.i, nil
}

// Size returns the width and height of the image in pixels.
func (i *Image) Size() (int, int, error) {
	img, err := i.Image()
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

func (i *Image) PHash() (_ *goimagehash.ImageHash, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if i == nil {
		return nil, fmt.Errorf("image is nil")
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.pHash == nil {
		img, err := i.decode()
		if err != nil {
			return nil, err
		}
		pHash, err := goimagehash.PerceptionHash(img)
		if err != nil {
			return nil, fmt.Errorf("failed to compute perceptual hash: %w", err)
		}
		i.pHash = pHash
	}
	return i.pHash, nil
}

// Flatten returns the opaque version of the image.
func (i *Image) Flatten() (*image.NRGBA, error) {
	if i == nil {
		return nil, fmt.Errorf("image is nil")
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.flat == nil {
		img, err := i.decode()
		if err != nil {
			return nil, err
		}
		i.flat = Flatten(img)
	}
	return i.flat, nil
}

// Flatten composites img onto an opaque white canvas of the same size, using the alpha channel as mask.
// Images without transparency are converted as is.
func Flatten(img image.Image) *image.NRGBA {
	if !hasAlpha(img) {
		return imaging.Clone(img)
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Point{}, 1.0)
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}
