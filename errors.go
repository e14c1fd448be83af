package shotpdf

import "errors"

var (
	// ErrNoImage is returned by Extract when no record holds an image.
	ErrNoImage = errors.New("no image found in JSON")
	// ErrNoPNGFiles is returned by Assemble when the screenshot directory has no PNG files.
	ErrNoPNGFiles = errors.New("no PNG files found")
)
