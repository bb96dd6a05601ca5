// Package debug provides developer utilities for the viewer.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// ErrPixelSize is returned when the pixel buffer does not match the frame
// size.
var ErrPixelSize = errors.New("pixel data size mismatch")

// Screenshots writes frames read back from GL as PNG files.
type Screenshots struct {
	dir    string
	prefix string
	now    func() time.Time
	seq    int
}

// NewScreenshots creates a writer saving into dir. An empty dir means the
// working directory.
func NewScreenshots(dir, prefix string) *Screenshots {
	return &Screenshots{dir: dir, prefix: prefix, now: time.Now}
}

// Filename returns the path the next screenshot is written to.
func (s *Screenshots) Filename() string {
	name := fmt.Sprintf("%s_%s_%03d.png", s.prefix, s.now().Format("2006-01-02_15-04-05"), s.seq)
	if s.dir != "" {
		name = filepath.Join(s.dir, name)
	}
	return name
}

// Save writes bottom-up RGBA pixels as read by glReadPixels and returns
// the file name.
func (s *Screenshots) Save(pixels []byte, width, height int) (string, error) {
	rowSize := width * 4
	if len(pixels) != rowSize*height {
		return "", errors.Wrapf(ErrPixelSize, "expected %d, got %d", rowSize*height, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		copy(img.Pix[y*img.Stride:y*img.Stride+rowSize], pixels[src:src+rowSize])
	}
	return s.write(img)
}

func (s *Screenshots) write(img image.Image) (string, error) {
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return "", errors.Wrap(err, "creating output dir")
		}
	}

	name := s.Filename()
	s.seq++

	f, err := os.Create(name)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", errors.Wrap(err, "encoding PNG")
	}
	return name, nil
}
