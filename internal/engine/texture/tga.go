package texture

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// TGA image types.
const (
	tgaTrueColor    = 2
	tgaTrueColorRLE = 10

	tgaHeaderSize = 18
)

// ErrTGAFormat is returned for TGA variants DecodeTGA does not read.
var ErrTGAFormat = errors.New("unsupported TGA format")

// tgaPixels walks TGA pixel data in file order and stores each pixel at
// its image position.
type tgaPixels struct {
	img         *image.RGBA
	width       int
	height      int
	bpp         int // bytes per pixel
	topToBottom bool
	next        int
}

func (p *tgaPixels) done() bool {
	return p.next >= p.width*p.height
}

// read decodes one BGR(A) pixel from src.
func (p *tgaPixels) read(src []byte) color.RGBA {
	c := color.RGBA{R: src[2], G: src[1], B: src[0], A: 255}
	if p.bpp == 4 {
		c.A = src[3]
	}
	return c
}

func (p *tgaPixels) put(c color.RGBA) {
	x, y := p.next%p.width, p.next/p.width
	if !p.topToBottom {
		y = p.height - 1 - y
	}
	p.img.SetRGBA(x, y, c)
	p.next++
}

// DecodeTGA decodes uncompressed and RLE true-color TGA files with 24 or
// 32 bits per pixel.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, errors.Wrap(ErrTGAFormat, "header truncated")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bits := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, errors.Wrap(ErrTGAFormat, "color-mapped")
	}
	if imageType != tgaTrueColor && imageType != tgaTrueColorRLE {
		return nil, errors.Wrapf(ErrTGAFormat, "image type %d", imageType)
	}
	if bits != 24 && bits != 32 {
		return nil, errors.Wrapf(ErrTGAFormat, "%d bits per pixel", bits)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, errors.Wrap(ErrTGAFormat, "id field truncated")
	}

	p := &tgaPixels{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		width:       width,
		height:      height,
		bpp:         bits / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	var err error
	if imageType == tgaTrueColor {
		err = p.decodeRaw(data[offset:])
	} else {
		err = p.decodeRLE(data[offset:])
	}
	if err != nil {
		return nil, err
	}
	return p.img, nil
}

func (p *tgaPixels) decodeRaw(src []byte) error {
	if len(src) < p.width*p.height*p.bpp {
		return errors.Wrap(ErrTGAFormat, "pixel data truncated")
	}
	for i := 0; !p.done(); i += p.bpp {
		p.put(p.read(src[i:]))
	}
	return nil
}

// decodeRLE reads run-length packets. A set high bit repeats one pixel,
// otherwise the packet holds raw pixels. The low seven bits are count-1.
func (p *tgaPixels) decodeRLE(src []byte) error {
	i := 0
	for !p.done() {
		if i >= len(src) {
			return errors.Wrap(ErrTGAFormat, "RLE data truncated")
		}
		packet := src[i]
		i++
		count := int(packet&0x7f) + 1

		if packet&0x80 != 0 {
			if i+p.bpp > len(src) {
				return errors.Wrap(ErrTGAFormat, "RLE data truncated")
			}
			c := p.read(src[i:])
			i += p.bpp
			for n := 0; n < count && !p.done(); n++ {
				p.put(c)
			}
			continue
		}

		for n := 0; n < count && !p.done(); n++ {
			if i+p.bpp > len(src) {
				return errors.Wrap(ErrTGAFormat, "RLE data truncated")
			}
			p.put(p.read(src[i:]))
			i += p.bpp
		}
	}
	return nil
}
