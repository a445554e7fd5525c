package entity

// CapturedImage is an 8-bit RGBA raster stored row-major, 4 bytes per pixel.
type CapturedImage struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewCapturedImage(width, height int) *CapturedImage {
	return &CapturedImage{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

func (c *CapturedImage) SameSize(other *CapturedImage) bool {
	return c.Width == other.Width && c.Height == other.Height
}

func (c *CapturedImage) Offset(x, y int) int {
	return (y*c.Width + x) * 4
}

func (c *CapturedImage) Set(x, y int, r, g, b, a uint8) {
	i := c.Offset(x, y)
	c.Pix[i], c.Pix[i+1], c.Pix[i+2], c.Pix[i+3] = r, g, b, a
}
