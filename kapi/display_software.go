package kapi

// SoftwareDisplay is a hosted Display backed by a plain pixel slice,
// standing in for a real linear framebuffer the bootloader would have
// mapped and described via SYSINFO.
type SoftwareDisplay struct {
	W, H   int
	Pixels []uint32
}

func NewSoftwareDisplay(w, h int) *SoftwareDisplay {
	return &SoftwareDisplay{W: w, H: h, Pixels: make([]uint32, w*h)}
}

func (d *SoftwareDisplay) Fill(rect DisplayRect, color uint32) error {
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		if y < 0 || y >= d.H {
			continue
		}
		for x := rect.X; x < rect.X+rect.W; x++ {
			if x < 0 || x >= d.W {
				continue
			}
			d.Pixels[y*d.W+x] = color
		}
	}
	return nil
}

func (d *SoftwareDisplay) Draw(x0, y0 int, pixels []uint32, w, h int) error {
	for y := 0; y < h; y++ {
		py := y0 + y
		if py < 0 || py >= d.H {
			continue
		}
		for x := 0; x < w; x++ {
			px := x0 + x
			if px < 0 || px >= d.W {
				continue
			}
			d.Pixels[py*d.W+px] = pixels[y*w+x]
		}
	}
	return nil
}
