package kapi

// DisplayRect names a rectangular region in framebuffer coordinates,
// the argument shape display_fill takes.
type DisplayRect struct {
	X, Y, W, H int
}

// Display is the narrow framebuffer port display_fill/display_draw
// sit behind — spec.md's SYSINFO boot-handoff page names framebuffer
// geometry but no driver; this is the same kind of external
// collaborator stream.Object and image.Loader are, not something the
// core owns.
type Display interface {
	Fill(rect DisplayRect, color uint32) error
	Draw(x, y int, pixels []uint32, w, h int) error
}

// DisplayFill implements display_fill. Returns false if no Display was
// wired (a system booted without a framebuffer handoff).
func (s *Service) DisplayFill(rect DisplayRect, color uint32) bool {
	if s.Display == nil {
		return false
	}
	return s.Display.Fill(rect, color) == nil
}

// DisplayDraw implements display_draw.
func (s *Service) DisplayDraw(x, y int, pixels []uint32, w, h int) bool {
	if s.Display == nil {
		return false
	}
	return s.Display.Draw(x, y, pixels, w, h) == nil
}
