package main

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/retro8/chip8emu/chip8"
)

// screen renders the virtual machine's display buffer. Pixels are drawn
// onto a display-sized render target which is then stretched over the
// window.
type screen struct {
	renderer *sdl.Renderer
	target   *sdl.Texture
}

func newScreen(renderer *sdl.Renderer) (*screen, error) {
	target, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_RGB888,
		sdl.TEXTUREACCESS_TARGET,
		chip8.DisplayWidth,
		chip8.DisplayHeight)
	if err != nil {
		return nil, err
	}

	return &screen{
		renderer: renderer,
		target:   target,
	}, nil
}

func (s *screen) destroy() {
	s.target.Destroy()
}

// refresh redraws the window from a snapshot of the display buffer.
func (s *screen) refresh(vm *chip8.VM) {
	video := vm.VideoSnapshot()

	if err := s.renderer.SetRenderTarget(s.target); err != nil {
		return
	}

	// background then foreground
	s.renderer.SetDrawColor(17, 29, 43, 255)
	s.renderer.Clear()
	s.renderer.SetDrawColor(143, 145, 133, 255)

	for p := 0; p < chip8.DisplayWidth*chip8.DisplayHeight; p++ {
		if video[p>>3]&(0x80>>uint(p&7)) != 0 {
			x := int32(p % chip8.DisplayWidth)
			y := int32(p / chip8.DisplayWidth)
			s.renderer.DrawPoint(x, y)
		}
	}

	s.renderer.SetRenderTarget(nil)

	// stretch the render target over the whole window
	s.renderer.Copy(s.target, nil, nil)
	s.renderer.Present()
}
