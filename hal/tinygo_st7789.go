//go:build tinygo && baremetal

package hal

import (
	"errors"
	"machine"
	"time"
)

// st7789FB is an in-RAM RGB565 framebuffer whose Present pushes the whole
// buffer to an ST7789 panel over SPI.
type st7789FB struct {
	spi machine.SPI
	cs  machine.Pin
	dc  machine.Pin
	rst machine.Pin

	width  int
	height int
	buf    []byte
	tx     []byte
}

func initST7789() (*st7789FB, error) {
	if machine.SPI0 == nil {
		return nil, errors.New("SPI0 unavailable")
	}

	machine.SPI0.Configure(machine.SPIConfig{
		SCK:       machine.GP18,
		SDO:       machine.GP19,
		SDI:       machine.GP16,
		Frequency: 62_500_000,
	})

	lcd := &st7789FB{
		spi:    *machine.SPI0,
		cs:     machine.GP17,
		dc:     machine.GP20,
		rst:    machine.GP21,
		width:  320,
		height: 240,
	}
	lcd.buf = make([]byte, lcd.width*lcd.height*2)
	lcd.tx = make([]byte, 4096)

	lcd.cs.Configure(machine.PinConfig{Mode: machine.PinOutput})
	lcd.dc.Configure(machine.PinConfig{Mode: machine.PinOutput})
	lcd.rst.Configure(machine.PinConfig{Mode: machine.PinOutput})
	lcd.cs.High()
	lcd.dc.High()

	lcd.reset()
	lcd.init()

	return lcd, nil
}

func (d *st7789FB) reset() {
	d.rst.Low()
	time.Sleep(20 * time.Millisecond)
	d.rst.High()
	time.Sleep(120 * time.Millisecond)
}

func (d *st7789FB) init() {
	d.cmd(0x01) // SWRESET
	time.Sleep(150 * time.Millisecond)
	d.cmd(0x11) // SLPOUT
	time.Sleep(10 * time.Millisecond)
	d.cmd(0x3A, 0x55) // COLMOD: 16bpp
	d.cmd(0x36, 0x60) // MADCTL: landscape, RGB
	d.cmd(0x21)       // INVON (panel expects inverted colors)
	d.cmd(0x13)       // NORON
	d.cmd(0x29)       // DISPON
	time.Sleep(10 * time.Millisecond)
}

func (d *st7789FB) cmd(c byte, args ...byte) {
	d.cs.Low()
	d.dc.Low()
	d.spi.Tx([]byte{c}, nil)
	if len(args) > 0 {
		d.dc.High()
		d.spi.Tx(args, nil)
	}
	d.cs.High()
}

func (d *st7789FB) setWindow(x0, y0, x1, y1 int) {
	d.cmd(0x2A, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)) // CASET
	d.cmd(0x2B, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)) // RASET
}

func (d *st7789FB) Width() int          { return d.width }
func (d *st7789FB) Height() int         { return d.height }
func (d *st7789FB) Format() PixelFormat { return PixelFormatRGB565 }
func (d *st7789FB) StrideBytes() int    { return d.width * 2 }
func (d *st7789FB) Buffer() []byte      { return d.buf }

func (d *st7789FB) ClearRGB(r, g, b uint8) {
	pixel := rgb565(r, g, b)
	lo := byte(pixel)
	hi := byte(pixel >> 8)
	for i := 0; i < len(d.buf); i += 2 {
		d.buf[i] = lo
		d.buf[i+1] = hi
	}
}

// Present streams the buffer to the panel, swapping to the big-endian pixel
// order the ST7789 expects.
func (d *st7789FB) Present() error {
	d.setWindow(0, 0, d.width-1, d.height-1)
	d.cs.Low()
	d.dc.Low()
	d.spi.Tx([]byte{0x2C}, nil) // RAMWR
	d.dc.High()

	var err error
	for off := 0; off < len(d.buf); off += len(d.tx) {
		end := off + len(d.tx)
		if end > len(d.buf) {
			end = len(d.buf)
		}
		chunk := d.buf[off:end]
		for i := 0; i+1 < len(chunk); i += 2 {
			d.tx[i] = chunk[i+1]
			d.tx[i+1] = chunk[i]
		}
		if err = d.spi.Tx(d.tx[:end-off], nil); err != nil {
			break
		}
	}
	d.cs.High()
	return err
}
