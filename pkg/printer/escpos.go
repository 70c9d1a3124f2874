package printer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ESC/POS command prefixes
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

// ESC/POS command selectors, sent after ESC or GS
const (
	CmdInitialize = '@' // ESC @      reset printer state
	CmdCodePage   = 't' // ESC t n    select character code table
	CmdAlign      = 'a' // ESC a n    select justification
	CmdEmphasis   = 'E' // ESC E n    emphasized (bold) on/off
	CmdCharSize   = '!' // GS ! n     select character size
	CmdCut        = 'V' // GS V m     cut paper
)

// Character code table selected at initialization (ESC t 0 = PC437).
const CodePagePC437 = 0

// Cut modes for GS V
const (
	CutFull    = 0x00
	CutPartial = 0x01
)

// Characters per line at scale 1
const (
	Columns58mm = 32
	Columns80mm = 48
)

// Alignment is the ESC a argument.
type Alignment byte

// Text alignment
const (
	AlignLeft   Alignment = 0
	AlignCenter Alignment = 1
	AlignRight  Alignment = 2
)

var codePage = charmap.CodePage437

var (
	ErrInvalidScale = errors.New("printer: character scale must be 1 or 2")
	ErrNegativeFeed = errors.New("printer: feed line count cannot be negative")
	ErrAfterCut     = errors.New("printer: directive after cut")
	ErrMissingCut   = errors.New("printer: document finalized without cut")
	ErrFinalized    = errors.New("printer: document already finalized")
)

// EncodingError reports text that has no representation in the printer's
// code page. Nothing of the offending line is written.
type EncodingError struct {
	Text      string // the full line
	Offending string // the first run of unsupported characters
	Offset    int    // byte offset of Offending in Text
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("printer: cannot encode %q at offset %d in %q", e.Offending, e.Offset, e.Text)
}

// Document builds an ESC/POS byte stream for thermal printers.
//
// Directives chain and the first error sticks: once a directive fails, later
// ones are ignored and Finalize reports the error. Alignment, emphasis and
// scale are modal on the device; the document remembers the current mode but
// always emits every directive it is given.
type Document struct {
	buf   bytes.Buffer
	width int // print width in characters at scale 1

	err       error
	align     Alignment
	bold      bool
	scaleW    int
	scaleH    int
	lastFeed  bool
	cut       bool
	cramped   bool
	finalized bool
}

// NewDocument creates a new ESC/POS document with the given character width.
// Common widths: 32 for 58mm paper, 48 for 80mm paper.
func NewDocument(charWidth int) *Document {
	if charWidth <= 0 {
		charWidth = Columns58mm
	}
	d := &Document{width: charWidth, scaleW: 1, scaleH: 1}
	d.buf.Write([]byte{ESC, CmdInitialize})
	d.buf.Write([]byte{ESC, CmdCodePage, CodePagePC437})
	return d
}

// Columns returns the characters per line at the current width scale.
func (d *Document) Columns() int {
	return d.width / d.scaleW
}

// Err returns the first error recorded by a directive.
func (d *Document) Err() error {
	return d.err
}

// Alignment returns the current alignment mode.
func (d *Document) Alignment() Alignment {
	return d.align
}

// Bold reports whether emphasis is currently on.
func (d *Document) Bold() bool {
	return d.bold
}

// Scale returns the current width and height multipliers.
func (d *Document) Scale() (width, height int) {
	return d.scaleW, d.scaleH
}

// CrampedCut reports whether the cut directly followed printed content.
// The cutter sits a few lines above the print head, so such a cut slices
// through the last lines. It is legal, just almost never intended.
func (d *Document) CrampedCut() bool {
	return d.cramped
}

func (d *Document) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// usable reports whether a new directive may be appended.
func (d *Document) usable() bool {
	switch {
	case d.finalized:
		d.fail(ErrFinalized)
	case d.cut:
		d.fail(ErrAfterCut)
	}
	return d.err == nil
}

// SetAlign sets text alignment: AlignLeft, AlignCenter, AlignRight.
func (d *Document) SetAlign(align Alignment) *Document {
	if !d.usable() {
		return d
	}
	if align > AlignRight {
		d.fail(fmt.Errorf("printer: unknown alignment %d", align))
		return d
	}
	d.buf.Write([]byte{ESC, CmdAlign, byte(align)})
	d.align = align
	return d
}

// AlignLeft selects left justification.
func (d *Document) AlignLeft() *Document { return d.SetAlign(AlignLeft) }

// AlignCenter selects centered text.
func (d *Document) AlignCenter() *Document { return d.SetAlign(AlignCenter) }

// AlignRight selects right justification.
func (d *Document) AlignRight() *Document { return d.SetAlign(AlignRight) }

// SetBold enables or disables bold text.
func (d *Document) SetBold(on bool) *Document {
	if !d.usable() {
		return d
	}
	b := byte(0)
	if on {
		b = 1
	}
	d.buf.Write([]byte{ESC, CmdEmphasis, b})
	d.bold = on
	return d
}

// SetCharacterScale selects the character size. Each multiplier must be 1 or 2.
func (d *Document) SetCharacterScale(width, height int) *Document {
	if !d.usable() {
		return d
	}
	if width < 1 || width > 2 || height < 1 || height > 2 {
		d.fail(fmt.Errorf("%w: got %dx%d", ErrInvalidScale, width, height))
		return d
	}
	size := byte((width-1)<<4 | (height - 1))
	d.buf.Write([]byte{GS, CmdCharSize, size})
	d.scaleW, d.scaleH = width, height
	return d
}

// LineFeed sends a line feed.
func (d *Document) LineFeed() *Document {
	return d.FeedLines(1)
}

// FeedLines sends n line feeds.
func (d *Document) FeedLines(n int) *Document {
	if !d.usable() {
		return d
	}
	if n < 0 {
		d.fail(ErrNegativeFeed)
		return d
	}
	for i := 0; i < n; i++ {
		d.buf.WriteByte(LF)
	}
	if n > 0 {
		d.lastFeed = true
	}
	return d
}

// Text writes a line of text followed by a line feed.
func (d *Document) Text(s string) *Document {
	if !d.usable() {
		return d
	}
	encoded, err := encodeLine(s)
	if err != nil {
		d.fail(err)
		return d
	}
	d.buf.Write(encoded)
	d.buf.WriteByte(LF)
	d.lastFeed = false
	return d
}

// TextF writes a formatted line of text followed by a line feed.
func (d *Document) TextF(format string, args ...interface{}) *Document {
	return d.Text(fmt.Sprintf(format, args...))
}

// Separator prints a full-width separator line (e.g. "--------------------------------").
func (d *Document) Separator(fill rune) *Document {
	return d.Text(strings.Repeat(string(fill), d.Columns()))
}

// KeyValue prints a left-aligned key and right-aligned value on the same line.
// Example: "Subtotal:                 650.00"
func (d *Document) KeyValue(key, value string) *Document {
	return d.Text(spread(key, value, d.Columns()))
}

// ItemLine prints a receipt item line: qty x name, then right-aligned total.
// Example: "2x Paneer Tikka           500.00"
func (d *Document) ItemLine(qty int, name, total string) *Document {
	return d.Text(spread(fmt.Sprintf("%dx %s", qty, name), total, d.Columns()))
}

// Cut sends the paper cut command (full cut).
func (d *Document) Cut() *Document {
	return d.cutPaper(CutFull)
}

// PartialCut sends the partial cut command.
func (d *Document) PartialCut() *Document {
	return d.cutPaper(CutPartial)
}

func (d *Document) cutPaper(mode byte) *Document {
	if !d.usable() {
		return d
	}
	d.buf.Write([]byte{GS, CmdCut, mode})
	d.cramped = !d.lastFeed
	d.cut = true
	return d
}

// Finalize returns the accumulated ESC/POS byte stream. The document must
// end with a cut. A document can be finalized once; every later call fails.
func (d *Document) Finalize() ([]byte, error) {
	if d.finalized {
		return nil, ErrFinalized
	}
	d.finalized = true

	if d.err != nil {
		return nil, d.err
	}
	if !d.cut {
		return nil, ErrMissingCut
	}
	out := make([]byte, d.buf.Len())
	copy(out, d.buf.Bytes())
	d.buf.Reset()
	return out, nil
}

// spread pads between left and right so the line fills width columns,
// keeping at least one space.
func spread(left, right string, width int) string {
	spaces := width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if spaces < 1 {
		spaces = 1
	}
	return left + strings.Repeat(" ", spaces) + right
}

// encodeLine converts s to the printer code page. Control characters and
// runes outside the code page are rejected.
func encodeLine(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		b, ok := encodeRune(r, size)
		if !ok {
			end := i + size
			for end < len(s) {
				r2, size2 := utf8.DecodeRuneInString(s[end:])
				if _, ok := encodeRune(r2, size2); ok {
					break
				}
				end += size2
			}
			return nil, &EncodingError{Text: s, Offending: s[i:end], Offset: i}
		}
		out = append(out, b)
		i += size
	}
	return out, nil
}

func encodeRune(r rune, size int) (byte, bool) {
	if r == utf8.RuneError && size <= 1 {
		return 0, false
	}
	if r < 0x20 || r == 0x7F {
		return 0, false
	}
	return codePage.EncodeRune(r)
}
