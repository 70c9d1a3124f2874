package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var header = []byte{ESC, CmdInitialize, ESC, CmdCodePage, CodePagePC437}

func TestNewDocumentInitializes(t *testing.T) {
	out, err := NewDocument(Columns58mm).Cut().Finalize()
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, header...), GS, CmdCut, CutFull), out)
}

func TestDirectiveOpcodes(t *testing.T) {
	tests := []struct {
		name  string
		apply func(d *Document)
		want  []byte
	}{
		{"align left", func(d *Document) { d.AlignLeft() }, []byte{ESC, 'a', 0}},
		{"align center", func(d *Document) { d.AlignCenter() }, []byte{ESC, 'a', 1}},
		{"align right", func(d *Document) { d.AlignRight() }, []byte{ESC, 'a', 2}},
		{"bold on", func(d *Document) { d.SetBold(true) }, []byte{ESC, 'E', 1}},
		{"bold off", func(d *Document) { d.SetBold(false) }, []byte{ESC, 'E', 0}},
		{"scale 1x1", func(d *Document) { d.SetCharacterScale(1, 1) }, []byte{GS, '!', 0x00}},
		{"scale 2x1", func(d *Document) { d.SetCharacterScale(2, 1) }, []byte{GS, '!', 0x10}},
		{"scale 1x2", func(d *Document) { d.SetCharacterScale(1, 2) }, []byte{GS, '!', 0x01}},
		{"scale 2x2", func(d *Document) { d.SetCharacterScale(2, 2) }, []byte{GS, '!', 0x11}},
		{"feed 3", func(d *Document) { d.FeedLines(3) }, []byte{LF, LF, LF}},
		{"feed 0", func(d *Document) { d.FeedLines(0) }, []byte{}},
		{"text", func(d *Document) { d.Text("Hi") }, []byte{'H', 'i', LF}},
		{"partial cut", func(d *Document) { d.PartialCut() }, []byte{GS, 'V', 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDocument(Columns58mm)
			tt.apply(d)
			if !d.cut {
				d.Cut()
			}
			out, err := d.Finalize()
			require.NoError(t, err)

			body := bytes.TrimPrefix(out, header)
			if tt.name != "partial cut" {
				body = bytes.TrimSuffix(body, []byte{GS, CmdCut, CutFull})
			}
			assert.Equal(t, tt.want, body)
		})
	}
}

func TestModesAreAlwaysEmitted(t *testing.T) {
	d := NewDocument(Columns58mm).SetBold(true).SetBold(true).AlignCenter().AlignCenter()
	assert.True(t, d.Bold())
	assert.Equal(t, AlignCenter, d.Alignment())

	out, err := d.Cut().Finalize()
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(out, []byte{ESC, CmdEmphasis, 1}))
	assert.Equal(t, 2, bytes.Count(out, []byte{ESC, CmdAlign, byte(AlignCenter)}))
}

func TestInvalidScaleIsSticky(t *testing.T) {
	d := NewDocument(Columns58mm).SetCharacterScale(3, 1).Text("ignored").Cut()
	_, err := d.Finalize()
	assert.ErrorIs(t, err, ErrInvalidScale)

	_, err = NewDocument(Columns58mm).SetCharacterScale(1, 0).Cut().Finalize()
	assert.ErrorIs(t, err, ErrInvalidScale)
}

func TestSeparatorWidth(t *testing.T) {
	for _, cols := range []int{Columns58mm, Columns80mm} {
		out, err := NewDocument(cols).Separator('-').Cut().Finalize()
		require.NoError(t, err)
		lines, err := DecodeText(out)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, strings.Repeat("-", cols), lines[0])
	}
}

func TestSeparatorHonoursDoubleWidth(t *testing.T) {
	d := NewDocument(Columns58mm).SetCharacterScale(2, 2)
	assert.Equal(t, 16, d.Columns())

	out, err := d.Separator('=').Cut().Finalize()
	require.NoError(t, err)
	lines, err := DecodeText(out)
	require.NoError(t, err)
	assert.Equal(t, []string{strings.Repeat("=", 16)}, lines)
}

func TestKeyValueAndItemLineFillWidth(t *testing.T) {
	out, err := NewDocument(Columns58mm).
		KeyValue("Subtotal:", "650.00").
		ItemLine(2, "Paneer Tikka", "500.00").
		FeedLines(3).
		Cut().
		Finalize()
	require.NoError(t, err)

	lines, err := DecodeText(out)
	require.NoError(t, err)
	require.Len(t, lines, 5)
	assert.Equal(t, "Subtotal:                 650.00", lines[0])
	assert.Equal(t, "2x Paneer Tikka           500.00", lines[1])
	assert.Len(t, lines[0], Columns58mm)
	assert.Len(t, lines[1], Columns58mm)
}

func TestKeyValueKeepsOneSpaceWhenTooLong(t *testing.T) {
	out, err := NewDocument(10).KeyValue("Grand Total:", "692.50").Cut().Finalize()
	require.NoError(t, err)
	lines, err := DecodeText(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Grand Total: 692.50"}, lines)
}

func TestEncodingErrorNamesOffendingText(t *testing.T) {
	d := NewDocument(Columns58mm).Text("Paneer ₹250").Cut()
	_, err := d.Finalize()

	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "₹", encErr.Offending)
	assert.Equal(t, 7, encErr.Offset)
	assert.Equal(t, "Paneer ₹250", encErr.Text)
}

func TestEncodingErrorSpansRun(t *testing.T) {
	_, err := NewDocument(Columns58mm).Text("Dal 日本語 Fry").Cut().Finalize()

	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "日本語", encErr.Offending)
	assert.Equal(t, 4, encErr.Offset)
}

func TestEncodingRejectsControlCharacters(t *testing.T) {
	for _, s := range []string{"evil\x1bE\x01", "tab\there", "bell\a", "nl\n", "\xff"} {
		_, err := NewDocument(Columns58mm).Text(s).Cut().Finalize()
		var encErr *EncodingError
		assert.ErrorAs(t, err, &encErr, "%q", s)
	}
}

func TestEncodesCP437Characters(t *testing.T) {
	out, err := NewDocument(Columns58mm).Text("Café ½").Cut().Finalize()
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, []byte{'C', 'a', 'f', 0x82, ' ', 0xAB, LF}))

	lines, err := DecodeText(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Café ½"}, lines)
}

func TestNegativeFeed(t *testing.T) {
	_, err := NewDocument(Columns58mm).FeedLines(-1).Cut().Finalize()
	assert.ErrorIs(t, err, ErrNegativeFeed)
}

func TestCutMustBeLast(t *testing.T) {
	_, err := NewDocument(Columns58mm).Cut().Text("after").Finalize()
	assert.ErrorIs(t, err, ErrAfterCut)

	_, err = NewDocument(Columns58mm).Cut().PartialCut().Finalize()
	assert.ErrorIs(t, err, ErrAfterCut)
}

func TestFinalizeRequiresCut(t *testing.T) {
	_, err := NewDocument(Columns58mm).Text("no cut").Finalize()
	assert.ErrorIs(t, err, ErrMissingCut)
}

func TestFinalizeOnce(t *testing.T) {
	d := NewDocument(Columns58mm).Text("once").FeedLines(3).Cut()
	_, err := d.Finalize()
	require.NoError(t, err)

	_, err = d.Finalize()
	assert.ErrorIs(t, err, ErrFinalized)

	d.Text("more")
	assert.ErrorIs(t, d.Err(), ErrFinalized)
}

func TestCrampedCut(t *testing.T) {
	cramped := NewDocument(Columns58mm).Text("last line").Cut()
	assert.True(t, cramped.CrampedCut())

	fed := NewDocument(Columns58mm).Text("last line").FeedLines(3).Cut()
	assert.False(t, fed.CrampedCut())

	// Mode changes between the feed and the cut do not print anything.
	modal := NewDocument(Columns58mm).Text("x").FeedLines(2).SetBold(false).Cut()
	assert.False(t, modal.CrampedCut())
}

func TestBuildIsDeterministic(t *testing.T) {
	build := func() []byte {
		out, err := NewDocument(Columns80mm).
			AlignCenter().SetBold(true).SetCharacterScale(2, 2).Text("SPICE GARDEN").
			SetCharacterScale(1, 1).SetBold(false).Text("MG Road").
			AlignLeft().Separator('-').
			ItemLine(2, "Paneer Tikka", "500.00").
			ItemLine(3, "Butter Naan", "150.00").
			Separator('-').
			KeyValue("Grand Total:", "692.50").
			FeedLines(4).PartialCut().
			Finalize()
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, build(), build())
}

func TestDecodeTextRejectsUnknownCommands(t *testing.T) {
	_, err := DecodeText([]byte{ESC, 'Z', 0})
	assert.ErrorIs(t, err, ErrMalformedStream)

	_, err = DecodeText([]byte{GS, CmdCut})
	assert.ErrorIs(t, err, ErrMalformedStream)

	_, err = DecodeText([]byte{'a', ESC})
	assert.ErrorIs(t, err, ErrMalformedStream)
}
