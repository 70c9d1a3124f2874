package printer

import (
	"errors"
	"fmt"
)

// ErrMalformedStream is returned by DecodeText for bytes that are not a
// stream Document could have produced.
var ErrMalformedStream = errors.New("printer: malformed ESC/POS stream")

// DecodeText extracts the printed text lines from an ESC/POS stream, dropping
// every control sequence. It understands only the commands Document emits.
func DecodeText(data []byte) ([]string, error) {
	var lines []string
	var cur []rune

	for i := 0; i < len(data); {
		switch b := data[i]; b {
		case LF:
			lines = append(lines, string(cur))
			cur = cur[:0]
			i++
		case ESC:
			n, err := escLength(data, i)
			if err != nil {
				return nil, err
			}
			i += n
		case GS:
			if i+2 >= len(data) {
				return nil, fmt.Errorf("%w: truncated GS sequence at %d", ErrMalformedStream, i)
			}
			switch data[i+1] {
			case CmdCharSize, CmdCut:
				i += 3
			default:
				return nil, fmt.Errorf("%w: unknown GS command 0x%02x at %d", ErrMalformedStream, data[i+1], i)
			}
		default:
			cur = append(cur, codePage.DecodeByte(b))
			i++
		}
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines, nil
}

func escLength(data []byte, i int) (int, error) {
	if i+1 >= len(data) {
		return 0, fmt.Errorf("%w: truncated ESC sequence at %d", ErrMalformedStream, i)
	}
	switch data[i+1] {
	case CmdInitialize:
		return 2, nil
	case CmdCodePage, CmdAlign, CmdEmphasis:
		if i+2 >= len(data) {
			return 0, fmt.Errorf("%w: truncated ESC sequence at %d", ErrMalformedStream, i)
		}
		return 3, nil
	}
	return 0, fmt.Errorf("%w: unknown ESC command 0x%02x at %d", ErrMalformedStream, data[i+1], i)
}
