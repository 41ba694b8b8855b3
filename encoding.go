package tracelog

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// lookupEncoder returns the encoder for a named character set. UTF-8 and the
// empty name return nil, lines are then written unchanged.
func lookupEncoder(name string) (*encoding.Encoder, error) {
	name = strings.TrimSpace(name)
	switch strings.ToLower(strings.ReplaceAll(name, "-", "")) {
	case "", "utf8":
		return nil, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		enc, err = ianaindex.IANA.Encoding(name)
		if err != nil || enc == nil {
			return nil, fmtErrorf("unknown encoding '%s'", name)
		}
	}
	if enc == encoding.Nop {
		return nil, nil
	}
	return encoding.ReplaceUnsupported(enc.NewEncoder()), nil
}

// encodeLine converts a composed line to the file encoding
func encodeLine(enc *encoding.Encoder, line []byte) ([]byte, error) {
	if enc == nil {
		return line, nil
	}
	out, err := enc.Bytes(line)
	if err != nil {
		return nil, fmtErrorf("failed to encode line: %w", err)
	}
	return out, nil
}
