// Package formatter composes trace lines from a prefix, an optional timestamp,
// indentation and the message body.
package formatter

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/lixenwraith/tracelog/macro"
)

// DefaultTimestampFormat is used when no timestamp pattern is configured
const DefaultTimestampFormat = "2006-01-02 15:04:05.000"

// DefaultIndentSize is the number of spaces per indent level
const DefaultIndentSize = 4

// dumper renders composite values in a compact, deterministic form
var dumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Formatter manages the buffered composition of trace lines. Not safe for
// concurrent use, the owning listener serializes access.
type Formatter struct {
	timestamp     *macro.Pattern
	showTimestamp bool
	indentSize    int
	buf           []byte
}

// New creates a formatter with the default timestamp layout and indent size
func New() *Formatter {
	return &Formatter{
		timestamp:     macro.MustPattern(DefaultTimestampFormat),
		showTimestamp: true,
		indentSize:    DefaultIndentSize,
		buf:           make([]byte, 0, 1024),
	}
}

// TimestampFormat sets the timestamp pattern, strftime or Go layout.
// Invalid or empty patterns keep the current one.
func (f *Formatter) TimestampFormat(format string) *Formatter {
	if p, err := macro.NewPattern(format); err == nil {
		f.timestamp = p
	}
	return f
}

// ShowTimestamp sets whether lines carry a timestamp prefix
func (f *Formatter) ShowTimestamp(show bool) *Formatter {
	f.showTimestamp = show
	return f
}

// IndentSize sets the number of spaces per indent level, negative values are ignored
func (f *Formatter) IndentSize(size int) *Formatter {
	if size >= 0 {
		f.indentSize = size
	}
	return f
}

// GetIndentSize returns the number of spaces per indent level
func (f *Formatter) GetIndentSize() int {
	return f.indentSize
}

// Line composes prefix, timestamp, indentation and message. The returned slice
// is reused by the next call.
func (f *Formatter) Line(prefix string, timestamp time.Time, indentLevel int, message string) []byte {
	f.Reset()

	f.buf = append(f.buf, prefix...)

	if f.showTimestamp && !timestamp.IsZero() {
		f.buf = f.timestamp.AppendFormat(f.buf, timestamp)
		f.buf = append(f.buf, ' ')
	}

	for i := 0; i < indentLevel*f.indentSize; i++ {
		f.buf = append(f.buf, ' ')
	}

	f.buf = append(f.buf, message...)
	return f.buf
}

// Reset clears the formatter buffer for reuse
func (f *Formatter) Reset() {
	f.buf = f.buf[:0]
}

// FormatValue converts any value to its trace representation.
// Types without a natural string form are dumped with go-spew.
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return "nil"
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	case []byte:
		return hex.EncodeToString(val)
	default:
		var b bytes.Buffer
		dumper.Fdump(&b, val)
		return string(bytes.TrimSpace(b.Bytes()))
	}
}
