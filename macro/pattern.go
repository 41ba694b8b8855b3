package macro

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lestrrat-go/strftime"
)

// legacyMarker wraps patterns written for older configurations, it carries no meaning
const legacyMarker = "^"

// Pattern formats a time value into a filename or timestamp fragment.
// Patterns containing '%' are strftime patterns, anything else is a Go reference layout.
type Pattern struct {
	raw    string
	sf     *strftime.Strftime
	layout string
}

// NewPattern compiles a time pattern, stripping legacy ^...^ markers
func NewPattern(pattern string) (*Pattern, error) {
	p := stripMarkers(strings.TrimSpace(pattern))
	if p == "" {
		return nil, fmt.Errorf("macro: empty time pattern")
	}

	if strings.Contains(p, "%") {
		sf, err := strftime.New(p)
		if err != nil {
			return nil, fmt.Errorf("macro: invalid strftime pattern '%s': %w", p, err)
		}
		return &Pattern{raw: p, sf: sf}, nil
	}

	return &Pattern{raw: p, layout: p}, nil
}

// MustPattern is NewPattern that panics on error, for static patterns
func MustPattern(pattern string) *Pattern {
	p, err := NewPattern(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Format renders t with the pattern
func (p *Pattern) Format(t time.Time) string {
	if p == nil {
		return ""
	}
	if p.sf != nil {
		return p.sf.FormatString(t)
	}
	return t.Format(p.layout)
}

// AppendFormat appends the rendered time to b
func (p *Pattern) AppendFormat(b []byte, t time.Time) []byte {
	if p == nil {
		return b
	}
	if p.sf != nil {
		return append(b, p.sf.FormatString(t)...)
	}
	return t.AppendFormat(b, p.layout)
}

// Width returns the rune width of the pattern rendered at t
func (p *Pattern) Width(t time.Time) int {
	return utf8.RuneCountInString(p.Format(t))
}

// String returns the pattern after marker stripping
func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.raw
}

func stripMarkers(p string) string {
	if len(p) >= 2 && strings.HasPrefix(p, legacyMarker) && strings.HasSuffix(p, legacyMarker) {
		return p[1 : len(p)-1]
	}
	return p
}
