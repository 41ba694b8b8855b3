package tracelog

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors observed by diagnostics
var (
	ErrNoFilename = errors.New("tracelog: no filename configured")
	ErrClosed     = errors.New("tracelog: listener is closed")
	ErrNotOpen    = errors.New("tracelog: no open trace file")
)

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "tracelog: ") {
		format = "tracelog: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// parseKeyValue splits a "key=value" token.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid token '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in token '%s'", arg)
	}
	return key, value, nil
}

// splitInitString splits on ';' and ','. A fragment without '=' that follows
// a ',' continues the preceding key=value token, so "LinePrefix=a,b" keeps its
// comma. After a ';' such a fragment stays a token of its own.
func splitInitString(init string) []string {
	var tokens []string
	delim := byte(';')
	start := 0
	for i := 0; i <= len(init); i++ {
		if i < len(init) && init[i] != ';' && init[i] != ',' {
			continue
		}
		fragment := init[start:i]
		if strings.TrimSpace(fragment) != "" {
			n := len(tokens)
			if delim == ',' && n > 0 && !strings.Contains(fragment, "=") && strings.Contains(tokens[n-1], "=") {
				tokens[n-1] += "," + fragment
			} else {
				tokens = append(tokens, fragment)
			}
		}
		if i < len(init) {
			delim = init[i]
		}
		start = i + 1
	}
	return tokens
}

// SplitInit separates an initialization string into its file name and its
// trimmed settings tokens. The file name is empty when the first token is a
// key=value pair. Tokens are returned as written, malformed ones included.
func SplitInit(init string) (string, []string) {
	tokens := splitInitString(init)
	if len(tokens) == 0 {
		return "", nil
	}

	filename := strings.TrimSpace(tokens[0])
	rest := tokens[1:]
	if strings.Contains(filename, "=") {
		filename = ""
		rest = tokens
	}

	pairs := make([]string, 0, len(rest))
	for _, token := range rest {
		if token = strings.TrimSpace(token); token != "" {
			pairs = append(pairs, token)
		}
	}
	return filename, pairs
}

// normalizeKey folds a configuration key so that "MaxFileSize",
// "max_file_size" and "max-file-size" compare equal
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
}
