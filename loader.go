package tracelog

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/lixenwraith/config"
	"gopkg.in/yaml.v3"
)

// fileSection is the table or mapping that holds listener settings in a file
const fileSection = "tracelog"

// fileSettings describes the keys recognized in TOML settings files.
// Keys carry the same meaning as in the initialization string.
type fileSettings struct {
	Init                        string `toml:"init"`
	Filename                    string `toml:"filename"`
	MaxFileSize                 string `toml:"max_file_size"`
	LogSizeOverAction           string `toml:"log_size_over_action"`
	SavedLogPercents            int64  `toml:"saved_log_percents"`
	MaxRenamedFiles             int64  `toml:"max_renamed_files"`
	Encoding                    string `toml:"encoding"`
	LinePrefix                  string `toml:"line_prefix"`
	TimeRouteFilenamePattern    string `toml:"time_route_filename_pattern"`
	TimeRotationFilenamePattern string `toml:"time_rotation_filename_pattern"`
	TimeStampFormat             string `toml:"time_stamp_format"`
	AutoFlush                   bool   `toml:"auto_flush"`
	CleanupOlderThan            string `toml:"cleanup_older_than"`
	DiagnosticLog               string `toml:"diagnostic_log"`
}

// defaultFileSettings mirrors DefaultSettings so unset keys leave defaults alone
var defaultFileSettings = fileSettings{
	SavedLogPercents: defaultSavedPercent,
	MaxRenamedFiles:  defaultMaxRenamedFiles,
}

// LoadSettings reads listener settings from a file. The format follows the
// extension: .toml, .yaml, .yml or .json hold keys under a "tracelog"
// section (or at the top level for YAML and JSON), anything else is read as
// a raw initialization string. An "init" key provides a base
// initialization string that the other keys override.
func LoadSettings(path string) (Settings, error) {
	var (
		pairs [][2]string
		err   error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		pairs, err = loadTOML(path)
	case ".yaml", ".yml":
		pairs, err = loadMapped(path, yaml.Unmarshal)
	case ".json":
		pairs, err = loadMapped(path, json.Unmarshal)
	default:
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return DefaultSettings(), fmtErrorf("failed to read settings file '%s': %w", path, rerr)
		}
		return ParseSettings(strings.TrimSpace(string(data))), nil
	}
	if err != nil {
		return DefaultSettings(), err
	}

	return settingsFromPairs(pairs), nil
}

// settingsFromPairs applies pairs over the optional init base. Invalid
// values are skipped like in ParseSettings.
func settingsFromPairs(pairs [][2]string) Settings {
	s := DefaultSettings()
	var rest [][2]string
	for _, kv := range pairs {
		if normalizeKey(kv[0]) == "init" {
			s = ParseSettings(kv[1])
			continue
		}
		rest = append(rest, kv)
	}
	_ = applyPairs(&s, rest)
	return s
}

// loadTOML reads the tracelog table through the config loader
func loadTOML(path string) ([][2]string, error) {
	loader := config.New()

	if err := loader.RegisterStruct(fileSection+".", defaultFileSettings); err != nil {
		return nil, fmtErrorf("failed to register settings struct: %w", err)
	}

	if err := loader.Load(path, nil); err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmtErrorf("settings file '%s' not found: %w", path, err)
		}
		return nil, fmtErrorf("failed to load settings from '%s': %w", path, err)
	}

	return extractPairs(loader, fileSection+".")
}

// extractPairs reads every tagged fileSettings key from the loader. Values
// equal to their defaults are skipped.
func extractPairs(loader *config.Config, prefix string) ([][2]string, error) {
	defaults := reflect.ValueOf(defaultFileSettings)
	t := defaults.Type()

	var pairs [][2]string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("toml")
		if tag == "" {
			continue
		}

		val, found := loader.Get(prefix + tag)
		if !found || val == nil {
			continue
		}
		if reflect.DeepEqual(val, defaults.Field(i).Interface()) {
			continue
		}

		str, err := stringify(val)
		if err != nil {
			return nil, fmtErrorf("invalid value for '%s': %w", tag, err)
		}
		if str == "" {
			continue
		}
		pairs = append(pairs, [2]string{tag, str})
	}
	return pairs, nil
}

// loadMapped decodes a YAML or JSON document into key-value pairs
func loadMapped(path string, unmarshal func([]byte, any) error) ([][2]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmtErrorf("failed to read settings file '%s': %w", path, err)
	}

	var doc map[string]any
	if err := unmarshal(data, &doc); err != nil {
		return nil, fmtErrorf("failed to parse settings file '%s': %w", path, err)
	}
	if section, ok := doc[fileSection].(map[string]any); ok {
		doc = section
	}

	// Sorted for a stable application order
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([][2]string, 0, len(keys))
	for _, k := range keys {
		str, err := stringify(doc[k])
		if err != nil {
			return nil, fmtErrorf("invalid value for '%s': %w", k, err)
		}
		pairs = append(pairs, [2]string{k, str})
	}
	return pairs, nil
}

// stringify renders a decoded scalar in initialization string form
func stringify(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return strconv.FormatInt(int64(val), 10), nil
		}
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		return "", fmt.Errorf("unsupported type %T", v)
	}
}
