package dashboard

import (
	"net/url"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// Preset is a built-in dataset source.
type Preset struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DefaultPresets returns the public World Happiness Report mirrors.
func DefaultPresets() []Preset {
	return []Preset{
		{
			Name: "World Happiness Report 2021",
			URL:  "https://raw.githubusercontent.com/datahub-project/datahub/main/metadata-ingestion/examples/data_examples/kaggle/world-happiness-report-2021.csv",
		},
		{
			Name: "World Happiness Report 2019",
			URL:  "https://raw.githubusercontent.com/datahub-project/datahub/main/metadata-ingestion/examples/data_examples/kaggle/world-happiness-report-2019.csv",
		},
	}
}

// Format is a hint about the kind of file a source URL points at.
type Format string

const (
	FormatCSV     Format = "CSV"
	FormatJSON    Format = "JSON"
	FormatUnknown Format = "unknown"
)

// DetectFormat guesses the format from the URL path suffix. It is a display
// hint only; the backend decides whether the source is usable.
func DetectFormat(source string) Format {
	p := source
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// NormalizeSource trims surrounding whitespace from a user-supplied URL.
func NormalizeSource(raw string) string {
	return strings.TrimSpace(raw)
}

// Selector holds the free-text source and the preset list, and emits the
// chosen URL through onChange.
type Selector struct {
	presets  []Preset
	value    string
	onChange func(string)
}

// NewSelector returns a selector over presets. onChange receives every
// chosen URL.
func NewSelector(presets []Preset, onChange func(string)) *Selector {
	if onChange == nil {
		onChange = func(string) {}
	}
	return &Selector{presets: presets, onChange: onChange}
}

// Presets returns the configured presets.
func (s *Selector) Presets() []Preset { return s.presets }

// Value returns the last URL the selector emitted.
func (s *Selector) Value() string { return s.value }

// Submit emits raw after trimming. Blank input is ignored and reported as false.
func (s *Selector) Submit(raw string) bool {
	src := NormalizeSource(raw)
	if src == "" {
		return false
	}
	s.value = src
	s.onChange(src)
	return true
}

// Choose emits the URL of the preset at index i.
func (s *Selector) Choose(i int) error {
	if i < 0 || i >= len(s.presets) {
		return eris.Errorf("preset index %d out of range [0,%d)", i, len(s.presets))
	}
	s.value = s.presets[i].URL
	s.onChange(s.value)
	return nil
}
