package staticfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var errUnterminatedFrontMatter = errors.New("front matter block is not terminated")

// DefaultFormats returns the front matter strategies tried in order. The
// strategy is selected by the first non-empty line of the file.
func DefaultFormats() []*frontmatter.Format {
	return []*frontmatter.Format{
		frontmatter.NewFormat("---", "---", yaml.Unmarshal),
		frontmatter.NewFormat("---yaml", "---", yaml.Unmarshal),
		frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
		frontmatter.NewFormat("---toml", "---", toml.Unmarshal),
		frontmatter.NewFormat(";;;", ";;;", json.Unmarshal),
		frontmatter.NewFormat("---json", "---", json.Unmarshal),
		{Start: "{", End: "}", Unmarshal: json.Unmarshal, UnmarshalDelims: true, RequiresNewLine: true},
	}
}

// splitFrontMatter decodes the header into a generic map and returns the
// remaining body. Sources without a header decode to an empty map.
func splitFrontMatter(source []byte, formats []*frontmatter.Format) (map[string]any, []byte, error) {
	raw := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(source), &raw, formats...)
	if err != nil {
		return nil, nil, err
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if len(raw) == 0 && opensFrontMatter(body, formats) {
		return nil, nil, errUnterminatedFrontMatter
	}
	return raw, body, nil
}

// opensFrontMatter reports whether body still starts with a delimiter line,
// which only happens when the closing delimiter was never found.
func opensFrontMatter(body []byte, formats []*frontmatter.Format) bool {
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, f := range formats {
			if f.Start == line && !f.UnmarshalDelims {
				return true
			}
		}
		return false
	}
	return false
}

func describeFrontMatterError(err error) string {
	if errors.Is(err, errUnterminatedFrontMatter) {
		return "Front matter block is not terminated"
	}
	return fmt.Sprintf("Could not parse front matter: %v", err)
}
