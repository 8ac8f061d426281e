// Heuristic classifier deciding whether a PLY container holds a surface
// mesh or a Gaussian-splat point cloud.
package formats

import (
	"regexp"
	"sort"
	"strings"
)

// Kind is the classified content of a PLY container.
type Kind int

const (
	KindMesh Kind = iota
	KindSplat
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindSplat:
		return "splat"
	default:
		return "mesh"
	}
}

// Splat-indicative property patterns. Decisive patterns classify a file as
// a splat cloud on their own; diagnostic patterns are only recorded. Splat
// containers using nonstandard names will be misclassified as mesh; that is
// a known limit of the heuristic, not something to guess around.
var (
	decisiveSplatPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^opacity$`),
		regexp.MustCompile(`^scale_[0-9]+$`),
		regexp.MustCompile(`^rot_[0-9]+$`),
		regexp.MustCompile(`^f_dc_[0-9]+$`),
	}
	diagnosticSplatPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^f_rest_[0-9]+$`),
		regexp.MustCompile(`^sh_[0-9]+$`),
	}
)

// Classification is the result of inspecting a container's vertex
// properties. It is derived per file and never persisted.
type Classification struct {
	Kind        Kind
	RecordCount int
	HasColor    bool
	HasNormal   bool

	// MatchedSplatProperties lists every property name that matched a
	// splat pattern, decisive or diagnostic, sorted for stable output.
	MatchedSplatProperties []string
}

// Classify inspects a parsed layout's vertex property names and decides
// mesh vs splat.
func Classify(layout *ContainerLayout) Classification {
	c := Classification{
		Kind:        KindMesh,
		RecordCount: layout.RecordCount,
	}

	matched := make(map[string]bool)
	names := layout.PropertyNames()

	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		for _, re := range decisiveSplatPatterns {
			if re.MatchString(name) {
				c.Kind = KindSplat
				matched[name] = true
			}
		}
		for _, re := range diagnosticSplatPatterns {
			if re.MatchString(name) {
				matched[name] = true
			}
		}
	}

	c.HasColor = layout.HasProperty("red") && layout.HasProperty("green") && layout.HasProperty("blue")
	c.HasNormal = layout.HasProperty("nx") && layout.HasProperty("ny") && layout.HasProperty("nz")

	for name := range matched {
		c.MatchedSplatProperties = append(c.MatchedSplatProperties, name)
	}
	sort.Strings(c.MatchedSplatProperties)

	return c
}

// ClassifyBytes parses the header and classifies in one step.
func ClassifyBytes(data []byte) (Classification, error) {
	layout, err := ParseHeader(data)
	if err != nil {
		return Classification{}, err
	}
	return Classify(layout), nil
}
