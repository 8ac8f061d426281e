// Package loader routes asset bytes to the right decoder based on
// filename extension and, for ambiguous point containers, header
// classification, and normalizes every outcome into one Result shape.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"

	"github.com/voxelia/splatview/pkg/formats"
)

// ErrUnsupportedFormat is returned when neither the filename extension nor
// the file content maps to a known decoder.
var ErrUnsupportedFormat = errors.New("loader: unsupported asset format")

// Format tags the container family of an asset file.
type Format int

const (
	FormatUnknown Format = iota
	FormatScene           // glTF / GLB scene interchange
	FormatPointContainer  // PLY: mesh or splat, decided by classification
	FormatCompressedSplat // SOG compact splat container
)

// String returns a short format tag name.
func (f Format) String() string {
	switch f {
	case FormatScene:
		return "scene"
	case FormatPointContainer:
		return "point-container"
	case FormatCompressedSplat:
		return "compressed-splat"
	default:
		return "unknown"
	}
}

// ResultKind is the normalized kind of a successful load.
type ResultKind int

const (
	ResultUnsupported ResultKind = iota
	ResultScene
	ResultMesh
	ResultSplatCloud
)

// String returns a human-readable result kind.
func (k ResultKind) String() string {
	switch k {
	case ResultScene:
		return "scene-graph"
	case ResultMesh:
		return "mesh"
	case ResultSplatCloud:
		return "splat-cloud"
	default:
		return "unsupported"
	}
}

// Result is the normalized outcome of loading one asset. Exactly one of
// Splat, Mesh, Scene is non-nil, matching Kind. Ownership of the decoded
// buffers transfers to the caller, which disposes any GPU resources built
// from them when the asset is replaced.
type Result struct {
	Kind ResultKind
	Name string

	Splat *formats.SplatCloud
	Mesh  *formats.Mesh
	Scene *SceneAsset

	// Classification is set for point containers, for diagnostics.
	Classification *formats.Classification

	// Warning carries non-fatal load notes (e.g. stubbed decoders).
	Warning string
}

// Options controls loading.
type Options struct {
	// MaxPoints caps decoded splat points; 0 means no cap.
	MaxPoints int
}

// Content sniffing for files arriving without a usable extension.
// Registered once; Detect stays a pure function of its inputs.
func init() {
	plyType := filetype.NewType("ply", "model/x-ply")
	filetype.AddMatcher(plyType, func(buf []byte) bool {
		return len(buf) >= 4 && string(buf[:3]) == "ply" &&
			(buf[3] == '\n' || buf[3] == '\r')
	})
	glbType := filetype.NewType("glb", "model/gltf-binary")
	filetype.AddMatcher(glbType, func(buf []byte) bool {
		return len(buf) >= 4 && string(buf[:4]) == "glTF"
	})
}

// Detect maps a filename (and optionally its content) to a Format. It is
// deterministic and keeps no state: repeated calls on the same inputs
// return the same tag.
func Detect(filename string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".glb", ".gltf":
		return FormatScene
	case ".ply":
		return FormatPointContainer
	case ".sog":
		return FormatCompressedSplat
	}

	if len(data) == 0 {
		return FormatUnknown
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return FormatUnknown
	}
	switch kind.Extension {
	case "glb":
		return FormatScene
	case "ply":
		return FormatPointContainer
	}
	return FormatUnknown
}

// Load decodes asset bytes according to the detected format and funnels
// the outcome into a Result. All decode errors surface to the caller;
// nothing is retried.
func Load(data []byte, filename string, opts Options) (*Result, error) {
	name := filepath.Base(filename)

	switch Detect(filename, data) {
	case FormatScene:
		scene, err := DecodeScene(data)
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", name, err)
		}
		return &Result{Kind: ResultScene, Name: name, Scene: scene}, nil

	case FormatPointContainer:
		return loadPointContainer(data, name, opts)

	case FormatCompressedSplat:
		cloud, err := formats.DecodeSOG(data)
		if err != nil {
			return nil, fmt.Errorf("sog %s: %w", name, err)
		}
		return &Result{
			Kind:    ResultSplatCloud,
			Name:    name,
			Splat:   cloud,
			Warning: "compressed splat containers are not decoded yet; loaded an empty point set",
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

func loadPointContainer(data []byte, name string, opts Options) (*Result, error) {
	layout, err := formats.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("point container %s: %w", name, err)
	}

	class := formats.Classify(layout)

	if class.Kind == formats.KindSplat {
		cloud, err := formats.DecodeSplat(data, layout, formats.SplatOptions{MaxPoints: opts.MaxPoints})
		if err != nil {
			return nil, fmt.Errorf("splat %s: %w", name, err)
		}
		return &Result{
			Kind:           ResultSplatCloud,
			Name:           name,
			Splat:          cloud,
			Classification: &class,
		}, nil
	}

	mesh, err := formats.DecodeMesh(data, layout)
	if err != nil {
		return nil, fmt.Errorf("mesh %s: %w", name, err)
	}
	return &Result{
		Kind:           ResultMesh,
		Name:           name,
		Mesh:           mesh,
		Classification: &class,
	}, nil
}
