// plytool is a CLI utility for inspecting and converting splat containers.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/chewxy/math32"
	"github.com/urfave/cli/v2"

	"github.com/voxelia/splatview/pkg/export"
	"github.com/voxelia/splatview/pkg/formats"
	"github.com/voxelia/splatview/pkg/loader"
	"github.com/voxelia/splatview/pkg/math"
)

func main() {
	app := &cli.App{
		Name:  "plytool",
		Usage: "Inspect, summarize, and convert PLY splat and mesh containers",
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "Show container header layout and classification",
				ArgsUsage: "<file.ply>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "emit machine-readable JSON",
					},
				},
				Action: cmdInfo,
			},
			{
				Name:      "stats",
				Usage:     "Decode an asset and summarize its geometry",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-points",
						Usage: "cap decoded splat points (0 = unlimited)",
					},
				},
				Action: cmdStats,
			},
			{
				Name:      "export",
				Usage:     "Convert an asset to a binary PLY point cloud",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Usage:    "output PLY path",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-points",
						Usage: "cap decoded splat points (0 = unlimited)",
					},
				},
				Action: cmdExport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func inputFile(c *cli.Context) (string, []byte, error) {
	path := c.Args().First()
	if path == "" {
		return "", nil, fmt.Errorf("missing input file argument")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return path, data, nil
}

// infoReport is the JSON shape of the info command.
type infoReport struct {
	File           string          `json:"file"`
	Encoding       string          `json:"encoding"`
	RecordCount    int             `json:"record_count"`
	BytesPerRecord int             `json:"bytes_per_record"`
	DataStart      int             `json:"data_start"`
	Elements       []elementReport `json:"elements"`
	Classification classReport     `json:"classification"`
}

type elementReport struct {
	Name       string           `json:"name"`
	Count      int              `json:"count"`
	Properties []propertyReport `json:"properties"`
}

type propertyReport struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Offset int    `json:"offset,omitempty"`
	IsList bool   `json:"is_list,omitempty"`
}

type classReport struct {
	Kind                   string   `json:"kind"`
	HasColor               bool     `json:"has_color"`
	HasNormal              bool     `json:"has_normal"`
	MatchedSplatProperties []string `json:"matched_splat_properties,omitempty"`
}

func cmdInfo(c *cli.Context) error {
	path, data, err := inputFile(c)
	if err != nil {
		return err
	}

	layout, err := formats.ParseHeader(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	class := formats.Classify(layout)

	if c.Bool("json") {
		report := infoReport{
			File:           path,
			Encoding:       layout.Encoding.String(),
			RecordCount:    layout.RecordCount,
			BytesPerRecord: layout.BytesPerRecord,
			DataStart:      layout.DataStart,
			Classification: classReport{
				Kind:                   class.Kind.String(),
				HasColor:               class.HasColor,
				HasNormal:              class.HasNormal,
				MatchedSplatProperties: class.MatchedSplatProperties,
			},
		}
		for _, elem := range layout.Elements {
			er := elementReport{Name: elem.Name, Count: elem.Count}
			for _, p := range elem.Properties {
				er.Properties = append(er.Properties, propertyReport{
					Name:   p.Name,
					Type:   p.Type.String(),
					Offset: p.ByteOffset,
					IsList: p.IsList,
				})
			}
			report.Elements = append(report.Elements, er)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("File:      %s\n", path)
	fmt.Printf("Encoding:  %s\n", layout.Encoding)
	fmt.Printf("Payload:   %d records x %d bytes, data at offset %d\n",
		layout.RecordCount, layout.BytesPerRecord, layout.DataStart)
	fmt.Println()

	for _, elem := range layout.Elements {
		fmt.Printf("element %s (%d)\n", elem.Name, elem.Count)
		for _, p := range elem.Properties {
			if p.IsList {
				fmt.Printf("  %-16s list of %s\n", p.Name, p.Type)
				continue
			}
			fmt.Printf("  %-16s %-8s offset %d\n", p.Name, p.Type, p.ByteOffset)
		}
	}
	fmt.Println()

	fmt.Printf("Classified: %s\n", class.Kind)
	fmt.Printf("Color: %v  Normal: %v\n", class.HasColor, class.HasNormal)
	if len(class.MatchedSplatProperties) > 0 {
		fmt.Println("Matched splat properties:")
		for _, name := range class.MatchedSplatProperties {
			fmt.Printf("  %s\n", name)
		}
	}
	return nil
}

func cmdStats(c *cli.Context) error {
	path, data, err := inputFile(c)
	if err != nil {
		return err
	}

	res, err := loader.Load(data, path, loader.Options{MaxPoints: c.Int("max-points")})
	if err != nil {
		return err
	}
	if res.Warning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", res.Warning)
	}

	fmt.Printf("File: %s\n", res.Name)
	fmt.Printf("Kind: %s\n", res.Kind)

	switch res.Kind {
	case loader.ResultSplatCloud:
		printSplatStats(res.Splat)
	case loader.ResultMesh:
		printMeshStats(res.Mesh)
	case loader.ResultScene:
		if res.Scene.Mesh != nil {
			printMeshStats(res.Scene.Mesh)
		}
		if len(res.Scene.Animations) > 0 {
			fmt.Printf("Animations: %d\n", len(res.Scene.Animations))
		}
		if len(res.Scene.Cameras) > 0 {
			fmt.Printf("Cameras: %d\n", len(res.Scene.Cameras))
		}
	}
	return nil
}

func printSplatStats(cloud *formats.SplatCloud) {
	fmt.Printf("Points: %d\n", cloud.Count)
	if cloud.Count == 0 {
		return
	}

	min, max := cloud.Bounds()
	center := cloud.Center()
	fmt.Printf("Bounds min: (%.4f, %.4f, %.4f)\n", min[0], min[1], min[2])
	fmt.Printf("Bounds max: (%.4f, %.4f, %.4f)\n", max[0], max[1], max[2])
	fmt.Printf("Center:     (%.4f, %.4f, %.4f)\n", center[0], center[1], center[2])

	var opacitySum, scaleSum float64
	for _, o := range cloud.Opacities {
		opacitySum += float64(o)
	}
	for _, s := range cloud.Scales {
		scaleSum += float64(s)
	}
	fmt.Printf("Mean opacity: %.4f\n", opacitySum/float64(cloud.Count))
	fmt.Printf("Mean scale:   %.4f\n", scaleSum/float64(cloud.Count*3))
	fmt.Printf("Mean rotation: %.1f deg\n", meanRotationDeg(cloud))
}

// meanRotationDeg averages the rotation angle of each splat's orientation
// quaternion, in degrees.
func meanRotationDeg(cloud *formats.SplatCloud) float64 {
	var sum float64
	for i := 0; i < cloud.Count; i++ {
		q := math.Quat{
			W: cloud.Rotations[i*4+0],
			X: cloud.Rotations[i*4+1],
			Y: cloud.Rotations[i*4+2],
			Z: cloud.Rotations[i*4+3],
		}
		sum += float64(q.Angle())
	}
	return sum / float64(cloud.Count) * 180 / float64(math32.Pi)
}

func printMeshStats(mesh *formats.Mesh) {
	fmt.Printf("Vertices:  %d\n", mesh.VertexCount)
	fmt.Printf("Triangles: %d\n", len(mesh.Indices)/3)
	fmt.Printf("Vertex colors: %v\n", mesh.HasColor)
	if mesh.VertexCount > 0 {
		min, max := mesh.Bounds()
		fmt.Printf("Bounds min: (%.4f, %.4f, %.4f)\n", min[0], min[1], min[2])
		fmt.Printf("Bounds max: (%.4f, %.4f, %.4f)\n", max[0], max[1], max[2])
	}
}

func cmdExport(c *cli.Context) error {
	path, data, err := inputFile(c)
	if err != nil {
		return err
	}

	res, err := loader.Load(data, path, loader.Options{MaxPoints: c.Int("max-points")})
	if err != nil {
		return err
	}

	out, err := os.Create(c.String("out"))
	if err != nil {
		return err
	}
	defer out.Close()

	switch res.Kind {
	case loader.ResultSplatCloud:
		err = export.SplatToPLY(out, res.Splat)
	case loader.ResultMesh:
		err = export.MeshToPLY(out, res.Mesh)
	case loader.ResultScene:
		err = export.MeshToPLY(out, res.Scene.Mesh)
	default:
		err = fmt.Errorf("nothing exportable in %s", res.Name)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", c.String("out"))
	return nil
}
