package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/config"
	"github.com/binzume/bvhkit/converter"
	"github.com/binzume/bvhkit/plotting"
	"github.com/binzume/bvhkit/pose"
	"github.com/binzume/bvhkit/render"
)

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// saveCSV writes positions to output plus _rot and _hierarchy siblings.
func saveCSV(m *bvh.Motion, output string, conf *config.Config) error {
	base := output[0 : len(output)-len(filepath.Ext(output))]
	opt := &converter.CSVOption{EndSites: conf.EndSites}
	if err := writeFile(output, func(w io.Writer) error { return converter.WritePositionsCSV(w, m, opt) }); err != nil {
		return err
	}
	if err := writeFile(base+"_rot.csv", func(w io.Writer) error { return converter.WriteRotationsCSV(w, m) }); err != nil {
		return err
	}
	return writeFile(base+"_hierarchy.csv", func(w io.Writer) error { return converter.WriteHierarchyCSV(w, m.Skeleton, opt) })
}

func saveImage(m *bvh.Motion, output string, frame int, conf *config.Config) error {
	p, err := pose.ResolveFrame(m, frame)
	if err != nil {
		return err
	}
	img := render.Preview(p, &render.PreviewOption{
		Width:       conf.Preview.Width,
		Height:      conf.Preview.Height,
		Supersample: conf.Preview.Supersample,
		Camera:      render.Camera{Yaw: conf.Preview.Yaw, Pitch: conf.Preview.Pitch},
	})
	return writeFile(output, func(w io.Writer) error { return render.EncodeImage(w, img, render.FormatFromPath(output)) })
}

func savePlot(m *bvh.Motion, joint, output string) error {
	p, err := plotting.ChannelPlot(m, joint)
	if err != nil {
		return err
	}
	return plotting.Save(p, plotting.DefaultSize, plotting.DefaultSize*2/3, output)
}

func saveMotion(m *bvh.Motion, output string, frame int, conf *config.Config) error {
	ext := strings.ToLower(filepath.Ext(output))
	switch ext {
	case ".glb", ".gltf":
		name := filepath.Base(output)
		doc, err := converter.BVHToGLTF(m, &converter.BVHToGLTFOption{EndSites: conf.EndSites, Name: name[:len(name)-len(ext)]})
		if err != nil {
			return err
		}
		return converter.SaveGLTF(doc, output)
	case ".csv":
		return saveCSV(m, output, conf)
	case ".bvh":
		return writeFile(output, func(w io.Writer) error { return bvh.Write(w, m) })
	case ".png", ".webp":
		return saveImage(m, output, frame, conf)
	}
	return fmt.Errorf("unsupported output type: %v", ext)
}
