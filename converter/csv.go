package converter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/pose"
)

type CSVOption struct {
	Scale    float64 // position scale. Default: 1
	EndSites bool
}

func formatCSV(v float64) string {
	return strconv.FormatFloat(v, 'f', 5, 64)
}

func writeRows(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func timeColumn(m *bvh.Motion, i int) string {
	return formatCSV(float64(i) * m.FrameTime)
}

// WriteRotationsCSV writes one row per frame: time, then each joint's
// rotation channels in declared order.
func WriteRotationsCSV(w io.Writer, m *bvh.Motion) error {
	header := []string{"time"}
	for _, j := range m.Skeleton.Joints() {
		for _, ch := range j.Channels {
			if ch.IsRotation() {
				header = append(header, fmt.Sprintf("%s.%s", j.Name, strings.ToLower(ch.Axis().String())))
			}
		}
	}

	rows := make([][]string, 0, m.FrameCount())
	for i, frame := range m.Frames {
		row := []string{timeColumn(m, i)}
		for _, j := range m.Skeleton.Joints() {
			for k, ch := range j.Channels {
				if ch.IsRotation() {
					row = append(row, formatCSV(frame[j.ChannelOffset+k]))
				}
			}
		}
		rows = append(rows, row)
	}
	return writeRows(w, header, rows)
}

// WritePositionsCSV writes world positions per frame: time, then x,y,z of
// each joint (and end site when enabled).
func WritePositionsCSV(w io.Writer, m *bvh.Motion, opt *CSVOption) error {
	if opt == nil {
		opt = &CSVOption{}
	}
	scale := opt.Scale
	if scale == 0 {
		scale = 1
	}

	header := []string{"time"}
	for _, j := range m.Skeleton.Joints() {
		header = append(header, j.Name+".x", j.Name+".y", j.Name+".z")
		if opt.EndSites && j.EndSite != nil {
			header = append(header, j.Name+"_end.x", j.Name+"_end.y", j.Name+"_end.z")
		}
	}

	rows := make([][]string, 0, m.FrameCount())
	for i := range m.Frames {
		p, err := pose.ResolveFrame(m, i)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		row := []string{timeColumn(m, i)}
		for _, j := range m.Skeleton.Joints() {
			v, _ := p.Position(j.Name)
			row = append(row, formatCSV(v.X*scale), formatCSV(v.Y*scale), formatCSV(v.Z*scale))
			if e, ok := p.EndSite(j); ok && opt.EndSites {
				row = append(row, formatCSV(e.X*scale), formatCSV(e.Y*scale), formatCSV(e.Z*scale))
			}
		}
		rows = append(rows, row)
	}
	return writeRows(w, header, rows)
}

// WriteHierarchyCSV writes joint,parent,offset.x,offset.y,offset.z.
func WriteHierarchyCSV(w io.Writer, s *bvh.Skeleton, opt *CSVOption) error {
	if opt == nil {
		opt = &CSVOption{}
	}
	scale := opt.Scale
	if scale == 0 {
		scale = 1
	}

	var rows [][]string
	for _, j := range s.Joints() {
		parent := ""
		if j.Parent != nil {
			parent = j.Parent.Name
		}
		rows = append(rows, []string{j.Name, parent, formatCSV(j.Offset.X * scale), formatCSV(j.Offset.Y * scale), formatCSV(j.Offset.Z * scale)})
		if opt.EndSites && j.EndSite != nil {
			e := j.EndSite
			rows = append(rows, []string{j.Name + "_end", j.Name, formatCSV(e.X * scale), formatCSV(e.Y * scale), formatCSV(e.Z * scale)})
		}
	}
	return writeRows(w, []string{"joint", "parent", "offset.x", "offset.y", "offset.z"}, rows)
}
