package bvh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/binzume/bvhkit/geom"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatVector(v *geom.Vector3) string {
	return formatFloat(v.X) + " " + formatFloat(v.Y) + " " + formatFloat(v.Z)
}

func writeJoint(w *bufio.Writer, j *Joint, depth int) {
	indent := strings.Repeat("\t", depth)
	if j.IsRoot() {
		fmt.Fprintf(w, "%sROOT %s\n", indent, j.Name)
	} else {
		fmt.Fprintf(w, "%sJOINT %s\n", indent, j.Name)
	}
	fmt.Fprintf(w, "%s{\n", indent)
	fmt.Fprintf(w, "%s\tOFFSET %s\n", indent, formatVector(&j.Offset))
	names := make([]string, len(j.Channels))
	for i, c := range j.Channels {
		names[i] = c.String()
	}
	fmt.Fprintf(w, "%s\tCHANNELS %d", indent, len(j.Channels))
	if len(names) > 0 {
		w.WriteString(" " + strings.Join(names, " "))
	}
	w.WriteString("\n")
	for _, c := range j.Children {
		writeJoint(w, c, depth+1)
	}
	if j.EndSite != nil {
		fmt.Fprintf(w, "%s\tEnd Site\n", indent)
		fmt.Fprintf(w, "%s\t{\n", indent)
		fmt.Fprintf(w, "%s\t\tOFFSET %s\n", indent, formatVector(j.EndSite))
		fmt.Fprintf(w, "%s\t}\n", indent)
	}
	fmt.Fprintf(w, "%s}\n", indent)
}

// Write serializes m as BVH text. Values are written with full precision so
// that Parse(Write(m)) reproduces m.
func Write(ww io.Writer, m *Motion) error {
	w := bufio.NewWriter(ww)
	w.WriteString("HIERARCHY\n")
	writeJoint(w, m.Skeleton.Root(), 0)

	w.WriteString("MOTION\n")
	fmt.Fprintf(w, "Frames: %d\n", len(m.Frames))
	fmt.Fprintf(w, "Frame Time: %s\n", formatFloat(m.FrameTime))
	for _, f := range m.Frames {
		for i, v := range f {
			if i > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(formatFloat(v))
		}
		w.WriteByte('\n')
	}
	return w.Flush()
}
