package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/converter"
	"github.com/binzume/bvhkit/geom"
	"github.com/binzume/bvhkit/plotting"
	"github.com/binzume/bvhkit/pose"
	"github.com/binzume/bvhkit/render"
	"github.com/go-chi/chi/v5"
)

type jointInfo struct {
	Name     string      `json:"name"`
	Parent   string      `json:"parent,omitempty"`
	Offset   [3]float64  `json:"offset"`
	Channels []string    `json:"channels"`
	EndSite  *[3]float64 `json:"endSite,omitempty"`
}

type motionSummary struct {
	Name      string      `json:"name,omitempty"`
	Frames    int         `json:"frames"`
	FrameTime float64     `json:"frameTime"`
	Duration  float64     `json:"duration"`
	Channels  int         `json:"channels"`
	Joints    []jointInfo `json:"joints"`
}

type boneInfo struct {
	Joint   string     `json:"joint"`
	From    [3]float64 `json:"from"`
	To      [3]float64 `json:"to"`
	Length  float64    `json:"length"`
	EndSite bool       `json:"endSite,omitempty"`
}

type frameResponse struct {
	Frame  int                   `json:"frame"`
	Time   float64               `json:"time"`
	Joints map[string][3]float64 `json:"joints"`
	Bones  []boneInfo            `json:"bones"`
}

func vec(v geom.Vector3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func summarize(name string, m *bvh.Motion) motionSummary {
	sum := motionSummary{
		Name:      name,
		Frames:    m.FrameCount(),
		FrameTime: m.FrameTime,
		Duration:  m.Duration(),
		Channels:  m.Skeleton.ChannelCount(),
	}
	for _, j := range m.Skeleton.Joints() {
		info := jointInfo{Name: j.Name, Offset: vec(j.Offset), Channels: []string{}}
		if j.Parent != nil {
			info.Parent = j.Parent.Name
		}
		for _, c := range j.Channels {
			info.Channels = append(info.Channels, c.String())
		}
		if j.EndSite != nil {
			e := vec(*j.EndSite)
			info.EndSite = &e
		}
		sum.Joints = append(sum.Joints, info)
	}
	return sum
}

// writeJSON encodes v before touching the response so encoding failures
// still produce an error status.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("encode response", "path", r.URL.Path, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(append(data, '\n'))
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		parseErr *bvh.ParseError
		rangeErr *bvh.OutOfRangeError
		jointErr *bvh.UnknownJointError
		mismatch *pose.ChannelCountMismatch
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &parseErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{"error": parseErr.Error(), "line": parseErr.Line})
	case errors.As(err, &mismatch):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &rangeErr), errors.As(err, &jointErr), errors.Is(err, ErrMotionNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &tooLarge):
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
	default:
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) motion(w http.ResponseWriter, r *http.Request) (*bvh.Motion, bool) {
	m, err := s.store.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return m, true
}

// frameIndex reads {frame}; with ?loop=1 the index wraps around the motion.
func frameIndex(r *http.Request, m *bvh.Motion) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "frame"))
	if err != nil {
		return 0, fmt.Errorf("invalid frame %q", chi.URLParam(r, "frame"))
	}
	if loop := r.URL.Query().Get("loop"); (loop == "1" || loop == "true") && m.FrameCount() > 0 {
		n := m.FrameCount()
		i = ((i % n) + n) % n
	}
	return i, nil
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	if v := r.URL.Query().Get(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func (s *Server) handleListMotions(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, map[string]any{"motions": names})
}

func (s *Server) handleGetMotion(w http.ResponseWriter, r *http.Request) {
	m, ok := s.motion(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, r, summarize(chi.URLParam(r, "name"), m))
}

func (s *Server) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	m, ok := s.motion(w, r)
	if !ok {
		return
	}
	i, err := frameIndex(r, m)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := pose.ResolveFrame(m, i)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := frameResponse{Frame: i, Time: float64(i) * m.FrameTime, Joints: map[string][3]float64{}}
	for name, v := range p.Positions() {
		resp.Joints[name] = vec(v)
	}
	for _, b := range p.Bones() {
		resp.Bones = append(resp.Bones, boneInfo{Joint: b.Joint.Name, From: vec(b.From), To: vec(b.To), Length: b.Length(), EndSite: b.EndSite})
	}
	s.writeJSON(w, r, resp)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	m, ok := s.motion(w, r)
	if !ok {
		return
	}
	i, err := frameIndex(r, m)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "webp" {
		jsonError(w, "format must be png or webp", http.StatusBadRequest)
		return
	}
	p, err := pose.ResolveFrame(m, i)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	pc := s.cfg.Preview
	img := render.Preview(p, &render.PreviewOption{
		Width:       pc.Width,
		Height:      pc.Height,
		Supersample: pc.Supersample,
		Camera: render.Camera{
			Yaw:   queryFloat(r, "yaw", pc.Yaw),
			Pitch: queryFloat(r, "pitch", pc.Pitch),
		},
	})
	w.Header().Set("Content-Type", "image/"+format)
	if err := render.EncodeImage(w, img, format); err != nil {
		s.log.Error("encode preview", "error", err)
	}
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	m, ok := s.motion(w, r)
	if !ok {
		return
	}
	joint := r.URL.Query().Get("joint")
	if joint == "" {
		jsonError(w, "joint query parameter is required", http.StatusBadRequest)
		return
	}
	var kinds []bvh.ChannelKind
	if v := r.URL.Query().Get("channels"); v != "" {
		for _, name := range strings.Split(v, ",") {
			k, ok := bvh.ParseChannelKind(strings.TrimSpace(name))
			if !ok {
				jsonError(w, fmt.Sprintf("unknown channel %q", name), http.StatusBadRequest)
				return
			}
			kinds = append(kinds, k)
		}
	}

	p, err := plotting.ChannelPlot(m, joint, kinds...)
	if err != nil {
		var jointErr *bvh.UnknownJointError
		if errors.As(err, &jointErr) {
			s.writeError(w, r, err)
		} else {
			jsonError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := plotting.WritePNG(w, p, 0, 0); err != nil {
		s.log.Error("render plot", "error", err)
	}
}

func (s *Server) handleGLTF(w http.ResponseWriter, r *http.Request) {
	m, ok := s.motion(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	doc, err := converter.BVHToGLTF(m, &converter.BVHToGLTFOption{EndSites: s.cfg.EndSites, Name: name})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "model/gltf-binary")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".glb"))
	if err := converter.WriteGLB(w, doc); err != nil {
		s.log.Error("write glb", "error", err)
	}
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	m, ok := s.motion(w, r)
	if !ok {
		return
	}
	opt := &converter.CSVOption{EndSites: s.cfg.EndSites}
	kind := r.URL.Query().Get("kind")
	var write func() error
	switch kind {
	case "", "positions":
		write = func() error { return converter.WritePositionsCSV(w, m, opt) }
	case "rotations":
		write = func() error { return converter.WriteRotationsCSV(w, m) }
	case "hierarchy":
		write = func() error { return converter.WriteHierarchyCSV(w, m.Skeleton, opt) }
	default:
		jsonError(w, "kind must be positions, rotations or hierarchy", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	if err := write(); err != nil {
		s.log.Error("write csv", "error", err)
	}
}

// handleParse parses a BVH body and returns its summary. With ?name= the
// motion is kept in the store.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	m, err := bvh.Read(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := r.URL.Query().Get("name")
	if name != "" {
		if err := s.store.Put(name, m); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	s.writeJSON(w, r, summarize(name, m))
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(chi.URLParam(r, "name"), ".bvh")
	path, err := s.store.Path(name)
	if err == nil {
		_, err = os.Stat(path)
	}
	if err != nil {
		jsonError(w, "file not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	http.ServeFile(w, r, path)
}
