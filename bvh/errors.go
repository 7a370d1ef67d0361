package bvh

import "fmt"

// ParseError reports malformed BVH text.
type ParseError struct {
	Line int // 1-based, 0 if unknown
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("bvh: line %d: %s", e.Line, e.Msg)
	}
	return "bvh: " + e.Msg
}

// OutOfRangeError reports a frame index outside [0, Count).
type OutOfRangeError struct {
	Index int
	Count int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("bvh: frame %d out of range [0, %d)", e.Index, e.Count)
}

// UnknownJointError reports a lookup of a joint name the skeleton lacks.
type UnknownJointError struct {
	Name string
}

func (e *UnknownJointError) Error() string {
	return fmt.Sprintf("bvh: unknown joint %q", e.Name)
}
