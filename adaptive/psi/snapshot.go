package psi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
)

// Snapshot is a saved posterior with the grids it was computed on.
type Snapshot struct {
	// Label names the experimental condition the posterior belongs to.
	Label     string
	Trials    int
	Axes      [4][]float64
	Posterior []float64
}

// Shape returns the posterior shape recorded in the snapshot.
func (s Snapshot) Shape() [4]int {
	return [4]int{len(s.Axes[0]), len(s.Axes[1]), len(s.Axes[2]), len(s.Axes[3])}
}

// Snapshot returns a copy of the current posterior and its grids.
func (e *Estimator) Snapshot() Snapshot {
	e.mustReady()

	s := Snapshot{Trials: e.trials, Posterior: slices.Clone(e.post)}
	for k := range s.Axes {
		s.Axes[k] = slices.Clone(e.axes[k])
	}

	return s
}

// axisTolerance is the relative tolerance for matching restored grids.
const axisTolerance = 1e-9

// Restore replaces the posterior with s and reselects the next stimulus.
// The snapshot must have been taken on the same grids. History is cleared;
// Trials continues from the snapshot.
func (e *Estimator) Restore(s Snapshot) error {
	e.mustReady()

	if s.Shape() != e.shape {
		return fmt.Errorf("%w: shape %v, want %v", ErrGridMismatch, s.Shape(), e.shape)
	}

	for k, vals := range s.Axes {
		for i, v := range vals {
			want := e.axes[k][i]
			if math.Abs(v-want) > axisTolerance*max(1, math.Abs(want)) {
				return fmt.Errorf("%w: %v axis value %d is %v, want %v", ErrGridMismatch, Param(k), i, v, want)
			}
		}
	}

	if len(s.Posterior) != len(e.post) {
		return fmt.Errorf("%w: posterior has %d cells, want %d", ErrCorruptSnapshot, len(s.Posterior), len(e.post))
	}

	sum := 0.0
	for _, v := range s.Posterior {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: invalid posterior cell %v", ErrCorruptSnapshot, v)
		}

		sum += v
	}

	if !(sum > 0) || math.IsInf(sum, 0) {
		return fmt.Errorf("%w: posterior has no mass", ErrCorruptSnapshot)
	}

	copy(e.post, s.Posterior)
	normalize(e.post)

	e.trials = s.Trials
	e.history = nil
	e.refresh()

	return nil
}

// String returns the lower-case parameter name.
func (p Param) String() string {
	switch p {
	case ParamAlpha:
		return "alpha"
	case ParamBeta:
		return "beta"
	case ParamGamma:
		return "gamma"
	case ParamLambda:
		return "lambda"
	default:
		return fmt.Sprintf("Param(%d)", int(p))
	}
}

const (
	snapshotVersion = 1
	// maxSnapshotCells bounds decoding of untrusted input.
	maxSnapshotCells = 1 << 26
)

var snapshotMagic = [4]byte{'P', 'S', 'I', 'P'}

// snapshotHeader is the fixed-size prefix of the encoded form. Label bytes,
// the four axis grids and the posterior follow, all little-endian.
type snapshotHeader struct {
	Magic    [4]byte
	Version  uint16
	LabelLen uint16
	Shape    [4]uint32
	Trials   uint64
}

// EncodeSnapshot writes s in the binary snapshot format.
func EncodeSnapshot(w io.Writer, s Snapshot) error {
	if len(s.Label) > math.MaxUint16 {
		return fmt.Errorf("%w: label longer than %d bytes", ErrInvalidLabel, math.MaxUint16)
	}

	shape := s.Shape()
	if n := shape[0] * shape[1] * shape[2] * shape[3]; n != len(s.Posterior) {
		return fmt.Errorf("%w: posterior has %d cells, axes imply %d", ErrCorruptSnapshot, len(s.Posterior), n)
	}

	h := snapshotHeader{
		Magic:    snapshotMagic,
		Version:  snapshotVersion,
		LabelLen: uint16(len(s.Label)),
		Trials:   uint64(s.Trials),
	}
	for k, n := range shape {
		h.Shape[k] = uint32(n)
	}

	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}

	if _, err := io.WriteString(w, s.Label); err != nil {
		return err
	}

	for _, a := range s.Axes {
		if err := binary.Write(w, binary.LittleEndian, a); err != nil {
			return err
		}
	}

	return binary.Write(w, binary.LittleEndian, s.Posterior)
}

// DecodeSnapshot reads a snapshot written by EncodeSnapshot.
func DecodeSnapshot(r io.Reader) (Snapshot, error) {
	var h snapshotHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Snapshot{}, corrupt(err)
	}

	if h.Magic != snapshotMagic {
		return Snapshot{}, fmt.Errorf("%w: bad magic %q", ErrCorruptSnapshot, h.Magic[:])
	}

	if h.Version != snapshotVersion {
		return Snapshot{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, h.Version)
	}

	cells := 1
	for _, n := range h.Shape {
		if n == 0 || n > maxSnapshotCells {
			return Snapshot{}, fmt.Errorf("%w: bad shape %v", ErrCorruptSnapshot, h.Shape)
		}

		cells *= int(n)
		if cells > maxSnapshotCells {
			return Snapshot{}, fmt.Errorf("%w: shape %v too large", ErrCorruptSnapshot, h.Shape)
		}
	}

	label := make([]byte, h.LabelLen)
	if _, err := io.ReadFull(r, label); err != nil {
		return Snapshot{}, corrupt(err)
	}

	s := Snapshot{Label: string(label), Trials: int(h.Trials)}

	for k, n := range h.Shape {
		s.Axes[k] = make([]float64, n)
		if err := binary.Read(r, binary.LittleEndian, s.Axes[k]); err != nil {
			return Snapshot{}, corrupt(err)
		}
	}

	s.Posterior = make([]float64, cells)
	if err := binary.Read(r, binary.LittleEndian, s.Posterior); err != nil {
		return Snapshot{}, corrupt(err)
	}

	return s, nil
}

func corrupt(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated: %w", ErrCorruptSnapshot, err)
	}

	return err
}
