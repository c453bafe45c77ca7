package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Device is where a tensor's storage is placed.
type Device struct {
	Type  string
	Index int
}

var (
	// CPU is the host device.
	CPU = Device{Type: "cpu", Index: -1}
	// Meta holds shape-only tensors that have no data.
	Meta = Device{Type: "meta", Index: -1}
)

// Accelerator returns the i-th accelerator device.
func Accelerator(i int) Device {
	return Device{Type: "cuda", Index: i}
}

func (d Device) String() string {
	if d.Index < 0 {
		return d.Type
	}
	return d.Type + ":" + strconv.Itoa(d.Index)
}

// ParseDevice parses "cpu", "meta", "cuda" or "cuda:1".
func ParseDevice(s string) (Device, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	name, idx, hasIdx := strings.Cut(s, ":")
	switch name {
	case "cpu", "meta":
		if hasIdx {
			return Device{}, fmt.Errorf("device %q does not take an index", name)
		}
		return Device{Type: name, Index: -1}, nil
	case "cuda":
		if !hasIdx {
			return Accelerator(0), nil
		}
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 {
			return Device{}, fmt.Errorf("invalid device index %q", idx)
		}
		return Accelerator(i), nil
	}
	return Device{}, fmt.Errorf("unknown device %q", s)
}

// Layout is the storage format of a tensor.
type Layout int

const (
	Strided Layout = iota
	SparseCOO
	SparseCSR
)

func (l Layout) String() string {
	switch l {
	case Strided:
		return "strided"
	case SparseCOO:
		return "sparse_coo"
	case SparseCSR:
		return "sparse_csr"
	}
	return fmt.Sprintf("layout(%d)", int(l))
}

// QScheme is the quantization scheme of a quantized tensor.
type QScheme int

const (
	PerTensorAffine QScheme = iota
	PerTensorSymmetric
)

func (q QScheme) String() string {
	switch q {
	case PerTensorAffine:
		return "per_tensor_affine"
	case PerTensorSymmetric:
		return "per_tensor_symmetric"
	}
	return fmt.Sprintf("qscheme(%d)", int(q))
}
