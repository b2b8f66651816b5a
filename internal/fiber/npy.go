package fiber

import (
	"fmt"
	"io"
	"time"

	"github.com/sbinet/npyio/npy"
)

// readVector decodes a 1-D float array
func readVector(r io.Reader) ([]float64, error) {
	arr, err := readArray(r)
	if err != nil {
		return nil, err
	}
	if len(arr.shape) != 1 {
		return nil, fmt.Errorf("%w: expected 1-D array, got shape %v", ErrShapeMismatch, arr.shape)
	}
	return arr.data, nil
}

// readMatrix decodes a 2-D float array as row-major data plus its shape
func readMatrix(r io.Reader) ([]float64, int, int, error) {
	arr, err := readArray(r)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(arr.shape) != 2 {
		return nil, 0, 0, fmt.Errorf("%w: expected 2-D array, got shape %v", ErrShapeMismatch, arr.shape)
	}
	return arr.data, arr.shape[0], arr.shape[1], nil
}

// readTimestamps decodes int64 Unix nanoseconds or float64 Unix seconds
func readTimestamps(r io.Reader) ([]time.Time, error) {
	rd, err := npy.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read npy header: %w", err)
	}
	if len(rd.Header.Descr.Shape) != 1 {
		return nil, fmt.Errorf("%w: expected 1-D timestamps, got shape %v", ErrShapeMismatch, rd.Header.Descr.Shape)
	}

	switch rd.Header.Descr.Type {
	case "<i8":
		var raw []int64
		if err := rd.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read timestamps: %w", err)
		}
		out := make([]time.Time, len(raw))
		for i, ns := range raw {
			out[i] = time.Unix(0, ns).UTC()
		}
		return out, nil
	case "<f8":
		var raw []float64
		if err := rd.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read timestamps: %w", err)
		}
		out := make([]time.Time, len(raw))
		for i, sec := range raw {
			out[i] = time.Unix(0, int64(sec*float64(time.Second))).UTC()
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported timestamp dtype %q", rd.Header.Descr.Type)
	}
}

type array struct {
	data  []float64
	shape []int
}

func readArray(r io.Reader) (*array, error) {
	rd, err := npy.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read npy header: %w", err)
	}

	shape := append([]int(nil), rd.Header.Descr.Shape...)
	var data []float64

	switch rd.Header.Descr.Type {
	case "<f8":
		if err := rd.Read(&data); err != nil {
			return nil, fmt.Errorf("failed to read float64 array: %w", err)
		}
	case "<f4":
		var raw []float32
		if err := rd.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read float32 array: %w", err)
		}
		data = make([]float64, len(raw))
		for i, v := range raw {
			data[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("unsupported array dtype %q", rd.Header.Descr.Type)
	}

	if rd.Header.Descr.Fortran && len(shape) == 2 {
		data = fortranToRowMajor(data, shape[0], shape[1])
	}

	return &array{data: data, shape: shape}, nil
}

// fortranToRowMajor reorders column-major data of a rows x cols matrix
func fortranToRowMajor(data []float64, rows, cols int) []float64 {
	out := make([]float64, len(data))
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			out[r*cols+c] = data[c*rows+r]
		}
	}
	return out
}
