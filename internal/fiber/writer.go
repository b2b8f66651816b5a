package fiber

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/sbinet/npyio/npy"
	"gonum.org/v1/gonum/mat"
)

// Sink accepts new array files
type Sink interface {
	Create(ctx context.Context, name string) (io.WriteCloser, error)
}

// Writer stores fibers in the on-disk layout read by Loader
type Writer struct {
	sink   Sink
	suffix string
}

// NewWriter creates a writer that names files with suffix
func NewWriter(sink Sink, suffix string) *Writer {
	return &Writer{sink: sink, suffix: suffix}
}

// FileName returns the sink name of one of the arrays of id
func (w *Writer) FileName(id ID, kind string) string {
	return arrayName(id, kind, w.suffix)
}

// TableName returns the sink name of the timestamp table of id
func (w *Writer) TableName(id ID) string {
	return tableName(id, w.suffix)
}

// Write stores timestamps as a parquet table with every slot marked
// has_data, frequencies as float64 and the magnitude matrix in
// (time, frequency) order
func (w *Writer) Write(ctx context.Context, d *Data) error {
	if err := d.Validate(); err != nil {
		return err
	}

	nFreq, nTime := len(d.Frequencies), len(d.Timestamps)
	m := mat.NewDense(nTime, nFreq, nil)
	for f, row := range d.Magnitude {
		for t, v := range row {
			m.Set(t, f, v)
		}
	}

	if err := w.create(ctx, w.TableName(d.ID), func(f io.Writer) error {
		return writeTimestampTable(f, d.Timestamps)
	}); err != nil {
		return err
	}

	arrays := []struct {
		kind string
		val  interface{}
	}{
		{"frequencies", d.Frequencies},
		{"magnitude_matrix", m},
	}
	for _, a := range arrays {
		if err := w.create(ctx, w.FileName(d.ID, a.kind), func(f io.Writer) error {
			return npy.Write(f, a.val)
		}); err != nil {
			return err
		}
	}

	log.Info().Str("fiberID", d.ID.String()).Int("frequencyBins", nFreq).Int("timeSamples", nTime).Msg("Fiber written")
	return nil
}

func (w *Writer) create(ctx context.Context, name string, encode func(io.Writer) error) error {
	f, err := w.sink.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	return nil
}
