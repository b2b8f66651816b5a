package fiber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Source provides read access to the array files of all fibers
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	List(ctx context.Context) ([]string, error)
}

// Options controls file naming and load-time downsampling
type Options struct {
	// Suffix is inserted before the extension, e.g. "_short"
	Suffix         string
	TimeDownsample int
	FreqDownsample int
}

// Loader reads fiber arrays from a Source
type Loader struct {
	src  Source
	opts Options
}

// NewLoader creates a loader over src
func NewLoader(src Source, opts Options) *Loader {
	return &Loader{src: src, opts: opts}
}

// FileName returns the source name of one of the arrays of id
func (l *Loader) FileName(id ID, kind string) string {
	return arrayName(id, kind, l.opts.Suffix)
}

// TableName returns the source name of the timestamp table of id
func (l *Loader) TableName(id ID) string {
	return tableName(id, l.opts.Suffix)
}

func arrayName(id ID, kind, suffix string) string {
	return fmt.Sprintf("%s_%s%s.npy", id.FileStem(), kind, suffix)
}

func tableName(id ID, suffix string) string {
	return fmt.Sprintf("%s_timestamps%s.parquet", id.FileStem(), suffix)
}

// Load reads, validates and downsamples the arrays of a single fiber.
// Timestamps come from the parquet table when present and fall back to
// the npy array otherwise.
func (l *Loader) Load(ctx context.Context, id ID) (*Data, error) {
	axis, err := l.readTimeAxis(ctx, id)
	if err != nil {
		return nil, err
	}

	var frequencies []float64
	if err := l.read(ctx, l.FileName(id, "frequencies"), func(r io.Reader) (err error) {
		frequencies, err = readVector(r)
		return err
	}); err != nil {
		return nil, err
	}

	var (
		raw        []float64
		rows, cols int
	)
	if err := l.read(ctx, l.FileName(id, "magnitude_matrix"), func(r io.Reader) (err error) {
		raw, rows, cols, err = readMatrix(r)
		return err
	}); err != nil {
		return nil, err
	}

	raw, rows, cols, timestamps := axis.selectRows(raw, rows, cols, len(frequencies))
	magnitude, err := orient(raw, rows, cols, len(frequencies), len(timestamps))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}

	data := &Data{
		ID:          id,
		Timestamps:  timestamps,
		Frequencies: frequencies,
		Magnitude:   magnitude,
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	data.Timestamps, data.Magnitude = DecimateTime(data.Timestamps, data.Magnitude, l.opts.TimeDownsample)
	data.Frequencies, data.Magnitude = PoolFrequencies(data.Frequencies, data.Magnitude, l.opts.FreqDownsample)
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("after downsampling: %w", err)
	}

	log.Info().
		Str("fiberID", id.String()).
		Int("timestamps", len(data.Timestamps)).
		Int("frequencies", len(data.Frequencies)).
		Msg("Loaded fiber data")

	return data, nil
}

// Discover lists the source and returns every fiber that has a magnitude
// matrix file, ordered by group and number
func (l *Loader) Discover(ctx context.Context) ([]ID, error) {
	names, err := l.src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fiber source: %w", err)
	}

	pattern := regexp.MustCompile(`^fiber_(\d+)_(\d+)_magnitude_matrix` + regexp.QuoteMeta(l.opts.Suffix) + `\.npy$`)
	seen := make(map[ID]bool)
	var ids []ID
	for _, name := range names {
		m := pattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		group, _ := strconv.Atoi(m[1])
		number, _ := strconv.Atoi(m[2])
		id := ID{Group: group, Number: number}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids, nil
}

// Fiber selection modes for Resolve
const (
	SelectGrid    = "grid"
	SelectListing = "listing"
)

// Resolve returns the fibers to load: the groups x perGroup grid for
// SelectGrid, or every fiber found in the source for SelectListing
func (l *Loader) Resolve(ctx context.Context, mode string, groups []int, perGroup int) ([]ID, error) {
	switch mode {
	case SelectGrid, "":
		return Grid(groups, perGroup), nil
	case SelectListing:
		ids, err := l.Discover(ctx)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: no magnitude matrix files found", ErrMissingData)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("unknown fiber selection %q", mode)
	}
}

// LoadCatalog loads every id. Fibers that fail to load are excluded and
// logged; they never prevent the others from loading.
func (l *Loader) LoadCatalog(ctx context.Context, ids []ID) *Catalog {
	catalog := newCatalog()
	for _, id := range ids {
		data, err := l.Load(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("fiberID", id.String()).Msg("Excluding fiber")
			catalog.exclude(id, err)
			continue
		}
		catalog.add(data)
	}
	return catalog
}

// readTimeAxis prefers the parquet timestamp table and its has_data
// filter. Without a table every npy timestamp is a valid row.
func (l *Loader) readTimeAxis(ctx context.Context, id ID) (timeAxis, error) {
	name := l.TableName(id)
	if rc, err := l.src.Open(ctx, name); err == nil {
		defer rc.Close()
		var axis timeAxis
		err = decodeFile(name, rc, func(r io.Reader) (err error) {
			axis, err = readTimestampTable(r)
			return err
		})
		return axis, err
	}

	var times []time.Time
	err := l.read(ctx, l.FileName(id, "timestamps"), func(r io.Reader) (err error) {
		times, err = readTimestamps(r)
		return err
	})
	return timeAxis{Times: times}, err
}

func (l *Loader) read(ctx context.Context, name string, decode func(io.Reader) error) error {
	rc, err := l.src.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMissingData, name, err)
	}
	defer rc.Close()
	return decodeFile(name, rc, decode)
}

func decodeFile(name string, r io.Reader, decode func(io.Reader) error) error {
	if err := decode(r); err != nil {
		if errors.Is(err, ErrShapeMismatch) {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%w: %s: %v", ErrMissingData, name, err)
	}
	return nil
}

// orient converts row-major data into [frequency][time]. Files written in
// (time, frequency) order are transposed; that order wins when both axes
// have the same length.
func orient(raw []float64, rows, cols, nFreq, nTime int) ([][]float64, error) {
	switch {
	case rows == nTime && cols == nFreq:
		out := make([][]float64, nFreq)
		for f := range out {
			row := make([]float64, nTime)
			for t := 0; t < nTime; t++ {
				row[t] = raw[t*cols+f]
			}
			out[f] = row
		}
		return out, nil
	case rows == nFreq && cols == nTime:
		out := make([][]float64, nFreq)
		for f := range out {
			out[f] = append([]float64(nil), raw[f*cols:(f+1)*cols]...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: matrix shape (%d, %d) does not match %d timestamps and %d frequencies",
			ErrShapeMismatch, rows, cols, nTime, nFreq)
	}
}
