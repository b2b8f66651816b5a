package fiber

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"
)

// timestampRow is one acquisition slot of a timestamp table. Slots without
// data have no magnitude row.
type timestampRow struct {
	Timestamp time.Time `parquet:"timestamp"`
	HasData   bool      `parquet:"has_data"`
}

// timeAxis is a decoded timestamp file. Rows holds the matrix time row of
// every timestamp; nil means the timestamps map onto the rows one to one.
type timeAxis struct {
	Times []time.Time
	Rows  []int
}

// readTimestampTable decodes a parquet table with a "timestamp" column and
// an optional boolean "has_data" column. Only slots with data are kept.
func readTimestampTable(r io.Reader) (timeAxis, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return timeAxis{}, fmt.Errorf("failed to read parquet: %w", err)
	}
	f, err := parquet.OpenFile(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return timeAxis{}, fmt.Errorf("failed to open parquet: %w", err)
	}

	schema := f.Schema()
	tsCol, ok := schema.Lookup("timestamp")
	if !ok {
		return timeAxis{}, fmt.Errorf("%w: timestamp table has no timestamp column", ErrShapeMismatch)
	}
	if kind := tsCol.Node.Type().Kind(); kind != parquet.Int64 {
		return timeAxis{}, fmt.Errorf("%w: timestamp column has physical type %s", ErrShapeMismatch, kind)
	}
	unit := timestampUnit(tsCol.Node)
	flagCol, hasFlag := schema.Lookup("has_data")

	reader := parquet.NewReader(f)
	defer reader.Close()

	var (
		axis  timeAxis
		slot  int
		batch = make([]parquet.Row, 256)
	)
	for {
		n, err := reader.ReadRows(batch)
		for _, row := range batch[:n] {
			var (
				ts    parquet.Value
				seen  bool
				valid = !hasFlag
			)
			for _, v := range row {
				switch {
				case v.Column() == tsCol.ColumnIndex:
					ts, seen = v, !v.IsNull()
				case hasFlag && v.Column() == flagCol.ColumnIndex:
					valid = !v.IsNull() && v.Boolean()
				}
			}
			if valid && seen {
				axis.Times = append(axis.Times, time.Unix(0, ts.Int64()*int64(unit)).UTC())
				axis.Rows = append(axis.Rows, slot)
			}
			slot++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return timeAxis{}, fmt.Errorf("failed to read timestamp rows: %w", err)
		}
	}

	if len(axis.Times) == 0 {
		return timeAxis{}, fmt.Errorf("%w: no timestamps with has_data", ErrShapeMismatch)
	}
	return axis, nil
}

// timestampUnit reads the unit of a TIMESTAMP column, nanoseconds when the
// column carries no logical type
func timestampUnit(node parquet.Node) time.Duration {
	lt := node.Type().LogicalType()
	if lt == nil || lt.Timestamp == nil {
		return time.Nanosecond
	}
	switch {
	case lt.Timestamp.Unit.Millis != nil:
		return time.Millisecond
	case lt.Timestamp.Unit.Micros != nil:
		return time.Microsecond
	default:
		return time.Nanosecond
	}
}

// writeTimestampTable encodes ts as a table where every slot has data
func writeTimestampTable(w io.Writer, ts []time.Time) error {
	rows := make([]timestampRow, len(ts))
	for i, t := range ts {
		rows[i] = timestampRow{Timestamp: t.UTC(), HasData: true}
	}
	return parquet.Write(w, rows)
}

// selectRows keeps the time rows of a row-major rows x cols matrix listed
// in the axis. Rows past the end of the matrix are dropped together with
// their timestamps. The time axis is the one whose length differs from
// nFreq; (time, frequency) is assumed when both match.
func (a timeAxis) selectRows(raw []float64, rows, cols, nFreq int) ([]float64, int, int, []time.Time) {
	if a.Rows == nil || (rows != nFreq && cols != nFreq) {
		return raw, rows, cols, a.Times
	}

	timeFirst := cols == nFreq
	nTime := rows
	if !timeFirst {
		nTime = cols
	}

	keep := make([]int, 0, len(a.Rows))
	times := make([]time.Time, 0, len(a.Rows))
	for i, r := range a.Rows {
		if r < nTime {
			keep = append(keep, r)
			times = append(times, a.Times[i])
		}
	}

	if timeFirst {
		out := make([]float64, 0, len(keep)*cols)
		for _, r := range keep {
			out = append(out, raw[r*cols:(r+1)*cols]...)
		}
		return out, len(keep), cols, times
	}

	out := make([]float64, 0, rows*len(keep))
	for f := 0; f < rows; f++ {
		for _, t := range keep {
			out = append(out, raw[f*cols+t])
		}
	}
	return out, rows, len(keep), times
}
