package fiber

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timeline(n int) []time.Time {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Second)
	}
	return out
}

func sampleData() *Data {
	return &Data{
		ID:          ID{Group: 1, Number: 1},
		Timestamps:  timeline(3),
		Frequencies: []float64{10, 20},
		Magnitude: [][]float64{
			{0.1, 0.2, 0.3},
			{0.4, 0.5, 0.9},
		},
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{in: "1_2", want: ID{Group: 1, Number: 2}},
		{in: "fiber_2_5", want: ID{Group: 2, Number: 5}},
		{in: " 10_3 ", want: ID{Group: 10, Number: 3}},
		{in: "1", wantErr: true},
		{in: "1_2_3", wantErr: true},
		{in: "a_b", wantErr: true},
		{in: "-1_2", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseID(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestID_Names(t *testing.T) {
	id := ID{Group: 2, Number: 4}
	assert.Equal(t, "2_4", id.String())
	assert.Equal(t, "fiber_2_4", id.FileStem())
	assert.True(t, ID{Group: 1, Number: 5}.Less(id))
	assert.True(t, ID{Group: 2, Number: 3}.Less(id))
	assert.False(t, id.Less(id))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Data)
	}{
		{"no frequencies", func(d *Data) { d.Frequencies = nil; d.Magnitude = nil }},
		{"no timestamps", func(d *Data) { d.Timestamps = nil }},
		{"frequencies not increasing", func(d *Data) { d.Frequencies = []float64{20, 20} }},
		{"timestamps not increasing", func(d *Data) { d.Timestamps[2] = d.Timestamps[0] }},
		{"row count", func(d *Data) { d.Magnitude = d.Magnitude[:1] }},
		{"column count", func(d *Data) { d.Magnitude[1] = d.Magnitude[1][:2] }},
		{"negative magnitude", func(d *Data) { d.Magnitude[0][0] = -0.1 }},
		{"nan magnitude", func(d *Data) { d.Magnitude[0][1] = math.NaN() }},
		{"inf magnitude", func(d *Data) { d.Magnitude[1][2] = math.Inf(1) }},
	}

	require.NoError(t, sampleData().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleData()
			tt.mutate(d)
			assert.ErrorIs(t, d.Validate(), ErrShapeMismatch)
		})
	}
}

func TestProfileAndSummary(t *testing.T) {
	d := sampleData()

	profile := d.Profile()
	require.Len(t, profile, 2)
	assert.InDelta(t, 0.2, profile[0], 1e-12)
	assert.InDelta(t, 0.6, profile[1], 1e-12)

	s := d.Summarize()
	assert.Equal(t, 2, s.FrequencyBins)
	assert.Equal(t, 3, s.TimeSamples)
	assert.Equal(t, 10.0, s.MinFrequency)
	assert.Equal(t, 20.0, s.MaxFrequency)
	assert.Equal(t, d.Timestamps[0], s.Start)
	assert.Equal(t, d.Timestamps[2], s.End)
	assert.Equal(t, 0.9, s.PeakMagnitude)
}

func TestCatalog(t *testing.T) {
	b := sampleData()
	b.ID = ID{Group: 2, Number: 1}
	a := sampleData()

	c := NewCatalog(b, a)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []ID{{Group: 1, Number: 1}, {Group: 2, Number: 1}}, c.IDs())

	got, ok := c.Get(ID{Group: 2, Number: 1})
	require.True(t, ok)
	assert.Same(t, b, got)

	_, ok = c.Get(ID{Group: 3, Number: 1})
	assert.False(t, ok)
	assert.Empty(t, c.Excluded())
}

func TestGrid(t *testing.T) {
	ids := Grid([]int{1, 2}, 5)
	require.Len(t, ids, 10)
	assert.Equal(t, ID{Group: 1, Number: 1}, ids[0])
	assert.Equal(t, ID{Group: 1, Number: 5}, ids[4])
	assert.Equal(t, ID{Group: 2, Number: 1}, ids[5])
	assert.Equal(t, ID{Group: 2, Number: 5}, ids[9])
}
