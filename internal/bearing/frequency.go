package bearing

// Kind names one characteristic frequency
type Kind string

const (
	Fundamental Kind = "fr"
	FTF         Kind = "ftf"
	CageInner   Kind = "fci"
	BPFO        Kind = "bpfo"
	BPFI        Kind = "bpfi"
	BSF         Kind = "bsf"
)

// kinds is the display order
var kinds = []Kind{Fundamental, FTF, CageInner, BPFO, BPFI, BSF}

var kindLabels = map[Kind]string{
	Fundamental: "Fundamental (fr)",
	FTF:         "Cage relative to outer (fc/o)",
	CageInner:   "Cage relative to inner (fc/i)",
	BPFO:        "Ball pass outer (fb/o)",
	BPFI:        "Ball pass inner (fb/i)",
	BSF:         "Rolling element spin (fb)",
}

var kindColors = map[Kind]string{
	Fundamental: "#FF0000",
	FTF:         "#00FF00",
	CageInner:   "#0000FF",
	BPFO:        "#FFA500",
	BPFI:        "#800080",
	BSF:         "#008080",
}

// Formulas documents each frequency for the calculator table
var Formulas = map[Kind]string{
	Fundamental: "fr = input value (Hz)",
	FTF:         "fc/o = fr/2 × [1 - (d/D)×cos(α)]",
	CageInner:   "fc/i = fr/2 × [1 + (d/D)×cos(α)]",
	BPFO:        "fb/o = Z × fc/o",
	BPFI:        "fb/i = Z × fc/i",
	BSF:         "fb = (D/2d) × fr × [1 - (d/D × cos(α))²]",
}

// Label returns the long display name
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

// Color returns the base indicator color as #RRGGBB
func (k Kind) Color() string {
	if c, ok := kindColors[k]; ok {
		return c
	}
	return "#FFFFFF"
}

// Frequency is one computed characteristic frequency
type Frequency struct {
	Kind     Kind
	Name     string
	Value    float64
	Color    string
	Severity Severity
	// NearestPeak is the closest detected spectrum peak, zero when none
	NearestPeak float64
}

// DisplayColor is the severity color once graded, the base color otherwise
func (f Frequency) DisplayColor() string {
	if c := f.Severity.Color(); c != "" {
		return c
	}
	return f.Color
}

// Set is an ordered collection of characteristic frequencies
type Set []Frequency

// Get returns the frequency of kind k
func (s Set) Get(k Kind) (Frequency, bool) {
	for _, f := range s {
		if f.Kind == k {
			return f, true
		}
	}
	return Frequency{}, false
}
