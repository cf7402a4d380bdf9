package chunking

// DefaultSeparatorLevels lists cut points from most to least preferred.
// Separators on the same level compete on position only.
var DefaultSeparatorLevels = [][]string{
	{"\n\n"},
	{"\n"},
	{". ", "! ", "? "},
	{" "},
}

var _ Splitter = (*Window)(nil)

// Window cuts text into pieces of at most Size code points. Every piece after the
// first starts exactly Overlap code points before the end of its predecessor, so
// dropping the first Overlap code points of each later piece and concatenating
// reproduces the input.
type Window struct {
	size    int
	overlap int
	levels  [][][]rune
}

// WindowOption configures a Window.
type WindowOption func(*Window)

// WithSeparatorLevels replaces DefaultSeparatorLevels.
func WithSeparatorLevels(levels ...[]string) WindowOption {
	return func(w *Window) {
		w.levels = toRuneLevels(levels)
	}
}

// NewWindow creates a window splitter. overlap must be smaller than size.
func NewWindow(size, overlap int, opts ...WindowOption) (*Window, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	w := &Window{
		size:    size,
		overlap: overlap,
		levels:  toRuneLevels(DefaultSeparatorLevels),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Size returns the maximum piece length.
func (w *Window) Size() int { return w.size }

// Overlap returns the number of code points shared by neighbouring pieces.
func (w *Window) Overlap() int { return w.overlap }

// Split implements Splitter. Empty input yields no chunks.
func (w *Window) Split(text string) ([]string, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []string
	start := 0
	for len(runes)-start > w.size {
		end := w.cut(runes, start)
		chunks = append(chunks, string(runes[start:end]))
		start = end - w.overlap
	}
	return append(chunks, string(runes[start:])), nil
}

// cut picks the end of the piece beginning at start. The piece must be longer than
// the overlap so the next start moves forward.
func (w *Window) cut(runes []rune, start int) int {
	limit := start + w.size
	floor := start + w.overlap
	for _, level := range w.levels {
		best := -1
		for _, sep := range level {
			if end := lastBoundary(runes, sep, start, floor, limit); end > best {
				best = end
			}
		}
		if best > 0 {
			return best
		}
	}
	return limit
}

// lastBoundary returns the largest end in (floor, limit] where sep ends inside
// runes[start:end], or -1.
func lastBoundary(runes, sep []rune, start, floor, limit int) int {
	if len(sep) == 0 {
		return -1
	}
	for end := limit; end > floor; end-- {
		from := end - len(sep)
		if from < start {
			break
		}
		if equalRunes(runes[from:end], sep) {
			return end
		}
	}
	return -1
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func toRuneLevels(levels [][]string) [][][]rune {
	out := make([][][]rune, 0, len(levels))
	for _, level := range levels {
		seps := make([][]rune, 0, len(level))
		for _, s := range level {
			if s != "" {
				seps = append(seps, []rune(s))
			}
		}
		out = append(out, seps)
	}
	return out
}
