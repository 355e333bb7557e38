package plan

import "strings"

// IntroField is the document field revealed while the model is still writing.
const IntroField = "introMessage"

// Aggregator accumulates provider fragments and reports the newly revealed
// part of the intro message after each one.
type Aggregator struct {
	buffer   strings.Builder
	scanner  *FieldScanner
	revealed int
}

// NewAggregator returns an empty aggregator tracking the intro field.
func NewAggregator() *Aggregator {
	return &Aggregator{scanner: NewFieldScanner(IntroField)}
}

// Append adds a fragment and returns the intro text revealed by it, if any.
func (a *Aggregator) Append(fragment string) (string, bool) {
	if fragment == "" {
		return "", false
	}
	a.buffer.WriteString(fragment)
	a.scanner.Write(fragment)

	intro, ok := a.scanner.Value()
	if !ok || len(intro) <= a.revealed {
		return "", false
	}
	delta := intro[a.revealed:]
	a.revealed = len(intro)
	return delta, true
}

// Buffer returns everything received so far.
func (a *Aggregator) Buffer() string {
	return a.buffer.String()
}

// Revealed returns the intro text emitted so far.
func (a *Aggregator) Revealed() string {
	intro, _ := a.scanner.Value()
	return intro[:a.revealed]
}
