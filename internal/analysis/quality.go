package analysis

// PlausibleRange gates scene means against sensor artifacts. Cloud
// shadows and haze produce means far outside what a sediment-laden river
// can physically reach.
type PlausibleRange struct {
	Low  float64
	High float64
}

// Accept reports whether the mean lies strictly inside the range. NaN
// fails both comparisons and is rejected.
func (r PlausibleRange) Accept(mean float64) bool {
	return mean > r.Low && mean < r.High
}
