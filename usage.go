package blueprint

// Usage tracks token consumption of a single model call. A field the
// provider did not report stays zero.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns InputTokens + OutputTokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Default per-million-token rates in USD.
const (
	DefaultInputPerMillion  = 1.25
	DefaultOutputPerMillion = 10.00
)

// Pricing holds independent per-direction rates in USD per million tokens.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultPricing returns the default input/output rates.
func DefaultPricing() Pricing {
	return Pricing{
		InputPerMillion:  DefaultInputPerMillion,
		OutputPerMillion: DefaultOutputPerMillion,
	}
}

// Cost returns the dollar cost of u. The function is linear and separable in
// input and output tokens.
func (p Pricing) Cost(u Usage) float64 {
	in := float64(u.InputTokens) / 1_000_000 * p.InputPerMillion
	out := float64(u.OutputTokens) / 1_000_000 * p.OutputPerMillion
	return in + out
}
