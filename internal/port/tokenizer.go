package port

// TokenEstimator approximates how many model tokens a text costs. Estimates
// are fractional so that sums over many short texts stay unbiased.
type TokenEstimator interface {
	CountTokens(text string) float64
}
