package scoring

// BonusConfig holds configurable bonus constants (defaults match requirements).
type BonusConfig struct {
	MaxBonus      int // default: 6
	BucketSeconds int // default: 10 (one point lost per completed bucket)
}

// DefaultBonusConfig returns production defaults.
func DefaultBonusConfig() BonusConfig {
	return BonusConfig{
		MaxBonus:      6,
		BucketSeconds: 10,
	}
}

// BonusPoints returns the time-decayed bonus for an answer submitted
// elapsedSeconds after the question opened. The same routine is used for the
// server's authoritative award and the client's between-push prediction, so
// the two can never disagree on the formula.
func BonusPoints(elapsedSeconds int) int {
	return DefaultBonusConfig().Points(elapsedSeconds)
}

// Points computes the bonus under this config: starts at MaxBonus and loses
// one point per completed BucketSeconds bucket, floored at zero. Negative
// elapsed values are clamped to zero.
func (c BonusConfig) Points(elapsedSeconds int) int {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	bonus := c.MaxBonus - elapsedSeconds/c.BucketSeconds
	if bonus < 0 {
		return 0
	}
	return bonus
}
