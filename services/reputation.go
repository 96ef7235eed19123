package services

// Reputation scoring (tunable constants, same shape as fee constants in payment.go)
const (
	ReputationBase = 6
	ReputationMin  = 0
	ReputationMax  = 10

	// Counts per point of delta: every 5 praises is +1, every 5 reports is -1.
	countsPerPoint = 5
)

// Reputation maps cumulative praise/report counts to the bounded score.
// It is recomputed from the full counts on every change — never patched
// incrementally — so the stored score can't drift from the counts.
func Reputation(praiseCount, reportCount int) int {
	score := ReputationBase + praiseCount/countsPerPoint - reportCount/countsPerPoint
	if score < ReputationMin {
		return ReputationMin
	}
	if score > ReputationMax {
		return ReputationMax
	}
	return score
}
