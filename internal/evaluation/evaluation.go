// Package evaluation holds the threshold classifier and the aggregate math
// applied to practice readings. Everything here is pure; persistence and
// transport live elsewhere.
package evaluation

import "math"

// Optimal ranges for a correct canalization technique. The roll range is only
// advisory (returned to AR clients), it does not enter the classifier.
const (
	PitchMin = 10.0
	PitchMax = 30.0
	RollMin  = -15.0
	RollMax  = 15.0
	ForceMin = 50.0
	ForceMax = 300.0
)

// Widened ranges granting partial credit in the automatic grade.
const (
	pitchWideMin = 5.0
	pitchWideMax = 35.0
	forceWideMin = 30.0
	forceWideMax = 350.0
)

// TechniqueCorrect classifies a single reading: pitch and force both inside
// their optimal ranges. Static thresholds, no hysteresis.
func TechniqueCorrect(pitch, force float64) bool {
	return pitch >= PitchMin && pitch <= PitchMax &&
		force >= ForceMin && force <= ForceMax
}

// Sample is the slice of a reading the aggregates care about.
type Sample struct {
	Pitch   float64
	Force   float64
	Correct bool
}

// Stats are the aggregates computed over a practice's readings.
type Stats struct {
	Count        int
	CorrectCount int
	MeanPitch    float64
	MeanForce    float64
	MaxForce     float64
	MinForce     float64
	Accuracy     float64 // percent of correct readings, 0 when empty

	AngleAdequate      bool
	PressureControlled bool
	TechniqueCorrect   bool
}

// Compute aggregates samples. With no samples every numeric field is zero and
// all criteria are false.
func Compute(samples []Sample) Stats {
	var st Stats
	st.Count = len(samples)
	if st.Count == 0 {
		return st
	}

	var pitchSum, forceSum float64
	st.MaxForce = samples[0].Force
	st.MinForce = samples[0].Force
	for _, s := range samples {
		pitchSum += s.Pitch
		forceSum += s.Force
		if s.Force > st.MaxForce {
			st.MaxForce = s.Force
		}
		if s.Force < st.MinForce {
			st.MinForce = s.Force
		}
		if s.Correct {
			st.CorrectCount++
		}
	}

	st.MeanPitch = pitchSum / float64(st.Count)
	st.MeanForce = forceSum / float64(st.Count)
	st.Accuracy = float64(st.CorrectCount) / float64(st.Count) * 100

	st.AngleAdequate = st.MeanPitch >= PitchMin && st.MeanPitch <= PitchMax
	st.PressureControlled = st.MeanForce >= ForceMin && st.MeanForce <= ForceMax
	st.TechniqueCorrect = st.AngleAdequate && st.PressureControlled
	return st
}

// Accuracy is the percentage of correct readings, 0 when total is 0.
func Accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// Grade derives the automatic 0-5 grade from the aggregates:
// 2.0 points scaled by accuracy, plus up to 1.5 per criterion, with 1.0
// partial credit when the mean falls in the widened band. Rounded to two
// decimals; the construction caps it at 5.0.
func Grade(st Stats) float64 {
	g := 2.0 * st.Accuracy / 100
	g += criterionPoints(st.MeanPitch, PitchMin, PitchMax, pitchWideMin, pitchWideMax)
	g += criterionPoints(st.MeanForce, ForceMin, ForceMax, forceWideMin, forceWideMax)
	return Round2(g)
}

func criterionPoints(v, min, max, wideMin, wideMax float64) float64 {
	switch {
	case v >= min && v <= max:
		return 1.5
	case v >= wideMin && v <= wideMax:
		return 1.0
	}
	return 0
}

// SmoothLatency folds a new latency sample into the running average with an
// 80/20 exponential moving average. The first sample (prev == 0) sets the
// average directly.
func SmoothLatency(prev, sample float64) float64 {
	if prev == 0 {
		return sample
	}
	return prev*0.8 + sample*0.2
}

// Round2 rounds to two decimals, the precision every aggregate is reported at.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
