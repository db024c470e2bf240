package tracker

import "math"

// Normal BMI band, kg/m².
const (
	MinNormalBMI = 18.5
	MaxNormalBMI = 24.9
)

// BMI categories.
const (
	CategoryUnderweight = "underweight"
	CategoryNormal      = "normal"
	CategoryOverweight  = "overweight"
	CategoryObese       = "obese"
)

// Body is the height-based view of a weight: BMI and the distance to the
// ideal weight for that height.
type Body struct {
	HeightCM    float64 `json:"heightCm"`
	BMI         float64 `json:"bmi"`
	Category    string  `json:"category"`
	MinNormalKG float64 `json:"minNormalKg"`
	MaxNormalKG float64 `json:"maxNormalKg"`
	IdealKG     float64 `json:"idealKg"`
	// DiffKG is current minus ideal; positive means above ideal.
	DiffKG float64 `json:"diffKg"`
	// Progress is how close the current weight is to ideal, 0-100.
	Progress float64 `json:"progress"`
}

// BMI is kg divided by height in metres squared. It is zero when either
// input is not positive.
func BMI(kg, heightCM float64) float64 {
	if kg <= 0 || heightCM <= 0 {
		return 0
	}
	m := heightCM / 100
	return kg / (m * m)
}

// BMICategory classifies a BMI value.
func BMICategory(bmi float64) string {
	switch {
	case bmi < MinNormalBMI:
		return CategoryUnderweight
	case bmi < 25:
		return CategoryNormal
	case bmi < 30:
		return CategoryOverweight
	default:
		return CategoryObese
	}
}

// NormalRange returns the weights bounding the normal BMI band at heightCM.
func NormalRange(heightCM float64) (minKG, maxKG float64) {
	m := heightCM / 100
	return MinNormalBMI * m * m, MaxNormalBMI * m * m
}

// IdealWeight is the midpoint of the normal range at heightCM.
func IdealWeight(heightCM float64) float64 {
	lo, hi := NormalRange(heightCM)
	return (lo + hi) / 2
}

// BodyOf derives the Body view for kg at heightCM. ok is false when either
// input is not positive.
func BodyOf(kg, heightCM float64) (b Body, ok bool) {
	if kg <= 0 || heightCM <= 0 {
		return Body{}, false
	}
	b = Body{HeightCM: heightCM, BMI: round1(BMI(kg, heightCM))}
	b.Category = BMICategory(BMI(kg, heightCM))
	lo, hi := NormalRange(heightCM)
	ideal := IdealWeight(heightCM)
	b.MinNormalKG, b.MaxNormalKG, b.IdealKG = round1(lo), round1(hi), round1(ideal)
	b.DiffKG = round1(kg - ideal)
	b.Progress = round1(min(max((1-math.Abs(kg-ideal)/kg)*100, 0), 100))
	return b, true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
