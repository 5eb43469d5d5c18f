package depth

import "math"

// Monocular fallback constants, calibrated for a typical webcam FOV
const (
	// When a face fills ~20% of frame width the person is ~1m away:
	// distance = calibrationConstant / faceWidth
	calibrationConstant = 0.2

	minEstimate = 0.3
	maxEstimate = 5.0
)

// EstimateFromFaceWidth approximates distance from the normalized face width
// when no depth sensor is available. Returns 0 if the width is invalid.
// Accuracy is roughly ±30% under 3 meters.
func EstimateFromFaceWidth(faceWidth float64) float64 {
	if faceWidth <= 0 || faceWidth > 1 {
		return 0
	}

	distance := calibrationConstant / faceWidth
	if distance < minEstimate {
		distance = minEstimate
	}
	if distance > maxEstimate {
		distance = maxEstimate
	}
	return distance
}

// Category returns a human-readable distance bucket
func Category(distance float64) string {
	if distance <= 0 || math.IsNaN(distance) {
		return "unknown"
	}
	if distance < 0.5 {
		return "very close"
	}
	if distance < 1.0 {
		return "close"
	}
	if distance < 2.0 {
		return "nearby"
	}
	if distance < 3.0 {
		return "moderate"
	}
	return "far"
}
