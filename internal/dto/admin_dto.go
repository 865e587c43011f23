package dto

// CalibrationResultDTO is returned by the manual admin recalibration endpoint.
// Applied is false when the sample gate held the rating in place or the
// computed delta was zero.
type CalibrationResultDTO struct {
	PuzzleID    uint `json:"puzzle_id"`
	OldRating   int  `json:"old_rating"`
	NewRating   int  `json:"new_rating"`
	Delta       int  `json:"delta"`
	SampleCount int  `json:"sample_count"`
	Applied     bool `json:"applied"`
}
