package service

import (
	"math"
	"strings"

	"github.com/rs/zerolog/log"
)

// Feature weights for the creation-time rating estimate. Each static feature
// of the position and solution contributes an additive term on top of the
// base; the result is clamped to the valid rating range. This is a one-shot
// estimate, replaced by calibration once enough real attempts accumulate.
const (
	initialRatingBase = 1200

	materialPointWeight = 12
	materialTermCap     = 150

	captureWeight   = 30
	checkWeight     = 20
	mateWeight      = 40
	promotionWeight = 35
	complexityCap   = 300

	themeWeight  = 50
	themeTermCap = 150

	moveDepthWeight = 60
	moveDepthCap    = 240

	quietEvalBonusMax = 100

	initialRatingMin = 500
	initialRatingMax = 3000
)

var pieceValues = map[rune]int{'p': 1, 'n': 3, 'b': 3, 'r': 5, 'q': 9}

// InitialRatingService estimates a starting rating for a never-attempted
// puzzle from static features: material imbalance, move-sequence complexity,
// tactical theme count, solution length and (if the position was analysed)
// the engine evaluation magnitude.
type InitialRatingService interface {
	EstimateRating(fen, solution string, themes []string, engineEval *float64) int
}

type initialRatingService struct{}

func NewInitialRatingService() InitialRatingService {
	return &initialRatingService{}
}

func (s *initialRatingService) EstimateRating(fen, solution string, themes []string, engineEval *float64) int {
	rating := initialRatingBase

	rating += capped(materialImbalance(fen)*materialPointWeight, materialTermCap)
	rating += capped(moveComplexity(solution), complexityCap)
	rating += capped(len(themes)*themeWeight, themeTermCap)

	moves := strings.Fields(solution)
	if len(moves) > 1 {
		rating += capped((len(moves)-1)*moveDepthWeight, moveDepthCap)
	}

	// A small engine advantage means the win is subtle rather than forced,
	// which plays harder than the raw tactics suggest.
	if engineEval != nil {
		bonus := quietEvalBonusMax - int(math.Abs(*engineEval)*20)
		if bonus > 0 {
			rating += bonus
		}
	}

	if rating < initialRatingMin {
		rating = initialRatingMin
	}
	if rating > initialRatingMax {
		rating = initialRatingMax
	}

	log.Debug().Int("rating", rating).Int("moves", len(moves)).Int("themes", len(themes)).
		Msg("Estimated initial puzzle rating")
	return rating
}

// materialImbalance sums piece values from the FEN board field, white minus
// black, and returns the magnitude.
func materialImbalance(fen string) int {
	board := strings.Fields(fen)
	if len(board) == 0 {
		return 0
	}
	balance := 0
	for _, c := range board[0] {
		lower := c | 0x20
		value, ok := pieceValues[lower]
		if !ok {
			continue
		}
		if c == lower {
			balance -= value // black piece
		} else {
			balance += value
		}
	}
	if balance < 0 {
		return -balance
	}
	return balance
}

// moveComplexity scores the solution sequence by its forcing elements.
func moveComplexity(solution string) int {
	score := 0
	for _, move := range strings.Fields(solution) {
		if strings.Contains(move, "x") {
			score += captureWeight
		}
		if strings.Contains(move, "+") {
			score += checkWeight
		}
		if strings.Contains(move, "#") {
			score += mateWeight
		}
		if strings.Contains(move, "=") {
			score += promotionWeight
		}
	}
	return score
}

func capped(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}
