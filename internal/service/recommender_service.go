package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"github.com/tmarlier/Castellan/config"
	"github.com/tmarlier/Castellan/internal/dto"
	"github.com/tmarlier/Castellan/internal/model"
	"github.com/tmarlier/Castellan/internal/repository"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

const (
	recommenderModel      = "gemini-1.5-flash"
	defaultRecommendCount = 5
	candidatePoolSize     = 50
)

// RecommenderService scores verified, unsolved puzzles for a user's
// personalized queue. It is a read-only consumer of the attempt history and
// never touches ratings. The LLM path is best-effort: any failure (missing
// key, network, malformed response) falls back to a deterministic
// rating-proximity heuristic.
type RecommenderService interface {
	Recommend(userID uint, count int) ([]dto.RecommendationDTO, error)
}

type recommenderService struct {
	client      *genai.GenerativeModel
	userRepo    repository.UserRepository
	puzzleRepo  repository.PuzzleRepository
	attemptRepo repository.AttemptRepository
}

func NewRecommenderService(
	cfg *config.Config,
	userRepo repository.UserRepository,
	puzzleRepo repository.PuzzleRepository,
	attemptRepo repository.AttemptRepository,
) (RecommenderService, error) {
	svc := &recommenderService{
		userRepo:    userRepo,
		puzzleRepo:  puzzleRepo,
		attemptRepo: attemptRepo,
	}

	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Recommendations will use the heuristic fallback only.")
		return svc, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	svc.client = client.GenerativeModel(recommenderModel)
	return svc, nil
}

type llmRecommendation struct {
	ID     uint    `json:"id"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

func (s *recommenderService) Recommend(userID uint, count int) ([]dto.RecommendationDTO, error) {
	if count <= 0 {
		count = defaultRecommendCount
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("fetching user %d: %w", userID, err)
	}

	history, err := s.attemptRepo.FindByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("fetching attempt history for user %d: %w", userID, err)
	}

	solved := make(map[uint]bool)
	var solvedIDs []uint
	for _, a := range history {
		if a.Completed && !solved[a.PuzzleID] {
			solved[a.PuzzleID] = true
			solvedIDs = append(solvedIDs, a.PuzzleID)
		}
	}

	candidates, err := s.puzzleRepo.FindVerifiedExcluding(solvedIDs, candidatePoolSize)
	if err != nil {
		return nil, fmt.Errorf("fetching candidate puzzles: %w", err)
	}
	if len(candidates) == 0 {
		return []dto.RecommendationDTO{}, nil
	}

	if s.client != nil {
		recs, err := s.recommendWithLLM(user, history, candidates, count)
		if err == nil {
			return recs, nil
		}
		log.Warn().Err(err).Uint("userID", userID).Msg("LLM recommendation failed, using heuristic fallback")
	}
	return s.recommendHeuristic(user, candidates, count), nil
}

func (s *recommenderService) recommendWithLLM(user *model.User, history []model.PuzzleAttempt, candidates []model.Puzzle, count int) ([]dto.RecommendationDTO, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a chess tactics coach. A solver rated %d wants %d puzzles that best advance their training.\n", user.Rating, count)
	fmt.Fprintf(&sb, "Recent attempts (puzzle id, completed, hints, seconds):\n")
	for i, a := range history {
		if i >= 20 {
			break
		}
		fmt.Fprintf(&sb, "- %d %t %d %d\n", a.PuzzleID, a.Completed, a.HintsUsed, a.TimeSpentSeconds)
	}
	fmt.Fprintf(&sb, "Candidate puzzles (id, rating, themes):\n")
	for _, p := range candidates {
		fmt.Fprintf(&sb, "- %d %d %s\n", p.ID, p.Rating, p.TacticalThemes)
	}
	sb.WriteString("Respond with a JSON array only, no prose: [{\"id\": number, \"score\": number between 0 and 1, \"reason\": string}]\n")

	resp, err := s.client.GenerateContent(context.Background(), genai.Text(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned an empty response")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("gemini returned a non-text part")
	}

	raw := strings.TrimSpace(string(text))
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var parsed []llmRecommendation
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parsing gemini recommendations: %w", err)
	}

	byID := make(map[uint]*model.Puzzle, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
	}

	recs := make([]dto.RecommendationDTO, 0, count)
	for _, r := range parsed {
		puzzle, ok := byID[r.ID]
		if !ok {
			// LLM hallucinated an id outside the candidate pool; drop it.
			continue
		}
		recs = append(recs, dto.RecommendationDTO{Puzzle: *puzzleToDTO(puzzle), Score: r.Score, Reason: r.Reason})
		if len(recs) == count {
			break
		}
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("gemini recommended no puzzles from the candidate pool")
	}
	return recs, nil
}

// recommendHeuristic ranks candidates by rating proximity to the solver.
// A puzzle at the solver's rating scores 1.0, falling off with distance.
func (s *recommenderService) recommendHeuristic(user *model.User, candidates []model.Puzzle, count int) []dto.RecommendationDTO {
	recs := make([]dto.RecommendationDTO, 0, len(candidates))
	for i := range candidates {
		distance := math.Abs(float64(candidates[i].Rating - user.Rating))
		recs = append(recs, dto.RecommendationDTO{
			Puzzle: *puzzleToDTO(&candidates[i]),
			Score:  1 / (1 + distance/400),
			Reason: "close to your current rating",
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > count {
		recs = recs[:count]
	}
	return recs
}
