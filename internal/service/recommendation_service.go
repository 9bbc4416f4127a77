package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/loanhub/loanhub-api/internal/models"
	"github.com/loanhub/loanhub-api/internal/repository"
	"github.com/loanhub/loanhub-api/internal/utils"
	"github.com/loanhub/loanhub-api/pkg/openai"
)

// recommendationCount is the target number of recommended products. The
// result is shorter only when the catalog itself is.
const recommendationCount = 5

// ChatCompleter is the single outbound call to the language model.
// Implemented by openai.Client.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req openai.ChatRequest) (string, error)
}

// UserProfile is the onboarding profile a recommendation is built from.
type UserProfile struct {
	Income     string `json:"income"`
	Occupation string `json:"occupation"`
	Purpose    string `json:"purpose"`
}

// RecommendationService ranks the catalog for a user profile. The model
// proposes the ranking; everything it returns is reconciled against the
// catalog and padded deterministically, so the caller always receives
// min(5, catalog size) valid IDs unless the catalog is empty.
type RecommendationService struct {
	products ProductStore
	llm      ChatCompleter
}

// NewRecommendationService constructs a RecommendationService.
func NewRecommendationService(products ProductStore, llm ChatCompleter) *RecommendationService {
	return &RecommendationService{products: products, llm: llm}
}

// Recommend returns an ordered list of product IDs, best match first.
// Returns ErrEmptyCatalog when there is nothing to rank. Model failures are
// absorbed: the ranking degrades to lowest APR first.
func (s *RecommendationService) Recommend(ctx context.Context, profile UserProfile) ([]string, error) {
	catalog, err := s.products.GetAll(repository.ProductFilter{})
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, utils.ErrEmptyCatalog
	}

	picked := s.modelRanking(ctx, profile, catalog)
	return fillLowestAPR(catalog, picked), nil
}

// productSummary is the catalog view serialized into the prompt. Internal
// and free-form fields (faq, description, timestamps) stay out.
type productSummary struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Bank            *string  `json:"bank"`
	Type            *string  `json:"type"`
	RateAPR         *float64 `json:"rate_apr"`
	MinIncome       *float64 `json:"min_income"`
	MinCreditScore  *int     `json:"min_credit_score"`
	TenureMinMonths *int     `json:"tenure_min_months"`
	TenureMaxMonths *int     `json:"tenure_max_months"`
	Summary         *string  `json:"summary"`
}

// modelRanking asks the model for a ranking and returns only IDs that exist
// in the catalog, deduplicated and capped at recommendationCount. Any
// failure returns nil and leaves ranking to the deterministic fallback.
func (s *RecommendationService) modelRanking(ctx context.Context, profile UserProfile, catalog []models.Product) []string {
	summaries := make([]productSummary, 0, len(catalog))
	for _, p := range catalog {
		summaries = append(summaries, productSummary{
			ID:              p.ID,
			Name:            p.Name,
			Bank:            p.Bank,
			Type:            p.Type,
			RateAPR:         p.RateAPR,
			MinIncome:       p.MinIncome,
			MinCreditScore:  p.MinCreditScore,
			TenureMinMonths: p.TenureMinMonths,
			TenureMaxMonths: p.TenureMaxMonths,
			Summary:         p.Summary,
		})
	}
	catalogJSON, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("failed to serialize catalog for recommendation prompt")
		return nil
	}

	systemPrompt := fmt.Sprintf(`You are a loan recommendation expert. Based on the user's profile and available loan products, recommend exactly %d products that best match their needs.

User Profile:
- Income: %s
- Occupation: %s
- Loan Purpose: %s

Available Products:
%s

Your task:
1. Analyze the user's profile and loan purpose
2. Match products based on eligibility (income, credit score requirements)
3. Consider loan type relevance (e.g., education loans for education, home loans for home renovation)
4. Consider APR and terms that suit the user's profile
5. Return exactly %d product IDs in a JSON array, ordered by best match first

Return ONLY a JSON array of product IDs like: ["uuid1", "uuid2", "uuid3", "uuid4", "uuid5"]
Do not include any explanation or additional text.`,
		recommendationCount, profile.Income, profile.Occupation, profile.Purpose, catalogJSON, recommendationCount)

	raw, err := s.llm.ChatCompletion(ctx, openai.ChatRequest{
		Messages: []openai.Message{
			{Role: openai.RoleSystem, Content: systemPrompt},
			{Role: openai.RoleUser, Content: fmt.Sprintf("Recommend %d best loan products for me.", recommendationCount)},
		},
		Temperature: 0.3,
		MaxTokens:   200,
	})
	if err != nil {
		log.Warn().Err(err).Msg("recommendation model call failed, using APR fallback")
		return nil
	}

	valid := make(map[string]bool, len(catalog))
	for _, p := range catalog {
		valid[p.ID] = true
	}

	var picked []string
	seen := make(map[string]bool)
	for _, id := range parseProductIDs(raw) {
		// Drop hallucinated or repeated IDs.
		if !valid[id] || seen[id] {
			continue
		}
		seen[id] = true
		picked = append(picked, id)
		if len(picked) == recommendationCount {
			break
		}
	}
	if len(picked) == 0 {
		log.Warn().Str("response", raw).Msg("no usable product IDs in model response")
	}
	return picked
}

var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// parseProductIDs recovers an ID list from the model's text. Accepts a JSON
// array, a JSON-encoded string containing an array, or falls back to
// extracting UUID-shaped substrings.
func parseProductIDs(raw string) []string {
	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		switch v := parsed.(type) {
		case []interface{}:
			if ids := stringElements(v); len(ids) > 0 {
				return ids
			}
		case string:
			var inner []interface{}
			if err := json.Unmarshal([]byte(v), &inner); err == nil {
				if ids := stringElements(inner); len(ids) > 0 {
					return ids
				}
			}
		}
	}
	return uuidPattern.FindAllString(raw, -1)
}

func stringElements(values []interface{}) []string {
	var out []string
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// fillLowestAPR pads the chosen IDs to min(recommendationCount, catalog size)
// with the cheapest remaining products. A missing APR sorts last; equal APRs
// keep catalog order.
func fillLowestAPR(catalog []models.Product, chosen []string) []string {
	limit := recommendationCount
	if len(catalog) < limit {
		limit = len(catalog)
	}

	out := make([]string, 0, limit)
	seen := make(map[string]bool, limit)
	for _, id := range chosen {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		if len(out) == limit {
			return out
		}
	}

	byAPR := make([]models.Product, len(catalog))
	copy(byAPR, catalog)
	sort.SliceStable(byAPR, func(i, j int) bool {
		a, b := byAPR[i].RateAPR, byAPR[j].RateAPR
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})

	for _, p := range byAPR {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p.ID)
		if len(out) == limit {
			break
		}
	}
	return out
}
