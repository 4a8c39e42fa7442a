package testdata

import (
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jordanlanch/dealboard/pkg/models"
	"github.com/jordanlanch/dealboard/pkg/stage"
)

// DealGeneratorConfig configures deal generation parameters
type DealGeneratorConfig struct {
	Count       int
	AgentIDs    []int
	Sources     []string
	Stages      []stage.Stage // empty means all catalog stages
	MinValue    float64
	MaxValue    float64
	AgentChance float64 // 0.0-1.0 probability of having an agent assigned
}

// DefaultSources are the origin tags used when none are configured
var DefaultSources = []string{"referral", "website", "cold_call", "open_house", "social_media"}

// GenerateDeals produces a deterministic-enough fake deal set for tests and
// seeding. IDs are assigned sequentially starting at 1.
func GenerateDeals(cfg DealGeneratorConfig) []*models.Deal {
	if cfg.Count <= 0 {
		return nil
	}
	if cfg.MaxValue <= 0 {
		cfg.MinValue, cfg.MaxValue = 50000, 900000
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources
	}
	stages := cfg.Stages
	if len(stages) == 0 {
		for _, def := range stage.All() {
			stages = append(stages, def.ID)
		}
	}

	deals := make([]*models.Deal, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		st := stages[rand.Intn(len(stages))]
		def, _ := stage.ByID(st)

		created := gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now().AddDate(0, 0, -1))
		deal := &models.Deal{
			ID:            i + 1,
			Stage:         string(st),
			Probability:   def.DefaultProbability,
			ExpectedValue: gofakeit.Float64Range(cfg.MinValue, cfg.MaxValue),
			Currency:      "EUR",
			Priority:      randomPriority(),
			Source:        cfg.Sources[rand.Intn(len(cfg.Sources))],
			CreatedAt:     created,
			UpdatedAt:     created,
			Lead: &models.LeadSummary{
				Name:  gofakeit.Name(),
				Email: gofakeit.Email(),
				Phone: gofakeit.Phone(),
			},
		}

		if len(cfg.AgentIDs) > 0 && rand.Float64() < cfg.AgentChance {
			agentID := cfg.AgentIDs[rand.Intn(len(cfg.AgentIDs))]
			deal.AgentID = &agentID
			deal.Agent = &models.AgentSummary{Name: gofakeit.Name(), Email: gofakeit.Email()}
		}

		if def.Terminal {
			closed := gofakeit.DateRange(created, time.Now())
			deal.ClosedAt = &closed
			deal.LastStageChangeDate = &closed
			deal.StageChangesCount = rand.Intn(5) + 1
			deal.CloseReason = gofakeit.Sentence(4)
			if st == stage.ClosedWon {
				deal.ActualValue = deal.ExpectedValue * gofakeit.Float64Range(0.8, 1.1)
				deal.Probability = 100
			} else {
				deal.Probability = 0
			}
		}

		deals = append(deals, deal)
	}
	return deals
}

func randomPriority() models.Priority {
	priorities := []models.Priority{
		models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent,
	}
	return priorities[rand.Intn(len(priorities))]
}
