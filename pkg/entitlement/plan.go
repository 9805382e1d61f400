package entitlement

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Plan describes a purchasable PLUS price. The PriceID doubles as the
// checkout whitelist: only configured prices may be bought.
type Plan struct {
	PriceID   string          `yaml:"price_id"`
	Name      string          `yaml:"name"`
	Price     Money           `yaml:"price"`
	Interval  BillingInterval `yaml:"interval"`
	TrialDays int             `yaml:"trial_days"`
}

// PlanSource loads plan definitions into the service at startup.
type PlanSource interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

type inMemSource struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

// NewInMemSource returns a PlanSource backed by the given plans.
// Panics when no plans are provided: a service without a single
// purchasable price is a configuration error.
func NewInMemSource(plans ...Plan) PlanSource {
	if len(plans) == 0 {
		panic("entitlement: at least one plan is required")
	}
	byID := make(map[string]Plan, len(plans))
	for _, p := range plans {
		byID[p.PriceID] = p
	}
	return &inMemSource{plans: byID}
}

func (s *inMemSource) Load(ctx context.Context) (map[string]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.plans), nil
}

type yamlFileSource struct {
	path string
}

// NewYAMLFileSource returns a PlanSource that reads plan definitions from
// a YAML file of the form:
//
//	plans:
//	  - price_id: pri_plus_monthly
//	    name: PLUS Monthly
//	    price: {amount: 499, currency: USD}
//	    interval: monthly
//	    trial_days: 7
func NewYAMLFileSource(path string) PlanSource {
	return &yamlFileSource{path: path}
}

func (s *yamlFileSource) Load(ctx context.Context) (map[string]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if len(doc.Plans) == 0 {
		return nil, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("no plans defined in %s", s.path))
	}

	plans := make(map[string]Plan, len(doc.Plans))
	for _, p := range doc.Plans {
		if p.PriceID == "" {
			return nil, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("plan %q has no price_id", p.Name))
		}
		if p.TrialDays < 0 {
			return nil, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("plan %q has negative trial days", p.Name))
		}
		plans[p.PriceID] = p
	}
	return plans, nil
}
