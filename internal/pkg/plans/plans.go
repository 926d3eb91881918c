package plans

import "strings"

// Billing periods.
const (
	PeriodWeek     = "week"
	PeriodMonth    = "month"
	PeriodYear     = "year"
	PeriodLifetime = "lifetime"
)

// UnlimitedPosts marks a plan without a monthly post cap.
const UnlimitedPosts = -1

// Plan is one entry of the static catalog: a named bundle of feature flags,
// a credit grant and a monthly post limit.
type Plan struct {
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	Currency         string  `json:"currency"`
	Period           string  `json:"period"`
	PremiumTemplates bool    `json:"premium_templates"`
	ViralityScore    bool    `json:"virality_score"`
	ABTesting        bool    `json:"ab_testing"`
	AdvancedAI       bool    `json:"advanced_ai"`
	PrioritySupport  bool    `json:"priority_support"`
	CreditsIncluded  int     `json:"credits_included"`
	MonthlyPostLimit int     `json:"monthly_post_limit"`
}

// Unlimited reports whether the plan has no monthly post cap.
func (p Plan) Unlimited() bool {
	return p.MonthlyPostLimit == UnlimitedPosts
}

var catalog = []Plan{
	{
		Name:             "Starter",
		Price:            0,
		Currency:         "INR",
		Period:           PeriodMonth,
		ViralityScore:    true,
		CreditsIncluded:  0,
		MonthlyPostLimit: 5,
	},
	{
		Name:             "Creator Pass",
		Price:            199,
		Currency:         "INR",
		Period:           PeriodWeek,
		PremiumTemplates: true,
		ViralityScore:    true,
		CreditsIncluded:  25,
		MonthlyPostLimit: UnlimitedPosts,
	},
	{
		Name:             "Pro",
		Price:            499,
		Currency:         "INR",
		Period:           PeriodMonth,
		PremiumTemplates: true,
		ViralityScore:    true,
		ABTesting:        true,
		AdvancedAI:       true,
		CreditsIncluded:  100,
		MonthlyPostLimit: UnlimitedPosts,
	},
	{
		Name:             "Pro Annual",
		Price:            4499,
		Currency:         "INR",
		Period:           PeriodYear,
		PremiumTemplates: true,
		ViralityScore:    true,
		ABTesting:        true,
		AdvancedAI:       true,
		PrioritySupport:  true,
		CreditsIncluded:  1200,
		MonthlyPostLimit: UnlimitedPosts,
	},
	{
		Name:             "Lifetime",
		Price:            9999,
		Currency:         "INR",
		Period:           PeriodLifetime,
		PremiumTemplates: true,
		ViralityScore:    true,
		ABTesting:        true,
		AdvancedAI:       true,
		PrioritySupport:  true,
		CreditsIncluded:  3000,
		MonthlyPostLimit: UnlimitedPosts,
	},
}

// Starter is the free tier every unknown identity falls back to.
func Starter() Plan {
	return catalog[0]
}

// Unlimited is the synthetic plan assigned to allow-listed accounts.
func Unlimited() Plan {
	return Plan{
		Name:             "Unlimited",
		Period:           PeriodLifetime,
		PremiumTemplates: true,
		ViralityScore:    true,
		ABTesting:        true,
		AdvancedAI:       true,
		PrioritySupport:  true,
		MonthlyPostLimit: UnlimitedPosts,
	}
}

// Catalog returns a copy of the full plan catalog.
func Catalog() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

// ByName resolves a plan name case-insensitively, falling back to Starter.
func ByName(name string) Plan {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, p := range catalog {
		if strings.ToLower(p.Name) == n {
			return p
		}
	}
	return Starter()
}
