// Package providers searches, caches and filters relocation service
// providers: moving companies, utilities, housing and local services.
package providers

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Category string

const (
	CategoryMoving    Category = "moving"
	CategoryUtilities Category = "utilities"
	CategoryHousing   Category = "housing"
	CategoryLocal     Category = "local"
)

var categoryAliases = map[string]Category{
	"moving":          CategoryMoving,
	"movers":          CategoryMoving,
	"movingcompanies": CategoryMoving,
	"utilities":       CategoryUtilities,
	"utility":         CategoryUtilities,
	"housing":         CategoryHousing,
	"local":           CategoryLocal,
	"localservices":   CategoryLocal,
}

// ParseCategory accepts the category names used by the app, ignoring case,
// dashes and underscores.
func ParseCategory(s string) (Category, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	if c, ok := categoryAliases[norm]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// CostRange is a structured price estimate.
type CostRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// Provider is the common shape of every search result. Category-specific
// fields are empty for other categories.
type Provider struct {
	ID            string     `json:"id,omitempty"`
	Name          string     `json:"provider"`
	Category      Category   `json:"category,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Description   string     `json:"description,omitempty"`
	Website       string     `json:"website,omitempty"`
	ReferralURL   string     `json:"referralUrl,omitempty"`
	LogoURL       string     `json:"logoUrl,omitempty"`
	Rating        float64    `json:"rating"`
	Services      []string   `json:"services,omitempty"`
	EstimatedCost string     `json:"estimatedCost,omitempty"`
	CostRange     *CostRange `json:"costRange,omitempty"`

	// utilities
	ConnectionType string `json:"connectionType,omitempty"`
	MaxSpeed       string `json:"maxSpeed,omitempty"`
}

// UnmarshalJSON accepts "name" as well as "provider" for the display name and
// a rating sent either as a number or a numeric string.
func (p *Provider) UnmarshalJSON(data []byte) error {
	type plain Provider
	var raw struct {
		plain
		AltName string          `json:"name"`
		Rating  json.RawMessage `json:"rating"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Provider(raw.plain)
	if p.Name == "" {
		p.Name = raw.AltName
	}
	p.Rating = parseRating(raw.Rating)
	return nil
}

func parseRating(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

// URL is where a click on the provider should land: the referral link when
// there is one, otherwise the website.
func (p Provider) URL() string {
	if p.ReferralURL != "" {
		return p.ReferralURL
	}
	return p.Website
}

// Cost returns the structured range when the backend supplied one and falls
// back to parsing EstimatedCost.
func (p Provider) Cost() (CostRange, bool) {
	if p.CostRange != nil {
		return *p.CostRange, true
	}
	return ParseCostRange(p.EstimatedCost)
}

var (
	amountPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	currencySigns = map[string]string{"$": "USD", "€": "EUR", "£": "GBP"}
)

// ParseCostRange reads display strings such as "$1,200", "$800-1,500",
// "800 to 1500 USD" or "Free".
func ParseCostRange(s string) (CostRange, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CostRange{}, false
	}

	currency := "USD"
	for sign, code := range currencySigns {
		if strings.Contains(s, sign) {
			currency = code
			break
		}
	}

	matches := amountPattern.FindAllString(s, -1)
	if len(matches) == 0 {
		if strings.EqualFold(s, "free") {
			return CostRange{Currency: currency}, true
		}
		return CostRange{}, false
	}

	var amounts []float64
	for _, m := range matches {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err != nil {
			continue
		}
		amounts = append(amounts, v)
		if len(amounts) == 2 {
			break
		}
	}
	if len(amounts) == 0 {
		return CostRange{}, false
	}

	r := CostRange{Min: amounts[0], Max: amounts[0], Currency: currency}
	if len(amounts) == 2 {
		r.Max = amounts[1]
		if r.Max < r.Min {
			r.Min, r.Max = r.Max, r.Min
		}
	}
	return r, true
}
