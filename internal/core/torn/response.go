package torn

import (
	"encoding/json"
)

// APIError is Torn's in-band error envelope, returned with HTTP 200.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// authCodes are the Torn error codes that indicate an invalid or
// insufficiently privileged key.
var authCodes = map[int]bool{1: true, 2: true, 10: true, 11: true}

// IsAuth reports whether the error indicates a credential problem.
func (e *APIError) IsAuth() bool {
	return e != nil && authCodes[e.Code]
}

// DecodeError extracts the error envelope from a response body, or nil when
// the body carries no in-band error.
func DecodeError(body []byte) *APIError {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope.Error
}

// Bar is one of the user's status bars.
type Bar struct {
	Current int `json:"current"`
	Maximum int `json:"maximum"`
}

// Bars groups the status bars tornwatch consults.
type Bars struct {
	Energy Bar `json:"energy"`
	Nerve  Bar `json:"nerve"`
}

// UserProfile is the partial decode of the user/bars,profile selection.
type UserProfile struct {
	Bars Bars `json:"bars"`
}

// CooldownSet is the partial decode of the user/cooldowns selection.
// Values are seconds remaining.
type CooldownSet struct {
	Cooldowns struct {
		Crimes int `json:"crimes"`
	} `json:"cooldowns"`
}

// CrimesAllowed reports whether the crime cooldown has expired.
func (c *CooldownSet) CrimesAllowed() bool {
	return c != nil && c.Cooldowns.Crimes == 0
}

// Crime is one entry in the global crime catalog. Field names vary between
// API versions, so the aliases are decoded and resolved by the accessors.
type Crime struct {
	Name string `json:"name"`

	Nerve         int `json:"nerve"`
	NerveRequired int `json:"nerve_required"`
	NerveCostAlt  int `json:"nerveCost"`

	MoneyMin int64 `json:"money_min"`
	MoneyMax int64 `json:"money_max"`
	MinCash  int64 `json:"min_cash"`
	MaxCash  int64 `json:"max_cash"`
	Value    int64 `json:"value"`
}

// NerveCost resolves the nerve requirement across field aliases.
func (c Crime) NerveCost() int {
	switch {
	case c.Nerve > 0:
		return c.Nerve
	case c.NerveRequired > 0:
		return c.NerveRequired
	default:
		return c.NerveCostAlt
	}
}

// ExpectedCash is the mean of the payout range, falling back to the flat
// value when no range is published.
func (c Crime) ExpectedCash() float64 {
	minCash := c.MoneyMin
	if minCash == 0 {
		minCash = c.MinCash
	}
	maxCash := c.MoneyMax
	if maxCash == 0 {
		maxCash = c.MaxCash
	}
	if minCash != 0 || maxCash != 0 {
		return float64(minCash+maxCash) / 2
	}
	return float64(c.Value)
}

// CrimeCatalogPayload is the partial decode of the torn/crimes selection.
type CrimeCatalogPayload struct {
	Crimes map[string]Crime `json:"crimes"`
}

// BazaarListing is one bazaar offer for a market item.
type BazaarListing struct {
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// MarketPayload is the partial decode of the market/bazaar selection.
type MarketPayload struct {
	Bazaar []BazaarListing `json:"bazaar"`
}

// LowestPrice returns the cheapest bazaar listing, if any are published.
func (m *MarketPayload) LowestPrice() (float64, bool) {
	if m == nil || len(m.Bazaar) == 0 {
		return 0, false
	}

	lowest := m.Bazaar[0].Price
	for _, listing := range m.Bazaar[1:] {
		if listing.Price < lowest {
			lowest = listing.Price
		}
	}
	return lowest, true
}
