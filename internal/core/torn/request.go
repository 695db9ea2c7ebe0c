// Package torn describes the read-only Torn City API surface tornwatch polls:
// request descriptors, the error envelope, and partial response decoding.
package torn

import (
	"fmt"
	"strings"
)

// DefaultBaseURL is the production Torn API endpoint.
const DefaultBaseURL = "https://api.torn.com"

// Request describes one logical read-only API call.
type Request struct {
	Section    string
	ID         string
	Selections string
}

// User fetches a user's bars and profile.
func User(userID string) Request {
	return Request{Section: "user", ID: userID, Selections: "bars,profile"}
}

// Cooldowns fetches a user's cooldown timers.
func Cooldowns(userID string) Request {
	return Request{Section: "user", ID: userID, Selections: "cooldowns"}
}

// CrimeCatalog fetches the global crime list.
func CrimeCatalog() Request {
	return Request{Section: "torn", Selections: "crimes"}
}

// Market fetches bazaar listings for an item.
func Market(itemID int64) Request {
	return Request{Section: "market", ID: fmt.Sprintf("%d", itemID), Selections: "bazaar"}
}

// Path returns the URL path for the request, without query parameters.
func (r Request) Path() string {
	if r.ID != "" {
		return "/" + r.Section + "/" + r.ID
	}
	return "/" + r.Section
}

// Query returns the query parameters including the secret key. Callers must
// redact before any value derived from this reaches a log or the store.
func (r Request) Query(key string) map[string]string {
	params := map[string]string{"key": key}
	if r.Selections != "" {
		params["selections"] = r.Selections
	}
	return params
}

// Describe returns the redaction-safe identity of the request, used as audit
// payload and log context.
func (r Request) Describe() map[string]any {
	payload := map[string]any{"section": r.Section, "path": r.Path()}
	if r.Selections != "" {
		payload["selections"] = r.Selections
	}
	return payload
}

// RedactURL strips the API key from a request URL.
func RedactURL(url string) string {
	if i := strings.Index(url, "key="); i >= 0 {
		return url[:i] + "key=REDACTED"
	}
	return url
}
