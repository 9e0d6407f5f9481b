// Package address turns loosely formatted US address strings into
// structured fields.
package address

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	zipPattern   = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	statePattern = regexp.MustCompile(`^[A-Z]{2}$`)
	// trailing state code in the second comma part, e.g. "Austin TX".
	trailingState = regexp.MustCompile(`^(.*?)\s*\b([A-Z]{2})$`)
)

// Address is a best-effort structured address. Any field may be empty.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Searchable reports whether the address carries the city and state every
// provider search needs.
func (a Address) Searchable() bool {
	return a.City != "" && a.State != ""
}

// WithFallback fills a blank city or state with the given defaults.
func (a Address) WithFallback(city, state string) Address {
	if a.City == "" {
		a.City = city
	}
	if a.State == "" {
		a.State = state
	}
	return a
}

// String renders the address as "street, city, state zip", skipping blanks.
func (a Address) String() string {
	var parts []string
	if a.Street != "" {
		parts = append(parts, a.Street)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	tail := strings.TrimSpace(a.State + " " + a.Zip)
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// Parse splits raw into street, city, state and zip. It never fails; fields
// it cannot find are left empty.
func Parse(raw string) Address {
	var a Address
	working := strings.TrimSpace(raw)
	if working == "" {
		return a
	}

	// The ZIP is conventionally last, so a five-digit house number ahead of
	// it is not mistaken for one.
	if locs := zipPattern.FindAllStringIndex(working, -1); len(locs) > 0 {
		loc := locs[len(locs)-1]
		a.Zip = working[loc[0]:loc[1]]
		working = working[:loc[0]] + " " + working[loc[1]:]
	}
	working = clean(working)

	if parts := splitCommas(working); len(parts) >= 2 {
		return parseCommaParts(a, parts)
	}
	return parseWords(a, strings.Fields(strings.ReplaceAll(working, ",", " ")))
}

func parseCommaParts(a Address, parts []string) Address {
	if len(parts) >= 3 {
		a.Street, a.City, a.State = parts[0], parts[1], parts[2]
		return a
	}

	m := trailingState.FindStringSubmatch(parts[1])
	if m == nil {
		// no state code: a leading house number marks part one as the street
		if unicode.IsDigit(rune(parts[0][0])) {
			a.Street, a.City = parts[0], parts[1]
		} else {
			a.City = parts[0]
		}
		return a
	}

	a.State = m[2]
	if city := strings.TrimSpace(m[1]); city != "" {
		a.Street, a.City = parts[0], city
	} else {
		a.City = parts[0]
	}
	return a
}

func parseWords(a Address, words []string) Address {
	if len(words) == 0 {
		return a
	}

	for i, w := range words {
		if !statePattern.MatchString(w) {
			continue
		}
		a.State = w
		before := words[:i]
		if len(before) > 0 {
			a.City = before[len(before)-1]
			a.Street = strings.Join(before[:len(before)-1], " ")
		}
		return a
	}

	if unicode.IsDigit(rune(words[0][0])) {
		a.City = words[len(words)-1]
		a.Street = strings.Join(words[:len(words)-1], " ")
		return a
	}

	a.City = strings.Join(words, " ")
	return a
}

func splitCommas(s string) []string {
	if !strings.Contains(s, ",") {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// clean collapses whitespace and strips dangling separators left behind once
// the ZIP is cut out.
func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, " ,", ",")
	return strings.Trim(s, " ,")
}
