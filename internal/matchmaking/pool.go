// internal/matchmaking/pool.go
// Candidate pool construction: filter the directory, then shuffle once.

package matchmaking

import (
	"math/rand"
	"strings"
	"time"

	"github.com/Goutam96801/whoami/internal/chat"
)

// dateLayouts are the birthdate encodings the directory is known to emit.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

// ageAt resolves a user's age at the reference time, accounting for whether
// the birthday has occurred yet this year. Returns false when the birthdate
// cannot be parsed.
func ageAt(dateOfBirth string, now time.Time) (int, bool) {
	if dateOfBirth == "" {
		return 0, false
	}

	var born time.Time
	parsed := false
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateOfBirth); err == nil {
			born = t
			parsed = true
			break
		}
	}
	if !parsed {
		return 0, false
	}

	age := now.Year() - born.Year()
	anniversary := time.Date(now.Year(), born.Month(), born.Day(), 0, 0, 0, 0, time.UTC)
	if now.Before(anniversary) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}

func genderMatches(filter, gender string) bool {
	switch filter {
	case GenderGirls:
		return strings.EqualFold(gender, "female")
	case GenderBoys:
		return strings.EqualFold(gender, "male")
	default:
		return true
	}
}

// interestsOverlap reports whether the candidate shares at least one of the
// wanted interests, compared case-insensitively. An empty want set matches
// everyone.
func interestsOverlap(want, have []string) bool {
	if len(want) == 0 {
		return true
	}
	wanted := make(map[string]bool, len(want))
	for _, w := range want {
		wanted[strings.ToLower(strings.TrimSpace(w))] = true
	}
	for _, h := range have {
		if wanted[strings.ToLower(strings.TrimSpace(h))] {
			return true
		}
	}
	return false
}

// BuildPool filters the directory down to eligible candidates. The current
// user is always excluded. Users whose age cannot be resolved pass the age
// filter; the directory is sparse on birthdates and exclusion would empty
// most pools.
func BuildPool(directory []chat.User, filters Filters, selfID string, now time.Time) []chat.User {
	pool := make([]chat.User, 0, len(directory))
	for _, u := range directory {
		if u.ID == "" || u.ID == selfID {
			continue
		}
		if !genderMatches(filters.Gender, u.Gender) {
			continue
		}
		if age, ok := ageAt(u.DateOfBirth, now); ok {
			if age < filters.MinAge || age > filters.MaxAge {
				continue
			}
		}
		if !interestsOverlap(filters.Interests, u.Interests) {
			continue
		}
		pool = append(pool, u)
	}
	return pool
}

// Shuffle permutes the pool in place with a Fisher-Yates pass. Applied once
// when a search starts, never re-shuffled mid-session.
func Shuffle(pool []chat.User, rng *rand.Rand) {
	for i := len(pool) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
}
