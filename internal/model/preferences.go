package model

import "strings"

// Preferences narrow the pool of acceptable random-chat partners.
type Preferences struct {
	AgeRange  [2]int   `json:"ageRange,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Language  string   `json:"language,omitempty"`
}

// Normalize canonicalizes preference values at the boundary. The client-side
// sentinel "any" language is cleared rather than matched literally.
func (p Preferences) Normalize() Preferences {
	p.Language = strings.ToLower(strings.TrimSpace(p.Language))
	if p.Language == "any" {
		p.Language = ""
	}

	interests := make([]string, 0, len(p.Interests))
	for _, raw := range p.Interests {
		i := strings.ToLower(strings.TrimSpace(raw))
		if i != "" {
			interests = append(interests, i)
		}
	}
	p.Interests = interests

	if p.AgeRange[0] > p.AgeRange[1] {
		p.AgeRange[0], p.AgeRange[1] = p.AgeRange[1], p.AgeRange[0]
	}

	return p
}

// Compatible reports whether two normalized preference sets can be paired.
func (p Preferences) Compatible(other Preferences) bool {
	if p.Language != "" && other.Language != "" && p.Language != other.Language {
		return false
	}

	if !ageRangesOverlap(p.AgeRange, other.AgeRange) {
		return false
	}

	if len(p.Interests) > 0 && len(other.Interests) > 0 && !shareInterest(p.Interests, other.Interests) {
		return false
	}

	return true
}

func ageRangesOverlap(a, b [2]int) bool {
	// An unset range matches everyone.
	if a == [2]int{} || b == [2]int{} {
		return true
	}
	return a[0] <= b[1] && b[0] <= a[1]
}

func shareInterest(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, i := range a {
		set[i] = struct{}{}
	}
	for _, i := range b {
		if _, ok := set[i]; ok {
			return true
		}
	}
	return false
}
