// Package agegroup classifies visitors into the age brackets the dashboard
// reports on. Classification uses exact calendar age: the year difference is
// decremented when the birthday has not yet occurred this year.
package agegroup

import "time"

// Bracket is one of the six reporting brackets.
type Bracket string

const (
	Under18    Bracket = "<18"
	From18To24 Bracket = "18-24"
	From25To40 Bracket = "25-40"
	From41To59 Bracket = "41-59"
	Over60     Bracket = "60+"
	Unknown    Bracket = "unknown"
)

// All lists the brackets in reporting order.
var All = []Bracket{Under18, From18To24, From25To40, From41To59, Over60, Unknown}

// labels maps brackets to display labels.
var labels = map[Bracket]string{
	Under18:    "Under 18",
	From18To24: "18 to 24",
	From25To40: "25 to 40",
	From41To59: "41 to 59",
	Over60:     "60 or older",
	Unknown:    "Not informed",
}

// Label returns the display label for a bracket.
func (b Bracket) Label() string {
	if l, ok := labels[b]; ok {
		return l
	}
	return labels[Unknown]
}

// Parse maps a bracket string back to a Bracket, for CLI flags and stored
// filter criteria. Unrecognized input reports false.
func Parse(s string) (Bracket, bool) {
	for _, b := range All {
		if string(b) == s {
			return b, true
		}
	}
	return Unknown, false
}

// Age computes the exact calendar age at the reference time. Reports false
// when birth is the zero time.
func Age(birth, now time.Time) (int, bool) {
	if birth.IsZero() {
		return 0, false
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, true
}

// Classify maps a birth date to its bracket at the reference time. The zero
// birth time classifies as Unknown.
func Classify(birth, now time.Time) Bracket {
	age, ok := Age(birth, now)
	if !ok {
		return Unknown
	}
	switch {
	case age < 18:
		return Under18
	case age <= 24:
		return From18To24
	case age <= 40:
		return From25To40
	case age <= 59:
		return From41To59
	default:
		return Over60
	}
}
