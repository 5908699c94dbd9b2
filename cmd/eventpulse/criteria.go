package main

import (
	"fmt"
	"strconv"
	"time"

	"eventpulse/internal/agegroup"
	"eventpulse/internal/filter"
)

// parseCriteria converts the filter flags into engine criteria.
func parseCriteria() (filter.Criteria, error) {
	var c filter.Criteria

	if flagFrom != "" {
		t, err := time.Parse("2006-01-02", flagFrom)
		if err != nil {
			return c, fmt.Errorf("invalid --from date %q: %w", flagFrom, err)
		}
		c.From = &t
	}
	if flagTo != "" {
		t, err := time.Parse("2006-01-02", flagTo)
		if err != nil {
			return c, fmt.Errorf("invalid --to date %q: %w", flagTo, err)
		}
		c.To = &t
	}

	for _, raw := range flagBrackets {
		b, ok := agegroup.Parse(raw)
		if !ok {
			return c, fmt.Errorf("unknown age bracket %q", raw)
		}
		c.Brackets = append(c.Brackets, b)
	}

	if flagHasAccount != "" {
		v, err := strconv.ParseBool(flagHasAccount)
		if err != nil {
			return c, fmt.Errorf("invalid --has-account value %q: %w", flagHasAccount, err)
		}
		c.HasAccount = &v
	}

	c.ActivationID = flagActivation
	return c, nil
}
