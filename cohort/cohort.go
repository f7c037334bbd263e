// Copyright 2021 The rtcohort authors.
// All rights reserved.

// Package cohort resolves human-readable country names into the
// standardized ISO 3166-1 alpha-3 codes used by the dataset.
package cohort

import (
	"fmt"

	"github.com/biter777/countries"
	"go.uber.org/zap"
)

// Cohort is the set of reference countries plus the focal country.
type Cohort struct {
	Focal string   // focal country's ISO3 code
	Codes []string // reference members' ISO3 codes, focal excluded
	Names map[string]string
}

// Resolve maps the supplied display names to ISO3 codes. Names that can't
// be resolved are dropped with a warning; a focal name that can't be
// resolved is an error, since the whole report is about that country.
// The focal country is always part of the result, whether or not it also
// appears in names, and never appears among Codes.
func Resolve(names []string, focal string, logger *zap.Logger) (*Cohort, error) {
	fc := countries.ByName(focal)
	if fc == countries.Unknown {
		return nil, fmt.Errorf("unknown focal country %q", focal)
	}

	c := &Cohort{
		Focal: fc.Alpha3(),
		Names: map[string]string{fc.Alpha3(): focal},
	}

	seen := map[string]struct{}{c.Focal: {}}
	for _, name := range names {
		cc := countries.ByName(name)
		if cc == countries.Unknown {
			logger.Warn("Dropping unresolvable country name",
				zap.String("name", name))
			continue
		}
		code := cc.Alpha3()
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		c.Codes = append(c.Codes, code)
		c.Names[code] = name
	}

	return c, nil
}

// All returns the focal code followed by the member codes.
func (c *Cohort) All() []string {
	return append([]string{c.Focal}, c.Codes...)
}

// Name returns the display name for an ISO3 code, falling back to the
// code itself.
func (c *Cohort) Name(code string) string {
	if n, ok := c.Names[code]; ok {
		return n
	}
	return code
}
