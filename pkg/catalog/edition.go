package catalog

import (
	"strings"
	"time"
)

// editionLayout is the "Month Year" format of edition names, e.g. "September 2022".
const editionLayout = "January 2006"

// editionSentinel is the date unparsable edition names sort as.
var editionSentinel = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseEdition returns the first day of the edition's month. Names that are
// not "Month Year" map to January 1970 so they sort below every real edition.
func ParseEdition(name string) time.Time {
	t, err := time.Parse(editionLayout, strings.TrimSpace(name))
	if err != nil {
		return editionSentinel
	}
	return t
}

// NewestEdition returns the latest edition name, optionally restricted to one
// region. An empty region considers every edition in the catalog. Ties keep the
// edition listed first.
func (c *Catalog) NewestEdition(region string) (string, error) {
	rel, ok := c.relations[RelEditions]
	if !ok || rel.Len() == 0 {
		return "", ErrNoEditions
	}

	ei, ok := rel.index[Edition]
	if !ok {
		return "", ErrNoEditions
	}
	ri, hasRegion := rel.index[Region]
	if region != "" && (!hasRegion || !rel.Contains(map[string]string{Region: region})) {
		return "", &UnknownRegionError{Region: region}
	}

	var newest string
	var newestDate time.Time
	found := false
	for _, row := range rel.rows {
		if region != "" && row[ri] != region {
			continue
		}
		name := row[ei]
		if name == "" {
			continue
		}
		d := ParseEdition(name)
		if !found || d.After(newestDate) {
			newest, newestDate, found = name, d, true
		}
	}
	if !found {
		return "", ErrNoEditions
	}
	return newest, nil
}
