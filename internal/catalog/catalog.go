// Package catalog holds the closed set of model identifiers this service can
// bind, each mapped to the vendor model string Gemini expects. The set is
// fixed at build time; unknown identifiers are a configuration error.
package catalog

import (
	"errors"
	"fmt"

	version "github.com/hashicorp/go-version"
)

// ID is a symbolic model identifier exposed to callers and picker UIs.
type ID string

const (
	Standard    ID = "standard"
	Vision      ID = "vision"
	Fast15      ID = "fast-1.5"
	Flash20     ID = "flash-2.0"
	Flash20Lite ID = "flash-2.0-lite"
	Pro20       ID = "pro-2.0"
)

// Default is the identifier bound when callers do not pick a model.
const Default = Flash20

// Family tags a catalog entry with its model generation. Per-family
// generation defaults key off this tag rather than sniffing the vendor
// string.
type Family string

const (
	FamilyStandard Family = "standard"
	Family15       Family = "gemini-1.5"
	Family20       Family = "gemini-2.0"
)

// familyVersions orders families for the latest-family computation.
var familyVersions = map[Family]*version.Version{
	FamilyStandard: version.Must(version.NewVersion("1.0")),
	Family15:       version.Must(version.NewVersion("1.5")),
	Family20:       version.Must(version.NewVersion("2.0")),
}

// Entry binds one identifier to its vendor model string and family.
type Entry struct {
	ID         ID
	VendorName string
	Family     Family
}

// entries is the whole catalog, in presentation order.
var entries = []Entry{
	{ID: Standard, VendorName: "gemini-pro", Family: FamilyStandard},
	{ID: Vision, VendorName: "gemini-pro-vision", Family: FamilyStandard},
	{ID: Fast15, VendorName: "gemini-1.5-flash", Family: Family15},
	{ID: Flash20, VendorName: "gemini-2.0-flash", Family: Family20},
	{ID: Flash20Lite, VendorName: "gemini-2.0-flash-lite", Family: Family20},
	{ID: Pro20, VendorName: "gemini-2.0-pro-exp-02-05", Family: Family20},
}

var byID = func() map[ID]Entry {
	m := make(map[ID]Entry, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	return m
}()

// latest is the highest family version present in the catalog, computed once
// so adding a newer family later shifts "latest" without touching call sites.
var latest = func() Family {
	var best Family
	for _, e := range entries {
		if best == "" || familyVersions[e.Family].GreaterThan(familyVersions[best]) {
			best = e.Family
		}
	}
	return best
}()

// ErrUnknownModel is returned for identifiers outside the catalog.
var ErrUnknownModel = errors.New("unknown model identifier")

// Resolve maps an identifier to its catalog entry.
func Resolve(id ID) (Entry, error) {
	e, ok := byID[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	return e, nil
}

// List returns the catalog in stable order.
func List() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// LatestFamily returns the newest family present in the catalog.
func LatestFamily() Family {
	return latest
}

// IsLatest reports whether the entry belongs to the newest family.
func (e Entry) IsLatest() bool {
	return e.Family == latest
}
