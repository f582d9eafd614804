package service

import "strings"

// FTAClassifier decides whether a country pair enjoys preferential (FTA)
// treatment. It is the single source of truth for choosing the AHS rate
// field over the MFN field.
type FTAClassifier struct {
	members map[string]struct{}
}

// NewFTAClassifier builds a classifier over a fixed membership list.
func NewFTAClassifier(members []string) *FTAClassifier {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		if k := countryKey(m); k != "" {
			set[k] = struct{}{}
		}
	}
	return &FTAClassifier{members: set}
}

// HasFTA reports whether both countries belong to the membership set.
func (f *FTAClassifier) HasFTA(importCountry, exportCountry string) bool {
	_, imp := f.members[countryKey(importCountry)]
	_, exp := f.members[countryKey(exportCountry)]
	return imp && exp
}

func countryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
