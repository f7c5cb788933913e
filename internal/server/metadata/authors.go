package metadata

import "strings"

// AuthorsKind tells how the authors field was encoded by the caller.
type AuthorsKind int

const (
	// AuthorsJoined is a single comma-separated string, e.g. "alice, bob".
	AuthorsJoined AuthorsKind = iota
	// AuthorsList is an explicit list, e.g. repeated form values.
	AuthorsList
)

// Authors is the authors field as received, before normalization.
type Authors struct {
	Kind   AuthorsKind
	Joined string
	List   []string
}

// AuthorsFromValues tags raw values of the authors key: one value is a
// joined string, several values are a list. Callers that need a list of one
// send it under the authors[] key instead (see Fields.Authors).
func AuthorsFromValues(values []string) Authors {
	if len(values) == 1 {
		return Authors{Kind: AuthorsJoined, Joined: values[0]}
	}
	return Authors{Kind: AuthorsList, List: values}
}

// NormalizeAuthors returns the canonical ordered list. A joined string is
// split on commas, each entry trimmed and empty entries dropped; a list is
// used as given.
func NormalizeAuthors(a Authors) []string {
	if a.Kind == AuthorsList {
		return append([]string{}, a.List...)
	}

	parts := strings.Split(a.Joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
