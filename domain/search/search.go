package search

import (
	"strconv"
	"strings"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query represents the structured parameters of a message search.
// It decouples the raw user input from what the index needs.
type Query struct {
	RawInput string // The original input from the user
	Terms    string // The text to match against message content
	PeerID   string // Only messages exchanged with this user
	Language string // Only messages detected in this language (ISO 639-1)
	Limit    int
}

// NewSearchQuery parses a raw string to extract command-line style arguments.
// Example: leg day --with bob --lang en --limit 5
func NewSearchQuery(input string) Query {
	query := Query{
		RawInput: input,
		Limit:    DefaultLimit,
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			val := parts[i+1]
			switch strings.TrimPrefix(part, "--") {
			case "with":
				query.PeerID = val
			case "lang":
				query.Language = strings.ToLower(val)
			case "limit":
				if limit, err := strconv.Atoi(val); err == nil {
					query.Limit = limit
				}
			}
			i++ // Skip the value part in next iteration
			continue
		}
		textTerms = append(textTerms, part)
	}

	query.Terms = strings.Join(textTerms, " ")
	query.Limit = min(max(query.Limit, 1), MaxLimit)
	return query
}

// IsEmpty reports whether the query would match everything.
func (q Query) IsEmpty() bool {
	return q.Terms == "" && q.PeerID == "" && q.Language == ""
}
