// Package catalog holds the teacher tool directory and the query engine that
// filters, orders and paginates it.
package catalog

import "slices"

// Access badges carried in ToolRecord.Tags.
const (
	TagDirect     = "直连可用" // usable without a proxy
	TagRestricted = "网络受限" // needs an unrestricted network
)

// ToolRecord is one listed external tool. Records are loaded once and never
// modified at runtime.
type ToolRecord struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	URL         string   `json:"url" yaml:"url"`
	Category    string   `json:"category" yaml:"category"`
	Subcategory string   `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Tags        []string `json:"tags" yaml:"tags"`
	Featured    bool     `json:"featured,omitempty" yaml:"featured,omitempty"`
}

// HasTag reports whether the record carries tag exactly.
func (r ToolRecord) HasTag(tag string) bool {
	return slices.Contains(r.Tags, tag)
}

// IsDirect reports whether the record carries the direct-usable badge.
func (r ToolRecord) IsDirect() bool { return r.HasTag(TagDirect) }

// IsRestricted reports whether the record carries the restricted-access badge.
func (r ToolRecord) IsRestricted() bool { return r.HasTag(TagRestricted) }

// IDSet is a materialized set of record ids, used for favorites.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set. A nil set is empty.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}
