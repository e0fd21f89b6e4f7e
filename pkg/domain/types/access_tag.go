package types

import "github.com/m-mizutani/goerr/v2"

// AccessTag is a visibility label attached to document chunks and users.
// A chunk is visible to a user only when their tag sets intersect.
type AccessTag string

const (
	TagHROnly        AccessTag = "hr_only"
	TagITOnly        AccessTag = "it_only"
	TagFinanceOnly   AccessTag = "finance_only"
	TagGeneralAccess AccessTag = "general_access"

	// TagAdmin is an administrative tag outside the closed classification set.
	// It grants ingestion and purge capabilities, not chunk visibility by itself.
	TagAdmin AccessTag = "admin"
)

// AllAccessTags returns the closed set of classifiable access tags.
// Administrative tags such as "admin" are not part of this set.
func AllAccessTags() []AccessTag {
	return []AccessTag{
		TagFinanceOnly,
		TagGeneralAccess,
		TagHROnly,
		TagITOnly,
	}
}

// IsValid checks if the tag is a member of the closed classification set
func (t AccessTag) IsValid() bool {
	switch t {
	case TagHROnly, TagITOnly, TagFinanceOnly, TagGeneralAccess:
		return true
	default:
		return false
	}
}

// String returns the string representation of the access tag
func (t AccessTag) String() string {
	return string(t)
}

// ParseAccessTag parses a string into a member of the closed classification set
func ParseAccessTag(s string) (AccessTag, error) {
	tag := AccessTag(s)
	if !tag.IsValid() {
		return "", goerr.New("invalid access tag", goerr.V("tag", s))
	}
	return tag, nil
}

// TagSet is an unordered set of access tags
type TagSet []AccessTag

// NewTagSet builds a TagSet, dropping duplicates and empty values.
// Values outside the closed set are accepted as administrative tags.
func NewTagSet(tags ...AccessTag) TagSet {
	seen := make(map[AccessTag]bool, len(tags))
	result := make(TagSet, 0, len(tags))
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
	}
	return result
}

// NewTagSetFromStrings builds a TagSet from raw strings, typically
// loaded from a persistence layer
func NewTagSetFromStrings(tags ...string) TagSet {
	converted := make([]AccessTag, len(tags))
	for i, t := range tags {
		converted[i] = AccessTag(t)
	}
	return NewTagSet(converted...)
}

// Contains reports whether the set includes the given tag
func (s TagSet) Contains(tag AccessTag) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// Intersects reports whether the two sets share at least one tag
func (s TagSet) Intersects(other TagSet) bool {
	for _, t := range s {
		if other.Contains(t) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the set has no tags
func (s TagSet) IsEmpty() bool {
	return len(s) == 0
}

// Strings returns the tags as plain strings
func (s TagSet) Strings() []string {
	result := make([]string, len(s))
	for i, t := range s {
		result[i] = string(t)
	}
	return result
}
