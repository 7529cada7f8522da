package normalization

import (
  "strings"
)

// ParseInputString trims surrounding whitespace and collapses interior runs
// of whitespace into single spaces.
func ParseInputString(s string) string {
  return strings.Join(strings.Fields(s), " ")
}

// ParseInputStringPtr is ParseInputString for optional fields. Nil stays nil.
func ParseInputStringPtr(s *string) *string {
  if s == nil {
    return nil
  }
  normalized := ParseInputString(*s)
  return &normalized
}

// ParseEmail normalizes an email address for comparison and storage.
func ParseEmail(s string) string {
  return strings.ToLower(ParseInputString(s))
}
