package domain

import "strings"

// isSeparator reports whether r splits two names. Only the ASCII comma,
// semicolon and newline qualify; full-width punctuation stays part of a name.
func isSeparator(r rune) bool {
	return r == '\n' || r == ',' || r == ';'
}

// Normalize turns pasted or uploaded text into a NameList. Runs of
// separators count as one, every token is trimmed and empty tokens are
// dropped. Order of appearance is kept and duplicates are not removed.
func Normalize(raw string) NameList {
	fields := strings.FieldsFunc(raw, isSeparator)
	names := make(NameList, 0, len(fields))
	for _, f := range fields {
		if name := strings.TrimSpace(f); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// FindDuplicates returns each distinct name that occurs more than once,
// in the order its first repeat appears.
func FindDuplicates(list NameList) []string {
	seen := make(map[string]struct{}, len(list))
	reported := make(map[string]struct{})
	var dups []string
	for _, name := range list {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			continue
		}
		if _, ok := reported[name]; ok {
			continue
		}
		reported[name] = struct{}{}
		dups = append(dups, name)
	}
	return dups
}

// Deduplicate keeps the first occurrence of every name and drops later
// repeats. The input is not modified.
func Deduplicate(list NameList) NameList {
	seen := make(map[string]struct{}, len(list))
	out := make(NameList, 0, len(list))
	for _, name := range list {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Text renders the list one name per line, the canonical backing text of a
// session after an explicit rewrite such as Deduplicate.
func (l NameList) Text() string {
	return strings.Join(l, "\n")
}
