// Package letters implements the significant-letter projection used for
// chain continuity: ASCII letters only, case-folded. Digits, punctuation,
// spaces and accented characters are dropped, not folded.
package letters

// Significant returns the lowercase ASCII letters of a title, in order
func Significant(title string) string {
	out := make([]byte, 0, len(title))
	for i := 0; i < len(title); i++ {
		ch := title[i]
		switch {
		case ch >= 'a' && ch <= 'z':
			out = append(out, ch)
		case ch >= 'A' && ch <= 'Z':
			out = append(out, ch+('a'-'A'))
		}
	}
	return string(out)
}

// First returns the first significant letter of a title.
// ok is false when the title contains no ASCII letters.
func First(title string) (byte, bool) {
	s := Significant(title)
	if s == "" {
		return 0, false
	}
	return s[0], true
}

// Last returns the last significant letter of a title.
// ok is false when the title contains no ASCII letters.
func Last(title string) (byte, bool) {
	s := Significant(title)
	if s == "" {
		return 0, false
	}
	return s[len(s)-1], true
}
