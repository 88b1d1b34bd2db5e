package domain

import "strings"

// Slugify derives the URL-safe identifier for a title: lowercase, runs of
// non-alphanumeric characters collapsed to a single hyphen, no leading or
// trailing hyphen. Deterministic; uniqueness is enforced at persistence time.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}

	return b.String()
}
