package dom

import "net/url"

// resolveURL resolves ref against base, returning "" if either fails to
// parse. Absolute refs are returned unchanged (net/url.ResolveReference
// already does this, but an empty/invalid base should not produce a
// misleading result).
func resolveURL(base, ref string) string {
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if r.IsAbs() {
		return r.String()
	}
	if base == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}
