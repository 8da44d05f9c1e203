package transcript

import "net/url"

// ExtractVideoID returns the value of the "v" query parameter of a watch URL,
// or "" when the URL is malformed or carries no video id. Pure, no network.
func ExtractVideoID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return ""
	}
	return q.Get("v")
}
