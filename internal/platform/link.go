package platform

import (
	"net/url"
	"strings"
)

// SkipReason explains why an href was not turned into a download.
type SkipReason string

// Link skip reasons.
const (
	SkipEmptyHref   SkipReason = "empty_href"
	SkipNotHTTP     SkipReason = "not_http"
	SkipUnparseable SkipReason = "unparseable"
)

// LinkResolution is the outcome of resolving one anchor href.
type LinkResolution struct {
	Href       string
	URL        string
	SkipReason SkipReason
}

// OK reports whether the href resolved to an absolute http(s) URL.
func (l LinkResolution) OK() bool {
	return l.SkipReason == "" && l.URL != ""
}

// ResolveLink turns href into an absolute http(s) URL. The href is matched
// as written: hrefs starting with "/" are joined against base, hrefs starting
// with a lower-case "http" are kept verbatim when they parse as absolute
// http(s) URLs, and anything else is skipped.
func ResolveLink(base, href string) LinkResolution {
	res := LinkResolution{Href: href}
	if href == "" {
		res.SkipReason = SkipEmptyHref
		return res
	}

	if strings.HasPrefix(href, "http") {
		abs, err := url.Parse(href)
		switch {
		case err != nil:
			res.SkipReason = SkipUnparseable
		case !isHTTPURL(abs):
			res.SkipReason = SkipNotHTTP
		default:
			res.URL = href
		}
		return res
	}

	if !strings.HasPrefix(href, "/") {
		res.SkipReason = SkipNotHTTP
		return res
	}

	ref, err := url.Parse(href)
	if err != nil {
		res.SkipReason = SkipUnparseable
		return res
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		res.SkipReason = SkipUnparseable
		return res
	}

	joined := baseURL.ResolveReference(ref)
	if !isHTTPURL(joined) {
		res.SkipReason = SkipNotHTTP
		return res
	}

	res.URL = joined.String()
	return res
}

func isHTTPURL(u *url.URL) bool {
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
