// Package htmlutil holds the HTML helpers platform extractors build on:
// text cleanup, contact and address discovery, table flattening and
// jurisdiction guessing.
package htmlutil

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Parse builds a goquery document from raw markup.
func Parse(raw string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(raw))
}

// CleanText unescapes entities, normalizes to NFKC and collapses whitespace.
func CleanText(raw string) string {
	if raw == "" {
		return ""
	}
	s := html.UnescapeString(raw)
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// StripTags returns the text content of raw markup with script and style
// bodies removed. Text tokens are separated by a single space.
func StripTags(raw string) string {
	z := html.NewTokenizer(strings.NewReader(raw))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way the text so far is the result.
			return b.String()
		case html.StartTagToken:
			if isRawTextTag(z) {
				skip++
			}
		case html.EndTagToken:
			if isRawTextTag(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			b.Write(z.Text())
			b.WriteByte(' ')
		}
	}
}

func isRawTextTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style", "noscript":
		return true
	}
	return false
}

// OwnString returns the element's single string, following a chain of
// only-children down to a text node. It reports false when the element has
// zero or several children.
func OwnString(s *goquery.Selection) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	n := s.Get(0)
	for {
		c := n.FirstChild
		if c == nil || c.NextSibling != nil {
			return "", false
		}
		switch c.Type {
		case html.TextNode, html.CommentNode:
			return c.Data, true
		case html.ElementNode:
			n = c
		default:
			return "", false
		}
	}
}
