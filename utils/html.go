package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// elements whose text HTML leaves unescaped, which XHTML cannot carry
const rawTextElements = "script, style, noscript, iframe, noembed, noframes, xmp, plaintext"

// StripComments removes every comment node below and including s.
func StripComments(s *goquery.Selection) *goquery.Selection {
	s.Find("*").AddSelection(s).Contents().FilterFunction(func(_ int, c *goquery.Selection) bool {
		return goquery.NodeName(c) == "#comment"
	}).Remove()
	return s
}

// StripUnsafe removes script, style and the other raw text elements below s.
func StripUnsafe(s *goquery.Selection) *goquery.Selection {
	s.Find(rawTextElements).Remove()
	return s
}

func Text(s *goquery.Selection) string {
	return strings.TrimSpace(s.First().Text())
}

// OuterHTML renders the first node of s including its own tag. An empty
// selection renders as "".
func OuterHTML(s *goquery.Selection) (string, error) {
	if s.Length() == 0 {
		return "", nil
	}
	return goquery.OuterHtml(s.First())
}

// CleanFragment parses an HTML fragment and renders it again so it can be
// embedded in an XHTML page: void elements are self-closed, entities are
// resolved, raw text elements and comments are dropped.
func CleanFragment(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(XMLChars(fragment)))
	if err != nil {
		return XMLChars(fragment)
	}
	html, err := StripUnsafe(StripComments(doc.Find("body"))).Html()
	if err != nil {
		return XMLChars(fragment)
	}
	return XMLChars(html)
}

// XMLChars drops the runes XML 1.0 does not allow in a document.
func XMLChars(s string) string {
	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, s)
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
