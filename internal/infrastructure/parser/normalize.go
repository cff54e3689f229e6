package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const textSeparator = ". "

// markupTag matches the tag set news feeds embed in descriptions. Anything
// else starting with '<' is text.
var markupTag = regexp.MustCompile(`(?i)</?(a|abbr|b|blockquote|br|code|div|em|figcaption|figure|font|h[1-6]|hr|i|iframe|img|li|ol|p|pre|script|section|small|span|strong|style|sub|sup|table|td|th|tr|u|ul)\b[^<>]*>`)

var entity = regexp.MustCompile(`&(?:[a-zA-Z]+|#[0-9]+|#[xX][0-9a-fA-F]+);`)

// blockTags separate the words on either side of them.
var blockTags = map[string]bool{
	"blockquote": true, "br": true, "div": true, "figcaption": true, "figure": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"hr": true, "li": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// ComposeText joins title and description into the labeling text.
// Missing parts are dropped instead of leaving a dangling separator, so an
// article without either field yields "".
func ComposeText(title, description string) string {
	title = Clean(title)
	description = Clean(description)

	switch {
	case title == "":
		return description
	case description == "":
		return title
	default:
		return title + textSeparator + description
	}
}

// Clean strips known markup and collapses whitespace. Values without a
// known tag or entity are only whitespace-collapsed.
func Clean(value string) string {
	if markupTag.MatchString(value) || entity.MatchString(value) {
		value = stripHTML(value)
	}
	return strings.Join(strings.Fields(value), " ")
}

// stripHTML returns the text content of a fragment. Inline tags join their
// neighbours, block tags separate them; a '<' outside a known tag is kept
// literally. Unparsable input is returned as is.
func stripHTML(fragment string) string {
	var b strings.Builder
	last := 0
	for _, m := range markupTag.FindAllStringSubmatchIndex(fragment, -1) {
		b.WriteString(strings.ReplaceAll(fragment[last:m[0]], "<", "&lt;"))
		b.WriteString(fragment[m[0]:m[1]])
		if blockTags[strings.ToLower(fragment[m[2]:m[3]])] {
			b.WriteString(" ")
		}
		last = m[1]
	}
	b.WriteString(strings.ReplaceAll(fragment[last:], "<", "&lt;"))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.String()))
	if err != nil {
		return fragment
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}
