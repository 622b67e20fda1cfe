// Package extract pulls individual speeches out of Congressional Record
// granule markup. Tagging conventions drifted across document eras, so the
// extractor matches tags by local name only and tries an ordered list of
// attribute synonyms per logical field.
package extract

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// Speech is one contiguous spoken segment from a granule document.
type Speech struct {
	Speaker    string `json:"speaker"`
	BioguideID string `json:"bioguide_id"`
	Text       string `json:"text"`
}

// Attribute synonyms per logical field, tried in priority order; the first
// non-empty value wins. Extend conservatively when new eras introduce
// further variants.
var (
	speakerAttrs  = []string{"speaker", "speaker_name", "who"}
	bioguideAttrs = []string{"bioGuideId", "bioguide_id", "bioGuideID", "bioguideId"}
)

// Speeches parses a granule document and returns its speeches in document
// order. Malformed documents yield an empty slice, never an error: plain
// text and broken markup are expected upstream variability.
//
// The primary strategy emits one Speech per element whose local tag name
// is "speaking", regardless of namespace. When that yields nothing, the
// fallback joins every "p" element's text into a single anonymous Speech.
func Speeches(document string) []Speech {
	root, err := xmlquery.Parse(strings.NewReader(document))
	if err != nil {
		return nil
	}

	var speeches []Speech
	walkElements(root, "speaking", func(n *xmlquery.Node) {
		text := normalizeWhitespace(n.InnerText())
		if text == "" {
			return
		}
		speeches = append(speeches, Speech{
			Speaker:    firstAttr(n, speakerAttrs),
			BioguideID: firstAttr(n, bioguideAttrs),
			Text:       text,
		})
	})
	if len(speeches) > 0 {
		return speeches
	}

	var paragraphs []string
	walkElements(root, "p", func(n *xmlquery.Node) {
		if t := normalizeWhitespace(n.InnerText()); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})
	if len(paragraphs) == 0 {
		return nil
	}
	return []Speech{{Text: strings.Join(paragraphs, "\n\n")}}
}

// walkElements visits every element with the given local tag name in
// pre-order, ignoring namespace prefixes.
func walkElements(n *xmlquery.Node, local string, visit func(*xmlquery.Node)) {
	if n.Type == xmlquery.ElementNode && n.Data == local {
		visit(n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walkElements(child, local, visit)
	}
}

// firstAttr returns the first non-empty value among the named attributes.
func firstAttr(n *xmlquery.Node, names []string) string {
	for _, name := range names {
		for _, attr := range n.Attr {
			if attr.Name.Local == name && attr.Value != "" {
				return attr.Value
			}
		}
	}
	return ""
}

// normalizeWhitespace collapses runs of whitespace to single spaces and
// trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
