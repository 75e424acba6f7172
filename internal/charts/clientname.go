package charts

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// clientNameScanLimit bounds how far into the document the name scan looks.
// Planning documents put the couple's name on the cover page, so anything
// past the first screen of paragraphs is body text.
const clientNameScanLimit = 20

// clientNameDenylist disqualifies headings that carry an ampersand but name
// the firm or the document type rather than the clients.
var clientNameDenylist = []string{
	"cashflow",
	"forecast",
	"report",
	"statement",
	"plan",
	"planning",
	"financial",
	"wealth",
	"limited",
	"ltd",
	"llp",
}

// ClientNameFromParagraphs returns the first paragraph that reads like a
// client couple's name: it contains an ampersand, runs to at most five
// words, and carries none of the denylist tokens.
func ClientNameFromParagraphs(paras []string) string {
	limit := len(paras)
	if limit > clientNameScanLimit {
		limit = clientNameScanLimit
	}
	for _, p := range paras[:limit] {
		candidate := strings.TrimSpace(p)
		if candidate == "" || !strings.Contains(candidate, "&") {
			continue
		}
		if len(strings.Fields(candidate)) > 5 {
			continue
		}
		if hasDenyToken(candidate) {
			continue
		}
		return candidate
	}
	return ""
}

func hasDenyToken(s string) bool {
	lower := strings.ToLower(s)
	for _, tok := range clientNameDenylist {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

func documentParagraphs(zr *zip.Reader, limit int) ([]string, error) {
	f, err := zr.Open(documentPart)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", documentPart, err)
	}
	defer f.Close()
	return paragraphTexts(f, limit)
}

// paragraphTexts streams a wordprocessing document part and returns the text
// of up to limit paragraphs, each the concatenation of its runs.
func paragraphTexts(r io.Reader, limit int) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paras  []string
		buf    strings.Builder
		inPara bool
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", documentPart, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				inPara = true
				buf.Reset()
			case "t":
				inText = inPara
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "p":
				if inPara {
					paras = append(paras, buf.String())
					if len(paras) >= limit {
						return paras, nil
					}
				}
				inPara = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				buf.Write(el)
			}
		}
	}

	return paras, nil
}
