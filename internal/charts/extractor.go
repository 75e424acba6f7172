// Package charts pulls the fixed report figures out of cashflow planning
// documents. Planning documents are OOXML word files whose charts of
// interest sit at fixed positions in the main document part's image
// relationship list.
package charts

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/clearviewfp/report-engine/internal/domain"
)

const (
	relsPart     = "word/_rels/document.xml.rels"
	documentPart = "word/document.xml"
)

// Chart slots by 1-based position among the document's image relationships.
// The mapping is positional on purpose: the planning tool emits its template
// images first and the two figures of interest always land at the same
// offsets.
const (
	ordinalMoneyInVsOut      = 4
	ordinalSavingsProjection = 5
)

// RoleForOrdinal maps an image's position in the relationship list to its
// report slot. Positions outside the mapping carry no chart.
func RoleForOrdinal(ordinal int) (domain.ChartRole, bool) {
	switch ordinal {
	case ordinalMoneyInVsOut:
		return domain.ChartRoleMoneyInVsOut, true
	case ordinalSavingsProjection:
		return domain.ChartRoleSavingsProjection, true
	default:
		return "", false
	}
}

// Extraction is everything pulled from one planning document.
type Extraction struct {
	ClientName string
	Assets     []domain.ChartAsset
}

// ExtractDocument reads a planning document and returns the chart images at
// the mapped positions plus the client name heading, if one is found. Image
// bytes come back in memory; persisting them is the caller's concern.
func ExtractDocument(docPath string) (Extraction, error) {
	zr, err := zip.OpenReader(docPath)
	if err != nil {
		return Extraction{}, fmt.Errorf("open document %s: %w", docPath, err)
	}
	defer zr.Close()

	return extract(&zr.Reader)
}

func extract(zr *zip.Reader) (Extraction, error) {
	var ext Extraction

	rels, err := documentRels(zr)
	if err != nil {
		return ext, err
	}

	ordinal := 0
	for _, rel := range rels {
		if !isImageRel(rel) {
			continue
		}
		ordinal++
		role, ok := RoleForOrdinal(ordinal)
		if !ok {
			continue
		}
		data, err := readZipFile(zr, resolveTarget(rel.Target))
		if err != nil {
			// A dangling target costs that one chart, not the pass.
			continue
		}
		ext.Assets = append(ext.Assets, domain.ChartAsset{
			Ordinal: ordinal,
			Role:    role,
			Bytes:   data,
		})
	}

	// A broken document part only costs the client name; the charts stand.
	if paras, err := documentParagraphs(zr, clientNameScanLimit); err == nil {
		ext.ClientName = ClientNameFromParagraphs(paras)
	}

	return ext, nil
}

// relationship order inside the part is load-bearing: ordinals count image
// entries in file-declared order.
type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationships struct {
	Rels []relationship `xml:"Relationship"`
}

func documentRels(zr *zip.Reader) ([]relationship, error) {
	data, err := readZipFile(zr, relsPart)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", relsPart, err)
	}
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("parse %s: %w", relsPart, err)
	}
	return rels.Rels, nil
}

// isImageRel matches both the transitional and strict OOXML namespaces, so
// the check is on the type suffix rather than the full URI.
func isImageRel(rel relationship) bool {
	return strings.HasSuffix(rel.Type, "/image")
}

// resolveTarget turns a relationship target into a zip entry name. Targets
// are relative to the word/ part unless they start with a slash.
func resolveTarget(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join("word", target)
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
