// Package classify selects an extraction route for each uploaded file.
package classify

import (
	"strings"

	"github.com/clearviewfp/report-engine/internal/domain"
)

// Route is the extraction strategy chosen for one file.
type Route string

const (
	// RouteStatement sends the file down the PDF provider-statement path.
	RouteStatement Route = "statement"
	// RouteChart sends the file down the compound-document chart path.
	RouteChart Route = "chart"
	// RouteSkip accepts the file into the session but extracts nothing.
	RouteSkip Route = "skip"
)

// Media types seen at the upload boundary.
const (
	mediaTypePDF  = "application/pdf"
	mediaTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mediaTypeDoc  = "application/msword"
)

// Filename tokens that mark a word-processing upload as the cashflow
// forecast document.
var cashflowTokens = []string{"cashflow", "574611"}

// ForFile picks exactly one route for a file. PDFs always take the statement
// route regardless of filename; word-processing documents take the chart
// route only when the filename carries a cashflow token; everything else is
// silently skipped so unsupported uploads never abort a batch.
func ForFile(fd domain.FileDescriptor) Route {
	mediaType := normalizeMediaType(fd.MediaType)

	if mediaType == mediaTypePDF {
		return RouteStatement
	}

	if isWordProcessing(mediaType) && hasCashflowToken(fd.OriginalName) {
		return RouteChart
	}

	return RouteSkip
}

func normalizeMediaType(mt string) string {
	// Strip parameters such as "; charset=utf-8"
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

func isWordProcessing(mediaType string) bool {
	return mediaType == mediaTypeDocx || mediaType == mediaTypeDoc
}

func hasCashflowToken(name string) bool {
	lower := strings.ToLower(name)
	for _, token := range cashflowTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
