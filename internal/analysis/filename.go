package analysis

import (
	"path/filepath"
	"strings"

	"github.com/circom-analyzer/frontend/internal/models"
)

// SourceExtension is the only extension the service accepts.
const SourceExtension = ".circom"

const reportSuffix = "_analysis"

// ReportFilename derives the download name for a report: the source name
// without its extension, "_analysis", then the extension of format.
func ReportFilename(sourceName string, format models.OutputFormat) string {
	base := filepath.Base(strings.ReplaceAll(sourceName, "\\", "/"))
	stem := strings.TrimSuffix(base, SourceExtension)
	if stem == base {
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if stem == "" || stem == "." || stem == "/" {
		stem = "report"
	}
	return stem + reportSuffix + format.Extension()
}
