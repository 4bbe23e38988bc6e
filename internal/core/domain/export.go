package domain

// ExportFormat selects the rendering of a project export
type ExportFormat string

const (
	// ExportFormatMarkdown renders a project summary with documents and Q&A
	ExportFormatMarkdown ExportFormat = "markdown"
	// ExportFormatBibTeX renders one bibliography entry per indexed document
	ExportFormatBibTeX ExportFormat = "bibtex"
)

// Valid reports whether the format is one of the supported renderings.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatMarkdown || f == ExportFormatBibTeX
}
