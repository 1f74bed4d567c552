package renderer

import "github.com/etnz/binnaculum/tastytrade"

// RenderImport renders the summary of an import session.
func RenderImport(r tastytrade.ImportResult) string {
	partials := map[string]string{
		"import_created": "import_created.md",
		"import_files":   "import_files.md",
		"import_issues":  "import_issues.md",
	}
	return renderTemplate("import", "import.md", partials, r)
}
