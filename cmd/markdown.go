package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
)

// printMarkdown renders md for the terminal, or prints it raw when it cannot.
func printMarkdown(md string) {
	if !*rawOutput {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
		if err == nil {
			out, err := r.Render(md)
			if err == nil {
				fmt.Print(out)
				return
			}
		}
	}
	fmt.Fprint(os.Stdout, md)
}
