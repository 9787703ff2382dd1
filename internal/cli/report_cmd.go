package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"liyantis-backend/internal/application/reports"
	"liyantis-backend/internal/finance"

	"github.com/spf13/cobra"
)

func newReportCmd(app *App) *cobra.Command {
	var file, out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a project file as a PDF, HTML or Markdown report",
		Long:  "Render a project file as a report. The format follows the --out extension: .pdf, .html or .md.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(app, cmd.OutOrStdout(), file, out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Project JSON file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (.pdf, .html or .md)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runReport(app *App, stdout io.Writer, file, out string) error {
	p, err := loadProject(file)
	if err != nil {
		return err
	}
	a, err := finance.Analyze(p, app.Options)
	if err != nil {
		return err
	}
	r := reports.Build(p, a, app.now())

	var body []byte
	switch ext := strings.ToLower(filepath.Ext(out)); ext {
	case ".pdf":
		var buf bytes.Buffer
		if err := r.PDF(&buf); err != nil {
			return err
		}
		body = buf.Bytes()
	case ".html", ".htm":
		if body, err = r.HTML(); err != nil {
			return err
		}
	case ".md":
		body = []byte(r.Markdown())
	default:
		return fmt.Errorf("unsupported report format %q", ext)
	}

	if err := os.WriteFile(out, body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(stdout, "Wrote %s (%d bytes)\n", out, len(body))
	return nil
}
