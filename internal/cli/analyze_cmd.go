package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	projectsvc "liyantis-backend/internal/application/projects"
	"liyantis-backend/internal/application/reports"
	"liyantis-backend/internal/finance"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	var file string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print the derived financials of a project file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(app, cmd.OutOrStdout(), cmd.ErrOrStderr(), file, asJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Project JSON file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runAnalyze(app *App, out, errOut io.Writer, file string, asJSON bool) error {
	p, err := loadProject(file)
	if err != nil {
		return err
	}
	// Invalid records are still analysed, the same way a draft is.
	printWarnings(errOut, projectsvc.ValidateRecord(p))

	a, err := finance.Analyze(p, app.Options)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	_, err = io.WriteString(out, reports.Build(p, a, app.now()).Markdown())
	return err
}

func printWarnings(w io.Writer, errs map[string]string) {
	if len(errs) == 0 {
		return
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "warning: %s: %s\n", k, errs[k])
	}
}
