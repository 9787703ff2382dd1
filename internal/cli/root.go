package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"liyantis-backend/internal/domain"
	"liyantis-backend/internal/finance"

	"github.com/spf13/cobra"
)

// App holds what the offline commands need. No database or Redis is involved.
type App struct {
	Options finance.Options
	Now     func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRootCmd creates the top-level "liyantis" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "liyantis",
		Short:         "Project financial model for off-plan property",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newAnalyzeCmd(app),
		newReportCmd(app),
	)

	return root
}

// loadProject reads a project record from a JSON file, the same shape the API returns.
func loadProject(path string) (domain.Project, error) {
	var p domain.Project
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decoding %s: %w", path, err)
	}
	return p, nil
}
