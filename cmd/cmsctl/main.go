// Command cmsctl edits hospital website sections from snapshot files.
//
// A section is pulled as a YAML snapshot, edited locally and pushed back; only the
// fields that differ from the current server state are submitted.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hospitalcms/backend/internal/contentapi"
	cms "github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/libs/config"
	"github.com/hospitalcms/backend/libs/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// contentClient is the part of the content API the commands use
type contentClient interface {
	GetSection(ctx context.Context, sectionID int) (*cms.Section, error)
	UpdateSection(ctx context.Context, sectionID int, version string, update cms.SectionUpdate) (*cms.UpdateResult, error)
	GetHeaderSettings(ctx context.Context) ([]cms.HeaderSetting, error)
	UpdateHeaderSettings(ctx context.Context, update cms.SettingsUpdate) (*cms.UpdateResult, error)
}

// app carries what every command needs
type app struct {
	// newClient builds the content API client on first use so "layouts" works without configuration
	newClient   func() (contentClient, *config.Config, error)
	submitEmpty bool
	timeout     time.Duration
	logger      *zap.Logger
}

func (a *app) client() (contentClient, error) {
	client, cfg, err := a.newClient()
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		a.submitEmpty = cfg.Sessions.SubmitEmptyChanges
	}
	a.logger = logger.Logger
	return client, nil
}

func (a *app) withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

// newRootCmd builds the command tree around a
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cmsctl",
		Short:         "Edit hospital website sections through the content API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", time.Minute, "Operation timeout")

	rootCmd.AddCommand(newPullCmd(a))
	rootCmd.AddCommand(newDiffCmd(a))
	rootCmd.AddCommand(newPushCmd(a))
	rootCmd.AddCommand(newSettingsCmd(a))
	rootCmd.AddCommand(newLayoutsCmd())
	return rootCmd
}

func defaultClient() (contentClient, *config.Config, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.Logging.Level); err != nil {
		return nil, nil, err
	}
	return contentapi.NewClient(cfg.ContentAPI.BaseURL, cfg.ContentAPI.APIKey, cfg.ContentAPI.Timeout, logger.Logger), cfg, nil
}

func main() {
	defer logger.Sync()

	a := &app{newClient: defaultClient, logger: logger.Logger}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// writeLines prints labels one per line with a marker
func writeLines(w io.Writer, marker string, lines []string) {
	for _, line := range lines {
		fmt.Fprintf(w, "  %s %s\n", marker, line)
	}
}
