package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"webmon/internal/export"
	"webmon/internal/logging"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		websiteID int64
		dir       string
	)
	cmd := &cobra.Command{
		Use:       "export websites|changes",
		Short:     "Download a CSV export",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{export.KindWebsites, export.KindChanges},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initLogging(false); err != nil {
				return err
			}
			defer logging.Close()

			client, err := a.client()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = a.settings.UI.ExportDir
			}
			e := &export.Exporter{
				Downloader: client,
				Sink:       consoleSink(cmd.ErrOrStderr()),
				Locale:     a.loc,
				Dir:        dir,
				Logger:     logging.ForModule("export"),
				Metrics:    a.metrics,
			}
			path, err := e.Export(cmd.Context(), args[0], websiteID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().Int64Var(&websiteID, "website", 0, "only export changes of this website")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default ui.exportdir)")
	return cmd
}
