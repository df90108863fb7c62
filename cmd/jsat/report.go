package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ritzau/jsat-analyzer/pkg/output"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <document>",
		Short: "Print every metric of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newSession(configFrom(cmd))
			if err := importFile(s, args[0]); err != nil {
				return err
			}
			output.PrintReport(cmd.OutOrStdout(), filepath.Base(args[0]), s.Snapshot(), s.Metrics())
			return nil
		},
	}
}
