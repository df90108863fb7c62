package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ritzau/jsat-analyzer/pkg/output"
	"github.com/ritzau/jsat-analyzer/pkg/session"
)

func newCompareCmd() *cobra.Command {
	var node string

	cmd := &cobra.Command{
		Use:   "compare <document> <document>...",
		Short: "Compare the metrics of several documents side by side",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newSession(configFrom(cmd))
			names, err := saveArchitectures(s, args)
			if err != nil {
				return err
			}

			if node != "" {
				grid, err := s.CompareNode(node, names...)
				if err != nil {
					return err
				}
				output.PrintGrid(cmd.OutOrStdout(), fmt.Sprintf("Node %q", node), grid)
				return nil
			}
			grid, err := s.CompareArchitectures(names...)
			if err != nil {
				return err
			}
			output.PrintGrid(cmd.OutOrStdout(), "Architecture Comparison", grid)
			return nil
		},
	}

	cmd.Flags().StringVar(&node, "node", "", "compare the node with this label instead of the whole networks")
	return cmd
}

// saveArchitectures imports each document and saves it under its file name
// without extension. Duplicate names get a numeric suffix.
func saveArchitectures(s *session.Session, paths []string) ([]string, error) {
	names := make([]string, 0, len(paths))
	seen := make(map[string]int)
	for _, path := range paths {
		if err := importFile(s, path); err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if name == session.CurrentArchitecture || name == "" {
			name = "doc"
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s-%d", name, n)
		}
		if err := s.SaveArchitecture(name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}
