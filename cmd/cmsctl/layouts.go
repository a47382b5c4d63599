package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/hospitalcms/backend/internal/layout"
	"github.com/spf13/cobra"
)

func newLayoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List the built-in section layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LAYOUT\tSECTION\tHEADER\tCOLLECTIONS")
			for _, name := range layout.Names() {
				l, err := layout.Lookup(name)
				if err != nil {
					return err
				}
				header := "-"
				if l.Header != nil {
					header = string(l.Header.DefaultLevel)
				}
				collections := make([]string, 0, len(l.Collections))
				for _, c := range l.Collections {
					collections = append(collections, fmt.Sprintf("%s(%s, min %d)", c.Name, c.BlockType, c.MinItems))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.Name, l.Section, header, strings.Join(collections, " "))
			}
			return w.Flush()
		},
	}
}
