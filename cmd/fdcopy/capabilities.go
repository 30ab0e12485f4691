package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bamsammich/fdcopy/internal/platform"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Show which kernel copy offloads this system supports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		printCapabilities(cmd.OutOrStdout(), platform.Detect())
		return nil
	},
}

func printCapabilities(w io.Writer, caps platform.Capabilities) {
	if !caps.Direct {
		fmt.Fprintln(w, "direct copy: unsupported (buffered copy only)")
		return
	}
	names := make([]string, len(caps.Facilities))
	for i, m := range caps.Facilities {
		names[i] = m.String()
	}
	fmt.Fprintln(w, "direct copy: supported")
	fmt.Fprintf(w, "facilities:  %s\n", strings.Join(names, ", "))
}
