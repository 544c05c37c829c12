package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/designorch/internal/provider"
)

func newProvidersCmd(root *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect configured providers",
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "output as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show every provider with its availability label",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			return printStatus(cmd.OutOrStdout(), a.orch.ProviderStatus(), asJSON)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "probe",
		Short: "Probe every provider and report reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			return printProbe(cmd.OutOrStdout(), a.orch.TestProviderConnections(cmd.Context()), asJSON)
		},
	})
	return cmd
}

func printStatus(w io.Writer, status map[string]provider.Status, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(status)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODEL\tSTATUS\tCAPABILITIES\tREQ/WINDOW\tWINDOW")
	for _, name := range sortedKeys(status) {
		s := status[name]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			name,
			s.Descriptor.ModelName(),
			s.Label,
			strings.Join(s.Descriptor.Capabilities, ","),
			s.Descriptor.RateLimit.RequestsPerWindow,
			s.Descriptor.RateLimit.Window)
	}
	return tw.Flush()
}

func printProbe(w io.Writer, results map[string]bool, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(results)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tREACHABLE")
	for _, name := range sortedKeys(results) {
		fmt.Fprintf(tw, "%s\t%t\n", name, results[name])
	}
	return tw.Flush()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
