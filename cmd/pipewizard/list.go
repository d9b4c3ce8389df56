package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-pipewizard/pkg/flows"
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "List the available wizards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := load(cmd)
		if err != nil {
			return err
		}
		store, err := layouts(e.cfg.Definitions)
		if err != nil {
			return err
		}
		registry := flows.DefaultRegistry()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, name := range registry.List() {
			flow, err := registry.New(name, nil, flows.WithDefinitions(store))
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\n", name, flow.Title())
		}
		return w.Flush()
	},
}

var listFlags struct {
	page   int
	count  int
	region string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List resources the wizards refer to",
}

var listLogConfigsCmd = &cobra.Command{
	Use:   "log-configs",
	Short: "List log configs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := load(cmd)
		if err != nil {
			return err
		}
		client, err := e.client(cmd.Context())
		if err != nil {
			return err
		}
		page, err := client.ListLogConfigs(cmd.Context(), listFlags.page, listFlags.count)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tVERSION\tNAME\tTYPE")
		for _, lc := range page.LogConfigs {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", lc.ID, lc.Version, lc.Name, lc.LogType)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d\n", len(page.LogConfigs), page.Total)
		return nil
	},
}

var listDomainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List imported OpenSearch domains",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := load(cmd)
		if err != nil {
			return err
		}
		client, err := e.client(cmd.Context())
		if err != nil {
			return err
		}
		region := listFlags.region
		if region == "" {
			region = e.cfg.Region
		}
		domains, err := client.ListDomainNames(cmd.Context(), region)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DOMAIN\tSTATUS")
		for _, d := range domains {
			fmt.Fprintf(w, "%s\t%s\n", d.DomainName, d.Status)
		}
		return w.Flush()
	},
}

var showLogConfigCmd = &cobra.Command{
	Use:   "log-config <id> [version]",
	Short: "Show one log config",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := load(cmd)
		if err != nil {
			return err
		}
		version := 0
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("version %q is not a number", args[1])
			}
			version = n
		}
		client, err := e.client(cmd.Context())
		if err != nil {
			return err
		}
		lc, err := client.GetLogConfig(cmd.Context(), args[0], version)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s v%d %s (%s) created %s\n", lc.ID, lc.Version, lc.Name, lc.LogType, lc.CreatedAt)
		return nil
	},
}

func init() {
	listLogConfigsCmd.Flags().IntVar(&listFlags.page, "page", 1, "page number")
	listLogConfigsCmd.Flags().IntVar(&listFlags.count, "count", 50, "page size")
	listDomainsCmd.Flags().StringVar(&listFlags.region, "in-region", "", "region to list (default: configured region)")

	listCmd.AddCommand(listLogConfigsCmd)
	listCmd.AddCommand(listDomainsCmd)
	listCmd.AddCommand(showLogConfigCmd)
}
