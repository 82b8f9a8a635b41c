package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/user/kisanmitra/internal/state"
)

var (
	sourceURL      string
	sourceCategory string
	sourceSchedule string
)

func init() {
	rootCmd.AddCommand(sourceCmd)
	sourceCmd.AddCommand(sourceListCmd, sourceAddCmd, sourceRemoveCmd, sourceEnableCmd, sourceDisableCmd)
	sourceAddCmd.Flags().StringVar(&sourceURL, "url", "", "page URL to ingest (required)")
	sourceAddCmd.Flags().StringVar(&sourceCategory, "category", "", "scheme category label")
	sourceAddCmd.Flags().StringVar(&sourceSchedule, "schedule", "", "cron expression for automatic refresh")
	sourceAddCmd.MarkFlagRequired("url")
}

func sourceStore() *state.SourceStore {
	cfg := loadConfig()
	return state.NewSourceStore(filepath.Join(cfg.DataDir, "sources.json"))
}

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage corpus ingest sources",
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := sourceStore().List()
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			fmt.Println("No sources configured.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tURL\tCATEGORY\tSCHEDULE\tENABLED")
		for _, s := range sources {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", s.Name, s.URL, s.Category, s.Schedule, s.Enabled)
		}
		return w.Flush()
	},
}

var sourceAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an ingest source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := &state.Source{
			Name:     args[0],
			URL:      sourceURL,
			Category: sourceCategory,
			Schedule: sourceSchedule,
			Enabled:  true,
		}
		if err := sourceStore().Add(src); err != nil {
			return err
		}
		fmt.Printf("Added source %s.\n", src.Name)
		return nil
	},
}

var sourceRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an ingest source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sourceStore().Remove(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed source %s.\n", args[0])
		return nil
	},
}

var sourceEnableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable an ingest source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sourceStore().SetEnabled(args[0], true); err != nil {
			return err
		}
		fmt.Printf("Enabled source %s.\n", args[0])
		return nil
	},
}

var sourceDisableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable an ingest source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sourceStore().SetEnabled(args[0], false); err != nil {
			return err
		}
		fmt.Printf("Disabled source %s.\n", args[0])
		return nil
	},
}
