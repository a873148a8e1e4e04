package dicts

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/endorses/datmatch/internal/pkg/dictstore"
)

var DictsCmd = &cobra.Command{
	Use:   "dicts",
	Short: "Manage stored dictionaries",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List dictionaries in a store",
	RunE:  runList,
}

var rmCmd = &cobra.Command{
	Use:   "rm name [name...]",
	Short: "Remove dictionaries from a store",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRemove,
}

var storePath string

func runList(cmd *cobra.Command, args []string) error {
	store, err := dictstore.Open(storePath)
	if err != nil {
		return err
	}
	defer store.Close()

	infos, err := store.List()
	if err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.AppendHeader(table.Row{"Name", "ID", "Keywords", "Array Size", "Ignore Case", "Stored At"})
	for _, info := range infos {
		tw.AppendRow(table.Row{
			info.Name,
			info.ID,
			info.Keywords,
			info.ArraySize,
			info.IgnoreCase,
			info.StoredAt.Format("2006-01-02 15:04:05"),
		})
	}
	tw.Render()
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	store, err := dictstore.Open(storePath)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, name := range args {
		if err := store.Delete(name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %q\n", name)
	}
	return nil
}

func init() {
	DictsCmd.AddCommand(listCmd)
	DictsCmd.AddCommand(rmCmd)
	DictsCmd.PersistentFlags().StringVar(&storePath, "store", "", "dictionary store path")
	DictsCmd.MarkPersistentFlagRequired("store")
}
