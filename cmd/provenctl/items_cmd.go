package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	collectionUC "github.com/khoahotran/provenpro/internal/application/usecase/collection"
	profileUC "github.com/khoahotran/provenpro/internal/application/usecase/profile"
	"github.com/khoahotran/provenpro/internal/bootstrap"
	"github.com/khoahotran/provenpro/internal/domain/collection"
)

func newItemsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List, add, edit and delete collection items",
	}

	list := &cobra.Command{
		Use:   "list <kind>",
		Short: "Print the items of one collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			core, err := loadedCore(cmd, flags)
			if err != nil {
				return err
			}
			defer core.Close()

			items, err := core.Cache.Get().Collection(kind)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}

	add := &cobra.Command{
		Use:   "add <kind> field=value...",
		Short: "Add an item and sync the collection",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, flags, args[0], "", args[1:])
		},
	}

	var id string
	edit := &cobra.Command{
		Use:   "edit <kind> field=value...",
		Short: "Change an existing item and sync the collection",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id is required")
			}
			return runEdit(cmd, flags, args[0], id, args[1:])
		},
	}
	edit.Flags().StringVar(&id, "id", "", "id of the item to edit")

	del := &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete one item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := lookupKind(args[0])
			if err != nil {
				return err
			}
			core, err := loadedCore(cmd, flags)
			if err != nil {
				return err
			}
			defer core.Close()

			out, err := core.Delete.Execute(cmd.Context(), collectionUC.DeleteInput{Kind: kind, ID: args[1]})
			if err != nil {
				return err
			}
			msg := out.Message
			if msg == "" {
				msg = "deleted"
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.AddCommand(list, add, edit, del)
	return cmd
}

func lookupKind(name string) (collection.Kind, error) {
	kind, ok := collection.Lookup(name)
	if !ok {
		names := make([]string, 0, len(collection.Kinds()))
		for _, k := range collection.Kinds() {
			names = append(names, k.Name)
		}
		return collection.Kind{}, fmt.Errorf("unknown kind %q, expected one of %s", name, strings.Join(names, ", "))
	}
	return kind, nil
}

// loadedCore opens the core and makes sure the cache holds the profile.
func loadedCore(cmd *cobra.Command, flags *globalFlags) (*bootstrap.Core, error) {
	core, err := openCore(cmd.Context(), flags, false)
	if err != nil {
		return nil, err
	}
	if _, err := core.Profile.ExecuteFetch(cmd.Context(), profileUC.FetchInput{}); err != nil {
		core.Close()
		return nil, err
	}
	return core, nil
}

func runEdit(cmd *cobra.Command, flags *globalFlags, kindName, id string, assignments []string) error {
	kind, err := lookupKind(kindName)
	if err != nil {
		return err
	}
	fields, err := parseAssignments(assignments)
	if err != nil {
		return err
	}
	core, err := loadedCore(cmd, flags)
	if err != nil {
		return err
	}
	defer core.Close()

	store, err := core.Workspace.Store(kind)
	if err != nil {
		return err
	}

	var target *collection.Item
	if id != "" {
		working := store.Working()
		idx := working.IndexOfID(id)
		if idx < 0 {
			return fmt.Errorf("%s %s not found", kind.Name, id)
		}
		target = &working[idx]
	}
	buf := store.BeginEdit(target)
	for k, v := range fields {
		buf.Fields[k] = v
	}
	working, err := store.CommitEdit(buf)
	if err != nil {
		return err
	}

	out, err := core.Sync.Execute(cmd.Context(), collectionUC.SyncInput{Kind: kind, Collection: working})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out.Collection)
}

func parseAssignments(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected field=value, got %q", a)
		}
		if k == "id" {
			return nil, fmt.Errorf("id is assigned by the profile service")
		}
		fields[k] = v
	}
	return fields, nil
}
