package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/model"
)

func newRecordCommand() *cobra.Command {
	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Create, update, and inspect records",
	}
	recordCmd.AddCommand(newRecordUpsertCommand())
	recordCmd.AddCommand(newRecordDeleteCommand())
	recordCmd.AddCommand(newRecordShowCommand())
	recordCmd.AddCommand(newRecordListCommand())
	recordCmd.AddCommand(newRecordRelatedCommand())
	return recordCmd
}

func newRecordUpsertCommand() *cobra.Command {
	var dir, entityType, recordID, owner, actor string
	var sets, customs []string

	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Create or update a record",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(dir)
			if err != nil {
				return err
			}

			fields, err := parsePairs(sets)
			if err != nil {
				return err
			}
			customData, err := parsePairs(customs)
			if err != nil {
				return err
			}

			patch := model.Record{
				ID:         recordID,
				OwnerID:    owner,
				Fields:     fields,
				CustomData: customData,
			}
			rec, err := ws.store.UpsertRecord(entityType, patch, actorUser(actor))
			if err != nil {
				return err
			}

			if err := ws.save(fmt.Sprintf("record: upsert %s/%s", entityType, rec.ID)); err != nil {
				return err
			}
			fmt.Printf("%s/%s\n", entityType, rec.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().StringVar(&entityType, "type", "", "entity type (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&recordID, "id", "", "record id (omit to create)")
	cmd.Flags().StringVar(&owner, "owner", "", "owner id")
	cmd.Flags().StringVar(&actor, "actor", "cli", "acting user id")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field value as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&customs, "custom", nil, "custom field value as key=value (repeatable)")

	return cmd
}

func newRecordDeleteCommand() *cobra.Command {
	var dir, entityType string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(dir)
			if err != nil {
				return err
			}
			if err := ws.store.DeleteRecord(entityType, args[0]); err != nil {
				return err
			}
			return ws.save(fmt.Sprintf("record: delete %s/%s", entityType, args[0]))
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().StringVar(&entityType, "type", "", "entity type (required)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newRecordShowCommand() *cobra.Command {
	var dir, entityType string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(dir)
			if err != nil {
				return err
			}
			rec, err := ws.store.Get(entityType, args[0])
			if err != nil {
				return err
			}
			return printJSON(rec)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().StringVar(&entityType, "type", "", "entity type (required)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newRecordListCommand() *cobra.Command {
	var dir, entityType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records of a type",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(dir)
			if err != nil {
				return err
			}
			records, err := ws.store.List(entityType)
			if err != nil {
				return err
			}
			for _, rec := range records {
				fmt.Printf("%s\t%s\n", rec.ID, rec.UpdatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().StringVar(&entityType, "type", "", "entity type (required)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newRecordRelatedCommand() *cobra.Command {
	var dir, entityType string
	var children []string

	cmd := &cobra.Command{
		Use:   "related <id>",
		Short: "List records related to a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(dir)
			if err != nil {
				return err
			}

			childTypes := make([]model.EntityType, len(children))
			for i, c := range children {
				childTypes[i] = model.NormalizeEntityType(c)
			}

			records, err := ws.store.GetRelatedRecords(entityType, args[0], childTypes)
			if err != nil {
				return err
			}
			return printJSON(records)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().StringVar(&entityType, "type", "", "parent entity type (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringSliceVar(&children, "from", []string{"communications", "tasks"}, "child collections to scan")

	return cmd
}

// parsePairs converts repeated key=value flags into a field map.
func parsePairs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, found := strings.Cut(p, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid key=value pair %q", p)
		}
		out[key] = value
	}
	return out, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
