package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/importer"
)

func newImportCommand() *cobra.Command {
	var dir, format, actor string
	var keep bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank statement CSVs from the import directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(dir)
			if err != nil {
				return err
			}

			registry := importer.DefaultRegistry()
			parser := registry.Get(format)
			if parser == nil {
				return fmt.Errorf("unknown format %q (have: %v)", format, registry.Formats())
			}

			files, err := importer.Scan(ws.dir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("Nothing to import")
				return nil
			}

			total := importer.Result{}
			for _, file := range files {
				f, err := os.Open(file.Path)
				if err != nil {
					return fmt.Errorf("opening %s: %w", file.Name, err)
				}
				txns, err := parser.Parse(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("parsing %s: %w", file.Name, err)
				}

				res, err := importer.Ingest(ws.store, ws.engine, txns, actorUser(actor))
				if err != nil {
					return fmt.Errorf("importing %s: %w", file.Name, err)
				}
				total.Imported += res.Imported
				total.Skipped += res.Skipped

				if !keep {
					if err := importer.MarkProcessed(ws.dir, file.Name); err != nil {
						return err
					}
				}
				fmt.Printf("%s: %d imported, %d skipped\n", file.Name, res.Imported, res.Skipped)
			}

			return ws.save(fmt.Sprintf("import: %d transactions", total.Imported))
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().StringVar(&format, "format", "statement", "statement format")
	cmd.Flags().StringVar(&actor, "actor", "cli", "acting user id")
	cmd.Flags().BoolVar(&keep, "keep", false, "leave files in import/ after importing")

	return cmd
}
