package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/solatis/routekeeper/internal/builder"
	"github.com/solatis/routekeeper/internal/helper"
	"github.com/solatis/routekeeper/internal/store"
	"github.com/spf13/cobra"
)

// Filter definitions are what routes are built from; these commands manage
// them in the persisted store so `serve` can compile them on AddRoute.
var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Manage route filter definitions",
}

var filtersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored filter definitions",
	RunE:  runFiltersList,
}

var filtersSetCmd = &cobra.Command{
	Use:   "set <name> <expression>...",
	Short: "Store a filter definition from helper expressions",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runFiltersSet,
}

var filtersDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored filter definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiltersDelete,
}

func init() {
	rootCmd.AddCommand(filtersCmd)
	filtersCmd.AddCommand(filtersListCmd, filtersSetCmd, filtersDeleteCmd)
}

// openDocumentStore opens the persisted-state backend from --db-url.
func openDocumentStore() (*store.SQLStore, func(), error) {
	if dbURL == "" {
		return nil, nil, fmt.Errorf("--db-url required")
	}
	db, err := store.Open(dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	st, err := store.NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create store: %w", err)
	}
	return st, func() { db.Close() }, nil
}

func runFiltersList(cmd *cobra.Command, args []string) error {
	st, closeDB, err := openDocumentStore()
	if err != nil {
		return err
	}
	defer closeDB()

	keys, err := st.ListKeys(builder.FilterKeyPrefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(strings.TrimPrefix(key, builder.FilterKeyPrefix))
	}
	return nil
}

func runFiltersSet(cmd *cobra.Command, args []string) error {
	name, expressions := args[0], args[1:]

	// Reject definitions the router could never build
	registry := helper.DefaultRegistry()
	for _, expr := range expressions {
		if _, err := registry.Compile(expr); err != nil {
			return fmt.Errorf("invalid expression %q: %w", expr, err)
		}
	}

	st, closeDB, err := openDocumentStore()
	if err != nil {
		return err
	}
	defer closeDB()

	doc, err := json.Marshal(expressions)
	if err != nil {
		return err
	}
	if err := st.Update(builder.FilterKeyPrefix+name, doc); err != nil {
		return err
	}
	fmt.Printf("filter '%s' stored (%d expressions)\n", name, len(expressions))
	return nil
}

func runFiltersDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	st, closeDB, err := openDocumentStore()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := st.Delete(builder.FilterKeyPrefix + name); err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			return fmt.Errorf("filter '%s' not found", name)
		}
		return err
	}
	fmt.Printf("filter '%s' deleted\n", name)
	return nil
}
