package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sk-platform/skauth/internal/cli/output"
	"github.com/sk-platform/skauth/pkg/config"
	"github.com/sk-platform/skauth/pkg/store"
)

var userOutputFormat string

func newUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
		Long:  `Inspect and manage users in the credential store.`,
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all users",
		RunE:    runUserList,
	}
	listCmd.Flags().StringVarP(&userOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")

	deleteCmd := &cobra.Command{
		Use:   "delete <email>",
		Short: "Delete a user and their sessions and keys",
		Args:  cobra.ExactArgs(1),
		RunE:  runUserDelete,
	}

	userCmd.AddCommand(listCmd)
	userCmd.AddCommand(deleteCmd)
	return userCmd
}

func openStore() (store.Store, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, err
	}
	return store.New(&cfg.Database)
}

func runUserList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(userOutputFormat)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	users, err := st.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	printer := output.NewPrinter(os.Stdout, format, false)
	if format != output.FormatTable {
		return printer.Print(users)
	}

	table := output.NewTableData("ID", "Email", "Role", "Created")
	for _, u := range users {
		table.AddRow(u.ID, u.Email, u.Role, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return printer.Print(table)
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	email := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	user, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up user %s: %w", email, err)
	}

	if err := st.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", email, err)
	}

	fmt.Printf("User %s deleted.\n", email)
	return nil
}
