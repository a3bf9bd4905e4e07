package cli

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/mailvault/internal/db"
	"github.com/ALT-F4-LLC/mailvault/internal/model"
	"github.com/ALT-F4-LLC/mailvault/internal/output"
	"github.com/ALT-F4-LLC/mailvault/internal/render"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage local accounts",
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		accounts, err := db.ListAccounts(cmd.Context(), getDB(cmd))
		if err != nil {
			return cmdErr(fmt.Errorf("listing accounts: %w", err), output.ErrGeneral)
		}
		if accounts == nil {
			accounts = []*model.Account{}
		}

		w.Success(accounts, render.RenderAccounts(accounts))
		return nil
	},
}

var accountAddCmd = &cobra.Command{
	Use:   "add <address>",
	Short: "Add a local account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		name, _ := cmd.Flags().GetString("name")

		acct, err := createAccount(cmd, getDB(cmd), args[0], name)
		if err != nil {
			return err
		}
		w.Success(acct, fmt.Sprintf("Added account %s", acct.Email()))
		return nil
	},
}

// accountFlag registers --account on cmd.
func accountFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("account", "a", "", "Account address (defaults to the only account)")
}

// resolveAccount returns the account named by --account, or the only
// account when the flag is empty.
func resolveAccount(cmd *cobra.Command) (*model.Account, error) {
	ctx, conn := cmd.Context(), getDB(cmd)

	if addr, _ := cmd.Flags().GetString("account"); addr != "" {
		acct, err := db.GetAccountByEmail(ctx, conn, addr)
		if errors.Is(err, db.ErrNotFound) {
			return nil, cmdErr(fmt.Errorf("account %s not found", addr), output.ErrNotFound)
		}
		if err != nil {
			return nil, cmdErr(fmt.Errorf("loading account: %w", err), output.ErrGeneral)
		}
		return acct, nil
	}

	accounts, err := db.ListAccounts(ctx, conn)
	if err != nil {
		return nil, cmdErr(fmt.Errorf("listing accounts: %w", err), output.ErrGeneral)
	}
	switch len(accounts) {
	case 0:
		return nil, cmdErr(fmt.Errorf("no accounts found, add one with 'mailvault account add <address>'"), output.ErrNotFound)
	case 1:
		return accounts[0], nil
	default:
		return nil, cmdErr(fmt.Errorf("%d accounts found, choose one with --account", len(accounts)), output.ErrValidation)
	}
}

func createAccount(cmd *cobra.Command, conn *sqlx.DB, address, name string) (*model.Account, error) {
	username, domain, err := model.ParseAddress(address)
	if err != nil {
		return nil, cmdErr(err, output.ErrValidation)
	}
	acct := &model.Account{Username: username, Domain: domain, Name: name, HasFooter: true}
	if _, err := db.CreateAccount(cmd.Context(), conn, acct); err != nil {
		if errors.Is(err, db.ErrAccountExists) {
			return nil, cmdErr(err, output.ErrConflict)
		}
		return nil, cmdErr(fmt.Errorf("creating account: %w", err), output.ErrGeneral)
	}
	getLogger(cmd).WithField("account", acct.Email()).Info("account created")
	return acct, nil
}

func init() {
	accountAddCmd.Flags().String("name", "", "Display name")
	accountCmd.AddCommand(accountListCmd, accountAddCmd)
	rootCmd.AddCommand(accountCmd)
}
