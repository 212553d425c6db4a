package commands

import (
	"github.com/spf13/cobra"

	"github.com/oktotech/okto-go/internal/output"
)

// CommandInfo describes a CLI command.
type CommandInfo struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Actions     []string `json:"actions,omitempty"`
}

// CommandCategory groups commands by category.
type CommandCategory struct {
	Name     string        `json:"name"`
	Commands []CommandInfo `json:"commands"`
}

// commandCategories returns all command categories for the catalog.
func commandCategories() []CommandCategory {
	return []CommandCategory{
		{
			Name: "Wallet",
			Commands: []CommandInfo{
				{Name: "portfolio", Category: "wallet", Description: "Show token holdings"},
				{Name: "tokens", Category: "wallet", Description: "List supported tokens"},
				{Name: "networks", Category: "wallet", Description: "List supported networks"},
				{Name: "wallets", Category: "wallet", Description: "List or create wallets", Actions: []string{"create"}},
				{Name: "me", Category: "wallet", Description: "Show current user profile"},
			},
		},
		{
			Name: "Orders & Transfers",
			Commands: []CommandInfo{
				{Name: "transfer", Category: "orders", Description: "Send tokens or NFTs", Actions: []string{"tokens", "nft"}},
				{Name: "orders", Category: "orders", Description: "Show order history"},
				{Name: "nft", Category: "orders", Description: "Inspect NFT orders", Actions: []string{"orders"}},
				{Name: "rawtx", Category: "orders", Description: "Execute raw transactions", Actions: []string{"execute", "status"}},
			},
		},
		{
			Name: "Hosted UI",
			Commands: []CommandInfo{
				{Name: "widget", Category: "ui", Description: "Drive the onboarding page and wallet widget", Actions: []string{"url", "relay"}},
				{Name: "theme", Category: "ui", Description: "Show or customise the widget theme", Actions: []string{"show", "set", "reset"}},
			},
		},
		{
			Name: "Auth & Config",
			Commands: []CommandInfo{
				{Name: "auth", Category: "auth", Description: "Authenticate with Okto", Actions: []string{"login", "login-jwt", "logout", "status", "refresh"}},
				{Name: "config", Category: "auth", Description: "Manage configuration", Actions: []string{"show", "set", "unset"}},
			},
		},
		{
			Name: "Additional Commands",
			Commands: []CommandInfo{
				{Name: "commands", Category: "additional", Description: "List all commands"},
				{Name: "help", Category: "additional", Description: "Show help"},
				{Name: "version", Category: "additional", Description: "Show version"},
			},
		},
	}
}

// CatalogCommandNames returns all command names from the catalog.
// Used by tests to verify catalog matches registered commands.
func CatalogCommandNames() []string {
	categories := commandCategories()
	total := 0
	for _, cat := range categories {
		total += len(cat.Commands)
	}
	names := make([]string, 0, total)
	for _, cat := range categories {
		for _, cmd := range cat.Commands {
			names = append(names, cmd.Name)
		}
	}
	return names
}

// NewCommandsCmd creates the commands listing command.
func NewCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "commands",
		Aliases: []string{"cmds"},
		Short:   "List all available commands",
		Long:    "List all available okto commands organized by category.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			return app.OK(commandCategories(),
				output.WithSummary("All available okto commands"),
				output.WithBreadcrumbs(
					output.Breadcrumb{
						Action:      "help",
						Cmd:         "okto --help",
						Description: "View help",
					},
				),
			)
		},
	}
}

// All returns every top-level command in registration order.
func All() []*cobra.Command {
	return []*cobra.Command{
		NewAuthCmd(),
		NewPortfolioCmd(),
		NewTokensCmd(),
		NewNetworksCmd(),
		NewMeCmd(),
		NewWalletsCmd(),
		NewOrdersCmd(),
		NewNftCmd(),
		NewRawTxCmd(),
		NewTransferCmd(),
		NewThemeCmd(),
		NewWidgetCmd(),
		NewConfigCmd(),
		NewCommandsCmd(),
	}
}
