package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/solucions-socials/platform/pkg/common/config"
	"github.com/solucions-socials/platform/pkg/common/database"
	"github.com/solucions-socials/platform/pkg/gateway/httpclient"
	"github.com/solucions-socials/platform/pkg/holded"
	"github.com/solucions-socials/platform/pkg/invoices"
	"github.com/solucions-socials/platform/pkg/normalizer"
	"github.com/solucions-socials/platform/pkg/purchasesync"
	"github.com/spf13/cobra"
)

var company string

var rootCmd = &cobra.Command{
	Use:   "holded-cli",
	Short: "Operate the Holded purchase synchronisation from the command line",
	Long: `holded-cli talks to the Holded invoicing API with the API keys configured
for the sync service (HOLDED_API_KEY_SOLUCIONS, HOLDED_API_KEY_MENJAR or TENANTS_FILE).

The sync command also needs the Postgres settings used by the sync service.`,
	SilenceUsage: true,
}

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Check that the company API key is accepted by Holded",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service()
		if err != nil {
			return err
		}
		if err := svc.TestConnection(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Connection to Holded OK for %s\n", svc.Company())
		return nil
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending purchases of one page",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		svc, err := service()
		if err != nil {
			return err
		}
		purchases, err := svc.PendingPurchases(cmd.Context(), page, limit)
		if err != nil {
			return err
		}
		return printJSON(purchases)
	},
}

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List overdue purchases of one page",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		svc, err := service()
		if err != nil {
			return err
		}
		purchases, err := svc.OverduePurchases(cmd.Context(), page, limit)
		if err != nil {
			return err
		}
		return printJSON(purchases)
	},
}

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Dump the full contact directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service()
		if err != nil {
			return err
		}
		contacts, err := svc.AllContacts(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(contacts)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronise open purchases into the invoices table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		registry, err := newRegistry(cfg)
		if err != nil {
			return err
		}

		db, err := database.GetPostgres()
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer database.ClosePostgres()

		classifier, err := normalizer.LoadClassifier(cfg.ClassifierRulesFile)
		if err != nil {
			return fmt.Errorf("loading classifier rules: %w", err)
		}

		orchestrator := purchasesync.NewOrchestrator(
			purchasesync.RegistrySources(registry),
			invoices.NewRepository(db),
			normalizer.NewTransformer(classifier),
			purchasesync.NewLocalLocker(),
			nil,
		)
		result, err := orchestrator.Sync(cmd.Context(), company)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&company, "company", "c", "solucions", "Holded company (tenant id)")

	for _, cmd := range []*cobra.Command{pendingCmd, overdueCmd} {
		cmd.Flags().Int("page", 1, "Page number")
		cmd.Flags().Int("limit", 100, "Page size")
	}

	rootCmd.AddCommand(testConnectionCmd, pendingCmd, overdueCmd, contactsCmd, syncCmd)
}

func newRegistry(cfg *config.Config) (*holded.Registry, error) {
	tenants, err := config.LoadTenants(cfg)
	if err != nil {
		return nil, err
	}
	return holded.NewRegistry(tenants, httpclient.New(cfg.HoldedTimeout), holded.OptionsFromConfig(cfg)), nil
}

func service() (*holded.Service, error) {
	registry, err := newRegistry(config.Load())
	if err != nil {
		return nil, err
	}
	return registry.Service(company)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
