package commands

import (
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reconhq/recon/pkg/cli"
	"github.com/reconhq/recon/pkg/kv"
	"github.com/reconhq/recon/pkg/leadgen"
	"github.com/reconhq/recon/pkg/store"
)

var (
	leadsContext  string
	leadsServer   string
	leadsMode     string
	leadsIndustry string
	leadsCity     string
	leadsCompany  string
	leadsRole     string
	leadsExclude  []string
	leadsJSON     bool
	leadsSave     bool
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Search for companies via a recon API server",
	Long: `Search for leads. Three modes:

  discovery  find active companies in an industry and city (default)
  lookup     deep-dive one company by name
  jobs       find companies actively hiring for a role

Examples:
  recon leads --industry "3D printing" --city Oslo
  recon leads --mode lookup --company "Acme Robotics"
  recon leads --mode jobs --role "Go Engineer" --city Berlin --save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Ctrl-C aborts the search, not the whole shell session.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		client := newAPIClient(leadsContext, leadsServer)
		result, err := client.FindLeads(ctx, leadgen.SearchParams{
			Mode:         leadgen.SearchMode(leadsMode),
			Industry:     leadsIndustry,
			City:         leadsCity,
			CompanyName:  leadsCompany,
			Role:         leadsRole,
			ExcludeNames: leadsExclude,
		})
		if err != nil {
			return err
		}

		if leadsSave {
			if err := saveLeads(cmd, result.Leads); err != nil {
				return err
			}
		}

		if leadsJSON {
			return cli.PrintJSON(os.Stdout, result)
		}

		if len(result.Leads) == 0 {
			fmt.Println("No leads found. Try a broader search.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SCORE\tNAME\tLOCATION\tEMAIL\tPHONE\tOPEN ROLES")
		for _, lead := range result.Leads {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
				lead.HotScore, lead.Name, lead.Location, lead.Email, lead.Phone, len(lead.OpenRoles))
		}
		w.Flush()

		if len(result.Sources) > 0 {
			fmt.Println("\nSources:")
			for _, s := range result.Sources {
				fmt.Printf("  %s (%s)\n", s.Title, s.URI)
			}
		}
		return nil
	},
}

// newAPIClient builds the leads/pitch HTTP client, preferring the
// --server flag over api.yaml over the local default.
func newAPIClient(contextName, server string) *leadgen.Client {
	baseURL := server
	if baseURL == "" {
		if api, err := apiConfig(contextName); err == nil && api.BaseURL != "" {
			baseURL = api.BaseURL
		} else {
			baseURL = "http://localhost:8787"
		}
	}
	return &leadgen.Client{BaseURL: baseURL}
}

// openStore opens the local badger-backed store under the config dir.
func openStore() (*store.Store, func(), error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := kv.NewBadger(kv.BadgerOptions{Dir: cfg.DataDir()})
	if err != nil {
		return nil, nil, err
	}
	return store.New(db, nil), func() { db.Close() }, nil
}

func saveLeads(cmd *cobra.Command, leads []leadgen.Company) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	for _, lead := range leads {
		lead.Status = "Saved"
		if err := st.SaveCompany(cmd.Context(), lead); err != nil {
			return err
		}
	}
	fmt.Printf("Saved %d companies.\n", len(leads))
	return nil
}

func init() {
	leadsCmd.Flags().StringVarP(&leadsContext, "context", "c", "", "config context (default: current)")
	leadsCmd.Flags().StringVar(&leadsServer, "server", "", "recon API base URL")
	leadsCmd.Flags().StringVar(&leadsMode, "mode", "discovery", "search mode: discovery, lookup, jobs")
	leadsCmd.Flags().StringVar(&leadsIndustry, "industry", "", "industry to search (discovery mode)")
	leadsCmd.Flags().StringVar(&leadsCity, "city", "", "city to search in")
	leadsCmd.Flags().StringVar(&leadsCompany, "company", "", "company name (lookup mode)")
	leadsCmd.Flags().StringVar(&leadsRole, "role", "", "role to search for (jobs mode)")
	leadsCmd.Flags().StringSliceVar(&leadsExclude, "exclude", nil, "company names to exclude")
	leadsCmd.Flags().BoolVar(&leadsJSON, "json", false, "print the full result as JSON")
	leadsCmd.Flags().BoolVar(&leadsSave, "save", false, "save found companies to the local store")
	rootCmd.AddCommand(leadsCmd)
}
