package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage locally saved companies and jobs",
}

var savedCompaniesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List saved companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		companies, err := st.SavedCompanies(cmd.Context())
		if err != nil {
			return err
		}
		if len(companies) == 0 {
			fmt.Println("No saved companies.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tINDUSTRY\tLOCATION\tSCORE")
		for _, c := range companies {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", c.ID, c.Name, c.Industry, c.Location, c.HotScore)
		}
		return w.Flush()
	},
}

var savedJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List saved jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		jobs, err := st.SavedJobs(cmd.Context())
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No saved jobs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tCOMPANY\tLOCATION\tSTATUS")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", j.ID, j.Title, j.CompanyName, j.Location, j.Status)
		}
		return w.Flush()
	},
}

var savedRmCompanyCmd = &cobra.Command{
	Use:   "rm-company <id>",
	Short: "Remove a saved company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		if err := st.RemoveCompany(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed company %s.\n", args[0])
		return nil
	},
}

var savedRmJobCmd = &cobra.Command{
	Use:   "rm-job <id>",
	Short: "Remove a saved job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		if err := st.RemoveJob(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed job %s.\n", args[0])
		return nil
	},
}

func init() {
	savedCmd.AddCommand(savedCompaniesCmd, savedJobsCmd, savedRmCompanyCmd, savedRmJobCmd)
	rootCmd.AddCommand(savedCmd)
}
