package commands

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/reconhq/recon/pkg/cli"
	"github.com/reconhq/recon/pkg/leadgen"
)

var (
	pitchContext  string
	pitchServer   string
	pitchFile     string
	pitchCompany  string
	pitchIndustry string
	pitchSkills   string
	pitchTone     string
	pitchFormat   string
	pitchUse      string
	pitchJobTitle string
	pitchSignals  []string
	pitchJSON     bool
)

var pitchCmd = &cobra.Command{
	Use:   "pitch",
	Short: "Generate outreach pitches via a recon API server",
	Long: `Generate three outreach variations for a target company.

Parameters come from flags, or from a YAML/JSON request file with the
same field names as the API (--file).

Examples:
  recon pitch --company "Acme Robotics" --industry Robotics \
    --skills "Go, distributed systems" --tone Professional
  recon pitch --file pitch.yaml --format linkedin_connect
  recon pitch --company Acme --use job_application --job-title "Platform Engineer"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var params leadgen.PitchParams
		if pitchFile != "" {
			if err := cli.LoadRequest(pitchFile, &params); err != nil {
				return err
			}
		}
		if pitchCompany != "" {
			params.CompanyName = pitchCompany
		}
		if pitchIndustry != "" {
			params.Industry = pitchIndustry
		}
		if pitchSkills != "" {
			params.UserSkills = pitchSkills
		}
		if pitchTone != "" {
			params.Tone = pitchTone
		}
		if pitchFormat != "" {
			params.Format = pitchFormat
		}
		if pitchUse != "" {
			params.Context = pitchUse
		}
		if pitchJobTitle != "" {
			params.JobTitle = pitchJobTitle
		}
		if len(pitchSignals) > 0 {
			params.CompanySignals = pitchSignals
		}

		client := newAPIClient(pitchContext, pitchServer)
		pitches, err := client.GeneratePitch(ctx, params)
		if err != nil {
			return err
		}

		if pitchJSON {
			return cli.PrintJSON(os.Stdout, pitches)
		}
		for i, p := range pitches {
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("--- %s ---\n", p.Angle)
			if p.Subject != "" {
				fmt.Printf("Subject: %s\n", p.Subject)
			}
			fmt.Println(p.Body)
		}
		return nil
	},
}

func init() {
	pitchCmd.Flags().StringVarP(&pitchContext, "context", "c", "", "config context (default: current)")
	pitchCmd.Flags().StringVar(&pitchServer, "server", "", "recon API base URL")
	pitchCmd.Flags().StringVarP(&pitchFile, "file", "f", "", "YAML/JSON request file")
	pitchCmd.Flags().StringVar(&pitchCompany, "company", "", "target company name")
	pitchCmd.Flags().StringVar(&pitchIndustry, "industry", "", "target company industry")
	pitchCmd.Flags().StringVar(&pitchSkills, "skills", "", "your skills / offer")
	pitchCmd.Flags().StringVar(&pitchTone, "tone", "Professional", "tone: Professional, Casual, Bold")
	pitchCmd.Flags().StringVar(&pitchFormat, "format", "email", "format: email, linkedin_connect, linkedin_inmail")
	pitchCmd.Flags().StringVar(&pitchUse, "use", "sales", "use case: sales, job_application")
	pitchCmd.Flags().StringVar(&pitchJobTitle, "job-title", "", "target role (job_application)")
	pitchCmd.Flags().StringArrayVar(&pitchSignals, "signal", nil, "company fact to reference (repeatable)")
	pitchCmd.Flags().BoolVar(&pitchJSON, "json", false, "print the full result as JSON")
	rootCmd.AddCommand(pitchCmd)
}
