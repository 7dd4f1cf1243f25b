package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"

	"github.com/reconhq/recon/pkg/audio/pcm"
	"github.com/reconhq/recon/pkg/audio/portaudio"
	"github.com/reconhq/recon/pkg/cli"
	"github.com/reconhq/recon/pkg/leadgen"
	"github.com/reconhq/recon/pkg/voice"
	"github.com/reconhq/recon/pkg/voice/capture"
	"github.com/reconhq/recon/pkg/voice/live"
)

var (
	voiceContext     string
	voiceCompanyFile string
	voiceCompanyID   string
	voiceModel       string
	voiceNoSearch    bool
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Live voice session from the terminal",
	Long: `Talk to the recon assistant over the microphone. Audio streams
both ways; barge in by speaking while it talks. Ctrl-C ends the session.

A company can be injected as conversation context, either from a saved
lead (--company-id) or from a YAML/JSON file (--company-file).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gc, err := geminiConfig(voiceContext)
		if err != nil {
			return err
		}

		company, err := loadVoiceCompany(cmd.Context())
		if err != nil {
			return err
		}

		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("audio subsystem: %w", err)
		}

		speaker, err := portaudio.OpenSpeaker(pcm.L16Mono24K)
		if err != nil {
			return fmt.Errorf("open speaker: %w", err)
		}

		model := voiceModel
		if model == "" {
			model = gc.LiveModel
		}

		// Status and level share one terminal line.
		var lineMu sync.Mutex
		status := "connecting"
		render := func(level float64) {
			lineMu.Lock()
			fmt.Fprint(os.Stderr, cli.StatusLine(status, level))
			lineMu.Unlock()
		}

		controller := voice.New(voice.Options{
			Dial: func(ctx context.Context) (voice.Transport, error) {
				return live.Dial(ctx, live.Config{
					APIKey:            gc.APIKey,
					Model:             model,
					Voice:             gc.Voice,
					SystemInstruction: gc.SystemInstruction,
					EnableSearch:      !voiceNoSearch,
				})
			},
			Mic:  openMicrophone,
			Sink: speaker,
			OnStatus: func(s voice.Status) {
				lineMu.Lock()
				status = s.String()
				lineMu.Unlock()
				render(0)
			},
			OnLevel: render,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if company != nil {
			controller.SetContext(company)
		}
		if err := controller.Start(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			controller.Close()
			<-controller.Done()
		case <-controller.Done():
		}
		fmt.Fprintln(os.Stderr)

		return controller.Err()
	},
}

// openMicrophone acquires the default input device at the wire rate,
// translating device errors to the capture taxonomy.
func openMicrophone() (capture.Device, error) {
	mic, err := portaudio.OpenMicrophone(capture.WireFormat.SampleRate(), capture.DefaultFrameSize)
	if errors.Is(err, portaudio.ErrNoDevice) {
		return nil, capture.ErrDeviceUnavailable
	}
	if err != nil {
		return nil, err
	}
	return mic, nil
}

// loadVoiceCompany resolves the optional context company from a saved
// lead or a request file.
func loadVoiceCompany(ctx context.Context) (*leadgen.Company, error) {
	switch {
	case voiceCompanyID != "":
		st, closeStore, err := openStore()
		if err != nil {
			return nil, err
		}
		defer closeStore()
		companies, err := st.SavedCompanies(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range companies {
			if c.ID == voiceCompanyID {
				return &c, nil
			}
		}
		return nil, fmt.Errorf("saved company %q not found", voiceCompanyID)

	case voiceCompanyFile != "":
		var company leadgen.Company
		if err := cli.LoadRequest(voiceCompanyFile, &company); err != nil {
			return nil, err
		}
		if company.ID == "" {
			company.ID = company.Name
		}
		return &company, nil
	}
	return nil, nil
}

func init() {
	voiceCmd.Flags().StringVarP(&voiceContext, "context", "c", "", "config context (default: current)")
	voiceCmd.Flags().StringVar(&voiceCompanyFile, "company-file", "", "YAML/JSON company to discuss")
	voiceCmd.Flags().StringVar(&voiceCompanyID, "company-id", "", "saved company ID to discuss")
	voiceCmd.Flags().StringVar(&voiceModel, "model", "", "live audio model override")
	voiceCmd.Flags().BoolVar(&voiceNoSearch, "no-search", false, "disable the search tool")
	rootCmd.AddCommand(voiceCmd)
}
