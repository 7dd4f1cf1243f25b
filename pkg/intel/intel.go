// Package intel is the server side of lead discovery and pitch
// generation: search-grounded company research and outreach drafting on
// the Gemini API.
package intel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/reconhq/recon/pkg/leadgen"
)

// ErrBadRequest marks a caller mistake (missing search fields). The HTTP
// layer maps it to a 400.
var ErrBadRequest = errors.New("intel: bad request")

// Default models. Discovery needs the search+maps tool combo; pitch
// drafting runs on the cheaper preview model with a response schema.
const (
	DefaultLeadsModel = "gemini-2.5-flash"
	DefaultPitchModel = "gemini-3-flash-preview"
)

// Config describes a Service.
type Config struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// LeadsModel overrides DefaultLeadsModel.
	LeadsModel string

	// PitchModel overrides DefaultPitchModel.
	PitchModel string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// generateFunc is the model call, swappable in tests.
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Service runs discovery and pitch generation.
type Service struct {
	cfg      Config
	logger   *slog.Logger
	generate generateFunc
}

// New creates a Service backed by a Gemini client.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("intel: missing API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("intel: client: %w", err)
	}
	return newService(cfg, func(ctx context.Context, model string, contents []*genai.Content, gcfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return client.Models.GenerateContent(ctx, model, contents, gcfg)
	}), nil
}

func newService(cfg Config, generate generateFunc) *Service {
	if cfg.LeadsModel == "" {
		cfg.LeadsModel = DefaultLeadsModel
	}
	if cfg.PitchModel == "" {
		cfg.PitchModel = DefaultPitchModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{cfg: cfg, logger: cfg.Logger, generate: generate}
}

// FindLeads runs one search-grounded discovery pass and returns
// post-processed leads plus grounding sources.
func (s *Service) FindLeads(ctx context.Context, params leadgen.SearchParams) (*leadgen.SearchResult, error) {
	if err := validateSearch(params); err != nil {
		return nil, err
	}

	prompt, err := leadsPrompt(params)
	if err != nil {
		return nil, err
	}

	resp, err := s.generate(ctx, s.cfg.LeadsModel,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			// Search scrapes contact info; maps verifies the location.
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
				{GoogleMaps: &genai.GoogleMaps{}},
			},
			Temperature: genai.Ptr[float32](0.5),
		})
	if err != nil {
		return nil, fmt.Errorf("intel: leads generate: %w", err)
	}

	var payload struct {
		Leads []leadgen.Company `json:"leads"`
	}
	if err := decodeModelJSON(responseText(resp), &payload); err != nil {
		s.logger.Error("intel: unparseable leads response", "err", err)
		return nil, fmt.Errorf("intel: parse leads response: %w", err)
	}

	return &leadgen.SearchResult{
		Leads:   finalizeLeads(payload.Leads, params.City),
		Sources: groundingSources(resp),
	}, nil
}

// GeneratePitch drafts three outreach variations for one target.
func (s *Service) GeneratePitch(ctx context.Context, params leadgen.PitchParams) (*leadgen.PitchResult, error) {
	if params.CompanyName == "" {
		return nil, fmt.Errorf("%w: companyName is required", ErrBadRequest)
	}

	resp, err := s.generate(ctx, s.cfg.PitchModel,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: pitchPrompt(params)}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: pitchSystemInstruction}}},
			ResponseMIMEType:  "application/json",
			ResponseSchema:    pitchSchema,
			Temperature:       genai.Ptr[float32](0.7),
		})
	if err != nil {
		return nil, fmt.Errorf("intel: pitch generate: %w", err)
	}

	var result leadgen.PitchResult
	if err := decodeModelJSON(responseText(resp), &result); err != nil {
		s.logger.Error("intel: unparseable pitch response", "err", err)
		return nil, fmt.Errorf("intel: parse pitch response: %w", err)
	}
	if len(result.Pitches) == 0 {
		return nil, errors.New("intel: model returned no pitches")
	}
	return &result, nil
}

func validateSearch(params leadgen.SearchParams) error {
	switch params.Mode {
	case leadgen.ModeLookup:
		if params.CompanyName == "" {
			return fmt.Errorf("%w: companyName is required for lookup", ErrBadRequest)
		}
	case leadgen.ModeJobs:
		if params.Role == "" || params.City == "" {
			return fmt.Errorf("%w: role and city are required for jobs search", ErrBadRequest)
		}
	case leadgen.ModeDiscovery, "":
		if params.Industry == "" || params.City == "" {
			return fmt.Errorf("%w: industry and city are required", ErrBadRequest)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrBadRequest, params.Mode)
	}
	return nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// groundingSources extracts web citations from the response metadata.
func groundingSources(resp *genai.GenerateContentResponse) []leadgen.Source {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return nil
	}
	var sources []leadgen.Source
	seen := make(map[string]bool)
	for _, chunk := range gm.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		sources = append(sources, leadgen.Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return sources
}
