package intel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"

	"github.com/reconhq/recon/pkg/leadgen"
)

// decodeModelJSON parses model output that is supposed to be JSON but
// routinely arrives wrapped in markdown fences or with trailing prose.
// Strategy: strip fences, cut to the outermost braces, then fall back to
// jsonrepair for truncated or sloppy output.
func decodeModelJSON(text string, v any) error {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first != -1 && last > first {
		text = text[first : last+1]
	}
	if text == "" {
		return errors.New("empty response")
	}

	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}

	fixed, rerr := jsonrepair.JSONRepair(text)
	if rerr != nil {
		return fmt.Errorf("unmarshal: %w (repair: %v)", err, rerr)
	}
	return json.Unmarshal([]byte(fixed), v)
}

// finalizeLeads fills in the fields the model is allowed to omit so
// downstream code never deals with half-populated companies.
func finalizeLeads(leads []leadgen.Company, city string) []leadgen.Company {
	out := make([]leadgen.Company, 0, len(leads))
	for _, lead := range leads {
		lead.ID = "gen-" + uuid.NewString()
		lead.Status = "New"
		lead.RecentWork = lead.Description
		lead.Website = orNA(lead.Website)
		lead.Phone = orNA(lead.Phone)
		lead.Email = orNA(lead.Email)
		lead.Socials = orNA(lead.Socials)
		if lead.Signals == nil {
			lead.Signals = []leadgen.Signal{}
		}
		if lead.Location == "" {
			lead.Location = city
		}
		for i := range lead.OpenRoles {
			if lead.OpenRoles[i].ID == "" {
				lead.OpenRoles[i].ID = "job-" + uuid.NewString()
			}
		}
		out = append(out, lead)
	}
	return out
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
