// Package leadgen defines the lead-generation domain model and the HTTP
// clients for the discovery and outreach endpoints.
package leadgen

import "strings"

// Signal is one piece of evidence about a company's current state.
type Signal struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	Confidence string `json:"confidence"` // High, Medium, Low
}

// Job is an open role at a company.
type Job struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Type     string `json:"type"`
	Salary   string `json:"salary,omitempty"`
	Link     string `json:"link,omitempty"`
	Status   string `json:"status,omitempty"` // Saved, Applied, Interviewing, Offer
	Notes    string `json:"notes,omitempty"`
}

// SavedJob is a Job pinned by the user, with its company attached.
type SavedJob struct {
	Job
	CompanyName string `json:"companyName"`
	CompanyID   string `json:"companyId"`
}

// Company is one discovered lead.
type Company struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Website        string   `json:"website"`
	Industry       string   `json:"industry"`
	Status         string   `json:"status"` // New, Saved, Contacted
	Description    string   `json:"description"`
	RecentWork     string   `json:"recentWork"`
	Needs          []string `json:"needs"`
	HeroProduct    string   `json:"heroProduct"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	Socials        string   `json:"socials"`
	HotScore       int      `json:"hotScore"`
	ScoreReasoning string   `json:"scoreReasoning,omitempty"`
	Signals        []Signal `json:"signals"`
	Location       string   `json:"location"`
	OpenRoles      []Job    `json:"openRoles,omitempty"`
	HiringCulture  string   `json:"hiringCulture,omitempty"`
}

// Summary renders the company as a short text block suitable for voice
// context injection.
func (c *Company) Summary() string {
	var sb strings.Builder
	sb.WriteString("User is analyzing: " + c.Name + " (" + c.Industry + ").")
	if c.Description != "" {
		desc := c.Description
		if len(desc) > 200 {
			desc = desc[:200] + "..."
		}
		sb.WriteString(" Description: " + desc)
	}
	if len(c.Needs) > 0 {
		sb.WriteString(" Key Needs: " + strings.Join(c.Needs, ", ") + ".")
	}
	if len(c.OpenRoles) > 0 {
		titles := make([]string, len(c.OpenRoles))
		for i, r := range c.OpenRoles {
			titles[i] = r.Title
		}
		sb.WriteString(" Open Roles: " + strings.Join(titles, ", "))
	} else {
		sb.WriteString(" Open Roles: None detected")
	}
	return sb.String()
}

// Source is a grounding citation for a search result.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// SearchMode selects the discovery flavor.
type SearchMode string

const (
	ModeDiscovery SearchMode = "discovery"
	ModeLookup    SearchMode = "lookup"
	ModeJobs      SearchMode = "jobs"
)

// SearchParams is the request body for the leads endpoint.
type SearchParams struct {
	Mode         SearchMode `json:"mode"`
	Industry     string     `json:"industry,omitempty"` // used as role in jobs mode
	City         string     `json:"city"`
	CompanyName  string     `json:"companyName,omitempty"`
	Role         string     `json:"role,omitempty"`
	ExcludeNames []string   `json:"excludeNames,omitempty"`
}

// SearchResult is the response body for the leads endpoint.
type SearchResult struct {
	Leads   []Company `json:"leads"`
	Sources []Source  `json:"sources"`
}

// Pitch is one generated outreach message variation.
type Pitch struct {
	Angle   string `json:"angle"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// PitchParams is the request body for the pitch endpoint.
type PitchParams struct {
	CompanyName    string   `json:"companyName"`
	Industry       string   `json:"industry"`
	UserSkills     string   `json:"userSkills"`
	Tone           string   `json:"tone"` // Professional, Casual, Bold
	CompanySignals []string `json:"companySignals,omitempty"`
	Format         string   `json:"format,omitempty"`  // email, linkedin_connect, linkedin_inmail
	Context        string   `json:"context,omitempty"` // sales, job_application
	JobTitle       string   `json:"jobTitle,omitempty"`
}

// PitchResult is the response body for the pitch endpoint.
type PitchResult struct {
	Pitches []Pitch `json:"pitches"`
}
