package intel

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/reconhq/recon/pkg/leadgen"
)

const leadJSONStructure = `
{
  "leads": [
    {
      "name": "string",
      "website": "string (Must be the specific company URL, not a directory)",
      "location": "string (City, Country)",
      "description": "string (short summary)",
      "needs": ["string (e.g. 'Hiring Developers', 'Rebranding')"],
      "heroProduct": "string",
      "phone": "string (Look for local numbers on Contact pages)",
      "email": "string (Look for info@, hello@, or specific contact emails)",
      "socials": "string (space separated urls)",
      "hotScore": number (0-100),
      "scoreReasoning": "string (Why is this score high/low?)",
      "signals": [
        {
          "type": "string (e.g. 'Hiring', 'Growth', 'Tech Stack', 'News', 'Verified Location')",
          "text": "string (Specific evidence, e.g. '3 Open Job Roles for React')",
          "confidence": "High" | "Medium" | "Low"
        }
      ],
      "openRoles": [
        {
          "title": "string",
          "location": "string",
          "type": "string (Full-time, Contract, ...)",
          "salary": "string (if listed)",
          "link": "string (posting URL)"
        }
      ],
      "hiringCulture": "string (what their careers page / posts say about how they hire)"
    }
  ]
}
`

// leadsPrompt builds the OSINT-investigator prompt for one search.
func leadsPrompt(params leadgen.SearchParams) (string, error) {
	exclusion := "None"
	if len(params.ExcludeNames) > 0 {
		exclusion = strings.Join(params.ExcludeNames, ", ")
	}

	switch params.Mode {
	case leadgen.ModeLookup:
		city := params.City
		if city == "" {
			city = "any location"
		}
		return fmt.Sprintf(`Act as a highly skilled Open Source Intelligence (OSINT) investigator.
Target: %q in %q.

TASKS:
1. Use Google Search to find their OFFICIAL website.
2. "Scrape" the website content (mentally) to find their specific email address and phone number (Check headers, footers, and 'Contact Us' pages).
3. Use Google Maps to verify they have a physical presence.
4. Look for recent news, blog posts, or social media activity to gauge their status.
5. Check their careers page for open roles and hiring culture.

Return valid JSON only. Structure:
%s`, params.CompanyName, city, leadJSONStructure), nil

	case leadgen.ModeJobs:
		return fmt.Sprintf(`Act as a highly skilled Open Source Intelligence (OSINT) investigator.
Mission: Find 5 companies in %s that are ACTIVELY HIRING for "%s" roles right now.
Exclude: %s.

EXECUTION STEPS:
1. Use Google Search for recent job postings (job boards, careers pages, LinkedIn).
2. For each company, list the matching open roles with title, location, type, salary if posted, and the posting link.
3. DEEP DIVE for Contact Info: find a real email address and phone number for each company.
4. Use Google Maps to verify their location.
5. Summarize their hiring culture from careers pages and recent posts.

SCORING:
- High Score (80+): Multiple matching open roles + direct application link + active within the last month.
- Low Score: Stale postings or no direct contact channel.

Return valid JSON only. Structure:
%s`, params.City, params.Role, exclusion, leadJSONStructure), nil

	case leadgen.ModeDiscovery, "":
		return fmt.Sprintf(`Act as a highly skilled Open Source Intelligence (OSINT) investigator.
Mission: Find 5 ACTIVE companies in the %s space in %s.
Exclude: %s.

EXECUTION STEPS:
1. Use Google Search to identify potential candidates.
2. For each candidate, verify they are active by looking for recent activity.
3. DEEP DIVE for Contact Info: You MUST try to find a real email address and phone number by searching for their "Contact Us" page or Facebook "About" section. Do not return "N/A" unless absolutely impossible to find.
4. Use Google Maps to verify their location.

SCORING:
- High Score (80+): Has Website + Email + Verified Map Location + Recent News.
- Low Score: Missing contact info or inactive website.

Return valid JSON only. Structure:
%s`, params.Industry, params.City, exclusion, leadJSONStructure), nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrBadRequest, params.Mode)
}

const pitchSystemInstruction = `You are an elite business communicator.
1. Reference provided company facts.
2. No hashtags.
3. No buzzwords like "delve", "tapestry", "unlock".
4. If format is 'linkedin_connect', the body MUST be < 300 chars.`

// pitchSchema constrains the pitch response shape.
var pitchSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"pitches": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"angle":   {Type: genai.TypeString},
					"subject": {Type: genai.TypeString},
					"body":    {Type: genai.TypeString},
				},
				Required: []string{"angle", "subject", "body"},
			},
		},
	},
	Required: []string{"pitches"},
}

// pitchPrompt builds the drafting prompt for one target, varying the
// instructions by outreach format and by sales vs job-application use.
func pitchPrompt(params leadgen.PitchParams) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Target: %s (%s)\n", params.CompanyName, params.Industry)
	fmt.Fprintf(&sb, "My Skills/Offer: %s\n", params.UserSkills)
	if len(params.CompanySignals) > 0 {
		fmt.Fprintf(&sb, "COMPANY FACTS:\n%s\n", strings.Join(params.CompanySignals, "\n"))
	}
	if params.JobTitle != "" {
		fmt.Fprintf(&sb, "TARGET ROLE: %s\n", params.JobTitle)
	}

	jobTitle := params.JobTitle
	if jobTitle == "" {
		jobTitle = "a role"
	}
	switch {
	case params.Context == "job_application" && params.Format == "linkedin_connect":
		fmt.Fprintf(&sb, `
CONTEXT: Applying for %s.
FORMAT: LinkedIn Connection Request to Hiring Manager.
LENGTH: STRICTLY UNDER 300 CHARACTERS.
SUBJECT LINE: Return an empty string "".
STYLE: Professional, expressing interest, mention skills.
`, jobTitle)
	case params.Context == "job_application":
		fmt.Fprintf(&sb, `
CONTEXT: Job Application for %s.
FORMAT: Cover Email / Cold Email to Hiring Manager.
LENGTH: Under 150 words.
SUBJECT LINE: Required. Professional (e.g., Application for %s - [Name]).
STYLE: Confident, matching skills to company needs.
`, jobTitle, jobTitle)
	case params.Format == "linkedin_connect":
		sb.WriteString(`
FORMAT: LinkedIn Connection Request
LENGTH: STRICTLY UNDER 300 CHARACTERS.
SUBJECT LINE: Return an empty string "".
STYLE: Casual, direct, mention the specific company fact.
`)
	case params.Format == "linkedin_inmail":
		sb.WriteString(`
FORMAT: LinkedIn InMail
LENGTH: Under 150 words.
SUBJECT LINE: Required. Professional and catchy.
STYLE: Conversational B2B.
`)
	default:
		fmt.Fprintf(&sb, `
FORMAT: Cold Email
LENGTH: Under 100 words.
SUBJECT LINE: Required. Intriguing.
STYLE: %s
`, params.Tone)
	}

	sb.WriteString(`
Generate 3 variations:
1. Direct & Professional
2. Value/Skill Focused
3. Culture/Research Focused (Reference a fact)
`)
	return sb.String()
}
