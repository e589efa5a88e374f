package service

import (
	"cmp"
	"fmt"
	"regexp"
	"strings"

	"learner-feature/internal/keys"
)

const (
	explainFragmentChars = 150
	chatFragmentChars    = 300
	analysisContentChars = 4000
	defaultAnalysisDepth = "comprehensive"
	languageSpanish      = "es"
	explanationHeading   = "EXPLANATION:"
	tipsHeading          = "TIPS:"
	relatedHeading       = "RELATED:"
)

const systemPrompt = "You are an AI assistant embedded in a website. You help visitors understand the page " +
	"they are on using only the website content provided to you. If that content does not cover the " +
	"question, say so briefly instead of guessing."

var sectionPattern = regexp.MustCompile(`(?s)(EXPLANATION|TIPS|RELATED):\s*(.*?)\s*(?:(?:EXPLANATION|TIPS|RELATED):|$)`)

func languageName(code string) string {
	if code == languageSpanish {
		return "Spanish"
	}
	return "English"
}

func projectLabel(key *keys.APIKey, pageURL string) string {
	name := key.ProjectName
	if name == "" {
		name = "a website"
	}
	if pageURL == "" {
		pageURL = key.ProjectURL
	}
	if pageURL != "" {
		return fmt.Sprintf("%s (%s)", name, pageURL)
	}
	return name
}

func writeFragments(b *strings.Builder, fragments []Fragment, limit int) {
	if len(fragments) == 0 {
		return
	}
	b.WriteString("RELEVANT WEBSITE CONTENT:\n")
	for i, f := range fragments {
		fmt.Fprintf(b, "%d. [%s] %s\n", i+1, f.ContentType, truncate(f.Text, limit))
	}
	b.WriteString("\n")
}

func explainPrompt(el Element, fragments []Fragment, key *keys.APIKey, pageURL, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A visitor of %s wants to understand this element.\n\n", projectLabel(key, pageURL))

	b.WriteString("ELEMENT DETAILS:\n")
	details := []struct{ label, value string }{
		{"Element Type", el.TagName},
		{"Text Content", el.TextContent},
		{"CSS Classes", el.ClassName},
		{"Element ID", el.ID},
		{"Type Attribute", el.Type},
		{"Role", el.Role},
		{"ARIA Label", el.AriaLabel},
		{"Title", el.Title},
		{"Placeholder", el.Placeholder},
		{"Link URL", el.Href},
	}
	for _, d := range details {
		if d.value != "" {
			fmt.Fprintf(&b, "%s: %s\n", d.label, d.value)
		}
	}
	b.WriteString("\n")

	writeFragments(&b, fragments, explainFragmentChars)

	fmt.Fprintf(&b, "LANGUAGE: Respond in %s.\n\n", languageName(language))
	b.WriteString("Structure your response as follows:\n\n")
	b.WriteString(explanationHeading + "\n[What this element is and does]\n\n")
	b.WriteString(tipsHeading + "\n[Practical tips for using it]\n\n")
	b.WriteString(relatedHeading + "\n[Related elements or functionality]\n\n")
	b.WriteString("Keep each section under 200 characters and use plain language.")
	return b.String()
}

func chatSystemPrompt(key *keys.APIKey, pageURL string, page PageContext, fragments []Fragment) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	fmt.Fprintf(&b, "\n\nYou are answering on %s.\n\n", projectLabel(key, pageURL))

	if page.CurrentPage != "" {
		b.WriteString("CURRENT PAGE CONTEXT:\n")
		fmt.Fprintf(&b, "Page: %s\n", page.CurrentPage)
		fmt.Fprintf(&b, "Section: %s\n", cmp.Or(page.CurrentSection, "Unknown"))
		fmt.Fprintf(&b, "User's Focus: %s\n\n", cmp.Or(page.UserFocus, "General navigation"))
	}

	writeFragments(&b, fragments, chatFragmentChars)

	b.WriteString("Be friendly and concise, give actionable guidance, and ask a clarifying question when the intent is unclear.")
	return b.String()
}

func analysisPrompt(text, query string, opts AnalyzeOptions) string {
	depth := cmp.Or(opts.AnalysisDepth, defaultAnalysisDepth)

	var b strings.Builder
	fmt.Fprintf(&b, "Provide a %s analysis of the website content below.\n\n", depth)
	fmt.Fprintf(&b, "QUERY: %s\n\n", query)
	fmt.Fprintf(&b, "CONTENT TO ANALYZE:\n%s\n\n", truncate(text, analysisContentChars))
	fmt.Fprintf(&b, "LANGUAGE: Respond in %s.\n\n", languageName(opts.Language))
	b.WriteString("Structure the response with clear sections and highlight key findings and recommendations.")
	if opts.IncludeCodeExamples {
		b.WriteString(" Include code examples where relevant.")
	}
	return b.String()
}

type sections struct {
	explanation string
	tips        string
	related     string
}

// parseSections splits a reply on its EXPLANATION/TIPS/RELATED headings.
func parseSections(reply string) sections {
	var s sections
	rest := reply
	for {
		loc := sectionPattern.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		name, body := rest[loc[2]:loc[3]], rest[loc[4]:loc[5]]
		switch name {
		case "EXPLANATION":
			s.explanation = body
		case "TIPS":
			s.tips = body
		case "RELATED":
			s.related = body
		}
		// Resume at the next heading, which the match consumed as its terminator.
		rest = rest[loc[5]:]
	}
	return s
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
