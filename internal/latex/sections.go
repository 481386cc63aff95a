package latex

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"resumeforge/internal/database"
)

// Kind identifies one resume section. The set is closed: adding a kind
// means adding a renderer case below and a reference list on
// database.CustomResume.
type Kind int

const (
	KindHeading Kind = iota
	KindEducation
	KindExperience
	KindProject
	KindSkill
	KindCertification
	KindAward
	KindVolunteer
)

// String returns the singular lowercase name used in API errors and logs.
func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindEducation:
		return "education"
	case KindExperience:
		return "experience"
	case KindProject:
		return "project"
	case KindSkill:
		return "skill"
	case KindCertification:
		return "certification"
	case KindAward:
		return "award"
	case KindVolunteer:
		return "volunteer"
	}
	return "unknown"
}

// Kinds lists every section kind in document order. The heading always
// comes first; the rest appear only when they have elements.
func Kinds() []Kind {
	return []Kind{
		KindHeading,
		KindEducation,
		KindExperience,
		KindProject,
		KindSkill,
		KindCertification,
		KindAward,
		KindVolunteer,
	}
}

// Selection carries the populated element rows for a single render,
// already scoped to one owner and ordered the way the resume's
// reference lists order them. Rendering is pure: same Selection, same
// bytes.
type Selection struct {
	User           database.User
	Headings       []database.Heading
	Educations     []database.Education
	Experiences    []database.Experience
	Projects       []database.Project
	Skills         []database.Skill
	Certifications []database.Certification
	Awards         []database.Award
	Volunteers     []database.Volunteer
}

// Fragment renders the section for one kind. Kinds without elements
// yield the empty string and are dropped by the composer. The heading
// never yields empty: it falls back to the account's name and email.
func (s *Selection) Fragment(k Kind) string {
	switch k {
	case KindHeading:
		return renderHeading(s.User, s.Headings)
	case KindEducation:
		return renderEducations(s.Educations)
	case KindExperience:
		return renderExperiences(s.Experiences)
	case KindProject:
		return renderProjects(s.Projects)
	case KindSkill:
		return renderSkills(s.Skills)
	case KindCertification:
		return renderCertifications(s.Certifications)
	case KindAward:
		return renderAwards(s.Awards)
	case KindVolunteer:
		return renderVolunteers(s.Volunteers)
	}
	return ""
}

// Fragments renders every kind in document order.
func (s *Selection) Fragments() []string {
	kinds := Kinds()
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, s.Fragment(k))
	}
	return out
}

func renderHeading(user database.User, headings []database.Heading) string {
	mobile := ""
	var links []database.CustomLink
	if len(headings) > 0 {
		// One heading per resume; extras are ignored.
		mobile = headings[0].Mobile
		links = headings[0].CustomLinks
	}

	lines := []string{`\begin{tabular*}{\textwidth}{l@{\extracolsep{\fill}}r}`}

	name := Escape(user.FullName())
	email := Escape(user.Email)
	lines = append(lines, fmt.Sprintf(`  \textbf{\LARGE %s} & Email: \href{mailto:%s}{%s}\\`, name, user.Email, email))

	var linkLines []string
	for _, link := range links {
		urlEscaped := Escape(link.URL)
		lower := strings.ToLower(link.URL)
		switch {
		case strings.Contains(lower, "linkedin"):
			linkLines = append(linkLines, fmt.Sprintf(`  \href{%s}{LinkedIn: %s}`, link.URL, urlEscaped))
		case strings.Contains(lower, "github"):
			linkLines = append(linkLines, fmt.Sprintf(`  \href{%s}{GitHub: ~~%s}`, link.URL, urlEscaped))
		default:
			label := urlEscaped
			if link.Label != "" {
				label = Escape(link.Label)
			}
			linkLines = append(linkLines, fmt.Sprintf(`  \href{%s}{%s}`, link.URL, label))
		}
	}

	switch {
	case len(linkLines) > 0 && mobile != "":
		lines = append(lines, strings.Join(linkLines, ` \\`)+fmt.Sprintf(` & Mobile:~~~%s \\`, Escape(mobile)))
	case len(linkLines) > 0:
		lines = append(lines, strings.Join(linkLines, ` \\`)+` \\`)
	case mobile != "":
		lines = append(lines, fmt.Sprintf(`  & Mobile:~~~%s \\`, Escape(mobile)))
	}

	lines = append(lines, `\end{tabular*}`)
	return strings.Join(lines, "\n")
}

func formatGPA(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func renderEducations(educations []database.Education) string {
	if len(educations) == 0 {
		return ""
	}

	lines := []string{
		"%-----------EDUCATION-----------------",
		`\section{Education}`,
		`  \resumeSubHeadingListStart`,
	}

	for _, edu := range educations {
		degreeLine := Escape(edu.Degree)
		switch {
		case edu.GPA != nil && edu.MaxGPA != nil:
			degreeLine += fmt.Sprintf(";  GPA: %s/%s", formatGPA(*edu.GPA), formatGPA(*edu.MaxGPA))
		case edu.GPA != nil:
			degreeLine += fmt.Sprintf(";  GPA: %s", formatGPA(*edu.GPA))
		}

		lines = append(lines,
			`    \resumeSubheading`,
			fmt.Sprintf("      {%s}{%s}", Escape(edu.Institution), Escape(edu.Location)),
			fmt.Sprintf("      {%s}{%s}", degreeLine, DateRange(edu.StartDate, edu.EndDate)),
		)

		if len(edu.Courses) > 0 {
			courses := make([]string, 0, len(edu.Courses))
			for _, course := range edu.Courses {
				courses = append(courses, Escape(course))
			}
			lines = append(lines, fmt.Sprintf(`      {\scriptsize \textit{ \footnotesize{\newline{}\textbf{Courses:} %s}}}`, strings.Join(courses, ", ")))
		}
	}

	lines = append(lines, `  \resumeSubHeadingListEnd`)
	return strings.Join(lines, "\n")
}

func renderExperiences(experiences []database.Experience) string {
	if len(experiences) == 0 {
		return ""
	}

	lines := []string{
		"%-----------EXPERIENCE-----------------",
		`\vspace{-5pt}`,
		`\section{Experience}`,
		`  \resumeSubHeadingListStart`,
		`\vspace{3pt}`,
	}

	for _, exp := range experiences {
		lines = append(lines,
			`        \resumeSubheading`,
			fmt.Sprintf("  {%s}{%s}", Escape(exp.Company), Escape(exp.Location)),
			fmt.Sprintf("  {%s}{%s}", Escape(exp.Position), DateRange(exp.StartDate, exp.EndDate)),
		)

		if len(exp.Projects) > 0 {
			lines = append(lines, `    \resumeItemListStart`)
			for _, project := range exp.Projects {
				lines = append(lines,
					fmt.Sprintf(`        \resumeItem{%s}`, Escape(project.Title)),
					fmt.Sprintf("          {%s}", Escape(project.Description)),
				)
			}
			lines = append(lines, `      \resumeItemListEnd`)
		}
	}

	lines = append(lines, `\resumeSubHeadingListEnd`)
	return strings.Join(lines, "\n")
}

func renderProjects(projects []database.Project) string {
	if len(projects) == 0 {
		return ""
	}

	lines := []string{
		"%-----------PROJECTS-----------------",
		`\vspace{3pt}`,
		`\section{Projects}`,
		"",
	}

	for _, project := range projects {
		linkText := "{}"
		if project.Link != "" {
			label := project.LinkLabel
			if label == "" {
				label = "Link"
			}
			linkText = fmt.Sprintf(`\href{%s}{%s}`, project.Link, Escape(label))
		}

		lines = append(lines,
			`\resumeSubHeadingListStart`,
			fmt.Sprintf(`    \resumeSubheading{%s}`, Escape(project.Name)),
			fmt.Sprintf("    {%s}{Tech: %s}", DateRange(project.StartDate, project.EndDate), Escape(project.TechStack)),
			fmt.Sprintf("    {%s}", linkText),
		)

		if len(project.Subpoints) > 0 {
			lines = append(lines, `    \resumeItemListStart`)
			for _, subpoint := range project.Subpoints {
				lines = append(lines,
					`        \resumeItem{}`,
					fmt.Sprintf("          {%s}", Escape(subpoint)),
				)
			}
			lines = append(lines, `      \resumeItemListEnd`)
		}

		lines = append(lines, `\resumeSubHeadingListEnd`)
	}

	return strings.Join(lines, "\n")
}

func renderSkills(skills []database.Skill) string {
	if len(skills) == 0 {
		return ""
	}

	lines := []string{
		"%-----------SKILLS SUMMARY-----------------",
		`\vspace{-5pt}`,
		`\section{Skills Summary}`,
		"\t\\resumeSubHeadingListStart",
	}

	for _, skill := range skills {
		category := Escape(skill.Category)
		items := make([]string, 0, len(skill.Items))
		for _, item := range skill.Items {
			items = append(items, Escape(item))
		}

		// Pad narrow category labels so item columns roughly line up.
		spacing := "~~"
		switch n := utf8.RuneCountInString(category); {
		case n <= 10:
			spacing = "~~~~~~"
		case n <= 15:
			spacing = "~~~~"
		}
		lines = append(lines, fmt.Sprintf("\t\\resumeSubItem{%s}{%s%s}", category, spacing, strings.Join(items, ", ")))
	}

	lines = append(lines, `\resumeSubHeadingListEnd`)
	return strings.Join(lines, "\n")
}

func renderCertifications(certifications []database.Certification) string {
	if len(certifications) == 0 {
		return ""
	}

	lines := []string{
		"%-----------CERTIFICATIONS-----------------",
		`\vspace{-5pt}`,
		`\section{Certifications}`,
	}

	for _, cert := range certifications {
		orgLine := fmt.Sprintf("Platform: %s", Escape(cert.Platform))
		if cert.Instructor != "" {
			orgLine = fmt.Sprintf(`Instructor: %s \hspace{48pt}Platform: %s`, Escape(cert.Instructor), Escape(cert.Platform))
		}

		linkText := "{}"
		if cert.CertificationLink != "" {
			linkText = fmt.Sprintf(`\href{%s}{Certification Link}`, cert.CertificationLink)
		}

		lines = append(lines,
			`\resumeSubHeadingListStart`,
			fmt.Sprintf(`    \resumeSubheading{%s}`, Escape(cert.Title)),
			fmt.Sprintf("    {%s}{%s}", DateRange(cert.StartDate, cert.EndDate), orgLine),
			fmt.Sprintf("    {%s}", linkText),
			`\resumeSubHeadingListEnd`,
		)
	}

	lines = append(lines, `\vspace{-1pt}`)
	return strings.Join(lines, "\n")
}

func renderAwards(awards []database.Award) string {
	if len(awards) == 0 {
		return ""
	}

	lines := []string{
		"%-----------AWARDS-----------------",
		`\section{Honors and Awards}`,
		`\begin{description}[font=$\bullet$]`,
	}

	for _, award := range awards {
		lines = append(lines,
			fmt.Sprintf(`\item {%s \hfill \raggedleft %s}`, Escape(award.Title), Escape(award.Date)),
			`\vspace{-5pt}`,
		)
	}

	lines = append(lines, `\end{description}`)
	return strings.Join(lines, "\n")
}

func renderVolunteers(volunteers []database.Volunteer) string {
	if len(volunteers) == 0 {
		return ""
	}

	lines := []string{
		"%-----------VOLUNTEER EXPERIENCE-----------------",
		`\vspace{-5pt}`,
		`\section{Volunteer Experience}`,
		`  \resumeSubHeadingListStart`,
	}

	for i, vol := range volunteers {
		lines = append(lines,
			"\t\\resumeSubheading",
			fmt.Sprintf("    {%s, %s}{%s}", Escape(vol.Position), Escape(vol.Organization), Escape(vol.Location)),
			fmt.Sprintf("    {%s}{%s}", Escape(vol.Description), DateRange(vol.StartDate, vol.EndDate)),
		)
		if i != len(volunteers)-1 {
			lines = append(lines, `\vspace{5pt}`)
		}
	}

	lines = append(lines, `\resumeSubHeadingListEnd`)
	return strings.Join(lines, "\n")
}
