package api

import (
	"strings"

	"resumeforge/internal/database"
)

// Request DTOs for the element kinds. Update reuses the create shape:
// a PUT replaces the element's content with exactly what the request
// carries.

type customLinkRequest struct {
	Label string `json:"label" binding:"max=100"`
	URL   string `json:"url" binding:"required,url,max=512"`
}

type headingRequest struct {
	Mobile      string              `json:"mobile" binding:"max=32"`
	CustomLinks []customLinkRequest `json:"custom_links" binding:"max=10,dive"`
}

func applyHeading(m *database.Heading, r headingRequest) {
	m.Mobile = strings.TrimSpace(r.Mobile)
	links := make([]database.CustomLink, 0, len(r.CustomLinks))
	for _, link := range r.CustomLinks {
		links = append(links, database.CustomLink{
			Label: strings.TrimSpace(link.Label),
			URL:   strings.TrimSpace(link.URL),
		})
	}
	m.CustomLinks = links
}

type educationRequest struct {
	Institution string   `json:"institution" binding:"required,max=255"`
	Location    string   `json:"location" binding:"max=255"`
	Degree      string   `json:"degree" binding:"required,max=255"`
	GPA         *float64 `json:"gpa" binding:"omitempty,gte=0"`
	MaxGPA      *float64 `json:"max_gpa" binding:"omitempty,gt=0"`
	StartDate   string   `json:"start_date" binding:"max=64"`
	EndDate     string   `json:"end_date" binding:"max=64"`
	Courses     []string `json:"courses" binding:"max=50,dive,max=255"`
}

func applyEducation(m *database.Education, r educationRequest) {
	m.Institution = strings.TrimSpace(r.Institution)
	m.Location = strings.TrimSpace(r.Location)
	m.Degree = strings.TrimSpace(r.Degree)
	m.GPA = r.GPA
	m.MaxGPA = r.MaxGPA
	m.StartDate = strings.TrimSpace(r.StartDate)
	m.EndDate = strings.TrimSpace(r.EndDate)
	m.Courses = append([]string{}, r.Courses...)
}

type experienceProjectRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"max=2000"`
}

type experienceRequest struct {
	Company   string                     `json:"company" binding:"required,max=255"`
	Location  string                     `json:"location" binding:"max=255"`
	Position  string                     `json:"position" binding:"required,max=255"`
	StartDate string                     `json:"start_date" binding:"max=64"`
	EndDate   string                     `json:"end_date" binding:"max=64"`
	Projects  []experienceProjectRequest `json:"projects" binding:"max=20,dive"`
}

func applyExperience(m *database.Experience, r experienceRequest) {
	m.Company = strings.TrimSpace(r.Company)
	m.Location = strings.TrimSpace(r.Location)
	m.Position = strings.TrimSpace(r.Position)
	m.StartDate = strings.TrimSpace(r.StartDate)
	m.EndDate = strings.TrimSpace(r.EndDate)
	projects := make([]database.ExperienceProject, 0, len(r.Projects))
	for _, project := range r.Projects {
		projects = append(projects, database.ExperienceProject{
			Title:       strings.TrimSpace(project.Title),
			Description: project.Description,
		})
	}
	m.Projects = projects
}

type projectRequest struct {
	Name      string   `json:"name" binding:"required,max=255"`
	StartDate string   `json:"start_date" binding:"max=64"`
	EndDate   string   `json:"end_date" binding:"max=64"`
	TechStack string   `json:"tech_stack" binding:"max=512"`
	Link      string   `json:"link" binding:"omitempty,url,max=512"`
	LinkLabel string   `json:"link_label" binding:"max=255"`
	Subpoints []string `json:"subpoints" binding:"max=20,dive,max=2000"`
}

func applyProject(m *database.Project, r projectRequest) {
	m.Name = strings.TrimSpace(r.Name)
	m.StartDate = strings.TrimSpace(r.StartDate)
	m.EndDate = strings.TrimSpace(r.EndDate)
	m.TechStack = strings.TrimSpace(r.TechStack)
	m.Link = strings.TrimSpace(r.Link)
	m.LinkLabel = strings.TrimSpace(r.LinkLabel)
	m.Subpoints = append([]string{}, r.Subpoints...)
}

type skillRequest struct {
	Category string   `json:"category" binding:"required,max=255"`
	Items    []string `json:"items" binding:"required,min=1,max=50,dive,max=255"`
}

func applySkill(m *database.Skill, r skillRequest) {
	m.Category = strings.TrimSpace(r.Category)
	m.Items = append([]string{}, r.Items...)
}

type certificationRequest struct {
	Title             string `json:"title" binding:"required,max=255"`
	StartDate         string `json:"start_date" binding:"max=64"`
	EndDate           string `json:"end_date" binding:"max=64"`
	Instructor        string `json:"instructor" binding:"max=255"`
	Platform          string `json:"platform" binding:"max=255"`
	CertificationLink string `json:"certification_link" binding:"omitempty,url,max=512"`
}

func applyCertification(m *database.Certification, r certificationRequest) {
	m.Title = strings.TrimSpace(r.Title)
	m.StartDate = strings.TrimSpace(r.StartDate)
	m.EndDate = strings.TrimSpace(r.EndDate)
	m.Instructor = strings.TrimSpace(r.Instructor)
	m.Platform = strings.TrimSpace(r.Platform)
	m.CertificationLink = strings.TrimSpace(r.CertificationLink)
}

type awardRequest struct {
	Title string `json:"title" binding:"required,max=255"`
	Date  string `json:"date" binding:"max=64"`
}

func applyAward(m *database.Award, r awardRequest) {
	m.Title = strings.TrimSpace(r.Title)
	m.Date = strings.TrimSpace(r.Date)
}

type volunteerRequest struct {
	Position     string `json:"position" binding:"required,max=255"`
	Organization string `json:"organization" binding:"max=255"`
	Location     string `json:"location" binding:"max=255"`
	Description  string `json:"description" binding:"max=2000"`
	StartDate    string `json:"start_date" binding:"max=64"`
	EndDate      string `json:"end_date" binding:"max=64"`
}

func applyVolunteer(m *database.Volunteer, r volunteerRequest) {
	m.Position = strings.TrimSpace(r.Position)
	m.Organization = strings.TrimSpace(r.Organization)
	m.Location = strings.TrimSpace(r.Location)
	m.Description = r.Description
	m.StartDate = strings.TrimSpace(r.StartDate)
	m.EndDate = strings.TrimSpace(r.EndDate)
}
