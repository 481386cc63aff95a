package database

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Model is the embedded base for all domain tables. Keys are UUIDs
// generated client-side so records can be addressed before the insert
// round-trips.
type Model struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate fills in the primary key when the caller did not.
func (m *Model) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// RecordID reports the primary key.
func (m Model) RecordID() uuid.UUID { return m.ID }

// Owned scopes a record to the account that created it. Queries over
// owned tables must always filter on user_id; ownership is the only
// access control below the API layer.
type Owned struct {
	Model
	UserID uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
}

// Claim assigns the owner.
func (o *Owned) Claim(owner uuid.UUID) { o.UserID = owner }

// Owner reports the owning account.
func (o *Owned) Owner() uuid.UUID { return o.UserID }

// User represents an account.
type User struct {
	Model
	Email        string `gorm:"uniqueIndex;size:255" json:"email"`
	FirstName    string `gorm:"size:100" json:"first_name"`
	LastName     string `gorm:"size:100" json:"last_name"`
	PasswordHash string `gorm:"size:255" json:"-"`
}

// FullName joins first and last name for the rendered heading.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CustomLink is a labeled URL shown in the heading block.
type CustomLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ExperienceProject is one bullet under an experience entry.
type ExperienceProject struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Heading holds the contact block rendered at the top of a resume.
// Name and email come from the owning User at render time.
type Heading struct {
	Owned
	Mobile      string                          `gorm:"size:32" json:"mobile"`
	CustomLinks datatypes.JSONSlice[CustomLink] `json:"custom_links"`
}

// Education is a single schooling entry.
type Education struct {
	Owned
	Institution string                      `gorm:"size:255" json:"institution"`
	Location    string                      `gorm:"size:255" json:"location"`
	Degree      string                      `gorm:"size:255" json:"degree"`
	GPA         *float64                    `json:"gpa,omitempty"`
	MaxGPA      *float64                    `json:"max_gpa,omitempty"`
	StartDate   string                      `gorm:"size:64" json:"start_date"`
	EndDate     string                      `gorm:"size:64" json:"end_date"`
	Courses     datatypes.JSONSlice[string] `json:"courses"`
}

// Experience is a single employment entry with optional project bullets.
type Experience struct {
	Owned
	Company   string                                 `gorm:"size:255" json:"company"`
	Location  string                                 `gorm:"size:255" json:"location"`
	Position  string                                 `gorm:"size:255" json:"position"`
	StartDate string                                 `gorm:"size:64" json:"start_date"`
	EndDate   string                                 `gorm:"size:64" json:"end_date"`
	Projects  datatypes.JSONSlice[ExperienceProject] `json:"projects"`
}

// Project is a standalone project entry.
type Project struct {
	Owned
	Name      string                      `gorm:"size:255" json:"name"`
	StartDate string                      `gorm:"size:64" json:"start_date"`
	EndDate   string                      `gorm:"size:64" json:"end_date"`
	TechStack string                      `gorm:"size:512" json:"tech_stack"`
	Link      string                      `gorm:"size:512" json:"link"`
	LinkLabel string                      `gorm:"size:255" json:"link_label"`
	Subpoints datatypes.JSONSlice[string] `json:"subpoints"`
}

// Skill is one category of skills with its item list.
type Skill struct {
	Owned
	Category string                      `gorm:"size:255" json:"category"`
	Items    datatypes.JSONSlice[string] `json:"items"`
}

// Certification is a single certificate entry.
type Certification struct {
	Owned
	Title             string `gorm:"size:255" json:"title"`
	StartDate         string `gorm:"size:64" json:"start_date"`
	EndDate           string `gorm:"size:64" json:"end_date"`
	Instructor        string `gorm:"size:255" json:"instructor"`
	Platform          string `gorm:"size:255" json:"platform"`
	CertificationLink string `gorm:"size:512" json:"certification_link"`
}

// Award is a single award entry.
type Award struct {
	Owned
	Title string `gorm:"size:255" json:"title"`
	Date  string `gorm:"size:64" json:"date"`
}

// Volunteer is a single volunteering entry.
type Volunteer struct {
	Owned
	Position     string `gorm:"size:255" json:"position"`
	Organization string `gorm:"size:255" json:"organization"`
	Location     string `gorm:"size:255" json:"location"`
	Description  string `gorm:"type:text" json:"description"`
	StartDate    string `gorm:"size:64" json:"start_date"`
	EndDate      string `gorm:"size:64" json:"end_date"`
}

// CustomResume assembles elements by reference. The id lists point at
// the element tables above; deleting a resume never touches the
// referenced elements. Artifact fields are filled by the render
// pipeline after a successful run.
type CustomResume struct {
	Owned
	Name             string                         `gorm:"size:255" json:"name"`
	HeadingIDs       datatypes.JSONSlice[uuid.UUID] `json:"heading_ids"`
	EducationIDs     datatypes.JSONSlice[uuid.UUID] `json:"education_ids"`
	ExperienceIDs    datatypes.JSONSlice[uuid.UUID] `json:"experience_ids"`
	ProjectIDs       datatypes.JSONSlice[uuid.UUID] `json:"project_ids"`
	SkillIDs         datatypes.JSONSlice[uuid.UUID] `json:"skill_ids"`
	CertificationIDs datatypes.JSONSlice[uuid.UUID] `json:"certification_ids"`
	AwardIDs         datatypes.JSONSlice[uuid.UUID] `json:"award_ids"`
	VolunteerIDs     datatypes.JSONSlice[uuid.UUID] `json:"volunteer_ids"`

	SourceURL          string     `gorm:"size:512" json:"source_url"`
	SourceObjectKey    string     `gorm:"size:512" json:"source_object_key"`
	PdfURL             string     `gorm:"size:512" json:"pdf_url"`
	PdfObjectKey       string     `gorm:"size:512" json:"pdf_object_key"`
	ThumbnailURL       string     `gorm:"size:512" json:"thumbnail_url"`
	ThumbnailObjectKey string     `gorm:"size:512" json:"thumbnail_object_key"`
	RenderedAt         *time.Time `json:"rendered_at,omitempty"`
}

// Migrate creates or updates every domain table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Heading{},
		&Education{},
		&Experience{},
		&Project{},
		&Skill{},
		&Certification{},
		&Award{},
		&Volunteer{},
		&CustomResume{},
	)
}
