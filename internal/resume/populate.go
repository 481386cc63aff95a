package resume

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"resumeforge/internal/database"
	"resumeforge/internal/latex"
)

// fetchKind loads the owner's rows for ids and reorders them to the
// reference-list order so the render input is deterministic. A
// duplicated id yields its row at every position. Ids without a row for
// the owner fail with a *MissingRefsError.
func fetchKind[M interface{ RecordID() uuid.UUID }](db *gorm.DB, owner uuid.UUID, kind latex.Kind, ids []uuid.UUID) ([]M, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []M
	if err := db.Where("id IN ? AND user_id = ?", ids, owner).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load %s elements: %w", kind, err)
	}

	byID := make(map[uuid.UUID]M, len(rows))
	for i := range rows {
		byID[rows[i].RecordID()] = rows[i]
	}

	ordered := make([]M, 0, len(ids))
	var missing []uuid.UUID
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			if !seen[id] {
				seen[id] = true
				missing = append(missing, id)
			}
			continue
		}
		ordered = append(ordered, row)
	}
	if len(missing) > 0 {
		return nil, &MissingRefsError{Kind: kind, IDs: missing}
	}
	return ordered, nil
}

// Populate loads every element row the resume references plus the owning
// user, producing the render input. Elements deleted since the resume
// was saved surface as the same missing-refs failure validation gives.
func Populate(db *gorm.DB, rec *database.CustomResume) (*latex.Selection, error) {
	var user database.User
	if err := db.First(&user, "id = ?", rec.UserID).Error; err != nil {
		return nil, fmt.Errorf("load resume owner: %w", err)
	}

	sel := &latex.Selection{User: user}

	var err error
	if sel.Headings, err = fetchKind[database.Heading](db, rec.UserID, latex.KindHeading, rec.HeadingIDs); err != nil {
		return nil, err
	}
	if sel.Educations, err = fetchKind[database.Education](db, rec.UserID, latex.KindEducation, rec.EducationIDs); err != nil {
		return nil, err
	}
	if sel.Experiences, err = fetchKind[database.Experience](db, rec.UserID, latex.KindExperience, rec.ExperienceIDs); err != nil {
		return nil, err
	}
	if sel.Projects, err = fetchKind[database.Project](db, rec.UserID, latex.KindProject, rec.ProjectIDs); err != nil {
		return nil, err
	}
	if sel.Skills, err = fetchKind[database.Skill](db, rec.UserID, latex.KindSkill, rec.SkillIDs); err != nil {
		return nil, err
	}
	if sel.Certifications, err = fetchKind[database.Certification](db, rec.UserID, latex.KindCertification, rec.CertificationIDs); err != nil {
		return nil, err
	}
	if sel.Awards, err = fetchKind[database.Award](db, rec.UserID, latex.KindAward, rec.AwardIDs); err != nil {
		return nil, err
	}
	if sel.Volunteers, err = fetchKind[database.Volunteer](db, rec.UserID, latex.KindVolunteer, rec.VolunteerIDs); err != nil {
		return nil, err
	}

	return sel, nil
}
