package resume

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"resumeforge/internal/database"
	"resumeforge/internal/latex"
)

// missingRefs reports which ids have no row owned by owner in M's table.
// Duplicated ids are reported once.
func missingRefs[M any](db *gorm.DB, owner uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []uuid.UUID
	if err := db.Model(new(M)).
		Where("id IN ? AND user_id = ?", ids, owner).
		Pluck("id", &found).Error; err != nil {
		return nil, err
	}

	have := make(map[uuid.UUID]bool, len(found))
	for _, id := range found {
		have[id] = true
	}

	var missing []uuid.UUID
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if have[id] || seen[id] {
			continue
		}
		seen[id] = true
		missing = append(missing, id)
	}
	return missing, nil
}

// Validate checks every list in the set against the owner's element
// tables. The first kind with unknown ids fails with a *MissingRefsError
// naming all missing ids of that kind.
func Validate(db *gorm.DB, owner uuid.UUID, set RefSet) error {
	for _, kind := range latex.Kinds() {
		ids, ok := set[kind]
		if !ok {
			continue
		}

		var (
			missing []uuid.UUID
			err     error
		)
		switch kind {
		case latex.KindHeading:
			missing, err = missingRefs[database.Heading](db, owner, ids)
		case latex.KindEducation:
			missing, err = missingRefs[database.Education](db, owner, ids)
		case latex.KindExperience:
			missing, err = missingRefs[database.Experience](db, owner, ids)
		case latex.KindProject:
			missing, err = missingRefs[database.Project](db, owner, ids)
		case latex.KindSkill:
			missing, err = missingRefs[database.Skill](db, owner, ids)
		case latex.KindCertification:
			missing, err = missingRefs[database.Certification](db, owner, ids)
		case latex.KindAward:
			missing, err = missingRefs[database.Award](db, owner, ids)
		case latex.KindVolunteer:
			missing, err = missingRefs[database.Volunteer](db, owner, ids)
		}
		if err != nil {
			return fmt.Errorf("validate %s refs: %w", kind, err)
		}
		if len(missing) > 0 {
			return &MissingRefsError{Kind: kind, IDs: missing}
		}
	}
	return nil
}
