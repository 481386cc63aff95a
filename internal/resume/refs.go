package resume

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"resumeforge/internal/database"
	"resumeforge/internal/latex"
)

// RefSet holds per-kind element reference lists. A kind missing from the
// map means "not specified", which lets a partial update validate and
// overwrite only the lists it carries.
type RefSet map[latex.Kind][]uuid.UUID

// ParseRefSet parses raw id strings per kind. Kinds absent from raw stay
// absent from the result. The first id that is not a UUID fails the
// whole parse with a *MalformedIDError.
func ParseRefSet(raw map[latex.Kind][]string) (RefSet, error) {
	set := make(RefSet, len(raw))
	for _, kind := range latex.Kinds() {
		rawIDs, ok := raw[kind]
		if !ok {
			continue
		}
		ids := make([]uuid.UUID, 0, len(rawIDs))
		for _, rawID := range rawIDs {
			id, err := uuid.Parse(strings.TrimSpace(rawID))
			if err != nil {
				return nil, &MalformedIDError{Kind: kind, Raw: rawID}
			}
			ids = append(ids, id)
		}
		set[kind] = ids
	}
	return set, nil
}

// RecordRefs extracts every stored reference list from a resume record.
func RecordRefs(rec *database.CustomResume) RefSet {
	return RefSet{
		latex.KindHeading:       rec.HeadingIDs,
		latex.KindEducation:     rec.EducationIDs,
		latex.KindExperience:    rec.ExperienceIDs,
		latex.KindProject:       rec.ProjectIDs,
		latex.KindSkill:         rec.SkillIDs,
		latex.KindCertification: rec.CertificationIDs,
		latex.KindAward:         rec.AwardIDs,
		latex.KindVolunteer:     rec.VolunteerIDs,
	}
}

// Apply writes the set's lists onto the record. Kinds absent from the
// set keep the record's existing lists.
func (s RefSet) Apply(rec *database.CustomResume) {
	for _, kind := range latex.Kinds() {
		ids, ok := s[kind]
		if !ok {
			continue
		}
		list := datatypes.JSONSlice[uuid.UUID](ids)
		switch kind {
		case latex.KindHeading:
			rec.HeadingIDs = list
		case latex.KindEducation:
			rec.EducationIDs = list
		case latex.KindExperience:
			rec.ExperienceIDs = list
		case latex.KindProject:
			rec.ProjectIDs = list
		case latex.KindSkill:
			rec.SkillIDs = list
		case latex.KindCertification:
			rec.CertificationIDs = list
		case latex.KindAward:
			rec.AwardIDs = list
		case latex.KindVolunteer:
			rec.VolunteerIDs = list
		}
	}
}
