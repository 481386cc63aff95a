package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"resumeforge/internal/api/middleware"
	"resumeforge/internal/database"
)

// ImportHandler ingests a whole extracted resume in one request. All
// inserts run in a single transaction: either every element lands or
// none do.
type ImportHandler struct {
	db *gorm.DB
}

// NewImportHandler builds the bulk import handler.
func NewImportHandler(db *gorm.DB) *ImportHandler {
	return &ImportHandler{db: db}
}

type importRequest struct {
	Headings       []headingRequest       `json:"headings" binding:"max=5,dive"`
	Educations     []educationRequest     `json:"educations" binding:"max=20,dive"`
	Experiences    []experienceRequest    `json:"experiences" binding:"max=50,dive"`
	Projects       []projectRequest       `json:"projects" binding:"max=50,dive"`
	Skills         []skillRequest         `json:"skills" binding:"max=50,dive"`
	Certifications []certificationRequest `json:"certifications" binding:"max=50,dive"`
	Awards         []awardRequest         `json:"awards" binding:"max=50,dive"`
	Volunteers     []volunteerRequest     `json:"volunteers" binding:"max=50,dive"`
}

type importCreated struct {
	Count int         `json:"count"`
	IDs   []uuid.UUID `json:"ids"`
}

type importResponse struct {
	Headings       importCreated `json:"headings"`
	Educations     importCreated `json:"educations"`
	Experiences    importCreated `json:"experiences"`
	Projects       importCreated `json:"projects"`
	Skills         importCreated `json:"skills"`
	Certifications importCreated `json:"certifications"`
	Awards         importCreated `json:"awards"`
	Volunteers     importCreated `json:"volunteers"`
}

func importKind[M any, PM elementPtr[M], R any](tx *gorm.DB, owner uuid.UUID, reqs []R, apply func(*M, R)) (importCreated, error) {
	created := importCreated{IDs: []uuid.UUID{}}
	if len(reqs) == 0 {
		return created, nil
	}

	rows := make([]M, len(reqs))
	for i, req := range reqs {
		apply(&rows[i], req)
		PM(&rows[i]).Claim(owner)
	}
	if err := tx.Create(&rows).Error; err != nil {
		return importCreated{}, err
	}

	for i := range rows {
		created.IDs = append(created.IDs, PM(&rows[i]).RecordID())
	}
	created.Count = len(created.IDs)
	return created, nil
}

// Import inserts every element of the request atomically and returns
// the created ids per kind.
func (h *ImportHandler) Import(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	var resp importResponse
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var err error
		if resp.Headings, err = importKind[database.Heading](tx, userID, req.Headings, applyHeading); err != nil {
			return err
		}
		if resp.Educations, err = importKind[database.Education](tx, userID, req.Educations, applyEducation); err != nil {
			return err
		}
		if resp.Experiences, err = importKind[database.Experience](tx, userID, req.Experiences, applyExperience); err != nil {
			return err
		}
		if resp.Projects, err = importKind[database.Project](tx, userID, req.Projects, applyProject); err != nil {
			return err
		}
		if resp.Skills, err = importKind[database.Skill](tx, userID, req.Skills, applySkill); err != nil {
			return err
		}
		if resp.Certifications, err = importKind[database.Certification](tx, userID, req.Certifications, applyCertification); err != nil {
			return err
		}
		if resp.Awards, err = importKind[database.Award](tx, userID, req.Awards, applyAward); err != nil {
			return err
		}
		if resp.Volunteers, err = importKind[database.Volunteer](tx, userID, req.Volunteers, applyVolunteer); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		middleware.LoggerFromContext(c).Error("bulk import failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusCreated, resp)
}
