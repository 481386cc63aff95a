package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumeforge/internal/database"
	"resumeforge/internal/latex"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newJSONContext builds a gin test context carrying an authenticated user
// and an optional JSON body.
func newJSONContext(t *testing.T, method, target string, body any, userID uuid.UUID) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set("userID", userID)
	return c, w
}

func setPathID(c *gin.Context, id string) {
	c.Params = gin.Params{{Key: "id", Value: id}}
}

func newEducationHandler(db *gorm.DB) *ElementHandler[database.Education, *database.Education, educationRequest] {
	return NewElementHandler[database.Education](db, latex.KindEducation, applyEducation)
}

func createEducation(t *testing.T, db *gorm.DB, owner uuid.UUID, req educationRequest) database.Education {
	t.Helper()
	c, w := newJSONContext(t, http.MethodPost, "/v1/elements/educations", req, owner)
	newEducationHandler(db).Create(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("create education: status = %d, body %s", w.Code, w.Body.String())
	}
	var row database.Education
	if err := json.Unmarshal(w.Body.Bytes(), &row); err != nil {
		t.Fatalf("decode education: %v", err)
	}
	if row.ID == uuid.Nil {
		t.Fatal("created education has no id")
	}
	return row
}

func TestEducationCreateAndList(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()
	other := uuid.New()

	createEducation(t, db, owner, educationRequest{Institution: "MIT", Degree: "BSc"})
	createEducation(t, db, owner, educationRequest{Institution: "Stanford", Degree: "MSc"})
	createEducation(t, db, other, educationRequest{Institution: "CMU", Degree: "PhD"})

	c, w := newJSONContext(t, http.MethodGet, "/v1/elements/educations", nil, owner)
	newEducationHandler(db).List(c)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d, body %s", w.Code, w.Body.String())
	}

	var rows []database.Education
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("list returned %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		if row.UserID != owner {
			t.Errorf("list leaked a row owned by %s", row.UserID)
		}
		if row.Institution == "CMU" {
			t.Error("list leaked another user's education")
		}
	}
}

func TestEducationCreateRequiresDegree(t *testing.T) {
	db := newTestDB(t)

	c, w := newJSONContext(t, http.MethodPost, "/v1/elements/educations", map[string]any{"institution": "MIT"}, uuid.New())
	newEducationHandler(db).Create(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestEducationUpdateReplacesContent(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()
	gpa := 3.8
	maxGPA := 4.0
	row := createEducation(t, db, owner, educationRequest{
		Institution: "MIT",
		Degree:      "BSc",
		GPA:         &gpa,
		MaxGPA:      &maxGPA,
		Courses:     []string{"Algorithms", "Compilers"},
	})

	// PUT carries the full new content; omitted fields are cleared.
	c, w := newJSONContext(t, http.MethodPut, "/v1/elements/educations/"+row.ID.String(),
		educationRequest{Institution: "MIT", Degree: "MEng"}, owner)
	setPathID(c, row.ID.String())
	newEducationHandler(db).Update(c)
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body %s", w.Code, w.Body.String())
	}

	var got database.Education
	if err := db.First(&got, "id = ?", row.ID).Error; err != nil {
		t.Fatalf("reload education: %v", err)
	}
	if got.Degree != "MEng" {
		t.Errorf("degree = %q, want MEng", got.Degree)
	}
	if got.GPA != nil || got.MaxGPA != nil {
		t.Error("gpa fields should be cleared by a request that omits them")
	}
	if len(got.Courses) != 0 {
		t.Errorf("courses = %v, want empty", got.Courses)
	}
}

func TestEducationGetScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	row := createEducation(t, db, uuid.New(), educationRequest{Institution: "MIT", Degree: "BSc"})

	c, w := newJSONContext(t, http.MethodGet, "/v1/elements/educations/"+row.ID.String(), nil, uuid.New())
	setPathID(c, row.ID.String())
	newEducationHandler(db).Get(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "education not found") {
		t.Fatalf("body = %s, want an education not found error", w.Body.String())
	}
}

func TestEducationGetRejectsMalformedID(t *testing.T) {
	db := newTestDB(t)

	c, w := newJSONContext(t, http.MethodGet, "/v1/elements/educations/nope", nil, uuid.New())
	setPathID(c, "nope")
	newEducationHandler(db).Get(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid id") {
		t.Fatalf("body = %s, want invalid id error", w.Body.String())
	}
}

func TestEducationDelete(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()
	row := createEducation(t, db, owner, educationRequest{Institution: "MIT", Degree: "BSc"})

	c, w := newJSONContext(t, http.MethodDelete, "/v1/elements/educations/"+row.ID.String(), nil, owner)
	setPathID(c, row.ID.String())
	newEducationHandler(db).Delete(c)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d, body %s", w.Code, w.Body.String())
	}

	// The row is gone, so a second delete reports not found.
	c, w = newJSONContext(t, http.MethodDelete, "/v1/elements/educations/"+row.ID.String(), nil, owner)
	setPathID(c, row.ID.String())
	newEducationHandler(db).Delete(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("repeat delete: status = %d, want 404", w.Code)
	}
}

func TestElementsIndexGroupsByKind(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()
	createEducation(t, db, owner, educationRequest{Institution: "MIT", Degree: "BSc"})

	skill := &database.Skill{Category: "Languages", Items: []string{"Go"}}
	skill.Claim(owner)
	if err := db.Create(skill).Error; err != nil {
		t.Fatalf("seed skill: %v", err)
	}

	c, w := newJSONContext(t, http.MethodGet, "/v1/elements", nil, owner)
	NewElementsIndexHandler(db).List(c)
	if w.Code != http.StatusOK {
		t.Fatalf("index: status = %d, body %s", w.Code, w.Body.String())
	}

	var resp elementsIndexResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if len(resp.Educations) != 1 || len(resp.Skills) != 1 {
		t.Fatalf("index = %d educations, %d skills, want 1 and 1", len(resp.Educations), len(resp.Skills))
	}

	// Kinds without elements serialize as empty arrays, not null.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode raw index: %v", err)
	}
	for _, key := range []string{"headings", "awards", "volunteers"} {
		if string(raw[key]) != "[]" {
			t.Errorf("%s = %s, want []", key, raw[key])
		}
	}
}

func TestImportCreatesEveryKind(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()

	body := importRequest{
		Educations: []educationRequest{
			{Institution: "MIT", Degree: "BSc"},
			{Institution: "Stanford", Degree: "MSc"},
		},
		Skills: []skillRequest{{Category: "Languages", Items: []string{"Go", "SQL"}}},
		Awards: []awardRequest{{Title: "Dean's List", Date: "2023"}},
	}
	c, w := newJSONContext(t, http.MethodPost, "/v1/elements/import", body, owner)
	NewImportHandler(db).Import(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("import: status = %d, body %s", w.Code, w.Body.String())
	}

	var resp importResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode import response: %v", err)
	}
	if resp.Educations.Count != 2 || resp.Skills.Count != 1 || resp.Awards.Count != 1 {
		t.Fatalf("counts = %d/%d/%d, want 2/1/1",
			resp.Educations.Count, resp.Skills.Count, resp.Awards.Count)
	}
	if resp.Headings.Count != 0 || resp.Headings.IDs == nil {
		t.Errorf("headings = %+v, want zero count with empty ids", resp.Headings)
	}

	for _, id := range resp.Educations.IDs {
		var row database.Education
		if err := db.First(&row, "id = ? AND user_id = ?", id, owner).Error; err != nil {
			t.Errorf("education %s not persisted for owner: %v", id, err)
		}
	}
	var skillCount int64
	if err := db.Model(&database.Skill{}).Where("user_id = ?", owner).Count(&skillCount).Error; err != nil {
		t.Fatalf("count skills: %v", err)
	}
	if skillCount != 1 {
		t.Fatalf("skill rows = %d, want 1", skillCount)
	}
}

func TestImportRejectsInvalidElement(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()

	// Skill items are required, so the whole import fails validation.
	body := importRequest{
		Educations: []educationRequest{{Institution: "MIT", Degree: "BSc"}},
		Skills:     []skillRequest{{Category: "Languages"}},
	}
	c, w := newJSONContext(t, http.MethodPost, "/v1/elements/import", body, owner)
	NewImportHandler(db).Import(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var eduCount int64
	if err := db.Model(&database.Education{}).Where("user_id = ?", owner).Count(&eduCount).Error; err != nil {
		t.Fatalf("count educations: %v", err)
	}
	if eduCount != 0 {
		t.Fatalf("education rows = %d, want none after rejected import", eduCount)
	}
}
