package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"ta-assign/backend/internal/model"
	"ta-assign/backend/internal/repository"
	pkgerrors "ta-assign/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByTAID(_ context.Context, taID string) (*model.User, error) {
	for _, u := range m.users {
		if u.TAID != nil && *u.TAID == taID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByProfessorID(_ context.Context, professorID string) (*model.User, error) {
	for _, u := range m.users {
		if u.ProfessorID != nil && *u.ProfessorID == professorID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock TARepository ──

type mockTARepo struct {
	tas   map[string]*model.TA
	order []string
}

func newMockTARepo() *mockTARepo {
	return &mockTARepo{tas: make(map[string]*model.TA)}
}

func (m *mockTARepo) Create(_ context.Context, ta *model.TA) error {
	if ta.TAID == "" {
		ta.TAID = fmt.Sprintf("ta-%d", len(m.order)+1)
	}
	if ta.Version == 0 {
		ta.Version = 1
	}
	m.tas[ta.TAID] = ta
	m.order = append(m.order, ta.TAID)
	return nil
}

func (m *mockTARepo) GetByID(_ context.Context, id string) (*model.TA, error) {
	if ta, ok := m.tas[id]; ok {
		c := *ta
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTARepo) GetByName(_ context.Context, name string) (*model.TA, error) {
	for _, id := range m.order {
		if m.tas[id].Name == name {
			c := *m.tas[id]
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTARepo) List(_ context.Context) ([]model.TA, error) {
	out := make([]model.TA, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.tas[id])
	}
	return out, nil
}

func (m *mockTARepo) Update(_ context.Context, ta *model.TA) error {
	cur, ok := m.tas[ta.TAID]
	if !ok || cur.Version != ta.Version {
		return pkgerrors.ErrOptimisticLock
	}
	ta.Version++
	updated := *ta
	updated.PreferredProfessors = cur.PreferredProfessors
	updated.CourseInterests = cur.CourseInterests
	m.tas[ta.TAID] = &updated
	return nil
}

func (m *mockTARepo) ReplacePreferredProfessors(_ context.Context, taID string, professorIDs []string) error {
	ta, ok := m.tas[taID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	prefs := make([]model.TAPreferredProfessor, len(professorIDs))
	for i, pid := range professorIDs {
		prefs[i] = model.TAPreferredProfessor{TAID: taID, ProfessorID: pid, Rank: i}
	}
	ta.PreferredProfessors = prefs
	return nil
}

func (m *mockTARepo) ReplaceInterests(_ context.Context, taID string, interests []model.TACourseInterest) error {
	ta, ok := m.tas[taID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	ta.CourseInterests = append([]model.TACourseInterest(nil), interests...)
	return nil
}

// ── Mock ProfessorRepository ──

type mockProfessorRepo struct {
	professors map[string]*model.Professor
	order      []string
}

func newMockProfessorRepo() *mockProfessorRepo {
	return &mockProfessorRepo{professors: make(map[string]*model.Professor)}
}

func (m *mockProfessorRepo) Create(_ context.Context, p *model.Professor) error {
	if p.ProfessorID == "" {
		p.ProfessorID = fmt.Sprintf("prof-%d", len(m.order)+1)
	}
	m.professors[p.ProfessorID] = p
	m.order = append(m.order, p.ProfessorID)
	return nil
}

func (m *mockProfessorRepo) GetByID(_ context.Context, id string) (*model.Professor, error) {
	if p, ok := m.professors[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfessorRepo) GetByName(_ context.Context, name string) (*model.Professor, error) {
	for _, id := range m.order {
		if m.professors[id].Name == name {
			c := *m.professors[id]
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfessorRepo) List(_ context.Context) ([]model.Professor, error) {
	out := make([]model.Professor, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.professors[id])
	}
	return out, nil
}

func (m *mockProfessorRepo) ReplacePreferredTAs(_ context.Context, professorID string, taIDs []string) error {
	p, ok := m.professors[professorID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	prefs := make([]model.ProfessorPreferredTA, len(taIDs))
	for i, id := range taIDs {
		prefs[i] = model.ProfessorPreferredTA{ProfessorID: professorID, TAID: id, Rank: i}
	}
	p.PreferredTAs = prefs
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
	order   []string
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, c *model.Course) error {
	if c.CourseID == "" {
		c.CourseID = fmt.Sprintf("course-%d", len(m.order)+1)
	}
	if c.Version == 0 {
		c.Version = 1
	}
	m.courses[c.CourseID] = c
	m.order = append(m.order, c.CourseID)
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	for _, id := range m.order {
		if m.courses[id].CourseCode == code {
			cp := *m.courses[id]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context) ([]model.Course, error) {
	out := make([]model.Course, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.courses[id])
	}
	return out, nil
}

func (m *mockCourseRepo) Update(_ context.Context, c *model.Course) error {
	cur, ok := m.courses[c.CourseID]
	if !ok || cur.Version != c.Version {
		return pkgerrors.ErrOptimisticLock
	}
	c.Version++
	updated := *c
	updated.Professors = cur.Professors
	m.courses[c.CourseID] = &updated
	return nil
}

func (m *mockCourseRepo) ReplaceProfessors(_ context.Context, courseID string, professorIDs []string) error {
	c, ok := m.courses[courseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	rows := make([]model.CourseProfessor, len(professorIDs))
	for i, pid := range professorIDs {
		rows[i] = model.CourseProfessor{CourseID: courseID, ProfessorID: pid, Position: i}
	}
	c.Professors = rows
	return nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	rows []model.TAAssignment
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{}
}

func (m *mockAssignmentRepo) sorted() []model.TAAssignment {
	out := append([]model.TAAssignment(nil), m.rows...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CourseID != out[j].CourseID {
			return out[i].CourseID < out[j].CourseID
		}
		return out[i].Position < out[j].Position
	})
	return out
}

func (m *mockAssignmentRepo) List(_ context.Context) ([]model.TAAssignment, error) {
	return m.sorted(), nil
}

func (m *mockAssignmentRepo) ListByCourse(_ context.Context, courseID string) ([]model.TAAssignment, error) {
	var out []model.TAAssignment
	for _, r := range m.sorted() {
		if r.CourseID == courseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockAssignmentRepo) DeleteAll(_ context.Context) error {
	m.rows = nil
	return nil
}

func (m *mockAssignmentRepo) CreateBatch(ctx context.Context, rows []model.TAAssignment) error {
	for i := range rows {
		if err := m.Create(ctx, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockAssignmentRepo) Create(_ context.Context, row *model.TAAssignment) error {
	for _, r := range m.rows {
		if r.CourseID == row.CourseID && r.TAID == row.TAID {
			return fmt.Errorf("duplicate key (%s, %s)", row.CourseID, row.TAID)
		}
	}
	m.rows = append(m.rows, *row)
	return nil
}

func (m *mockAssignmentRepo) Delete(_ context.Context, courseID, taID string) error {
	for i, r := range m.rows {
		if r.CourseID == courseID && r.TAID == taID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock WeightRepository ──

type mockWeightRepo struct {
	w *model.AssignmentWeights
}

func newMockWeightRepo() *mockWeightRepo {
	return &mockWeightRepo{w: &model.AssignmentWeights{
		Singleton:       true,
		CoursePref:      0.2,
		TAPref:          0.4,
		ProfPref:        0.3,
		WorkloadBalance: 0.1,
		Version:         1,
		UpdatedAt:       time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}}
}

func (m *mockWeightRepo) Get(_ context.Context) (*model.AssignmentWeights, error) {
	if m.w == nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := *m.w
	return &c, nil
}

func (m *mockWeightRepo) Update(_ context.Context, w *model.AssignmentWeights) error {
	if m.w == nil || m.w.Version != w.Version {
		return pkgerrors.ErrOptimisticLock
	}
	w.Version++
	c := *w
	m.w = &c
	return nil
}

// ── Mock RunRepository ──

type mockRunRepo struct {
	runs    []*model.AssignmentRun
	courses map[string][]model.AssignmentRunCourse
	tas     map[string][]model.AssignmentRunTA
}

func newMockRunRepo() *mockRunRepo {
	return &mockRunRepo{
		courses: make(map[string][]model.AssignmentRunCourse),
		tas:     make(map[string][]model.AssignmentRunTA),
	}
}

func (m *mockRunRepo) Create(_ context.Context, run *model.AssignmentRun, courses []model.AssignmentRunCourse, tas []model.AssignmentRunTA) error {
	m.runs = append(m.runs, run)
	m.courses[run.RunID] = courses
	m.tas[run.RunID] = tas
	return nil
}

func (m *mockRunRepo) GetByID(_ context.Context, id string) (*model.AssignmentRun, error) {
	for _, r := range m.runs {
		if r.RunID == id {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// List 最新的在前
func (m *mockRunRepo) List(_ context.Context, offset, limit int) ([]model.AssignmentRun, int64, error) {
	var all []model.AssignmentRun
	for i := len(m.runs) - 1; i >= 0; i-- {
		all = append(all, *m.runs[i])
	}
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockRunRepo) ListCourses(_ context.Context, runID string) ([]model.AssignmentRunCourse, error) {
	return m.courses[runID], nil
}

func (m *mockRunRepo) ListTAs(_ context.Context, runID string) ([]model.AssignmentRunTA, error) {
	return m.tas[runID], nil
}

// ── Mock ActivityLogRepository ──

type mockActivityLogRepo struct {
	entries []model.ActivityLog
}

func newMockActivityLogRepo() *mockActivityLogRepo {
	return &mockActivityLogRepo{}
}

func (m *mockActivityLogRepo) Create(_ context.Context, entry *model.ActivityLog) error {
	entry.LogID = fmt.Sprintf("log-%d", len(m.entries)+1)
	entry.CreatedAt = time.Now()
	if entry.Level == "" {
		entry.Level = model.LogLevelInfo
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockActivityLogRepo) ListRecent(_ context.Context, limit int) ([]model.ActivityLog, error) {
	var out []model.ActivityLog
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// last 最近一条活动日志
func (m *mockActivityLogRepo) last() *model.ActivityLog {
	if len(m.entries) == 0 {
		return nil
	}
	return &m.entries[len(m.entries)-1]
}

// ── 测试仓储聚合 ──

type testRepos struct {
	user       *mockUserRepo
	ta         *mockTARepo
	professor  *mockProfessorRepo
	course     *mockCourseRepo
	assignment *mockAssignmentRepo
	weight     *mockWeightRepo
	run        *mockRunRepo
	activity   *mockActivityLogRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		user:       newMockUserRepo(),
		ta:         newMockTARepo(),
		professor:  newMockProfessorRepo(),
		course:     newMockCourseRepo(),
		assignment: newMockAssignmentRepo(),
		weight:     newMockWeightRepo(),
		run:        newMockRunRepo(),
		activity:   newMockActivityLogRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		User:        r.user,
		TA:          r.ta,
		Professor:   r.professor,
		Course:      r.course,
		Assignment:  r.assignment,
		Weight:      r.weight,
		Run:         r.run,
		ActivityLog: r.activity,
	}
}

// seedCatalog 两位教授、三名助教、两门课程：
//
//	COMP101（Prof Ada，需求 2）  COMP202（Prof Bora，需求 1）
//	Ali 上限 1，Berk 上限 2，Cem 上限 1
func (r *testRepos) seedCatalog() {
	ctx := context.Background()
	_ = r.professor.Create(ctx, &model.Professor{ProfessorID: "p1", Name: "Prof Ada"})
	_ = r.professor.Create(ctx, &model.Professor{ProfessorID: "p2", Name: "Prof Bora"})

	_ = r.ta.Create(ctx, &model.TA{TAID: "t1", Name: "Ali", MaxUnits: 1, Skills: model.StringArray{"go"}})
	_ = r.ta.Create(ctx, &model.TA{TAID: "t2", Name: "Berk", MaxUnits: 2})
	_ = r.ta.Create(ctx, &model.TA{TAID: "t3", Name: "Cem", MaxUnits: 1})
	_ = r.ta.ReplacePreferredProfessors(ctx, "t1", []string{"p1", "p2"})
	_ = r.ta.ReplaceInterests(ctx, "t1", []model.TACourseInterest{{TAID: "t1", CourseID: "c1", InterestLevel: "High"}})

	_ = r.course.Create(ctx, &model.Course{CourseID: "c1", CourseCode: "COMP101", NumTAsRequested: 2, RequiredSkills: model.StringArray{"go"}})
	_ = r.course.Create(ctx, &model.Course{CourseID: "c2", CourseCode: "COMP202", NumTAsRequested: 1})
	_ = r.course.ReplaceProfessors(ctx, "c1", []string{"p1"})
	_ = r.course.ReplaceProfessors(ctx, "c2", []string{"p2"})
	_ = r.professor.ReplacePreferredTAs(ctx, "p1", []string{"t1", "t2"})
}
