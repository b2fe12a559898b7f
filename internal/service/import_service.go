package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/model"
	"ta-assign/backend/internal/repository"
	"ta-assign/backend/pkg/redis"
)

// ── 导入模块业务错误 ──

var (
	ErrImportMissingSheet = errors.New("工作簿缺少 \"TA Needs Planning\" 或 \"COMP TA List\" 工作表")
	ErrImportBadHeader    = errors.New("表头缺少必需列")
	ErrImportNoData       = errors.New("工作簿中没有可导入的数据")
	ErrImportTooManyRows  = errors.New("单次导入行数超过上限")
	ErrImportUnreadable   = errors.New("无法解析Excel文件")
)

const (
	sheetPlanning = "TA Needs Planning"
	sheetTAList   = "COMP TA List"
	maxImportRows = 2000
)

// ImportService 工作簿导入业务接口
type ImportService interface {
	// ParseWorkbook 解析工作簿，行级问题记录在 Errors 中而不中断解析
	ParseWorkbook(reader io.Reader) (*dto.ImportWorkbook, error)
	// Import 在一个事务内写入助教、教授、课程及偏好
	Import(ctx context.Context, wb *dto.ImportWorkbook, callerID string) (*dto.ImportResponse, error)
}

type importService struct {
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) ImportService {
	return &importService{repo: repo, rdb: rdb, logger: logger}
}

// ════════════════════════════════════════════════════════════
// ParseWorkbook
// ════════════════════════════════════════════════════════════

func (s *importService) ParseWorkbook(reader io.Reader) (*dto.ImportWorkbook, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(sheetPlanning); idx < 0 {
		return nil, ErrImportMissingSheet
	}
	if idx, _ := f.GetSheetIndex(sheetTAList); idx < 0 {
		return nil, ErrImportMissingSheet
	}

	planning, err := f.GetRows(sheetPlanning)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	taList, err := f.GetRows(sheetTAList)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}

	wb := &dto.ImportWorkbook{
		Courses: []dto.ImportCourseRow{},
		TAs:     []dto.ImportTARow{},
		Errors:  []dto.ImportError{},
	}
	if err := parsePlanningSheet(planning, wb); err != nil {
		return nil, err
	}
	if err := parseTASheet(taList, wb); err != nil {
		return nil, err
	}

	if len(wb.Courses) == 0 && len(wb.TAs) == 0 {
		return nil, ErrImportNoData
	}
	if len(wb.Courses)+len(wb.TAs) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return wb, nil
}

// headerIndex 表头 → 列索引；match 返回第一个满足条件的列，找不到时为 -1
type headerIndex []string

func newHeaderIndex(row []string) headerIndex {
	h := make(headerIndex, len(row))
	for i, c := range row {
		h[i] = strings.ToLower(cleanHeader(c))
	}
	return h
}

func (h headerIndex) exact(name string) int {
	for i, c := range h {
		if c == name {
			return i
		}
	}
	return -1
}

func (h headerIndex) prefix(p string) int {
	for i, c := range h {
		if strings.HasPrefix(c, p) {
			return i
		}
	}
	return -1
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parsePlanningSheet(rows [][]string, wb *dto.ImportWorkbook) error {
	if len(rows) == 0 {
		return nil
	}
	h := newHeaderIndex(rows[0])
	colCourse := h.exact("course")
	colFaculty := h.exact("faculty")
	colRequested := h.prefix("number of tas requested")
	colPreferred := h.prefix("preferred tas")
	if colCourse < 0 || colFaculty < 0 || colRequested < 0 {
		return fmt.Errorf("%w: %s", ErrImportBadHeader, sheetPlanning)
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}
		code := normalizeCourseCode(cellAt(row, colCourse))
		if code == "" {
			wb.Errors = append(wb.Errors, dto.ImportError{Sheet: sheetPlanning, Row: i + 1, Reason: "缺少课程代码"})
			continue
		}

		var preferred []string
		for _, token := range splitPeople(cellAt(row, colPreferred)) {
			if isCountToken(token) {
				continue
			}
			preferred = append(preferred, token)
		}
		wb.Courses = append(wb.Courses, dto.ImportCourseRow{
			Row:          i + 1,
			CourseCode:   code,
			Professors:   splitPeople(cellAt(row, colFaculty)),
			NumRequested: parseCount(cellAt(row, colRequested)),
			PreferredTAs: preferred,
		})
	}
	return nil
}

func parseTASheet(rows [][]string, wb *dto.ImportWorkbook) error {
	if len(rows) == 0 {
		return nil
	}
	h := newHeaderIndex(rows[0])
	colName := h.exact("name")
	colProgram := h.exact("program")
	colDegree := h.exact("ms/phd")
	colAdvisor := h.exact("thesis advisor")
	if colName < 0 {
		return fmt.Errorf("%w: %s", ErrImportBadHeader, sheetTAList)
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}
		name := normalizeName(cellAt(row, colName))
		if name == "" {
			wb.Errors = append(wb.Errors, dto.ImportError{Sheet: sheetTAList, Row: i + 1, Reason: "缺少助教姓名"})
			continue
		}
		wb.TAs = append(wb.TAs, dto.ImportTARow{
			Row:      i + 1,
			Name:     name,
			Program:  cellAt(row, colProgram),
			Degree:   normalizeDegree(cellAt(row, colDegree)),
			Advisors: splitPeople(cellAt(row, colAdvisor)),
		})
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// Import
// ════════════════════════════════════════════════════════════

// importer 一次导入的事务内状态：按姓名键 / 课程代码缓存已存在或新建的记录
type importer struct {
	ctx  context.Context
	repo *repository.Repository
	resp *dto.ImportResponse

	tas        map[string]*model.TA
	professors map[string]*model.Professor
	courses    map[string]*model.Course

	// 偏好按导入顺序追加在已有偏好之后
	taPrefs   map[string][]string // 助教 ID → 教授 ID
	profPrefs map[string][]string // 教授 ID → 助教 ID
}

func (s *importService) Import(ctx context.Context, wb *dto.ImportWorkbook, callerID string) (resp *dto.ImportResponse, err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
		if err != nil && tx != nil {
			tx.Rollback()
		}
	}()
	txRepo := s.repo.WithTx(tx)

	im, err := newImporter(ctx, txRepo)
	if err != nil {
		s.logger.Error("加载现有目录失败", zap.Error(err))
		return nil, err
	}
	im.resp.Errors = append(im.resp.Errors, wb.Errors...)

	// 1. 助教名单在前，课程偏好需要按姓名匹配助教
	for _, row := range wb.TAs {
		if err = im.importTA(row); err != nil {
			s.logger.Error("导入助教失败", zap.Int("row", row.Row), zap.Error(err))
			return nil, err
		}
	}
	// 2. 课程需求
	for _, row := range wb.Courses {
		if err = im.importCourse(row); err != nil {
			s.logger.Error("导入课程失败", zap.Int("row", row.Row), zap.Error(err))
			return nil, err
		}
	}
	// 3. 偏好整体写回
	if err = im.flushPreferences(); err != nil {
		s.logger.Error("写入偏好失败", zap.Error(err))
		return nil, err
	}

	msg := fmt.Sprintf("导入工作簿：课程 新增 %d / 更新 %d，助教 新增 %d / 更新 %d，教授 新增 %d",
		im.resp.CoursesCreated, im.resp.CoursesUpdated,
		im.resp.TAsCreated, im.resp.TAsUpdated, im.resp.ProfessorsCreated)
	if err = recordActivity(ctx, txRepo, callerID, ActionWorkbookImport, model.LogLevelInfo, msg); err != nil {
		s.logger.Error("写入活动日志失败", zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err = tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}
	invalidateResultCache(ctx, s.rdb, s.logger)

	s.logger.Info("工作簿导入完成",
		zap.Int("courses_created", im.resp.CoursesCreated),
		zap.Int("courses_updated", im.resp.CoursesUpdated),
		zap.Int("tas_created", im.resp.TAsCreated),
		zap.Int("professors_created", im.resp.ProfessorsCreated),
		zap.Int("row_errors", len(im.resp.Errors)),
		zap.String("operator", callerID),
	)
	return im.resp, nil
}

func newImporter(ctx context.Context, repo *repository.Repository) (*importer, error) {
	im := &importer{
		ctx:        ctx,
		repo:       repo,
		resp:       &dto.ImportResponse{Errors: []dto.ImportError{}},
		tas:        make(map[string]*model.TA),
		professors: make(map[string]*model.Professor),
		courses:    make(map[string]*model.Course),
		taPrefs:    make(map[string][]string),
		profPrefs:  make(map[string][]string),
	}

	tas, err := repo.TA.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tas {
		im.tas[nameKey(tas[i].Name)] = &tas[i]
	}
	professors, err := repo.Professor.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range professors {
		im.professors[nameKey(professors[i].Name)] = &professors[i]
	}
	courses, err := repo.Course.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range courses {
		im.courses[normalizeCourseCode(courses[i].CourseCode)] = &courses[i]
	}
	return im, nil
}

func (im *importer) professor(name string) (*model.Professor, error) {
	key := nameKey(name)
	if p, ok := im.professors[key]; ok {
		return p, nil
	}
	p := &model.Professor{Name: normalizeName(name)}
	if err := im.repo.Professor.Create(im.ctx, p); err != nil {
		return nil, err
	}
	im.professors[key] = p
	im.resp.ProfessorsCreated++
	return p, nil
}

func (im *importer) importTA(row dto.ImportTARow) error {
	key := nameKey(row.Name)
	ta, ok := im.tas[key]
	if ok {
		if row.Program != "" {
			ta.Program = row.Program
		}
		ta.Degree = row.Degree
		if err := im.repo.TA.Update(im.ctx, ta); err != nil {
			return err
		}
		im.resp.TAsUpdated++
	} else {
		ta = &model.TA{
			Name:     row.Name,
			Program:  row.Program,
			Degree:   row.Degree,
			MaxUnits: 1,
			Skills:   model.StringArray{},
		}
		if err := im.repo.TA.Create(im.ctx, ta); err != nil {
			return err
		}
		im.tas[key] = ta
		im.resp.TAsCreated++
	}

	// 论文导师视为助教偏好的教授
	for _, adv := range row.Advisors {
		p, err := im.professor(adv)
		if err != nil {
			return err
		}
		im.addTAPref(ta, p.ProfessorID)
	}
	return nil
}

func (im *importer) importCourse(row dto.ImportCourseRow) error {
	course, ok := im.courses[row.CourseCode]
	if ok {
		course.NumTAsRequested = row.NumRequested
		if err := im.repo.Course.Update(im.ctx, course); err != nil {
			return err
		}
		im.resp.CoursesUpdated++
	} else {
		course = &model.Course{
			CourseCode:      row.CourseCode,
			NumTAsRequested: row.NumRequested,
			RequiredSkills:  model.StringArray{},
		}
		if err := im.repo.Course.Create(im.ctx, course); err != nil {
			return err
		}
		im.courses[row.CourseCode] = course
		im.resp.CoursesCreated++
	}

	// 教授列表按表格整体替换
	profIDs := make([]string, 0, len(row.Professors))
	profs := make([]*model.Professor, 0, len(row.Professors))
	seen := make(map[string]struct{}, len(row.Professors))
	for _, name := range row.Professors {
		p, err := im.professor(name)
		if err != nil {
			return err
		}
		if _, dup := seen[p.ProfessorID]; dup {
			continue
		}
		seen[p.ProfessorID] = struct{}{}
		profIDs = append(profIDs, p.ProfessorID)
		profs = append(profs, p)
	}
	if err := im.repo.Course.ReplaceProfessors(im.ctx, course.CourseID, profIDs); err != nil {
		return err
	}

	// 课程偏好的助教记入每位任课教授的偏好
	for _, token := range row.PreferredTAs {
		ta, ok := im.tas[nameKey(token)]
		if !ok {
			im.resp.Errors = append(im.resp.Errors, dto.ImportError{
				Sheet:  sheetPlanning,
				Row:    row.Row,
				Reason: fmt.Sprintf("偏好助教 %q 不在助教名单中", token),
			})
			continue
		}
		for _, p := range profs {
			im.addProfPref(p, ta.TAID)
		}
	}
	return nil
}

func (im *importer) addTAPref(ta *model.TA, professorID string) {
	list, ok := im.taPrefs[ta.TAID]
	if !ok {
		for _, pp := range ta.PreferredProfessors {
			list = append(list, pp.ProfessorID)
		}
	}
	for _, id := range list {
		if id == professorID {
			im.taPrefs[ta.TAID] = list
			return
		}
	}
	im.taPrefs[ta.TAID] = append(list, professorID)
	im.resp.Preferences++
}

func (im *importer) addProfPref(p *model.Professor, taID string) {
	list, ok := im.profPrefs[p.ProfessorID]
	if !ok {
		for _, pt := range p.PreferredTAs {
			list = append(list, pt.TAID)
		}
	}
	for _, id := range list {
		if id == taID {
			im.profPrefs[p.ProfessorID] = list
			return
		}
	}
	im.profPrefs[p.ProfessorID] = append(list, taID)
	im.resp.Preferences++
}

func (im *importer) flushPreferences() error {
	for taID, prefs := range im.taPrefs {
		if err := im.repo.TA.ReplacePreferredProfessors(im.ctx, taID, prefs); err != nil {
			return err
		}
	}
	for profID, prefs := range im.profPrefs {
		if err := im.repo.Professor.ReplacePreferredTAs(im.ctx, profID, prefs); err != nil {
			return err
		}
	}
	return nil
}
