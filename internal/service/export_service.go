package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"ta-assign/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportAssignments 导出当前已保存的分配
	ExportAssignments(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportAssignments 导出当前分配为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "Courses"：Course | Professor | Assigned TAs | #TAs，按课程代码排序
//   - Sheet "TAs"：TA | Courses | #Courses，按助教姓名排序
//   - 多个姓名之间以 "; " 分隔
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

type exportCourse struct {
	code      string
	professor string
	tas       []string
}

func (s *exportService) ExportAssignments(ctx context.Context) (*bytes.Buffer, string, error) {
	// 1. 查询目录与当前分配
	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, "", err
	}
	nb, err := loadNameBook(ctx, s.repo, s.logger)
	if err != nil {
		return nil, "", err
	}
	rows, err := s.repo.Assignment.List(ctx)
	if err != nil {
		s.logger.Error("查询当前分配失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 构建索引：课程 → 助教，助教 → 课程
	byCourse := make(map[string]*exportCourse, len(courses))
	for _, c := range courses {
		prof := ""
		if len(c.Professors) > 0 {
			prof = nb.professors[c.Professors[0].ProfessorID]
		}
		byCourse[c.CourseID] = &exportCourse{code: c.CourseCode, professor: prof}
	}
	byTA := make(map[string][]string)
	for _, r := range rows {
		ec, ok := byCourse[r.CourseID]
		if !ok {
			continue
		}
		name, ok := nb.tas[r.TAID]
		if !ok {
			continue
		}
		ec.tas = append(ec.tas, name)
		byTA[name] = append(byTA[name], ec.code)
	}

	// 只导出已有分配的课程
	courseRows := make([]*exportCourse, 0, len(byCourse))
	for _, ec := range byCourse {
		if len(ec.tas) > 0 {
			courseRows = append(courseRows, ec)
		}
	}
	sort.Slice(courseRows, func(i, j int) bool { return courseRows[i].code < courseRows[j].code })

	taNames := make([]string, 0, len(byTA))
	for name := range byTA {
		taNames = append(taNames, name)
	}
	sort.Strings(taNames)

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Courses"); err != nil {
		s.logger.Error("创建工作表失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	if _, err := f.NewSheet("TAs"); err != nil {
		s.logger.Error("创建工作表失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// Courses
	f.SetColWidth("Courses", "A", "A", 14)
	f.SetColWidth("Courses", "B", "B", 26)
	f.SetColWidth("Courses", "C", "C", 60)
	f.SetColWidth("Courses", "D", "D", 8)
	f.SetSheetRow("Courses", "A1", &[]interface{}{"Course", "Professor", "Assigned TAs", "#TAs"})
	f.SetCellStyle("Courses", "A1", "D1", headerStyle)
	for i, ec := range courseRows {
		f.SetSheetRow("Courses", cell("A", i+2), &[]interface{}{
			ec.code, ec.professor, strings.Join(ec.tas, "; "), len(ec.tas),
		})
	}

	// TAs
	f.SetColWidth("TAs", "A", "A", 26)
	f.SetColWidth("TAs", "B", "B", 40)
	f.SetColWidth("TAs", "C", "C", 10)
	f.SetSheetRow("TAs", "A1", &[]interface{}{"TA", "Courses", "#Courses"})
	f.SetCellStyle("TAs", "A1", "C1", headerStyle)
	for i, name := range taNames {
		codes := sortedStrings(byTA[name])
		f.SetSheetRow("TAs", cell("A", i+2), &[]interface{}{
			name, strings.Join(codes, "; "), len(codes),
		})
	}

	// 4. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("ta_assignments_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
