package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ta-assign/backend/config"
	"ta-assign/backend/internal/dto"
	"ta-assign/backend/internal/engine"
	"ta-assign/backend/internal/model"
	"ta-assign/backend/internal/repository"
	"ta-assign/backend/pkg/metrics"
	"ta-assign/backend/pkg/redis"
)

// ── 分配模块业务错误 ──

var (
	ErrAssignmentInputInvalid = errors.New("分配输入数据不合法")
	ErrAssignmentBusy         = errors.New("已有分配任务正在运行，请稍后重试")
	ErrRunNotFound            = errors.New("分配记录不存在")
	ErrOverrideNotAssigned    = errors.New("助教不在该课程名单中")
	ErrOverrideDuplicate      = errors.New("助教已在该课程名单中")
	ErrOverrideExceedsDemand  = errors.New("超出课程需求人数")
	ErrOverrideOverCapacity   = errors.New("助教已达到可承担课程上限")
	ErrOverrideEmpty          = errors.New("未指定任何调整")
)

// 分配来源
const (
	SourceEngine = "engine"
	SourceManual = "manual"
)

// AssignmentService 分配业务接口
type AssignmentService interface {
	// Run 运行分配引擎；req.Persist 为 true 时整体替换当前分配
	Run(ctx context.Context, req *dto.RunAssignmentRequest, callerID string) (*dto.RunAssignmentResponse, error)
	// GetSaved 返回当前已保存的分配，输出格式与 Run 一致
	GetSaved(ctx context.Context) (*engine.Result, error)
	Override(ctx context.Context, req *dto.OverrideAssignmentRequest, callerID string) (*engine.Result, error)
	ListRuns(ctx context.Context, page *dto.PaginationRequest) ([]dto.RunSummaryResponse, int64, error)
	GetRun(ctx context.Context, runID string) (*dto.RunDetailResponse, error)
}

type assignmentService struct {
	cfg    config.AssignmentConfig
	repo   *repository.Repository
	rdb    *redis.Client // 可为 nil：降级为无锁运行、不缓存结果
	logger *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(
	cfg config.AssignmentConfig,
	repo *repository.Repository,
	rdb *redis.Client,
	logger *zap.Logger,
) AssignmentService {
	return &assignmentService{cfg: cfg, repo: repo, rdb: rdb, logger: logger}
}

// ════════════════════════════════════════════════════════════
// 输入装载
// ════════════════════════════════════════════════════════════

// catalog 一次装载的全部目录数据，附带按 ID 的索引
type catalog struct {
	input      engine.Input
	courses    map[string]*model.Course
	tas        map[string]*model.TA
	professors map[string]*model.Professor
}

func (s *assignmentService) loadCatalog(ctx context.Context, repo *repository.Repository) (*catalog, error) {
	tas, err := repo.TA.List(ctx)
	if err != nil {
		s.logger.Error("查询助教列表失败", zap.Error(err))
		return nil, err
	}
	professors, err := repo.Professor.List(ctx)
	if err != nil {
		s.logger.Error("查询教授列表失败", zap.Error(err))
		return nil, err
	}
	courses, err := repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, err
	}
	return buildCatalog(tas, professors, courses)
}

// buildCatalog 把数据库记录转换为引擎输入；偏好顺序由仓储层按 rank/position 保证
func buildCatalog(tas []model.TA, professors []model.Professor, courses []model.Course) (*catalog, error) {
	c := &catalog{
		courses:    make(map[string]*model.Course, len(courses)),
		tas:        make(map[string]*model.TA, len(tas)),
		professors: make(map[string]*model.Professor, len(professors)),
	}

	c.input.Workers = make([]engine.Worker, 0, len(tas))
	for i := range tas {
		ta := &tas[i]
		c.tas[ta.TAID] = ta

		prefs := make([]string, 0, len(ta.PreferredProfessors))
		for _, p := range ta.PreferredProfessors {
			prefs = append(prefs, p.ProfessorID)
		}
		interests := make(map[string]engine.Interest, len(ta.CourseInterests))
		for _, ci := range ta.CourseInterests {
			level, err := engine.ParseInterest(ci.InterestLevel)
			if err != nil {
				return nil, fmt.Errorf("%w: 助教 %s: %v", ErrAssignmentInputInvalid, ta.Name, err)
			}
			interests[ci.CourseID] = level
		}
		c.input.Workers = append(c.input.Workers, engine.Worker{
			ID:                   ta.TAID,
			Name:                 ta.Name,
			Capacity:             ta.MaxUnits,
			PreferredSupervisors: prefs,
			Skills:               []string(ta.Skills),
			Interests:            interests,
		})
	}

	c.input.Supervisors = make([]engine.Supervisor, 0, len(professors))
	for i := range professors {
		p := &professors[i]
		c.professors[p.ProfessorID] = p

		prefs := make([]string, 0, len(p.PreferredTAs))
		for _, pt := range p.PreferredTAs {
			prefs = append(prefs, pt.TAID)
		}
		c.input.Supervisors = append(c.input.Supervisors, engine.Supervisor{
			ID:               p.ProfessorID,
			Name:             p.Name,
			PreferredWorkers: prefs,
		})
	}

	c.input.Tasks = make([]engine.Task, 0, len(courses))
	for i := range courses {
		course := &courses[i]
		c.courses[course.CourseID] = course

		sups := make([]string, 0, len(course.Professors))
		for _, cp := range course.Professors {
			sups = append(sups, cp.ProfessorID)
		}
		c.input.Tasks = append(c.input.Tasks, engine.Task{
			ID:             course.CourseID,
			Code:           course.CourseCode,
			RequiredUnits:  course.NumTAsRequested,
			RequiredSkills: []string(course.RequiredSkills),
			Supervisors:    sups,
		})
	}
	return c, nil
}

// leadProfessor 课程第一位教授的姓名，无教授时为占位符
func (c *catalog) leadProfessor(course *model.Course) string {
	if len(course.Professors) == 0 {
		return engine.Placeholder
	}
	if p, ok := c.professors[course.Professors[0].ProfessorID]; ok && p.Name != "" {
		return p.Name
	}
	return engine.Placeholder
}

// ════════════════════════════════════════════════════════════
// Run
// ════════════════════════════════════════════════════════════

func (s *assignmentService) options(ctx context.Context, req *dto.RunAssignmentRequest) (engine.Options, error) {
	opts := engine.Options{
		Weights:           engine.DefaultWeights(),
		MaxSameSupervisor: s.cfg.MaxSameSupervisor,
		TopK:              s.cfg.TopK,
		CapacityUnit:      s.cfg.CapacityUnit,
	}

	saved, err := s.repo.Weight.Get(ctx)
	switch {
	case err == nil:
		opts.Weights = engine.Weights{
			CoursePref:      saved.CoursePref,
			TAPref:          saved.TAPref,
			ProfPref:        saved.ProfPref,
			WorkloadBalance: saved.WorkloadBalance,
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Warn("权重未初始化，使用默认权重")
	default:
		s.logger.Error("查询权重失败", zap.Error(err))
		return opts, err
	}

	if req.Weights != nil {
		opts.Weights = *req.Weights
	}
	if req.MaxSameSupervisor != nil {
		opts.MaxSameSupervisor = *req.MaxSameSupervisor
	}
	if req.TopK != nil {
		opts.TopK = *req.TopK
	}
	return opts, nil
}

func (s *assignmentService) Run(ctx context.Context, req *dto.RunAssignmentRequest, callerID string) (*dto.RunAssignmentResponse, error) {
	start := time.Now()

	// 1. 获取运行锁，Redis 故障时降级为无锁运行
	if s.rdb != nil {
		token, err := s.rdb.AcquireRunLock(ctx, s.cfg.RunLockTTL)
		switch {
		case err == nil:
			defer func() {
				if err := s.rdb.ReleaseRunLock(context.Background(), token); err != nil {
					s.logger.Warn("释放分配运行锁失败", zap.Error(err))
				}
			}()
		case errors.Is(err, redis.ErrLockHeld):
			metrics.RecordRun(metrics.OutcomeBusy, time.Since(start))
			return nil, ErrAssignmentBusy
		default:
			s.logger.Warn("获取分配运行锁失败，降级为无锁运行", zap.Error(err))
		}
	}

	// 2. 组装参数与输入
	opts, err := s.options(ctx, req)
	if err != nil {
		metrics.RecordRun(metrics.OutcomeError, time.Since(start))
		return nil, err
	}
	cat, err := s.loadCatalog(ctx, s.repo)
	if err != nil {
		s.recordFailure(start, err)
		return nil, err
	}

	// 3. 运行引擎
	result, plan, err := engine.Assign(cat.input, opts)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidInput) {
			metrics.RecordRun(metrics.OutcomeRejected, time.Since(start))
			s.logger.Warn("分配输入被拒绝", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrAssignmentInputInvalid, err)
		}
		metrics.RecordRun(metrics.OutcomeError, time.Since(start))
		s.logger.Error("分配引擎运行失败", zap.Error(err))
		return nil, err
	}

	// 4. 写入运行快照，按需整体替换当前分配
	runID := uuid.NewString()
	if err := s.persistRun(ctx, runID, req.Persist, callerID, cat, opts, result, plan); err != nil {
		metrics.RecordRun(metrics.OutcomeError, time.Since(start))
		return nil, err
	}
	if req.Persist {
		s.invalidateCache(ctx)
	}

	// 5. 指标与日志
	metrics.RecordPlan(plan.Pass1Commits, plan.Pass2Commits, result.Stats.TotalUnfilled)
	outcome := metrics.OutcomeOK
	if result.Stats.TotalUnfilled > 0 {
		outcome = metrics.OutcomePartial
	}
	metrics.RecordRun(outcome, time.Since(start))

	s.logger.Info("分配运行完成",
		zap.String("run_id", runID),
		zap.Bool("persisted", req.Persist),
		zap.Int("courses", len(cat.input.Tasks)),
		zap.Int("tas", len(cat.input.Workers)),
		zap.Int("assigned", result.Stats.TotalAssigned),
		zap.Int("unfilled", result.Stats.TotalUnfilled),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &dto.RunAssignmentResponse{
		RunID:     runID,
		Persisted: req.Persist,
		Result:    result,
	}, nil
}

func (s *assignmentService) recordFailure(start time.Time, err error) {
	if errors.Is(err, ErrAssignmentInputInvalid) {
		metrics.RecordRun(metrics.OutcomeRejected, time.Since(start))
		return
	}
	metrics.RecordRun(metrics.OutcomeError, time.Since(start))
}

func (s *assignmentService) persistRun(
	ctx context.Context,
	runID string,
	persist bool,
	callerID string,
	cat *catalog,
	opts engine.Options,
	result *engine.Result,
	plan *engine.Plan,
) (err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
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

	actor := optionalID(callerID)
	now := time.Now()

	if persist {
		if err = txRepo.Assignment.DeleteAll(ctx); err != nil {
			s.logger.Error("清空当前分配失败", zap.Error(err))
			return err
		}
		rows := make([]model.TAAssignment, 0, result.Stats.TotalAssigned)
		for _, task := range cat.input.Tasks {
			for pos, taID := range plan.Rosters[task.ID] {
				rows = append(rows, model.TAAssignment{
					CourseID:   task.ID,
					TAID:       taID,
					Position:   pos,
					AssignedAt: now,
					AssignedBy: actor,
					Source:     SourceEngine,
				})
			}
		}
		if err = txRepo.Assignment.CreateBatch(ctx, rows); err != nil {
			s.logger.Error("写入分配结果失败", zap.Error(err))
			return err
		}
	}

	run := &model.AssignmentRun{
		RunID:             runID,
		CreatedAt:         now,
		CreatedBy:         actor,
		CoursePref:        opts.Weights.CoursePref,
		TAPref:            opts.Weights.TAPref,
		ProfPref:          opts.Weights.ProfPref,
		WorkloadBalance:   opts.Weights.WorkloadBalance,
		MaxSameSupervisor: opts.MaxSameSupervisor,
		TopK:              opts.TopK,
		CapacityUnit:      opts.CapacityUnit,
		TotalRequired:     result.Stats.TotalRequired,
		TotalAssigned:     result.Stats.TotalAssigned,
		TotalUnfilled:     result.Stats.TotalUnfilled,
		Pass1Commits:      plan.Pass1Commits,
		Pass2Commits:      plan.Pass2Commits,
		Persisted:         persist,
	}
	courses := make([]model.AssignmentRunCourse, 0, len(cat.input.Tasks))
	for _, task := range cat.input.Tasks {
		courses = append(courses, model.AssignmentRunCourse{
			RunID:         runID,
			CourseID:      task.ID,
			CourseCode:    task.Code,
			ProfessorName: cat.leadProfessor(cat.courses[task.ID]),
			RequiredUnits: task.RequiredUnits,
			AssignedCount: len(plan.Rosters[task.ID]),
		})
	}
	positions := make(map[string]int, len(plan.Rosters))
	tas := make([]model.AssignmentRunTA, 0, len(plan.Commits))
	for _, cm := range plan.Commits {
		name := ""
		if ta, ok := cat.tas[cm.WorkerID]; ok {
			name = ta.Name
		}
		tas = append(tas, model.AssignmentRunTA{
			RunID:    runID,
			CourseID: cm.TaskID,
			TAID:     cm.WorkerID,
			TAName:   name,
			Position: positions[cm.TaskID],
			Pass:     cm.Pass,
			Score:    cm.Score,
		})
		positions[cm.TaskID]++
	}
	if err = txRepo.Run.Create(ctx, run, courses, tas); err != nil {
		s.logger.Error("写入运行快照失败", zap.Error(err))
		return err
	}

	level := model.LogLevelInfo
	if result.Stats.TotalUnfilled > 0 {
		level = model.LogLevelWarning
	}
	msg := fmt.Sprintf("运行分配：已分配 %d/%d，缺口 %d",
		result.Stats.TotalAssigned, result.Stats.TotalRequired, result.Stats.TotalUnfilled)
	if persist {
		msg += "（已保存）"
	}
	if err = recordActivity(ctx, txRepo, callerID, ActionAssignmentRun, level, msg); err != nil {
		s.logger.Error("写入活动日志失败", zap.Error(err))
		return err
	}

	if tx != nil {
		if err = tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// GetSaved
// ════════════════════════════════════════════════════════════

func (s *assignmentService) GetSaved(ctx context.Context) (*engine.Result, error) {
	if s.rdb != nil {
		if b, err := s.rdb.GetCachedResult(ctx); err == nil {
			var res engine.Result
			if err := json.Unmarshal(b, &res); err == nil {
				return &res, nil
			}
			s.logger.Warn("分配结果缓存损坏，重新查询")
		} else if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("读取分配结果缓存失败", zap.Error(err))
		}
	}

	cat, err := s.loadCatalog(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Assignment.List(ctx)
	if err != nil {
		s.logger.Error("查询当前分配失败", zap.Error(err))
		return nil, err
	}

	res := engine.Format(cat.input, savedPlan(cat, rows))

	if s.rdb != nil {
		if b, err := json.Marshal(res); err == nil {
			if err := s.rdb.CacheResult(ctx, b, s.cfg.ResultCacheTTL); err != nil {
				s.logger.Warn("写入分配结果缓存失败", zap.Error(err))
			}
		}
	}
	return res, nil
}

// savedPlan 由已保存的分配行重建以 ID 为键的计划；行已按课程、position 排序
func savedPlan(cat *catalog, rows []model.TAAssignment) *engine.Plan {
	plan := &engine.Plan{
		Rosters:   make(map[string][]string),
		Loads:     make(map[string]int),
		Remaining: make(map[string]int),
	}
	for _, row := range rows {
		if _, ok := cat.courses[row.CourseID]; !ok {
			continue
		}
		if _, ok := cat.tas[row.TAID]; !ok {
			continue
		}
		plan.Rosters[row.CourseID] = append(plan.Rosters[row.CourseID], row.TAID)
		plan.Loads[row.TAID]++
	}
	for _, task := range cat.input.Tasks {
		if left := task.RequiredUnits - len(plan.Rosters[task.ID]); left > 0 {
			plan.Remaining[task.ID] = left
		}
	}
	return plan
}

func (s *assignmentService) invalidateCache(ctx context.Context) {
	invalidateResultCache(ctx, s.rdb, s.logger)
}

// ════════════════════════════════════════════════════════════
// Override
// ════════════════════════════════════════════════════════════

func (s *assignmentService) Override(ctx context.Context, req *dto.OverrideAssignmentRequest, callerID string) (*engine.Result, error) {
	if len(req.AddTAIDs) == 0 && len(req.RemoveTAIDs) == 0 {
		return nil, ErrOverrideEmpty
	}

	course, err := s.repo.Course.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}

	all, err := s.repo.Assignment.List(ctx)
	if err != nil {
		s.logger.Error("查询当前分配失败", zap.Error(err))
		return nil, err
	}
	roster := make([]string, 0)
	loads := make(map[string]int)
	for _, row := range all {
		loads[row.TAID]++
		if row.CourseID == course.CourseID {
			roster = append(roster, row.TAID)
		}
	}

	// 1. 校验移除项
	inRoster := make(map[string]bool, len(roster))
	for _, id := range roster {
		inRoster[id] = true
	}
	for _, id := range req.RemoveTAIDs {
		if !inRoster[id] {
			return nil, ErrOverrideNotAssigned
		}
		delete(inRoster, id)
		loads[id]--
	}

	// 2. 校验新增项
	added := make([]*model.TA, 0, len(req.AddTAIDs))
	for _, id := range req.AddTAIDs {
		if inRoster[id] {
			return nil, ErrOverrideDuplicate
		}
		ta, err := s.repo.TA.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTANotFound
			}
			s.logger.Error("查询助教失败", zap.Error(err))
			return nil, err
		}
		if !req.Force && loads[id] >= effectiveCapacity(ta.MaxUnits, s.cfg.CapacityUnit) {
			return nil, ErrOverrideOverCapacity
		}
		inRoster[id] = true
		loads[id]++
		added = append(added, ta)
	}
	if !req.Force && len(inRoster) > course.NumTAsRequested && len(added) > 0 {
		return nil, ErrOverrideExceedsDemand
	}

	// 3. 事务内写入
	if err := s.applyOverride(ctx, course, roster, req.RemoveTAIDs, added, callerID); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)

	return s.GetSaved(ctx)
}

func (s *assignmentService) applyOverride(
	ctx context.Context,
	course *model.Course,
	roster []string,
	removeIDs []string,
	added []*model.TA,
	callerID string,
) (err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
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

	for _, id := range removeIDs {
		if err = txRepo.Assignment.Delete(ctx, course.CourseID, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOverrideNotAssigned
			}
			s.logger.Error("删除分配失败", zap.Error(err))
			return err
		}
	}

	next := len(roster)
	names := make([]string, 0, len(added))
	for _, ta := range added {
		row := &model.TAAssignment{
			CourseID:   course.CourseID,
			TAID:       ta.TAID,
			Position:   next,
			AssignedAt: time.Now(),
			AssignedBy: optionalID(callerID),
			Source:     SourceManual,
		}
		if err = txRepo.Assignment.Create(ctx, row); err != nil {
			s.logger.Error("新增分配失败", zap.Error(err))
			return err
		}
		next++
		names = append(names, ta.Name)
	}

	msg := fmt.Sprintf("手动调整 %s：移除 %d 人，新增 [%s]",
		course.CourseCode, len(removeIDs), strings.Join(names, ", "))
	if err = recordActivity(ctx, txRepo, callerID, ActionAssignmentOverride, model.LogLevelWarning, msg); err != nil {
		s.logger.Error("写入活动日志失败", zap.Error(err))
		return err
	}

	if tx != nil {
		if err = tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}

	s.logger.Info("手动调整分配",
		zap.String("course", course.CourseCode),
		zap.Int("removed", len(removeIDs)),
		zap.Int("added", len(added)),
		zap.String("operator", callerID),
	)
	return nil
}

// ════════════════════════════════════════════════════════════
// 运行历史
// ════════════════════════════════════════════════════════════

func (s *assignmentService) ListRuns(ctx context.Context, page *dto.PaginationRequest) ([]dto.RunSummaryResponse, int64, error) {
	runs, total, err := s.repo.Run.List(ctx, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询运行历史失败", zap.Error(err))
		return nil, 0, err
	}
	list := make([]dto.RunSummaryResponse, 0, len(runs))
	for i := range runs {
		list = append(list, toRunSummary(&runs[i]))
	}
	return list, total, nil
}

func (s *assignmentService) GetRun(ctx context.Context, runID string) (*dto.RunDetailResponse, error) {
	run, err := s.repo.Run.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error("查询运行记录失败", zap.Error(err))
		return nil, err
	}
	courses, err := s.repo.Run.ListCourses(ctx, runID)
	if err != nil {
		s.logger.Error("查询运行课程失败", zap.Error(err))
		return nil, err
	}
	tas, err := s.repo.Run.ListTAs(ctx, runID)
	if err != nil {
		s.logger.Error("查询运行分配失败", zap.Error(err))
		return nil, err
	}

	byCourse := make(map[string][]dto.RunTAResponse, len(courses))
	for _, t := range tas {
		byCourse[t.CourseID] = append(byCourse[t.CourseID], dto.RunTAResponse{
			TAID:  t.TAID,
			Name:  t.TAName,
			Pass:  t.Pass,
			Score: t.Score,
		})
	}

	detail := &dto.RunDetailResponse{
		RunSummaryResponse: toRunSummary(run),
		MaxSameSupervisor:  run.MaxSameSupervisor,
		TopK:               run.TopK,
		CapacityUnit:       run.CapacityUnit,
		Pass1Commits:       run.Pass1Commits,
		Pass2Commits:       run.Pass2Commits,
		Courses:            make([]dto.RunCourseResponse, 0, len(courses)),
	}
	for _, c := range courses {
		rosterTAs := byCourse[c.CourseID]
		if rosterTAs == nil {
			rosterTAs = []dto.RunTAResponse{}
		}
		detail.Courses = append(detail.Courses, dto.RunCourseResponse{
			CourseID:      c.CourseID,
			CourseCode:    c.CourseCode,
			Professor:     c.ProfessorName,
			RequiredUnits: c.RequiredUnits,
			TAs:           rosterTAs,
		})
	}
	return detail, nil
}

func toRunSummary(run *model.AssignmentRun) dto.RunSummaryResponse {
	return dto.RunSummaryResponse{
		RunID:     run.RunID,
		CreatedAt: formatTime(run.CreatedAt),
		CreatedBy: run.CreatedBy,
		Weights: engine.Weights{
			CoursePref:      run.CoursePref,
			TAPref:          run.TAPref,
			ProfPref:        run.ProfPref,
			WorkloadBalance: run.WorkloadBalance,
		},
		TotalRequired: run.TotalRequired,
		TotalAssigned: run.TotalAssigned,
		TotalUnfilled: run.TotalUnfilled,
		Persisted:     run.Persisted,
	}
}

// effectiveCapacity 与引擎一致：单人上限不超过 capacity_unit
func effectiveCapacity(maxUnits, unit int) int {
	if unit > 0 {
		return min(maxUnits, unit)
	}
	return maxUnits
}

// formatTime 统一输出 UTC 的 RFC3339 时间
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// optionalID 空字符串转为 nil，用于可空的 uuid 外键
func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
