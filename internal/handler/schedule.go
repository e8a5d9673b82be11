// Package handler 提供API处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/rosterplan/internal/cpsat"
	"github.com/paiban/rosterplan/internal/metrics"
	"github.com/paiban/rosterplan/internal/repository"
	"github.com/paiban/rosterplan/pkg/errors"
	"github.com/paiban/rosterplan/pkg/logger"
	"github.com/paiban/rosterplan/pkg/model"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobResult 一次求解任务的产出
type JobResult struct {
	Status      cpsat.SolveStatus      `json:"status"`
	Assignments []model.Assignment     `json:"assignments"`
	Pivot       model.SchedulePivot    `json:"pivot"`
	Analysis    cpsat.SolutionAnalysis `json:"analysis"`
	Violations  []cpsat.Violation      `json:"violations"`
}

// Job 一次排班生成任务。除 ID/CreatedAt（创建后不再修改）外，所有字段都只能
// 通过下面加锁的方法读写 —— runSolve 在后台 goroutine 里写，HTTP 处理器在
// 请求 goroutine 里读，两者并发。
type Job struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	status      JobStatus
	progress    float64
	result      *JobResult
	errMsg      string
	completedAt *time.Time
	cancelled   bool
}

func newJob(id string) *Job {
	return &Job{
		ID:        id,
		CreatedAt: time.Now(),
		status:    JobPending,
		progress:  0.1,
	}
}

func (j *Job) setStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
}

func (j *Job) setProgress(progress float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress = progress
}

// markFailed 将任务标记为失败；已被取消的任务不再被覆盖。返回是否实际生效。
func (j *Job) markFailed(message string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancelled {
		return false
	}
	now := time.Now()
	j.status = JobFailed
	j.errMsg = message
	j.completedAt = &now
	return true
}

// markCompleted 将任务标记为完成并写入结果；已被取消的任务不再被覆盖。
func (j *Job) markCompleted(result *JobResult) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancelled {
		return false
	}
	now := time.Now()
	j.result = result
	j.status = JobCompleted
	j.progress = 1.0
	j.completedAt = &now
	return true
}

// markCancelled 取消任务，不中断正在执行的求解，只是阻止其结果被写回。
func (j *Job) markCancelled() {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	j.cancelled = true
	j.status = JobFailed
	j.errMsg = "Job cancelled by user"
	j.completedAt = &now
}

func (j *Job) isCancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

// snapshot 在锁内拍下任务当前状态的一份拷贝，供响应序列化使用
func (j *Job) snapshot() JobStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobStatusResponse{
		JobID:       j.ID,
		Status:      j.status,
		Progress:    j.progress,
		Result:      j.result,
		Error:       j.errMsg,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.completedAt,
	}
}

// GenerateRequest 生成排班请求体
type GenerateRequest struct {
	Employees        []model.Employee       `json:"employees"`
	Shifts           []model.Shift           `json:"shifts"`
	Days             []string                `json:"days"`
	Rules            []model.Rule            `json:"rules"`
	Availability     model.AvailabilityMap   `json:"availability"`
	FixedAssignments []model.FixedAssignment `json:"fixed_assignments"`
	OptimizationMode cpsat.OptimizationMode  `json:"optimization_mode"`
	TimeLimit        float64                 `json:"time_limit"`
	Stations         []string                `json:"stations,omitempty"`
}

// GenerateResponse 生成排班请求的即时响应
type GenerateResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// JobStatusResponse 任务状态响应
type JobStatusResponse struct {
	JobID       string     `json:"job_id"`
	Status      JobStatus  `json:"status"`
	Progress    float64    `json:"progress"`
	Result      *JobResult `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status       string    `json:"status"`
	JobsInMemory int       `json:"jobs_in_memory"`
	Timestamp    time.Time `json:"timestamp"`
}

// ScheduleHandler 承载排班生成任务注册表，四个端点的共享状态
type ScheduleHandler struct {
	jobs     sync.Map // string -> *Job
	planRepo *repository.PlanRepository
}

// NewScheduleHandler 创建排班生成处理器。planRepo 为 nil 时求解结果不持久化，
// 仅保留在内存任务注册表中。
func NewScheduleHandler(planRepo *repository.PlanRepository) *ScheduleHandler {
	return &ScheduleHandler{planRepo: planRepo}
}

// Generate 处理 POST /api/generate-plan：校验请求、登记任务、后台求解
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondAppError(w, errors.New(errors.CodeInvalidInput, "仅支持 POST 方法"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, errors.Wrap(err, errors.CodeInvalidInput, "请求体解析失败"))
		return
	}

	solveReq := cpsat.SolveRequest{
		Employees:        req.Employees,
		Shifts:           req.Shifts,
		Days:             req.Days,
		Rules:            req.Rules,
		Availability:     req.Availability,
		FixedAssignments: req.FixedAssignments,
		OptimizationMode: req.OptimizationMode,
		TimeLimit:        req.TimeLimit,
	}

	job := newJob(uuid.New().String())
	h.jobs.Store(job.ID, job)

	logger.Info().Str("job_id", job.ID).Int("employees", len(req.Employees)).
		Int("shifts", len(req.Shifts)).Int("days", len(req.Days)).Msg("排班任务已登记")

	go h.runSolve(job, solveReq)

	respondJSON(w, http.StatusAccepted, GenerateResponse{
		JobID:   job.ID,
		Message: "Job submitted",
	})
}

// runSolve 在后台 goroutine 中跑完整的求解流水线，按阶段更新任务进度
func (h *ScheduleHandler) runSolve(job *Job, req cpsat.SolveRequest) {
	start := time.Now()
	job.setStatus(JobRunning)

	inst, validationErrs := cpsat.Normalize(req)
	job.setProgress(0.2)
	if len(validationErrs) > 0 {
		h.fail(job, validationErrs[0])
		return
	}

	job.setProgress(0.3)
	vars, outcome, err := cpsat.Solve(inst)
	if err != nil {
		h.fail(job, err.Error())
		return
	}
	job.setProgress(0.9)

	metrics.RecordSolve(string(outcome.Status), time.Since(start))
	logger.Info().Str("job_id", job.ID).Str("status", string(outcome.Status)).
		Int64("num_conflicts", outcome.Statistics.NumConflicts).
		Int64("num_branches", outcome.Statistics.NumBranches).
		Float64("wall_time", outcome.Statistics.WallTimeSeconds).
		Msg("求解结束")

	if job.isCancelled() {
		return
	}

	if !outcome.Status.IsSuccessful() {
		h.fail(job, "no feasible solution: status="+string(outcome.Status))
		return
	}

	assignments := cpsat.ExtractSolution(inst, vars, outcome.Response)
	pivot := cpsat.BuildPivot(inst, assignments)
	analysis := cpsat.Analyze(inst, assignments, outcome)
	violations := cpsat.Verify(inst, assignments)

	metrics.SetObjectiveValue(job.ID, outcome.Statistics.ObjectiveValue)

	if !job.markCompleted(&JobResult{
		Status:      outcome.Status,
		Assignments: assignments,
		Pivot:       pivot,
		Analysis:    analysis,
		Violations:  violations,
	}) {
		return
	}

	h.persistPlan(job, req, outcome, pivot)
}

// fail 将任务标记为失败并记录日志；已被取消的任务不再被覆盖
func (h *ScheduleHandler) fail(job *Job, message string) {
	if !job.markFailed(message) {
		return
	}
	logger.Warn().Str("job_id", job.ID).Str("error", message).Msg("求解任务失败")
}

// persistPlan 把求解结果写入 plans 表；未配置仓储或天数为空时静默跳过，
// 写入失败只记录日志，不影响任务已完成的状态。
func (h *ScheduleHandler) persistPlan(job *Job, req cpsat.SolveRequest, outcome *cpsat.SolveOutcome, pivot model.SchedulePivot) {
	if h.planRepo == nil || len(req.Days) == 0 {
		return
	}

	plan := &repository.Plan{
		PeriodStartDay: req.Days[0],
		PeriodEndDay:   req.Days[len(req.Days)-1],
		Status:         string(outcome.Status),
		ObjectiveValue: outcome.Statistics.ObjectiveValue,
		Schedule:       pivot,
		Statistics: map[string]any{
			"job_id":         job.ID,
			"num_conflicts":  outcome.Statistics.NumConflicts,
			"num_branches":   outcome.Statistics.NumBranches,
			"wall_time_secs": outcome.Statistics.WallTimeSeconds,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.planRepo.Create(ctx, plan); err != nil {
		logger.Warn().Str("job_id", job.ID).Err(err).Msg("排班结果持久化失败")
	}
}

// JobStatusHandler 处理 GET /api/job-status/{job_id}
func (h *ScheduleHandler) JobStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondAppError(w, errors.New(errors.CodeInvalidInput, "仅支持 GET 方法"))
		return
	}

	jobID := r.PathValue("job_id")
	jobAny, ok := h.jobs.Load(jobID)
	if !ok {
		respondAppError(w, errors.NotFound("job", jobID))
		return
	}

	j := jobAny.(*Job)
	respondJSON(w, http.StatusOK, j.snapshot())
}

// DeleteJob 处理 DELETE /api/job/{job_id}：标记任务失败，不中断正在执行的求解
func (h *ScheduleHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		respondAppError(w, errors.New(errors.CodeInvalidInput, "仅支持 DELETE 方法"))
		return
	}

	jobID := r.PathValue("job_id")
	jobAny, ok := h.jobs.Load(jobID)
	if !ok {
		respondAppError(w, errors.NotFound("job", jobID))
		return
	}

	j := jobAny.(*Job)
	j.markCancelled()

	logger.Info().Str("job_id", jobID).Msg("任务已被用户取消")
	respondJSON(w, http.StatusOK, j.snapshot())
}

// Health 处理 GET /api/health
func (h *ScheduleHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondAppError(w, errors.New(errors.CodeInvalidInput, "仅支持 GET 方法"))
		return
	}

	count := 0
	h.jobs.Range(func(_, _ any) bool {
		count++
		return true
	})

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:       "ok",
		JobsInMemory: count,
		Timestamp:    time.Now(),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondAppError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(err)
}
