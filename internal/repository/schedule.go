// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/rosterplan/pkg/model"
)

// Plan 一次求解产出的持久化记录，对应 plans 表
type Plan struct {
	ID             uuid.UUID            `json:"id"`
	PeriodStartDay string                `json:"period_start_day"`
	PeriodEndDay   string                `json:"period_end_day"`
	Status         string                `json:"status"` // cpsat.SolveStatus 字符串，如 OPTIMAL/FEASIBLE
	ObjectiveValue float64               `json:"objective_value"`
	Schedule       model.SchedulePivot   `json:"schedule"`
	Statistics     map[string]any        `json:"statistics,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// PlanRepository 排班计划仓储
type PlanRepository struct {
	db DB
}

// NewPlanRepository 创建排班计划仓储
func NewPlanRepository(db DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create 保存一次求解结果
func (r *PlanRepository) Create(ctx context.Context, plan *Plan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	plan.CreatedAt = time.Now()

	scheduleJSON, err := json.Marshal(plan.Schedule)
	if err != nil {
		return fmt.Errorf("序列化排班透视表失败: %w", err)
	}
	statsJSON, err := json.Marshal(plan.Statistics)
	if err != nil {
		return fmt.Errorf("序列化统计信息失败: %w", err)
	}

	query := `
		INSERT INTO plans (
			id, period_start_day, period_end_day, status, objective_value,
			schedule, statistics, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		plan.ID, plan.PeriodStartDay, plan.PeriodEndDay, plan.Status, plan.ObjectiveValue,
		scheduleJSON, statsJSON, plan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("保存排班计划失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取排班计划
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	query := `
		SELECT id, period_start_day, period_end_day, status, objective_value,
			schedule, statistics, created_at
		FROM plans
		WHERE id = $1
	`

	return r.scanPlan(r.db.QueryRowContext(ctx, query, id))
}

// List 列出排班计划
func (r *PlanRepository) List(ctx context.Context, filter ListFilter) ([]*Plan, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}

	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("period_start_day >= $%d", argNum))
		args = append(args, filter.StartDate)
		argNum++
	}

	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("period_end_day <= $%d", argNum))
		args = append(args, filter.EndDate)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM plans %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计排班计划数量失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`
		SELECT id, period_start_day, period_end_day, status, objective_value,
			schedule, statistics, created_at
		FROM plans %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderBy, orderDir, argNum, argNum+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询排班计划列表失败: %w", err)
	}
	defer rows.Close()

	var plans []*Plan
	for rows.Next() {
		p, err := r.scanPlanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		plans = append(plans, p)
	}

	return plans, total, nil
}

// Delete 删除排班计划
func (r *PlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM plans WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("删除排班计划失败: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("排班计划不存在")
	}
	return nil
}

func (r *PlanRepository) scanPlan(row *sql.Row) (*Plan, error) {
	p := &Plan{}
	var scheduleJSON, statsJSON []byte

	err := row.Scan(
		&p.ID, &p.PeriodStartDay, &p.PeriodEndDay, &p.Status, &p.ObjectiveValue,
		&scheduleJSON, &statsJSON, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描排班计划失败: %w", err)
	}

	if len(scheduleJSON) > 0 {
		json.Unmarshal(scheduleJSON, &p.Schedule)
	}
	if len(statsJSON) > 0 {
		json.Unmarshal(statsJSON, &p.Statistics)
	}

	return p, nil
}

func (r *PlanRepository) scanPlanRow(rows *sql.Rows) (*Plan, error) {
	p := &Plan{}
	var scheduleJSON, statsJSON []byte

	err := rows.Scan(
		&p.ID, &p.PeriodStartDay, &p.PeriodEndDay, &p.Status, &p.ObjectiveValue,
		&scheduleJSON, &statsJSON, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描排班计划失败: %w", err)
	}

	if len(scheduleJSON) > 0 {
		json.Unmarshal(scheduleJSON, &p.Schedule)
	}
	if len(statsJSON) > 0 {
		json.Unmarshal(statsJSON, &p.Statistics)
	}

	return p, nil
}
