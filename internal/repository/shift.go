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

// ShiftRepository 班次仓储
type ShiftRepository struct {
	db DB
}

// NewShiftRepository 创建班次仓储
func NewShiftRepository(db DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Create 创建班次
func (r *ShiftRepository) Create(ctx context.Context, shift *model.Shift) error {
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	now := time.Now()
	shift.CreatedAt = now
	shift.UpdatedAt = now

	reqJSON, _ := json.Marshal(shift.Requirements)

	query := `
		INSERT INTO shifts (
			id, name, category, station, time_start, time_end,
			duration_minutes, requirements, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		shift.ID, shift.Name, shift.Category, shift.Station, shift.TimeStart, shift.TimeEnd,
		shift.DurationMinutes, reqJSON, shift.CreatedAt, shift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建班次失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取班次
func (r *ShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	query := `
		SELECT id, name, category, station, time_start, time_end,
			duration_minutes, requirements, created_at, updated_at
		FROM shifts
		WHERE id = $1 AND deleted_at IS NULL
	`

	return r.scanShift(r.db.QueryRowContext(ctx, query, id))
}

// GetByName 根据名称获取班次
func (r *ShiftRepository) GetByName(ctx context.Context, name string) (*model.Shift, error) {
	query := `
		SELECT id, name, category, station, time_start, time_end,
			duration_minutes, requirements, created_at, updated_at
		FROM shifts
		WHERE name = $1 AND deleted_at IS NULL
	`

	return r.scanShift(r.db.QueryRowContext(ctx, query, name))
}

// Update 更新班次
func (r *ShiftRepository) Update(ctx context.Context, shift *model.Shift) error {
	shift.UpdatedAt = time.Now()
	reqJSON, _ := json.Marshal(shift.Requirements)

	query := `
		UPDATE shifts SET
			name = $2, category = $3, station = $4, time_start = $5, time_end = $6,
			duration_minutes = $7, requirements = $8, updated_at = $9
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		shift.ID, shift.Name, shift.Category, shift.Station, shift.TimeStart, shift.TimeEnd,
		shift.DurationMinutes, reqJSON, shift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新班次失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班次不存在")
	}

	return nil
}

// Delete 软删除班次
func (r *ShiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE shifts SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除班次失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班次不存在")
	}

	return nil
}

// List 查询班次列表
func (r *ShiftRepository) List(ctx context.Context, filter ListFilter) ([]*model.Shift, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR category ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	if station, ok := filter.Extra["station"].(string); ok && station != "" {
		conditions = append(conditions, fmt.Sprintf("station = $%d", argIndex))
		args = append(args, station)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM shifts WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, category, station, time_start, time_end,
			duration_minutes, requirements, created_at, updated_at
		FROM shifts
		WHERE %s
		ORDER BY time_start ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.Shift
	for rows.Next() {
		shift, err := r.scanShiftRow(rows)
		if err != nil {
			return nil, 0, err
		}
		shifts = append(shifts, shift)
	}

	return shifts, total, nil
}

// ListAll 获取全部班次，用于求解输入组装
func (r *ShiftRepository) ListAll(ctx context.Context) ([]*model.Shift, error) {
	filter := DefaultListFilter().WithLimit(10000)
	shifts, _, err := r.List(ctx, filter)
	return shifts, err
}

func (r *ShiftRepository) scanShift(row *sql.Row) (*model.Shift, error) {
	shift := &model.Shift{}
	var reqJSON []byte

	err := row.Scan(
		&shift.ID, &shift.Name, &shift.Category, &shift.Station, &shift.TimeStart, &shift.TimeEnd,
		&shift.DurationMinutes, &reqJSON, &shift.CreatedAt, &shift.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询班次失败: %w", err)
	}

	json.Unmarshal(reqJSON, &shift.Requirements)
	return shift, nil
}

func (r *ShiftRepository) scanShiftRow(rows *sql.Rows) (*model.Shift, error) {
	shift := &model.Shift{}
	var reqJSON []byte

	err := rows.Scan(
		&shift.ID, &shift.Name, &shift.Category, &shift.Station, &shift.TimeStart, &shift.TimeEnd,
		&shift.DurationMinutes, &reqJSON, &shift.CreatedAt, &shift.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描行失败: %w", err)
	}

	json.Unmarshal(reqJSON, &shift.Requirements)
	return shift, nil
}

// RuleRepository 规则仓储
type RuleRepository struct {
	db DB
}

// NewRuleRepository 创建规则仓储
func NewRuleRepository(db DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// Create 创建规则
func (r *RuleRepository) Create(ctx context.Context, rule *model.Rule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	query := `
		INSERT INTO rules (
			id, rule_type, rule_text, category, applies_to, source, weight, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		rule.ID, rule.Type, rule.Text, rule.Category, rule.AppliesTo, rule.Source, rule.Weight,
		rule.Active, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建规则失败: %w", err)
	}

	return nil
}

// ListActive 获取所有启用的规则
func (r *RuleRepository) ListActive(ctx context.Context) ([]*model.Rule, error) {
	query := `
		SELECT id, rule_type, rule_text, category, applies_to, source, weight, is_active, created_at, updated_at
		FROM rules
		WHERE is_active = true AND deleted_at IS NULL
		ORDER BY category, rule_type
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询规则列表失败: %w", err)
	}
	defer rows.Close()

	var rules []*model.Rule
	for rows.Next() {
		rule := &model.Rule{}
		if err := rows.Scan(
			&rule.ID, &rule.Type, &rule.Text, &rule.Category, &rule.AppliesTo, &rule.Source, &rule.Weight,
			&rule.Active, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描规则失败: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// Delete 软删除规则
func (r *RuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE rules SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除规则失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("规则不存在")
	}

	return nil
}
