package repository

import (
	"fmt"
	"strings"

	"course-planner/internal/search"
	"course-planner/internal/timeplace"
)

// predicateSQL 将谓词树翻译为 WHERE 子句（PostgreSQL）
//
// 列名只来自 search.Field 白名单，取值全部走占位符。
// class_time_mask 为 INTEGER[]，下标从 1 开始。
func predicateSQL(p search.Predicate) (string, []any, error) {
	switch n := p.(type) {
	case search.Eq:
		col, err := column(n.Field)
		if err != nil {
			return "", nil, err
		}
		return col + " = ?", []any{n.Value}, nil

	case search.In:
		col, err := column(n.Field)
		if err != nil {
			return "", nil, err
		}
		if len(n.Values) == 0 {
			return "FALSE", nil, nil
		}
		return col + " IN ?", []any{n.Values}, nil

	case search.NotIn:
		col, err := column(n.Field)
		if err != nil {
			return "", nil, err
		}
		if len(n.Values) == 0 {
			return "TRUE", nil, nil
		}
		return col + " NOT IN ?", []any{n.Values}, nil

	case search.Regex:
		col, err := column(n.Field)
		if err != nil {
			return "", nil, err
		}
		return col + "::text ~* ?", []any{n.Pattern}, nil

	case search.And:
		return joinSQL([]search.Predicate(n), " AND ", "TRUE")

	case search.Or:
		return joinSQL([]search.Predicate(n), " OR ", "FALSE")

	case search.MaskNonEmpty:
		return maskNonEmptySQL(), nil, nil

	case search.MaskFits:
		parts := []string{maskNonEmptySQL()}
		args := make([]any, 0, len(n.Free))
		for day, free := range n.Free {
			busy := ^free & (1<<timeplace.MaskTicks - 1)
			parts = append(parts, fmt.Sprintf("(class_time_mask[%d] & ?) = 0", day+1))
			args = append(args, busy)
		}
		return "(" + strings.Join(parts, " AND ") + ")", args, nil
	}
	return "", nil, fmt.Errorf("不支持的检索谓词: %T", p)
}

func joinSQL(children []search.Predicate, sep, empty string) (string, []any, error) {
	if len(children) == 0 {
		return empty, nil, nil
	}
	parts := make([]string, 0, len(children))
	var args []any
	for _, c := range children {
		s, a, err := predicateSQL(c)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, s)
		args = append(args, a...)
	}
	return "(" + strings.Join(parts, sep) + ")", args, nil
}

func maskNonEmptySQL() string {
	return "EXISTS (SELECT 1 FROM unnest(class_time_mask) AS m WHERE m <> 0)"
}

func column(f search.Field) (string, error) {
	if !f.Valid() {
		return "", fmt.Errorf("非法检索字段: %q", f)
	}
	return string(f), nil
}
