package mysql

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateError 判断是否为MySQL唯一索引冲突错误（1062: Duplicate entry 'xxx' for key 'yyy'）
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}

// violatesIndex 唯一索引冲突是否发生在指定索引上
func violatesIndex(err error, index string) bool {
	return isDuplicateError(err) && strings.Contains(err.Error(), index)
}

// pageOffset 页码从1开始
func pageOffset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
