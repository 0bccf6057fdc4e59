package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// pathID 解析路径中的:id
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.ErrValidationFailed.WithDetails(map[string][]string{"id": {"必须是正整数"}})
	}
	return uint(id), nil
}
