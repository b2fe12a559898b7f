package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"ta-assign/backend/internal/service"
	"ta-assign/backend/pkg/response"
)

// ImportHandler 工作簿导入 HTTP 处理器
type ImportHandler struct {
	importSvc service.ImportService
}

// NewImportHandler 创建 ImportHandler
func NewImportHandler(importSvc service.ImportService) *ImportHandler {
	return &ImportHandler{importSvc: importSvc}
}

// ImportWorkbook 导入规划工作簿
// POST /api/v1/import/workbook
//
// multipart/form-data, field="file"；dry_run=true 时只返回解析结果
func (h *ImportHandler) ImportWorkbook(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 15000, "请上传 Excel 工作簿")
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".xlsx" && ext != ".xlsm" {
		response.BadRequest(c, 15001, "仅支持 .xlsx 格式")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	wb, err := h.importSvc.ParseWorkbook(file)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	if c.PostForm("dry_run") == "true" {
		response.OK(c, wb)
		return
	}

	result, err := h.importSvc.Import(c.Request.Context(), wb, callerID)
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	response.Created(c, result)
}

func (h *ImportHandler) handleImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportMissingSheet):
		response.BadRequest(c, 15002, err.Error())
	case errors.Is(err, service.ErrImportBadHeader):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15003, "表头缺少必需列", err.Error())
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 15004, "工作簿中没有可导入的数据")
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 15005, "单次导入行数超过上限")
	case errors.Is(err, service.ErrImportUnreadable):
		response.BadRequest(c, 15006, "无法解析Excel文件")
	default:
		response.InternalError(c)
	}
}
