package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"ta-assign/backend/internal/service"
	"ta-assign/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAssignments 导出当前分配
// GET /api/v1/export/assignments
func (h *ExportHandler) ExportAssignments(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportAssignments(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 16001, "生成 Excel 文件失败")
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
