package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hvdclogix/cargoflow/internal/domain"
	"github.com/hvdclogix/cargoflow/internal/service"
)

type FlowHandler struct {
	service *service.FlowService
}

func NewFlowHandler(service *service.FlowService) *FlowHandler {
	return &FlowHandler{service: service}
}

func (h *FlowHandler) parseFilter(c *gin.Context) domain.ItemFilter {
	filter := domain.ItemFilter{
		Page:     1,
		PageSize: 50,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}

	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 {
		filter.PageSize = size
	}

	filter.Vendors = parseStringList(c.Query("vendors"))
	filter.Locations = parseStringList(c.Query("locations"))

	if codes := strings.TrimSpace(c.Query("flow_codes")); codes != "" {
		for _, part := range strings.Split(codes, ",") {
			if code, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				filter.FlowCodes = append(filter.FlowCodes, code)
			}
		}
	}

	return filter
}

func parseStringList(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func (h *FlowHandler) respondErr(c *gin.Context, err error, message string) {
	if errors.Is(err, service.ErrNoRun) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no flow run available yet"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
}

func (h *FlowHandler) GetLatestRun(c *gin.Context) {
	run, err := h.service.LatestRun(c.Request.Context())
	if err != nil {
		h.respondErr(c, err, "failed to fetch latest run")
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *FlowHandler) GetItems(c *gin.Context) {
	filter := h.parseFilter(c)
	items, total, err := h.service.GetItems(c.Request.Context(), filter)
	if err != nil {
		h.respondErr(c, err, "failed to fetch items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     items,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

func (h *FlowHandler) GetWarehouseMatrix(c *gin.Context) {
	rows, err := h.service.GetMonthlyFlows(c.Request.Context(), domain.ScopeWarehouse)
	if err != nil {
		h.respondErr(c, err, "failed to fetch warehouse matrix")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (h *FlowHandler) GetSiteMatrix(c *gin.Context) {
	rows, err := h.service.GetMonthlyFlows(c.Request.Context(), domain.ScopeSite)
	if err != nil {
		h.respondErr(c, err, "failed to fetch site matrix")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (h *FlowHandler) GetBilling(c *gin.Context) {
	rows, err := h.service.GetBilling(c.Request.Context())
	if err != nil {
		h.respondErr(c, err, "failed to fetch billing")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (h *FlowHandler) GetKPI(c *gin.Context) {
	checks, err := h.service.GetKPI(c.Request.Context())
	if err != nil {
		h.respondErr(c, err, "failed to fetch kpi report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"checks": checks})
}

func (h *FlowHandler) GetQuality(c *gin.Context) {
	report, err := h.service.GetQuality(c.Request.Context())
	if err != nil {
		h.respondErr(c, err, "failed to fetch quality report")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *FlowHandler) GetTransfers(c *gin.Context) {
	transfers, err := h.service.GetTransfers(c.Request.Context())
	if err != nil {
		h.respondErr(c, err, "failed to fetch transfers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}

func (h *FlowHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.service.GetDashboard(c.Request.Context())
	if err != nil {
		h.respondErr(c, err, "failed to fetch dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
