package api

import (
	"github.com/gin-gonic/gin"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/service"
)

// StatsController 统计控制器
type StatsController struct {
	statsSvc service.StatisticsService
}

// NewStatsController 创建统计控制器
func NewStatsController(statsSvc service.StatisticsService) *StatsController {
	return &StatsController{statsSvc: statsSvc}
}

// Overview 故障统计概览
func (ctrl *StatsController) Overview(c *gin.Context) {
	query := &service.StatsQuery{
		StartDate:     c.Query("start_date"),
		EndDate:       c.Query("end_date"),
		Interval:      c.DefaultQuery("interval", "day"),
		EquipmentName: c.Query("equipment_name"),
	}

	overview, err := ctrl.statsSvc.Overview(query)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, overview)
}
