package service

import (
	"fmt"
	"time"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/metrics"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/utils"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var errInvalidInterval = &utils.ValidationError{Code: "INVALID_INTERVAL", Message: "统计粒度不合法，应为 day、week 或 month"}

// StatisticsService 统计服务接口
type StatisticsService interface {
	Overview(query *StatsQuery) (*StatsOverview, error)
	// RefreshStatusMetrics 把各状态故障数刷进指标
	RefreshStatusMetrics() error
}

// StatsQuery 统计查询参数
type StatsQuery struct {
	StartDate     string // YYYY-MM-DD,含;缺省为 30 天前
	EndDate       string // YYYY-MM-DD,含;缺省为今天
	Interval      string // day / week / month,缺省 day
	EquipmentName string // 设备名称子串,可选
}

// StatsOverview 统计概览
type StatsOverview struct {
	StartDate          string            `json:"start_date"`
	EndDate            string            `json:"end_date"`
	Interval           string            `json:"interval"`
	Total              int64             `json:"total"`
	ByStatus           []StatusCount     `json:"by_status"`
	ByUrgency          []UrgencyCount    `json:"by_urgency"`
	ByEquipment        []EquipmentCount  `json:"by_equipment"`
	Timeline           []TimeBucket      `json:"timeline"`
	AvgProcessingHours *float64          `json:"avg_processing_hours"` // 到场到完成的平均小时数,无样本时为 null
	ProcessedCount     int64             `json:"processed_count"`      // 已了结(已解决+无法解决)
}

// StatusCount 按状态计数
type StatusCount struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int64  `json:"count"`
}

// UrgencyCount 按紧急程度计数
type UrgencyCount struct {
	Urgency string `json:"urgency"`
	Label   string `json:"label"`
	Count   int64  `json:"count"`
}

// EquipmentCount 按设备名称计数
type EquipmentCount struct {
	EquipmentName string `json:"equipment_name"`
	Count         int64  `json:"count"`
}

// TimeBucket 时间桶计数
type TimeBucket struct {
	Bucket string `json:"bucket"` // 桶起始日 YYYY-MM-DD
	Count  int64  `json:"count"`
}

// statisticsService 统计服务实现
type statisticsService struct {
	db     *gorm.DB
	logger *logrus.Entry
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(db *gorm.DB, logger *logrus.Entry) StatisticsService {
	return &statisticsService{db: db, logger: logger}
}

// Overview 统计给定日期范围内的故障分布。
// 时间桶在应用侧聚合,按设备分组在数据库侧完成。
func (s *statisticsService) Overview(query *StatsQuery) (*StatsOverview, error) {
	if query == nil {
		query = &StatsQuery{}
	}

	interval := query.Interval
	if interval == "" {
		interval = "day"
	}
	switch interval {
	case "day", "week", "month":
	default:
		return nil, errInvalidInterval
	}

	now := time.Now()
	start := now.AddDate(0, 0, -30)
	end := now
	if query.StartDate != "" {
		parsed, err := parseDate(query.StartDate)
		if err != nil {
			return nil, errInvalidDate
		}
		start = parsed
	}
	if query.EndDate != "" {
		parsed, err := parseDate(query.EndDate)
		if err != nil {
			return nil, errInvalidDate
		}
		end = parsed
	}
	start = truncateToDay(start)
	// 含结束日整天
	endExclusive := truncateToDay(end).AddDate(0, 0, 1)

	overview := &StatsOverview{
		StartDate: start.Format("2006-01-02"),
		EndDate:   truncateToDay(end).Format("2006-01-02"),
		Interval:  interval,
	}

	inRange := func(db *gorm.DB) *gorm.DB {
		db = db.Where("reported_at >= ? AND reported_at < ?", start, endExclusive)
		if query.EquipmentName != "" {
			db = db.Where(`equipment_name LIKE ? ESCAPE '\'`, utils.ContainsPattern(query.EquipmentName))
		}
		return db
	}

	// 状态分布
	for _, status := range workflow.AllStatuses {
		var count int64
		err := inRange(s.db.Model(&model.Fault{})).
			Where("status = ?", status).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count faults by status: %w", err)
		}
		overview.ByStatus = append(overview.ByStatus, StatusCount{
			Status: string(status),
			Label:  status.Label(),
			Count:  count,
		})
		overview.Total += count
		if status.Terminal() {
			overview.ProcessedCount += count
		}
	}

	// 紧急程度分布
	for _, urgency := range []workflow.Urgency{workflow.UrgencyGeneral, workflow.UrgencyUrgent, workflow.UrgencyVeryUrgent} {
		var count int64
		err := inRange(s.db.Model(&model.Fault{})).
			Where("urgency = ?", urgency).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count faults by urgency: %w", err)
		}
		overview.ByUrgency = append(overview.ByUrgency, UrgencyCount{
			Urgency: string(urgency),
			Label:   urgency.Label(),
			Count:   count,
		})
	}

	// 设备分布,取最高的前 10 项
	err := inRange(s.db.Model(&model.Fault{})).
		Select("equipment_name, COUNT(*) AS count").
		Group("equipment_name").
		Order("count DESC").
		Limit(10).
		Scan(&overview.ByEquipment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count faults by equipment: %w", err)
	}

	// 时间桶:取上报时间后在应用侧聚合,不依赖方言的日期函数
	var reportedAts []time.Time
	err = inRange(s.db.Model(&model.Fault{})).
		Order("reported_at ASC").
		Pluck("reported_at", &reportedAts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load fault timestamps: %w", err)
	}
	overview.Timeline = bucketize(reportedAts, start, endExclusive, interval)

	// 平均处理时长:到场到完成,按小时
	var records []*model.MaintenanceRecord
	recordsQuery := s.db.Model(&model.MaintenanceRecord{}).
		Joins("JOIN faults ON faults.id = maintenance_records.fault_id").
		Where("faults.reported_at >= ? AND faults.reported_at < ?", start, endExclusive).
		Where("maintenance_records.arrived_at IS NOT NULL AND maintenance_records.completed_at IS NOT NULL")
	if query.EquipmentName != "" {
		recordsQuery = recordsQuery.Where(`faults.equipment_name LIKE ? ESCAPE '\'`, utils.ContainsPattern(query.EquipmentName))
	}
	err = recordsQuery.Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load maintenance records: %w", err)
	}
	if len(records) > 0 {
		var totalHours float64
		for _, record := range records {
			totalHours += record.CompletedAt.Sub(*record.ArrivedAt).Hours()
		}
		avg := totalHours / float64(len(records))
		overview.AvgProcessingHours = &avg
	}

	return overview, nil
}

// RefreshStatusMetrics 刷新故障状态分布指标
func (s *statisticsService) RefreshStatusMetrics() error {
	for _, status := range workflow.AllStatuses {
		var count int64
		err := s.db.Model(&model.Fault{}).
			Where("status = ?", status).
			Count(&count).Error
		if err != nil {
			return err
		}
		metrics.UpdateFaultsByStatus(string(status), float64(count))
	}
	return nil
}

// bucketize 把时间点落进 day/week/month 粒度的桶,空桶也输出
func bucketize(points []time.Time, start, endExclusive time.Time, interval string) []TimeBucket {
	counts := make(map[string]int64)
	for _, p := range points {
		counts[bucketKey(p, interval)]++
	}

	var buckets []TimeBucket
	for cursor := bucketStart(start, interval); cursor.Before(endExclusive); cursor = nextBucket(cursor, interval) {
		key := cursor.Format("2006-01-02")
		buckets = append(buckets, TimeBucket{Bucket: key, Count: counts[key]})
	}
	return buckets
}

// bucketKey 时间点所属桶的起始日
func bucketKey(t time.Time, interval string) string {
	return bucketStart(t, interval).Format("2006-01-02")
}

// bucketStart 桶起始: day 当天零点, week 周一, month 月初
func bucketStart(t time.Time, interval string) time.Time {
	day := truncateToDay(t)
	switch interval {
	case "week":
		offset := (int(day.Weekday()) + 6) % 7 // 周一为一周开始
		return day.AddDate(0, 0, -offset)
	case "month":
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	}
	return day
}

// nextBucket 下一个桶的起始
func nextBucket(t time.Time, interval string) time.Time {
	switch interval {
	case "week":
		return t.AddDate(0, 0, 7)
	case "month":
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

// truncateToDay 截断到当天零点
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
