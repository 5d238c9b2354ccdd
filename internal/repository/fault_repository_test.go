package repository

import (
	"path/filepath"
	"testing"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/database"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedFault(t *testing.T, db *gorm.DB, reporterID uint, name string, status workflow.Status) *model.Fault {
	t.Helper()
	fault := &model.Fault{
		ReporterID:       &reporterID,
		EquipmentName:    name,
		SpecificLocation: "一号收费站",
		Description:      "设备故障",
		Status:           status,
		Urgency:          workflow.UrgencyGeneral,
	}
	require.NoError(t, db.Create(fault).Error)
	return fault
}

// TestCompareAndSetStatus 条件更新只有状态匹配时才写成功
func TestCompareAndSetStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewFaultRepository(db)
	fault := seedFault(t, db, 1, "车道摄像机", workflow.StatusPending)

	won, err := repo.CompareAndSetStatus(fault.ID, workflow.StatusPending, workflow.StatusInProgress)
	require.NoError(t, err)
	assert.True(t, won)

	// 第二次从 pending 出发的迁移落空
	won, err = repo.CompareAndSetStatus(fault.ID, workflow.StatusPending, workflow.StatusInProgress)
	require.NoError(t, err)
	assert.False(t, won)

	loaded, err := repo.FindByID(fault.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusInProgress, loaded.Status)
}

// TestFindByFilterReporterScope 按上报人和状态过滤
func TestFindByFilterReporterScope(t *testing.T) {
	db := newTestDB(t)
	repo := NewFaultRepository(db)

	seedFault(t, db, 1, "设备甲", workflow.StatusPending)
	seedFault(t, db, 1, "设备乙", workflow.StatusResolved)
	seedFault(t, db, 2, "设备丙", workflow.StatusPending)

	reporterID := uint(1)
	faults, total, err := repo.FindByFilter(&FaultFilter{
		ReporterID:      &reporterID,
		ExcludeStatuses: []workflow.Status{workflow.StatusResolved, workflow.StatusCannotResolve},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, faults, 1)
	assert.Equal(t, "设备甲", faults[0].EquipmentName)
}

// TestFindByFilterMaintainerUnion 运维视角:待处理/处理中并上自己经手过的
func TestFindByFilterMaintainerUnion(t *testing.T) {
	db := newTestDB(t)
	repo := NewFaultRepository(db)

	pending := seedFault(t, db, 1, "设备甲", workflow.StatusPending)
	handled := seedFault(t, db, 1, "设备乙", workflow.StatusResolved)
	other := seedFault(t, db, 1, "设备丙", workflow.StatusCannotResolve)

	maintainerID := uint(5)
	otherID := uint(6)
	require.NoError(t, db.Create(&model.MaintenanceRecord{FaultID: handled.ID, MaintainerID: &maintainerID}).Error)
	require.NoError(t, db.Create(&model.MaintenanceRecord{FaultID: other.ID, MaintainerID: &otherID}).Error)

	faults, total, err := repo.FindByFilter(&FaultFilter{
		Statuses:     []workflow.Status{workflow.StatusPending, workflow.StatusInProgress},
		MaintainerID: &maintainerID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	ids := []uint{faults[0].ID, faults[1].ID}
	assert.Contains(t, ids, pending.ID)
	assert.Contains(t, ids, handled.ID)
}

// TestFindByFilterLikeEscaping 子串查询转义 LIKE 元字符
func TestFindByFilterLikeEscaping(t *testing.T) {
	db := newTestDB(t)
	repo := NewFaultRepository(db)

	seedFault(t, db, 1, "负载100%测试仪", workflow.StatusPending)
	seedFault(t, db, 1, "普通摄像机", workflow.StatusPending)

	_, total, err := repo.FindByFilter(&FaultFilter{EquipmentName: "100%"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	// % 不再是通配符
	_, total, err = repo.FindByFilter(&FaultFilter{EquipmentName: "%"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

// TestDeleteCascadesRecord 删除故障时维修记录一并删除
func TestDeleteCascadesRecord(t *testing.T) {
	db := newTestDB(t)
	repo := NewFaultRepository(db)

	fault := seedFault(t, db, 1, "车道摄像机", workflow.StatusInProgress)
	maintainerID := uint(5)
	require.NoError(t, db.Create(&model.MaintenanceRecord{FaultID: fault.ID, MaintainerID: &maintainerID}).Error)

	require.NoError(t, repo.Delete(fault.ID))

	_, err := repo.FindByID(fault.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Model(&model.MaintenanceRecord{}).Where("fault_id = ?", fault.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

// TestPagination 分页返回当前页和全量总数
func TestPagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewFaultRepository(db)

	for i := 0; i < 5; i++ {
		seedFault(t, db, 1, "设备", workflow.StatusPending)
	}

	faults, total, err := repo.FindByFilter(&FaultFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, faults, 2)
}
