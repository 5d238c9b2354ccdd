package workflow

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reporterSession(userID uint) *Session {
	return &Session{UserID: userID, Username: "reporter", Role: RoleReporter}
}

func maintainerSession(userID uint) *Session {
	return &Session{UserID: userID, Username: "maintainer", Role: RoleMaintainer}
}

func adminSession(userID uint) *Session {
	return &Session{UserID: userID, Username: "admin", Role: RoleAdmin}
}

// TestStatusLabels 测试状态中文标签
func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "待处理", StatusPending.Label())
	assert.Equal(t, "处理中", StatusInProgress.Label())
	assert.Equal(t, "已解决", StatusResolved.Label())
	assert.Equal(t, "无法解决", StatusCannotResolve.Label())
}

// TestRoleAndUrgencyLabels 测试角色和紧急程度中文标签
func TestRoleAndUrgencyLabels(t *testing.T) {
	assert.Equal(t, "收费站工作人员", RoleReporter.Label())
	assert.Equal(t, "运维人员", RoleMaintainer.Label())
	assert.Equal(t, "系统管理员", RoleAdmin.Label())

	assert.Equal(t, "一般", UrgencyGeneral.Label())
	assert.Equal(t, "紧急", UrgencyUrgent.Label())
	assert.Equal(t, "非常紧急", UrgencyVeryUrgent.Label())
}

// TestAuthorizeCancel 撤销只允许上报人本人,且仅限待处理
func TestAuthorizeCancel(t *testing.T) {
	fault := FaultState{ReporterID: 1, Status: StatusPending}

	assert.NoError(t, Authorize(reporterSession(1), fault, ActionCancel))

	// 他人不可撤销
	err := Authorize(reporterSession(2), fault, ActionCancel)
	assert.Error(t, err)
	guardErr, ok := err.(*GuardError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, guardErr.Status)

	// 已受理后上报人也不可撤销
	accepted := FaultState{ReporterID: 1, Status: StatusInProgress}
	err = Authorize(reporterSession(1), accepted, ActionCancel)
	assert.Error(t, err)
	guardErr, ok = err.(*GuardError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, guardErr.Status)
}

// TestAuthorizeAccept 接单只允许运维人员,且仅限待处理
func TestAuthorizeAccept(t *testing.T) {
	pending := FaultState{ReporterID: 1, Status: StatusPending}

	assert.NoError(t, Authorize(maintainerSession(5), pending, ActionAccept))

	err := Authorize(reporterSession(1), pending, ActionAccept)
	assert.Error(t, err)
	assert.Equal(t, http.StatusForbidden, err.(*GuardError).Status)

	inProgress := FaultState{ReporterID: 1, Status: StatusInProgress}
	err = Authorize(maintainerSession(5), inProgress, ActionAccept)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, err.(*GuardError).Status)
}

// TestAuthorizeResolve 解决/无法解决只允许运维人员,且仅限处理中
func TestAuthorizeResolve(t *testing.T) {
	inProgress := FaultState{ReporterID: 1, Status: StatusInProgress}

	assert.NoError(t, Authorize(maintainerSession(5), inProgress, ActionResolve))
	assert.NoError(t, Authorize(maintainerSession(5), inProgress, ActionCannotResolve))

	pending := FaultState{ReporterID: 1, Status: StatusPending}
	assert.Error(t, Authorize(maintainerSession(5), pending, ActionResolve))
	assert.Error(t, Authorize(maintainerSession(5), pending, ActionCannotResolve))

	assert.Error(t, Authorize(adminSession(9), inProgress, ActionResolve))
	assert.Error(t, Authorize(reporterSession(1), inProgress, ActionResolve))
}

// TestAuthorizeDelete 删除只允许管理员,任何状态均可
func TestAuthorizeDelete(t *testing.T) {
	for _, status := range AllStatuses {
		fault := FaultState{ReporterID: 1, Status: status}
		assert.NoError(t, Authorize(adminSession(9), fault, ActionDelete))
		assert.Error(t, Authorize(maintainerSession(5), fault, ActionDelete))
		assert.Error(t, Authorize(reporterSession(1), fault, ActionDelete))
	}
}

// TestAuthorizeUnauthenticated 未登录一律拒绝
func TestAuthorizeUnauthenticated(t *testing.T) {
	fault := FaultState{ReporterID: 1, Status: StatusPending}
	for _, action := range []Action{ActionReport, ActionCancel, ActionAccept, ActionResolve, ActionDelete, ActionExport} {
		err := Authorize(nil, fault, action)
		assert.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, err.(*GuardError).Status)
	}
}

// TestAllowedActions 列表/详情按钮集合与守卫判定一致
func TestAllowedActions(t *testing.T) {
	pending := FaultState{ReporterID: 1, Status: StatusPending}

	// 上报人自己:可撤销和导出
	actions := AllowedActions(reporterSession(1), pending)
	assert.ElementsMatch(t, []Action{ActionCancel, ActionExport}, actions)

	// 其他上报人:只剩导出
	actions = AllowedActions(reporterSession(2), pending)
	assert.ElementsMatch(t, []Action{ActionExport}, actions)

	// 运维:接单和导出
	actions = AllowedActions(maintainerSession(5), pending)
	assert.ElementsMatch(t, []Action{ActionAccept, ActionExport}, actions)

	// 处理中的故障,运维可解决/无法解决
	inProgress := FaultState{ReporterID: 1, Status: StatusInProgress}
	actions = AllowedActions(maintainerSession(5), inProgress)
	assert.ElementsMatch(t, []Action{ActionResolve, ActionCannotResolve, ActionExport}, actions)

	// 管理员任何状态都可删除
	actions = AllowedActions(adminSession(9), inProgress)
	assert.ElementsMatch(t, []Action{ActionDelete, ActionExport}, actions)
}

// TestTransition 状态只能沿工作流图单调前进
func TestTransition(t *testing.T) {
	assert.True(t, Transition(StatusPending, StatusInProgress))
	assert.True(t, Transition(StatusInProgress, StatusResolved))
	assert.True(t, Transition(StatusInProgress, StatusCannotResolve))

	// 不可回退或跳步
	assert.False(t, Transition(StatusPending, StatusResolved))
	assert.False(t, Transition(StatusInProgress, StatusPending))
	assert.False(t, Transition(StatusResolved, StatusInProgress))
	assert.False(t, Transition(StatusResolved, StatusPending))
	assert.False(t, Transition(StatusCannotResolve, StatusInProgress))
}

// TestStatusTerminal 终态判定
func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusResolved.Terminal())
	assert.True(t, StatusCannotResolve.Terminal())
}
