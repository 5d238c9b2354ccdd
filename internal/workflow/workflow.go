package workflow

import "net/http"

// Status 故障状态
type Status string

const (
	StatusPending       Status = "pending"        // 待处理
	StatusInProgress    Status = "in_progress"    // 处理中
	StatusResolved      Status = "resolved"       // 已解决
	StatusCannotResolve Status = "cannot_resolve" // 无法解决
)

// AllStatuses 所有合法的故障状态
var AllStatuses = []Status{StatusPending, StatusInProgress, StatusResolved, StatusCannotResolve}

// Valid 判断状态是否合法
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusCannotResolve:
		return true
	}
	return false
}

// Terminal 判断是否为终态(已解决/无法解决后故障不再流转)
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusCannotResolve
}

// Label 返回状态的中文标签
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "待处理"
	case StatusInProgress:
		return "处理中"
	case StatusResolved:
		return "已解决"
	case StatusCannotResolve:
		return "无法解决"
	}
	return string(s)
}

// Urgency 紧急程度,仅用于展示,不影响流转规则
type Urgency string

const (
	UrgencyGeneral    Urgency = "general"     // 一般
	UrgencyUrgent     Urgency = "urgent"      // 紧急
	UrgencyVeryUrgent Urgency = "very_urgent" // 非常紧急
)

// Valid 判断紧急程度是否合法
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyGeneral, UrgencyUrgent, UrgencyVeryUrgent:
		return true
	}
	return false
}

// Label 返回紧急程度的中文标签
func (u Urgency) Label() string {
	switch u {
	case UrgencyGeneral:
		return "一般"
	case UrgencyUrgent:
		return "紧急"
	case UrgencyVeryUrgent:
		return "非常紧急"
	}
	return string(u)
}

// Role 用户角色
type Role string

const (
	RoleReporter   Role = "reporter"   // 收费站工作人员
	RoleMaintainer Role = "maintainer" // 运维人员
	RoleAdmin      Role = "admin"      // 系统管理员
)

// Valid 判断角色是否合法
func (r Role) Valid() bool {
	switch r {
	case RoleReporter, RoleMaintainer, RoleAdmin:
		return true
	}
	return false
}

// Label 返回角色的中文标签
func (r Role) Label() string {
	switch r {
	case RoleReporter:
		return "收费站工作人员"
	case RoleMaintainer:
		return "运维人员"
	case RoleAdmin:
		return "系统管理员"
	}
	return string(r)
}

// Action 故障工作流动作
type Action string

const (
	ActionReport        Action = "report"         // 上报故障
	ActionCancel        Action = "cancel"         // 上报人撤销(删除待处理故障)
	ActionAccept        Action = "accept"         // 运维人员接单
	ActionResolve       Action = "resolve"        // 完成维修,标记已解决
	ActionCannotResolve Action = "cannot_resolve" // 标记无法解决
	ActionDelete        Action = "delete"         // 管理员删除
	ActionExport        Action = "export"         // 导出设备维修原始记录表
)

// Session 当前请求的认证身份,由会话中间件填充
type Session struct {
	UserID     uint
	Username   string
	Role       Role
	Department string
}

// FaultState 守卫判定所需的故障属性切片
type FaultState struct {
	ReporterID uint
	Status     Status
}

// GuardError 守卫失败,携带应返回的 HTTP 状态码和面向用户的解释
type GuardError struct {
	Status  int    // HTTP 状态码: 403 权限不足, 400 状态不允许
	Code    string // 机器可读错误码
	Message string // 面向用户的中文解释
}

func (e *GuardError) Error() string {
	return e.Message
}

var (
	errNotAuthenticated = &GuardError{Status: http.StatusUnauthorized, Code: "NOT_AUTHENTICATED", Message: "未登录或会话已过期"}
	errCancelDenied     = &GuardError{Status: http.StatusForbidden, Code: "CANCEL_DENIED", Message: "您没有权限删除此故障，或故障状态不允许删除"}
	errCancelWrongState = &GuardError{Status: http.StatusBadRequest, Code: "CANCEL_WRONG_STATE", Message: "故障已被受理，无法撤销上报"}
	errAcceptDenied     = &GuardError{Status: http.StatusForbidden, Code: "ACCEPT_DENIED", Message: "只有运维人员可以接受故障"}
	errAcceptWrongState = &GuardError{Status: http.StatusBadRequest, Code: "ACCEPT_WRONG_STATE", Message: "故障状态不正确，无法接受"}
	errResolveDenied    = &GuardError{Status: http.StatusForbidden, Code: "RESOLVE_DENIED", Message: "只有运维人员可以处理故障"}
	errResolveWrong     = &GuardError{Status: http.StatusBadRequest, Code: "RESOLVE_WRONG_STATE", Message: "故障状态不正确，无法标记为已解决"}
	errCannotWrong      = &GuardError{Status: http.StatusBadRequest, Code: "CANNOT_RESOLVE_WRONG_STATE", Message: "故障状态不正确，无法标记为无法解决"}
	errDeleteDenied     = &GuardError{Status: http.StatusForbidden, Code: "DELETE_DENIED", Message: "只有管理员可以删除故障记录"}
	errUnknownAction    = &GuardError{Status: http.StatusBadRequest, Code: "UNKNOWN_ACTION", Message: "不支持的操作"}
)

// Authorize 判定 (会话, 故障, 动作) 三元组是否允许。
// 判定完全基于属性: 角色 + 归属 + 当前状态。返回 nil 表示允许,
// 否则返回携带解释的 GuardError。服务端以此为准,客户端的按钮
// 显隐只是同一判定的前置副本。
func Authorize(s *Session, f FaultState, a Action) error {
	if s == nil {
		return errNotAuthenticated
	}

	switch a {
	case ActionReport:
		// 任何已认证用户都可以上报,上报人即为调用者
		return nil

	case ActionCancel:
		if s.UserID != f.ReporterID {
			return errCancelDenied
		}
		if f.Status != StatusPending {
			return errCancelWrongState
		}
		return nil

	case ActionAccept:
		if s.Role != RoleMaintainer {
			return errAcceptDenied
		}
		if f.Status != StatusPending {
			return errAcceptWrongState
		}
		return nil

	case ActionResolve:
		if s.Role != RoleMaintainer {
			return errResolveDenied
		}
		if f.Status != StatusInProgress {
			return errResolveWrong
		}
		return nil

	case ActionCannotResolve:
		if s.Role != RoleMaintainer {
			return errResolveDenied
		}
		if f.Status != StatusInProgress {
			return errCannotWrong
		}
		return nil

	case ActionDelete:
		if s.Role != RoleAdmin {
			return errDeleteDenied
		}
		return nil

	case ActionExport:
		// 能看到故障详情的用户都可以导出原始记录表
		return nil
	}

	return errUnknownAction
}

// AllowedActions 计算当前 (会话, 故障) 组合下允许的全部动作。
// 所有列表/详情视图统一消费这一个函数,避免各处内联条件漂移。
func AllowedActions(s *Session, f FaultState) []Action {
	candidates := []Action{
		ActionCancel,
		ActionAccept,
		ActionResolve,
		ActionCannotResolve,
		ActionDelete,
		ActionExport,
	}

	var allowed []Action
	for _, a := range candidates {
		if Authorize(s, f, a) == nil {
			allowed = append(allowed, a)
		}
	}
	return allowed
}

// Transition 校验一次状态迁移是否沿工作流图单调前进。
// 仅 pending→in_progress、in_progress→resolved、in_progress→cannot_resolve
// 是合法的存储状态迁移;撤销是删除而非状态。
func Transition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusInProgress
	case StatusInProgress:
		return to == StatusResolved || to == StatusCannotResolve
	}
	return false
}
