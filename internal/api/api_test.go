package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/auth"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/config"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/container"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/database"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv 端到端测试环境:SQLite 数据库 + 完整路由
type testEnv struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := database.ConnectSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := config.Default()
	cfg.Storage.MediaDir = filepath.Join(dir, "media")

	ctr := container.NewContainerWithDB(cfg, db, nil)
	t.Cleanup(func() { _ = ctr.Close() })

	return &testEnv{t: t, router: ctr.Router(), db: db}
}

// seedUser 直接写库创建测试用户
func (e *testEnv) seedUser(username, password string, role workflow.Role) *model.User {
	e.t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(e.t, err)

	user := &model.User{Username: username, PasswordHash: hash, Role: role}
	require.NoError(e.t, e.db.Create(user).Error)
	return user
}

// client 模拟一个浏览器:保持会话 Cookie 和 CSRF Token
type client struct {
	env     *testEnv
	cookies map[string]string
	csrf    string
}

func (e *testEnv) newClient() *client {
	return &client{env: e, cookies: make(map[string]string)}
}

// do 发起请求,自动带上 Cookie 和 CSRF 请求头
func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.env.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.env.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.csrf != "" {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	rec := httptest.NewRecorder()
	c.env.router.ServeHTTP(rec, req)

	// 记住服务端新下发的 Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie.Value
	}
	return rec
}

// fetchCSRF 获取 CSRF Token,写操作前必须先调用
func (c *client) fetchCSRF() {
	c.env.t.Helper()
	rec := c.do(http.MethodGet, "/api/v1/auth/csrf", nil)
	require.Equal(c.env.t, http.StatusOK, rec.Code)
	c.csrf = decodeData(c.env.t, rec)["csrf_token"].(string)
}

// login 登录并保持会话
func (c *client) login(username, password string) *httptest.ResponseRecorder {
	c.env.t.Helper()
	c.fetchCSRF()
	return c.do(http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": username,
		"password": password,
	})
}

// decodeData 解出统一响应里的 data 对象
func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Code int                    `json:"code"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

// decodeList 解出分页响应里的 data 数组
func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func reportBody(name string) gin.H {
	return gin.H{
		"equipment_name":    name,
		"specific_location": "一号收费站入口",
		"description":       "设备无法正常工作",
	}
}

// TestLoginFlow 登录、取当前用户、错误口令
func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("admin", "admin-pass", workflow.RoleAdmin)

	c := env.newClient()
	rec := c.login("admin", "admin-pass")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, c.cookies["sessionid"])

	rec = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "admin", data["username"])
	assert.Equal(t, "系统管理员", data["role_label"])

	// 错误口令统一返回 401,不暴露用户是否存在
	bad := env.newClient()
	rec = bad.login("admin", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = bad.login("nobody", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestUnauthenticatedRejected 未登录请求一律 401
func TestUnauthenticatedRejected(t *testing.T) {
	env := newTestEnv(t)

	c := env.newClient()
	rec := c.do(http.MethodGet, "/api/v1/faults", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestCSRFRequired 写操作缺少 CSRF Token 时被拒绝
func TestCSRFRequired(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("admin", "admin-pass", workflow.RoleAdmin)

	c := env.newClient()
	rec := c.do(http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "admin",
		"password": "admin-pass",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestFaultLifecycle 上报 → 接单 → 解决的完整链路
func TestFaultLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("reporter", "pass-1234", workflow.RoleReporter)
	env.seedUser("worker", "pass-1234", workflow.RoleMaintainer)

	reporter := env.newClient()
	require.Equal(t, http.StatusOK, reporter.login("reporter", "pass-1234").Code)

	// 上报
	rec := reporter.do(http.MethodPost, "/api/v1/faults", reportBody("车道摄像机"))
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeData(t, rec)
	faultID := int(data["id"].(float64))
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "待处理", data["status_label"])
	assert.Equal(t, "一般", data["urgency_label"])
	assert.Contains(t, data["allowed_actions"], "cancel")

	// 运维接单
	worker := env.newClient()
	require.Equal(t, http.StatusOK, worker.login("worker", "pass-1234").Code)
	rec = worker.do(http.MethodPost, faultPath(faultID, "accept"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeData(t, rec)
	assert.Equal(t, "in_progress", data["status"])
	assert.Equal(t, "处理中", data["status_label"])
	assert.Contains(t, data["allowed_actions"], "resolve")
	assert.Contains(t, data["allowed_actions"], "cannot_resolve")

	// 接单后自动生成维修记录
	require.NotNil(t, data["maintenance_record_detail"])
	record := data["maintenance_record_detail"].(map[string]interface{})
	assert.Equal(t, "worker", record["maintainer_name"])

	// 解决
	rec = worker.do(http.MethodPost, faultPath(faultID, "resolve"), gin.H{
		"maintenance_process_result": "更换电源模块后恢复正常",
		"fault_reason_analysis":      "电源模块损坏",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data = decodeData(t, rec)
	assert.Equal(t, "resolved", data["status"])
	assert.Equal(t, "已解决", data["status_label"])

	// 终态不再有工作流动作,只剩导出
	assert.NotContains(t, data["allowed_actions"], "resolve")
	assert.Contains(t, data["allowed_actions"], "export")

	// 状态历史:上报、接单、解决各一条
	rec = worker.do(http.MethodGet, faultPath(faultID, "history"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	histories := decodeList(t, rec)
	require.Len(t, histories, 3)
	assert.Equal(t, "pending", histories[0]["to_status"])
	assert.Equal(t, "reporter", histories[0]["operator"])
	assert.Equal(t, "in_progress", histories[1]["to_status"])
	assert.Equal(t, "resolved", histories[2]["to_status"])
}

// TestCancelPermissions 撤销只允许上报人本人
func TestCancelPermissions(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("zhang", "pass-1234", workflow.RoleReporter)
	env.seedUser("wang", "pass-1234", workflow.RoleReporter)

	zhang := env.newClient()
	require.Equal(t, http.StatusOK, zhang.login("zhang", "pass-1234").Code)
	rec := zhang.do(http.MethodPost, "/api/v1/faults", reportBody("费额显示器"))
	require.Equal(t, http.StatusCreated, rec.Code)
	faultID := int(decodeData(t, rec)["id"].(float64))

	// 他人撤销被拒
	wang := env.newClient()
	require.Equal(t, http.StatusOK, wang.login("wang", "pass-1234").Code)
	rec = wang.do(http.MethodDelete, faultPath(faultID, ""), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// 本人撤销成功,记录随之消失
	rec = zhang.do(http.MethodDelete, faultPath(faultID, ""), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = zhang.do(http.MethodGet, faultPath(faultID, ""), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestCancelAfterAccept 已受理的故障不可撤销
func TestCancelAfterAccept(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("reporter", "pass-1234", workflow.RoleReporter)
	env.seedUser("worker", "pass-1234", workflow.RoleMaintainer)

	reporter := env.newClient()
	require.Equal(t, http.StatusOK, reporter.login("reporter", "pass-1234").Code)
	rec := reporter.do(http.MethodPost, "/api/v1/faults", reportBody("车牌识别仪"))
	faultID := int(decodeData(t, rec)["id"].(float64))

	worker := env.newClient()
	require.Equal(t, http.StatusOK, worker.login("worker", "pass-1234").Code)
	require.Equal(t, http.StatusOK, worker.do(http.MethodPost, faultPath(faultID, "accept"), nil).Code)

	rec = reporter.do(http.MethodDelete, faultPath(faultID, ""), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestDoubleAccept 两名运维抢单只有一人成功
func TestDoubleAccept(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("reporter", "pass-1234", workflow.RoleReporter)
	env.seedUser("worker1", "pass-1234", workflow.RoleMaintainer)
	env.seedUser("worker2", "pass-1234", workflow.RoleMaintainer)

	reporter := env.newClient()
	require.Equal(t, http.StatusOK, reporter.login("reporter", "pass-1234").Code)
	rec := reporter.do(http.MethodPost, "/api/v1/faults", reportBody("ETC 天线"))
	faultID := int(decodeData(t, rec)["id"].(float64))

	worker1 := env.newClient()
	require.Equal(t, http.StatusOK, worker1.login("worker1", "pass-1234").Code)
	rec = worker1.do(http.MethodPost, faultPath(faultID, "accept"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// 后到者拿到状态冲突错误
	worker2 := env.newClient()
	require.Equal(t, http.StatusOK, worker2.login("worker2", "pass-1234").Code)
	rec = worker2.do(http.MethodPost, faultPath(faultID, "accept"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 维修人仍是先到者
	rec = worker1.do(http.MethodGet, faultPath(faultID, ""), nil)
	record := decodeData(t, rec)["maintenance_record_detail"].(map[string]interface{})
	assert.Equal(t, "worker1", record["maintainer_name"])
}

// TestResolveRequiresProcessResult 维修过程及结果为必填
func TestResolveRequiresProcessResult(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("reporter", "pass-1234", workflow.RoleReporter)
	env.seedUser("worker", "pass-1234", workflow.RoleMaintainer)

	reporter := env.newClient()
	require.Equal(t, http.StatusOK, reporter.login("reporter", "pass-1234").Code)
	rec := reporter.do(http.MethodPost, "/api/v1/faults", reportBody("雨棚灯"))
	faultID := int(decodeData(t, rec)["id"].(float64))

	worker := env.newClient()
	require.Equal(t, http.StatusOK, worker.login("worker", "pass-1234").Code)
	require.Equal(t, http.StatusOK, worker.do(http.MethodPost, faultPath(faultID, "accept"), nil).Code)

	rec = worker.do(http.MethodPost, faultPath(faultID, "resolve"), gin.H{
		"maintenance_process_result": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 校验失败不改状态
	rec = worker.do(http.MethodGet, faultPath(faultID, ""), nil)
	assert.Equal(t, "in_progress", decodeData(t, rec)["status"])

	// 无法解决同理要求原因分析
	rec = worker.do(http.MethodPost, faultPath(faultID, "cannot-resolve"), gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestRoleScopedList 列表按角色取景
func TestRoleScopedList(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("zhang", "pass-1234", workflow.RoleReporter)
	env.seedUser("wang", "pass-1234", workflow.RoleReporter)
	env.seedUser("worker", "pass-1234", workflow.RoleMaintainer)

	zhang := env.newClient()
	require.Equal(t, http.StatusOK, zhang.login("zhang", "pass-1234").Code)
	require.Equal(t, http.StatusCreated, zhang.do(http.MethodPost, "/api/v1/faults", reportBody("设备甲")).Code)

	wang := env.newClient()
	require.Equal(t, http.StatusOK, wang.login("wang", "pass-1234").Code)
	require.Equal(t, http.StatusCreated, wang.do(http.MethodPost, "/api/v1/faults", reportBody("设备乙")).Code)

	// 上报人只看到自己的
	rec := zhang.do(http.MethodGet, "/api/v1/faults", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	faults := decodeList(t, rec)
	require.Len(t, faults, 1)
	assert.Equal(t, "设备甲", faults[0]["equipment_name"])

	// 运维看到全部待处理
	worker := env.newClient()
	require.Equal(t, http.StatusOK, worker.login("worker", "pass-1234").Code)
	rec = worker.do(http.MethodGet, "/api/v1/faults", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 2)
}

// TestAdminRoutesForbiddenForReporter 管理接口对非管理员 403
func TestAdminRoutesForbiddenForReporter(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("reporter", "pass-1234", workflow.RoleReporter)

	c := env.newClient()
	require.Equal(t, http.StatusOK, c.login("reporter", "pass-1234").Code)

	rec := c.do(http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = c.do(http.MethodPost, "/api/v1/departments", gin.H{"name": "机电部"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestDepartmentValidation 空白部门名被拒,不产生脏数据
func TestDepartmentValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("admin", "admin-pass", workflow.RoleAdmin)

	c := env.newClient()
	require.Equal(t, http.StatusOK, c.login("admin", "admin-pass").Code)

	rec := c.do(http.MethodPost, "/api/v1/departments", gin.H{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, env.db.Model(&model.Department{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// 正常创建,重名被拒
	rec = c.do(http.MethodPost, "/api/v1/departments", gin.H{"name": "  机电部  "})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = c.do(http.MethodPost, "/api/v1/departments", gin.H{"name": "机电部"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestUserManagement 管理员创建、修改、删除用户
func TestUserManagement(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser("admin", "admin-pass", workflow.RoleAdmin)

	c := env.newClient()
	require.Equal(t, http.StatusOK, c.login("admin", "admin-pass").Code)

	rec := c.do(http.MethodPost, "/api/v1/users", gin.H{
		"username": "newuser",
		"password": "pass-1234",
		"role":     "maintainer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeData(t, rec)
	userID := int(data["id"].(float64))
	assert.Equal(t, "运维人员", data["role_label"])

	// 重名被拒
	rec = c.do(http.MethodPost, "/api/v1/users", gin.H{
		"username": "newuser",
		"password": "pass-1234",
		"role":     "reporter",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 不能删除自己
	rec = c.do(http.MethodDelete, userPath(int(admin.ID)), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 删除他人成功
	rec = c.do(http.MethodDelete, userPath(userID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestExportDownload 导出《设备维修原始记录表》
func TestExportDownload(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("reporter", "pass-1234", workflow.RoleReporter)

	c := env.newClient()
	require.Equal(t, http.StatusOK, c.login("reporter", "pass-1234").Code)
	rec := c.do(http.MethodPost, "/api/v1/faults", reportBody("可变情报板"))
	faultID := int(decodeData(t, rec)["id"].(float64))

	rec = c.do(http.MethodGet, faultPath(faultID, "export"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename*=UTF-8''")
	assert.NotZero(t, rec.Body.Len())
}

// TestStatsOverview 统计概览
func TestStatsOverview(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("reporter", "pass-1234", workflow.RoleReporter)

	c := env.newClient()
	require.Equal(t, http.StatusOK, c.login("reporter", "pass-1234").Code)
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/v1/faults", reportBody("摄像机")).Code)
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/v1/faults", reportBody("摄像机")).Code)

	rec := c.do(http.MethodGet, "/api/v1/stats/faults", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.EqualValues(t, 2, data["total"])

	byEquipment := data["by_equipment"].([]interface{})
	require.NotEmpty(t, byEquipment)
	top := byEquipment[0].(map[string]interface{})
	assert.Equal(t, "摄像机", top["equipment_name"])
	assert.EqualValues(t, 2, top["count"])

	// 非法粒度被拒
	rec = c.do(http.MethodGet, "/api/v1/stats/faults?interval=hourly", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestLogoutInvalidatesSession 登出后会话失效
func TestLogoutInvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("admin", "admin-pass", workflow.RoleAdmin)

	c := env.newClient()
	require.Equal(t, http.StatusOK, c.login("admin", "admin-pass").Code)

	token := c.cookies["sessionid"]
	rec := c.do(http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// 旧令牌不再可用
	c.cookies["sessionid"] = token
	rec = c.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func faultPath(id int, action string) string {
	base := "/api/v1/faults/" + strconv.Itoa(id)
	if action == "" {
		return base
	}
	return base + "/" + action
}

func userPath(id int) string {
	return "/api/v1/users/" + strconv.Itoa(id)
}
