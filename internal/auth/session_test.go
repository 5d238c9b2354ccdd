package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/database"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/model"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSessionTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedSessionUser(t *testing.T, db *gorm.DB, username string, role workflow.Role) *model.User {
	t.Helper()
	hash, err := HashPassword("pass-1234")
	require.NoError(t, err)
	user := &model.User{Username: username, PasswordHash: hash, Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

// TestIssueAndResolve 签发后可按令牌解析出身份
func TestIssueAndResolve(t *testing.T) {
	db := newSessionTestDB(t)
	manager := NewSessionManager(db, "sessionid", time.Hour)
	user := seedSessionUser(t, db, "zhangsan", workflow.RoleMaintainer)

	token, err := manager.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := manager.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "zhangsan", session.Username)
	assert.Equal(t, workflow.RoleMaintainer, session.Role)

	// 空令牌和未知令牌都拒绝
	_, err = manager.Resolve("")
	assert.ErrorIs(t, err, ErrSessionInvalid)
	_, err = manager.Resolve("no-such-token")
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

// TestResolveExpired 过期会话解析失败并被顺手删除
func TestResolveExpired(t *testing.T) {
	db := newSessionTestDB(t)
	manager := NewSessionManager(db, "sessionid", time.Hour)
	user := seedSessionUser(t, db, "zhangsan", workflow.RoleReporter)

	token, err := manager.Issue(user)
	require.NoError(t, err)

	// 手动把会话改成已过期
	require.NoError(t, db.Model(&model.SessionModel{}).
		Where("token = ?", token).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, err = manager.Resolve(token)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	var count int64
	require.NoError(t, db.Model(&model.SessionModel{}).Where("token = ?", token).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

// TestInvalidate 登出删除会话行
func TestInvalidate(t *testing.T) {
	db := newSessionTestDB(t)
	manager := NewSessionManager(db, "sessionid", time.Hour)
	user := seedSessionUser(t, db, "zhangsan", workflow.RoleReporter)

	token, err := manager.Issue(user)
	require.NoError(t, err)

	require.NoError(t, manager.Invalidate(token))
	_, err = manager.Resolve(token)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	// 再次失效是幂等的
	assert.NoError(t, manager.Invalidate(token))
}

// TestInvalidateUser 角色变更时踢掉该用户的全部会话
func TestInvalidateUser(t *testing.T) {
	db := newSessionTestDB(t)
	manager := NewSessionManager(db, "sessionid", time.Hour)
	user := seedSessionUser(t, db, "zhangsan", workflow.RoleReporter)
	other := seedSessionUser(t, db, "lisi", workflow.RoleReporter)

	token1, err := manager.Issue(user)
	require.NoError(t, err)
	token2, err := manager.Issue(user)
	require.NoError(t, err)
	otherToken, err := manager.Issue(other)
	require.NoError(t, err)

	require.NoError(t, manager.InvalidateUser(user.ID))

	_, err = manager.Resolve(token1)
	assert.ErrorIs(t, err, ErrSessionInvalid)
	_, err = manager.Resolve(token2)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	// 别人的会话不受影响
	_, err = manager.Resolve(otherToken)
	assert.NoError(t, err)
}

// TestCleanup 只清理已过期的会话
func TestCleanup(t *testing.T) {
	db := newSessionTestDB(t)
	manager := NewSessionManager(db, "sessionid", time.Hour)
	user := seedSessionUser(t, db, "zhangsan", workflow.RoleReporter)

	fresh, err := manager.Issue(user)
	require.NoError(t, err)
	stale, err := manager.Issue(user)
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.SessionModel{}).
		Where("token = ?", stale).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	removed, err := manager.Cleanup()
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	_, err = manager.Resolve(fresh)
	assert.NoError(t, err)
}

// TestManagerDefaults 空配置回落到默认 Cookie 名和有效期
func TestManagerDefaults(t *testing.T) {
	db := newSessionTestDB(t)
	manager := NewSessionManager(db, "", 0)
	assert.Equal(t, "sessionid", manager.CookieName())
	assert.Equal(t, 24*time.Hour, manager.TTL())
}
