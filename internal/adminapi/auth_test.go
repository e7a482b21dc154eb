package adminapi

import (
	"net/http"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	env := setup(t)

	rec := env.doAs("", http.MethodPost, "/api/v1/admin/login", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doAs("", http.MethodPost, "/api/v1/admin/login", `{"username":"nobody","password":"marobi"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doAs("", http.MethodPost, "/api/v1/admin/login", `{"username":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/admin/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", jsoniter.Get(rec.Body.Bytes(), "data", "username").ToString())
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.doAs("", http.MethodGet, "/api/v1/admin/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginDisabledAccount(t *testing.T) {
	env := setup(t)
	hashed, err := common.HashPassword("secret1")
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&domain.Staff{Username: "ex", Password: hashed, Level: domain.StaffClerk, Status: common.DISABLED}).Error)

	rec := env.doAs("", http.MethodPost, "/api/v1/admin/login", `{"username":"ex","password":"secret1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStaffManagementIsSuperOnly(t *testing.T) {
	env := setup(t)

	rec := env.do(http.MethodPost, "/api/v1/admin/staff",
		`{"username":"clerk1","password":"secret1","realname":"Tola","level":"clerk"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	clerkID := jsoniter.Get(rec.Body.Bytes(), "data", "id").ToString()

	rec = env.do(http.MethodPost, "/api/v1/admin/staff", `{"username":"clerk1","password":"secret1","level":"clerk"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/v1/admin/staff", `{"username":"x1","password":"secret1","level":"owner"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	clerkToken := env.login(t, "clerk1", "secret1")
	rec = env.doAs(clerkToken, http.MethodGet, "/api/v1/admin/staff", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPut, "/api/v1/admin/staff/"+clerkID, `{"username":"clerk1","level":"manager"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.StaffManager, jsoniter.Get(rec.Body.Bytes(), "data", "level").ToString())

	// password unchanged when omitted
	env.login(t, "clerk1", "secret1")

	rec = env.do(http.MethodGet, "/api/v1/admin/staff", "")
	assert.Equal(t, 2, jsoniter.Get(rec.Body.Bytes(), "total").ToInt())

	rec = env.do(http.MethodDelete, "/api/v1/admin/staff/"+clerkID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, env.db.Model(&domain.AuditLog{}).Where("opt_action LIKE ?", "staff.%").Count(&count).Error)
	assert.Equal(t, int64(3), count)
}
