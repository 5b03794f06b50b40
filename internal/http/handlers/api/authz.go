package api

import (
	"strings"

	"github.com/prato-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// RolePolicyRequest 角色策略授予/撤销请求
type RolePolicyRequest struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// SetStaffRolesRequest 覆盖员工角色请求
type SetStaffRolesRequest struct {
	Roles []string `json:"roles"`
}

// ListRoles 列出全部角色
func (h *Handler) ListRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.authz_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"roles": roles})
}

// GetRolePolicies 查询角色策略
func (h *Handler) GetRolePolicies(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.authz_role_invalid", err)
		return
	}
	response.Success(c, gin.H{"role": role, "policies": policies})
}

// GrantRolePolicy 为角色授予策略
func (h *Handler) GrantRolePolicy(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeInternal, "error.authz_update_failed", err)
		return
	}
	response.Success(c, nil)
}

// RevokeRolePolicy 撤销角色策略
func (h *Handler) RevokeRolePolicy(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeInternal, "error.authz_update_failed", err)
		return
	}
	response.Success(c, nil)
}

// DeleteRole 删除角色及其策略
func (h *Handler) DeleteRole(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondError(c, response.CodeInternal, "error.authz_update_failed", err)
		return
	}
	response.Success(c, nil)
}

// SetStaffRoles 覆盖设置员工角色
func (h *Handler) SetStaffRoles(c *gin.Context) {
	staffID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SetStaffRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthzService.SetStaffRoles(staffID, req.Roles); err != nil {
		respondError(c, response.CodeInternal, "error.authz_update_failed", err)
		return
	}
	response.Success(c, nil)
}

// GetStaffRoles 查询员工角色与生效策略
func (h *Handler) GetStaffRoles(c *gin.Context) {
	staffID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetStaffRoles(staffID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.authz_fetch_failed", err)
		return
	}
	policies, err := h.AuthzService.GetStaffPolicies(staffID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.authz_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"staffId":  staffID,
		"roles":    roles,
		"policies": policies,
	})
}
