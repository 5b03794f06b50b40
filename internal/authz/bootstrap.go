package authz

import (
	"fmt"

	"github.com/prato-next/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds 系统预置角色矩阵
// 状态迁移权限挂在虚拟资源 /transitions/<目标状态> 上，
// API 路由权限按真实路径授权。
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleCustomer,
			Policies: []Policy{
				{Object: "/orders", Action: "POST"},
				{Object: "/orders", Action: "GET"},
				{Object: "/orders/:id", Action: "GET"},
				{Object: "/orders/:id/cancel", Action: "POST"},
				{Object: "/orders/preview-discount", Action: "POST"},
				{Object: "/referral/validate", Action: "POST"},
				{Object: "/referral/code", Action: "POST"},
				{Object: "/wallet/:customer_id", Action: "GET"},
				{Object: "/wallet/:customer_id/entries", Action: "GET"},
				{Object: TransitionObject(constants.OrderStatusCancelled), Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role: constants.RoleKitchen,
			Policies: []Policy{
				{Object: "/orders", Action: "GET"},
				{Object: "/orders/:id", Action: "GET"},
				{Object: "/orders/:id/transition", Action: "POST"},
				{Object: "/ingredients", Action: "GET"},
				{Object: "/ingredients/:id/adjust", Action: "POST"},
				{Object: TransitionObject(constants.OrderStatusPreparing), Action: "POST"},
				{Object: TransitionObject(constants.OrderStatusReady), Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role: constants.RoleDispatcher,
			Policies: []Policy{
				{Object: "/orders", Action: "GET"},
				{Object: "/orders/:id", Action: "GET"},
				{Object: "/orders/:id/transition", Action: "POST"},
				{Object: TransitionObject(constants.OrderStatusDispatched), Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role: constants.RoleDriver,
			Policies: []Policy{
				{Object: "/orders/:id", Action: "GET"},
				{Object: "/orders/:id/transition", Action: "POST"},
				{Object: "/orders/:id/confirm-delivery", Action: "POST"},
				{Object: TransitionObject(constants.OrderStatusDelivered), Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     constants.RoleWaiter,
			Inherits: []string{constants.RoleKitchen},
			Policies: []Policy{
				{Object: "/orders", Action: "POST"},
				{Object: "/orders/:id/cancel", Action: "POST"},
				{Object: TransitionObject(constants.OrderStatusCancelled), Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role: constants.RoleManager,
			Policies: []Policy{
				{Object: "/*", Action: "*"},
				{Object: "/transitions/*", Action: "*"},
			},
			Immutable: true,
		},
	}
}

// TransitionObject 目标状态对应的虚拟授权资源
func TransitionObject(status string) string {
	return "/transitions/" + status
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	changed := false
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		exists, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
		if err != nil {
			return fmt.Errorf("check builtin role failed: %w", err)
		}
		if !exists {
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor)
			if err != nil {
				return fmt.Errorf("create builtin role failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole)
			if err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			added, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action)
			if err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
			if added {
				changed = true
			}
		}
	}

	if changed {
		return s.saveAndReload()
	}
	return nil
}
