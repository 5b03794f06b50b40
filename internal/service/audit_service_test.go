package service

import (
	"testing"

	"github.com/prato-next/internal/constants"
	"github.com/prato-next/internal/models"
	"github.com/prato-next/internal/repository"
)

func TestSeverityFor(t *testing.T) {
	db := setupServiceTestDB(t)
	_, _, _, _, _, auditService := buildTestServices(t, db)

	tests := []struct {
		name    string
		action  string
		details models.JSON
		want    string
	}{
		{"取消订单", constants.AuditActionOrderCancelled, nil, constants.AuditSeverityDanger},
		{"发起退款", constants.AuditActionRefundIssued, nil, constants.AuditSeverityDanger},
		{"常规状态转移", constants.AuditActionStatusChanged, models.JSON{"from": "PENDING", "to": "PREPARING"}, constants.AuditSeverityInfo},
		{"跳段状态转移", constants.AuditActionStatusChanged, models.JSON{"from": "PENDING", "to": "READY", "anomalous": true}, constants.AuditSeverityWarning},
		{"转移至取消态", constants.AuditActionStatusChanged, models.JSON{"from": "PENDING", "to": "CANCELLED"}, constants.AuditSeverityDanger},
		{"折扣低于阈值", constants.AuditActionDiscountApplied, models.JSON{"discount": "5.00", "order_total": "40.00"}, constants.AuditSeverityInfo},
		{"折扣超过阈值", constants.AuditActionDiscountApplied, models.JSON{"discount": "20.00", "order_total": "40.00"}, constants.AuditSeverityWarning},
		{"正常扣减库存", constants.AuditActionStockDeducted, models.JSON{"deficit": false}, constants.AuditSeverityInfo},
		{"库存扣减不足", constants.AuditActionStockDeducted, models.JSON{"deficit": true}, constants.AuditSeverityWarning},
		{"其余动作", constants.AuditActionOrderCreated, nil, constants.AuditSeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := auditService.SeverityFor(tt.action, tt.details); got != tt.want {
				t.Fatalf("severity want %s got %s", tt.want, got)
			}
		})
	}
}

func TestAuditRecordPersists(t *testing.T) {
	db := setupServiceTestDB(t)
	_, _, _, _, _, auditService := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)

	entry := auditService.Record(AuditRecordInput{
		UserID:       "cliente-1",
		Action:       constants.AuditActionOrderCancelled,
		Details:      models.JSON{"reason": "cliente desistiu"},
		RestaurantID: restaurant.ID,
		RequestID:    "req-123",
	})
	if entry == nil || entry.ID == 0 {
		t.Fatalf("expected persisted entry, got %+v", entry)
	}
	if entry.Severity != constants.AuditSeverityDanger {
		t.Fatalf("severity want danger got %s", entry.Severity)
	}

	var stored models.AuditLog
	if err := db.First(&stored, entry.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if stored.RequestID != "req-123" || stored.UserID != "cliente-1" {
		t.Fatalf("stored entry mismatch: %+v", stored)
	}
}

func TestAuditRecordIgnoresEmptyAction(t *testing.T) {
	db := setupServiceTestDB(t)
	_, _, _, _, _, auditService := buildTestServices(t, db)

	if entry := auditService.Record(AuditRecordInput{UserID: "x", Action: "   "}); entry != nil {
		t.Fatalf("expected nil entry for blank action")
	}
}

func TestAuditListCapsPageSize(t *testing.T) {
	db := setupServiceTestDB(t)
	_, _, _, _, _, auditService := buildTestServices(t, db)
	restaurant := createTestRestaurant(t, db)

	for i := 0; i < 5; i++ {
		auditService.Record(AuditRecordInput{
			UserID:       "system",
			Action:       constants.AuditActionStockAdjusted,
			RestaurantID: restaurant.ID,
		})
	}

	logs, total, err := auditService.List(repository.AuditLogListFilter{
		RestaurantID: restaurant.ID,
		Page:         1,
		PageSize:     2,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("total want 5 got %d", total)
	}
	if len(logs) != 2 {
		t.Fatalf("page size want 2 got %d", len(logs))
	}

	// 超出上限的页大小收敛到上限
	logs, _, err = auditService.List(repository.AuditLogListFilter{
		RestaurantID: restaurant.ID,
		Page:         1,
		PageSize:     10000,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(logs) != 5 {
		t.Fatalf("capped list want 5 rows got %d", len(logs))
	}
}
