package usecase

import (
	"encoding/json"
	"time"

	"coursepay/internal/domain/model"

	"gorm.io/datatypes"
)

// 注文に対する履歴1件
func orderAudit(actorUserID int64, action model.AuditAction, order model.Order, message string, detail map[string]interface{}, now time.Time) model.AuditLog {
	return model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       action,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   order.ID,
		Message:      message,
		Detail:       auditDetail(detail),
		CreatedAt:    now,
	}
}

func auditDetail(detail map[string]interface{}) datatypes.JSON {
	if len(detail) == 0 {
		return datatypes.JSON("{}")
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}
