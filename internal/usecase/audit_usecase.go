package usecase

import (
	"context"
	"net/http"

	"farmmarket/internal/domain/model"
	repo "farmmarket/internal/repository"
)

// 自分の操作履歴の参照。
type AuditUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditUsecase(auditRepo repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{auditRepo: auditRepo}
}

type ListMyAuditLogsInput struct {
	Action string
	Limit  int
	Offset int
}

// 自分がactorのログだけを返す。
func (u *AuditUsecase) ListMyAuditLogs(ctx context.Context, userID int64, in ListMyAuditLogsInput) ([]model.AuditLog, error) {
	if userID <= 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Limit < 0 || in.Limit > 200 {
		return []model.AuditLog{}, NewValidationError("invalid limit")
	}
	if in.Offset < 0 {
		return []model.AuditLog{}, NewValidationError("invalid offset")
	}

	filter := repo.AuditLogFilter{
		ActorUserID: &userID,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}

	if in.Action != "" {
		a := model.AuditAction(in.Action)
		if a != model.AuditActionUpdateStock && a != model.AuditActionUpdateOrderStatus {
			return []model.AuditLog{}, NewValidationError("invalid action")
		}
		filter.Action = &a
	}

	logs, err := u.auditRepo.List(ctx, filter)
	if err != nil {
		return []model.AuditLog{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}
