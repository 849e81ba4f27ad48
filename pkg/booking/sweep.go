package booking

import "context"

// CancelExpiredHolds moves every pending-payment booking whose hold expired
// strictly before now to CANCELLED, as a single conditional bulk update. A
// booking already moved out of PENDING_PAYMENT by another actor is untouched.
// Safe to run concurrently with reservations and with itself.
func (service *Service) CancelExpiredHolds(ctx context.Context) (int64, error) {
	cancelled, err := service.store.CancelExpiredHolds(ctx, service.nowFn().UTC())
	if service.logger != nil {
		status := operationStatusOK
		if err != nil {
			status = operationStatusError
		}
		service.logger.LogOperation(ctx, OperationLog{
			Operation: operationExpireHolds,
			Status:    status,
			Error:     err,
		})
	}
	return cancelled, err
}
