package inventory

import (
	"context"
	"iter"
	"slices"
	"strings"
	"time"

	appshared "github.com/dairy/backend/internal/application/shared"
	"github.com/dairy/backend/internal/domain/inventory"
	"github.com/dairy/backend/internal/domain/shared"
	"github.com/dairy/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBalancePageSize is how many movements are read per round trip when
// walking a batch's history
const DefaultBalancePageSize = 500

// LedgerService exposes the batch ledger: standalone postings, manual
// adjustments and read models over the movement history
type LedgerService struct {
	scope          appshared.TransactionScope
	repos          appshared.Repositories
	ledger         *Ledger
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	pageSize       int
	now            func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	scope appshared.TransactionScope,
	repos appshared.Repositories,
	ledger *Ledger,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		scope:    scope,
		repos:    repos,
		ledger:   ledger,
		logger:   logger,
		pageSize: DefaultBalancePageSize,
		now:      time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetPageSize sets the keyset page size used by RunningBalance
func (s *LedgerService) SetPageSize(size int) {
	if size > 0 {
		s.pageSize = size
	}
}

// PostMovement posts a single movement in its own transaction
func (s *LedgerService) PostMovement(ctx context.Context, actor appshared.Actor, req PostMovementRequest) (*MovementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "post_movement")
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	movementType := inventory.MovementType(req.MovementType)
	ref := inventory.Reference{Type: inventory.ReferenceType(req.ReferenceType), ID: req.ReferenceID}
	telemetry.SetAttributes(span,
		"batch_id", req.BatchID.String(),
		"movement_type", req.MovementType,
		"quantity", req.Quantity.String(),
	)

	var movement *inventory.StockMovement
	events := &appshared.EventCollector{}
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		var err error
		movement, err = s.ledger.Post(ctx, repos, PostRequest{
			BatchID:   req.BatchID,
			Type:      movementType,
			Quantity:  req.Quantity,
			Reference: ref,
			Actor:     actor.UserID,
			Date:      s.dateOrToday(req.MovementDate),
			Reason:    req.Reason,
			Notes:     req.Notes,
		}, events)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Stock movement rejected",
			zap.String("batch_id", req.BatchID.String()),
			zap.String("movement_type", req.MovementType),
			zap.Error(err))
		return nil, err
	}
	events.PublishTo(ctx, s.eventPublisher)

	resp := ToMovementResponse(movement)
	return &resp, nil
}

// Adjust posts a manual correction (signed adjustment) or an expiry
// write-off against a batch
func (s *LedgerService) Adjust(ctx context.Context, actor appshared.Actor, req AdjustStockRequest) (*MovementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "adjust")
	defer span.End()

	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	movementType := inventory.MovementTypeAdjustment
	if req.MovementType != "" {
		movementType = inventory.MovementType(req.MovementType)
	}
	if movementType != inventory.MovementTypeAdjustment && movementType != inventory.MovementTypeExpiredOut {
		return nil, shared.NewValidationError("Adjustments must be of type adjustment or expired_out")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, shared.NewValidationError("Reason is required for stock adjustments")
	}

	var movement *inventory.StockMovement
	events := &appshared.EventCollector{}
	err := s.scope.Execute(ctx, func(repos appshared.Repositories) error {
		batch, err := repos.Batches().FindByIDForUpdate(ctx, req.BatchID)
		if err != nil {
			return err
		}
		if req.ProductID != nil && *req.ProductID != batch.ProductID {
			return shared.NewValidationError("Batch %s does not belong to the given product", batch.BatchNumber)
		}
		movement, err = s.ledger.PostToBatch(ctx, repos, batch, PostRequest{
			BatchID:   batch.ID,
			Type:      movementType,
			Quantity:  req.Quantity,
			Reference: inventory.Reference{Type: inventory.ReferenceTypeManual},
			Actor:     actor.UserID,
			Date:      s.dateOrToday(req.MovementDate),
			Reason:    req.Reason,
			Notes:     req.Notes,
		}, events)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	events.PublishTo(ctx, s.eventPublisher)

	s.logger.Info("Stock adjusted",
		zap.String("batch_id", movement.BatchID.String()),
		zap.String("movement_type", string(movement.Type)),
		zap.String("quantity", movement.Quantity.String()),
		zap.String("reason", movement.Reason))
	resp := ToMovementResponse(movement)
	return &resp, nil
}

// RunningBalance returns a lazy, ordered sequence of the batch's movements
// with the cumulative balance after each. Movements are fetched from
// storage page by page as the sequence is consumed.
func (s *LedgerService) RunningBalance(ctx context.Context, batchID uuid.UUID) (iter.Seq2[inventory.BalanceEntry, error], error) {
	if _, err := s.repos.Batches().FindByID(ctx, batchID); err != nil {
		return nil, err
	}
	return inventory.RunningBalance(s.movements(ctx, batchID)), nil
}

// movements walks a batch's history in (created_at, id) order using keyset
// pagination
func (s *LedgerService) movements(ctx context.Context, batchID uuid.UUID) iter.Seq2[inventory.StockMovement, error] {
	return func(yield func(inventory.StockMovement, error) bool) {
		var cursor *inventory.MovementCursor
		for {
			page, err := s.repos.Movements().ListByBatchAfter(ctx, batchID, cursor, s.pageSize)
			if err != nil {
				yield(inventory.StockMovement{}, err)
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			last := page[len(page)-1]
			cursor = &inventory.MovementCursor{CreatedAt: last.CreatedAt, ID: last.ID}
		}
	}
}

// BatchLedger returns a batch together with its full running balance
func (s *LedgerService) BatchLedger(ctx context.Context, batchID uuid.UUID) (*BatchLedgerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "batch_ledger")
	defer span.End()

	batch, err := s.repos.Batches().FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	rows := make([]BalanceRowResponse, 0)
	for entry, err := range inventory.RunningBalance(s.movements(ctx, batchID)) {
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		rows = append(rows, BalanceRowResponse{
			MovementResponse: ToMovementResponse(&entry.Movement),
			Balance:          entry.Balance,
		})
	}
	return &BatchLedgerResponse{
		Batch:     ToBatchResponse(batch, s.now()),
		Movements: rows,
	}, nil
}

// VerifyBatch replays the batch's ledger and compares it with the stored
// quantities
func (s *LedgerService) VerifyBatch(ctx context.Context, batchID uuid.UUID) (*LedgerCheckResponse, error) {
	batch, err := s.repos.Batches().FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	check, err := inventory.CheckLedger(batch, s.movements(ctx, batchID))
	if err != nil {
		return nil, err
	}
	if !check.Consistent() {
		s.logger.Error("Batch ledger drift detected",
			zap.String("batch_id", batchID.String()),
			zap.String("ledger_remaining", check.LedgerRemaining.String()),
			zap.String("recorded_remaining", check.RecordedRemaining.String()),
			zap.String("ledger_initial", check.LedgerInitial.String()),
			zap.String("recorded_initial", check.RecordedInitial.String()))
	}
	return &LedgerCheckResponse{
		BatchID:           batchID,
		MovementCount:     check.MovementCount,
		LedgerRemaining:   check.LedgerRemaining,
		LedgerInitial:     check.LedgerInitial,
		RecordedRemaining: check.RecordedRemaining,
		RecordedInitial:   check.RecordedInitial,
		Consistent:        check.Consistent(),
	}, nil
}

// AuditLedger verifies every batch, one page at a time, and reports the
// batches whose stored quantities drifted from their ledger
func (s *LedgerService) AuditLedger(ctx context.Context) (*LedgerAuditResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "audit")
	defer span.End()

	resp := &LedgerAuditResponse{Inconsistent: make([]uuid.UUID, 0)}
	filter := shared.DefaultFilter()
	filter.OrderDir = "asc"
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batches, _, err := s.repos.Batches().List(ctx, inventory.BatchFilter{Filter: filter, Today: shared.TruncateDate(s.now())})
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		for i := range batches {
			check, err := s.VerifyBatch(ctx, batches[i].ID)
			if err != nil {
				telemetry.RecordError(span, err)
				return nil, err
			}
			resp.BatchesChecked++
			if !check.Consistent {
				resp.Inconsistent = append(resp.Inconsistent, check.BatchID)
			}
		}
		if len(batches) < filter.PageSize {
			break
		}
		filter.Page++
	}

	s.logger.Info("Ledger audit finished",
		zap.Int("batches_checked", resp.BatchesChecked),
		zap.Int("inconsistent", len(resp.Inconsistent)))
	return resp, nil
}

// ListBatches lists batches with their derived status
func (s *LedgerService) ListBatches(ctx context.Context, filter BatchListFilter) ([]BatchResponse, int64, error) {
	f := inventory.BatchFilter{
		Filter: shared.DefaultFilter(),
		Status: inventory.BatchStatus(filter.Status),
		Today:  shared.TruncateDate(s.now()),
	}
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.ProductID != "" {
		productID, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return nil, 0, shared.NewValidationError("Invalid product ID")
		}
		f.ProductID = &productID
	}
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, shared.NewValidationError("Invalid batch status: %s", filter.Status)
	}

	batches, total, err := s.repos.Batches().List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]BatchResponse, 0, len(batches))
	for i := range batches {
		out = append(out, ToBatchResponse(&batches[i], f.Today))
	}
	return out, total, nil
}

// GetBatch returns one batch with its status as of today
func (s *LedgerService) GetBatch(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.repos.Batches().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBatchResponse(batch, shared.TruncateDate(s.now()))
	return &resp, nil
}

// DailySummary groups every movement dated on date by product and type
func (s *LedgerService) DailySummary(ctx context.Context, date time.Time) (*DailySummaryResponse, error) {
	day := shared.TruncateDate(date)
	movements, err := s.repos.Movements().List(ctx, inventory.MovementFilter{
		Dates: shared.DateRange{From: &day, To: &day},
	})
	if err != nil {
		return nil, err
	}

	type key struct {
		product uuid.UUID
		kind    inventory.MovementType
	}
	index := make(map[key]int)
	lines := make([]DailySummaryLine, 0)
	for _, m := range movements {
		k := key{m.ProductID, m.Type}
		pos, ok := index[k]
		if !ok {
			lines = append(lines, DailySummaryLine{ProductID: m.ProductID, MovementType: m.Type})
			pos = len(lines) - 1
			index[k] = pos
		}
		lines[pos].Count++
		lines[pos].Quantity = lines[pos].Quantity.Add(m.Quantity)
	}
	slices.SortFunc(lines, func(a, b DailySummaryLine) int {
		if c := strings.Compare(a.ProductID.String(), b.ProductID.String()); c != 0 {
			return c
		}
		return strings.Compare(string(a.MovementType), string(b.MovementType))
	})
	return &DailySummaryResponse{Date: day, Lines: lines}, nil
}

// ProductMovements lists a product's movements, newest first
func (s *LedgerService) ProductMovements(ctx context.Context, productID uuid.UUID, filter MovementListFilter) ([]MovementResponse, error) {
	f := inventory.MovementFilter{
		ProductID: &productID,
		Dates:     shared.DateRange{From: filter.From, To: filter.To},
		Limit:     filter.Limit,
	}
	if filter.MovementType != "" {
		f.Type = inventory.MovementType(filter.MovementType)
		if !f.Type.IsValid() {
			return nil, shared.NewValidationError("Invalid movement type: %s", filter.MovementType)
		}
	}
	if f.Limit == 0 {
		f.Limit = 100
	}
	movements, err := s.repos.Movements().List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		out = append(out, ToMovementResponse(&movements[i]))
	}
	return out, nil
}

func (s *LedgerService) dateOrToday(d *time.Time) time.Time {
	if d == nil || d.IsZero() {
		return shared.TruncateDate(s.now())
	}
	return shared.TruncateDate(*d)
}
