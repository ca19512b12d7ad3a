package handlers

import (
	"context"
	"errors"
	"strings"

	apperrors "gamewallet/internal/errors"
	"gamewallet/internal/middleware"
	"gamewallet/internal/models"
	"gamewallet/internal/repositories"
	"gamewallet/internal/services/ledger"
	"gamewallet/internal/services/rollback"
	"gamewallet/internal/services/transfer"
	"gamewallet/internal/utils/pagination"
	"gamewallet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const idempotencyHeader = "Idempotency-Key"

// LedgerHandler exposes transfers, rollbacks and journal reads.
type LedgerHandler struct {
	transfers transfer.Service
	rollbacks rollback.Service
	journal   *ledger.Journal
	actors    repositories.ActorRepository
	log       *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler. actors may be nil, in which
// case views carry no actor username.
func NewLedgerHandler(
	transfers transfer.Service,
	rollbacks rollback.Service,
	journal *ledger.Journal,
	actors repositories.ActorRepository,
	log *zap.Logger,
) *LedgerHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LedgerHandler{transfers: transfers, rollbacks: rollbacks, journal: journal, actors: actors, log: log}
}

type transferBody struct {
	SourceAccountID      string `json:"source_account_id"`
	SourceKind           string `json:"source_kind"`
	DestinationAccountID string `json:"destination_account_id"`
	DestinationKind      string `json:"destination_kind"`
	Amount               string `json:"amount"`
	Operation            string `json:"operation"`
	IdempotencyKey       string `json:"idempotency_key"`
	Description          string `json:"description"`
}

// Transfer handles POST /api/v1/transfers.
func (h *LedgerHandler) Transfer(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "missing claims")
	}

	var body transferBody
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "INVALID_BODY", "request body is not valid JSON")
	}

	req, err := body.request()
	if err != nil {
		return response.Error(c, err)
	}
	if header := c.Get(idempotencyHeader); header != "" {
		if req.IdempotencyKey != "" && req.IdempotencyKey != header {
			return response.BadRequest(c, "INVALID_IDEMPOTENCY_KEY", "header and body idempotency keys differ")
		}
		req.IdempotencyKey = header
	}
	req.Actor = actor
	req.TenantID = middleware.Tenant(c)

	result, err := h.transfers.Transfer(c.UserContext(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return h.respondResult(c, result)
}

func (b transferBody) request() (transfer.Request, error) {
	req := transfer.Request{
		Operation:      models.ParseOperationKind(b.Operation),
		IdempotencyKey: b.IdempotencyKey,
		Description:    b.Description,
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(b.Amount))
	if err != nil {
		return req, apperrors.Validation("INVALID_AMOUNT", "amount must be a decimal string")
	}
	req.Amount = amount

	dst, err := models.ParseAccountRef(b.DestinationKind, b.DestinationAccountID)
	if err != nil {
		return req, apperrors.Validation("INVALID_DESTINATION", err.Error())
	}
	req.Destination = dst

	if b.SourceAccountID != "" || b.SourceKind != "" {
		src, err := models.ParseAccountRef(b.SourceKind, b.SourceAccountID)
		if err != nil {
			return req, apperrors.Validation("INVALID_SOURCE", err.Error())
		}
		req.Source = &src
	}
	return req, nil
}

type rollbackBody struct {
	OriginalIdempotencyKey string `json:"original_idempotency_key"`
}

// Rollback handles POST /api/v1/rollbacks.
func (h *LedgerHandler) Rollback(c *fiber.Ctx) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return response.Unauthorized(c, "missing claims")
	}

	var body rollbackBody
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "INVALID_BODY", "request body is not valid JSON")
	}

	result, err := h.rollbacks.Rollback(c.UserContext(), rollback.Request{
		OriginalKey: body.OriginalIdempotencyKey,
		Actor:       actor,
		TenantID:    middleware.Tenant(c),
	})
	if err != nil {
		return response.Error(c, err)
	}
	return h.respondResult(c, result)
}

// GetEntry handles GET /api/v1/entries/:key.
func (h *LedgerHandler) GetEntry(c *fiber.Ctx) error {
	entry, err := h.journal.FindByKey(c.UserContext(), middleware.Tenant(c), c.Params("key"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, fiber.StatusOK, h.view(c.UserContext(), entry, nil))
}

// AccountHistory handles GET /api/v1/accounts/:id/entries.
func (h *LedgerHandler) AccountHistory(c *fiber.Ctx) error {
	p := pagination.ParseFromRequest(c)
	entries, err := h.journal.History(c.UserContext(), middleware.Tenant(c), c.Params("id"), p.Limit, p.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	names := make(map[string]string)
	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, h.view(c.UserContext(), e, names))
	}
	return response.JSON(c, fiber.StatusOK, pagination.Response(p, len(views), views))
}

func (h *LedgerHandler) respondResult(c *fiber.Ctx, result *ledger.Result) error {
	status := fiber.StatusCreated
	if result.Replayed {
		status = fiber.StatusOK
	}
	return response.JSON(c, status, h.view(c.UserContext(), result.Entry, nil))
}

// view decorates an entry with the actor's username; names memoizes lookups
// across one response.
func (h *LedgerHandler) view(ctx context.Context, e *models.LedgerEntry, names map[string]string) EntryView {
	return NewEntryView(e, h.username(ctx, e.ActorID, names))
}

func (h *LedgerHandler) username(ctx context.Context, actorID string, names map[string]string) string {
	if h.actors == nil || actorID == "" {
		return ""
	}
	if name, ok := names[actorID]; ok {
		return name
	}
	name := ""
	actor, err := h.actors.Lookup(ctx, actorID)
	if err == nil {
		name = actor.Username
	} else if !errors.Is(err, repositories.ErrActorNotFound) {
		h.log.Warn("actor lookup failed", zap.String("actor_id", actorID), zap.Error(err))
	}
	if names != nil {
		names[actorID] = name
	}
	return name
}
