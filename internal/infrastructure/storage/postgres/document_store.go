package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tenant"
	"stockbook/internal/domain/sequence"
	"stockbook/internal/domain/store"
	"stockbook/pkg/logger"
)

var _ store.Store = (*DocumentStore)(nil)

// DocumentStore is the PostgreSQL tenant-scoped document store. Each
// kind maps to one table with identical shape (attributes held as
// JSONB); products additionally carry a dedicated quantity column so
// stock arithmetic stays atomic at the row level.
//
// The context tenant is merged into every statement. Caller-supplied
// tenant_id keys are discarded, never trusted.
type DocumentStore struct {
	txm   *TxManager
	seq   sequence.Allocator
	audit *AuditService
}

// NewDocumentStore creates a document store on top of the tx manager.
func NewDocumentStore(txm *TxManager, seq sequence.Allocator) *DocumentStore {
	return &DocumentStore{txm: txm, seq: seq}
}

// WithAudit enables change recording for create, update, and delete.
func (s *DocumentStore) WithAudit(audit *AuditService) *DocumentStore {
	s.audit = audit
	return s
}

// recordChange writes an audit entry. Audit failures never fail the
// operation that triggered them.
func (s *DocumentStore) recordChange(ctx context.Context, kind store.Kind, entityID id.ID, action AuditAction, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogChange(ctx, string(kind), entityID, action, changes); err != nil {
		logger.Warn(ctx, "audit write failed",
			"kind", kind,
			"entity_id", entityID,
			"action", action,
			"error", err,
		)
	}
}

// queryID extracts the document id from a query when present.
func queryID(query store.Query) (id.ID, bool) {
	v, ok := query["id"]
	if !ok {
		return id.Nil(), false
	}
	parsed, err := id.Parse(fmt.Sprint(v))
	if err != nil {
		return id.Nil(), false
	}
	return parsed, true
}

// documentRow mirrors the common table shape.
type documentRow struct {
	ID               id.ID     `db:"id"`
	TenantID         string    `db:"tenant_id"`
	SequentialNumber string    `db:"sequential_number"`
	Attributes       []byte    `db:"attributes"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r *documentRow) toDocument() (*store.Document, error) {
	attrs := make(map[string]any)
	if len(r.Attributes) > 0 {
		if err := json.Unmarshal(r.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}
	return &store.Document{
		ID:               r.ID,
		TenantID:         r.TenantID,
		SequentialNumber: r.SequentialNumber,
		Attributes:       attrs,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}, nil
}

// reserved fields are stamped by the store and never read from or
// written through attributes.
var reservedFields = map[string]bool{
	"id":                true,
	"tenant_id":         true,
	"sequential_number": true,
	"created_at":        true,
	"updated_at":        true,
}

func tableName(kind store.Kind) string {
	return string(kind)
}

// attributesColumn folds the quantity column back into the attribute
// map for products, so callers see one uniform document shape.
func attributesColumn(kind store.Kind) string {
	if kind == store.KindProducts {
		return "attributes || jsonb_build_object('quantity', quantity) AS attributes"
	}
	return "attributes"
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// conditions translates a caller query into squirrel predicates with
// the context tenant merged in. Caller tenant_id keys are dropped.
func conditions(kind store.Kind, tenantID string, query store.Query) squirrel.And {
	conds := squirrel.And{squirrel.Eq{"tenant_id": tenantID}}
	for key, value := range query {
		switch {
		case key == "tenant_id":
			// context tenant always wins
		case key == "id" || key == "sequential_number":
			conds = append(conds, squirrel.Eq{key: value})
		case key == "quantity" && kind == store.KindProducts:
			conds = append(conds, squirrel.Eq{"quantity": value})
		default:
			conds = append(conds, squirrel.Expr("attributes->>? = ?", key, fmt.Sprint(value)))
		}
	}
	return conds
}

func orderColumn(kind store.Kind, field string) string {
	switch field {
	case "created_at", "updated_at", "sequential_number", "id":
		return field
	case "quantity":
		if kind == store.KindProducts {
			return "quantity"
		}
	}
	return ""
}

func selectQuery(kind store.Kind, tenantID string, query store.Query, opts store.FindOptions) (string, []any, error) {
	q := builder().
		Select("id", "tenant_id", "sequential_number", attributesColumn(kind), "created_at", "updated_at").
		From(tableName(kind)).
		Where(conditions(kind, tenantID, query))

	order := orderColumn(kind, opts.OrderBy)
	if order == "" {
		order = "created_at"
	}
	if opts.Desc {
		order += " DESC"
	}
	q = q.OrderBy(order)

	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	return q.ToSql()
}

// Create stamps tenant, id, timestamps, and a sequential number for
// numbered kinds, then persists the draft.
func (s *DocumentStore) Create(ctx context.Context, kind store.Kind, draft store.Draft) (*store.Document, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	number := draft.SequentialNumber
	if number == "" {
		if prefix, numbered := store.SequencePrefix(kind); numbered {
			number, err = s.seq.Next(ctx, tenantID, kind, prefix)
			if err != nil {
				return nil, err
			}
		}
	}

	attrs := make(map[string]any, len(draft.Attributes))
	var quantity int64
	for key, value := range draft.Attributes {
		if reservedFields[key] {
			continue
		}
		if key == "quantity" && kind == store.KindProducts {
			quantity = toQuantity(value)
			continue
		}
		attrs[key] = value
	}

	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return nil, apperror.NewValidation("attributes", "attributes are not serializable")
	}

	now := time.Now().UTC()
	row := documentRow{
		ID:               id.New(),
		TenantID:         tenantID,
		SequentialNumber: number,
		Attributes:       attrsJSON,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	values := map[string]any{
		"id":                row.ID,
		"tenant_id":         row.TenantID,
		"sequential_number": row.SequentialNumber,
		"attributes":        row.Attributes,
		"created_at":        row.CreatedAt,
		"updated_at":        row.UpdatedAt,
	}
	if kind == store.KindProducts {
		values["quantity"] = quantity
	}

	sql, args, err := builder().Insert(tableName(kind)).SetMap(values).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return nil, apperror.NewStoreUnavailable(err)
	}

	doc, err := row.toDocument()
	if err != nil {
		return nil, err
	}
	if kind == store.KindProducts {
		doc.Attributes["quantity"] = quantity
	}
	s.recordChange(ctx, kind, doc.ID, AuditActionCreate, doc.Attributes)
	return doc, nil
}

// Find returns all matching documents for the context tenant.
func (s *DocumentStore) Find(ctx context.Context, kind store.Kind, query store.Query, opts store.FindOptions) ([]*store.Document, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := selectQuery(kind, tenantID, query, opts)
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []documentRow
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, apperror.NewStoreUnavailable(err)
	}

	docs := make([]*store.Document, 0, len(rows))
	for i := range rows {
		doc, err := rows[i].toDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// FindOne returns the first match or (nil, nil) when nothing matches.
func (s *DocumentStore) FindOne(ctx context.Context, kind store.Kind, query store.Query) (*store.Document, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := selectQuery(kind, tenantID, query, store.FindOptions{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row documentRow
	if err := pgxscan.Get(ctx, s.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, apperror.NewStoreUnavailable(err)
	}
	return row.toDocument()
}

// selectForUpdateQuery builds the locking variant of a single-document
// select.
func selectForUpdateQuery(kind store.Kind, tenantID string, query store.Query) (string, []any, error) {
	return builder().
		Select("id", "tenant_id", "sequential_number", attributesColumn(kind), "created_at", "updated_at").
		From(tableName(kind)).
		Where(conditions(kind, tenantID, query)).
		Limit(1).
		Suffix("FOR UPDATE").
		ToSql()
}

// FindOneForUpdate returns the first match with its row locked until the
// enclosing transaction commits or rolls back.
func (s *DocumentStore) FindOneForUpdate(ctx context.Context, kind store.Kind, query store.Query) (*store.Document, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := selectForUpdateQuery(kind, tenantID, query)
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row documentRow
	if err := pgxscan.Get(ctx, s.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, apperror.NewStoreUnavailable(err)
	}
	return row.toDocument()
}

// matchOneExpr builds an "id IN (SELECT ... LIMIT 1)" predicate so that
// UpdateOne and DeleteOne touch at most one row.
func matchOneExpr(kind store.Kind, tenantID string, query store.Query) (squirrel.Sqlizer, error) {
	inner, args, err := squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Question).
		Select("id").
		From(tableName(kind)).
		Where(conditions(kind, tenantID, query)).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build match subquery: %w", err)
	}
	return squirrel.Expr("id IN ("+inner+")", args...), nil
}

// UpdateOne updates at most one matching document. id, tenant_id, and
// sequential_number are immutable; attribute updates merge into the
// existing JSONB document.
func (s *DocumentStore) UpdateOne(ctx context.Context, kind store.Kind, query store.Query, update store.Update) (int64, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return 0, err
	}

	match, err := matchOneExpr(kind, tenantID, query)
	if err != nil {
		return 0, err
	}

	q := builder().
		Update(tableName(kind)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(match)

	attrs := make(map[string]any)
	for key, value := range update {
		if reservedFields[key] {
			continue
		}
		if key == "quantity" && kind == store.KindProducts {
			q = q.Set("quantity", toQuantity(value))
			continue
		}
		attrs[key] = value
	}
	if len(attrs) > 0 {
		attrsJSON, err := json.Marshal(attrs)
		if err != nil {
			return 0, apperror.NewValidation("update", "update is not serializable")
		}
		q = q.Set("attributes", squirrel.Expr("attributes || ?", attrsJSON))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	tag, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, apperror.NewStoreUnavailable(err)
	}
	if tag.RowsAffected() > 0 {
		if entityID, ok := queryID(query); ok {
			s.recordChange(ctx, kind, entityID, AuditActionUpdate, update)
		}
	}
	return tag.RowsAffected(), nil
}

// DeleteOne deletes at most one matching document.
func (s *DocumentStore) DeleteOne(ctx context.Context, kind store.Kind, query store.Query) (int64, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return 0, err
	}

	match, err := matchOneExpr(kind, tenantID, query)
	if err != nil {
		return 0, err
	}

	sql, args, err := builder().
		Delete(tableName(kind)).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(match).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	tag, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, apperror.NewStoreUnavailable(err)
	}
	if tag.RowsAffected() > 0 {
		if entityID, ok := queryID(query); ok {
			s.recordChange(ctx, kind, entityID, AuditActionDelete, nil)
		}
	}
	return tag.RowsAffected(), nil
}

// Count reports how many documents match for the context tenant.
func (s *DocumentStore) Count(ctx context.Context, kind store.Kind, query store.Query) (int64, error) {
	tenantID, err := tenant.RequireID(ctx)
	if err != nil {
		return 0, err
	}

	sql, args, err := builder().
		Select("COUNT(*)").
		From(tableName(kind)).
		Where(conditions(kind, tenantID, query)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int64
	if err := s.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, apperror.NewStoreUnavailable(err)
	}
	return count, nil
}

func toQuantity(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		q, _ := n.Int64()
		return q
	}
	return 0
}
