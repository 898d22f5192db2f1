package postgres

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/jhoicas/invoicing-api/internal/domain"
)

// tenantColumn columna que marca una tabla como particionada por tenant.
const tenantColumn = "tenant_id"

// publicTables tablas que no pertenecen a ningún tenant y se leen sin filtro.
var publicTables = map[string]struct{}{
	"tenants":           {},
	"schema_migrations": {},
}

var (
	// ErrCrossTenantWrite la fila a insertar ya trae un tenant distinto al del contexto.
	ErrCrossTenantWrite = errors.New("tenant scope: escritura con tenant_id ajeno")
	// ErrUnscopableStatement la sentencia no se puede restringir por tenant (SQL crudo, mapas, upsert).
	ErrUnscopableStatement = errors.New("tenant scope: sentencia no permitida bajo un tenant")
)

// ── Contexto ─────────────────────────────────────────────────────────────────

type scopeKey struct{}

type scope struct {
	tenantID string
	system   bool
}

// WithTenant devuelve un contexto cuyas consultas quedan restringidas a tenantID.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope{tenantID: tenantID})
}

// WithSystem marca el contexto como acceso de sistema: sin filtro de tenant.
// Solo para búsqueda de credenciales, migraciones y seed.
func WithSystem(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope{system: true})
}

// TenantFromContext devuelve el tenant del contexto, si lo hay.
func TenantFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(scopeKey{}).(scope)
	if !ok || s.system || s.tenantID == "" {
		return "", false
	}
	return s.tenantID, true
}

func scopeOf(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

// ── Plugin ───────────────────────────────────────────────────────────────────

// DenyFunc recibe cada sentencia rechazada por falta de tenant o por no ser restringible.
type DenyFunc func(table string, err error)

// TenantScope plugin de GORM que restringe toda operación sobre tablas con columna tenant_id
// al tenant del contexto. Es el único punto donde se aplica el filtro; los repositorios no lo repiten.
//
//   - SELECT / COUNT / Row:  WHERE tenant_id = T AND (<condiciones originales>)
//   - UPDATE / DELETE:       mismo WHERE; tenant_id nunca se asigna
//   - INSERT:                se estampa TenantID = T; upserts que actualizan filas existentes se rechazan
//   - SQL crudo (Raw / Exec) solo con contexto de sistema
//   - Table("...") con alias, subconsultas, Joins o FROM propio: rechazados
//   - tablas sin tenant_id: solo las públicas (tenants, schema_migrations)
//   - sin tenant en el contexto: domain.ErrNoTenantContext
type TenantScope struct {
	tables map[string]struct{}
	models []interface{}
	onDeny DenyFunc
}

// NewTenantScope construye el plugin. models son modelos particionados adicionales que se deben
// reconocer también cuando la consulta usa Table("...") sin modelo.
func NewTenantScope(onDeny DenyFunc, models ...interface{}) *TenantScope {
	return &TenantScope{tables: map[string]struct{}{}, models: models, onDeny: onDeny}
}

// Name implementa gorm.Plugin.
func (p *TenantScope) Name() string { return "tenant_scope" }

// Initialize registra los callbacks antes de cada procesador de GORM.
func (p *TenantScope) Initialize(db *gorm.DB) error {
	for _, m := range p.models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return fmt.Errorf("tenant scope: parse %T: %w", m, err)
		}
		if _, ok := stmt.Schema.FieldsByDBName[tenantColumn]; ok {
			p.tables[stmt.Schema.Table] = struct{}{}
		}
	}

	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("tenant_scope:query", p.filter); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("tenant_scope:row", p.filter); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("tenant_scope:update", p.update); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("tenant_scope:delete", p.delete); err != nil {
		return err
	}
	if err := cb.Create().Before("gorm:create").Register("tenant_scope:create", p.create); err != nil {
		return err
	}
	return cb.Raw().Before("gorm:raw").Register("tenant_scope:raw", p.raw)
}

// owned indica si la sentencia apunta a una tabla particionada.
func (p *TenantScope) owned(stmt *gorm.Statement) bool {
	if stmt.Schema != nil {
		if _, ok := stmt.Schema.FieldsByDBName[tenantColumn]; ok {
			return true
		}
	}
	_, ok := p.tables[stmt.Table]
	return ok
}

// plainTable true si la sentencia lee o escribe una sola tabla por su nombre:
// sin alias, subconsulta, JOIN ni FROM armado a mano.
func plainTable(stmt *gorm.Statement) bool {
	if len(stmt.Joins) > 0 {
		return false
	}
	if _, ok := stmt.Clauses["FROM"]; ok {
		return false
	}
	if stmt.TableExpr == nil {
		return true
	}
	return len(stmt.TableExpr.Vars) == 0 && stmt.TableExpr.SQL == stmt.Quote(stmt.Table)
}

// denial error para una sentencia que no se puede restringir.
func denial(s scope) error {
	if s.tenantID == "" {
		return domain.ErrNoTenantContext
	}
	return ErrUnscopableStatement
}

func (p *TenantScope) deny(db *gorm.DB, err error) {
	if p.onDeny != nil {
		p.onDeny(db.Statement.Table, err)
	}
	_ = db.AddError(err)
}

// resolve devuelve el tenant a aplicar; ok=false si la sentencia no se debe tocar o ya fue rechazada.
func (p *TenantScope) resolve(db *gorm.DB) (string, bool) {
	if db.Error != nil {
		return "", false
	}
	stmt := db.Statement
	s := scopeOf(stmt.Context)
	if s.system {
		return "", false
	}
	// SQL ya construido (Raw(...).Scan / Rows): no se puede reescribir.
	if stmt.SQL.Len() > 0 || !plainTable(stmt) {
		p.deny(db, denial(s))
		return "", false
	}
	if !p.owned(stmt) {
		if _, public := publicTables[stmt.Table]; public {
			return "", false
		}
		p.deny(db, denial(s))
		return "", false
	}
	if s.tenantID == "" {
		p.deny(db, domain.ErrNoTenantContext)
		return "", false
	}
	return s.tenantID, true
}

func (p *TenantScope) filter(db *gorm.DB) {
	tenantID, ok := p.resolve(db)
	if !ok {
		return
	}
	restrictWhere(db.Statement, tenantID)
}

func (p *TenantScope) update(db *gorm.DB) {
	tenantID, ok := p.resolve(db)
	if !ok {
		return
	}
	if !hasConditions(db) {
		return
	}
	db.Statement.Omits = append(db.Statement.Omits, tenantColumn)
	restrictWhere(db.Statement, tenantID)
}

func (p *TenantScope) delete(db *gorm.DB) {
	tenantID, ok := p.resolve(db)
	if !ok {
		return
	}
	if !hasConditions(db) {
		return
	}
	restrictWhere(db.Statement, tenantID)
}

func (p *TenantScope) create(db *gorm.DB) {
	tenantID, ok := p.resolve(db)
	if !ok {
		return
	}
	stmt := db.Statement
	if c, exists := stmt.Clauses["ON CONFLICT"]; exists {
		if oc, isOC := c.Expression.(clause.OnConflict); isOC && (oc.UpdateAll || len(oc.DoUpdates) > 0) {
			p.deny(db, ErrUnscopableStatement)
			return
		}
	}
	if stmt.Schema == nil {
		p.deny(db, ErrUnscopableStatement)
		return
	}
	field := stmt.Schema.FieldsByDBName[tenantColumn]
	if field == nil {
		p.deny(db, ErrUnscopableStatement)
		return
	}

	rv := reflect.Indirect(stmt.ReflectValue)
	switch rv.Kind() {
	case reflect.Struct:
		if err := stampTenant(stmt.Context, field, rv, tenantID); err != nil {
			p.deny(db, err)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := stampTenant(stmt.Context, field, reflect.Indirect(rv.Index(i)), tenantID); err != nil {
				p.deny(db, err)
				return
			}
		}
	default:
		// Create(map[string]interface{}) no pasa por los campos del schema.
		p.deny(db, ErrUnscopableStatement)
	}
}

func (p *TenantScope) raw(db *gorm.DB) {
	if db.Error != nil {
		return
	}
	if s := scopeOf(db.Statement.Context); !s.system {
		p.deny(db, denial(s))
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func stampTenant(ctx context.Context, field *schema.Field, rv reflect.Value, tenantID string) error {
	current, zero := field.ValueOf(ctx, rv)
	if !zero {
		if s, _ := current.(string); s != tenantID {
			return ErrCrossTenantWrite
		}
		return nil
	}
	return field.Set(ctx, rv, tenantID)
}

// tenantPredicate tenant_id = T calificado con la tabla actual.
type tenantPredicate struct {
	clause.Eq
}

// groupedConditions condiciones originales entre paréntesis, para que un OR no escape del filtro.
type groupedConditions []clause.Expression

func (g groupedConditions) Build(builder clause.Builder) {
	exprs := make([]clause.Expression, len(g))
	copy(exprs, g)
	_ = builder.WriteByte('(')
	clause.Where{Exprs: exprs}.Build(builder)
	_ = builder.WriteByte(')')
}

// restrictWhere reemplaza el WHERE por tenant_id = T AND (<WHERE original>). Idempotente.
func restrictWhere(stmt *gorm.Statement, tenantID string) {
	c := stmt.Clauses["WHERE"]
	var existing []clause.Expression
	if w, ok := c.Expression.(clause.Where); ok {
		existing = w.Exprs
	}
	if len(existing) > 0 {
		if tp, ok := existing[0].(tenantPredicate); ok && tp.Value == tenantID {
			return
		}
	}

	exprs := []clause.Expression{tenantPredicate{clause.Eq{
		Column: clause.Column{Table: clause.CurrentTable, Name: tenantColumn},
		Value:  tenantID,
	}}}
	if len(existing) > 0 {
		exprs = append(exprs, groupedConditions(existing))
	}
	c.Name = "WHERE"
	c.Expression = clause.Where{Exprs: exprs}
	stmt.Clauses["WHERE"] = c
}

// hasConditions reproduce la protección de GORM contra UPDATE/DELETE globales: sin WHERE ni
// clave primaria en el valor, la sentencia falla con ErrMissingWhereClause en lugar de afectar a
// todo el tenant (el filtro de tenant por sí solo no cuenta como condición).
func hasConditions(db *gorm.DB) bool {
	stmt := db.Statement
	if db.AllowGlobalUpdate {
		return true
	}
	if w, ok := stmt.Clauses["WHERE"].Expression.(clause.Where); ok && len(w.Exprs) > 0 {
		return true
	}
	if stmt.Schema != nil && len(stmt.Schema.PrimaryFields) > 0 {
		if _, vals := schema.GetIdentityFieldValuesMap(stmt.Context, stmt.ReflectValue, stmt.Schema.PrimaryFields); len(vals) > 0 {
			return true
		}
		if stmt.Model != nil {
			if _, vals := schema.GetIdentityFieldValuesMap(stmt.Context, reflect.ValueOf(stmt.Model), stmt.Schema.PrimaryFields); len(vals) > 0 {
				return true
			}
		}
	}
	_ = db.AddError(gorm.ErrMissingWhereClause)
	return false
}
