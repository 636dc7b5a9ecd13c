// Package pipeline runs every entity request through one sequence: resolve
// the principal, sanitize, scan, validate, check uniqueness, rate limit,
// persist and audit. Each branch writes exactly one audit entry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	rlmodels "medplant/internal/ratelimit/models"
	"medplant/internal/security"
	tmodels "medplant/internal/tenant/models"
	dErrors "medplant/pkg/domain-errors"
	"medplant/pkg/platform/audit"
	"medplant/pkg/platform/sentinel"
	"medplant/pkg/requestcontext"
	"medplant/pkg/validator"
)

// MsgNotFound is the single message for missing and foreign records.
const MsgNotFound = "not found or access denied"

const tracerName = "medplant/internal/pipeline"

// Pipeline orchestrates one entity type.
type Pipeline[E Entity] struct {
	policy    Policy[E]
	repo      Repository[E]
	sanitizer *security.Sanitizer
	scanner   *security.Scanner
	validator *validator.Validator
	limiter   RateLimiter
	scope     TenantScope
	audit     *audit.Recorder
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
}

// Deps are the collaborators shared by every entity pipeline.
type Deps struct {
	Sanitizer *security.Sanitizer
	Scanner   *security.Scanner
	Validator *validator.Validator
	Limiter   RateLimiter
	Scope     TenantScope
	Audit     *audit.Recorder
	Logger    *slog.Logger
	Metrics   *Metrics
}

func New[E Entity](policy Policy[E], repo Repository[E], deps Deps) (*Pipeline[E], error) {
	switch {
	case policy.EntityType == "":
		return nil, errors.New("entity type is required")
	case policy.New == nil:
		return nil, errors.New("entity constructor is required")
	case repo == nil:
		return nil, errors.New("repository is required")
	case deps.Limiter == nil:
		return nil, errors.New("rate limiter is required")
	case deps.Scope == nil:
		return nil, errors.New("tenant scope is required")
	case deps.Audit == nil:
		return nil, errors.New("audit recorder is required")
	}
	if policy.Label == "" {
		policy.Label = policy.EntityType
	}
	p := &Pipeline[E]{
		policy:    policy,
		repo:      repo,
		sanitizer: deps.Sanitizer,
		scanner:   deps.Scanner,
		validator: deps.Validator,
		limiter:   deps.Limiter,
		scope:     deps.Scope,
		audit:     deps.Audit,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		tracer:    otel.Tracer(tracerName),
	}
	if p.sanitizer == nil {
		p.sanitizer = security.NewSanitizer()
	}
	if p.scanner == nil {
		p.scanner = security.NewScanner()
	}
	if p.validator == nil {
		p.validator = validator.New()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// Policy returns the entity policy.
func (p *Pipeline[E]) Policy() Policy[E] {
	return p.policy
}

// List returns the records visible to the caller.
func (p *Pipeline[E]) List(ctx context.Context) (_ []E, err error) {
	ctx, finish := p.begin(ctx, audit.OpList)
	defer func() { finish(err) }()

	principal, tenant, err := p.listScope(ctx, audit.OpList)
	if err != nil {
		return nil, err
	}

	items, err := p.repo.List(ctx, tenant)
	if err != nil {
		return nil, p.fail(ctx, audit.OpList, "", err)
	}
	p.logger.DebugContext(ctx, "listed records", "entity", p.policy.EntityType, "principal", principal.Name, "count", len(items))
	p.audit.Listed(ctx, p.policy.EntityType, len(items))
	return items, nil
}

// Details returns one record. op is audit.OpView or audit.OpEditView.
func (p *Pipeline[E]) Details(ctx context.Context, id int64, op string) (_ E, err error) {
	ctx, finish := p.begin(ctx, op)
	defer func() { finish(err) }()

	var zero E
	principal, err := p.principal(ctx, op, id)
	if err != nil {
		return zero, err
	}
	existing, err := p.fetchAuthorized(ctx, principal, op, id)
	if err != nil {
		return zero, err
	}
	p.audit.Viewed(ctx, p.policy.EntityType, op, recordID(id), fmt.Sprintf("%s %d viewed", p.policy.Label, id))
	return existing, nil
}

// Create validates and stores a new record. The stored record is returned.
func (p *Pipeline[E]) Create(ctx context.Context, input E) (_ E, err error) {
	ctx, finish := p.begin(ctx, audit.OpCreate)
	defer func() { finish(err) }()

	var zero E
	const op = audit.OpCreate
	principal, err := p.principal(ctx, op, 0)
	if err != nil {
		return zero, err
	}
	p.audit.Attempted(ctx, p.policy.EntityType, op, "", p.policy.Label+" create attempt")

	if isNil(input) {
		return zero, p.reject(ctx, op, audit.SuffixValidationFailed, 0,
			dErrors.New(dErrors.CodeBadRequest, "request body is required"))
	}

	meta := input.Meta()
	meta.ID = 0
	if p.policy.TenantScoped {
		if !p.bypasses(principal) {
			if !principal.HasTenant() {
				return zero, p.reject(ctx, op, audit.SuffixUnauthorized, 0,
					dErrors.New(dErrors.CodeUnauthorized, "no plant assigned to the current user"))
			}
			meta.PlantID = copyTenant(principal.TenantID)
		} else if meta.PlantID == nil {
			meta.PlantID = copyTenant(principal.TenantID)
		}
	} else {
		meta.PlantID = nil
	}

	if err := p.check(ctx, op, input, 0); err != nil {
		return zero, err
	}
	if err := p.rateLimit(ctx, principal, op, rlmodels.ActionCreate, 0); err != nil {
		return zero, err
	}
	if p.policy.BeforePersist != nil {
		if err := p.policy.BeforePersist(ctx, input, zero); err != nil {
			return zero, p.hookError(ctx, op, 0, err)
		}
	}

	meta.Stamp(principal.Name, requestcontext.Now(ctx))
	if err := p.repo.Add(ctx, input); err != nil {
		return zero, p.persistError(ctx, op, 0, err)
	}

	p.audit.Created(ctx, p.policy.EntityType, recordID(meta.ID), input,
		fmt.Sprintf("%s %d created", p.policy.Label, meta.ID))
	return input, nil
}

// Update replaces the editable fields of record id with input.
func (p *Pipeline[E]) Update(ctx context.Context, id int64, input E) (_ E, err error) {
	ctx, finish := p.begin(ctx, audit.OpUpdate)
	defer func() { finish(err) }()

	var zero E
	const op = audit.OpUpdate
	principal, err := p.principal(ctx, op, id)
	if err != nil {
		return zero, err
	}
	p.audit.Attempted(ctx, p.policy.EntityType, op, recordID(id), fmt.Sprintf("%s %d update attempt", p.policy.Label, id))

	if isNil(input) {
		return zero, p.reject(ctx, op, audit.SuffixValidationFailed, id,
			dErrors.New(dErrors.CodeBadRequest, "request body is required"))
	}

	existing, err := p.fetchAuthorized(ctx, principal, op, id)
	if err != nil {
		return zero, err
	}
	current := existing.Meta()

	meta := input.Meta()
	meta.ID = id
	meta.CreatedBy = current.CreatedBy
	meta.CreatedOn = current.CreatedOn
	if p.policy.TenantScoped {
		if meta.PlantID == nil {
			meta.PlantID = copyTenant(current.PlantID)
		} else if !p.scope.CheckTransfer(principal, current.PlantID, meta.PlantID, p.policy.AllowScopeBypass) {
			return zero, p.reject(ctx, op, audit.SuffixPlantDeny, id,
				dErrors.New(dErrors.CodeTenantDenied, "moving records to another plant is not allowed"))
		}
	} else {
		meta.PlantID = nil
	}

	if err := p.check(ctx, op, input, id); err != nil {
		return zero, err
	}
	if err := p.rateLimit(ctx, principal, op, rlmodels.ActionEdit, id); err != nil {
		return zero, err
	}
	if p.policy.BeforePersist != nil {
		if err := p.policy.BeforePersist(ctx, input, existing); err != nil {
			return zero, p.hookError(ctx, op, id, err)
		}
	}

	now := requestcontext.Now(ctx)
	meta.Touch(principal.Name, now)
	if err := p.repo.Update(ctx, input, principal.Name, now); err != nil {
		return zero, p.persistError(ctx, op, id, err)
	}

	p.audit.Updated(ctx, p.policy.EntityType, recordID(id), existing, input,
		fmt.Sprintf("%s %d updated", p.policy.Label, id))
	return input, nil
}

// Delete removes record id and returns what was removed.
func (p *Pipeline[E]) Delete(ctx context.Context, id int64) (_ E, err error) {
	ctx, finish := p.begin(ctx, audit.OpDelete)
	defer func() { finish(err) }()

	var zero E
	const op = audit.OpDelete
	principal, err := p.principal(ctx, op, id)
	if err != nil {
		return zero, err
	}
	p.audit.Attempted(ctx, p.policy.EntityType, op, recordID(id), fmt.Sprintf("%s %d delete attempt", p.policy.Label, id))

	existing, err := p.fetchAuthorized(ctx, principal, op, id)
	if err != nil {
		return zero, err
	}
	if err := p.rateLimit(ctx, principal, op, rlmodels.ActionDelete, id); err != nil {
		return zero, err
	}

	var scopeTenant *int64
	if p.policy.TenantScoped {
		scopeTenant = existing.Meta().PlantID
	}
	if err := p.repo.Delete(ctx, id, scopeTenant); err != nil {
		return zero, p.persistError(ctx, op, id, err)
	}

	p.audit.Deleted(ctx, p.policy.EntityType, recordID(id), existing,
		fmt.Sprintf("%s %d deleted", p.policy.Label, id))
	return existing, nil
}

// Exists reports whether value is already taken for a unique field. Used by
// forms for live duplicate hints; the answer is advisory.
func (p *Pipeline[E]) Exists(ctx context.Context, field, value string, excludeID int64) (_ bool, err error) {
	ctx, finish := p.begin(ctx, audit.OpExists)
	defer func() { finish(err) }()

	_, tenant, err := p.listScope(ctx, audit.OpExists)
	if err != nil {
		return false, err
	}
	rule, ok := p.policy.RuleFor(field)
	if !ok {
		return false, p.reject(ctx, audit.OpExists, audit.SuffixValidationFailed, 0,
			dErrors.Field(dErrors.CodeBadRequest, "field", "unknown field "+strconv.Quote(field)))
	}
	if !rule.PerTenant {
		tenant = nil
	}

	cleaned := p.sanitizer.Clean(value)
	if cleaned == "" {
		return false, nil
	}
	exists, err := p.repo.Exists(ctx, rule.Column, cleaned, excludeID, tenant)
	if err != nil {
		return false, p.fail(ctx, audit.OpExists, "", err)
	}
	p.audit.RecordAsync(ctx, audit.Entry{
		EntityType:  p.policy.EntityType,
		Action:      audit.Action(p.policy.EntityType, audit.OpExists, ""),
		Description: fmt.Sprintf("%s %s existence check", p.policy.Label, field),
	})
	return exists, nil
}

// RejectInput audits a request whose body, path or query could not be read
// and returns cause. Mutations get their attempt entry first, as in Create,
// Update and Delete, followed by one _VALIDATION_FAILED entry.
func (p *Pipeline[E]) RejectInput(ctx context.Context, op string, id int64, cause *dErrors.Error) (err error) {
	ctx, finish := p.begin(ctx, op)
	defer func() { finish(err) }()

	if _, err := p.principal(ctx, op, id); err != nil {
		return err
	}
	switch op {
	case audit.OpCreate, audit.OpUpdate, audit.OpDelete:
		p.audit.Attempted(ctx, p.policy.EntityType, op, recordID(id),
			fmt.Sprintf("%s %s attempt", p.policy.Label, lowerOp(op)))
	}
	return p.reject(ctx, op, audit.SuffixValidationFailed, id, cause)
}

// check runs sanitize, scan, validation and the uniqueness pre-check.
func (p *Pipeline[E]) check(ctx context.Context, op string, e E, id int64) error {
	p.sanitizer.CleanStruct(e)

	if field, ok := p.scanner.Check(e); !ok {
		p.logger.WarnContext(ctx, "unsafe content rejected",
			"entity", p.policy.EntityType, "op", op, "field", field, "log_type", "audit")
		return p.reject(ctx, op, audit.SuffixSecurityViolation, id,
			dErrors.Field(dErrors.CodeSecurityViolation, field, "contains content that is not allowed"))
	}

	fields := map[string]string{}
	if err := p.validator.Validate(e); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return p.fail(ctx, op, recordID(id), err)
		}
		for k, v := range verrs.Fields() {
			fields[k] = v
		}
	}
	if p.policy.Validate != nil {
		for k, v := range p.policy.Validate(e, requestcontext.Now(ctx)) {
			if _, taken := fields[k]; !taken {
				fields[k] = v
			}
		}
	}
	if len(fields) > 0 {
		return p.reject(ctx, op, audit.SuffixValidationFailed, id,
			&dErrors.Error{Code: dErrors.CodeValidation, Message: "validation failed", Fields: fields})
	}

	dups := map[string]string{}
	for _, rule := range p.policy.Uniques {
		value := rule.Value(e)
		if s, ok := value.(string); (ok && s == "") || value == nil {
			continue
		}
		var tenant *int64
		if rule.PerTenant {
			tenant = e.Meta().PlantID
		}
		exists, err := p.repo.Exists(ctx, rule.Column, value, id, tenant)
		if err != nil {
			return p.fail(ctx, op, recordID(id), err)
		}
		if exists {
			dups[rule.Field] = "already exists"
		}
	}
	if len(dups) > 0 {
		return p.reject(ctx, op, audit.SuffixDuplicate, id,
			&dErrors.Error{Code: dErrors.CodeConflict, Message: p.policy.Label + " already exists", Fields: dups})
	}
	return nil
}

func (p *Pipeline[E]) rateLimit(ctx context.Context, principal requestcontext.Principal, op string, action rlmodels.Action, id int64) error {
	rule, ok := p.policy.Rules.For(action)
	if !ok {
		return nil
	}
	// Store failures are logged by the limiter and fail open.
	res, _ := p.limiter.Allow(ctx, principal.Name, audit.Action(p.policy.EntityType, op, ""), rule)
	if res == nil || res.Allowed {
		return nil
	}
	derr := dErrors.New(dErrors.CodeRateLimited,
		fmt.Sprintf("too many %s requests, try again in a few minutes", lowerOp(op)))
	derr.RetryAfter = time.Duration(res.RetryAfter) * time.Second
	return p.reject(ctx, op, audit.SuffixRateLimited, id, derr)
}

// principal returns the caller or rejects the request as unauthorized.
func (p *Pipeline[E]) principal(ctx context.Context, op string, id int64) (requestcontext.Principal, error) {
	principal, ok := requestcontext.PrincipalFrom(ctx)
	if !ok {
		return principal, p.reject(ctx, op, audit.SuffixUnauthorized, id,
			dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
	}
	return principal, nil
}

// listScope resolves the tenant filter for collection reads.
func (p *Pipeline[E]) listScope(ctx context.Context, op string) (requestcontext.Principal, *int64, error) {
	principal, err := p.principal(ctx, op, 0)
	if err != nil {
		return principal, nil, err
	}
	if !p.policy.TenantScoped || p.bypasses(principal) {
		return principal, nil, nil
	}
	if !principal.HasTenant() {
		return principal, nil, p.reject(ctx, op, audit.SuffixUnauthorized, 0,
			dErrors.New(dErrors.CodeUnauthorized, "no plant assigned to the current user"))
	}
	return principal, principal.TenantID, nil
}

// fetchAuthorized loads id without a tenant filter and then authorizes it, so
// that a foreign record is audited as a plant denial rather than not found.
func (p *Pipeline[E]) fetchAuthorized(ctx context.Context, principal requestcontext.Principal, op string, id int64) (E, error) {
	var zero E
	existing, err := p.repo.GetByID(ctx, id, nil)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return zero, p.reject(ctx, op, audit.SuffixNotFound, id,
			dErrors.New(dErrors.CodeNotFound, MsgNotFound))
	case err != nil:
		return zero, p.fail(ctx, op, recordID(id), err)
	}
	if !p.policy.TenantScoped {
		return existing, nil
	}

	switch p.scope.Authorize(principal, existing.Meta().PlantID, p.policy.AllowScopeBypass) {
	case tmodels.DenyNoTenant:
		return zero, p.reject(ctx, op, audit.SuffixUnauthorized, id,
			dErrors.New(dErrors.CodeUnauthorized, "no plant assigned to the current user"))
	case tmodels.DenyMismatch:
		return zero, p.reject(ctx, op, audit.SuffixPlantDeny, id,
			dErrors.New(dErrors.CodeTenantDenied, MsgNotFound))
	}
	return existing, nil
}

func (p *Pipeline[E]) persistError(ctx context.Context, op string, id int64, err error) error {
	if uv, ok := sentinel.AsUniqueViolation(err); ok {
		derr := &dErrors.Error{Code: dErrors.CodeConflict, Message: p.policy.Label + " already exists", Err: err}
		if rule, ok := p.policy.ruleForConstraint(uv.Constraint); ok {
			derr = derr.WithField(rule.Field, "already exists")
		}
		return p.reject(ctx, op, audit.SuffixDuplicate, id, derr)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return p.reject(ctx, op, audit.SuffixNotFound, id, dErrors.New(dErrors.CodeNotFound, MsgNotFound))
	}
	return p.fail(ctx, op, recordID(id), err)
}

// hookError keeps validation errors raised by BeforePersist visible to the
// caller. Anything else is treated as an internal failure.
func (p *Pipeline[E]) hookError(ctx context.Context, op string, id int64, err error) error {
	if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeValidation {
		return p.reject(ctx, op, audit.SuffixValidationFailed, id, de)
	}
	return p.fail(ctx, op, recordID(id), err)
}

// reject audits a failure branch and returns err unchanged.
func (p *Pipeline[E]) reject(ctx context.Context, op, suffix string, id int64, err *dErrors.Error) error {
	desc := err.Message
	if len(err.Fields) > 0 {
		desc = fmt.Sprintf("%s: %v", desc, err.Fields)
	}
	p.audit.Rejected(ctx, p.policy.EntityType, op, suffix, recordID(id), desc)
	return err
}

// fail audits an unexpected error and hides its detail from the caller.
func (p *Pipeline[E]) fail(ctx context.Context, op, id string, err error) error {
	p.logger.ErrorContext(ctx, "pipeline operation failed",
		"entity", p.policy.EntityType, "op", op, "record_id", id, "error", err)
	p.audit.Rejected(ctx, p.policy.EntityType, op, audit.SuffixFailed, id, "unexpected failure")
	return dErrors.Wrap(err, dErrors.CodeInternal, "an unexpected error occurred, please try again")
}

func (p *Pipeline[E]) bypasses(principal requestcontext.Principal) bool {
	return p.policy.AllowScopeBypass && principal.BypassesTenantScope
}

func (p *Pipeline[E]) begin(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "pipeline."+op,
		trace.WithAttributes(attribute.String("entity", p.policy.EntityType)))
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = string(dErrors.CodeInternal)
			if de, ok := dErrors.As(err); ok {
				outcome = string(de.Code)
			}
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(attribute.String("outcome", outcome))
		span.End()
		if p.metrics != nil {
			p.metrics.observe(p.policy.EntityType, op, outcome, time.Since(start).Seconds())
		}
	}
}

func recordID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func copyTenant(t *int64) *int64 {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func isNil[E Entity](e E) bool {
	v := reflect.ValueOf(e)
	return !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil())
}

func lowerOp(op string) string {
	switch op {
	case audit.OpCreate:
		return "create"
	case audit.OpUpdate:
		return "edit"
	case audit.OpDelete:
		return "delete"
	}
	return op
}
