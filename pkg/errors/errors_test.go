package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := map[Code]Metadata{
		CodeValidation:         {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true},
		CodeUnauthorized:       {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required"},
		CodeForbidden:          {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
		CodeNotFound:           {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
		CodeConflict:           {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected"},
		CodeOutOfStock:         {HTTPStatus: http.StatusConflict, PublicMessage: "insufficient stock", DetailsAllowed: true},
		CodeInvalidState:       {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "order not in required state", DetailsAllowed: true},
		CodeInvalidTransition:  {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "status transition disallowed", DetailsAllowed: true},
		CodeShipperUnavailable: {HTTPStatus: http.StatusConflict, PublicMessage: "shipper unavailable"},
		CodeInvalidWindow:      {HTTPStatus: http.StatusBadRequest, PublicMessage: "invalid schedule window", DetailsAllowed: true},
		CodeInternal:           {HTTPStatus: http.StatusInternalServerError, PublicMessage: "internal server error", Retryable: true},
		CodeDependency:         {HTTPStatus: http.StatusServiceUnavailable, PublicMessage: "dependency unavailable", Retryable: true, DetailsAllowed: true},
	}
	for code, want := range tests {
		if got := MetadataFor(code); got != want {
			t.Errorf("code %s: want %+v, got %+v", code, want, got)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	if got := MetadataFor("SOMETHING_UNKNOWN"); got != MetadataFor(CodeInternal) {
		t.Fatalf("expected internal metadata, got %+v", got)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeFollowsWrappedChain(t *testing.T) {
	err := fmt.Errorf("reserve: %w", New(CodeOutOfStock, "not enough units"))
	if !IsCode(err, CodeOutOfStock) {
		t.Fatalf("expected out of stock code through fmt wrap")
	}
	if IsCode(err, CodeConflict) {
		t.Fatalf("unexpected conflict match")
	}
	if IsCode(nil, CodeOutOfStock) {
		t.Fatalf("nil error should not match")
	}
}

func TestDumpCapturesPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "products_name_key",
		TableName:      "products",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeDependency, pgErr, "insert product")

	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	pg := dump.Postgres
	if pg == nil || pg.Code != "23505" || pg.Constraint != "products_name_key" || pg.Table != "products" {
		t.Fatalf("postgres fields not captured: %+v", pg)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected chain of 2 entries, got %d", len(dump.Chain))
	}

	fields := dump.Fields()
	if fields["pg_code"] != "23505" || fields["error_code"] != CodeDependency {
		t.Fatalf("unexpected log fields: %+v", fields)
	}
	if _, ok := fields["pg_column"]; ok {
		t.Fatal("empty postgres column should be omitted")
	}
}

func TestDumpPlainError(t *testing.T) {
	fields := Dump(New(CodeNotFound, "missing")).Fields()
	if fields["error"] != New(CodeNotFound, "missing").Error() {
		t.Fatalf("unexpected message field: %+v", fields)
	}
	if _, ok := fields["pg_code"]; ok {
		t.Fatal("plain errors carry no postgres fields")
	}
	if Dump(nil).Message != "" {
		t.Fatal("nil error should produce an empty dump")
	}
}
