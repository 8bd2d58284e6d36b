package repo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/hoangdh1/eCommerce/pkg/db/dbtest"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
)

func TestNewBaseStoresConnection(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	if base.db != db {
		t.Fatalf("expected base db to match provided connection")
	}
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)

	if withCtx == nil || withCtx.Statement == nil {
		t.Fatalf("expected statement created after WithContext")
	}
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", withCtx.Statement.Context)
	}

	//nolint:staticcheck // nil context is part of the contract
	if withoutCtx := base.DB(nil); withoutCtx != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBaseBind(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)
	if base.Bind(nil).db != db {
		t.Fatalf("nil tx should keep the original handle")
	}
	tx := db.Session(&gorm.Session{})
	if base.Bind(tx).db != tx {
		t.Fatalf("expected tx to be bound")
	}
}

func TestTranslate(t *testing.T) {
	if Translate(nil, "order") != nil {
		t.Fatalf("nil should stay nil")
	}

	notFound := pkgerrors.As(Translate(gorm.ErrRecordNotFound, "order"))
	if notFound == nil || notFound.Code() != pkgerrors.CodeNotFound || notFound.Message() != "order not found" {
		t.Fatalf("unexpected not found mapping: %v", notFound)
	}

	dep := pkgerrors.As(Translate(errors.New("conn reset"), "order"))
	if dep == nil || dep.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency code, got %v", dep)
	}

	typed := pkgerrors.New(pkgerrors.CodeOutOfStock, "short")
	if Translate(typed, "order") != error(typed) {
		t.Fatalf("typed errors should pass through")
	}
}
