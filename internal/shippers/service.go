package shippers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hoangdh1/eCommerce/internal/repo"
	"github.com/hoangdh1/eCommerce/pkg/db/models"
	"github.com/hoangdh1/eCommerce/pkg/enums"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
)

// Service manages shipper records and availability.
type Service interface {
	CreateShipper(ctx context.Context, input CreateShipperInput) (*models.Shipper, error)
	GetShipper(ctx context.Context, id uuid.UUID) (*models.Shipper, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.ShipperStatus) (*models.Shipper, error)
	ListShippers(ctx context.Context) ([]models.Shipper, error)
}

// CreateShipperInput is the validated onboarding payload.
type CreateShipperInput struct {
	Username string
	Email    string
	Phone    *string
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipper repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateShipper(ctx context.Context, input CreateShipperInput) (*models.Shipper, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and email are required")
	}
	shipper := &models.Shipper{
		Username: username,
		Email:    email,
		Phone:    input.Phone,
		Status:   enums.ShipperStatusActive,
	}
	if _, err := s.repo.Create(ctx, shipper); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipper")
	}
	return shipper, nil
}

func (s *service) GetShipper(ctx context.Context, id uuid.UUID) (*models.Shipper, error) {
	shipper, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "shipper")
	}
	return shipper, nil
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.ShipperStatus) (*models.Shipper, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid shipper status %q", status))
	}
	rows, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipper status")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipper not found")
	}
	return s.GetShipper(ctx, id)
}

func (s *service) ListShippers(ctx context.Context) ([]models.Shipper, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shippers")
	}
	return rows, nil
}
