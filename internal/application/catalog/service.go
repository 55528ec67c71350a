package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/servicelink-api/internal/domain"
	"github.com/servicelink-api/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldCategoryID  = "category_id"
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldPrice       = "price"
	fieldActive      = "active"
	fieldName        = "name"
	fieldEnable      = "enable"
)

type Service interface {
	ListServices(ctx context.Context, filter domain.ServiceFilter) ([]domain.Service, error)
	GetService(ctx context.Context, serviceID string) (*domain.Service, error)
	CreateService(ctx context.Context, actor domain.Actor, req domain.CreateServiceRequest) (*domain.Service, error)
	UpdateService(ctx context.Context, actor domain.Actor, serviceID string, req domain.UpdateServiceRequest) (*domain.Service, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, actor domain.Actor, input domain.CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, actor domain.Actor, categoryID string, input domain.CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, actor domain.Actor, categoryID string) error
}

type serviceStore interface {
	Put(ctx context.Context, s *domain.Service) error
	Get(ctx context.Context, serviceID string) (*domain.Service, error)
	List(ctx context.Context, filter domain.ServiceFilter) ([]domain.Service, error)
	Update(ctx context.Context, serviceID string, updates map[string]interface{}) error
}

type categoryStore interface {
	Put(ctx context.Context, c *domain.Category) error
	Get(ctx context.Context, categoryID string) (*domain.Category, error)
	Scan(ctx context.Context) ([]domain.Category, error)
	Update(ctx context.Context, categoryID string, updates map[string]interface{}) error
	HardDelete(ctx context.Context, categoryID string) error
}

type service struct {
	services   serviceStore
	categories categoryStore
}

func NewService(services serviceStore, categories categoryStore) Service {
	return &service{services: services, categories: categories}
}

func (s *service) ListServices(ctx context.Context, filter domain.ServiceFilter) ([]domain.Service, error) {
	return s.services.List(ctx, filter)
}

func (s *service) GetService(ctx context.Context, serviceID string) (*domain.Service, error) {
	return s.services.Get(ctx, serviceID)
}

func (s *service) CreateService(ctx context.Context, actor domain.Actor, req domain.CreateServiceRequest) (*domain.Service, error) {
	if _, err := s.categories.Get(ctx, req.CategoryID); err != nil {
		return nil, fmt.Errorf("category %s: %w", req.CategoryID, domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	svc := &domain.Service{
		ServiceID:   id.New(),
		ProviderID:  actor.UserID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.services.Put(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *service) UpdateService(ctx context.Context, actor domain.Actor, serviceID string, req domain.UpdateServiceRequest) (*domain.Service, error) {
	svc, err := s.services.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.ProviderID != actor.UserID && !actor.IsAdmin() {
		return nil, fmt.Errorf("not the service owner: %w", domain.ErrForbidden)
	}
	updates := map[string]interface{}{}
	if req.CategoryID != nil {
		if _, err := s.categories.Get(ctx, *req.CategoryID); err != nil {
			return nil, fmt.Errorf("category %s: %w", *req.CategoryID, domain.ErrBadRequest)
		}
		updates[fieldCategoryID] = *req.CategoryID
	}
	if req.Title != nil {
		updates[fieldTitle] = *req.Title
	}
	if req.Description != nil {
		updates[fieldDescription] = *req.Description
	}
	if req.Price != nil {
		updates[fieldPrice] = *req.Price
	}
	if req.Active != nil {
		updates[fieldActive] = *req.Active
	}
	if len(updates) == 0 {
		return svc, nil
	}
	if err := s.services.Update(ctx, serviceID, updates); err != nil {
		return nil, err
	}
	return s.services.Get(ctx, serviceID)
}

func (s *service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.Scan(ctx)
}

func (s *service) CreateCategory(ctx context.Context, actor domain.Actor, input domain.CategoryInput) (*domain.Category, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("admin only: %w", domain.ErrForbidden)
	}
	c := &domain.Category{
		CategoryID: id.New(),
		Name:       input.Name,
		Enable:     true,
	}
	if err := s.categories.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) UpdateCategory(ctx context.Context, actor domain.Actor, categoryID string, input domain.CategoryInput) (*domain.Category, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("admin only: %w", domain.ErrForbidden)
	}
	if _, err := s.categories.Get(ctx, categoryID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{fieldName: input.Name}
	if input.Enable != nil {
		updates[fieldEnable] = *input.Enable
	}
	if err := s.categories.Update(ctx, categoryID, updates); err != nil {
		return nil, err
	}
	return s.categories.Get(ctx, categoryID)
}

func (s *service) DeleteCategory(ctx context.Context, actor domain.Actor, categoryID string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("admin only: %w", domain.ErrForbidden)
	}
	if _, err := s.categories.Get(ctx, categoryID); err != nil {
		return err
	}
	return s.categories.HardDelete(ctx, categoryID)
}
