package services

import (
	"context"
	"net/http"

	"mcpadmin/models"
	"mcpadmin/utils/logger"

	"github.com/go-playground/validator/v10"
)

// OrganizationService calls the bearer-authenticated organization endpoints
type OrganizationService struct {
	api       *APIClient
	validator *validator.Validate
	logger    logger.Logger
}

// NewOrganizationService expects api to be backed by the bearer client
func NewOrganizationService(api *APIClient, log logger.Logger) *OrganizationService {
	return &OrganizationService{
		api:       api,
		validator: validator.New(),
		logger:    log,
	}
}

func (s *OrganizationService) CreateOrganization(ctx context.Context, req models.CreateOrganizationRequest) (*models.Organization, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	res, err := s.api.send(ctx, http.MethodPost, "/v1/organizations/", req, "")
	if err != nil {
		return nil, transportError("create organization", models.ErrRequestFailed, err)
	}
	if !res.OK() {
		return nil, requestError("create organization", models.ErrRequestFailed, res, "Failed to create organization")
	}

	var org models.Organization
	if err := res.decode(&org); err != nil {
		return nil, err
	}
	s.logger.Infof("Created organization %s (%s)", org.Name, org.OrganizationID)
	return &org, nil
}
