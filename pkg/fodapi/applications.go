package fodapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/fodqa/fod-regression/pkg/dto"
)

type ApplicationService struct {
	client *Client
}

func (c *Client) Applications() *ApplicationService {
	return &ApplicationService{client: c}
}

func (o ListOptions) values() url.Values {
	params := url.Values{}
	if o.Filters != "" {
		params.Set("filters", o.Filters)
	}
	if o.OrderBy != "" {
		params.Set("orderBy", o.OrderBy)
	}
	if o.Offset > 0 {
		params.Set("offset", strconv.Itoa(o.Offset))
	}
	if o.Limit > 0 {
		params.Set("limit", strconv.Itoa(o.Limit))
	}
	return params
}

func withQuery(endpoint string, params url.Values) string {
	if encoded := params.Encode(); encoded != "" {
		return fmt.Sprintf("%s?%s", endpoint, encoded)
	}
	return endpoint
}

func (s *ApplicationService) List(ctx context.Context, opts ListOptions) (*ListResponse[Application], error) {
	var out ListResponse[Application]
	if err := s.client.do(ctx, http.MethodGet, withQuery("api/v3/applications", opts.values()), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByName returns the application called name, or nil when there is none.
func (s *ApplicationService) FindByName(ctx context.Context, name string) (*Application, error) {
	list, err := s.List(ctx, ListOptions{Filters: "applicationName:" + name})
	if err != nil {
		return nil, err
	}
	for i := range list.Items {
		if list.Items[i].ApplicationName == name {
			return &list.Items[i], nil
		}
	}
	return nil, nil
}

func (s *ApplicationService) Create(ctx context.Context, req CreateApplicationRequest) (*CreateApplicationResponse, error) {
	if req.Attributes == nil {
		req.Attributes = []Attribute{}
	}
	var out CreateApplicationResponse
	if err := s.client.do(ctx, http.MethodPost, "api/v3/applications", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ApplicationService) Delete(ctx context.Context, applicationID int) error {
	return s.client.do(ctx, http.MethodDelete, fmt.Sprintf("api/v3/applications/%d", applicationID), nil, nil)
}

func (s *ApplicationService) Scans(ctx context.Context, applicationID int, opts ListOptions) (*ListResponse[Scan], error) {
	endpoint := withQuery(fmt.Sprintf("api/v3/applications/%d/scans", applicationID), opts.values())
	var out ListResponse[Scan]
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuditTemplates lists the audit templates of an application for one scan type.
func (s *ApplicationService) AuditTemplates(ctx context.Context, applicationID int, scanType dto.ScanType) ([]AuditTemplate, error) {
	params := url.Values{}
	params.Set("scanType", string(scanType))
	endpoint := withQuery(fmt.Sprintf("api/v3/applications/%d/auditTemplates", applicationID), params)
	var out []AuditTemplate
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NewCreateApplicationRequest converts a wizard DTO to its API payload. The
// attribute ids are resolved by the caller; names are matched case-sensitively.
func NewCreateApplicationRequest(app *dto.Application, ownerID int, attributeIDs map[string]int) CreateApplicationRequest {
	req := CreateApplicationRequest{
		ApplicationName:         app.ApplicationName,
		ApplicationDescription:  app.Description,
		ApplicationType:         apiAppType(app.AppType),
		ReleaseName:             app.ReleaseName,
		OwnerID:                 ownerID,
		Attributes:              []Attribute{},
		BusinessCriticalityType: string(app.BusinessCriticality),
		SdlcStatusType:          apiSdlc(app.Sdlc),
		HasMicroservices:        app.MicroservicesEnabled,
	}
	if app.MicroservicesEnabled {
		req.Microservices = app.Microservices
		req.ReleaseMicroserviceName = app.MicroserviceToChoose
	}
	names := make([]string, 0, len(app.Attributes))
	for name := range app.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if id, ok := attributeIDs[name]; ok {
			req.Attributes = append(req.Attributes, Attribute{ID: id, Name: name, Value: app.Attributes[name]})
		}
	}
	return req
}

func apiAppType(t dto.AppType) string {
	switch t {
	case dto.AppTypeMobile:
		return "Mobile"
	case dto.AppTypeWeb:
		return "Web_Thick_Client"
	default:
		return string(t)
	}
}

func apiSdlc(s dto.Sdlc) string {
	if s == dto.SdlcQaTest {
		return "QA"
	}
	return string(s)
}
