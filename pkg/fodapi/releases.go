package fodapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fodqa/fod-regression/pkg/dto"
)

type ReleaseService struct {
	client *Client
}

func (c *Client) Releases() *ReleaseService {
	return &ReleaseService{client: c}
}

func (s *ReleaseService) Get(ctx context.Context, releaseID int) (*Release, error) {
	var out Release
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("api/v3/releases/%d", releaseID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ReleaseService) Scans(ctx context.Context, releaseID int, opts ListOptions) (*ListResponse[Scan], error) {
	endpoint := withQuery(fmt.Sprintf("api/v3/releases/%d/scans", releaseID), opts.values())
	var out ListResponse[Scan]
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ReleaseService) Scan(ctx context.Context, releaseID, scanID int) (*Scan, error) {
	var out Scan
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("api/v3/releases/%d/scans/%d", releaseID, scanID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type VulnerabilityService struct {
	client *Client
}

func (c *Client) Vulnerabilities() *VulnerabilityService {
	return &VulnerabilityService{client: c}
}

func (s *VulnerabilityService) ByRelease(ctx context.Context, releaseID int, opts ListOptions) (*ListResponse[Vulnerability], error) {
	endpoint := withQuery(fmt.Sprintf("api/v3/releases/%d/vulnerabilities", releaseID), opts.values())
	var out ListResponse[Vulnerability]
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type AssessmentTypeService struct {
	client *Client
}

func (c *Client) AssessmentTypes() *AssessmentTypeService {
	return &AssessmentTypeService{client: c}
}

func (s *AssessmentTypeService) List(ctx context.Context, releaseID int, scanType dto.ScanType) ([]AssessmentType, error) {
	params := url.Values{}
	params.Set("scanType", strings.ReplaceAll(string(scanType), " ", ""))
	endpoint := withQuery(fmt.Sprintf("api/v3/releases/%d/assessment-types", releaseID), params)
	var out ListResponse[AssessmentType]
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// AssessmentIDByScanTypeAndName returns the id of the named assessment type
// available to a release. Names are compared case-insensitively.
func (s *AssessmentTypeService) AssessmentIDByScanTypeAndName(ctx context.Context, releaseID int, scanType dto.ScanType, name string) (int, error) {
	types, err := s.List(ctx, releaseID, scanType)
	if err != nil {
		return 0, err
	}
	for _, t := range types {
		if strings.EqualFold(t.Name, name) {
			return t.AssessmentTypeID, nil
		}
	}
	return 0, fmt.Errorf("no %s assessment type %q for release %d", scanType, name, releaseID)
}
