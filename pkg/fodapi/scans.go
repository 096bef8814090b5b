package fodapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultFragmentSize is the chunk size of scan payload uploads.
const DefaultFragmentSize = 1 << 20

// upload sends payload in fragments. Every fragment carries its byte offset;
// fragments are numbered from 0 and the last one is numbered -1. The response
// of the last fragment, or of the first rejected one, is returned.
func (c *Client) upload(ctx context.Context, method, endpoint string, params url.Values, payload []byte) (*Response, error) {
	size := c.fragmentSize
	if size <= 0 {
		size = DefaultFragmentSize
	}
	for fragNo, offset := 0, 0; ; fragNo++ {
		end := offset + size
		last := end >= len(payload)
		if last {
			end = len(payload)
		}
		q := url.Values{}
		for k, v := range params {
			q[k] = v
		}
		if last {
			q.Set("fragNo", "-1")
		} else {
			q.Set("fragNo", strconv.Itoa(fragNo))
		}
		q.Set("offset", strconv.Itoa(offset))

		resp, err := c.Do(ctx, method, withQuery(endpoint, q), payload[offset:end])
		if err != nil {
			return nil, err
		}
		if last || !resp.OK() {
			return resp, nil
		}
		offset = end
	}
}

func (c *Client) uploadJSON(ctx context.Context, method, endpoint string, params url.Values, payload io.Reader, out any) error {
	data, err := readPayload(payload)
	if err != nil {
		return err
	}
	return c.uploadBytes(ctx, method, endpoint, params, data, out)
}

func (c *Client) uploadBytes(ctx context.Context, method, endpoint string, params url.Values, data []byte, out any) error {
	resp, err := c.upload(ctx, method, endpoint, params, data)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return c.apiError(method, endpoint, resp)
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.JSON(out)
}

type ScanService struct {
	client *Client
}

func (c *Client) Scans() *ScanService {
	return &ScanService{client: c}
}

func (s *ScanService) Summary(ctx context.Context, scanID int) (*ScanSummary, error) {
	var out ScanSummary
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("api/v3/scans/%d/summary", scanID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadManifest returns the scan manifest text file.
func (s *ScanService) DownloadManifest(ctx context.Context, scanID int) ([]byte, error) {
	return s.client.download(ctx, fmt.Sprintf("api/v3/scans/%d/manifest", scanID))
}

// SiteTree lists the crawled pages of a dynamic scan.
func (s *ScanService) SiteTree(ctx context.Context, scanID int) (*ListResponse[SiteTreeNode], error) {
	var out ListResponse[SiteTreeNode]
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("api/v3/scans/%d/site-tree", scanID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type StaticScanService struct {
	client *Client
}

func (c *Client) StaticScans() *StaticScanService {
	return &StaticScanService{client: c}
}

func (s *StaticScanService) SetupDetails(ctx context.Context, releaseID int) (*StaticScanSetup, error) {
	var out StaticScanSetup
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("api/v3/releases/%d/static-scans/scan-setup", releaseID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *StaticScanService) SaveSetup(ctx context.Context, releaseID int, setup StaticScanSetup) error {
	return s.client.do(ctx, http.MethodPut, fmt.Sprintf("api/v3/releases/%d/static-scans/scan-setup", releaseID), setup, nil)
}

// StartScan uploads a source payload and starts a static scan.
func (s *StaticScanService) StartScan(ctx context.Context, releaseID int, req StartStaticScanRequest, payload io.Reader) (*StartScanResponse, error) {
	var out StartScanResponse
	endpoint := fmt.Sprintf("api/v3/releases/%d/static-scans/start-scan", releaseID)
	if err := s.client.uploadJSON(ctx, http.MethodPost, endpoint, req.values(), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartScanWithDefaults starts a static scan using the saved scan setup.
func (s *StaticScanService) StartScanWithDefaults(ctx context.Context, releaseID int, payload io.Reader) (*StartScanResponse, error) {
	var out StartScanResponse
	endpoint := fmt.Sprintf("api/v3/releases/%d/static-scans/start-scan-with-defaults", releaseID)
	params := url.Values{}
	params.Set("releaseId", strconv.Itoa(releaseID))
	if err := s.client.uploadJSON(ctx, http.MethodPost, endpoint, params, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImportScan uploads the FPR of a static scan run elsewhere, for example a
// prepared result set that reports are generated from.
func (s *StaticScanService) ImportScan(ctx context.Context, releaseID int, fpr io.Reader) (*ImportScanResponse, error) {
	return s.client.importScan(ctx, releaseID, "static-scans", fpr)
}

func (r StartStaticScanRequest) values() url.Values {
	params := url.Values{}
	setInt(params, "assessmentTypeId", r.AssessmentTypeID)
	setInt(params, "entitlementId", r.EntitlementID)
	setString(params, "entitlementFrequencyType", r.EntitlementFrequencyType)
	setString(params, "technologyStack", r.TechnologyStack)
	setString(params, "languageLevel", r.LanguageLevel)
	setString(params, "auditPreferenceType", r.AuditPreferenceType)
	setString(params, "scanMethodType", r.ScanMethodType)
	setString(params, "scanTool", r.ScanTool)
	params.Set("isRemediationScan", strconv.FormatBool(r.IsRemediationScan))
	return params
}

type DynamicScanService struct {
	client *Client
}

func (c *Client) DynamicScans() *DynamicScanService {
	return &DynamicScanService{client: c}
}

func (s *DynamicScanService) SaveSetup(ctx context.Context, releaseID int, setup DynamicScanSetup) error {
	return s.client.do(ctx, http.MethodPut, fmt.Sprintf("api/v3/releases/%d/dynamic-scans/scan-setup", releaseID), setup, nil)
}

func (s *DynamicScanService) Start(ctx context.Context, releaseID int, req StartDynamicScanRequest) (*StartScanResponse, error) {
	var out StartScanResponse
	if err := s.client.do(ctx, http.MethodPost, fmt.Sprintf("api/v3/releases/%d/dynamic-scans/start-scan", releaseID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImportScan opens an import session and uploads an FPR of a dynamic scan
// run elsewhere.
func (s *DynamicScanService) ImportScan(ctx context.Context, releaseID int, fpr io.Reader) (*ImportScanResponse, error) {
	return s.client.importScan(ctx, releaseID, "dynamic-scans", fpr)
}

// importScan runs the session-then-upload import of kind ("static-scans" or
// "dynamic-scans").
func (c *Client) importScan(ctx context.Context, releaseID int, kind string, fpr io.Reader) (*ImportScanResponse, error) {
	var session ImportScanSession
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("api/v3/releases/%d/%s/import-scan-session-id", releaseID, kind), nil, &session); err != nil {
		return nil, err
	}
	data, err := readPayload(fpr)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("importScanSessionId", session.ImportScanSessionID)
	params.Set("fileLength", strconv.Itoa(len(data)))

	var out ImportScanResponse
	endpoint := fmt.Sprintf("api/v3/releases/%d/%s/import-scan", releaseID, kind)
	if err := c.uploadBytes(ctx, http.MethodPut, endpoint, params, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type MobileScanService struct {
	client *Client
}

func (c *Client) MobileScans() *MobileScanService {
	return &MobileScanService{client: c}
}

func (s *MobileScanService) SaveSetup(ctx context.Context, releaseID int, setup MobileScanSetup) error {
	return s.client.do(ctx, http.MethodPut, fmt.Sprintf("api/v3/releases/%d/mobile-scans/scan-setup", releaseID), setup, nil)
}

// StartScan uploads a mobile binary. A zero StartDate starts the scan now.
func (s *MobileScanService) StartScan(ctx context.Context, releaseID int, req StartMobileScanRequest, binary io.Reader) (*StartScanResponse, error) {
	var out StartScanResponse
	endpoint := fmt.Sprintf("api/v3/releases/%d/mobile-scans/start-scan", releaseID)
	if err := s.client.uploadJSON(ctx, http.MethodPost, endpoint, req.values(), binary, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MobileStartDateLayout is the product's start date format for mobile scans.
const MobileStartDateLayout = "01/02/2006 15:04"

func (r StartMobileScanRequest) values() url.Values {
	start := r.StartDate
	if start.IsZero() {
		start = time.Now().Add(10 * time.Second)
	}
	params := url.Values{}
	params.Set("startDate", start.Format(MobileStartDateLayout))
	setInt(params, "assessmentTypeId", r.AssessmentTypeID)
	setInt(params, "entitlementId", r.EntitlementID)
	setString(params, "entitlementFrequencyType", r.EntitlementFrequencyType)
	setString(params, "timeZone", r.TimeZone)
	setString(params, "frameworkType", r.FrameworkType)
	setString(params, "platformType", r.PlatformType)
	params.Set("isRemediationScan", strconv.FormatBool(r.IsRemediationScan))
	return params
}

type OpenSourceScanService struct {
	client *Client
}

func (c *Client) OpenSourceScans() *OpenSourceScanService {
	return &OpenSourceScanService{client: c}
}

// StartScan uploads a dependency manifest archive for software composition
// analysis.
func (s *OpenSourceScanService) StartScan(ctx context.Context, releaseID int, payload io.Reader) (*StartScanResponse, error) {
	var out StartScanResponse
	endpoint := fmt.Sprintf("api/v3/releases/%d/open-source-scans/start-scan", releaseID)
	if err := s.client.uploadJSON(ctx, http.MethodPost, endpoint, url.Values{}, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type OpenSourceComponentService struct {
	client *Client
}

func (c *Client) OpenSourceComponents() *OpenSourceComponentService {
	return &OpenSourceComponentService{client: c}
}

// DownloadSBOM returns the CycloneDX bill of materials of an open source scan.
func (s *OpenSourceComponentService) DownloadSBOM(ctx context.Context, scanID int) ([]byte, error) {
	return s.client.download(ctx, fmt.Sprintf("api/v3/open-source-scans/%d/sbom", scanID))
}

func setInt(params url.Values, key string, v int) {
	if v != 0 {
		params.Set(key, strconv.Itoa(v))
	}
}

func setString(params url.Values, key, v string) {
	if v != "" {
		params.Set(key, v)
	}
}

func readPayload(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, errors.New("payload is required")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return data, nil
}
