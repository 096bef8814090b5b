package fodapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/waitutil"
)

type ReportService struct {
	client *Client
}

func (c *Client) Reports() *ReportService {
	return &ReportService{client: c}
}

func (s *ReportService) Create(ctx context.Context, req CreateReportRequest) (*CreateReportResponse, error) {
	var out CreateReportResponse
	if err := s.client.do(ctx, http.MethodPost, "api/v3/reports", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ReportService) Get(ctx context.Context, reportID int) (*Report, error) {
	var out Report
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("api/v3/reports/%d", reportID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ReportService) Download(ctx context.Context, reportID int) ([]byte, error) {
	return s.client.download(ctx, fmt.Sprintf("api/v3/reports/%d/download", reportID))
}

// WaitForCompleted polls the report until its status is Completed.
func (s *ReportService) WaitForCompleted(ctx context.Context, reportID int, timeout, interval time.Duration) (*Report, error) {
	var last *Report
	_, err := waitutil.WaitFor(ctx, waitutil.Equals, string(dto.ReportStatusCompleted), func() (string, error) {
		r, err := s.Get(ctx, reportID)
		if err != nil {
			return "", err
		}
		last = r
		return r.ReportStatusType, nil
	}, timeout, true, waitutil.WithInterval(interval))
	if err != nil {
		return last, fmt.Errorf("report %d: %w", reportID, err)
	}
	return last, nil
}

// WaitForStatus repeats call until it answers with status or timeout elapses,
// and returns the last response. Calls that fail to send count as not yet.
func (c *Client) WaitForStatus(ctx context.Context, status int, timeout, interval time.Duration, call func(context.Context) (*Response, error)) (*Response, error) {
	var last *Response
	_, err := waitutil.WaitFor(ctx, waitutil.Equals, status, func() (int, error) {
		resp, err := call(ctx)
		if err != nil {
			return 0, err
		}
		last = resp
		return resp.StatusCode, nil
	}, timeout, true, waitutil.WithInterval(interval))
	return last, err
}
