package pages

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/testerr"
)

const (
	selIssuesList        = "#issuesList"
	selIssueRows         = "#issuesList .issue-row"
	selIssueGroupHeaders = "#issuesList .group-header"
	selIssueCount        = "#issuesList .issue-count"
	selSeverityFilter    = "#severityFilter [data-severity=%q]"

	selIssuePanel         = "#issueDetails"
	selIssueAuditorStatus = "#issueDetails #auditorStatus"
	selIssueComment       = "#issueDetails #auditComment"
	selIssueSave          = "#issueDetails .btn-save-audit"
	selIssueSeverity      = "#issueDetails .issue-severity"
)

// ReleaseIssuesPage lists the issues found in a release.
type ReleaseIssuesPage struct {
	page
}

// FilterBySeverity narrows the list to one severity.
func (r *ReleaseIssuesPage) FilterBySeverity(sev dto.Severity) error {
	if err := r.d.Click(fmt.Sprintf(selSeverityFilter, string(sev))); err != nil {
		return err
	}
	return r.waitLoaded()
}

// IssueCount returns the total shown in the list header.
func (r *ReleaseIssuesPage) IssueCount() (int, error) {
	text, err := r.d.Text(selIssueCount)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.Trim(text, "()")))
	if err != nil {
		return 0, testerr.UnexpectedConditions("issue count %q is not a number", text)
	}
	return n, nil
}

func (r *ReleaseIssuesPage) GroupHeaders() ([]string, error) {
	return r.d.Texts(selIssueGroupHeaders)
}

// OpenIssue opens the details panel of the i-th listed issue.
func (r *ReleaseIssuesPage) OpenIssue(i int) (*IssueDetailsPanel, error) {
	n, err := r.d.Count(selIssueRows)
	if err != nil {
		return nil, err
	}
	if i >= n {
		return nil, testerr.ElementNotFound(fmt.Sprintf("issue #%d of %d", i, n), selIssueRows)
	}
	if err := r.open(fmt.Sprintf("%s:nth-of-type(%d)", selIssueRows, i+1), selIssuePanel); err != nil {
		return nil, err
	}
	return &IssueDetailsPanel{page: r.page}, nil
}

// IssueDetailsPanel is the audit side panel of an issue.
type IssueDetailsPanel struct {
	page
}

func (p *IssueDetailsPanel) Severity() (dto.Severity, error) {
	text, err := p.d.Text(selIssueSeverity)
	if err != nil {
		return "", err
	}
	sev, ok := matchStatus(text, dto.Severities)
	if !ok {
		return "", testerr.UnexpectedConditions("unknown severity %q", text)
	}
	return sev, nil
}

func (p *IssueDetailsPanel) SetAuditorStatus(s dto.AuditorStatus) error {
	return p.d.SelectOption(selIssueAuditorStatus, string(s))
}

func (p *IssueDetailsPanel) SetComment(c string) error {
	return p.fill(selIssueComment, c)
}

func (p *IssueDetailsPanel) Save() error {
	if err := p.d.Click(selIssueSave); err != nil {
		return err
	}
	return p.waitLoaded()
}
