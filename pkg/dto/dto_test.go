package dto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	tests := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"application", NewApplication()},
		{"mobile application", NewMobileApplication()},
		{"microservice application", NewMicroserviceApplication()},
		{"tenant", NewTenant()},
		{"entitlement", NewEntitlement()},
		{"tenant user", NewTenantUser()},
		{"access token", NewPersonalAccessToken()},
		{"attribute", NewAttribute()},
		{"webhook", NewWebhook()},
		{"report", NewReport()},
		{"data export", NewDataExport()},
		{"scans export", NewDataExportWithTemplate(ExportScans)},
		{"static scan", NewStaticScan()},
		{"dynamic scan", NewDynamicScan()},
		{"mobile scan", NewMobileScan()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, tt.v.Validate())
		})
	}
}

func TestDefaultNamesAreUnique(t *testing.T) {
	a, b := NewApplication(), NewApplication()
	assert.NotEqual(t, a.ApplicationName, b.ApplicationName)
	assert.NotEqual(t, a.ReleaseName, b.ReleaseName)
	assert.True(t, strings.HasPrefix(a.ApplicationName, "WebApp"))
}

func TestMobileApplicationSharesTag(t *testing.T) {
	a := NewMobileApplication()
	assert.Equal(t, AppTypeMobile, a.AppType)
	assert.Equal(t, strings.TrimPrefix(a.ReleaseName, "Release"), strings.TrimPrefix(a.ApplicationName, "MobileApp"))
}

func TestMicroserviceApplication(t *testing.T) {
	a := NewMicroserviceApplication()
	require.Len(t, a.Microservices, 1)
	assert.Equal(t, a.Microservices[0], a.MicroserviceToChoose)

	a.MicroserviceToChoose = "other"
	assert.ErrorContains(t, a.Validate(), "is not one of")
}

func TestApplicationValidateRejectsUnknownEnums(t *testing.T) {
	a := NewApplication()
	a.Sdlc = "Staging"
	a.BusinessCriticality = "Extreme"
	err := a.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown SDLC status "Staging"`)
	assert.Contains(t, err.Error(), `unknown business criticality "Extreme"`)
}

func TestEntitlementValidate(t *testing.T) {
	e := NewEntitlement()
	assert.Equal(t, e.StartDate.AddDate(1, 0, 0), e.EndDate)

	e.QuantityPurchased = 0
	e.EndDate = e.StartDate
	err := e.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity purchased")
	assert.Contains(t, err.Error(), "end date")
}

func TestTenantValidatePropagatesEntitlement(t *testing.T) {
	tn := NewTenant()
	tn.Entitlement.EntitlementType = "Gold"
	assert.ErrorContains(t, tn.Validate(), "entitlement: unknown entitlement type")

	tn = NewTenant()
	tn.TenantCode = "has space"
	assert.ErrorContains(t, tn.Validate(), "must not contain spaces")
}

func TestPersonalAccessTokenScopes(t *testing.T) {
	p := NewPersonalAccessToken()
	p.Scopes = append(p.Scopes, ScopeStartScans, "launch-rockets")
	assert.ErrorContains(t, p.Validate(), `unknown scope "launch-rockets"`)

	p.Scopes = nil
	assert.ErrorContains(t, p.Validate(), "at least one scope")
}

func TestAttributePicklistNeedsValues(t *testing.T) {
	a := NewAttribute()
	a.AttributeDataType = AttributeDataPicklist
	assert.Error(t, a.Validate())
	a.PickListValues = []string{"A", "B"}
	assert.NoError(t, a.Validate())
}

func TestWebhook(t *testing.T) {
	w := NewWebhook()
	assert.True(t, w.Subscribes(WebhookScanStarted))
	assert.False(t, w.Subscribes(WebhookScanPaused))

	w.PayloadURL = "not a url"
	assert.ErrorContains(t, w.Validate(), "invalid payload url")
}

func TestReport(t *testing.T) {
	app := NewApplication()
	r := NewReportFor(app, ReportStaticComprehensive)
	assert.Same(t, app, r.Application)
	assert.Equal(t, ".pdf", r.Extension())

	r.FileType = ReportFileHTML
	assert.Equal(t, ".zip", r.Extension())

	r.FileType = "DOCX"
	assert.Error(t, r.Validate())
}

func TestDataExportColumns(t *testing.T) {
	d := NewDataExportWithTemplate(ExportIssues)
	assert.Contains(t, d.Columns, "Severity")

	d.Template = "Invoices"
	assert.Error(t, d.Validate())
}

func TestStaticScan(t *testing.T) {
	s := NewStaticScan()
	assert.True(t, s.HasAcceptedExtension())

	s.FileToUpload = "payloads/fod/renamed.exe"
	assert.False(t, s.HasAcceptedExtension())

	s.LanguageLevel = "1.4"
	assert.ErrorContains(t, s.Validate(), "language level")

	s.TechnologyStack = TechStackGo
	s.LanguageLevel = ""
	assert.NoError(t, s.Validate())
}

func TestMobileScanBinaryMatchesFramework(t *testing.T) {
	m := NewMobileScan()
	m.FileToUpload = "app.AAB"
	assert.NoError(t, m.Validate())

	m.FrameworkType = FrameworkIOS
	assert.ErrorContains(t, m.Validate(), "is not a iOS binary")
}

func TestSetupScanPageStatusFinal(t *testing.T) {
	assert.True(t, SetupStatusCompleted.Final())
	assert.True(t, SetupStatusCanceled.Final())
	assert.False(t, SetupStatusInProgress.Final())
}

func TestParseReleaseID(t *testing.T) {
	tests := []struct {
		url     string
		want    int
		wantErr bool
	}{
		{url: "https://qa.fod.example.test/Redirect/Releases/4711/Overview", want: 4711},
		{url: "https://qa.fod.example.test/Releases/12/Scans?tab=static", want: 12},
		{url: "https://qa.fod.example.test/releases/99", want: 99},
		{url: "https://qa.fod.example.test/Applications/5/Overview", wantErr: true},
		{url: "https://qa.fod.example.test/Releases/abc/Overview", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := ParseReleaseID(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
