package fodapi

import "time"

// ListResponse is the envelope of every paged list endpoint.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

// ListOptions are the common paging and filter query parameters.
type ListOptions struct {
	// Filters uses the product syntax "field:value+field2:value2".
	Filters string
	OrderBy string
	Offset  int
	Limit   int
}

type Application struct {
	ApplicationID           int    `json:"applicationId,omitempty"`
	ApplicationName         string `json:"applicationName"`
	ApplicationDescription  string `json:"applicationDescription,omitempty"`
	BusinessCriticalityType string `json:"businessCriticalityType,omitempty"`
	ApplicationType         string `json:"applicationType,omitempty"`
	EmailList               string `json:"emailList,omitempty"`
	HasMicroservices        bool   `json:"hasMicroservices,omitempty"`
}

// CreateApplicationRequest creates an application together with its first release.
type CreateApplicationRequest struct {
	ApplicationName         string      `json:"applicationName"`
	ApplicationDescription  string      `json:"applicationDescription,omitempty"`
	ApplicationType         string      `json:"applicationType"`
	ReleaseName             string      `json:"releaseName"`
	ReleaseDescription      string      `json:"releaseDescription,omitempty"`
	OwnerID                 int         `json:"ownerId"`
	Attributes              []Attribute `json:"attributes"`
	BusinessCriticalityType string      `json:"businessCriticalityType"`
	SdlcStatusType          string      `json:"sdlcStatusType"`
	HasMicroservices        bool        `json:"hasMicroservices"`
	Microservices           []string    `json:"microservices,omitempty"`
	ReleaseMicroserviceName string      `json:"releaseMicroserviceName,omitempty"`
}

type CreateApplicationResponse struct {
	ApplicationID int  `json:"applicationId"`
	ReleaseID     int  `json:"releaseId"`
	Success       bool `json:"success"`
}

type Attribute struct {
	ID    int    `json:"id"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

type AuditTemplate struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ScanType string `json:"scanType"`
}

type Release struct {
	ReleaseID           int    `json:"releaseId"`
	ReleaseName         string `json:"releaseName"`
	ApplicationID       int    `json:"applicationId"`
	ApplicationName     string `json:"applicationName"`
	SdlcStatusType      string `json:"sdlcStatusType"`
	CurrentStaticScanID int    `json:"currentStaticScanId"`
	Critical            int    `json:"critical"`
	High                int    `json:"high"`
	Medium              int    `json:"medium"`
	Low                 int    `json:"low"`
}

type Scan struct {
	ScanID             int    `json:"scanId"`
	ReleaseID          int    `json:"releaseId"`
	ScanType           string `json:"scanType"`
	AnalysisStatusType string `json:"analysisStatusType"`
	AssessmentTypeName string `json:"assessmentTypeName"`
	StartedDateTime    string `json:"startedDateTime"`
	CompletedDateTime  string `json:"completedDateTime"`
	TotalIssues        int    `json:"totalIssues"`
}

type ScanSummary struct {
	Scan
	StaticScanSummaryDetails  map[string]any `json:"staticScanSummaryDetails,omitempty"`
	DynamicScanSummaryDetails map[string]any `json:"dynamicScanSummaryDetails,omitempty"`
}

type StaticScanSetup struct {
	AssessmentTypeID           int    `json:"assessmentTypeId"`
	EntitlementID              int    `json:"entitlementId"`
	ReleaseID                  int    `json:"releaseId"`
	TechnologyStack            string `json:"technologyStack"`
	LanguageLevel              string `json:"languageLevel"`
	AuditPreferenceType        string `json:"auditPreferenceType"`
	IncludeThirdPartyLibraries bool   `json:"includeThirdPartyLibraries"`
	UseSourceControl           bool   `json:"useSourceControl"`
}

// StartStaticScanRequest are the query parameters of a static scan upload.
type StartStaticScanRequest struct {
	AssessmentTypeID         int
	EntitlementID            int
	EntitlementFrequencyType string
	TechnologyStack          string
	LanguageLevel            string
	AuditPreferenceType      string
	IsRemediationScan        bool
	ScanMethodType           string
	ScanTool                 string
}

type StartScanResponse struct {
	ScanID  int    `json:"scanId"`
	Message string `json:"message,omitempty"`
}

type DynamicScanSetup struct {
	AssessmentTypeID         int    `json:"assessmentTypeId"`
	EntitlementID            int    `json:"entitlementId"`
	EntitlementFrequencyType string `json:"entitlementFrequencyType"`
	DynamicSiteURL           string `json:"dynamicSiteURL"`
	TimeZone                 string `json:"timeZone"`
	EnvironmentFacingType    string `json:"environmentFacingType"`
	RepeatScheduleType       string `json:"repeatScheduleType"`
	AllowFormSubmissions     bool   `json:"allowFormSubmissions"`
	AllowSameHostRedirects   bool   `json:"allowSameHostRedirects"`
}

type StartDynamicScanRequest struct {
	StartDate                 string `json:"startDate"`
	AssessmentTypeID          int    `json:"assessmentTypeId"`
	EntitlementID             int    `json:"entitlementId"`
	EntitlementFrequencyType  string `json:"entitlementFrequencyType"`
	IsRemediationScan         bool   `json:"isRemediationScan"`
	IsBundledAssessment       bool   `json:"isBundledAssessment"`
	ApplyPreviousScanSettings bool   `json:"applyPreviousScanSettings"`
}

type Vulnerability struct {
	ID              int    `json:"id"`
	VulnID          string `json:"vulnId"`
	Severity        int    `json:"severity"`
	SeverityString  string `json:"severityString"`
	Category        string `json:"category"`
	PrimaryLocation string `json:"primaryLocation"`
	LineNumber      int    `json:"lineNumber"`
	ScanType        string `json:"scantype"`
	AuditorStatus   string `json:"auditorStatus"`
	IsSuppressed    bool   `json:"isSuppressed"`
}

type CreateReportRequest struct {
	ReportName       string `json:"reportName"`
	ReportTemplateID int    `json:"reportTemplateId"`
	ReleaseID        int    `json:"releaseId"`
	ReportFormat     string `json:"reportFormat"`
	ReportType       string `json:"reportType"`
	Notes            string `json:"notes,omitempty"`
}

type CreateReportResponse struct {
	ReportID int  `json:"reportId"`
	Success  bool `json:"success"`
}

type Report struct {
	ReportID         int    `json:"reportId"`
	ReportName       string `json:"reportName"`
	ReportStatusType string `json:"reportStatusType"`
	ReportTypeID     int    `json:"reportTypeId"`
	ReleaseID        int    `json:"releaseId"`
}

type TenantEntitlement struct {
	EntitlementID          int    `json:"entitlementId"`
	EntitlementDescription string `json:"entitlementDescription"`
	UnitsPurchased         int    `json:"unitsPurchased"`
	UnitsConsumed          int    `json:"unitsConsumed"`
	StartDate              string `json:"startDate"`
	EndDate                string `json:"endDate"`
}

type TenantEntitlements struct {
	TenantEntitlements []TenantEntitlement `json:"tenantEntitlements"`
	EntitlementTypeID  int                 `json:"entitlementTypeId"`
	EntitlementType    string              `json:"entitlementType"`
	SubscriptionTypeID int                 `json:"subscriptionTypeId"`
	SubscriptionType   string              `json:"subscriptionType"`
}

type OpenSourceEntitlement struct {
	EntitlementID  int    `json:"entitlementId"`
	LicenseType    string `json:"licenseType"`
	UnitsPurchased int    `json:"unitsPurchased"`
	UnitsConsumed  int    `json:"unitsConsumed"`
	EndDate        string `json:"endDate"`
}

type User struct {
	UserID    int    `json:"userId"`
	UserName  string `json:"userName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	RoleID    int    `json:"roleId"`
	RoleName  string `json:"roleName"`
}

type UserGroup struct {
	ID                        int    `json:"id"`
	Name                      string `json:"name"`
	AssignedUsersCount        int    `json:"assignedUsersCount"`
	AssignedApplicationsCount int    `json:"assignedApplicationsCount"`
}

type AssessmentType struct {
	AssessmentTypeID int    `json:"assessmentTypeId"`
	Name             string `json:"name"`
	ScanType         string `json:"scanType"`
	EntitlementID    int    `json:"entitlementId"`
	FrequencyType    string `json:"frequencyType"`
	IsRemediation    bool   `json:"isRemediation"`
	UnitsAvailable   int    `json:"unitsAvailable"`
}

type SiteTreeNode struct {
	Scheme   string `json:"scheme"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Path     string `json:"path"`
	Children int    `json:"childCount"`
}

type MobileScanSetup struct {
	AssessmentTypeID         int    `json:"assessmentTypeId"`
	EntitlementID            int    `json:"entitlementId"`
	EntitlementFrequencyType string `json:"entitlementFrequencyType"`
	FrameworkType            string `json:"frameworkType"`
	PlatformType             string `json:"platformType"`
	AuditPreferenceType      string `json:"auditPreferenceType"`
	TimeZone                 string `json:"timeZone"`
}

// StartMobileScanRequest are the query parameters of a mobile binary upload.
type StartMobileScanRequest struct {
	StartDate                time.Time
	AssessmentTypeID         int
	EntitlementID            int
	EntitlementFrequencyType string
	TimeZone                 string
	FrameworkType            string
	PlatformType             string
	IsRemediationScan        bool
}

type ImportScanSession struct {
	ImportScanSessionID string `json:"importScanSessionId"`
}

type ImportScanResponse struct {
	ReferenceID string `json:"referenceId"`
	ScanID      int    `json:"scanId"`
}
