package dto

import "golang.org/x/exp/slices"

// Each enum's value is the label the product renders in its UI and accepts in forms.

type ScanType string

const (
	ScanTypeStatic     ScanType = "Static"
	ScanTypeDynamic    ScanType = "Dynamic"
	ScanTypeMobile     ScanType = "Mobile"
	ScanTypeOpenSource ScanType = "Open Source"
)

var ScanTypes = []ScanType{ScanTypeStatic, ScanTypeDynamic, ScanTypeMobile, ScanTypeOpenSource}

type Sdlc string

const (
	SdlcDevelopment Sdlc = "Development"
	SdlcQaTest      Sdlc = "QA/Test"
	SdlcProduction  Sdlc = "Production"
	SdlcRetired     Sdlc = "Retired"
)

var Sdlcs = []Sdlc{SdlcDevelopment, SdlcQaTest, SdlcProduction, SdlcRetired}

type TechnologyStack string

const (
	TechStackAutoDetect     TechnologyStack = "Auto Detect"
	TechStackJava           TechnologyStack = "JAVA/J2EE/Kotlin"
	TechStackDotNet         TechnologyStack = ".NET"
	TechStackDotNetCore     TechnologyStack = ".NET Core"
	TechStackPython         TechnologyStack = "PYTHON"
	TechStackJS             TechnologyStack = "JS/TS/HTML"
	TechStackGo             TechnologyStack = "GO"
	TechStackReactNative    TechnologyStack = "React Native"
	TechStackInfrastructure TechnologyStack = "Infrastructure-as-code"
)

var TechnologyStacks = []TechnologyStack{
	TechStackAutoDetect, TechStackJava, TechStackDotNet, TechStackDotNetCore, TechStackPython,
	TechStackJS, TechStackGo, TechStackReactNative, TechStackInfrastructure,
}

// LanguageLevels lists the language levels offered per technology stack. Stacks
// missing from the map take no language level.
var LanguageLevels = map[TechnologyStack][]string{
	TechStackJava:       {"1.8", "11", "17", "21"},
	TechStackDotNet:     {"4.8", "5.0", "6.0"},
	TechStackDotNetCore: {"3.1", "6.0", "8.0"},
	TechStackPython:     {"2", "3"},
}

type EntitlementType string

const (
	EntitlementFortify        EntitlementType = "Fortify"
	EntitlementSonatype       EntitlementType = "Sonatype"
	EntitlementDebricked      EntitlementType = "Debricked"
	EntitlementDebrickedTrial EntitlementType = "Debricked Trial"
	EntitlementAviator        EntitlementType = "Fortify Aviator"
)

var EntitlementTypes = []EntitlementType{
	EntitlementFortify, EntitlementSonatype, EntitlementDebricked, EntitlementDebrickedTrial, EntitlementAviator,
}

type EntitlementModel string

const (
	EntitlementModelUnits EntitlementModel = "Units"
	EntitlementModelScans EntitlementModel = "Scans"
)

type SubscriptionModel string

const (
	SubscriptionPeriod           SubscriptionModel = "Period"
	SubscriptionStartOnFirstScan SubscriptionModel = "Start on First Scan"
)

type AttributeType string

const (
	AttributeTypeApplication  AttributeType = "Application"
	AttributeTypeRelease      AttributeType = "Release"
	AttributeTypeIssue        AttributeType = "Issue"
	AttributeTypeMicroservice AttributeType = "Microservice"
)

var AttributeTypes = []AttributeType{
	AttributeTypeApplication, AttributeTypeRelease, AttributeTypeIssue, AttributeTypeMicroservice,
}

type AttributeDataType string

const (
	AttributeDataText     AttributeDataType = "Text"
	AttributeDataPicklist AttributeDataType = "Picklist"
	AttributeDataBoolean  AttributeDataType = "Boolean"
	AttributeDataDate     AttributeDataType = "Date"
	AttributeDataUser     AttributeDataType = "User"
)

var AttributeDataTypes = []AttributeDataType{
	AttributeDataText, AttributeDataPicklist, AttributeDataBoolean, AttributeDataDate, AttributeDataUser,
}

type ReportFileType string

const (
	ReportFilePDF  ReportFileType = "PDF"
	ReportFileHTML ReportFileType = "HTML"
)

var ReportFileTypes = []ReportFileType{ReportFilePDF, ReportFileHTML}

type ReportTemplateType string

const (
	ReportStaticSummary        ReportTemplateType = "Static Summary"
	ReportStaticIssueDetail    ReportTemplateType = "Static Issue Detail"
	ReportStaticComprehensive  ReportTemplateType = "Static Comprehensive"
	ReportStaticAnalysisTrace  ReportTemplateType = "Static Analysis Trace"
	ReportDynamicSummary       ReportTemplateType = "Dynamic Summary"
	ReportDynamicIssueDetail   ReportTemplateType = "Dynamic Issue Detail"
	ReportDynamicComprehensive ReportTemplateType = "Dynamic Comprehensive"
	ReportMobileSummary        ReportTemplateType = "Mobile Summary"
	ReportMobileIssueDetail    ReportTemplateType = "Mobile Issue Detail"
	ReportHybridSummary        ReportTemplateType = "Hybrid Summary"
	ReportPCI40Compliance      ReportTemplateType = "PCI 4.0 DSS Compliance"
	ReportCWETop25Compliance   ReportTemplateType = "CWE Top 25 2024 Compliance"
)

var ReportTemplateTypes = []ReportTemplateType{
	ReportStaticSummary, ReportStaticIssueDetail, ReportStaticComprehensive, ReportStaticAnalysisTrace,
	ReportDynamicSummary, ReportDynamicIssueDetail, ReportDynamicComprehensive,
	ReportMobileSummary, ReportMobileIssueDetail, ReportHybridSummary,
	ReportPCI40Compliance, ReportCWETop25Compliance,
}

type ReportStatus string

const (
	ReportStatusStarted   ReportStatus = "Started"
	ReportStatusCompleted ReportStatus = "Completed"
	ReportStatusFailed    ReportStatus = "Failed"
)

var ReportStatuses = []ReportStatus{ReportStatusStarted, ReportStatusCompleted, ReportStatusFailed}

// SetupScanPageStatus is the status shown on a release's scan setup page.
type SetupScanPageStatus string

const (
	SetupStatusNotStarted      SetupScanPageStatus = "Not Started"
	SetupStatusQueued          SetupScanPageStatus = "Queued"
	SetupStatusScheduled       SetupScanPageStatus = "Scheduled"
	SetupStatusInProgress      SetupScanPageStatus = "In Progress"
	SetupStatusCompleted       SetupScanPageStatus = "Completed"
	SetupStatusCanceled        SetupScanPageStatus = "Canceled"
	SetupStatusPaused          SetupScanPageStatus = "Paused"
	SetupStatusWaitingCustomer SetupScanPageStatus = "Waiting - Customer"
)

var SetupScanPageStatuses = []SetupScanPageStatus{
	SetupStatusNotStarted, SetupStatusQueued, SetupStatusScheduled, SetupStatusInProgress,
	SetupStatusCompleted, SetupStatusCanceled, SetupStatusPaused, SetupStatusWaitingCustomer,
}

// Final reports whether no further transition is expected without user action.
func (s SetupScanPageStatus) Final() bool {
	return s == SetupStatusCompleted || s == SetupStatusCanceled
}

// ScansPageStatus is the status column of the scans grid.
type ScansPageStatus string

const (
	ScansStatusQueued     ScansPageStatus = "Queued"
	ScansStatusInProgress ScansPageStatus = "In Progress"
	ScansStatusCompleted  ScansPageStatus = "Completed"
	ScansStatusCanceled   ScansPageStatus = "Canceled"
	ScansStatusPaused     ScansPageStatus = "Paused"
)

var ScansPageStatuses = []ScansPageStatus{
	ScansStatusQueued, ScansStatusInProgress, ScansStatusCompleted, ScansStatusCanceled, ScansStatusPaused,
}

// JobStatus is the admin-side job state of a scan.
type JobStatus string

const (
	JobPending         JobStatus = "Pending"
	JobScanning        JobStatus = "Scanning"
	JobAuditing        JobStatus = "Auditing"
	JobAuditPending    JobStatus = "Audit Pending"
	JobAuditRejected   JobStatus = "Audit Rejected"
	JobImportSucceeded JobStatus = "Import Succeeded"
	JobSuccess         JobStatus = "Success"
	JobFailed          JobStatus = "Failed"
	JobAborting        JobStatus = "Aborting"
	JobAborted         JobStatus = "Aborted"
)

var JobStatuses = []JobStatus{
	JobPending, JobScanning, JobAuditing, JobAuditPending, JobAuditRejected,
	JobImportSucceeded, JobSuccess, JobFailed, JobAborting, JobAborted,
}

type TenantUserRole string

const (
	RoleSecurityLead    TenantUserRole = "Security Lead"
	RoleApplicationLead TenantUserRole = "Application Lead"
	RoleLeadDeveloper   TenantUserRole = "Lead Developer"
	RoleDeveloper       TenantUserRole = "Developer"
	RoleExecutive       TenantUserRole = "Executive"
	RoleReviewer        TenantUserRole = "Reviewer"
)

var TenantUserRoles = []TenantUserRole{
	RoleSecurityLead, RoleApplicationLead, RoleLeadDeveloper, RoleDeveloper, RoleExecutive, RoleReviewer,
}

type AuditPreference string

const (
	AuditManual    AuditPreference = "Manual"
	AuditAutomated AuditPreference = "Automated"
)

var AuditPreferences = []AuditPreference{AuditManual, AuditAutomated}

type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

type BusinessCriticality string

const (
	CriticalityHigh   BusinessCriticality = "High"
	CriticalityMedium BusinessCriticality = "Medium"
	CriticalityLow    BusinessCriticality = "Low"
)

var BusinessCriticalities = []BusinessCriticality{CriticalityHigh, CriticalityMedium, CriticalityLow}

type AnalysisType string

const (
	AnalysisStatic     AnalysisType = "Static"
	AnalysisDynamic    AnalysisType = "Dynamic"
	AnalysisMobile     AnalysisType = "Mobile"
	AnalysisOpenSource AnalysisType = "Open Source"
)

type AppType string

const (
	AppTypeWeb    AppType = "Web / Thick-Client"
	AppTypeMobile AppType = "Mobile"
)

var AppTypes = []AppType{AppTypeWeb, AppTypeMobile}

type AuditorStatus string

const (
	AuditorPendingReview       AuditorStatus = "Pending Review"
	AuditorRemediationRequired AuditorStatus = "Remediation Required"
	AuditorSuspicious          AuditorStatus = "Suspicious"
	AuditorNotAnIssue          AuditorStatus = "Not an Issue"
	AuditorRiskAccepted        AuditorStatus = "Risk Accepted"
)

var AuditorStatuses = []AuditorStatus{
	AuditorPendingReview, AuditorRemediationRequired, AuditorSuspicious, AuditorNotAnIssue, AuditorRiskAccepted,
}

type DataExportTemplate string

const (
	ExportIssues                 DataExportTemplate = "Issues"
	ExportScans                  DataExportTemplate = "Scans"
	ExportApplications           DataExportTemplate = "Applications"
	ExportApplicationReleases    DataExportTemplate = "Application Releases"
	ExportEntitlementConsumption DataExportTemplate = "Entitlement Consumption"
)

var DataExportTemplates = []DataExportTemplate{
	ExportIssues, ExportScans, ExportApplications, ExportApplicationReleases, ExportEntitlementConsumption,
}

type WebhookEvent string

const (
	WebhookScanStarted   WebhookEvent = "Scan Started"
	WebhookScanCompleted WebhookEvent = "Scan Completed"
	WebhookScanPaused    WebhookEvent = "Scan Paused"
	WebhookScanResumed   WebhookEvent = "Scan Resumed"
	WebhookScanCanceled  WebhookEvent = "Scan Canceled"
)

var WebhookEvents = []WebhookEvent{
	WebhookScanStarted, WebhookScanCompleted, WebhookScanPaused, WebhookScanResumed, WebhookScanCanceled,
}

type EnvironmentFacing string

const (
	FacingExternal EnvironmentFacing = "External"
	FacingInternal EnvironmentFacing = "Internal"
)

type MobileFramework string

const (
	FrameworkIOS     MobileFramework = "iOS"
	FrameworkAndroid MobileFramework = "Android"
)

type MobilePlatform string

const (
	PlatformPhone  MobilePlatform = "Phone"
	PlatformTablet MobilePlatform = "Tablet"
	PlatformBoth   MobilePlatform = "Both"
)

// Scope is a personal access token / API scope.
type Scope string

const (
	ScopeAPITenant           Scope = "api-tenant"
	ScopeViewApps            Scope = "view-apps"
	ScopeManageApps          Scope = "manage-apps"
	ScopeViewIssues          Scope = "view-issues"
	ScopeManageIssues        Scope = "manage-issues"
	ScopeStartScans          Scope = "start-scans"
	ScopeViewReports         Scope = "view-reports"
	ScopeManageReports       Scope = "manage-reports"
	ScopeViewUsers           Scope = "view-users"
	ScopeManageUsers         Scope = "manage-users"
	ScopeManageNotifications Scope = "manage-notifications"
	ScopeViewTenantData      Scope = "view-tenant-data"
)

var Scopes = []Scope{
	ScopeAPITenant, ScopeViewApps, ScopeManageApps, ScopeViewIssues, ScopeManageIssues, ScopeStartScans,
	ScopeViewReports, ScopeManageReports, ScopeViewUsers, ScopeManageUsers, ScopeManageNotifications,
	ScopeViewTenantData,
}

func oneOf[T comparable](v T, allowed []T) bool {
	return slices.Contains(allowed, v)
}
