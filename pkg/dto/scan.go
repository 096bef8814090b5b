package dto

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// StaticScan is the static scan setup form plus the payload to upload.
type StaticScan struct {
	AssessmentType        string
	Entitlement           string
	TechnologyStack       TechnologyStack
	LanguageLevel         string
	AuditPreference       AuditPreference
	FileToUpload          string
	IncludeThirdParty     bool
	OpenSourceComponent   bool
	IncludeFortifyAviator bool
}

// NewStaticScan returns an automated AUTO-STATIC Java scan.
func NewStaticScan() *StaticScan {
	return &StaticScan{
		AssessmentType:  "AUTO-STATIC",
		Entitlement:     "Subscription",
		TechnologyStack: TechStackJava,
		LanguageLevel:   "1.8",
		AuditPreference: AuditAutomated,
		FileToUpload:    "payloads/fod/10JavaDefects_Small(OS).zip",
	}
}

// StaticPayloadExtensions are the archive types accepted for static payloads.
var StaticPayloadExtensions = []string{".zip", ".fpr"}

func (s *StaticScan) Validate() error {
	var errs []error
	if s.AssessmentType == "" {
		errs = append(errs, errors.New("assessment type is required"))
	}
	if !oneOf(s.TechnologyStack, TechnologyStacks) {
		errs = append(errs, fmt.Errorf("unknown technology stack %q", s.TechnologyStack))
	}
	if levels, ok := LanguageLevels[s.TechnologyStack]; ok && s.LanguageLevel != "" && !oneOf(s.LanguageLevel, levels) {
		errs = append(errs, fmt.Errorf("language level %q not offered for %s", s.LanguageLevel, s.TechnologyStack))
	}
	if !oneOf(s.AuditPreference, AuditPreferences) {
		errs = append(errs, fmt.Errorf("unknown audit preference %q", s.AuditPreference))
	}
	if s.FileToUpload == "" {
		errs = append(errs, errors.New("file to upload is required"))
	}
	return errors.Join(errs...)
}

// HasAcceptedExtension reports whether the payload has an extension the product accepts.
// Scenarios that expect rejection use payloads for which this is false.
func (s *StaticScan) HasAcceptedExtension() bool {
	return oneOf(strings.ToLower(filepath.Ext(s.FileToUpload)), StaticPayloadExtensions)
}

// DynamicScan is the dynamic scan setup form.
type DynamicScan struct {
	AssessmentType      string
	Entitlement         string
	DynamicSiteURL      string
	EnvironmentalFacing EnvironmentFacing
	Timezone            string
	ExcludeURLs         []string
	WebServiceType      string
}

// NewDynamicScan returns an external website assessment.
func NewDynamicScan() *DynamicScan {
	return &DynamicScan{
		AssessmentType:      "Dynamic Website Assessment",
		Entitlement:         "Single Scan",
		DynamicSiteURL:      "http://zero.webappsecurity.com",
		EnvironmentalFacing: FacingExternal,
		Timezone:            "UTC",
	}
}

func (d *DynamicScan) Validate() error {
	var errs []error
	if d.AssessmentType == "" {
		errs = append(errs, errors.New("assessment type is required"))
	}
	if u, err := url.Parse(d.DynamicSiteURL); err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid site url %q", d.DynamicSiteURL))
	}
	if d.EnvironmentalFacing != FacingExternal && d.EnvironmentalFacing != FacingInternal {
		errs = append(errs, fmt.Errorf("unknown environment facing %q", d.EnvironmentalFacing))
	}
	return errors.Join(errs...)
}

// MobileScan is the mobile scan setup form plus the binary to upload.
type MobileScan struct {
	AssessmentType  string
	Entitlement     string
	FrameworkType   MobileFramework
	PlatformType    MobilePlatform
	AuditPreference AuditPreference
	Timezone        string
	FileToUpload    string
}

// MobileBinaryExtensions are the binaries accepted per framework.
var MobileBinaryExtensions = map[MobileFramework][]string{
	FrameworkIOS:     {".ipa"},
	FrameworkAndroid: {".apk", ".aab"},
}

// NewMobileScan returns an Android Mobile Express scan.
func NewMobileScan() *MobileScan {
	return &MobileScan{
		AssessmentType:  "Mobile Express",
		Entitlement:     "Single Scan",
		FrameworkType:   FrameworkAndroid,
		PlatformType:    PlatformPhone,
		AuditPreference: AuditAutomated,
		Timezone:        "UTC",
		FileToUpload:    "payloads/fod/MobileApp.apk",
	}
}

func (m *MobileScan) Validate() error {
	var errs []error
	if m.AssessmentType == "" {
		errs = append(errs, errors.New("assessment type is required"))
	}
	exts, ok := MobileBinaryExtensions[m.FrameworkType]
	if !ok {
		errs = append(errs, fmt.Errorf("unknown framework %q", m.FrameworkType))
	} else if !oneOf(strings.ToLower(filepath.Ext(m.FileToUpload)), exts) {
		errs = append(errs, fmt.Errorf("file %q is not a %s binary", m.FileToUpload, m.FrameworkType))
	}
	if !oneOf(m.AuditPreference, AuditPreferences) {
		errs = append(errs, fmt.Errorf("unknown audit preference %q", m.AuditPreference))
	}
	return errors.Join(errs...)
}
