package files

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SBOM is a CycloneDX JSON document as produced by the open source scan.
type SBOM struct {
	BOMFormat     string           `json:"bomFormat"`
	SpecVersion   string           `json:"specVersion"`
	SerialNumber  string           `json:"serialNumber,omitempty"`
	Version       int              `json:"version"`
	Metadata      SBOMMetadata     `json:"metadata"`
	ComponentList []SBOMComponent  `json:"components"`
	Dependencies  []SBOMDependency `json:"dependencies,omitempty"`
}

type SBOMMetadata struct {
	Timestamp string         `json:"timestamp,omitempty"`
	Component *SBOMComponent `json:"component,omitempty"`
}

type SBOMComponent struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Group    string `json:"group,omitempty"`
	Version  string `json:"version,omitempty"`
	PURL     string `json:"purl,omitempty"`
	BOMRef   string `json:"bom-ref,omitempty"`
	Licenses []struct {
		License struct {
			ID   string `json:"id,omitempty"`
			Name string `json:"name,omitempty"`
		} `json:"license"`
	} `json:"licenses,omitempty"`
}

// SBOMDependency is one node of the dependency graph, keyed by bom-ref.
type SBOMDependency struct {
	Ref       string   `json:"ref"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

func OpenSBOM(path string) (*SBOM, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sbom: %w", err)
	}
	return ParseSBOM(raw)
}

func ParseSBOM(raw []byte) (*SBOM, error) {
	var s SBOM
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse sbom: %w", err)
	}
	if s.BOMFormat != "CycloneDX" {
		return nil, fmt.Errorf("unexpected bomFormat %q", s.BOMFormat)
	}
	return &s, nil
}

func (s *SBOM) Components() []SBOMComponent { return s.ComponentList }

// HasComponent matches name case-insensitively; an empty version matches any.
func (s *SBOM) HasComponent(name, version string) bool {
	for _, c := range s.ComponentList {
		if strings.EqualFold(c.Name, name) && (version == "" || c.Version == version) {
			return true
		}
	}
	return false
}

// DependedOnBy counts the dependency entries listing ref in their dependsOn.
// Some generators escape the slashes of purls; those are compared unescaped.
func (s *SBOM) DependedOnBy(ref string) int {
	n := 0
	for _, d := range s.Dependencies {
		for _, on := range d.DependsOn {
			if strings.ReplaceAll(on, `\`, "") == ref {
				n++
			}
		}
	}
	return n
}

// HasDependency reports whether ref is a node of the dependency graph.
func (s *SBOM) HasDependency(ref string) bool {
	for _, d := range s.Dependencies {
		if strings.ReplaceAll(d.Ref, `\`, "") == ref {
			return true
		}
	}
	return false
}
