/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package scenarios holds the regression scenario classes. Importing it
// registers every class with suite.DefaultRegistry; the fodtest binary and the
// go test entry point in package e2e both pick them up from there.
package scenarios

import (
	"github.com/fodqa/fod-regression/pkg/suite"
)

func init() {
	for _, class := range Classes() {
		suite.DefaultRegistry.MustRegister(class)
	}
}

// Classes returns a fresh instance of every scenario class.
func Classes() []*suite.Class {
	return []*suite.Class{
		applicationsClass(),
		entitlementsClass(),
		dataExportClass(),
		personalAccessTokenClass(),
		reportTemplatePDFClass(),
		sbomLockFileClass(),
		ssoClass(),
		staticPayloadUploadValidationClass(),
		webHooksClass(),
	}
}
