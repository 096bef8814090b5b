// Package dto holds the test-fixture data the scenarios feed into the product:
// the catalog of UI enum labels and one struct per form, each with a New*
// factory that fills run-unique names and sensible defaults.
package dto
