// Package files opens the artifacts a scenario downloads from the product
// (CSV data exports, PDF and HTML reports, zipped report bundles and SBOM
// documents) and answers the questions scenarios assert on.
//
// Example:
//
//	csv, err := files.OpenCSV(path)
//	if err != nil {
//		return err
//	}
//	audits, err := csv.ColumnValues("Audits")
package files
