// Package shared holds helpers used across sheetkpi packages that belong to
// no single layer.
//
// The testutil subpackage provides:
//
//	- BufferedSlogHandler for asserting on structured log output
//	- deals-sheet grid fixtures shared by the pipeline tests
//	- WriteWorkbook, which saves a grid as an xlsx file for the workbook source
package shared
