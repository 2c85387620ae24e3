// Package sheets provides the grid sources the dashboard reads from.
//
// Client fetches a value range from Google Sheets with a service-account
// key. WorkbookSource reads the same A1 range from a local xlsx export,
// which is useful offline and in tests. Both return rows of strings with
// the header row first.
package sheets
