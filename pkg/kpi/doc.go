// Package kpi reads KPI metrics and their targets from a spreadsheet.
//
// # Sheet Layout
//
// The first row holds headers. Each following row starts with a period name
// (All Time, Last 30 Days, Last 7 Days, Last 3 Days, Last 24 Hours) and
// continues with metric/target column pairs:
//
//	Period       | Signups | Signups Goal | Chats | Chats Goal
//	All Time     | 1200    | 1500         | 800   |
//	Last 7 Days  | 85      | 100          | 40    | 50
//
// Process turns this into a Report keyed by period, where each metric is
// stored under its header and each numeric target under "<header> Target".
//
// # Usage Example
//
//	credsOpt, err := kpi.CredentialsFile(ctx, "/etc/eventdash/sheets.json")
//	reader, err := kpi.NewSheetsReader(ctx, credsOpt)
//	svc := kpi.NewService(reader, spreadsheetID, kpi.DefaultRange)
//	report, err := svc.Targets(ctx)
package kpi
