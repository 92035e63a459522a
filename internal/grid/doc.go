// Package grid reads period snapshots from disk into ir.Grid values.
//
// Supported formats:
//   - .csv: encoding/csv, optionally transcoded from a legacy 8-bit encoding
//   - .xlsx: excelize, first sheet unless a sheet name is given
//
// Every read failure is returned as *ir.GridReadError so the merge engine
// can skip the period and continue.
package grid
