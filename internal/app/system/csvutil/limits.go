// internal/app/system/csvutil/limits.go
package csvutil

// MaxExportRows caps a single review export.
const MaxExportRows = 20000
