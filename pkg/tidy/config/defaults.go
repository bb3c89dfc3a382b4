// Package config provides configuration management for tidy.
package config

import "github.com/jamesainslie/tidy/pkg/tidy/types"

// Default configuration values for tidy.
const (
	// DefaultHashAlgorithm is the content digest used for duplicate detection.
	DefaultHashAlgorithm = "md5"

	// DefaultJournalKeepDays is how long per-run journals are kept.
	DefaultJournalKeepDays = 30

	// DefaultJournalMaxFiles caps the number of per-run journals.
	DefaultJournalMaxFiles = 50

	// DefaultJournalErrorDays is how long daily error journals are kept.
	DefaultJournalErrorDays = 90

	// DefaultRetentionDays is the default number of days to retain run history.
	DefaultRetentionDays = 30

	// BackupCount is the number of config backups kept by Save.
	BackupCount = 3
)

// DefaultCategories returns the built-in category list. Each call returns
// a fresh copy.
func DefaultCategories() []types.Category {
	return []types.Category{
		{Name: "pdf", Extensions: []string{"pdf"}},
		{Name: "documents", Extensions: []string{"doc", "docx", "odt", "rtf", "txt", "md", "pages"}},
		{Name: "spreadsheets", Extensions: []string{"xls", "xlsx", "ods", "csv", "numbers"}},
		{Name: "presentations", Extensions: []string{"ppt", "pptx", "odp", "key"}},
		{Name: "images", Extensions: []string{"jpg", "jpeg", "png", "gif", "bmp", "svg", "webp", "heic", "tiff"}},
		{Name: "audio", Extensions: []string{"mp3", "wav", "flac", "aac", "ogg", "m4a"}},
		{Name: "video", Extensions: []string{"mp4", "mkv", "mov", "avi", "webm", "wmv"}},
		{Name: "archives", Extensions: []string{"zip", "tar", "gz", "tgz", "bz2", "xz", "7z", "rar"}},
		{Name: "installers", Extensions: []string{"dmg", "pkg", "deb", "rpm", "msi", "exe", "appimage"}},
		{Name: "code", Extensions: []string{"go", "py", "js", "ts", "json", "yaml", "yml", "toml", "sh", "html", "css"}},
		{Name: "ebooks", Extensions: []string{"epub", "mobi", "azw3"}},
		{Name: "fonts", Extensions: []string{"ttf", "otf", "woff", "woff2"}},
	}
}
