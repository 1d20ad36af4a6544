package model

import "time"

// Attachment is file metadata for a bug. The file bytes live on disk at
// FilePath; only the metadata row is tracked here.
type Attachment struct {
	ID         string    `json:"id"         db:"id"`
	BugID      string    `json:"bugId"      db:"bug_id"`
	FileName   string    `json:"fileName"   db:"file_name"`
	FilePath   string    `json:"filePath"   db:"file_path"`
	FileSize   int64     `json:"fileSize"   db:"file_size"`
	UploadedBy string    `json:"uploadedBy" db:"uploaded_by"`
	UploadedAt time.Time `json:"uploadedAt" db:"upload_date"`
}
