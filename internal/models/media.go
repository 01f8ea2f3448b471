package models

import "time"

// MediaType represents valid media types
type MediaType string

const (
	MediaTypeImage    MediaType = "IMAGE"
	MediaTypeVideo    MediaType = "VIDEO"
	MediaTypeDocument MediaType = "DOCUMENT"
)

// MediaStatus represents the upload lifecycle state of a media record
type MediaStatus string

const (
	// MediaStatusUploading means a storage location has been reserved but the
	// bytes have not been confirmed present yet
	MediaStatusUploading MediaStatus = "UPLOADING"
	// MediaStatusReady means the bytes are confirmed present and the recorded
	// file size reflects the stored bytes
	MediaStatusReady MediaStatus = "READY"
)

// Media represents one piece of attached evidence or documentation for a car
type Media struct {
	ID           string      `json:"id" db:"id"`
	CarID        string      `json:"carId" db:"car_id"`
	Type         MediaType   `json:"type" db:"type"`
	Category     string      `json:"category,omitempty" db:"category"`
	URL          string      `json:"url" db:"url"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty" db:"thumbnail_url"`
	// FileName is the name the client submitted, not the generated storage name
	FileName     string      `json:"fileName" db:"file_name"`
	FileSize     int64       `json:"fileSize" db:"file_size"`
	MimeType     string      `json:"mimeType" db:"mime_type"`
	Duration     int         `json:"duration,omitempty" db:"duration"`
	Resolution   string      `json:"resolution,omitempty" db:"resolution"`
	UploadedBy   string      `json:"uploadedBy" db:"uploaded_by"`
	Status       MediaStatus `json:"status" db:"status"`
	UploadedAt   time.Time   `json:"uploadedAt" db:"uploaded_at"`
}

// IsValidMediaType checks if the media type is one of the closed set
func IsValidMediaType(t string) bool {
	switch MediaType(t) {
	case MediaTypeImage, MediaTypeVideo, MediaTypeDocument:
		return true
	default:
		return false
	}
}

// MediaTypeCount holds the number of media records of a single type
type MediaTypeCount struct {
	Type  MediaType `json:"type"`
	Count int64     `json:"count"`
}

// MediaStats holds aggregate statistics over all media records
type MediaStats struct {
	Total     int64            `json:"total"`
	ByType    []MediaTypeCount `json:"byType"`
	TotalSize int64            `json:"totalSize"`
}
