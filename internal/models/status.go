package models

// ImageStatus is the per-image classification state reported by the backend.
//
// Lifecycle: staged → uploaded → classifying → one of the terminal states.
// The client trusts the latest server-reported value and never reconciles
// regressions itself.
type ImageStatus string

const (
	StatusStaged      ImageStatus = "staged"
	StatusUploaded    ImageStatus = "uploaded"
	StatusClassifying ImageStatus = "classifying"
	StatusAssigned    ImageStatus = "assigned"
	StatusRejected    ImageStatus = "rejected"
	StatusUnmatched   ImageStatus = "unmatched"
	StatusInvalidEXIF ImageStatus = "invalid_exif"
	StatusDuplicate   ImageStatus = "duplicate"
)

// Terminal reports whether the status is a final classification outcome.
func (s ImageStatus) Terminal() bool {
	switch s {
	case StatusAssigned, StatusRejected, StatusUnmatched, StatusInvalidEXIF, StatusDuplicate:
		return true
	}
	return false
}

// ImageRecord is one entry of the incremental batch-images feed.
type ImageRecord struct {
	Status          ImageStatus `json:"status"`
	TaskID          string      `json:"task_id,omitempty"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	HasGPS          bool        `json:"has_gps"`
	S3Key           string      `json:"s3_key"`
	URL             string      `json:"url,omitempty"`
	UploadedAt      string      `json:"uploaded_at"`
}
