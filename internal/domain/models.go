package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat message roles used in conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a round-tripped conversation history. The
// history is never persisted; the client resubmits it on each call.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QuestionAnswer is a caller-supplied intake question with its answer.
type QuestionAnswer struct {
	Question string `bson:"question" json:"question"`
	Answer   string `bson:"answer" json:"answer"`
}

// Image reference kinds. A record stores the image either inline as base64
// or as an external URL plus storage id, never both.
const (
	ImageRefInline   = "inline"
	ImageRefExternal = "external"
)

// ImageReference is a tagged variant over the two storage strategies.
type ImageReference struct {
	Kind      string `bson:"kind" json:"kind"`
	Inline    string `bson:"inline,omitempty" json:"inline,omitempty"`
	URL       string `bson:"url,omitempty" json:"url,omitempty"`
	StorageID string `bson:"storage_id,omitempty" json:"storage_id,omitempty"`
}

// InlineImage builds an inline (base64) image reference.
func InlineImage(encoded string) ImageReference {
	return ImageReference{Kind: ImageRefInline, Inline: encoded}
}

// ExternalImage builds an object-storage image reference.
func ExternalImage(url, storageID string) ImageReference {
	return ImageReference{Kind: ImageRefExternal, URL: url, StorageID: storageID}
}

// FileInfo describes the uploaded file as received.
type FileInfo struct {
	Filename    string `bson:"filename" json:"filename"`
	ContentType string `bson:"content_type" json:"content_type"`
	Size        int64  `bson:"size" json:"size"`
}

// MedicalRecord is a stored diagnostic record. Records are written once and
// never mutated, so UpdatedAt always equals CreatedAt.
type MedicalRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PatientID   string             `bson:"patient_id" json:"patient_id"`
	Image       ImageReference     `bson:"image" json:"image"`
	Diagnosis   string             `bson:"diagnosis" json:"diagnosis"`
	DangerLevel int                `bson:"danger_level" json:"danger_level"`
	Questions   []QuestionAnswer   `bson:"questions" json:"questions"`
	FileInfo    FileInfo           `bson:"file_info" json:"file_info"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// ChatTurn is a persisted question/answer pair. IsDeleted is the only field
// ever mutated after creation, and only from false to true.
type ChatTurn struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string             `bson:"userId" json:"userId"`
	Question  string             `bson:"question" json:"question"`
	Answer    string             `bson:"answer" json:"answer"`
	IsDeleted bool               `bson:"isDeleted" json:"isDeleted"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// UploadResult is returned by the blob uploader.
type UploadResult struct {
	URL       string
	StorageID string
}

// AnalyzeStoreInput carries a validated analyze-and-store request.
type AnalyzeStoreInput struct {
	PatientID   string
	Image       []byte
	FileInfo    FileInfo
	Questions   []QuestionAnswer
	DangerLevel int
}

// AnalyzeStoreResult is the outcome of the analyze-and-store pipeline.
// ImageURL is empty when the image was stored inline.
type AnalyzeStoreResult struct {
	RecordID  string
	Diagnosis string
	ImageURL  string
}
