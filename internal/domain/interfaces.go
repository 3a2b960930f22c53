package domain

import (
	"context"
)

// Analyzer talks to the vision/chat model provider.
type Analyzer interface {
	// AnalyzeImage sends the image to the vision model with the diagnostic
	// instruction and returns the model's free-text commentary.
	AnalyzeImage(ctx context.Context, image []byte, contentType string) (string, error)
	// Chat sends the full history verbatim and returns the newest
	// assistant message.
	Chat(ctx context.Context, history []ChatMessage) (string, error)
}

// RecordService handles diagnostic record operations.
type RecordService interface {
	AnalyzeAndStore(ctx context.Context, in AnalyzeStoreInput) (*AnalyzeStoreResult, error)
	FindByPatient(ctx context.Context, patientID string) ([]MedicalRecord, error)
}

// ChatService handles chat transcript persistence.
type ChatService interface {
	Save(ctx context.Context, turn *ChatTurn) (string, error)
	FindByUser(ctx context.Context, userID string, includeDeleted bool) ([]ChatTurn, error)
	SoftDelete(ctx context.Context, id string) error
}

// BlobUploader stores raw image bytes out-of-band and returns a durable URL.
type BlobUploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (*UploadResult, error)
}
