package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/doctorai-app/backend/internal/apperrors"
	"github.com/doctorai-app/backend/internal/domain"
	"github.com/doctorai-app/backend/internal/imaging"
	"github.com/doctorai-app/backend/internal/logger"
)

// Bounded timeout on every store call.
const storeTimeout = 10 * time.Second

// RecordService runs the analyze-and-store pipeline and serves per-patient
// record retrieval. records may be nil when no store is configured; every
// operation then reports the store as unavailable. uploader may be nil, in
// which case images are stored inline as base64.
type RecordService struct {
	ai       domain.Analyzer
	records  *mongo.Collection
	uploader domain.BlobUploader
}

func NewRecordService(ai domain.Analyzer, records *mongo.Collection, uploader domain.BlobUploader) *RecordService {
	return &RecordService{
		ai:       ai,
		records:  records,
		uploader: uploader,
	}
}

// AnalyzeAndStore analyzes the image, persists the image bytes according to
// the configured storage strategy and inserts the diagnostic record.
// Records are written once and never mutated afterwards.
func (s *RecordService) AnalyzeAndStore(ctx context.Context, in domain.AnalyzeStoreInput) (*domain.AnalyzeStoreResult, error) {
	if s.records == nil {
		return nil, apperrors.New(apperrors.KindStoreUnavailable, "database not available")
	}

	diagnosis, err := s.ai.AnalyzeImage(ctx, in.Image, in.FileInfo.ContentType)
	if err != nil {
		return nil, err
	}

	var image domain.ImageReference
	var imageURL string
	if s.uploader != nil {
		uploaded, err := s.uploader.Upload(ctx, in.Image, in.FileInfo.ContentType)
		if err != nil {
			return nil, err
		}
		image = domain.ExternalImage(uploaded.URL, uploaded.StorageID)
		imageURL = uploaded.URL
	} else {
		image = domain.InlineImage(imaging.Encode(in.Image))
	}

	now := time.Now()
	record := domain.MedicalRecord{
		PatientID:   in.PatientID,
		Image:       image,
		Diagnosis:   diagnosis,
		DangerLevel: in.DangerLevel,
		Questions:   in.Questions,
		FileInfo:    in.FileInfo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	res, err := s.records.InsertOne(ctx, record)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindStoreUnavailable, "failed to insert record")
	}

	recordID := res.InsertedID.(primitive.ObjectID).Hex()
	logger.Info("stored diagnostic record", "record_id", recordID, "patient_id", in.PatientID)

	return &domain.AnalyzeStoreResult{
		RecordID:  recordID,
		Diagnosis: diagnosis,
		ImageURL:  imageURL,
	}, nil
}

// FindByPatient returns every record for the patient in store-native order.
// No match is an empty slice, not an error.
func (s *RecordService) FindByPatient(ctx context.Context, patientID string) ([]domain.MedicalRecord, error) {
	if s.records == nil {
		return nil, apperrors.New(apperrors.KindStoreUnavailable, "database not available")
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	cursor, err := s.records.Find(ctx, bson.M{"patient_id": patientID})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindStoreUnavailable, "failed to query records")
	}
	defer cursor.Close(ctx)

	records := []domain.MedicalRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindStoreUnavailable, "failed to decode records")
	}
	return records, nil
}
