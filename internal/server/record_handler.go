package server

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/doctorai-app/backend/internal/apperrors"
	"github.com/doctorai-app/backend/internal/domain"
)

// Upper bound on the caller-supplied questions array.
const maxQuestions = 20

// RecordHandler serves the analyze-and-store pipeline and per-patient
// record retrieval.
type RecordHandler struct {
	router  fiber.Router
	records domain.RecordService
}

func NewRecordHandler(router fiber.Router, records domain.RecordService) *RecordHandler {
	return &RecordHandler{router: router, records: records}
}

func (h *RecordHandler) Register() {
	h.router.Post("/analyze_and_store", h.analyzeAndStore)
	h.router.Get("/records/:patient_id", h.getRecords)
}

func (h *RecordHandler) analyzeAndStore(c *fiber.Ctx) error {
	patientID := c.FormValue("patient_id")
	if patientID == "" {
		return respondError(c, apperrors.New(apperrors.KindInvalidInput, "patient_id is required"))
	}

	// All input validation happens before any remote call is made.
	questions, err := parseQuestions(c.FormValue("questions"))
	if err != nil {
		return respondError(c, err)
	}

	dangerLevel := 0
	if raw := c.FormValue("danger_level"); raw != "" {
		dangerLevel, err = strconv.Atoi(raw)
		if err != nil {
			return respondError(c, apperrors.New(apperrors.KindInvalidInput, "danger_level must be an integer"))
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondError(c, apperrors.New(apperrors.KindInvalidInput, "image file is required"))
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return respondError(c, apperrors.New(apperrors.KindInvalidInput, "file must be an image"))
	}

	data, err := readUpload(fileHeader)
	if err != nil {
		return respondError(c, apperrors.Wrap(err, apperrors.KindInvalidInput, "failed to read uploaded file"))
	}

	result, err := h.records.AnalyzeAndStore(c.UserContext(), domain.AnalyzeStoreInput{
		PatientID:   patientID,
		Image:       data,
		DangerLevel: dangerLevel,
		Questions:   questions,
		FileInfo: domain.FileInfo{
			Filename:    fileHeader.Filename,
			ContentType: contentType,
			Size:        fileHeader.Size,
		},
	})
	if err != nil {
		return respondError(c, err)
	}

	resp := fiber.Map{
		"status":    "success",
		"record_id": result.RecordID,
		"diagnosis": result.Diagnosis,
	}
	if result.ImageURL != "" {
		resp["image_url"] = result.ImageURL
	}
	return c.JSON(resp)
}

func (h *RecordHandler) getRecords(c *fiber.Ctx) error {
	records, err := h.records.FindByPatient(c.UserContext(), c.Params("patient_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "records": records})
}

func parseQuestions(raw string) ([]domain.QuestionAnswer, error) {
	if raw == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "questions is required")
	}

	var questions []domain.QuestionAnswer
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "questions must be a JSON array of question/answer pairs")
	}
	if len(questions) > maxQuestions {
		return nil, apperrors.New(apperrors.KindInvalidInput,
			fmt.Sprintf("questions may contain at most %d entries", maxQuestions))
	}
	return questions, nil
}
