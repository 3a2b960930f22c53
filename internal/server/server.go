package server

import (
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/doctorai-app/backend/internal/apperrors"
	"github.com/doctorai-app/backend/internal/domain"
	"github.com/doctorai-app/backend/internal/logger"
)

// Dependencies are the service handles the HTTP layer orchestrates. All are
// constructed once at startup and safe for concurrent use.
type Dependencies struct {
	AI      domain.Analyzer
	Records domain.RecordService
	Chats   domain.ChatService
}

type Server struct {
	app *fiber.App
}

func New(deps Dependencies) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024,
	})

	// Unrestricted CORS, acceptable for a development deployment only.
	app.Use(cors.New())

	app.Get("/", root)
	app.Get("/health", health)

	NewAnalysisHandler(app, deps.AI).Register()
	NewRecordHandler(app, deps.Records).Register()
	NewChatHandler(app, deps.Chats).Register()

	return &Server{app: app}
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Doctor AI API is running", "status": "success"})
}

func health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy", "timestamp": time.Now().Format(time.RFC3339)})
}

func respondError(c *fiber.Ctx, err error) error {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed", "kind", string(kind), "error", err.Error())
	}
	return c.Status(status).JSON(fiber.Map{"status": "error", "detail": apperrors.Detail(err)})
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindInvalidInput:
		return fiber.StatusBadRequest
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindStoreUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
