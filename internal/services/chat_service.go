package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/doctorai-app/backend/internal/apperrors"
	"github.com/doctorai-app/backend/internal/domain"
)

// ChatService persists question/answer pairs. chats may be nil when no
// store is configured.
type ChatService struct {
	chats *mongo.Collection
}

func NewChatService(chats *mongo.Collection) *ChatService {
	return &ChatService{chats: chats}
}

// Save inserts the turn and returns its store-generated identifier.
func (s *ChatService) Save(ctx context.Context, turn *domain.ChatTurn) (string, error) {
	if s.chats == nil {
		return "", apperrors.New(apperrors.KindStoreUnavailable, "database not available")
	}

	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	res, err := s.chats.InsertOne(ctx, turn)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindStoreUnavailable, "failed to save chat")
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

// FindByUser returns the user's turns in store-native order. Deleted turns
// are filtered out unless includeDeleted is set.
func (s *ChatService) FindByUser(ctx context.Context, userID string, includeDeleted bool) ([]domain.ChatTurn, error) {
	if s.chats == nil {
		return nil, apperrors.New(apperrors.KindStoreUnavailable, "database not available")
	}

	filter := bson.M{"userId": userID}
	if !includeDeleted {
		filter["isDeleted"] = false
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	cursor, err := s.chats.Find(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindStoreUnavailable, "failed to query chats")
	}
	defer cursor.Close(ctx)

	turns := []domain.ChatTurn{}
	if err := cursor.All(ctx, &turns); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindStoreUnavailable, "failed to decode chats")
	}
	return turns, nil
}

// SoftDelete marks the turn deleted. The transition is one-way; there is no
// undelete. Deleting an already-deleted turn succeeds (the filter matches on
// id alone), while an unknown or malformed id reports NotFound.
func (s *ChatService) SoftDelete(ctx context.Context, id string) error {
	if s.chats == nil {
		return apperrors.New(apperrors.KindStoreUnavailable, "database not available")
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.New(apperrors.KindNotFound, "chat not found")
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	res, err := s.chats.UpdateByID(ctx, objectID, bson.M{"$set": bson.M{"isDeleted": true}})
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindStoreUnavailable, "failed to update chat")
	}
	if res.MatchedCount == 0 {
		return apperrors.New(apperrors.KindNotFound, "chat not found")
	}
	return nil
}
