package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/doctorai-app/backend/internal/apperrors"
	"github.com/doctorai-app/backend/internal/domain"
)

const chatsNamespace = "doctor_ai.chat_conversations"

func TestChatServiceSave(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns generated id and stamps the turn", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		svc := NewChatService(mt.Coll)

		turn := &domain.ChatTurn{UserID: "user-1", Question: "q", Answer: "a"}
		id, err := svc.Save(context.Background(), turn)
		require.NoError(mt, err)

		_, err = primitive.ObjectIDFromHex(id)
		assert.NoError(mt, err)
		assert.False(mt, turn.Timestamp.IsZero())
	})
}

func TestChatServiceFindByUserFilter(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	turnDoc := bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "userId", Value: "user-1"},
		{Key: "question", Value: "Is this serious?"},
		{Key: "answer", Value: "See a doctor."},
		{Key: "isDeleted", Value: false},
		{Key: "timestamp", Value: time.Now()},
	}

	mt.Run("excludes deleted turns by default", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, chatsNamespace, mtest.FirstBatch, turnDoc),
			mtest.CreateCursorResponse(0, chatsNamespace, mtest.NextBatch),
		)
		svc := NewChatService(mt.Coll)

		turns, err := svc.FindByUser(context.Background(), "user-1", false)
		require.NoError(mt, err)
		require.Len(mt, turns, 1)
		assert.Equal(mt, "user-1", turns[0].UserID)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		require.Equal(mt, "find", evt.CommandName)
		filter := evt.Command.Lookup("filter").Document()
		assert.Equal(mt, "user-1", filter.Lookup("userId").StringValue())
		isDeleted, err := filter.LookupErr("isDeleted")
		require.NoError(mt, err)
		assert.False(mt, isDeleted.Boolean())
	})

	mt.Run("includeDeleted drops the isDeleted filter", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, chatsNamespace, mtest.FirstBatch, turnDoc),
			mtest.CreateCursorResponse(0, chatsNamespace, mtest.NextBatch),
		)
		svc := NewChatService(mt.Coll)

		_, err := svc.FindByUser(context.Background(), "user-1", true)
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		filter := evt.Command.Lookup("filter").Document()
		_, err = filter.LookupErr("isDeleted")
		assert.Error(mt, err)
	})
}

func TestChatServiceSoftDelete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("malformed id is not found", func(mt *mtest.T) {
		// Rejected before any command reaches the store.
		svc := NewChatService(mt.Coll)

		err := svc.SoftDelete(context.Background(), "not-a-hex-id")
		require.Error(mt, err)
		assert.Equal(mt, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	mt.Run("unknown id matches nothing and is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		svc := NewChatService(mt.Coll)

		err := svc.SoftDelete(context.Background(), primitive.NewObjectID().Hex())
		require.Error(mt, err)
		assert.Equal(mt, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	mt.Run("marks the turn deleted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		svc := NewChatService(mt.Coll)

		err := svc.SoftDelete(context.Background(), primitive.NewObjectID().Hex())
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		require.Equal(mt, "update", evt.CommandName)
		update := evt.Command.Lookup("updates").Array().Index(0).Value().Document()
		set := update.Lookup("u").Document().Lookup("$set").Document()
		assert.True(mt, set.Lookup("isDeleted").Boolean())
	})

	mt.Run("deleting an already deleted turn succeeds", func(mt *mtest.T) {
		// The filter matches on id alone, so the store reports a match even
		// though nothing changes.
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))
		svc := NewChatService(mt.Coll)

		err := svc.SoftDelete(context.Background(), primitive.NewObjectID().Hex())
		assert.NoError(mt, err)
	})
}
