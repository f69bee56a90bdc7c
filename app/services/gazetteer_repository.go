package services

import (
	"context"
	"fmt"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/app/models"
	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// GazetteerStore nơi lưu gazetteer dùng chung giữa các instance
type GazetteerStore interface {
	Replace(ctx context.Context, g *gazetteer.Gazetteer) (int, error)
	Load(ctx context.Context) (*gazetteer.Gazetteer, error)
	Count(ctx context.Context) (int64, error)
}

// GazetteerRepository lưu gazetteer trong collection "gazetteer" của MongoDB
type GazetteerRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewGazetteerRepository tạo repository và index theo seq
func NewGazetteerRepository(db *mongo.Database, logger *zap.Logger) *GazetteerRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	collection := db.Collection("gazetteer")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "seq", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "lv0", Value: 1}}},
	})
	if err != nil {
		logger.Warn("Không thể tạo indexes cho gazetteer", zap.Error(err))
	}

	return &GazetteerRepository{collection: collection, logger: logger}
}

// Replace xóa gazetteer cũ rồi insert toàn bộ bản ghi theo lô
func (gr *GazetteerRepository) Replace(ctx context.Context, g *gazetteer.Gazetteer) (int, error) {
	deleted, err := gr.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("lỗi xóa gazetteer cũ: %w", err)
	}

	const batchSize = 1000
	version := g.Version()
	inserted := 0
	docs := make([]interface{}, 0, batchSize)
	for i, rec := range g.Records() {
		docs = append(docs, models.NewGazetteerRecord(i, rec, version))
		if len(docs) == batchSize || i == g.Len()-1 {
			if _, err := gr.collection.InsertMany(ctx, docs); err != nil {
				return inserted, fmt.Errorf("lỗi insert gazetteer: %w", err)
			}
			inserted += len(docs)
			docs = docs[:0]
		}
	}

	gr.logger.Info("Gazetteer replaced in MongoDB",
		zap.String("gazetteer_version", version),
		zap.Int64("deleted_count", deleted.DeletedCount),
		zap.Int("inserted_count", inserted))
	return inserted, nil
}

// Load đọc toàn bộ gazetteer theo thứ tự seq
func (gr *GazetteerRepository) Load(ctx context.Context) (*gazetteer.Gazetteer, error) {
	opts := options.Find().SetSort(bson.D{bson.E{Key: "seq", Value: 1}})
	cursor, err := gr.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("lỗi query gazetteer: %w", err)
	}
	defer cursor.Close(ctx)

	var records []gazetteer.AddressRecord
	for cursor.Next(ctx) {
		var doc models.GazetteerRecord
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("lỗi decode gazetteer record: %w", err)
		}
		records = append(records, doc.Record())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return gazetteer.New(records), nil
}

// Count số bản ghi gazetteer trong MongoDB
func (gr *GazetteerRepository) Count(ctx context.Context) (int64, error) {
	return gr.collection.CountDocuments(ctx, bson.M{})
}
