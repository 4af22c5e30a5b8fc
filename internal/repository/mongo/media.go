package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cineplayer/internal/domain"
)

const mediaCollection = "media"

type audioTrackDoc struct {
	ID          string `bson:"id,omitempty"`
	Index       *int   `bson:"index,omitempty"`
	Language    string `bson:"language,omitempty"`
	DisplayName string `bson:"displayName"`
	IsDefault   bool   `bson:"isDefault,omitempty"`
}

type subtitleTrackDoc struct {
	ID          string `bson:"id,omitempty"`
	Language    string `bson:"language,omitempty"`
	DisplayName string `bson:"displayName"`
	IsForced    bool   `bson:"isForced,omitempty"`
	URL         string `bson:"url,omitempty"`
}

type mediaDoc struct {
	ID             string             `bson:"_id"`
	Title          string             `bson:"title,omitempty"`
	MasterURL      string             `bson:"masterUrl"`
	AudioTracks    []audioTrackDoc    `bson:"audioTracks,omitempty"`
	SubtitleTracks []subtitleTrackDoc `bson:"subtitleTracks,omitempty"`
	UpdatedAt      int64              `bson:"updatedAt"`
}

type MediaRepository struct {
	collection *mongo.Collection
}

func NewMediaRepository(client *mongo.Client, dbName string) *MediaRepository {
	return &MediaRepository{collection: client.Database(dbName).Collection(mediaCollection)}
}

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	return mongo.Connect(ctx, opts...)
}

func (r *MediaRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updatedAt", Value: -1}},
	})
	return err
}

func (r *MediaRepository) Get(ctx context.Context, id domain.MediaID) (domain.MediaItem, error) {
	var doc mediaDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.MediaItem{}, domain.ErrNotFound
		}
		return domain.MediaItem{}, err
	}
	return fromMediaDoc(doc), nil
}

// List returns items most recently updated first. limit <= 0 means no limit.
func (r *MediaRepository) List(ctx context.Context, limit int) ([]domain.MediaItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []mediaDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	items := make([]domain.MediaItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, fromMediaDoc(doc))
	}
	return items, nil
}

func (r *MediaRepository) Upsert(ctx context.Context, item domain.MediaItem) error {
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now().UTC()
	}
	doc := toMediaDoc(item)
	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *MediaRepository) Delete(ctx context.Context, id domain.MediaID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toMediaDoc(item domain.MediaItem) mediaDoc {
	doc := mediaDoc{
		ID:        string(item.ID),
		Title:     item.Title,
		MasterURL: item.MasterURL,
		UpdatedAt: item.UpdatedAt.Unix(),
	}
	for _, t := range item.AudioTracks {
		doc.AudioTracks = append(doc.AudioTracks, audioTrackDoc{
			ID:          t.ID,
			Index:       t.Index,
			Language:    t.LanguageCode,
			DisplayName: t.DisplayName,
			IsDefault:   t.IsDefault,
		})
	}
	for _, t := range item.SubtitleTracks {
		doc.SubtitleTracks = append(doc.SubtitleTracks, subtitleTrackDoc{
			ID:          t.ID,
			Language:    t.LanguageCode,
			DisplayName: t.DisplayName,
			IsForced:    t.IsForced,
			URL:         t.URL,
		})
	}
	return doc
}

func fromMediaDoc(doc mediaDoc) domain.MediaItem {
	item := domain.MediaItem{
		ID:        domain.MediaID(doc.ID),
		Title:     doc.Title,
		MasterURL: doc.MasterURL,
		UpdatedAt: time.Unix(doc.UpdatedAt, 0).UTC(),
	}
	for _, t := range doc.AudioTracks {
		item.AudioTracks = append(item.AudioTracks, domain.AudioTrackInfo{
			ID:           t.ID,
			Index:        t.Index,
			LanguageCode: t.Language,
			DisplayName:  t.DisplayName,
			IsDefault:    t.IsDefault,
		})
	}
	for _, t := range doc.SubtitleTracks {
		item.SubtitleTracks = append(item.SubtitleTracks, domain.SubtitleTrackInfo{
			ID:           t.ID,
			LanguageCode: t.Language,
			DisplayName:  t.DisplayName,
			IsForced:     t.IsForced,
			URL:          t.URL,
		})
	}
	return item
}
