package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"codegen/internal/domain/entity"
	"codegen/internal/domain/repository"
	"codegen/internal/infrastructure/metrics"
)

type MongoJobRepo struct {
	jobsCol *mongo.Collection
}

var _ repository.JobRepository = (*MongoJobRepo)(nil)

// Connect dials and pings the server.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(database), nil
}

func NewMongoJobRepo(db *mongo.Database) *MongoJobRepo {
	col := db.Collection("jobs")

	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{bson.E{Key: "status", Value: 1}}},
	})

	return &MongoJobRepo{
		jobsCol: col,
	}
}

func (r *MongoJobRepo) Create(ctx context.Context, job *entity.Job) error {
	metrics.IncStoreOp("mongo", "put")

	_, err := r.jobsCol.InsertOne(ctx, job)
	if err != nil {
		metrics.IncError("mongo_job_repo", "create_error")
		return err
	}
	return nil
}

func (r *MongoJobRepo) GetByID(ctx context.Context, id string) (*entity.Job, error) {
	metrics.IncStoreOp("mongo", "get")

	var job entity.Job
	err := r.jobsCol.FindOne(ctx, bson.M{"id": id}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", entity.ErrJobNotFound, id)
		}
		metrics.IncError("mongo_job_repo", "get_error")
		return nil, err
	}
	return &job, nil
}

func (r *MongoJobRepo) List(ctx context.Context) ([]*entity.Job, error) {
	metrics.IncStoreOp("mongo", "list")
	return r.find(ctx, bson.D{}, "list")
}

func (r *MongoJobRepo) ListByStatus(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error) {
	metrics.IncStoreOp("mongo", "list")
	return r.find(ctx, bson.M{"status": status}, "list_by_status")
}

func (r *MongoJobRepo) find(ctx context.Context, filter interface{}, op string) ([]*entity.Job, error) {
	opts := options.Find().SetSort(bson.D{bson.E{Key: "created_at", Value: 1}})
	cur, err := r.jobsCol.Find(ctx, filter, opts)
	if err != nil {
		metrics.IncError("mongo_job_repo", op+"_error")
		return nil, err
	}
	defer func() {
		if err := cur.Close(ctx); err != nil {
			slog.Warn("close cursor", "err", err)
		}
	}()

	var jobs []*entity.Job
	for cur.Next(ctx) {
		var j entity.Job
		if err := cur.Decode(&j); err != nil {
			metrics.IncError("mongo_job_repo", op+"_decode_error")
			return nil, err
		}
		jobs = append(jobs, &j)
	}
	if err := cur.Err(); err != nil {
		metrics.IncError("mongo_job_repo", op+"_cursor_error")
		return nil, err
	}
	return jobs, nil
}

func (r *MongoJobRepo) Update(ctx context.Context, job *entity.Job) error {
	metrics.IncStoreOp("mongo", "put")

	job.UpdatedAt = time.Now().UTC()
	res, err := r.jobsCol.ReplaceOne(ctx, bson.M{"id": job.ID}, job)
	if err != nil {
		metrics.IncError("mongo_job_repo", "update_error")
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", entity.ErrJobNotFound, job.ID)
	}
	return nil
}

func (r *MongoJobRepo) UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error {
	metrics.IncStoreOp("mongo", "put")

	filter := bson.M{"id": id}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	}
	res, err := r.jobsCol.UpdateOne(ctx, filter, update)
	if err != nil {
		metrics.IncError("mongo_job_repo", "update_status_error")
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", entity.ErrJobNotFound, id)
	}
	return nil
}

func (r *MongoJobRepo) Delete(ctx context.Context, id string) error {
	metrics.IncStoreOp("mongo", "delete")

	res, err := r.jobsCol.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		metrics.IncError("mongo_job_repo", "delete_error")
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", entity.ErrJobNotFound, id)
	}
	return nil
}

func (r *MongoJobRepo) CountByStatus(ctx context.Context, status entity.JobStatus) (int, error) {
	metrics.IncStoreOp("mongo", "count")

	count, err := r.jobsCol.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		metrics.IncError("mongo_job_repo", "count_by_status_error")
		return 0, err
	}
	return int(count), nil
}
