package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	sc "github.com/dmitrijs2005/lastping/internal/server/config"
	"github.com/dmitrijs2005/lastping/internal/server/models"
	"github.com/dmitrijs2005/lastping/internal/server/repositories/repomanager"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// Snapshot is the exported state of the ledger at one moment: every account
// view plus the circulating supply. Snapshots are operator-facing backups,
// not part of the client API.
type Snapshot struct {
	TakenAt     time.Time             `json:"takenAt"`
	TotalSupply int64                 `json:"totalSupply"`
	Accounts    []*models.AccountView `json:"accounts"`
}

// SnapshotService serializes the full ledger state and uploads it to the
// configured S3-compatible bucket.
type SnapshotService struct {
	rm     repomanager.RepositoryManager
	db     *sql.DB
	config *sc.Config
	now    func() time.Time
}

func NewSnapshotService(rm repomanager.RepositoryManager, db *sql.DB, config *sc.Config) *SnapshotService {
	return &SnapshotService{rm: rm, db: db, config: config, now: time.Now}
}

func snapshotStorageKey(d time.Time) string {
	return fmt.Sprintf("snapshots/%d/%d/%d/%v.json", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *SnapshotService) getS3Client() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Take collects the snapshot and uploads it, returning the object key.
func (s *SnapshotService) Take(ctx context.Context) (string, error) {
	now := s.now()

	accounts, err := s.rm.Accounts(s.db).List(ctx)
	if err != nil {
		return "", err
	}

	supply, err := s.rm.LedgerState(s.db).TotalSupply(ctx)
	if err != nil {
		return "", err
	}

	snapshot := &Snapshot{TakenAt: now, TotalSupply: supply}
	for _, a := range accounts {
		snapshot.Accounts = append(snapshot.Accounts, a.View(now))
	}

	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", err
	}

	client, err := s.getS3Client()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := snapshotStorageKey(now)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", err
	}

	return key, nil
}
