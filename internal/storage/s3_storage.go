package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
)

// IContractArchive stores signed contract snapshots in S3.
type IContractArchive interface {
	PutContract(ctx context.Context, contract *models.LeaseContract) (string, error)
	ContractArchived(ctx context.Context, contractID string) (bool, error)
	PresignedContractURL(ctx context.Context, contractID string) (string, error)
}

// ContractSnapshot is the archived document.
type ContractSnapshot struct {
	SnapshotID string                `json:"snapshot_id"`
	ArchivedAt time.Time             `json:"archived_at"`
	Contract   *models.LeaseContract `json:"contract"`
}

// s3API is the subset of *s3.Client used here.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// s3Storage implements IContractArchive.
type s3Storage struct {
	cfg       *config.Config
	s3Client  s3API
	presigner presigner
}

// NewS3Storage creates a new S3 storage service.
func NewS3Storage(cfg *config.Config) (IContractArchive, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	return newS3Storage(cfg, s3Client, s3.NewPresignClient(s3Client)), nil
}

func newS3Storage(cfg *config.Config, client s3API, p presigner) *s3Storage {
	return &s3Storage{cfg: cfg, s3Client: client, presigner: p}
}

// ContractKey is the object key of a contract's latest snapshot.
func ContractKey(prefix, contractID string) string {
	return path.Join(prefix, contractID+".json")
}

// PutContract writes a JSON snapshot of the contract and returns its object key.
// Archiving the same contract again overwrites the previous snapshot.
func (s *s3Storage) PutContract(ctx context.Context, contract *models.LeaseContract) (string, error) {
	snapshot := ContractSnapshot{
		SnapshotID: uuid.NewString(),
		ArchivedAt: time.Now().UTC(),
		Contract:   contract,
	}
	body, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode contract snapshot: %w", err)
	}

	key := ContractKey(s.cfg.ContractArchivePrefix, contract.ID)
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"snapshot-id": snapshot.SnapshotID,
			"status":      string(contract.Status),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload contract snapshot %s: %w", key, err)
	}
	return key, nil
}

// ContractArchived reports whether the contract's snapshot has been written.
func (s *s3Storage) ContractArchived(ctx context.Context, contractID string) (bool, error) {
	key := ContractKey(s.cfg.ContractArchivePrefix, contractID)
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check contract snapshot %s: %w", key, err)
	}
	return true, nil
}

// PresignedContractURL returns a short-lived download URL for the archived snapshot.
func (s *s3Storage) PresignedContractURL(ctx context.Context, contractID string) (string, error) {
	key := ContractKey(s.cfg.ContractArchivePrefix, contractID)
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned GET URL for key %s: %w", key, err)
	}
	return req.URL, nil
}
