package records

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/ruteri/eir-deployer/interfaces"
)

// S3Options configures an S3Store.
type S3Options struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string

	// PathStyle forces path-style addressing, needed by most S3-compatible
	// services.
	PathStyle bool
}

// S3Store implements a record store using Amazon S3 or compatible services.
// Records are stored as <prefix>/<network>/<name>.json objects.
type S3Store struct {
	client      *s3.S3
	bucketName  string
	prefix      string
	log         *slog.Logger
	locationURI string
}

// NewS3Store creates a new S3 record store. Static credentials are used when
// both keys are set; otherwise the SDK's default credential chain applies
// (environment, shared config, instance role).
func NewS3Store(opts S3Options, log *slog.Logger) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("no bucket configured")
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}

	uri := fmt.Sprintf("s3://%s/%s?region=%s", opts.Bucket, opts.Prefix, opts.Region)
	if opts.Endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", opts.Endpoint)
	}

	cfg := aws.Config{
		Region:           aws.String(opts.Region),
		S3ForcePathStyle: aws.Bool(opts.PathStyle),
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{
		client:      s3.New(sess),
		bucketName:  opts.Bucket,
		prefix:      strings.Trim(opts.Prefix, "/"),
		log:         log,
		locationURI: uri,
	}, nil
}

// Load fetches the record of name on network.
// Returns ErrRecordNotFound if the object doesn't exist.
func (s *S3Store) Load(ctx context.Context, network, name string) (*interfaces.DeploymentRecord, error) {
	start := time.Now()
	key, err := s.objectKey(network, name)
	if err != nil {
		return nil, err
	}

	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			s.log.Debug("Record not found in S3",
				slog.String("bucket", s.bucketName),
				slog.String("key", key),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrRecordNotFound
		}

		s.log.Error("Failed to get object from S3",
			slog.String("bucket", s.bucketName),
			slog.String("key", key),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	s.log.Debug("Fetched record from S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return decodeRecord(data)
}

// Save uploads rec, replacing any previous object with the same key.
func (s *S3Store) Save(ctx context.Context, rec *interfaces.DeploymentRecord) error {
	key, err := s.objectKey(rec.Network, rec.Name)
	if err != nil {
		return err
	}

	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object to S3: %w", err)
	}

	s.log.Debug("Stored record in S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", key),
		slog.String("address", rec.Address.Hex()))

	return nil
}

// List returns every record of network, ordered by name.
func (s *S3Store) List(ctx context.Context, network string) ([]interfaces.DeploymentRecord, error) {
	if _, err := recordKey(network, "_"); err != nil {
		return nil, err
	}

	listPrefix := network + "/"
	if s.prefix != "" {
		listPrefix = path.Join(s.prefix, network) + "/"
	}

	var keys []string
	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(listPrefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			rest := strings.TrimPrefix(key, listPrefix)
			if strings.Contains(rest, "/") || !strings.HasSuffix(rest, recordExt) {
				continue
			}
			keys = append(keys, strings.TrimSuffix(rest, recordExt))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects in S3: %w", err)
	}

	recs := make([]interfaces.DeploymentRecord, 0, len(keys))
	for _, name := range keys {
		rec, err := s.Load(ctx, network, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		recs = append(recs, *rec)
	}

	sortRecords(recs)
	return recs, nil
}

// LocationURI returns the URI that identifies this record store.
func (s *S3Store) LocationURI() string {
	return s.locationURI
}

func (s *S3Store) objectKey(network, name string) (string, error) {
	key, err := recordKey(network, name)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return key, nil
	}
	return path.Join(s.prefix, key), nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == 404 {
		return true
	}
	return false
}
