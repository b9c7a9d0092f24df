package records

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/eir-deployer/interfaces"
)

// StoreFor creates a record store from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local filesystem, e.g. file://./deployments or file:///var/lib/deployments
//   - s3:// - Amazon S3 or compatible object storage
//
// A bare path without a scheme is treated as a file store. Several locations
// separated by commas are mirrored with a MultiStore, the first one being
// read first.
func StoreFor(locationURI string, log *slog.Logger) (interfaces.RecordStore, error) {
	if strings.Contains(locationURI, ",") {
		var stores []interfaces.RecordStore
		for _, part := range strings.Split(locationURI, ",") {
			store, err := StoreFor(strings.TrimSpace(part), log)
			if err != nil {
				return nil, err
			}
			stores = append(stores, store)
		}
		return NewMultiStore(stores, log), nil
	}

	if !strings.Contains(locationURI, "://") {
		if locationURI == "" {
			return nil, fmt.Errorf("%w: empty location", interfaces.ErrInvalidLocationURI)
		}
		return NewFileStore(locationURI, log)
	}

	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return createFileStore(u, log)
	case "s3":
		return createS3Store(u, log)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %s", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// createFileStore creates a file system record store.
// URI format: file:///absolute/path/ or file://./relative/path/
func createFileStore(u *url.URL, log *slog.Logger) (interfaces.RecordStore, error) {
	log.Debug("Creating file record store", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI: %s", interfaces.ErrInvalidLocationURI, u.String())
	}

	return NewFileStore(path, log)
}

// createS3Store creates an S3 or S3-compatible record store.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=http://minio:9000&path_style=true
// Without embedded credentials the SDK's default credential chain is used.
func createS3Store(u *url.URL, log *slog.Logger) (interfaces.RecordStore, error) {
	log.Debug("Creating S3 record store", slog.String("bucket", u.Host))

	query := u.Query()
	opts := S3Options{
		Bucket:    u.Host,
		Prefix:    strings.TrimPrefix(u.Path, "/"),
		Region:    query.Get("region"),
		Endpoint:  query.Get("endpoint"),
		PathStyle: query.Get("path_style") == "true",
	}

	if u.User != nil {
		opts.AccessKey = u.User.Username()
		opts.SecretKey, _ = u.User.Password()
		log.Debug("Using embedded S3 credentials")
	}

	return NewS3Store(opts, log)
}
