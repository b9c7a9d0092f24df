package records

import (
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/ruteri/eir-deployer/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves the subset of the S3 REST API used by S3Store with path-style
// addressing.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
}

type listBucketResult struct {
	XMLName     xml.Name `xml:"ListBucketResult"`
	Name        string   `xml:"Name"`
	Prefix      string   `xml:"Prefix"`
	KeyCount    int      `xml:"KeyCount"`
	IsTruncated bool     `xml:"IsTruncated"`
	Contents    []struct {
		Key  string `xml:"Key"`
		Size int    `xml:"Size"`
	} `xml:"Contents"`
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/"+f.bucket), "/")

	switch {
	case r.Method == http.MethodPut && key != "":
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && key != "":
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		_, _ = w.Write(data)
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		prefix := r.URL.Query().Get("prefix")
		result := listBucketResult{Name: f.bucket, Prefix: prefix}
		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			result.Contents = append(result.Contents, struct {
				Key  string `xml:"Key"`
				Size int    `xml:"Size"`
			}{Key: k, Size: len(f.objects[k])})
		}
		result.KeyCount = len(keys)
		w.Header().Set("Content-Type", "application/xml")
		_ = xml.NewEncoder(w).Encode(result)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3Store(t *testing.T, prefix string) (*S3Store, *fakeS3) {
	fake := &fakeS3{bucket: "deployments", objects: make(map[string][]byte)}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewS3Store(S3Options{
		Bucket:    "deployments",
		Prefix:    prefix,
		Region:    "us-east-1",
		Endpoint:  server.URL,
		AccessKey: "test",
		SecretKey: "test",
		PathStyle: true,
	}, slog.Default())
	require.NoError(t, err)
	return store, fake
}

func TestS3Store_SaveLoad(t *testing.T) {
	store, fake := newTestS3Store(t, "vesta/")
	ctx := context.Background()

	_, err := store.Load(ctx, "arbitrum", "SafetyVault")
	assert.ErrorIs(t, err, interfaces.ErrRecordNotFound)

	rec := testRecord("arbitrum", "SafetyVault")
	require.NoError(t, store.Save(ctx, rec))
	assert.Contains(t, fake.objects, "vesta/arbitrum/SafetyVault.json")

	loaded, err := store.Load(ctx, "arbitrum", "SafetyVault")
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
}

func TestS3Store_List(t *testing.T) {
	store, fake := newTestS3Store(t, "")
	ctx := context.Background()

	for _, name := range []string{"VestaInterestManager", "SafetyVault"} {
		require.NoError(t, store.Save(ctx, testRecord("arbitrum", name)))
	}
	require.NoError(t, store.Save(ctx, testRecord("goerli", "SafetyVault")))
	fake.objects["arbitrum/nested/ignored.json"] = []byte("{}")

	recs, err := store.List(ctx, "arbitrum")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "SafetyVault", recs[0].Name)
	assert.Equal(t, "VestaInterestManager", recs[1].Name)
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(S3Options{}, slog.Default())
	assert.Error(t, err)
}
