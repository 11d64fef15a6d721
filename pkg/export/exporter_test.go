package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/logship/pkg/backend"
	"github.com/storeops/logship/pkg/datefolder"
	"github.com/storeops/logship/pkg/logtype"
)

// fakeBackend serves listings and objects from memory.
type fakeBackend struct {
	objects  map[string][]byte // key -> body
	listErr  map[string]error  // prefix -> forced error
	fetchErr map[string]error  // key -> forced error
	authErr  error

	listCalls  []string
	fetchCalls []string

	// cancelAfterLists cancels the context after this many List calls.
	cancelAfterLists int
	cancel           context.CancelFunc
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		objects:  map[string][]byte{},
		listErr:  map[string]error{},
		fetchErr: map[string]error{},
	}
}

func (f *fakeBackend) Authenticate(ctx context.Context) error { return f.authErr }

func (f *fakeBackend) List(ctx context.Context, prefix string, maxKeys int) ([]backend.ObjectRecord, error) {
	f.listCalls = append(f.listCalls, prefix)
	if f.cancel != nil && len(f.listCalls) >= f.cancelAfterLists {
		f.cancel()
		return nil, ctx.Err()
	}
	if err, ok := f.listErr[prefix]; ok {
		return nil, err
	}

	var records []backend.ObjectRecord
	for key, body := range f.objects {
		if strings.HasPrefix(key, prefix) {
			records = append(records, backend.ObjectRecord{Key: key, Size: int64(len(body))})
		}
	}
	// Map iteration is unordered; restore listing order.
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

func (f *fakeBackend) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	f.fetchCalls = append(f.fetchCalls, key)
	if err, ok := f.fetchErr[key]; ok {
		return nil, "", err
	}
	body, ok := f.objects[key]
	if !ok {
		return nil, "", backend.ErrObjectNotFound
	}
	return body, "application/octet-stream", nil
}

func (f *fakeBackend) Close() error { return nil }

var _ backend.StorageBackend = (*fakeBackend)(nil)

func apiAccessLines(n int) []byte {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `{"timestamp":"2024-01-01T00:00:%02dZ","clientIp":"10.0.0.1","statusCode":200}`+"\n", i)
	}
	return []byte(b.String())
}

func TestExport_LimitAcrossPrefixes(t *testing.T) {
	fb := newFakeBackend()
	fb.objects["2024/01/01/store1.api_access.aaa.json"] = apiAccessLines(3)
	fb.objects["2024/01/02/store1.api_access.bbb.json"] = apiAccessLines(4)

	e := NewExporter(fb, Options{})
	csv, err := e.Export(context.Background(), Request{
		LogType:   logtype.APIAccess,
		StartDate: "2024/01/01",
		EndDate:   "2024/01/02",
		Limit:     5,
	})
	require.NoError(t, err)

	lines := strings.Split(csv, "\n")
	require.Len(t, lines, 6, "header plus 5 data rows")
	assert.Equal(t, strings.Join(logtype.Schema(logtype.APIAccess), ","), lines[0])
	// First prefix contributes all 3 rows, second only 2.
	assert.Contains(t, lines[1], "2024-01-01T00:00:00Z")
	assert.Contains(t, lines[3], "2024-01-01T00:00:02Z")
}

func TestExport_TypeFiltering(t *testing.T) {
	fb := newFakeBackend()
	fb.objects["2024/01/01/store1.api_access.aaa.json"] = apiAccessLines(2)
	fb.objects["2024/01/01/store1.store_access.bbb.json"] = apiAccessLines(2)
	fb.objects["2024/01/01/readme.txt"] = []byte("not a log")

	e := NewExporter(fb, Options{})
	csv, err := e.Export(context.Background(), Request{
		LogType:   logtype.APIAccess,
		StartDate: "2024/01/01",
		EndDate:   "2024/01/01",
		Limit:     100,
	})
	require.NoError(t, err)

	assert.Len(t, strings.Split(csv, "\n"), 3, "header plus 2 rows from the matching object")
	assert.Equal(t, []string{"2024/01/01/store1.api_access.aaa.json"}, fb.fetchCalls)
}

func TestExport_AllWildcard(t *testing.T) {
	fb := newFakeBackend()
	fb.objects["2024/01/01/store1.api_access.aaa.json"] = apiAccessLines(1)
	fb.objects["2024/01/01/store1.audit.bbb.json"] = []byte(`{"auditLogEvent":{"logDate":1704067200}}` + "\n")
	fb.objects["2024/01/01/readme.txt"] = []byte("skip")

	e := NewExporter(fb, Options{})
	csv, err := e.Export(context.Background(), Request{
		LogType:   logtype.All,
		StartDate: "2024/01/01",
		EndDate:   "2024/01/01",
		Limit:     100,
	})
	require.NoError(t, err)

	lines := strings.Split(csv, "\n")
	require.Len(t, lines, 3)
	// Header comes from the first known type; each file still projects
	// with its own detected schema.
	assert.Equal(t, strings.Join(logtype.Schema(logtype.APIAccess), ","), lines[0])
	assert.Len(t, fb.fetchCalls, 2, "unclassifiable object is never fetched")
}

func TestExport_ListFailureTolerated(t *testing.T) {
	fb := newFakeBackend()
	fb.listErr["2024/01/01/"] = errors.New("throttled")
	fb.objects["2024/01/02/store1.api_access.aaa.json"] = apiAccessLines(2)

	e := NewExporter(fb, Options{})
	csv, err := e.Export(context.Background(), Request{
		LogType:   logtype.APIAccess,
		StartDate: "2024/01/01",
		EndDate:   "2024/01/02",
		Limit:     100,
	})
	require.NoError(t, err)
	assert.Len(t, strings.Split(csv, "\n"), 3, "second prefix still exported")
}

func TestExport_FetchFailureTolerated(t *testing.T) {
	fb := newFakeBackend()
	fb.objects["2024/01/01/store1.api_access.aaa.json"] = apiAccessLines(2)
	fb.objects["2024/01/01/store1.api_access.bbb.json"] = apiAccessLines(3)
	fb.fetchErr["2024/01/01/store1.api_access.aaa.json"] = errors.New("connection reset")

	e := NewExporter(fb, Options{})
	csv, err := e.Export(context.Background(), Request{
		LogType:   logtype.APIAccess,
		StartDate: "2024/01/01",
		EndDate:   "2024/01/01",
		Limit:     100,
	})
	require.NoError(t, err)
	assert.Len(t, strings.Split(csv, "\n"), 4, "rows from the healthy object only")
}

func TestExport_AuthFailureFatal(t *testing.T) {
	fb := newFakeBackend()
	fb.authErr = &backend.CredentialError{Reason: backend.ReasonInvalidGrant, Message: "bad signature"}

	e := NewExporter(fb, Options{})
	_, err := e.Export(context.Background(), Request{
		LogType:   logtype.APIAccess,
		StartDate: "2024/01/01",
		EndDate:   "2024/01/01",
		Limit:     10,
	})
	require.Error(t, err)
	assert.True(t, backend.IsCredentialError(err))
	assert.Empty(t, fb.listCalls)
}

func TestExport_Cancellation(t *testing.T) {
	fb := newFakeBackend()
	fb.objects["2024/01/01/store1.api_access.aaa.json"] = apiAccessLines(2)
	fb.objects["2024/01/02/store1.api_access.bbb.json"] = apiAccessLines(2)

	ctx, cancel := context.WithCancel(context.Background())
	fb.cancel = cancel
	fb.cancelAfterLists = 2

	e := NewExporter(fb, Options{})
	csv, err := e.Export(ctx, Request{
		LogType:   logtype.APIAccess,
		StartDate: "2024/01/01",
		EndDate:   "2024/01/02",
		Limit:     100,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, csv, "no partial output on cancellation")
}

func TestExport_EmptyRangeHeaderOnly(t *testing.T) {
	fb := newFakeBackend()

	e := NewExporter(fb, Options{})
	csv, err := e.Export(context.Background(), Request{
		LogType:   logtype.StoreAccess,
		StartDate: "2024/01/01",
		EndDate:   "2024/01/03",
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, strings.Join(logtype.Schema(logtype.StoreAccess), ","), csv)
	assert.Len(t, fb.listCalls, 3, "every prefix in the range is tried")
}

func TestExport_UnlimitedThreshold(t *testing.T) {
	fb := newFakeBackend()
	fb.objects["2024/01/01/store1.api_access.aaa.json"] = apiAccessLines(20)

	e := NewExporter(fb, Options{})
	csv, err := e.Export(context.Background(), Request{
		LogType:   logtype.APIAccess,
		StartDate: "2024/01/01",
		EndDate:   "2024/01/01",
		Limit:     UnlimitedThreshold,
	})
	require.NoError(t, err)
	assert.Len(t, strings.Split(csv, "\n"), 21, "limit at the threshold disables the cap")
}

func TestExport_InvalidRequest(t *testing.T) {
	fb := newFakeBackend()
	e := NewExporter(fb, Options{})

	t.Run("unknown log type", func(t *testing.T) {
		_, err := e.Export(context.Background(), Request{
			LogType: "billing", StartDate: "2024/01/01", EndDate: "2024/01/01", Limit: 10,
		})
		assert.Error(t, err)
	})

	t.Run("non-positive limit", func(t *testing.T) {
		_, err := e.Export(context.Background(), Request{
			LogType: logtype.Audit, StartDate: "2024/01/01", EndDate: "2024/01/01",
		})
		assert.Error(t, err)
	})

	t.Run("inverted range yields no work", func(t *testing.T) {
		csv, err := e.Export(context.Background(), Request{
			LogType: logtype.Audit, StartDate: "2024/01/02", EndDate: "2024/01/01", Limit: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, strings.Join(logtype.Schema(logtype.Audit), ","), csv)
	})
}

func TestAnalyze(t *testing.T) {
	probe := datefolder.RecentFolders(1)[0]

	t.Run("objects present", func(t *testing.T) {
		fb := newFakeBackend()
		fb.objects[probe+"store1.api_access.aaa.json"] = apiAccessLines(1)
		fb.objects[probe+"store1.audit.bbb.json"] = apiAccessLines(1)

		analysis, err := Analyze(context.Background(), fb, nil)
		require.NoError(t, err)
		assert.True(t, analysis.Connected)
		assert.Equal(t, 1, analysis.FolderCount)
		assert.Equal(t, []string{strings.TrimSuffix(probe, "/")}, analysis.RecentDates)
		assert.Equal(t, 2, analysis.Recommendations.TotalLogFiles)
		assert.Equal(t, suggestedLimit, analysis.Recommendations.SuggestedLimit)
		assert.Contains(t, analysis.Recommendations.AvailableDateRange, " - ")
	})

	t.Run("empty bucket still connects", func(t *testing.T) {
		fb := newFakeBackend()
		analysis, err := Analyze(context.Background(), fb, nil)
		require.NoError(t, err)
		assert.True(t, analysis.Connected)
		assert.Zero(t, analysis.FolderCount)
		assert.Empty(t, analysis.RecentDates)
	})

	t.Run("listing failure is fatal", func(t *testing.T) {
		fb := newFakeBackend()
		fb.listErr[probe] = backend.ErrAccessDenied
		_, err := Analyze(context.Background(), fb, nil)
		assert.ErrorIs(t, err, backend.ErrAccessDenied)
	})

	t.Run("auth failure is fatal", func(t *testing.T) {
		fb := newFakeBackend()
		fb.authErr = &backend.CredentialError{Reason: backend.ReasonInvalidClient, Message: "unknown client"}
		_, err := Analyze(context.Background(), fb, nil)
		assert.True(t, backend.IsCredentialError(err))
		assert.Empty(t, fb.listCalls)
	})
}
