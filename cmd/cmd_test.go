package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/voicelead/db"
	"github.com/jsphweid/voicelead/midi"
	"github.com/jsphweid/voicelead/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const settingsYAML = `
harmonies:
  - {start: 0, end: 1920, scale: [0, 2, 4, 5, 7, 9, 11], chord: [0, 4, 7]}
  - {start: 1920, end: 3840, scale: [0, 2, 4, 5, 7, 9, 11], chord: [7, 11, 2]}
voices:
  - id: 0
    range: {low: 40, high: 60}
    rhythm: {bar: 1920, onsets: [0, 960], durations: [960, 960]}
  - id: 1
    range: {low: 60, high: 79}
    rhythm: {bar: 1920, onsets: [0], durations: [1920]}
pattern:
  segment_length: 1920
log:
  level: error
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLeadCommand(t *testing.T) {
	out, err := execute(t, "lead", "--from", "0,4,7", "--to", "2,5,9")
	require.NoError(t, err)
	assert.Equal(t, "displacement 5\n[2 1 2]\n", out)

	out, err = execute(t, "lead", "--from", "0,4,7", "--to", "2,5,9", "--floor", "5", "--exclude", "2:2")
	require.NoError(t, err)
	assert.Equal(t, "displacement 9\n[-3 1 -5]\n", out)
}

func TestLeadValidation(t *testing.T) {
	cases := map[string]model.LeadRequestBody{
		"zero tet":         {Tet: 0, From: []int{0}, To: []int{0}},
		"size mismatch":    {Tet: 12, From: []int{0, 4}, To: []int{0}},
		"class too big":    {Tet: 12, From: []int{12}, To: []int{0}},
		"short exclusion":  {Tet: 12, From: []int{0}, To: []int{0}, Exclusions: [][]int{{0}}},
		"exclusion index":  {Tet: 12, From: []int{0}, To: []int{0}, Exclusions: [][]int{{3, 1}}},
		"too many classes": {Tet: 24, From: make([]int, 13), To: make([]int, 13)},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := lead(body)
			assert.Error(t, err)
		})
	}

	// the only motion is excluded
	_, err := lead(model.LeadRequestBody{Tet: 12, From: []int{0}, To: []int{2}, Exclusions: [][]int{{0, 2}}})
	assert.ErrorIs(t, err, errNoLeading)
}

func TestParseExclusion(t *testing.T) {
	pair, err := parseExclusion("2:5")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, pair)

	for _, bad := range []string{"2", "a:1", "1:", ":"} {
		_, err := parseExclusion(bad)
		assert.Error(t, err, bad)
	}
}

func TestHandleLead(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/lead", strings.NewReader(`{"tet": 12, "from": [0, 4, 7], "to": [0, 5, 9]}`))
	w := httptest.NewRecorder()
	HandleLead(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res model.LeadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, model.LeadResponse{Displacement: 3, Mappings: [][]int{{0, 1, 2}}}, res)
}

func TestHandleLeadErrors(t *testing.T) {
	cases := map[string]struct {
		body   string
		status int
	}{
		"invalid json": {`{"tet":`, http.StatusBadRequest},
		"bad request":  {`{"tet": 12, "from": [0], "to": []}`, http.StatusBadRequest},
		"no leading":   {`{"tet": 12, "from": [0], "to": [0], "floor": 0}`, http.StatusUnprocessableEntity},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleLead(w, httptest.NewRequest(http.MethodPost, "/lead", strings.NewReader(c.body)))
			assert.Equal(t, c.status, w.Code)

			var res model.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
			assert.NotEmpty(t, res.Error)
		})
	}
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte(settingsYAML), 0644))
	dest := filepath.Join(dir, "out.mid")

	out, err := execute(t, "generate", "-c", settings, "-o", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "succeeded after 1 attempt(s)")
	assert.Contains(t, out, "wrote 6 notes to "+dest)

	rhythms, err := midi.ReadRhythms(dest, 480)
	require.NoError(t, err)
	assert.Len(t, rhythms, 2)
	assert.Equal(t, 4, rhythms[0].Len())
}

func TestGenerateCommandBadSettings(t *testing.T) {
	settings := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("tet: 1\n"), 0644))

	_, err := execute(t, "generate", "-c", settings)
	assert.Error(t, err)
}

func TestPrintReport(t *testing.T) {
	var out bytes.Buffer
	printReport(&out, &model.RunReport{
		ID:          "abc",
		Seed:        3,
		Attempts:    2,
		Failures:    map[string]int{"range": 2, "consonance": 1},
		Transitions: map[string]int{"0->1": 3},
	})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "run abc failed after 2 attempt(s), seed 3", lines[0])
	assert.Contains(t, lines[1], "consonance")
	assert.Contains(t, lines[3], "0->1")
}

// memoryDynamo keeps items in memory keyed by PK.
type memoryDynamo struct {
	dynamodbiface.DynamoDBAPI
	items map[string]map[string]*dynamodb.AttributeValue
}

func (m *memoryDynamo) PutItem(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
	m.items[*in.Item["PK"].S] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *memoryDynamo) BatchGetItem(in *dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error) {
	out := &dynamodb.BatchGetItemOutput{Responses: make(map[string][]map[string]*dynamodb.AttributeValue)}
	for table, req := range in.RequestItems {
		for _, key := range req.Keys {
			if item, ok := m.items[*key["PK"].S]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func useMemoryStore(t *testing.T) *db.Store {
	t.Helper()
	store := db.NewStoreWithClient(&memoryDynamo{items: make(map[string]map[string]*dynamodb.AttributeValue)}, "runs")
	previous := openStore
	openStore = func() (*db.Store, error) { return store, nil }
	t.Cleanup(func() { openStore = previous })
	return store
}

func TestReportCommand(t *testing.T) {
	store := useMemoryStore(t)
	require.NoError(t, store.SaveReport(&model.RunReport{
		ID:        "run-1",
		Seed:      9,
		Attempts:  1,
		Succeeded: true,
		Failures:  map[string]int{"range": 2},
	}))

	out, err := execute(t, "report", "run-1")
	require.NoError(t, err)
	assert.Contains(t, out, "run run-1 succeeded after 1 attempt(s), seed 9")
	assert.Contains(t, out, "range")

	out, err = execute(t, "report", "run-1", "run-2")
	assert.ErrorContains(t, err, "run-2")
	assert.Contains(t, out, "run run-1 succeeded")
}

func TestGenerateRecordsReport(t *testing.T) {
	store := useMemoryStore(t)
	t.Cleanup(func() { record = false })
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte(settingsYAML), 0644))

	out, err := execute(t, "generate", "-c", settings, "-o", filepath.Join(dir, "out.mid"), "--record")
	require.NoError(t, err)

	id := strings.Fields(out)[1]
	reports, err := store.GetReports([]string{id})
	require.NoError(t, err)
	require.Contains(t, reports, id)
	assert.True(t, reports[id].Succeeded)
}

func TestSerializeNeverOverlaps(t *testing.T) {
	var active, peak int32
	run := serialize(func() {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&active, -1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), peak)
}
