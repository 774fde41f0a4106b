package db

import (
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/voicelead/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items in memory keyed by PK.
type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI
	items map[string]map[string]*dynamodb.AttributeValue
	err   error
}

func (f *fakeDynamo) PutItem(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.items[*in.Item["PK"].S] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) BatchGetItem(in *dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &dynamodb.BatchGetItemOutput{Responses: make(map[string][]map[string]*dynamodb.AttributeValue)}
	for table, req := range in.RequestItems {
		for _, key := range req.Keys {
			if item, ok := f.items[*key["PK"].S]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func report() *model.RunReport {
	return &model.RunReport{
		ID:          "3f1b7f3e-6a55-4f4e-9b7b-0c8f1d0e2a11",
		Seed:        7,
		Attempts:    2,
		Succeeded:   true,
		Failures:    map[string]int{"range": 3, "parallels": 1},
		Transitions: map[string]int{"0->1": 4},
		Notes:       24,
		CreatedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndGetReports(t *testing.T) {
	fake := &fakeDynamo{items: make(map[string]map[string]*dynamodb.AttributeValue)}
	store := NewStoreWithClient(fake, "voicelead-runs")

	require.NoError(t, store.SaveReport(report()))

	got, err := store.GetReports([]string{report().ID, "missing"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, *report(), got[report().ID])
}

func TestReportItem(t *testing.T) {
	item := reportItem(report())

	assert := assert.New(t)
	assert.Equal("7", *item["Seed"].N)
	assert.True(*item["Succeeded"].BOOL)
	assert.Equal("3", *item["Failures"].M["range"].N)
	assert.Equal("2024-05-01T12:00:00Z", *item["CreatedAt"].S)
}

func TestParseReportRejectsBadNumbers(t *testing.T) {
	item := reportItem(report())
	item["Attempts"] = &dynamodb.AttributeValue{N: aws.String("two")}
	_, err := parseReport(item)
	assert.Error(t, err)
}

func TestStoreErrors(t *testing.T) {
	fake := &fakeDynamo{err: errors.New("throttled")}
	store := NewStoreWithClient(fake, "voicelead-runs")

	assert.ErrorContains(t, store.SaveReport(report()), "throttled")
	_, err := store.GetReports([]string{"a"})
	assert.Error(t, err)

	ids := make([]string, maxBatch+1)
	_, err = store.GetReports(ids)
	assert.Error(t, err)

	got, err := store.GetReports(nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
}
