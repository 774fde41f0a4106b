// Package db persists run reports to DynamoDB.
package db

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jsphweid/voicelead/model"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// maxBatch is DynamoDB's BatchGetItem key limit.
const maxBatch = 100

type Store struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

// NewStore connects to the DynamoDB endpoint, e.g. a local instance at
// http://localhost:8000.
func NewStore(endpoint, table string) (*Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String("localhost"),
		Endpoint: aws.String(endpoint),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create a DynamoDB session: %w", err)
	}
	return NewStoreWithClient(dynamodb.New(sess), table), nil
}

func NewStoreWithClient(client dynamodbiface.DynamoDBAPI, table string) *Store {
	return &Store{client: client, table: table}
}

func (s *Store) SaveReport(r *model.RunReport) error {
	_, err := s.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      reportItem(r),
	})
	if err != nil {
		return fmt.Errorf("saving report %s: %w", r.ID, err)
	}
	return nil
}

// GetReports loads reports by ID. Unknown IDs are missing from the result.
func (s *Store) GetReports(ids []string) (map[string]model.RunReport, error) {
	if len(ids) > maxBatch {
		return nil, fmt.Errorf("at most %d reports per request, got %d", maxBatch, len(ids))
	}
	res := make(map[string]model.RunReport)
	if len(ids) == 0 {
		return res, nil
	}

	var keys []map[string]*dynamodb.AttributeValue
	for _, id := range ids {
		keys = append(keys, map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(id)},
		})
	}
	out, err := s.client.BatchGetItem(&dynamodb.BatchGetItemInput{
		RequestItems: map[string]*dynamodb.KeysAndAttributes{
			s.table: {Keys: keys},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error from DynamoDB: %w", err)
	}

	for _, item := range out.Responses[s.table] {
		r, err := parseReport(item)
		if err != nil {
			return nil, err
		}
		res[r.ID] = r
	}
	return res, nil
}

func number[A int | uint64](n A) *dynamodb.AttributeValue {
	return &dynamodb.AttributeValue{N: aws.String(fmt.Sprint(n))}
}

func counts(m map[string]int) *dynamodb.AttributeValue {
	res := make(map[string]*dynamodb.AttributeValue, len(m))
	for k, v := range m {
		res[k] = number(v)
	}
	return &dynamodb.AttributeValue{M: res}
}

func reportItem(r *model.RunReport) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"PK":          {S: aws.String(r.ID)},
		"Seed":        number(r.Seed),
		"Attempts":    number(r.Attempts),
		"Succeeded":   {BOOL: aws.Bool(r.Succeeded)},
		"Notes":       number(r.Notes),
		"Failures":    counts(r.Failures),
		"Transitions": counts(r.Transitions),
		"CreatedAt":   {S: aws.String(r.CreatedAt.UTC().Format(time.RFC3339))},
	}
}

func parseReport(item map[string]*dynamodb.AttributeValue) (model.RunReport, error) {
	var r model.RunReport
	var err error
	if v := item["PK"]; v != nil && v.S != nil {
		r.ID = *v.S
	}
	if v := item["Seed"]; v != nil && v.N != nil {
		if r.Seed, err = strconv.ParseUint(*v.N, 10, 64); err != nil {
			return r, fmt.Errorf("report %s: bad seed: %w", r.ID, err)
		}
	}
	if r.Attempts, err = parseInt(item["Attempts"]); err != nil {
		return r, fmt.Errorf("report %s: bad attempts: %w", r.ID, err)
	}
	if r.Notes, err = parseInt(item["Notes"]); err != nil {
		return r, fmt.Errorf("report %s: bad note count: %w", r.ID, err)
	}
	if v := item["Succeeded"]; v != nil && v.BOOL != nil {
		r.Succeeded = *v.BOOL
	}
	if r.Failures, err = parseCounts(item["Failures"]); err != nil {
		return r, fmt.Errorf("report %s: %w", r.ID, err)
	}
	if r.Transitions, err = parseCounts(item["Transitions"]); err != nil {
		return r, fmt.Errorf("report %s: %w", r.ID, err)
	}
	if v := item["CreatedAt"]; v != nil && v.S != nil {
		if r.CreatedAt, err = time.Parse(time.RFC3339, *v.S); err != nil {
			return r, fmt.Errorf("report %s: bad timestamp: %w", r.ID, err)
		}
	}
	return r, nil
}

func parseInt(v *dynamodb.AttributeValue) (int, error) {
	if v == nil || v.N == nil {
		return 0, nil
	}
	return strconv.Atoi(*v.N)
}

func parseCounts(v *dynamodb.AttributeValue) (map[string]int, error) {
	res := make(map[string]int)
	if v == nil {
		return res, nil
	}
	for k, n := range v.M {
		count, err := parseInt(n)
		if err != nil {
			return nil, fmt.Errorf("bad count for %s: %w", k, err)
		}
		res[k] = count
	}
	return res, nil
}
