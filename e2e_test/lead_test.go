//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jsphweid/voicelead/cmd"
	"github.com/jsphweid/voicelead/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createLeadReqBody(body model.LeadRequestBody) io.Reader {
	data, err := json.Marshal(body)
	if err != nil {
		panic(err.Error())
	}
	return bytes.NewReader(data)
}

func post(t *testing.T, srv *httptest.Server, body model.LeadRequestBody) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/lead", "application/json", createLeadReqBody(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

func TestCMajorToDMinorE2E(t *testing.T) {
	srv := httptest.NewServer(cmd.NewRouter())
	defer srv.Close()

	resp, respBody := post(t, srv, model.LeadRequestBody{Tet: 12, From: []int{0, 4, 7}, To: []int{2, 5, 9}})

	assert := assert.New(t)
	assert.Equal(200, resp.StatusCode)

	var leadResponse model.LeadResponse
	require.NoError(t, json.Unmarshal(respBody, &leadResponse))
	assert.Equal(model.LeadResponse{Displacement: 5, Mappings: [][]int{{2, 1, 2}}}, leadResponse)
}

func TestExclusionAndFloorE2E(t *testing.T) {
	srv := httptest.NewServer(cmd.NewRouter())
	defer srv.Close()

	floor := 5
	resp, respBody := post(t, srv, model.LeadRequestBody{
		Tet:        12,
		From:       []int{0, 4, 7},
		To:         []int{2, 5, 9},
		Floor:      &floor,
		Exclusions: [][]int{{2, 2}},
	})

	assert := assert.New(t)
	assert.Equal(200, resp.StatusCode)

	var leadResponse model.LeadResponse
	require.NoError(t, json.Unmarshal(respBody, &leadResponse))
	assert.Equal(model.LeadResponse{Displacement: 9, Mappings: [][]int{{-3, 1, -5}}}, leadResponse)
}

func TestBadRequestE2E(t *testing.T) {
	srv := httptest.NewServer(cmd.NewRouter())
	defer srv.Close()

	resp, respBody := post(t, srv, model.LeadRequestBody{Tet: 12, From: []int{0, 4}, To: []int{2, 5, 9}})
	assert.Equal(t, 400, resp.StatusCode)

	var errResponse model.ErrorResponse
	require.NoError(t, json.Unmarshal(respBody, &errResponse))
	assert.Contains(t, errResponse.Error, "pitch classes")
}

func TestMetricsE2E(t *testing.T) {
	srv := httptest.NewServer(cmd.NewRouter())
	defer srv.Close()

	post(t, srv, model.LeadRequestBody{Tet: 12, From: []int{0}, To: []int{7}})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), "voicelead_http_lead_requests_total"))
}
