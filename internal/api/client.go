/**
 * Copyright (c) 2024 Peking University and Peking University
 * Changsha Institute for Computing and Digital Economy
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package api is the HTTP JSON client for the GPU inspection backend.
// Every method maps to one backend endpoint and returns typed errors so
// callers can tell rate limiting from real failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"GhxFrontEnd/internal/util"
)

const apiPrefix = "/api/gpu-inspection"

// Per-endpoint timeouts. Job enumeration walks the whole cluster and
// gets more room; the per-job status probe is kept short so enriching a
// long job list cannot stall.
const (
	ListJobsTimeout  = 30 * time.Second
	JobStatusTimeout = 10 * time.Second
)

type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
}

func NewClient(config *util.Config) *Client {
	timeout := time.Duration(config.RequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base:    config.BaseUrl(),
		http:    &http.Client{},
		timeout: timeout,
	}
}

// do runs one request and returns the body of a 2xx answer. 429 becomes
// RateLimitedError with the server's Retry-After when present, other
// non-2xx statuses become BackendError.
func (c *Client) do(method, path string, timeout time.Duration, reqBody any) ([]byte, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var bodyReader io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debugf("%s %s", method, path)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response failed: %w", path, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, rateLimited(resp, body)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := gjson.GetBytes(body, "error").String()
		if message == "" {
			message = gjson.GetBytes(body, "message").String()
		}
		return nil, &BackendError{Status: resp.StatusCode, Message: message}
	}
	return body, nil
}

func rateLimited(resp *http.Response, body []byte) *RateLimitedError {
	retryAfter := time.Duration(0)
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			retryAfter = time.Duration(seconds) * time.Second
		}
	}
	if retryAfter == 0 {
		if remaining := gjson.GetBytes(body, "remaining_seconds"); remaining.Exists() {
			retryAfter = time.Duration(remaining.Int()) * time.Second
		}
	}
	return &RateLimitedError{
		RetryAfter: retryAfter,
		Message:    gjson.GetBytes(body, "message").String(),
	}
}

// checkSuccess enforces the backend's `{"success": ..., "error": ...}`
// envelope on endpoints that use it.
func checkSuccess(endpoint string, body []byte) error {
	success := gjson.GetBytes(body, "success")
	if !success.Exists() {
		return &MalformedResponseError{
			Endpoint: endpoint,
			Err:      fmt.Errorf("missing success field"),
		}
	}
	if !success.Bool() {
		message := gjson.GetBytes(body, "error").String()
		if message == "" {
			message = gjson.GetBytes(body, "message").String()
		}
		return &BackendError{Status: http.StatusOK, Message: message}
	}
	return nil
}

// NodeStatus lists current per-node GPU allocation status.
func (c *Client) NodeStatus() ([]NodeStatus, error) {
	body, err := c.do(http.MethodGet, apiPrefix+"/node-status", 0, nil)
	if err != nil {
		return nil, err
	}
	if gjson.GetBytes(body, "error").Bool() {
		return nil, &BackendError{
			Status:  http.StatusOK,
			Message: gjson.GetBytes(body, "message").String(),
		}
	}

	var reply struct {
		Nodes []NodeStatus `json:"nodes"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, &MalformedResponseError{Endpoint: "node-status", Err: err}
	}
	return reply.Nodes, nil
}

// Inspection fetches the legacy node inspection records. The records are
// returned raw; their two historical shapes are untangled by the record
// package.
func (c *Client) Inspection(refresh bool) (*InspectionReply, error) {
	path := apiPrefix
	if refresh {
		path += "?refresh=true"
	}
	body, err := c.do(http.MethodGet, path, 0, nil)
	if err != nil {
		return nil, err
	}
	if gjson.GetBytes(body, "error").Bool() {
		return nil, &BackendError{
			Status:  http.StatusOK,
			Message: gjson.GetBytes(body, "message").String(),
		}
	}

	reply := &InspectionReply{
		LastUpdated: gjson.GetBytes(body, "summary.lastUpdated").String(),
	}
	for _, node := range gjson.GetBytes(body, "nodes").Array() {
		reply.Nodes = append(reply.Nodes, json.RawMessage(node.Raw))
	}
	return reply, nil
}

// CreateJob submits a diagnostic job and returns the new job id.
func (c *Client) CreateJob(request *CreateJobRequest) (string, error) {
	body, err := c.do(http.MethodPost, apiPrefix+"/create-job", 0, request)
	if err != nil {
		return "", err
	}
	if err := checkSuccess("create-job", body); err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "jobId").String(), nil
}

// StopJob asks the backend to stop a running job.
func (c *Client) StopJob(jobId string) error {
	body, err := c.do(http.MethodPost, apiPrefix+"/stop-job", 0,
		map[string]string{"jobId": jobId})
	if err != nil {
		return err
	}
	return checkSuccess("stop-job", body)
}

// DeleteJob removes one job record from the backend.
func (c *Client) DeleteJob(jobId string) error {
	body, err := c.do(http.MethodPost, apiPrefix+"/delete-job", 0,
		map[string]string{"jobId": jobId})
	if err != nil {
		return err
	}
	return checkSuccess("delete-job", body)
}

// DeleteJobs removes several job records in one call.
func (c *Client) DeleteJobs(jobIds []string) error {
	body, err := c.do(http.MethodPost, apiPrefix+"/delete-jobs", 0,
		map[string][]string{"jobIds": jobIds})
	if err != nil {
		return err
	}
	return checkSuccess("delete-jobs", body)
}

// ListJobs enumerates known diagnostic jobs.
func (c *Client) ListJobs() ([]Job, error) {
	body, err := c.do(http.MethodGet, apiPrefix+"/list-jobs", ListJobsTimeout, nil)
	if err != nil {
		return nil, err
	}
	if err := checkSuccess("list-jobs", body); err != nil {
		return nil, err
	}

	var reply struct {
		Jobs []Job `json:"jobs"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, &MalformedResponseError{Endpoint: "list-jobs", Err: err}
	}
	return reply.Jobs, nil
}

// JobStatus probes the live status of one job.
func (c *Client) JobStatus(jobId string) (*JobStatus, error) {
	body, err := c.do(http.MethodGet, apiPrefix+"/job-status/"+jobId, JobStatusTimeout, nil)
	if err != nil {
		return nil, err
	}
	if err := checkSuccess("job-status", body); err != nil {
		return nil, err
	}

	var status JobStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, &MalformedResponseError{Endpoint: "job-status", Err: err}
	}
	return &status, nil
}

// Results fetches all diagnostic results as raw records.
func (c *Client) Results() ([]json.RawMessage, error) {
	body, err := c.do(http.MethodGet, apiPrefix+"/results", 0, nil)
	if err != nil {
		return nil, err
	}
	if err := checkSuccess("results", body); err != nil {
		return nil, err
	}

	var results []json.RawMessage
	for _, result := range gjson.GetBytes(body, "results").Array() {
		results = append(results, json.RawMessage(result.Raw))
	}
	return results, nil
}

// ResultByJob fetches the raw diagnostic result of one job, nil when the
// backend has none.
func (c *Client) ResultByJob(jobId string) (json.RawMessage, error) {
	body, err := c.do(http.MethodGet, apiPrefix+"/results/job/"+jobId, 0, nil)
	if err != nil {
		return nil, err
	}
	if err := checkSuccess("result-by-job", body); err != nil {
		return nil, err
	}

	result := gjson.GetBytes(body, "result")
	if !result.Exists() {
		return nil, nil
	}
	return json.RawMessage(result.Raw), nil
}

// DeleteResult removes one diagnostic result, keyed by its job id.
func (c *Client) DeleteResult(resultId string) error {
	body, err := c.do(http.MethodPost, apiPrefix+"/delete-diagnostic-result", 0,
		map[string]string{"resultId": resultId})
	if err != nil {
		return err
	}
	return checkSuccess("delete-diagnostic-result", body)
}

// DeleteResults removes several diagnostic results in one call.
func (c *Client) DeleteResults(resultIds []string) error {
	body, err := c.do(http.MethodPost, apiPrefix+"/delete-diagnostic-results", 0,
		map[string][]string{"resultIds": resultIds})
	if err != nil {
		return err
	}
	return checkSuccess("delete-diagnostic-results", body)
}

// StreamUrl is the SSE endpoint consumed by the stream package.
func (c *Client) StreamUrl() string {
	return c.base + apiPrefix + "/job-status-stream"
}
