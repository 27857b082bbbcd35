// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	appsvc "mail-genie/internal/app"
)

func apiBaseURL() string {
	if u := os.Getenv("MAILGENIE_API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func newClient(baseURL string) *resty.Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(2 * time.Minute).
		SetHeader("Content-Type", "application/json")
	if token := os.Getenv("MAILGENIE_TOKEN"); token != "" {
		c.SetAuthToken(token)
	}
	return c
}

// postCompose 调用 POST /api/compose；400/422 时仍返回 Result 供调用方展示 message
func postCompose(c *resty.Client, req appsvc.ComposeRequest) (*appsvc.Result, error) {
	var out appsvc.Result
	resp, err := c.R().
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/api/compose")
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &out, nil
	default:
		return nil, fmt.Errorf("POST /api/compose: %s %s", resp.Status(), resp.String())
	}
}

func getHealth(c *resty.Client) (map[string]interface{}, error) {
	var out map[string]interface{}
	resp, err := c.R().
		SetResult(&out).
		Get("/api/health")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET /api/health: %s", resp.String())
	}
	return out, nil
}
