//go:build integration
// +build integration

// Package integration provides end-to-end tests for the Sentinel fraud
// scoring service.
//
// These tests verify the COMPLETE scoring pipeline:
//
//	Record → Validation → Model → Probability → Justification
//
// Run against a live server: go test -tags=integration -v ./tests/integration/...
//
// UNDERSTANDING THE DOMAIN:
//
// 1. RECORD: One card transaction plus client attributes. Six keys are
//    required: age, monthlyIncome, creditScore, amount, hourOfDay,
//    isInternational.
//
// 2. PROBABILITY: The model's fraud probability, rounded to 4 decimals.
//
// 3. JUSTIFICATION: Rule-derived reasons joined by " | ", or the
//    fallback sentence when no rule triggers. The justification is
//    independent of the model output.
//
// The server trains its model at startup from a deterministic synthetic
// dataset, so identical requests always return identical responses.
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// TestConfig holds test environment configuration
type TestConfig struct {
	BaseURL string
}

func getTestConfig() TestConfig {
	baseURL := os.Getenv("SENTINEL_TEST_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return TestConfig{BaseURL: baseURL}
}

// PredictResponse is what POST /predict returns
type PredictResponse struct {
	PredictionID  string  `json:"predictionId"`
	Probability   float64 `json:"probability"`
	Justification string  `json:"justification"`
}

// ErrorResponse is the error envelope for 4xx/5xx responses
type ErrorResponse struct {
	Error string `json:"error"`
}

func predictRaw(t *testing.T, config TestConfig, body []byte) (int, []byte) {
	t.Helper()

	httpReq, err := http.NewRequest("POST", config.BaseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}

	return resp.StatusCode, respBody
}

func predict(t *testing.T, config TestConfig, record map[string]any) PredictResponse {
	t.Helper()

	body, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	status, respBody := predictRaw(t, config, body)
	if status != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", status, string(respBody))
	}

	var result PredictResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (body: %s)", err, string(respBody))
	}

	return result
}

// ============================================================================
// SCENARIO 1: Low-risk transaction (fallback justification)
// ============================================================================

func TestLowRiskTransaction(t *testing.T) {
	/*
	   SCENARIO: A daytime $80 domestic purchase by a client with a good
	   credit score and a solid income.

	   EXPECTED BEHAVIOR: No justification rule triggers, so the fallback
	   sentence is returned and the probability is low.
	*/
	config := getTestConfig()

	record := map[string]any{
		"age":             35,
		"monthlyIncome":   5000.0,
		"creditScore":     720,
		"amount":          80.0,
		"hourOfDay":       14,
		"isInternational": false,
	}

	result := predict(t, config, record)

	if result.Probability > 0.5 {
		t.Errorf("Expected low probability (< 0.5), got %.4f", result.Probability)
	}

	fallback := "no obvious risk factor; decision based on overall model pattern"
	if result.Justification != fallback {
		t.Errorf("Expected fallback justification, got %q", result.Justification)
	}

	t.Logf("✓ Low-risk transaction: probability=%.4f", result.Probability)
}

// ============================================================================
// SCENARIO 2: High-risk transaction (all rules trigger, in order)
// ============================================================================

func TestHighRiskTransaction(t *testing.T) {
	/*
	   SCENARIO: A $3,000 late-night purchase by a low-credit-score
	   client earning $4,000 a month.

	   EXPECTED BEHAVIOR: All four justification rules fire, joined by
	   " | " in their fixed order.
	*/
	config := getTestConfig()

	record := map[string]any{
		"age":             45,
		"monthlyIncome":   4000.0,
		"creditScore":     400,
		"amount":          3000.0,
		"hourOfDay":       2,
		"isInternational": true,
	}

	result := predict(t, config, record)

	want := "amount exceeds average card limit | amount high relative to monthly income | atypical hour (late night) | high amount for low-credit-score client"
	if result.Justification != want {
		t.Errorf("Expected justification %q, got %q", want, result.Justification)
	}

	t.Logf("✓ High-risk transaction: probability=%.4f", result.Probability)
}

// ============================================================================
// SCENARIO 3: Determinism across repeated requests
// ============================================================================

func TestDeterministicScoring(t *testing.T) {
	config := getTestConfig()

	record := map[string]any{
		"age":             28,
		"monthlyIncome":   3200.0,
		"creditScore":     510,
		"amount":          640.0,
		"hourOfDay":       22,
		"isInternational": false,
	}

	first := predict(t, config, record)
	for i := 0; i < 5; i++ {
		result := predict(t, config, record)
		if result.Probability != first.Probability {
			t.Fatalf("Probability changed across identical requests: %.4f vs %.4f",
				first.Probability, result.Probability)
		}
		if result.Justification != first.Justification {
			t.Fatalf("Justification changed across identical requests")
		}
	}

	t.Logf("✓ Deterministic: probability=%.4f across 6 requests", first.Probability)
}

// ============================================================================
// SCENARIO 4: Missing keys (client error)
// ============================================================================

func TestMissingKeys_Error(t *testing.T) {
	config := getTestConfig()

	status, body := predictRaw(t, config, []byte(`{}`))
	if status != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d: %s", status, string(body))
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("Failed to unmarshal error response: %v", err)
	}

	for _, key := range []string{"age", "monthlyIncome", "creditScore", "amount", "hourOfDay", "isInternational"} {
		if !strings.Contains(errResp.Error, key) {
			t.Errorf("Expected error to name missing key %s, got %q", key, errResp.Error)
		}
	}

	t.Logf("✓ Missing keys rejected: %s", errResp.Error)
}

// ============================================================================
// SCENARIO 5: Malformed JSON (client error)
// ============================================================================

func TestMalformedJSON_Error(t *testing.T) {
	config := getTestConfig()

	status, _ := predictRaw(t, config, []byte(`{broken`))
	if status != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", status)
	}
}

// ============================================================================
// SCENARIO 6: Model metadata
// ============================================================================

func TestModelMetadata(t *testing.T) {
	config := getTestConfig()

	resp, err := http.Get(config.BaseURL + "/model")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var info struct {
		FeatureNames []string `json:"featureNames"`
		Trees        int      `json:"trees"`
		Samples      int      `json:"samples"`
		FraudRate    float64  `json:"fraudRate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(info.FeatureNames) != 6 {
		t.Errorf("Expected 6 feature names, got %d", len(info.FeatureNames))
	}
	if info.Trees == 0 {
		t.Error("Expected non-zero tree count")
	}
	if info.FraudRate < 0.02 || info.FraudRate > 0.04 {
		t.Errorf("Expected fraud rate near 0.03, got %.4f", info.FraudRate)
	}

	t.Logf("✓ Model: trees=%d samples=%d fraudRate=%.4f", info.Trees, info.Samples, info.FraudRate)
}
