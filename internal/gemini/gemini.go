// =============================================================================
// WeChat Order Ledger - Gemini Formatter
// =============================================================================
//
// This module is the text-generation collaborator: it sends the raw WeChat
// message to the Gemini generateContent API with a fixed instruction
// template and returns one line of 9 comma-separated values in the ledger
// column order.
//
// The model output is untrusted. Before handing it back, Format runs a
// deterministic post-processing step that re-extracts the CMA point count
// and the gift annotations directly from the original message with the
// pattern tables in internal/extract, and overwrites columns 8 and 9 with
// whatever the patterns found. The regexes are more reliable on those two
// fields than the model is, and keeping them deterministic makes the
// pipeline reproducible. The caller still treats the returned line as a
// CSV-like string to repair and parse, never as ready-made fields.
//
// =============================================================================

package gemini

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orderledger/internal/config"
	"orderledger/internal/extract"
	"orderledger/internal/rowcsv"
)

// promptTemplate is the fixed instruction the message is embedded into.
// %s is replaced with the raw WeChat text.
const promptTemplate = `请将以下微信消息内容转换为CSV格式的一行数据。

输出格式要求：
客户姓名,客户电话,客户地址,商品类型(国标/母婴),成交金额,面积,履约时间,CMA点位数量,备注赠品

注意事项：
1. 如果某个字段没有信息，请留空
2. 履约时间请使用YYYY-MM-DD格式
3. 成交金额只保留数字，不要包含"元"等单位
4. 面积只保留数字，不要包含"平方米"等单位
5. 商品类型只能是"国标"或"母婴"
6. 备注赠品格式：{品类:数量}，多个赠品用逗号分隔，如：{除醛宝:2,炭包:1}
7. 如果地址、姓名等字段包含逗号，请用双引号包围该字段

微信消息内容：
%s

请只输出CSV格式的一行数据，不要包含任何其他说明文字。`

// Client calls the Gemini generateContent endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// New builds a Client from configuration. The API key must be resolved
// (file or environment) before this point.
func New(cfg config.GeminiConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: missing API key (set " + cfg.APIKeyEnv + ")")
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(cfg.BaseURL, "/"), url.PathEscape(cfg.Model))

	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
	}, nil
}

// Request/response bodies, minimal fields only.

type genPart struct {
	Text string `json:"text"`
}

type genContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []genPart `json:"parts"`
}

type genRequest struct {
	Contents []genContent `json:"contents"`
}

type genResponse struct {
	Candidates []struct {
		Content struct {
			Parts []genPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Format sends the message through the prompt template and returns the
// post-processed CSV line. Transport failures, non-2xx statuses and empty
// candidate lists are all surfaced as errors, never as empty output.
func (c *Client) Format(ctx context.Context, message string) (string, error) {
	reqBody := genRequest{
		Contents: []genContent{{Parts: []genPart{{Text: fmt.Sprintf(promptTemplate, message)}}}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gemini: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+url.QueryEscape(c.apiKey), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		preview := string(body)
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		return "", fmt.Errorf("gemini: API returned status %d: %s", resp.StatusCode, preview)
	}

	var genResp genResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("gemini: failed to decode response: %w", err)
	}
	if genResp.Error != nil {
		return "", fmt.Errorf("gemini: API error %d: %s", genResp.Error.Code, genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: response contained no candidates")
	}

	var text strings.Builder
	for _, part := range genResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return PostProcess(strings.TrimSpace(text.String()), message), nil
}

// PostProcess overwrites the point-count and gift-notes columns of a
// formatted CSV line with values extracted from the original message. The
// line is padded to 9 columns when the model produced fewer. When the line
// cannot be parsed at all it is returned unchanged; the downstream repair
// and parse steps will deal with it.
func PostProcess(line, originalText string) string {
	repaired, _ := rowcsv.RepairLine(line)
	row, err := rowcsv.NewReader(strings.NewReader(repaired)).Read()
	if err != nil {
		return line
	}

	for len(row) < 9 {
		row = append(row, "")
	}

	if points := extract.PointCount(originalText); points != "" {
		row[7] = points
	}
	if gifts := extract.GiftNotes(originalText); gifts != "" {
		row[8] = gifts
	}

	var out strings.Builder
	w := csv.NewWriter(&out)
	_ = w.Write(row)
	w.Flush()

	return strings.TrimSpace(out.String())
}
