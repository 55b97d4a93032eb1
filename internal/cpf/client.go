// Package cpf はCPF（ブラジル個人納税者番号）の形式検証と外部照会を提供する。
// 外部照会はフェイルオープンで、照会サービスの障害で登録を止めない。
package cpf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
)

const (
	// DefaultEndpoint はReceitaWSのCPF照会エンドポイント。
	DefaultEndpoint = "https://www.receitaws.com.br/v1/cpf"

	// maxResponseBytes は照会レスポンスの読み取り上限。
	maxResponseBytes = 64 * 1024
)

// 照会結果の種別。メトリクスのラベルとログに使用する。
const (
	OutcomeValid    = "valid"
	OutcomeInvalid  = "invalid"
	OutcomeFailOpen = "fail_open"
)

var formatPattern = regexp.MustCompile(`^[0-9]{3}\.[0-9]{3}\.[0-9]{3}-[0-9]{2}$`)

// FormatValid はCPFが NNN.NNN.NNN-NN 形式かを検証する。
func FormatValid(cpf string) bool {
	return formatPattern.MatchString(cpf)
}

// Digits はCPFから区切り文字（. と -）を除去する。
func Digits(cpf string) string {
	return strings.NewReplacer(".", "", "-", "").Replace(cpf)
}

// OutcomeRecorder は照会結果の記録先。metrics.Collectorが実装する。
type OutcomeRecorder interface {
	RecordCPFVerification(outcome string)
}

// Verifier はCPF外部照会のインターフェース。
type Verifier interface {
	Verify(ctx context.Context, cpf string) bool
}

// Client はCPF照会サービスのHTTPクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	recorder   OutcomeRecorder
	endpoint   string
}

// NewClient はClientの新しいインスタンスを生成する。
// endpointが空の場合はDefaultEndpointを使用する。recorderはnilでもよい。
// タイムアウトはhttpClient側で設定する。
func NewClient(httpClient *http.Client, endpoint string, logger *slog.Logger, recorder OutcomeRecorder) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		recorder:   recorder,
		endpoint:   strings.TrimRight(endpoint, "/"),
	}
}

type verifyResponse struct {
	Status string `json:"status"`
}

// Verify はCPFを外部サービスで照会する。
// HTTP 200かつstatusが"ok"の場合のみ有効と判定し、200でstatusが"ok"以外なら無効とする。
// 200以外のステータス、通信エラー、タイムアウト、不正なJSONはすべて有効として扱う。
func (c *Client) Verify(ctx context.Context, cpf string) bool {
	digits := Digits(cpf)

	valid, err := c.lookup(ctx, digits)
	if err != nil {
		c.logger.Warn("CPF照会に失敗したため有効として扱います",
			slog.String("error", err.Error()),
		)
		c.record(OutcomeFailOpen)
		return true
	}

	if !valid {
		c.logger.Info("CPF照会で無効と判定されました")
		c.record(OutcomeInvalid)
		return false
	}
	c.record(OutcomeValid)
	return true
}

// lookup は照会を実行する。判定不能な場合はエラーを返す。
func (c *Client) lookup(ctx context.Context, digits string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/"+digits, nil)
	if err != nil {
		return false, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Conecta/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("CPF照会サービスがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result verifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return result.Status == "ok", nil
}

func (c *Client) record(outcome string) {
	if c.recorder != nil {
		c.recorder.RecordCPFVerification(outcome)
	}
}

// Disabled は外部照会を行わず常に有効と判定するVerifier。
// CPF_VERIFIER_ENABLED=false の環境で使用する。
type Disabled struct{}

// Verify は常にtrueを返す。
func (Disabled) Verify(context.Context, string) bool { return true }

// compile-time interface check
var (
	_ Verifier = (*Client)(nil)
	_ Verifier = Disabled{}
)
